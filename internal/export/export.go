// Package export writes normalized incidents as JSON or CSV.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strconv"

	json "github.com/goccy/go-json"

	"phillysafe/pkg/models"
)

var csvHeader = []string{
	"id", "latitude", "longitude", "category", "severity", "type",
	"neighborhood", "address", "source", "date", "description",
}

// WriteJSON writes items as an indented JSON array. The output can be served
// back by the mirror server or read by crime.FileSource.
func WriteJSON(w io.Writer, items []models.CanonicalIncident) error {
	if items == nil {
		items = []models.CanonicalIncident{}
	}
	data, err := json.MarshalIndent(items, "", "  ")
	if err != nil {
		return err
	}
	_, err = w.Write(data)
	return err
}

func WriteCSV(w io.Writer, items []models.CanonicalIncident) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return err
	}
	for _, it := range items {
		row := []string{
			it.ID,
			strconv.FormatFloat(it.Latitude, 'f', -1, 64),
			strconv.FormatFloat(it.Longitude, 'f', -1, 64),
			string(it.Category),
			strconv.Itoa(it.Severity),
			it.Type,
			it.Neighborhood,
			it.Address,
			string(it.Source),
			it.Date,
			it.Description,
		}
		if err := cw.Write(row); err != nil {
			return err
		}
	}
	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

// ToFile creates path (and its directory) and hands the file to write.
func ToFile(path string, write func(io.Writer) error) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return err
	}
	return f.Close()
}
