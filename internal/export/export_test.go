package export

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"phillysafe/internal/crime"
	"phillysafe/internal/normalize"
	"phillysafe/pkg/models"
)

var sample = []models.CanonicalIncident{
	{
		ID: "a1", Latitude: 39.95, Longitude: -75.16, Category: models.CategoryProperty,
		Severity: 3, Type: "Thefts", Neighborhood: "MARKET ST", Address: "1500 BLOCK MARKET ST",
		Source: models.SourceOfficial, Date: "2025-01-19", Description: "Thefts",
	},
	{
		ID: "b2", Latitude: 39.97, Longitude: -75.13, Category: models.CategoryViolent,
		Severity: 5, Type: "Assault", Neighborhood: "Unknown",
		Source: models.SourceCommunity, Date: "2025-01-20", Description: "Assault, with a comma",
	},
}

func TestWriteJSON_RoundTripsThroughFileSource(t *testing.T) {
	path := filepath.Join(t.TempDir(), "data", "mirror.json")
	require.NoError(t, ToFile(path, func(w io.Writer) error { return WriteJSON(w, sample) }))

	raws, err := crime.NewFileSource(path).FetchIncidents(context.Background())
	require.NoError(t, err)
	assert.Equal(t, sample, normalize.Normalize(raws))
}

func TestWriteJSON_NilIsEmptyArray(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteJSON(&buf, nil))
	assert.Equal(t, "[]", buf.String())
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sample))

	rows, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, csvHeader, rows[0])
	assert.Equal(t, []string{"a1", "39.95", "-75.16", "property", "3", "Thefts", "MARKET ST", "1500 BLOCK MARKET ST", "official", "2025-01-19", "Thefts"}, rows[1])
	assert.Equal(t, "Assault, with a comma", rows[2][10])
}

func TestToFile_PropagatesWriteError(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.csv")
	boom := errors.New("boom")
	assert.ErrorIs(t, ToFile(path, func(io.Writer) error { return boom }), boom)

	_, err := os.Stat(path)
	assert.NoError(t, err)
}
