// Package normalize maps raw incident records from any backend into
// models.CanonicalIncident, the only shape the display layer consumes.
package normalize

import (
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/google/uuid"

	"phillysafe/pkg/models"
)

const (
	MinSeverity = 1
	MaxSeverity = 5

	unknownNeighborhood = "Unknown"
	unknownType         = "Unknown Crime"
	unknownAddress      = "Unknown Location"
)

// namespace for name-based ids of records that arrive without one
var incidentNamespace = uuid.NewSHA1(uuid.NameSpaceURL, []byte("https://phillysafe.app/incidents"))

// now is swapped in tests.
var now = time.Now

// ucrBuckets is the fixed hundreds-range table for UCR general codes.
var ucrBuckets = []struct {
	lo, hi   int
	category models.Category
	severity int
}{
	{100, 200, models.CategoryViolent, 3},
	{200, 300, models.CategoryProperty, 2},
	{300, 400, models.CategoryViolent, 3},
	{400, 500, models.CategoryProperty, 2},
	{500, 600, models.CategoryProperty, 2},
	{600, 700, models.CategoryVehicle, 2},
	{700, 800, models.CategoryDrug, 3},
	{800, 900, models.CategoryVandalism, 1},
}

// Classify buckets a UCR code. Zero means no code.
func Classify(code int) models.Category {
	for _, b := range ucrBuckets {
		if code >= b.lo && code < b.hi {
			return b.category
		}
	}
	return models.CategoryOther
}

// SeverityFromCode returns 1, 2 or 3 for a UCR code. Zero means no code.
func SeverityFromCode(code int) int {
	for _, b := range ucrBuckets {
		if code >= b.lo && code < b.hi {
			return b.severity
		}
	}
	return 1
}

// ScaleSeverity lifts the 1..3 code severity onto the canonical 1..5 scale.
func ScaleSeverity(codeSeverity int) int {
	return clampSeverity(2*codeSeverity - 1)
}

// ExtractNeighborhood keeps the direction and street of a
// "NNN BLOCK <direction> <street>" location string.
func ExtractNeighborhood(locationBlock string) string {
	parts := strings.Fields(locationBlock)
	if len(parts) > 2 {
		return strings.Join(parts[2:], " ")
	}
	return unknownNeighborhood
}

// Normalize converts a whole fetch result. A nil or empty input yields an
// empty, non-nil slice.
func Normalize(raws []models.RawIncident) []models.CanonicalIncident {
	out := make([]models.CanonicalIncident, 0, len(raws))
	for _, r := range raws {
		out = append(out, ToCanonical(r))
	}
	return out
}

// ToCanonical dispatches on the record's shape. An empty RawIncident is
// treated as an official record with every field missing.
func ToCanonical(raw models.RawIncident) models.CanonicalIncident {
	switch raw.Shape() {
	case models.ShapeSimulated:
		return fromSimulated(*raw.Simulated)
	case models.ShapeOfficial:
		return fromOfficial(*raw.Official)
	default:
		return fromOfficial(models.OfficialIncident{})
	}
}

func fromOfficial(o models.OfficialIncident) models.CanonicalIncident {
	code := o.UCRGeneral.Int()

	c := models.CanonicalIncident{
		Latitude:     firstCoord(o.Lat.Float(), o.PointY.Float()),
		Longitude:    firstCoord(o.Lng.Float(), o.PointX.Float()),
		Category:     Classify(code),
		Severity:     ScaleSeverity(SeverityFromCode(code)),
		Type:         firstNonEmpty(o.TextGeneralCode, unknownType),
		Neighborhood: ExtractNeighborhood(o.LocationBlock),
		Address:      firstNonEmpty(o.LocationBlock, unknownAddress),
		Source:       models.SourceOfficial,
		Date:         dayOf(o.DispatchDate, o.DispatchDateTime),
		Description:  o.TextGeneralCode,
	}
	c.ID = firstNonEmpty(o.ID.String(), o.MongoID.String(), o.DCKey.String())
	if c.ID == "" {
		c.ID = synthesizeID(c)
	}
	return c
}

func fromSimulated(s models.SimulatedIncident) models.CanonicalIncident {
	c := models.CanonicalIncident{
		ID:           s.ID,
		Latitude:     finite(s.Latitude.Float()),
		Longitude:    finite(s.Longitude.Float()),
		Severity:     clampSeverity(int(math.Round(finite(s.Severity.Float())))),
		Type:         firstNonEmpty(s.Type, s.CrimeType, unknownType),
		Neighborhood: firstNonEmpty(s.Neighborhood, unknownNeighborhood),
		Address:      s.Address,
		Source:       models.SourceCommunity,
		Date:         dayOf(s.Date),
		Description:  s.Description,
	}

	if cat, ok := models.ParseCategory(s.Category); ok {
		c.Category = cat
	} else {
		c.Category = ClassifyText(firstNonEmpty(s.CrimeType, s.Type))
	}
	if src := models.SourceKind(s.Source); src == models.SourceOfficial || src == models.SourceCommunity {
		c.Source = src
	}
	if c.ID == "" {
		c.ID = synthesizeID(c)
	}
	return c
}

// reportSeverity maps the low/medium/high scale of community reports.
var reportSeverity = map[string]int{
	"low":    1,
	"medium": 3,
	"high":   5,
}

// FromReport renders a community report on the same map as incidents.
func FromReport(r models.UserReport) models.CanonicalIncident {
	c := models.CanonicalIncident{
		ID:           r.Key(),
		Category:     ClassifyText(r.Type),
		Severity:     MinSeverity,
		Type:         firstNonEmpty(r.Type, unknownType),
		Neighborhood: ExtractNeighborhood(r.Location),
		Address:      r.Location,
		Source:       models.SourceCommunity,
		Date:         dayOf(r.Timestamp),
		Description:  r.Description,
	}
	if r.Lat != nil {
		c.Latitude = finite(*r.Lat)
	}
	if r.Lng != nil {
		c.Longitude = finite(*r.Lng)
	}
	if sev, ok := reportSeverity[strings.ToLower(strings.TrimSpace(r.Severity))]; ok {
		c.Severity = sev
	}
	if c.ID == "" {
		c.ID = synthesizeID(c)
	}
	return c
}

func synthesizeID(c models.CanonicalIncident) string {
	name := fmt.Sprintf("%.6f|%.6f|%s|%s", c.Latitude, c.Longitude, c.Date, c.Type)
	return uuid.NewSHA1(incidentNamespace, []byte(name)).String()
}

// dayOf returns the YYYY-MM-DD prefix of the first non-empty timestamp,
// or today when none is present.
func dayOf(candidates ...string) string {
	for _, s := range candidates {
		s = strings.TrimSpace(s)
		if s == "" {
			continue
		}
		if i := strings.IndexAny(s, "T "); i >= 0 {
			s = s[:i]
		}
		return s
	}
	return now().UTC().Format("2006-01-02")
}

// firstCoord returns the first usable coordinate; zero counts as absent.
func firstCoord(vals ...float64) float64 {
	for _, v := range vals {
		if v = finite(v); v != 0 {
			return v
		}
	}
	return 0
}

func finite(v float64) float64 {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		return 0
	}
	return v
}

func clampSeverity(s int) int {
	if s < MinSeverity {
		return MinSeverity
	}
	if s > MaxSeverity {
		return MaxSeverity
	}
	return s
}

func firstNonEmpty(vals ...string) string {
	for _, v := range vals {
		if strings.TrimSpace(v) != "" {
			return v
		}
	}
	return ""
}
