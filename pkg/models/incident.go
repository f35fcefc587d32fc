package models

import (
	"fmt"

	json "github.com/goccy/go-json"
)

// Category is the display bucket of an incident.
type Category string

const (
	CategoryViolent   Category = "violent"
	CategoryProperty  Category = "property"
	CategoryVehicle   Category = "vehicle"
	CategoryDrug      Category = "drug"
	CategoryVandalism Category = "vandalism"
	CategoryOther     Category = "other"
)

var categories = map[Category]struct{}{
	CategoryViolent:   {},
	CategoryProperty:  {},
	CategoryVehicle:   {},
	CategoryDrug:      {},
	CategoryVandalism: {},
	CategoryOther:     {},
}

// ParseCategory reports whether s names one of the known categories.
func ParseCategory(s string) (Category, bool) {
	c := Category(s)
	_, ok := categories[c]
	return c, ok
}

// SourceKind tells where a canonical incident came from.
type SourceKind string

const (
	SourceOfficial  SourceKind = "official"
	SourceCommunity SourceKind = "community"
)

// Shape identifies which raw record layout a RawIncident holds.
type Shape int

const (
	ShapeUnknown Shape = iota
	ShapeOfficial
	ShapeSimulated
)

func (s Shape) String() string {
	switch s {
	case ShapeOfficial:
		return "official"
	case ShapeSimulated:
		return "simulated"
	default:
		return "unknown"
	}
}

// OfficialIncident is a geocoded police record keyed by UCR code.
//
// Sample (data API):
//
//	{
//	  "_id": "66f1...", "dc_key": "202501190221", "location_block": "1500 BLOCK MARKET ST",
//	  "ucr_general": 300.0, "text_general_code": "Robbery No Firearm",
//	  "point_x": -75.1652, "point_y": 39.9526, "dispatch_date": "2025-01-19T00:00:00"
//	}
type OfficialIncident struct {
	ID                 Text   `json:"id,omitempty"`
	MongoID            Text   `json:"_id,omitempty"`
	TheGeom            string `json:"the_geom,omitempty"`
	CartoDBID          Number `json:"cartodb_id,omitempty"`
	TheGeomWebmercator string `json:"the_geom_webmercator,omitempty"`
	ObjectID           Number `json:"objectid,omitempty"`
	District           Number `json:"dc_dist,omitempty"`
	PSA                Text   `json:"psa,omitempty"`
	DispatchDateTime   string `json:"dispatch_date_time,omitempty"`
	DispatchDate       string `json:"dispatch_date,omitempty"`
	DispatchTime       string `json:"dispatch_time,omitempty"`
	Hour               Number `json:"hour,omitempty"`
	DCKey              Text   `json:"dc_key,omitempty"`
	LocationBlock      string `json:"location_block,omitempty"`
	UCRGeneral         Number `json:"ucr_general,omitempty"`
	TextGeneralCode    string `json:"text_general_code,omitempty"`
	PointX             Number `json:"point_x,omitempty"`
	PointY             Number `json:"point_y,omitempty"`
	Lat                Number `json:"lat,omitempty"`
	Lng                Number `json:"lng,omitempty"`
}

// SimulatedIncident carries explicit coordinates and severity.
// Canonical incidents encode to this shape as well, so the optional
// fields below let a normalized record be read back without loss.
type SimulatedIncident struct {
	ID           string `json:"id,omitempty"`
	Latitude     Number `json:"latitude"`
	Longitude    Number `json:"longitude"`
	Severity     Number `json:"severity"`
	CrimeType    string `json:"crime_type,omitempty"`
	Category     string `json:"category,omitempty"`
	Type         string `json:"type,omitempty"`
	Neighborhood string `json:"neighborhood,omitempty"`
	Address      string `json:"address,omitempty"`
	Source       string `json:"source,omitempty"`
	Date         string `json:"date,omitempty"`
	Description  string `json:"description,omitempty"`
}

// RawIncident is an incident as received from a backend. Exactly one of
// Official or Simulated is set after decoding.
type RawIncident struct {
	Official  *OfficialIncident
	Simulated *SimulatedIncident
}

// keys whose presence marks the simulated layout
var simulatedKeys = []string{"latitude", "longitude", "severity", "crime_type"}

func NewOfficial(o OfficialIncident) RawIncident {
	return RawIncident{Official: &o}
}

func NewSimulated(s SimulatedIncident) RawIncident {
	return RawIncident{Simulated: &s}
}

func (r RawIncident) Shape() Shape {
	switch {
	case r.Simulated != nil:
		return ShapeSimulated
	case r.Official != nil:
		return ShapeOfficial
	default:
		return ShapeUnknown
	}
}

func (r *RawIncident) UnmarshalJSON(b []byte) error {
	var keys map[string]json.RawMessage
	if err := json.Unmarshal(b, &keys); err != nil {
		return fmt.Errorf("raw incident: %w", err)
	}

	for _, k := range simulatedKeys {
		if _, ok := keys[k]; !ok {
			continue
		}
		var s SimulatedIncident
		if err := json.Unmarshal(b, &s); err != nil {
			return fmt.Errorf("simulated incident: %w", err)
		}
		r.Simulated, r.Official = &s, nil
		return nil
	}

	var o OfficialIncident
	if len(keys) > 0 {
		if err := json.Unmarshal(b, &o); err != nil {
			return fmt.Errorf("official incident: %w", err)
		}
	}
	r.Official, r.Simulated = &o, nil
	return nil
}

func (r RawIncident) MarshalJSON() ([]byte, error) {
	switch {
	case r.Simulated != nil:
		return json.Marshal(r.Simulated)
	case r.Official != nil:
		return json.Marshal(r.Official)
	default:
		return []byte("{}"), nil
	}
}

// CanonicalIncident is the single normalized shape the UI renders.
// Severity is on the 1..5 scale.
type CanonicalIncident struct {
	ID           string     `json:"id"`
	Latitude     float64    `json:"latitude"`
	Longitude    float64    `json:"longitude"`
	Category     Category   `json:"category"`
	Severity     int        `json:"severity"`
	Type         string     `json:"type"`
	Neighborhood string     `json:"neighborhood"`
	Address      string     `json:"address,omitempty"`
	Source       SourceKind `json:"source"`
	Date         string     `json:"date"`
	Description  string     `json:"description,omitempty"`
}

// HasLocation is false for the (0,0) placeholder used when a record
// carried no coordinates at all.
func (c CanonicalIncident) HasLocation() bool {
	return c.Latitude != 0 || c.Longitude != 0
}
