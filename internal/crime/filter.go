package crime

import (
	"net/url"
	"strconv"

	"phillysafe/internal/httpclient"
)

// Filter narrows a /crime/filtered request. Nil fields are left off the
// query string entirely.
type Filter struct {
	Category    string
	MinSeverity *int
	MaxSeverity *int
	DaysBack    *int
}

func (f Filter) Validate() error {
	if f.MinSeverity != nil && (*f.MinSeverity < 1 || *f.MinSeverity > 5) {
		return &httpclient.ValidationError{Field: "min_severity", Reason: "must be between 1 and 5"}
	}
	if f.MaxSeverity != nil && (*f.MaxSeverity < 1 || *f.MaxSeverity > 5) {
		return &httpclient.ValidationError{Field: "max_severity", Reason: "must be between 1 and 5"}
	}
	if f.MinSeverity != nil && f.MaxSeverity != nil && *f.MinSeverity > *f.MaxSeverity {
		return &httpclient.ValidationError{Field: "min_severity", Reason: "must not exceed max_severity"}
	}
	if f.DaysBack != nil && *f.DaysBack < 0 {
		return &httpclient.ValidationError{Field: "days_back", Reason: "must not be negative"}
	}
	return nil
}

func (f Filter) Query() url.Values {
	q := url.Values{}
	if f.Category != "" {
		q.Set("crime_type", f.Category)
	}
	if f.MinSeverity != nil {
		q.Set("min_severity", strconv.Itoa(*f.MinSeverity))
	}
	if f.MaxSeverity != nil {
		q.Set("max_severity", strconv.Itoa(*f.MaxSeverity))
	}
	if f.DaysBack != nil {
		q.Set("days_back", strconv.Itoa(*f.DaysBack))
	}
	return q
}

// Int is a convenience for filling Filter's optional fields.
func Int(v int) *int { return &v }
