package models

// UserReport is a community report as stored by the reports service.
type UserReport struct {
	ID                 Text     `json:"id,omitempty"`
	MongoID            Text     `json:"_id,omitempty"`
	Type               string   `json:"type"`
	Location           string   `json:"location"`
	UseCurrentLocation bool     `json:"use_current_location"`
	Photos             []string `json:"photos"`
	Description        string   `json:"description"`
	Severity           string   `json:"severity"` // "low", "medium", "high"
	Anonymous          bool     `json:"anonymous"`
	Contact            string   `json:"contact,omitempty"`
	Lat                *float64 `json:"lat,omitempty"`
	Lng                *float64 `json:"lng,omitempty"`
	Timestamp          string   `json:"timestamp"`
	Status             string   `json:"status"` // "pending", "reviewed", "resolved"
	UserID             string   `json:"user_id,omitempty"`
}

// Key returns whichever identifier the service filled in.
func (r UserReport) Key() string {
	if r.ID != "" {
		return r.ID.String()
	}
	return r.MongoID.String()
}

type CreateReportRequest struct {
	Type               string   `json:"type"`
	Location           string   `json:"location"`
	UseCurrentLocation bool     `json:"use_current_location"`
	Photos             []string `json:"photos"`
	Description        string   `json:"description"`
	Severity           string   `json:"severity"`
	Anonymous          bool     `json:"anonymous"`
	Contact            string   `json:"contact,omitempty"`
	Lat                *float64 `json:"lat,omitempty"`
	Lng                *float64 `json:"lng,omitempty"`
	UserID             string   `json:"user_id,omitempty"`
}

// ReportSummary is the per-user count kept by the auth service.
type ReportSummary struct {
	Username     string `json:"username"`
	TotalReports int    `json:"total_reports"`
}

// AccountReport is one entry of GET /reports/{username}/all on the auth service.
type AccountReport struct {
	ID          int      `json:"id"`
	Username    string   `json:"username"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Latitude    *string  `json:"latitude,omitempty"`
	Longitude   *string  `json:"longitude,omitempty"`
	Severity    *int     `json:"severity,omitempty"`
	Photos      []string `json:"photos,omitempty"`
	CreatedAt   string   `json:"created_at"`
}
