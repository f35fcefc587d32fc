package models

type User struct {
	ID                 Text   `json:"id"`
	Username           string `json:"username"`
	DisplayName        string `json:"display_name"`
	TotalContributions int    `json:"total_contributions"`
	CreatedAt          string `json:"created_at,omitempty"`
	UpdatedAt          string `json:"updated_at,omitempty"`
}
