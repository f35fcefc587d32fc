package models

// UserStats is the gamification record owned by the backend.
type UserStats struct {
	ID                   Text           `json:"_id,omitempty"`
	UserID               string         `json:"user_id"`
	TotalSubmissions     int            `json:"total_submissions"`
	FirstSubmissionDate  string         `json:"first_submission_date,omitempty"`
	LastSubmissionDate   string         `json:"last_submission_date,omitempty"`
	SubmissionTypes      map[string]int `json:"submission_types"`
	TotalPhotosSubmitted int            `json:"total_photos_submitted"`
	ReportsResolved      int            `json:"reports_resolved"`
	ReportsPending       int            `json:"reports_pending"`
	StreakDays           int            `json:"streak_days"`
	LongestStreak        int            `json:"longest_streak"`
	LastActivityDate     string         `json:"last_activity_date,omitempty"`
	Level                int            `json:"level"`
	ExperiencePoints     int            `json:"experience_points"`
	Achievements         []string       `json:"achievements"`
	Badges               []string       `json:"badges"`
	CreatedAt            string         `json:"created_at,omitempty"`
	UpdatedAt            string         `json:"updated_at,omitempty"`
}

type CreateUserStatsRequest struct {
	UserID               string         `json:"user_id"`
	TotalSubmissions     int            `json:"total_submissions,omitempty"`
	SubmissionTypes      map[string]int `json:"submission_types,omitempty"`
	TotalPhotosSubmitted int            `json:"total_photos_submitted,omitempty"`
	StreakDays           int            `json:"streak_days,omitempty"`
	LongestStreak        int            `json:"longest_streak,omitempty"`
	Level                int            `json:"level,omitempty"`
	ExperiencePoints     int            `json:"experience_points,omitempty"`
	Achievements         []string       `json:"achievements,omitempty"`
	Badges               []string       `json:"badges,omitempty"`
}
