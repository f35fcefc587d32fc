package devserver

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	json "github.com/goccy/go-json"

	"phillysafe/pkg/database"
	"phillysafe/pkg/models"
)

//go:embed schema.sql
var schema string

var ErrUnknownUser = errors.New("user not found")

type Account struct {
	ID           int64
	Username     string
	DisplayName  string
	PasswordHash string
	TokenVersion int
	Reports      int
	CreatedAt    time.Time
}

type Repo struct {
	DB *sql.DB
}

// OpenRepo opens the account database at path and applies the schema.
// ":memory:" is accepted for throwaway servers.
func OpenRepo(ctx context.Context, path string) (*Repo, error) {
	var (
		db  *sql.DB
		err error
	)
	if path == ":memory:" {
		db, err = sql.Open("sqlite3", ":memory:")
		if err == nil {
			// every connection would get its own empty database
			db.SetMaxOpenConns(1)
		}
	} else {
		db, err = database.Open(database.Config{Path: path})
	}
	if err != nil {
		return nil, err
	}
	if err := database.ApplySchema(ctx, db, schema); err != nil {
		_ = db.Close()
		return nil, err
	}
	return &Repo{DB: db}, nil
}

func (r *Repo) Close() error { return r.DB.Close() }

func (r *Repo) CreateAccount(ctx context.Context, a Account) (*Account, error) {
	res, err := r.DB.ExecContext(ctx, `
		INSERT INTO users (username, display_name, password_hash)
		VALUES (?, ?, ?)
	`, a.Username, a.DisplayName, a.PasswordHash)
	if err != nil {
		return nil, fmt.Errorf("create account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("create account id: %w", err)
	}
	return r.GetByID(ctx, id)
}

func (r *Repo) GetByUsername(ctx context.Context, username string) (*Account, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, display_name, password_hash, token_version, reports, created_at
		FROM users
		WHERE username = ?
	`, strings.TrimSpace(username))
	return scanAccount(row, "get by username")
}

func (r *Repo) GetByID(ctx context.Context, id int64) (*Account, error) {
	row := r.DB.QueryRowContext(ctx, `
		SELECT id, username, display_name, password_hash, token_version, reports, created_at
		FROM users
		WHERE id = ?
	`, id)
	return scanAccount(row, "get by id")
}

// RevokeTokens bumps the account's token version so every token issued
// before the call stops validating.
func (r *Repo) RevokeTokens(ctx context.Context, id int64) error {
	res, err := r.DB.ExecContext(ctx, `UPDATE users SET token_version = token_version + 1 WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("revoke tokens: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return ErrUnknownUser
	}
	return nil
}

func scanAccount(row *sql.Row, op string) (*Account, error) {
	var a Account
	if err := row.Scan(&a.ID, &a.Username, &a.DisplayName, &a.PasswordHash, &a.TokenVersion, &a.Reports, &a.CreatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return &a, nil
}

type NewReport struct {
	Username    string   `json:"username"`
	Type        string   `json:"type"`
	Description string   `json:"description"`
	Latitude    *float64 `json:"latitude,omitempty"`
	Longitude   *float64 `json:"longitude,omitempty"`
	Severity    *int     `json:"severity,omitempty"`
	Photos      []string `json:"photos,omitempty"`
}

// AddReport stores the report and bumps the owner's counter in one
// transaction, returning the new total.
func (r *Repo) AddReport(ctx context.Context, in NewReport) (total int, err error) {
	tx, err := r.DB.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("begin add report: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, `UPDATE users SET reports = reports + 1 WHERE username = ?`, in.Username)
	if err != nil {
		return 0, fmt.Errorf("bump report count: %w", err)
	}
	if n, _ := res.RowsAffected(); n == 0 {
		return 0, ErrUnknownUser
	}

	var photos sql.NullString
	if len(in.Photos) > 0 {
		b, err := json.Marshal(in.Photos)
		if err != nil {
			return 0, fmt.Errorf("marshal photos: %w", err)
		}
		photos = sql.NullString{String: string(b), Valid: true}
	}

	if _, err = tx.ExecContext(ctx, `
		INSERT INTO reports (username, type, description, latitude, longitude, severity, photos)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, in.Username, in.Type, in.Description, coord(in.Latitude), coord(in.Longitude), in.Severity, photos); err != nil {
		return 0, fmt.Errorf("insert report: %w", err)
	}

	if err = tx.QueryRowContext(ctx, `SELECT reports FROM users WHERE username = ?`, in.Username).Scan(&total); err != nil {
		return 0, fmt.Errorf("read report count: %w", err)
	}
	if err = tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit add report: %w", err)
	}
	return total, nil
}

// ListReports returns the user's reports newest first.
func (r *Repo) ListReports(ctx context.Context, username string) ([]models.AccountReport, error) {
	rows, err := r.DB.QueryContext(ctx, `
		SELECT id, username, type, description, latitude, longitude, severity, photos, created_at
		FROM reports
		WHERE username = ?
		ORDER BY created_at DESC, id DESC
	`, username)
	if err != nil {
		return nil, fmt.Errorf("list reports: %w", err)
	}
	defer rows.Close()

	out := make([]models.AccountReport, 0)
	for rows.Next() {
		var (
			rep       models.AccountReport
			lat, lng  sql.NullString
			severity  sql.NullInt64
			photos    sql.NullString
			createdAt time.Time
		)
		if err := rows.Scan(&rep.ID, &rep.Username, &rep.Type, &rep.Description, &lat, &lng, &severity, &photos, &createdAt); err != nil {
			return nil, fmt.Errorf("scan report: %w", err)
		}
		if lat.Valid {
			rep.Latitude = &lat.String
		}
		if lng.Valid {
			rep.Longitude = &lng.String
		}
		if severity.Valid {
			s := int(severity.Int64)
			rep.Severity = &s
		}
		if photos.Valid {
			_ = json.Unmarshal([]byte(photos.String), &rep.Photos)
		}
		rep.CreatedAt = createdAt.UTC().Format("2006-01-02T15:04:05")
		out = append(out, rep)
	}
	return out, rows.Err()
}

// coord stores a coordinate as text; zero is stored as NULL.
func coord(v *float64) sql.NullString {
	if v == nil || *v == 0 {
		return sql.NullString{}
	}
	return sql.NullString{String: strconv.FormatFloat(*v, 'f', -1, 64), Valid: true}
}
