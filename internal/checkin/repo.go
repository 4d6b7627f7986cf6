package checkin

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"

	"classcheckin/internal/store"
)

var schemas = map[string][]string{
	store.DriverPostgres: {
		`CREATE TABLE IF NOT EXISTS checkins (
			seq   BIGSERIAL PRIMARY KEY,
			id    TEXT NOT NULL UNIQUE,
			name  TEXT NOT NULL,
			email TEXT NOT NULL,
			ts    BIGINT NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_email ON checkins(email)`,
	},
	store.DriverSQLite: {
		`CREATE TABLE IF NOT EXISTS checkins (
			seq   INTEGER PRIMARY KEY AUTOINCREMENT,
			id    TEXT NOT NULL UNIQUE,
			name  TEXT NOT NULL,
			email TEXT NOT NULL,
			ts    INTEGER NOT NULL
		)`,
		`CREATE INDEX IF NOT EXISTS idx_checkins_email ON checkins(email)`,
	},
}

// Repository persists check-in records. Rows are append-only.
type Repository struct {
	db *store.DB
}

// NewRepository creates a repo.
func NewRepository(db *store.DB) *Repository {
	return &Repository{db: db}
}

// Migrate creates the checkins table when missing.
func (r *Repository) Migrate(ctx context.Context) error {
	stmts, ok := schemas[r.db.Driver]
	if !ok {
		return fmt.Errorf("checkin: no schema for driver %q", r.db.Driver)
	}
	for _, stmt := range stmts {
		if _, err := r.db.Client.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("checkin: migrate: %w", err)
		}
	}
	return nil
}

// Insert stores a record and returns it with its new id.
func (r *Repository) Insert(ctx context.Context, in NewRecord) (Record, error) {
	rec := Record{
		ID:        uuid.NewString(),
		Name:      in.Name,
		Email:     in.Email,
		Timestamp: in.Timestamp,
	}
	_, err := r.db.Client.ExecContext(ctx, r.db.Rebind(`
		INSERT INTO checkins (id, name, email, ts)
		VALUES (?, ?, ?, ?)
	`), rec.ID, rec.Name, rec.Email, rec.Timestamp)
	if err != nil {
		return Record{}, err
	}
	return rec, nil
}

// List returns every record in insertion order, or only those whose email
// equals the filter when it is non-empty.
func (r *Repository) List(ctx context.Context, email string) ([]Record, error) {
	query := `SELECT id, name, email, ts FROM checkins`
	args := []any{}
	if email != "" {
		query += ` WHERE email = ?`
		args = append(args, email)
	}
	query += ` ORDER BY seq`

	rows, err := r.db.Client.QueryContext(ctx, r.db.Rebind(query), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	res := []Record{}
	for rows.Next() {
		var rec Record
		if err := rows.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Timestamp); err != nil {
			return nil, err
		}
		res = append(res, rec)
	}
	return res, rows.Err()
}

// RecentByEmail returns the newest record for email at or after since, or
// nil when there is none.
func (r *Repository) RecentByEmail(ctx context.Context, email string, since int64) (*Record, error) {
	row := r.db.Client.QueryRowContext(ctx, r.db.Rebind(`
		SELECT id, name, email, ts
		FROM checkins
		WHERE email = ? AND ts >= ?
		ORDER BY ts DESC, seq DESC
		LIMIT 1
	`), email, since)
	var rec Record
	if err := row.Scan(&rec.ID, &rec.Name, &rec.Email, &rec.Timestamp); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return &rec, nil
}
