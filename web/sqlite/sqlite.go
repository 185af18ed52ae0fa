package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	_ "modernc.org/sqlite" // sqlite driver

	"github.com/sadewadee/google-place-resolver/web"
)

type repo struct {
	db *sql.DB
}

var _ web.JournalRepository = (*repo)(nil)

// New opens (or creates) a SQLite database at the given path and ensures the
// journal table exists.
func New(path string) (web.JournalRepository, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	// Keep a tiny pool; the journal sees one write per resolve, a single
	// connection suffices.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	db.SetConnMaxLifetime(30 * time.Minute)

	if _, err := db.Exec(`
		CREATE TABLE IF NOT EXISTS journal (
			id TEXT PRIMARY KEY,
			url TEXT NOT NULL,
			language TEXT,
			status TEXT NOT NULL,
			error TEXT,
			date INT NOT NULL,
			place BLOB
		)
	`); err != nil {
		_ = db.Close()

		return nil, err
	}

	return &repo{db: db}, nil
}

func (r *repo) Create(ctx context.Context, rec *web.JournalRecord) error {
	var placeJSON []byte

	if rec.Place != nil {
		data, err := json.Marshal(rec.Place)
		if err != nil {
			return err
		}

		placeJSON = data
	}

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO journal (id, url, language, status, error, date, place) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.URL, rec.Language, rec.Status, rec.Error, rec.Date.UTC().Unix(), placeJSON,
	)

	return err
}

func (r *repo) Get(ctx context.Context, id string) (web.JournalRecord, error) {
	row := r.db.QueryRowContext(ctx,
		`SELECT id, url, language, status, error, date, place FROM journal WHERE id = ?`, id)

	return scanRecord(row)
}

func (r *repo) Delete(ctx context.Context, id string) error {
	_, err := r.db.ExecContext(ctx, `DELETE FROM journal WHERE id = ?`, id)

	return err
}

func (r *repo) Select(ctx context.Context, params web.SelectParams) ([]web.JournalRecord, error) {
	q := `SELECT id, url, language, status, error, date, place FROM journal`

	var args []any

	if params.Status != "" {
		q += ` WHERE status = ?`

		args = append(args, params.Status)
	}

	q += ` ORDER BY date DESC`

	if params.Limit > 0 {
		q += ` LIMIT ?`

		args = append(args, params.Limit)
	}

	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var records []web.JournalRecord

	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, err
		}

		records = append(records, rec)
	}

	return records, rows.Err()
}

func (r *repo) Stats(ctx context.Context) (web.ServiceStats, error) {
	var stats web.ServiceStats

	row := r.db.QueryRowContext(ctx, `
		SELECT
			COUNT(*),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(SUM(CASE WHEN status = ? THEN 1 ELSE 0 END), 0),
			COALESCE(MIN(date), 0),
			COALESCE(MAX(date), 0)
		FROM journal`,
		web.StatusOK, web.StatusFailed,
	)

	var first, last int64

	if err := row.Scan(&stats.Total, &stats.Succeeded, &stats.Failed, &first, &last); err != nil {
		return stats, err
	}

	if last > 0 {
		stats.LastActivity = time.Unix(last, 0).UTC()
	}

	if stats.Total > 0 && last > first {
		minutes := time.Duration(last-first) * time.Second / time.Minute

		if minutes > 0 {
			stats.ResolvesPerMin = float64(stats.Total) / float64(minutes)
		}
	}

	return stats, nil
}

type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (web.JournalRecord, error) {
	var (
		rec       web.JournalRecord
		language  sql.NullString
		errMsg    sql.NullString
		date      int64
		placeJSON []byte
	)

	if err := row.Scan(&rec.ID, &rec.URL, &language, &rec.Status, &errMsg, &date, &placeJSON); err != nil {
		return rec, fmt.Errorf("scan journal record: %w", err)
	}

	rec.Language = language.String
	rec.Error = errMsg.String
	rec.Date = time.Unix(date, 0).UTC()

	if len(placeJSON) > 0 {
		if err := json.Unmarshal(placeJSON, &rec.Place); err != nil {
			return rec, err
		}
	}

	return rec, nil
}
