package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/gosom/scrapemate"

	"github.com/sadewadee/google-place-resolver/place"
)

func NewResultWriter(db *sql.DB) scrapemate.ResultWriter {
	return &resultWriter{db: db}
}

type resultWriter struct {
	db *sql.DB
}

func (r *resultWriter) Run(ctx context.Context, in <-chan scrapemate.Result) error {
	const maxBatchSize = 50

	buff := make([]*place.Place, 0, maxBatchSize)
	lastSave := time.Now().UTC()

	for result := range in {
		switch data := result.Data.(type) {
		case *place.Place:
			if data != nil {
				buff = append(buff, data)
			}
		case []*place.Place:
			for _, p := range data {
				if p != nil {
					buff = append(buff, p)
				}
			}
		default:
			return errors.New("invalid data type")
		}

		if len(buff) >= maxBatchSize || time.Since(lastSave) >= time.Minute {
			err := r.batchSave(ctx, buff)
			if err != nil {
				return err
			}

			buff = buff[:0]
			lastSave = time.Now().UTC()
		}
	}

	if len(buff) > 0 {
		err := r.batchSave(ctx, buff)
		if err != nil {
			return err
		}
	}

	return nil
}

func (r *resultWriter) batchSave(ctx context.Context, places []*place.Place) error {
	if len(places) == 0 {
		return nil
	}

	q := `INSERT INTO results
		(data)
		VALUES
		`

	elements := make([]string, 0, len(places))
	args := make([]interface{}, 0, len(places))

	for i, p := range places {
		data, err := json.Marshal(p)
		if err != nil {
			return err
		}

		elements = append(elements, fmt.Sprintf("($%d)", i+1))
		args = append(args, data)
	}

	q += strings.Join(elements, ", ")
	q += " ON CONFLICT DO NOTHING"

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}

	defer func() {
		_ = tx.Rollback()
	}()

	_, err = tx.ExecContext(ctx, q, args...)
	if err != nil {
		return err
	}

	err = tx.Commit()

	return err
}

// CreateTables ensures the results table exists.
func CreateTables(ctx context.Context, db *sql.DB) error {
	_, err := db.ExecContext(ctx, `
		CREATE TABLE IF NOT EXISTS results (
			id SERIAL PRIMARY KEY,
			data JSONB NOT NULL,
			created_at TIMESTAMPTZ NOT NULL DEFAULT now()
		)
	`)

	return err
}
