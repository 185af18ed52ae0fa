package web

import (
	"context"
	"errors"
	"time"

	"github.com/sadewadee/google-place-resolver/place"
)

const (
	StatusOK     = "ok"
	StatusFailed = "failed"
)

type SelectParams struct {
	Status string
	Limit  int
}

// JournalRepository persists the resolve journal: one record per resolve
// attempt, successful or not.
type JournalRepository interface {
	Get(context.Context, string) (JournalRecord, error)
	Create(context.Context, *JournalRecord) error
	Delete(context.Context, string) error
	Select(context.Context, SelectParams) ([]JournalRecord, error)
	Stats(context.Context) (ServiceStats, error)
}

// JournalRecord is one resolve attempt. Place is nil for failed attempts.
type JournalRecord struct {
	ID       string       `json:"id"`
	URL      string       `json:"url"`
	Language string       `json:"language,omitempty"`
	Status   string       `json:"status"`
	Error    string       `json:"error,omitempty"`
	Date     time.Time    `json:"date"`
	Place    *place.Place `json:"place,omitempty"`
}

func (r *JournalRecord) Validate() error {
	if r.ID == "" {
		return errors.New("missing id")
	}

	if r.URL == "" {
		return errors.New("missing url")
	}

	if r.Status == "" {
		return errors.New("missing status")
	}

	if r.Date.IsZero() {
		return errors.New("missing date")
	}

	if r.Status == StatusOK && r.Place == nil {
		return errors.New("missing place for ok record")
	}

	return nil
}

// ServiceStats represents aggregate statistics for the stats API.
type ServiceStats struct {
	Total          int       `json:"total"`
	Succeeded      int       `json:"succeeded"`
	Failed         int       `json:"failed"`
	ResolvesPerMin float64   `json:"resolves_per_min"`
	LastActivity   time.Time `json:"last_activity"`
}
