package web

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"github.com/sadewadee/google-place-resolver/place"
)

// Service owns the resolve journal and its export paths (CSV on disk,
// Google Sheets).
type Service struct {
	repo       JournalRepository
	dataFolder string
}

func NewService(repo JournalRepository, dataFolder string) *Service {
	return &Service{
		repo:       repo,
		dataFolder: dataFolder,
	}
}

// Record journals one resolve attempt and, on success, appends the place to
// the CSV export file. Journal failures are returned but the caller treats
// them as non-fatal: the response to the user comes first.
func (s *Service) Record(ctx context.Context, rawURL, lang string, p *place.Place, resolveErr error) error {
	rec := JournalRecord{
		ID:       uuid.New().String(),
		URL:      rawURL,
		Language: lang,
		Status:   StatusOK,
		Date:     time.Now().UTC(),
		Place:    p,
	}

	if resolveErr != nil {
		rec.Status = StatusFailed
		rec.Error = resolveErr.Error()
	}

	if err := rec.Validate(); err != nil {
		return err
	}

	if err := s.repo.Create(ctx, &rec); err != nil {
		return err
	}

	if p != nil && s.dataFolder != "" {
		return s.appendCSV(p)
	}

	return nil
}

func (s *Service) Get(ctx context.Context, id string) (JournalRecord, error) {
	return s.repo.Get(ctx, id)
}

func (s *Service) Recent(ctx context.Context, limit int) ([]JournalRecord, error) {
	return s.repo.Select(ctx, SelectParams{Limit: limit})
}

func (s *Service) Delete(ctx context.Context, id string) error {
	return s.repo.Delete(ctx, id)
}

func (s *Service) Stats(ctx context.Context) (ServiceStats, error) {
	return s.repo.Stats(ctx)
}

const csvFileName = "resolved.csv"

func (s *Service) csvPath() string {
	return filepath.Join(s.dataFolder, csvFileName)
}

func (s *Service) appendCSV(p *place.Place) error {
	if err := os.MkdirAll(s.dataFolder, os.ModePerm); err != nil {
		return err
	}

	path := s.csvPath()

	_, statErr := os.Stat(path)
	writeHeader := os.IsNotExist(statErr)

	f, err := os.OpenFile(path, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	defer f.Close()

	w := csv.NewWriter(f)

	if writeHeader {
		if err := w.Write(p.CsvHeaders()); err != nil {
			return err
		}
	}

	if err := w.Write(p.CsvRow()); err != nil {
		return err
	}

	w.Flush()

	return w.Error()
}

// WriteCSV streams the journal's successful records as CSV.
func (s *Service) WriteCSV(ctx context.Context, w io.Writer) error {
	records, err := s.repo.Select(ctx, SelectParams{Status: StatusOK})
	if err != nil {
		return err
	}

	cw := csv.NewWriter(w)

	var wroteHeader bool

	for i := range records {
		p := records[i].Place
		if p == nil {
			continue
		}

		if !wroteHeader {
			if err := cw.Write(p.CsvHeaders()); err != nil {
				return err
			}

			wroteHeader = true
		}

		if err := cw.Write(p.CsvRow()); err != nil {
			return err
		}
	}

	cw.Flush()

	return cw.Error()
}

// ExportToSheets exports the journal's successful records to Google Sheets.
// sheetID: target spreadsheet ID (uses GOOGLE_SHEETS_DEFAULT_SPREADSHEET_ID when empty)
// rng: target range like "Sheet1!A1" (uses GOOGLE_SHEETS_DEFAULT_RANGE or defaults to "Sheet1!A1" when empty)
// appendMode: when true uses Append (INSERT_ROWS); when false uses Update (overwrite)
func (s *Service) ExportToSheets(ctx context.Context, sheetID, rng string, appendMode bool) (int, error) {
	records, err := s.repo.Select(ctx, SelectParams{Status: StatusOK})
	if err != nil {
		return 0, err
	}

	var values [][]interface{}

	for i := range records {
		p := records[i].Place
		if p == nil {
			continue
		}

		if len(values) == 0 {
			values = append(values, toRow(p.CsvHeaders()))
		}

		values = append(values, toRow(p.CsvRow()))
	}

	if len(values) == 0 {
		return 0, fmt.Errorf("nothing to export")
	}

	if sheetID == "" {
		sheetID = os.Getenv("GOOGLE_SHEETS_DEFAULT_SPREADSHEET_ID")
	}

	if sheetID == "" {
		return 0, fmt.Errorf("missing sheetID")
	}

	if rng == "" {
		rng = os.Getenv("GOOGLE_SHEETS_DEFAULT_RANGE")
		if rng == "" {
			rng = "Sheet1!A1"
		}
	}

	srv, err := newSheetsService(ctx)
	if err != nil {
		return 0, err
	}

	vr := &sheets.ValueRange{Values: values}
	if appendMode {
		_, err = srv.Spreadsheets.Values.Append(sheetID, rng, vr).
			ValueInputOption("RAW").
			InsertDataOption("INSERT_ROWS").
			Context(ctx).Do()
	} else {
		_, err = srv.Spreadsheets.Values.Update(sheetID, rng, vr).
			ValueInputOption("RAW").
			Context(ctx).Do()
	}

	if err != nil {
		return 0, fmt.Errorf("sheets write: %w", err)
	}

	return len(values) - 1, nil
}

// ImportURLsFromSheet reads Maps URLs from the first column of a sheet.
// Non-URL cells are skipped. Package-level because the batch runner pulls
// its input this way without a journal.
func ImportURLsFromSheet(ctx context.Context, sheetID, rng string) ([]string, error) {
	if sheetID == "" {
		sheetID = os.Getenv("GOOGLE_SHEETS_DEFAULT_SPREADSHEET_ID")
	}

	if sheetID == "" {
		return nil, fmt.Errorf("missing sheetID")
	}

	if rng == "" {
		rng = os.Getenv("GOOGLE_SHEETS_DEFAULT_RANGE")
		if rng == "" {
			rng = "Sheet1!A1"
		}
	}

	srv, err := newSheetsService(ctx)
	if err != nil {
		return nil, err
	}

	res, err := srv.Spreadsheets.Values.Get(sheetID, rng).Context(ctx).Do()
	if err != nil {
		return nil, fmt.Errorf("sheets read: %w", err)
	}

	var urls []string

	for _, row := range res.Values {
		if len(row) == 0 {
			continue
		}

		raw, _ := row[0].(string)
		raw = strings.TrimSpace(raw)

		if !strings.HasPrefix(raw, "http://") && !strings.HasPrefix(raw, "https://") {
			continue
		}

		urls = append(urls, raw)
	}

	return urls, nil
}

func toRow(cols []string) []interface{} {
	row := make([]interface{}, len(cols))
	for i, col := range cols {
		row[i] = col
	}

	return row
}

// newSheetsService initializes the Google Sheets client using service account credentials.
// Requires GOOGLE_SHEETS_CREDENTIALS_JSON to point to a credentials.json file.
func newSheetsService(ctx context.Context) (*sheets.Service, error) {
	credPath := os.Getenv("GOOGLE_SHEETS_CREDENTIALS_JSON")
	if credPath == "" {
		// Fallback to default location if env var not set
		defaultPath := filepath.Join("keys", "credentials.json")
		if _, err := os.Stat(defaultPath); err == nil {
			credPath = defaultPath
		} else {
			return nil, fmt.Errorf("missing GOOGLE_SHEETS_CREDENTIALS_JSON")
		}
	}

	b, err := os.ReadFile(credPath)
	if err != nil {
		return nil, fmt.Errorf("read credentials: %w", err)
	}

	srv, err := sheets.NewService(ctx,
		option.WithCredentialsJSON(b),
		option.WithScopes(sheets.SpreadsheetsScope),
	)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return srv, nil
}
