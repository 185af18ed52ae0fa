package batchrunner

import (
	"context"
	"database/sql"
	"encoding/csv"
	"fmt"
	"io"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/gosom/scrapemate"
	"github.com/gosom/scrapemate/scrapemateapp"
	_ "github.com/jackc/pgx/v5/stdlib" // pgx database/sql driver
	"github.com/mattn/go-runewidth"

	"github.com/sadewadee/google-place-resolver/place"
	"github.com/sadewadee/google-place-resolver/postgres"
	"github.com/sadewadee/google-place-resolver/runner"
	"github.com/sadewadee/google-place-resolver/s3store"
	"github.com/sadewadee/google-place-resolver/tlmt"
	"github.com/sadewadee/google-place-resolver/web"
	"github.com/sadewadee/google-place-resolver/writers/csvrows"
)

type batchrunner struct {
	cfg *runner.Config
	db  *sql.DB
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.InputFile == "" {
		return nil, fmt.Errorf("input file is required")
	}

	ans := batchrunner{cfg: cfg}

	if cfg.Dsn != "" {
		db, err := sql.Open("pgx", cfg.Dsn)
		if err != nil {
			return nil, err
		}

		ans.db = db
	}

	return &ans, nil
}

func (r *batchrunner) Run(ctx context.Context) error {
	input, err := r.openInput(ctx)
	if err != nil {
		return err
	}
	defer input.Close()

	lookup := place.NewLookupClient(r.cfg.APIKey)

	jobs, err := runner.CreateSeedJobs(ctx, r.cfg.LangCode, input, lookup, r.cfg.VerifyEmails)
	if err != nil {
		return err
	}

	if len(jobs) == 0 {
		return fmt.Errorf("no urls in %s", r.cfg.InputFile)
	}

	outfile, err := os.Create(r.cfg.ResultsFile)
	if err != nil {
		return err
	}
	defer outfile.Close()

	summary := &summaryWriter{}

	writers := []scrapemate.ResultWriter{
		csvrows.New(csv.NewWriter(outfile)),
		summary,
	}

	if r.db != nil {
		if err := postgres.CreateTables(ctx, r.db); err != nil {
			return err
		}

		writers = append(writers, postgres.NewResultWriter(r.db))
	}

	opts := []func(*scrapemateapp.Config) error{
		scrapemateapp.WithConcurrency(r.cfg.Concurrency),
		scrapemateapp.WithExitOnInactivity(time.Minute * 3),
	}

	if r.cfg.UseBrowser {
		opts = append(opts, scrapemateapp.WithJS(scrapemateapp.DisableImages()))
	}

	matecfg, err := scrapemateapp.NewConfig(writers, opts...)
	if err != nil {
		return err
	}

	mate, err := scrapemateapp.NewScrapeMateApp(matecfg)
	if err != nil {
		return err
	}
	defer mate.Close()

	t0 := time.Now().UTC()

	err = mate.Start(ctx, jobs...)
	if err != nil && ctx.Err() == nil {
		return err
	}

	summary.print(os.Stdout)

	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("batch_runner", map[string]any{
		"job_count": len(jobs),
		"resolved":  summary.count(),
		"duration":  time.Now().UTC().Sub(t0).String(),
	}))

	return r.uploadResults(ctx)
}

// openInput opens the URL list. A sheets://<spreadsheet id> input pulls the
// URLs from the first column of a Google Sheet instead of a local file.
func (r *batchrunner) openInput(ctx context.Context) (io.ReadCloser, error) {
	if sheetID, ok := strings.CutPrefix(r.cfg.InputFile, "sheets://"); ok {
		urls, err := web.ImportURLsFromSheet(ctx, sheetID, "")
		if err != nil {
			return nil, err
		}

		return io.NopCloser(strings.NewReader(strings.Join(urls, "\n"))), nil
	}

	return os.Open(r.cfg.InputFile)
}

func (r *batchrunner) uploadResults(ctx context.Context) error {
	if r.cfg.S3Bucket == "" {
		return nil
	}

	uploader, err := s3store.New(ctx)
	if err != nil {
		return err
	}

	key := fmt.Sprintf("results/%s-%s", time.Now().UTC().Format("20060102-150405"), filepath.Base(r.cfg.ResultsFile))

	if err := uploader.UploadFile(ctx, r.cfg.S3Bucket, key, r.cfg.ResultsFile); err != nil {
		return err
	}

	log.Printf("results uploaded to s3://%s/%s", r.cfg.S3Bucket, key)

	return nil
}

func (r *batchrunner) Close(context.Context) error {
	if r.db != nil {
		return r.db.Close()
	}

	return nil
}

// summaryWriter tallies resolved places for the end-of-run table.
type summaryWriter struct {
	mu     sync.Mutex
	places []*place.Place
}

func (s *summaryWriter) Run(_ context.Context, in <-chan scrapemate.Result) error {
	for result := range in {
		p, ok := result.Data.(*place.Place)
		if !ok || p == nil {
			continue
		}

		s.mu.Lock()
		s.places = append(s.places, p)
		s.mu.Unlock()
	}

	return nil
}

func (s *summaryWriter) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	return len(s.places)
}

// print renders an aligned summary table. runewidth keeps the columns
// straight when names are CJK.
func (s *summaryWriter) print(w *os.File) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if len(s.places) == 0 {
		fmt.Fprintln(w, "no places resolved")

		return
	}

	const nameWidth = 32

	fmt.Fprintf(w, "%s  %-6s  %-7s  %s\n", runewidth.FillRight("NAME", nameWidth), "RATING", "REVIEWS", "SOURCE")

	for _, p := range s.places {
		name := runewidth.Truncate(p.Name, nameWidth, "…")
		fmt.Fprintf(w, "%s  %-6.1f  %-7d  %s\n", runewidth.FillRight(name, nameWidth), p.Rating, p.ReviewCount, p.Source)
	}

	fmt.Fprintf(w, "%d places resolved\n", len(s.places))
}
