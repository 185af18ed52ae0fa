package webrunner

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/sadewadee/google-place-resolver/place"
	"github.com/sadewadee/google-place-resolver/runner"
	"github.com/sadewadee/google-place-resolver/tlmt"
	"github.com/sadewadee/google-place-resolver/web"
	"github.com/sadewadee/google-place-resolver/web/sqlite"
)

type webrunner struct {
	srv     *web.Server
	cfg     *runner.Config
	fetcher *place.BrowserFetcher
}

func New(cfg *runner.Config) (runner.Runner, error) {
	if cfg.DataFolder == "" {
		return nil, fmt.Errorf("data folder is required")
	}

	if err := os.MkdirAll(cfg.DataFolder, os.ModePerm); err != nil {
		return nil, err
	}

	const dbfname = "journal.db"

	dbpath := filepath.Join(cfg.DataFolder, dbfname)

	repo, err := sqlite.New(dbpath)
	if err != nil {
		return nil, err
	}

	svc := web.NewService(repo, cfg.DataFolder)

	lookup := place.NewLookupClient(cfg.APIKey)

	opts := []place.ResolverOption{
		place.WithLookupClient(lookup),
		place.WithEmailVerification(cfg.VerifyEmails),
	}

	ans := webrunner{cfg: cfg}

	if cfg.UseBrowser {
		ans.fetcher = place.NewBrowserFetcher()
		opts = append(opts, place.WithFetcher(ans.fetcher))
	}

	resolver := place.NewResolver(opts...)

	ans.srv = web.New(resolver, lookup, svc, cfg.Addr)

	return &ans, nil
}

func (w *webrunner) Run(ctx context.Context) error {
	_ = runner.Telemetry().Send(ctx, tlmt.NewEvent("web_runner", map[string]any{
		"browser": w.cfg.UseBrowser,
		"api_key": w.cfg.APIKey != "",
	}))

	return w.srv.Start(ctx)
}

func (w *webrunner) Close(context.Context) error {
	if w.fetcher != nil {
		return w.fetcher.Close()
	}

	return nil
}
