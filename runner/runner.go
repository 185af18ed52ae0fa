package runner

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"sync"

	"golang.org/x/term"

	"github.com/sadewadee/google-place-resolver/tlmt"
)

const (
	RunModeWeb = iota + 1
	RunModeBatch
	RunModeLambda
)

// Config carries everything the runners need. Values come from flags first,
// environment second.
type Config struct {
	RunMode      int
	Addr         string
	DataFolder   string
	APIKey       string
	LangCode     string
	Concurrency  int
	InputFile    string
	ResultsFile  string
	UseBrowser   bool
	VerifyEmails bool
	Dsn          string
	S3Bucket     string

	DisableTelemetry bool
}

// Runner is one execution surface of the resolver (web server, batch file,
// lambda).
type Runner interface {
	Run(context.Context) error
	Close(context.Context) error
}

// ParseConfig reads flags and environment. It never returns nil.
func ParseConfig() *Config {
	cfg := Config{
		LangCode:    "en",
		Concurrency: 4,
		DataFolder:  envDefault("DATA_FOLDER", "webdata"),
		APIKey:      os.Getenv("GOOGLE_MAPS_API_KEY"),
		Dsn:         os.Getenv("DATABASE_URL"),
		S3Bucket:    os.Getenv("S3_BUCKET"),
	}

	flag.StringVar(&cfg.InputFile, "input", "", "one Maps URL per line: a file path or sheets://<spreadsheet id> (enables batch mode)")
	flag.StringVar(&cfg.ResultsFile, "results", "results.csv", "batch mode output file")
	flag.StringVar(&cfg.LangCode, "lang", cfg.LangCode, "default language code")
	flag.IntVar(&cfg.Concurrency, "c", cfg.Concurrency, "concurrency for batch mode")
	flag.StringVar(&cfg.Addr, "addr", "", "listen address for web mode (overrides PORT)")
	flag.StringVar(&cfg.DataFolder, "data-folder", cfg.DataFolder, "folder for the journal database and CSV exports")
	flag.BoolVar(&cfg.UseBrowser, "browser", envBool("USE_BROWSER"), "render pages in a headless browser")
	flag.BoolVar(&cfg.VerifyEmails, "verify-emails", envBool("VERIFY_EMAILS"), "verify scraped emails via MX lookup")
	flag.BoolVar(&cfg.DisableTelemetry, "disable-telemetry", envBool("DISABLE_TELEMETRY"), "disable anonymous usage telemetry")
	flag.Parse()

	if cfg.Addr == "" {
		port := envDefault("PORT", "3000")
		cfg.Addr = ":" + port
	}

	switch {
	case os.Getenv("AWS_LAMBDA_FUNCTION_NAME") != "":
		cfg.RunMode = RunModeLambda
	case cfg.InputFile != "":
		cfg.RunMode = RunModeBatch
	default:
		cfg.RunMode = RunModeWeb
	}

	return &cfg
}

func envDefault(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}

	return def
}

func envBool(key string) bool {
	v, err := strconv.ParseBool(os.Getenv(key))

	return err == nil && v
}

var (
	telemetryOnce sync.Once
	telemetry     tlmt.Telemetry
)

// Telemetry returns the process-wide telemetry sink. PostHog when an API key
// is configured and telemetry is not disabled, a no-op otherwise.
func Telemetry() tlmt.Telemetry {
	telemetryOnce.Do(func() {
		if envBool("DISABLE_TELEMETRY") {
			telemetry = tlmt.NewNoop()

			return
		}

		apiKey := os.Getenv("POSTHOG_API_KEY")
		if apiKey == "" {
			telemetry = tlmt.NewNoop()

			return
		}

		t, err := tlmt.NewPosthog(apiKey, os.Getenv("POSTHOG_ENDPOINT"))
		if err != nil {
			telemetry = tlmt.NewNoop()

			return
		}

		telemetry = t
	})

	return telemetry
}

// Banner prints the startup banner, only when stdout is a terminal.
func Banner(cfg *Config) {
	if !term.IsTerminal(int(os.Stdout.Fd())) {
		return
	}

	fmt.Println("google-place-resolver")

	switch cfg.RunMode {
	case RunModeWeb:
		fmt.Printf("listening on %s (data folder %s)\n", cfg.Addr, cfg.DataFolder)
	case RunModeBatch:
		fmt.Printf("batch mode: %s -> %s (concurrency %d)\n", cfg.InputFile, cfg.ResultsFile, cfg.Concurrency)
	}

	if cfg.APIKey == "" {
		fmt.Println("GOOGLE_MAPS_API_KEY not set: running in HTML-only mode")
	}
}
