package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/sadewadee/google-place-resolver/runner"
	"github.com/sadewadee/google-place-resolver/runner/batchrunner"
	"github.com/sadewadee/google-place-resolver/runner/lambdarunner"
	"github.com/sadewadee/google-place-resolver/runner/webrunner"
)

func main() {
	cfg := runner.ParseConfig()

	runner.Banner(cfg)

	ctx, cancel := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	r, err := newRunner(cfg)
	if err != nil {
		log.Fatal(err)
	}

	runErr := r.Run(ctx)

	_ = r.Close(context.Background())
	_ = runner.Telemetry().Close()

	if runErr != nil && ctx.Err() == nil {
		log.Fatal(runErr)
	}
}

func newRunner(cfg *runner.Config) (runner.Runner, error) {
	switch cfg.RunMode {
	case runner.RunModeBatch:
		return batchrunner.New(cfg)
	case runner.RunModeLambda:
		return lambdarunner.New(cfg)
	default:
		return webrunner.New(cfg)
	}
}
