package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"runtime"
	"syscall"
	"time"

	"github.com/marben/mandel_engine/escape"
	"github.com/marben/mandel_engine/internal/cliutil"
)

// main is the entry point for the Mandelbrot evaluation server.
// Clients send evaluation requests over a websocket and receive membership grids.
func main() {
	if err := run(os.Args[1:]); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

type options struct {
	addr          string
	maxConcurrent int64
	workers       int
	fallback      string
	noEarlyExit   bool
	limits        limits
	verbose       bool
}

func parseOptions(args []string) (options, error) {
	var o options
	fs := cliutil.NewFlagSet("server", os.Stderr)
	fs.StringVar(&o.addr, "addr", ":8080", "http listen address")
	fs.Int64Var(&o.maxConcurrent, "max-concurrent", int64(runtime.GOMAXPROCS(0)), "evaluations running at once across all clients")
	fs.IntVar(&o.workers, "workers", runtime.GOMAXPROCS(0), "workers per evaluation")
	fs.StringVar(&o.fallback, "fallback", "", "strategy used when a request asks for unavailable hardware (empty fails the request)")
	fs.BoolVar(&o.noEarlyExit, "no-early-exit", false, "scalar strategy iterates every point for the full budget")
	fs.IntVar(&o.limits.maxCells, "max-cells", defaultMaxCells, "largest width*height a request may ask for")
	fs.IntVar(&o.limits.maxIters, "max-iters", defaultMaxIters, "largest iteration budget a request may ask for")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}
	if o.maxConcurrent < 1 {
		return options{}, fmt.Errorf("-max-concurrent must be positive, got %d", o.maxConcurrent)
	}
	if o.limits.maxCells < 1 || o.limits.maxIters < 1 {
		return options{}, fmt.Errorf("-max-cells and -max-iters must be positive, got %d and %d", o.limits.maxCells, o.limits.maxIters)
	}
	if o.fallback != "" && !escape.Known(o.fallback) {
		return options{}, fmt.Errorf("-fallback: unknown strategy %q", o.fallback)
	}
	return o, nil
}

func run(args []string) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	cliutil.SetupLogging(os.Stderr, opts.verbose)

	sched := newEvalScheduler(opts.maxConcurrent, opts.limits, escape.Config{
		Workers:     opts.workers,
		Fallback:    opts.fallback,
		NoEarlyExit: opts.noEarlyExit,
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	httpServer := webServer(opts.addr, sched)
	errCh := make(chan error, 1)
	go func() {
		errCh <- httpServer.ListenAndServe()
	}()

	slog.Info("mb server waiting for websocket connections", "addr", opts.addr,
		"max_concurrent", opts.maxConcurrent, "max_cells", opts.limits.maxCells, "max_iters", opts.limits.maxIters)
	select {
	case err := <-errCh:
		if !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("httpServer: %w", err)
		}
		return nil
	case <-ctx.Done():
	}

	slog.Info("shutting down", "stats", sched.stats())
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	if err := httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("httpServer.Shutdown: %w", err)
	}
	return nil
}
