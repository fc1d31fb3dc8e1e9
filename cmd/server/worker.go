package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"
	"golang.org/x/sync/semaphore"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/escape"
)

const (
	defaultMaxCells = 4096 * 4096
	defaultMaxIters = 100_000
)

var errTooLarge = errors.New("request exceeds server limits")

// limits bound the work a single request may ask for.
type limits struct {
	maxCells int
	maxIters int
}

func (l limits) check(res mandel.Resolution, iters int) error {
	// W > maxCells/H is W*H > maxCells without the overflow
	if res.W < 1 || res.H < 1 || res.W > l.maxCells/res.H {
		return fmt.Errorf("%w: %dx%d is more than %d cells", errTooLarge, res.W, res.H, l.maxCells)
	}
	if iters > l.maxIters {
		return fmt.Errorf("%w: %d iterations is more than %d", errTooLarge, iters, l.maxIters)
	}
	return nil
}

// evalScheduler answers evaluation requests from all connected clients,
// admitting at most a fixed number of evaluations at a time.
type evalScheduler struct {
	cfg    escape.Config
	limits limits
	sem    *semaphore.Weighted

	clients     int
	evaluations int
	failures    int
	m           sync.Mutex
}

type schedulerStats struct {
	Clients     int `json:"clients"`
	Evaluations int `json:"evaluations"`
	Failures    int `json:"failures"`
}

func newEvalScheduler(maxConcurrent int64, lim limits, cfg escape.Config) *evalScheduler {
	return &evalScheduler{
		cfg:    cfg,
		limits: lim,
		sem:    semaphore.NewWeighted(maxConcurrent),
	}
}

func (es *evalScheduler) stats() schedulerStats {
	es.m.Lock()
	defer es.m.Unlock()
	return schedulerStats{Clients: es.clients, Evaluations: es.evaluations, Failures: es.failures}
}

func (es *evalScheduler) incClients() {
	es.m.Lock()
	es.clients++
	c := es.clients
	es.m.Unlock()

	slog.Info("clients", "count", c)
}

func (es *evalScheduler) decClients() {
	es.m.Lock()
	es.clients--
	c := es.clients
	es.m.Unlock()

	slog.Info("clients", "count", c)
}

func (es *evalScheduler) finished(err error) {
	es.m.Lock()
	defer es.m.Unlock()
	es.evaluations++
	if err != nil {
		es.failures++
	}
}

// serve reads requests from c and answers each with one response until the
// connection fails or ctx is done. Invalid requests are answered with an
// error response; the connection stays open.
func (es *evalScheduler) serve(ctx context.Context, c *websocket.Conn) error {
	es.incClients()
	defer es.decClients()

	for {
		var req mandel.EvalRequest
		if err := wsjson.Read(ctx, c, &req); err != nil {
			return err
		}
		resp := es.evaluate(ctx, req)
		if err := wsjson.Write(ctx, c, resp); err != nil {
			return err
		}
	}
}

func (es *evalScheduler) evaluate(ctx context.Context, req mandel.EvalRequest) mandel.EvalResponse {
	resp, err := es.compute(ctx, req)
	es.finished(err)
	if err != nil {
		slog.Warn("evaluation failed", "err", err)
		return mandel.EvalResponse{Error: err.Error()}
	}
	return resp
}

func (es *evalScheduler) compute(ctx context.Context, req mandel.EvalRequest) (mandel.EvalResponse, error) {
	region, res, iters, err := req.Resolve()
	if err != nil {
		return mandel.EvalResponse{}, err
	}
	if err := es.limits.check(res, iters); err != nil {
		return mandel.EvalResponse{}, err
	}

	cfg := es.cfg
	if req.Strategy != "" {
		cfg.Strategy = req.Strategy
	}
	if req.Workers > 0 && (cfg.Workers <= 0 || req.Workers < cfg.Workers) {
		cfg.Workers = req.Workers
	}

	if err := es.sem.Acquire(ctx, 1); err != nil {
		return mandel.EvalResponse{}, fmt.Errorf("waiting for a free slot: %w", err)
	}
	defer es.sem.Release(1)

	r, err := escape.Compute(ctx, cfg, region, res, iters)
	if err != nil {
		return mandel.EvalResponse{}, err
	}
	return mandel.EvalResponse{
		Width:        r.Grid.Width,
		Height:       r.Grid.Height,
		Members:      r.Grid.Members(),
		Cells:        r.Grid.Cells,
		Strategy:     r.Strategy,
		ElapsedNanos: r.Elapsed.Nanoseconds(),
	}, nil
}
