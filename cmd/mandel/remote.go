package main

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/escape"
)

// evaluateRemote asks a mandel server to evaluate the region.
// The elapsed time is the server's compute time, not the round trip.
func evaluateRemote(ctx context.Context, opts options) (escape.Result, error) {
	slog.Info("connecting to mandel server", "url", opts.remote)
	c, _, err := websocket.Dial(ctx, opts.remote, nil)
	if err != nil {
		return escape.Result{}, fmt.Errorf("failed to connect to server: %w", err)
	}
	defer c.CloseNow()

	// one byte per cell, base64 in JSON, plus the envelope
	c.SetReadLimit(int64(opts.res.W*opts.res.H)*2 + 4096)

	region := opts.region
	req := mandel.EvalRequest{
		Region:   &region,
		Width:    opts.res.W,
		Height:   opts.res.H,
		MaxIters: opts.maxIters,
		Strategy: opts.cfg.Strategy,
		Workers:  opts.cfg.Workers,
	}
	if err := wsjson.Write(ctx, c, req); err != nil {
		return escape.Result{}, fmt.Errorf("send request: %w", err)
	}
	var resp mandel.EvalResponse
	if err := wsjson.Read(ctx, c, &resp); err != nil {
		return escape.Result{}, fmt.Errorf("read response: %w", err)
	}
	g, err := resp.Grid()
	if err != nil {
		return escape.Result{}, err
	}
	if g.Width != opts.res.W || g.Height != opts.res.H {
		return escape.Result{}, fmt.Errorf("server returned %dx%d grid, asked for %dx%d", g.Width, g.Height, opts.res.W, opts.res.H)
	}

	c.Close(websocket.StatusNormalClosure, "")
	return escape.Result{Grid: g, Elapsed: resp.Elapsed(), Strategy: "remote " + resp.Strategy}, nil
}
