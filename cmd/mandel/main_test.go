package main

import (
	"bytes"
	"errors"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/coder/websocket"
	"github.com/coder/websocket/wsjson"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/escape"
)

func TestRunWritesImage(t *testing.T) {
	out := filepath.Join(t.TempDir(), "m.png")
	var stdout bytes.Buffer
	args := []string{"-width", "40", "-height", "30", "-iters", "10", "-strategy", "scalar", "-scale", "2", "-out", out}
	if err := run(t.Context(), args, &stdout); err != nil {
		t.Fatalf("run: %v", err)
	}

	if !strings.Contains(stdout.String(), "to compute the Mandelbrot set") ||
		!strings.Contains(stdout.String(), "to dump the image to a file") {
		t.Fatalf("unexpected output:\n%s", stdout.String())
	}

	f, err := os.Open(out)
	if err != nil {
		t.Fatal(err)
	}
	defer f.Close()
	img, err := png.Decode(f)
	if err != nil {
		t.Fatalf("png.Decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 80 || b.Dy() != 60 {
		t.Fatalf("image is %dx%d, want 80x60", b.Dx(), b.Dy())
	}
}

func TestRunAccelFailsClosed(t *testing.T) {
	if _, err := escape.OpenGPU(); err == nil {
		t.Skip("a GPU adapter is present")
	}
	out := filepath.Join(t.TempDir(), "m.png")
	err := run(t.Context(), []string{"-width", "8", "-height", "8", "-strategy", "accel", "-out", out}, &bytes.Buffer{})
	if !errors.Is(err, mandel.ErrBackendUnavailable) {
		t.Fatalf("err = %v, want ErrBackendUnavailable", err)
	}
	if _, statErr := os.Stat(out); !os.IsNotExist(statErr) {
		t.Fatalf("output written despite failure: %v", statErr)
	}
}

func TestParseOptions(t *testing.T) {
	tests := []struct {
		name    string
		args    []string
		wantErr error
	}{
		{"defaults", nil, nil},
		{"bounds", []string{"-bounds", "-1,1,-1,1"}, nil},
		{"bad landmark", []string{"-landmark", "atlantis"}, mandel.ErrInvalidRegion},
		{"bad bounds", []string{"-bounds", "1,0,0,1"}, mandel.ErrInvalidRegion},
		{"zero width", []string{"-width", "0"}, mandel.ErrInvalidResolution},
		{"zero iters", []string{"-iters", "0"}, mandel.ErrInvalidIterations},
		{"bad strategy", []string{"-strategy", "abacus"}, mandel.ErrUnknownStrategy},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("MANDEL_STRATEGY", "")
			o, err := parseOptions(tt.args)
			if tt.wantErr == nil {
				if err != nil {
					t.Fatalf("parseOptions: %v", err)
				}
				return
			}
			if !errors.Is(err, tt.wantErr) {
				t.Fatalf("err = %v, want %v (opts %+v)", err, tt.wantErr, o)
			}
		})
	}
}

func TestParseOptionsDefaults(t *testing.T) {
	t.Setenv("MANDEL_STRATEGY", "")
	o, err := parseOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.region != mandel.FullView || o.res != (mandel.Resolution{W: 512, H: 512}) || o.maxIters != 20 {
		t.Fatalf("defaults = %+v", o)
	}
	if o.cfg.Strategy != escape.StrategyVector || o.cfg.NoEarlyExit {
		t.Fatalf("default strategy = %q, no early exit = %v", o.cfg.Strategy, o.cfg.NoEarlyExit)
	}

	o, err = parseOptions([]string{"-strategy", "scalar", "-no-early-exit"})
	if err != nil {
		t.Fatal(err)
	}
	if !o.cfg.NoEarlyExit {
		t.Fatal("-no-early-exit ignored")
	}

	t.Setenv("MANDEL_STRATEGY", "scalar")
	o, err = parseOptions(nil)
	if err != nil {
		t.Fatal(err)
	}
	if o.cfg.Strategy != escape.StrategyScalar {
		t.Fatalf("MANDEL_STRATEGY ignored: %q", o.cfg.Strategy)
	}
}

func TestEvaluateRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := websocket.Accept(w, r, nil)
		if err != nil {
			return
		}
		defer c.CloseNow()
		var req mandel.EvalRequest
		if err := wsjson.Read(r.Context(), c, &req); err != nil {
			return
		}
		region, res, iters, err := req.Resolve()
		if err != nil {
			_ = wsjson.Write(r.Context(), c, mandel.EvalResponse{Error: err.Error()})
			return
		}
		got, err := escape.Compute(r.Context(), escape.Config{Strategy: req.Strategy}, region, res, iters)
		if err != nil {
			_ = wsjson.Write(r.Context(), c, mandel.EvalResponse{Error: err.Error()})
			return
		}
		_ = wsjson.Write(r.Context(), c, mandel.EvalResponse{
			Width: got.Grid.Width, Height: got.Grid.Height, Cells: got.Grid.Cells,
			Members: got.Grid.Members(), Strategy: got.Strategy, ElapsedNanos: got.Elapsed.Nanoseconds(),
		})
		_, _, _ = c.Read(r.Context())
	}))
	defer srv.Close()

	t.Setenv("MANDEL_STRATEGY", "")
	opts, err := parseOptions([]string{"-width", "21", "-height", "11", "-iters", "15",
		"-remote", "ws" + strings.TrimPrefix(srv.URL, "http")})
	if err != nil {
		t.Fatal(err)
	}
	r, err := evaluateRemote(t.Context(), opts)
	if err != nil {
		t.Fatalf("evaluateRemote: %v", err)
	}
	local, err := escape.Compute(t.Context(), escape.Config{Strategy: "scalar"}, opts.region, opts.res, opts.maxIters)
	if err != nil {
		t.Fatal(err)
	}
	if !r.Grid.Equal(local.Grid) {
		t.Fatal("remote grid differs from local scalar evaluation")
	}
	if r.Strategy != "remote vector" {
		t.Fatalf("strategy = %q", r.Strategy)
	}
}
