// mandel evaluates a region of the Mandelbrot set and saves it as a PNG file.
// The evaluation runs locally, or on a mandel server when -remote is given.

package main

import (
	"context"
	"fmt"
	"io"
	"log"
	"os"
	"runtime"
	"strings"
	"time"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/escape"
	"github.com/marben/mandel_engine/internal/cliutil"
	"github.com/marben/mandel_engine/render"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("FATAL: %v", err)
	}
}

type options struct {
	region   mandel.Region
	res      mandel.Resolution
	maxIters int
	cfg      escape.Config
	out      string
	scale    int
	remote   string
	verbose  bool
}

func parseOptions(args []string) (options, error) {
	var (
		o        options
		landmark string
		bounds   string
	)
	fs := cliutil.NewFlagSet("mandel", os.Stderr)
	fs.StringVar(&landmark, "landmark", mandel.DefaultLandmark, "named region: "+strings.Join(mandel.LandmarkNames(), ", "))
	fs.StringVar(&bounds, "bounds", "", "explicit region xmin,xmax,ymin,ymax (overrides -landmark)")
	fs.IntVar(&o.res.W, "width", mandel.DefaultWidth, "samples along the real axis")
	fs.IntVar(&o.res.H, "height", mandel.DefaultHeight, "samples along the imaginary axis")
	fs.IntVar(&o.maxIters, "iters", mandel.DefaultMaxIters, "maximum iterations per point")
	fs.StringVar(&o.cfg.Strategy, "strategy", cliutil.EnvOr("MANDEL_STRATEGY", mandel.DefaultStrategy), "one of "+strings.Join(escape.Strategies(), ", "))
	fs.IntVar(&o.cfg.Workers, "workers", runtime.GOMAXPROCS(0), "concurrent tiles (scalar) or chunks (vector); 1 runs single-threaded")
	fs.StringVar(&o.cfg.Fallback, "fallback", "", "strategy to use if -strategy needs missing hardware (empty fails instead)")
	fs.BoolVar(&o.cfg.NoEarlyExit, "no-early-exit", false, "scalar strategy iterates every point for the full budget")
	fs.StringVar(&o.out, "out", "mandelbrot.png", "output PNG file")
	fs.IntVar(&o.scale, "scale", 1, "integer upscale of the output image")
	fs.StringVar(&o.remote, "remote", "", "evaluate on a mandel server, e.g. ws://localhost:8080/ws")
	fs.BoolVar(&o.verbose, "v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return options{}, err
	}

	if bounds != "" {
		r, err := cliutil.ParseBounds(bounds)
		if err != nil {
			return options{}, err
		}
		o.region = r
	} else {
		r, ok := mandel.Landmark(landmark)
		if !ok {
			return options{}, fmt.Errorf("%w: unknown landmark %q", mandel.ErrInvalidRegion, landmark)
		}
		o.region = r
	}
	if err := o.res.Validate(); err != nil {
		return options{}, err
	}
	if o.maxIters < 1 {
		return options{}, fmt.Errorf("%w: %d", mandel.ErrInvalidIterations, o.maxIters)
	}
	if !escape.Known(o.cfg.Strategy) {
		return options{}, fmt.Errorf("%w: %q", mandel.ErrUnknownStrategy, o.cfg.Strategy)
	}
	if o.scale < 1 {
		return options{}, fmt.Errorf("-scale must be positive, got %d", o.scale)
	}
	return o, nil
}

// run evaluates the region, writes the PNG and prints both timings to stdout.
func run(ctx context.Context, args []string, stdout io.Writer) error {
	opts, err := parseOptions(args)
	if err != nil {
		return err
	}
	cliutil.SetupLogging(os.Stderr, opts.verbose)

	var r escape.Result
	if opts.remote != "" {
		r, err = evaluateRemote(ctx, opts)
	} else {
		r, err = escape.Compute(ctx, opts.cfg, opts.region, opts.res, opts.maxIters)
	}
	if err != nil {
		return err
	}

	t1 := time.Now()
	if err := writeImage(opts, r); err != nil {
		return err
	}
	dumpTime := time.Since(t1)

	fmt.Fprintf(stdout, "It took %.4f seconds to compute the Mandelbrot set (%s)\n", r.Elapsed.Seconds(), r.Strategy)
	fmt.Fprintf(stdout, "It took %.4f seconds to dump the image to a file\n", dumpTime.Seconds())
	return nil
}

func writeImage(opts options, r escape.Result) error {
	f, err := os.Create(opts.out)
	if err != nil {
		return fmt.Errorf("failed to create output file: %w", err)
	}
	defer f.Close()

	caption := fmt.Sprintf("%s %dx%d iters=%d %s %s",
		opts.region, opts.res.W, opts.res.H, opts.maxIters, r.Strategy, r.Elapsed.Round(time.Microsecond))
	if err := render.WritePNG(f, r.Grid, render.Options{Scale: opts.scale, Caption: caption}); err != nil {
		return err
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("close %q: %w", opts.out, err)
	}
	log.Printf("image saved to %q", opts.out)
	return nil
}
