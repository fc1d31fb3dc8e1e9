// Package cliutil holds the flag and logging setup shared by the commands.
package cliutil

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strconv"
	"strings"

	mandel "github.com/marben/mandel_engine"
)

// NewFlagSet returns a FlagSet that reports errors instead of exiting.
func NewFlagSet(name string, output io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(output)
	return fs
}

// SetupLogging installs a text logger on w for slog and the mandel packages.
func SetupLogging(w io.Writer, verbose bool) *slog.Logger {
	level := slog.LevelInfo
	if verbose {
		level = slog.LevelDebug
	}
	l := slog.New(slog.NewTextHandler(w, &slog.HandlerOptions{Level: level}))
	slog.SetDefault(l)
	mandel.SetLogger(l)
	return l
}

// EnvOr returns the environment variable key, or def when it is unset or empty.
func EnvOr(key, def string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return def
}

// ParseBounds parses "xmin,xmax,ymin,ymax" into a validated region.
func ParseBounds(s string) (mandel.Region, error) {
	parts := strings.Split(s, ",")
	if len(parts) != 4 {
		return mandel.Region{}, fmt.Errorf("bounds %q: want xmin,xmax,ymin,ymax", s)
	}
	var v [4]float64
	for i, p := range parts {
		f, err := strconv.ParseFloat(strings.TrimSpace(p), 64)
		if err != nil {
			return mandel.Region{}, fmt.Errorf("bounds %q: %w", s, err)
		}
		v[i] = f
	}
	r := mandel.Region{Xmin: v[0], Xmax: v[1], Ymin: v[2], Ymax: v[3]}
	if err := r.Validate(); err != nil {
		return mandel.Region{}, err
	}
	return r, nil
}
