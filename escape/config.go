package escape

import (
	"fmt"
	"slices"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/hwinfo"
)

const (
	StrategyScalar = "scalar"
	StrategyVector = "vector"
	StrategyAccel  = "accel"
)

// Config selects and tunes a strategy.
type Config struct {
	// Strategy is one of Strategies(); empty means mandel.DefaultStrategy.
	Strategy string
	// Workers bounds concurrency for scalar tiles and vector chunks.
	Workers int
	// TileSize is the scalar tile edge.
	TileSize int
	// Chunk is the vector chunk length.
	Chunk int
	// NoEarlyExit makes the scalar strategy iterate every point for the
	// whole budget.
	NoEarlyExit bool
	// Fallback names the strategy used when Strategy needs hardware that is
	// missing. Empty fails closed.
	Fallback string
	// Inventory names the devices in accelerator errors; nil uses nvidia-smi.
	Inventory *hwinfo.Inventory
	// OpenDevice opens the accelerator device; nil uses OpenGPU.
	OpenDevice func() (Device, error)
}

func Strategies() []string {
	return []string{StrategyScalar, StrategyVector, StrategyAccel}
}

// New builds the evaluator named by cfg.Strategy.
func New(cfg Config) (mandel.Evaluator, error) {
	name := cfg.Strategy
	if name == "" {
		name = mandel.DefaultStrategy
	}

	switch name {
	case StrategyScalar:
		return Scalar{Workers: cfg.Workers, TileSize: cfg.TileSize, NoEarlyExit: cfg.NoEarlyExit}, nil
	case StrategyVector:
		return Vector{Workers: cfg.Workers, Chunk: cfg.Chunk}, nil
	case StrategyAccel:
		a := Accelerator{Inventory: cfg.Inventory, Open: cfg.OpenDevice}
		if a.Inventory == nil {
			a.Inventory = hwinfo.NewInventory(hwinfo.SMIDriver{})
		}
		if cfg.Fallback != "" {
			if cfg.Fallback == StrategyAccel {
				return nil, fmt.Errorf("%w: accel cannot fall back to itself", mandel.ErrUnknownStrategy)
			}
			fb := cfg
			fb.Strategy, fb.Fallback = cfg.Fallback, ""
			ev, err := New(fb)
			if err != nil {
				return nil, fmt.Errorf("fallback: %w", err)
			}
			a.Fallback = ev
		}
		return a, nil
	}
	return nil, fmt.Errorf("%w: %q (want one of %v)", mandel.ErrUnknownStrategy, name, Strategies())
}

// Known reports whether name is a strategy New accepts.
func Known(name string) bool {
	return slices.Contains(Strategies(), name)
}
