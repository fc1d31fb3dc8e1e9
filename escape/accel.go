package escape

import (
	"context"
	"fmt"
	"strings"

	mandel "github.com/marben/mandel_engine"
	"github.com/marben/mandel_engine/hwinfo"
)

// Device runs the masked escape kernel on an accelerator. Escape gets a
// validated lattice and returns a fresh grid.
type Device interface {
	Name() string
	Escape(ctx context.Context, l mandel.Lattice, maxIters int) (*mandel.Grid, error)
}

// Accelerator evaluates on a GPU compute device in single precision.
//
// When no device can be opened it fails with mandel.ErrBackendUnavailable,
// naming the devices the inventory sees. It only delegates when Fallback is
// set explicitly.
type Accelerator struct {
	Inventory *hwinfo.Inventory
	Fallback  mandel.Evaluator
	// Open returns the device to run on; nil uses OpenGPU.
	Open func() (Device, error)
}

func (a Accelerator) Name() string {
	if a.Fallback != nil {
		return "accel(fallback=" + a.Fallback.Name() + ")"
	}
	return "accel"
}

func (a Accelerator) Evaluate(ctx context.Context, l mandel.Lattice, maxIters int) (*mandel.Grid, error) {
	if err := validate(l, maxIters); err != nil {
		return nil, err
	}
	open := a.Open
	if open == nil {
		open = OpenGPU
	}
	dev, err := open()
	if err == nil {
		mandel.Logger().Debug("accel: dispatching",
			"device", dev.Name(), "cells", l.Width()*l.Height(), "passes", maxIters)
		return dev.Escape(ctx, l, maxIters)
	}

	err = a.unavailable(ctx, err)
	if a.Fallback == nil {
		return nil, err
	}
	mandel.Logger().Warn("accelerator unavailable, using fallback strategy",
		"fallback", a.Fallback.Name(), "err", err)
	return a.Fallback.Evaluate(ctx, l, maxIters)
}

func (a Accelerator) unavailable(ctx context.Context, cause error) error {
	err := fmt.Errorf("%w: %w", mandel.ErrBackendUnavailable, cause)
	if a.Inventory == nil {
		return err
	}
	devs, derr := a.Inventory.Devices(ctx)
	if derr != nil {
		return fmt.Errorf("%w (inventory: %w)", err, derr)
	}
	if len(devs) == 0 {
		return fmt.Errorf("%w (%s found no compute devices)", err, a.Inventory.DriverName())
	}
	names := make([]string, len(devs))
	for i, d := range devs {
		names[i] = fmt.Sprintf("%d:%s %s", d.Index, d.Name, d.Capability)
	}
	return fmt.Errorf("%w (inventory: %s)", err, strings.Join(names, ", "))
}
