package mandel

import (
	"context"
	"fmt"
	"time"
)

// Evaluator runs the escape-time iteration over a lattice.
// Implementations return a fresh grid of Height × Width cells.
type Evaluator interface {
	Name() string
	Evaluate(ctx context.Context, l Lattice, maxIters int) (*Grid, error)
}

// Defaults applied to an EvalRequest with zero fields.
const (
	DefaultLandmark = "full"
	DefaultWidth    = 512
	DefaultHeight   = 512
	DefaultMaxIters = 20
	DefaultStrategy = "vector"
)

// EvalRequest is one evaluation asked over the wire.
// Region takes precedence over Landmark when both are set.
type EvalRequest struct {
	Landmark string  `json:"landmark,omitempty"`
	Region   *Region `json:"region,omitempty"`
	Width    int     `json:"width,omitempty"`
	Height   int     `json:"height,omitempty"`
	MaxIters int     `json:"max_iters,omitempty"`
	Strategy string  `json:"strategy,omitempty"`
	Workers  int     `json:"workers,omitempty"`
}

// EvalResponse carries the grid back. Cells is row-major, one byte per cell.
type EvalResponse struct {
	Width        int    `json:"width"`
	Height       int    `json:"height"`
	Members      int    `json:"members"`
	Cells        []byte `json:"cells,omitempty"`
	Strategy     string `json:"strategy,omitempty"`
	ElapsedNanos int64  `json:"elapsed_ns"`
	Error        string `json:"error,omitempty"`
}

// Resolve fills defaults and validates the request.
func (req EvalRequest) Resolve() (Region, Resolution, int, error) {
	region := FullView
	switch {
	case req.Region != nil:
		region = *req.Region
	case req.Landmark != "":
		r, ok := Landmark(req.Landmark)
		if !ok {
			return Region{}, Resolution{}, 0, fmt.Errorf("%w: unknown landmark %q", ErrInvalidRegion, req.Landmark)
		}
		region = r
	}
	if err := region.Validate(); err != nil {
		return Region{}, Resolution{}, 0, err
	}

	res := Resolution{W: req.Width, H: req.Height}
	if res.W == 0 {
		res.W = DefaultWidth
	}
	if res.H == 0 {
		res.H = DefaultHeight
	}
	if err := res.Validate(); err != nil {
		return Region{}, Resolution{}, 0, err
	}

	iters := req.MaxIters
	if iters == 0 {
		iters = DefaultMaxIters
	}
	if iters < 1 {
		return Region{}, Resolution{}, 0, fmt.Errorf("%w: %d", ErrInvalidIterations, iters)
	}
	return region, res, iters, nil
}

// Grid rebuilds the membership grid from a response.
func (resp EvalResponse) Grid() (*Grid, error) {
	if resp.Error != "" {
		return nil, fmt.Errorf("remote: %s", resp.Error)
	}
	if resp.Width*resp.Height != len(resp.Cells) {
		return nil, fmt.Errorf("remote: %d cells for a %dx%d grid", len(resp.Cells), resp.Width, resp.Height)
	}
	return &Grid{Width: resp.Width, Height: resp.Height, Cells: resp.Cells}, nil
}

func (resp EvalResponse) Elapsed() time.Duration {
	return time.Duration(resp.ElapsedNanos)
}
