package mandel

import (
	"errors"
	"testing"
)

func TestEvalRequestResolveDefaults(t *testing.T) {
	region, res, iters, err := EvalRequest{}.Resolve()
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if region != FullView || res != (Resolution{W: 512, H: 512}) || iters != 20 {
		t.Fatalf("defaults = %v %v %d", region, res, iters)
	}
}

func TestEvalRequestResolve(t *testing.T) {
	custom := Region{Xmin: -1, Xmax: 1, Ymin: -0.5, Ymax: 0.5}
	tests := []struct {
		name    string
		req     EvalRequest
		region  Region
		wantErr error
	}{
		{"landmark", EvalRequest{Landmark: "seahorse"}, SeahorseValley, nil},
		{"region wins over landmark", EvalRequest{Landmark: "seahorse", Region: &custom}, custom, nil},
		{"unknown landmark", EvalRequest{Landmark: "nowhere"}, Region{}, ErrInvalidRegion},
		{"bad region", EvalRequest{Region: &Region{Xmin: 1, Xmax: 0, Ymin: 0, Ymax: 1}}, Region{}, ErrInvalidRegion},
		{"negative width", EvalRequest{Width: -3}, Region{}, ErrInvalidResolution},
		{"negative iterations", EvalRequest{MaxIters: -1}, Region{}, ErrInvalidIterations},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			region, _, _, err := tt.req.Resolve()
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("err = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve: %v", err)
			}
			if region != tt.region {
				t.Fatalf("region = %v, want %v", region, tt.region)
			}
		})
	}
}

func TestEvalResponseGrid(t *testing.T) {
	g, err := EvalResponse{Width: 2, Height: 1, Cells: []byte{1, 0}}.Grid()
	if err != nil {
		t.Fatalf("Grid: %v", err)
	}
	if g.At(0, 0) != 1 || g.At(1, 0) != 0 {
		t.Fatalf("cells = %v", g.Cells)
	}
	if _, err := (EvalResponse{Width: 2, Height: 2, Cells: []byte{1}}).Grid(); err == nil {
		t.Fatal("accepted short cell buffer")
	}
	if _, err := (EvalResponse{Error: "boom"}).Grid(); err == nil {
		t.Fatal("accepted error response")
	}
}

func TestLandmarks(t *testing.T) {
	names := LandmarkNames()
	if len(names) != len(landmarks) {
		t.Fatalf("LandmarkNames = %v", names)
	}
	for _, n := range names {
		r, ok := Landmark(n)
		if !ok {
			t.Fatalf("Landmark(%q) missing", n)
		}
		if err := r.Validate(); err != nil {
			t.Errorf("landmark %q: %v", n, err)
		}
	}
	if _, ok := Landmark("atlantis"); ok {
		t.Fatal("unknown landmark found")
	}
}
