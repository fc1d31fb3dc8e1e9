//go:build nogpu

package escape

import "errors"

// OpenGPU always fails in builds with the nogpu tag.
func OpenGPU() (Device, error) {
	return nil, errors.New("built without GPU support (nogpu tag)")
}
