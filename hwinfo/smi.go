package hwinfo

import (
	"bytes"
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os/exec"
	"strconv"
	"strings"
)

// smiQuery is the field list asked of nvidia-smi, in column order.
var smiQuery = []string{"index", "name", "compute_cap", "memory.total", "driver_version", "pci.bus_id"}

// SMIDriver discovers NVIDIA devices by running nvidia-smi.
// A host without nvidia-smi has zero devices; that is not an error.
// nvidia-smi does not report multiprocessor counts, so those stay Unknown.
type SMIDriver struct {
	// Path to the binary; empty means "nvidia-smi" from PATH.
	Path string
}

func (SMIDriver) Name() string { return "nvidia-smi" }

func (d SMIDriver) DeviceCount(ctx context.Context) (int, error) {
	attrs, err := d.query(ctx)
	if err != nil {
		return 0, err
	}
	return len(attrs), nil
}

func (d SMIDriver) Attributes(ctx context.Context, index int) (Attributes, error) {
	attrs, err := d.query(ctx)
	if err != nil {
		return Attributes{}, err
	}
	if index < 0 || index >= len(attrs) {
		return Attributes{}, fmt.Errorf("%w: index %d", ErrNoDevice, index)
	}
	return attrs[index], nil
}

func (d SMIDriver) query(ctx context.Context) ([]Attributes, error) {
	path := d.Path
	if path == "" {
		path = "nvidia-smi"
	}
	if _, err := exec.LookPath(path); err != nil {
		if errors.Is(err, exec.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}

	var stdout, stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, path,
		"--query-gpu="+strings.Join(smiQuery, ","),
		"--format=csv,noheader,nounits")
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("%s: %w: %s", path, err, strings.TrimSpace(stderr.String()))
	}
	return parseSMI(&stdout)
}

// parseSMI reads nvidia-smi CSV output (no header, no units).
// Fields nvidia-smi cannot fill are reported as "[N/A]" and left zero.
func parseSMI(r io.Reader) ([]Attributes, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = len(smiQuery)

	var out []Attributes
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("nvidia-smi output: %w", err)
		}

		a := Attributes{
			Index: len(out),
			Name:  rec[1],
			Extra: map[string]string{
				"DRIVER_VERSION": rec[4],
				"PCI_BUS_ID":     rec[5],
			},
		}
		if cc, err := ParseCapability(rec[2]); err == nil {
			a.Capability = cc
		}
		if mib, err := strconv.ParseUint(strings.TrimSpace(rec[3]), 10, 64); err == nil {
			a.TotalMemory = mib * 1024 * 1024
		}
		out = append(out, a)
	}
	return out, nil
}
