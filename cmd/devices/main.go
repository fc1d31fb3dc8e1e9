// devices lists the compute hardware the mandel strategies can use:
// CUDA devices reported by nvidia-smi, the GPU adapter the accel strategy
// opens, and the host CPU's SIMD features.
package main

import (
	"context"
	"io"
	"log"
	"maps"
	"os"
	"slices"
	"strings"

	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/marben/mandel_engine/escape"
	"github.com/marben/mandel_engine/hwinfo"
	"github.com/marben/mandel_engine/internal/cliutil"
)

func main() {
	if err := run(context.Background(), os.Args[1:], os.Stdout); err != nil {
		log.Fatalf("run: %+v", err)
	}
}

func run(ctx context.Context, args []string, stdout io.Writer) error {
	fs := cliutil.NewFlagSet("devices", os.Stderr)
	smi := fs.String("nvidia-smi", "", "path to nvidia-smi (default: from PATH)")
	verbose := fs.Bool("v", false, "debug logging")
	if err := fs.Parse(args); err != nil {
		return err
	}
	cliutil.SetupLogging(os.Stderr, *verbose)

	inv := hwinfo.NewInventory(hwinfo.SMIDriver{Path: *smi})
	devs, err := inv.Devices(ctx)
	if err != nil {
		return err
	}
	printDevices(stdout, devs)
	dev, err := escape.OpenGPU()
	printAdapter(stdout, dev, err)
	printCPU(stdout, hwinfo.CPU())
	return nil
}

// printAdapter reports the device the accel strategy would run on.
func printAdapter(w io.Writer, dev escape.Device, err error) {
	p := message.NewPrinter(language.English)
	if err != nil {
		p.Fprintf(w, "GPU compute adapter: unavailable (%v)\n", err)
		return
	}
	p.Fprintf(w, "GPU compute adapter: %s\n", dev.Name())
}

func printDevices(w io.Writer, devs []hwinfo.Device) {
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "Detected %d CUDA device(s).\n", len(devs))
	for _, d := range devs {
		p.Fprintf(w, "Device %d: %s\n", d.Index, d.Name)
		arch := d.Arch
		if arch == "" {
			arch = "unknown architecture"
		}
		p.Fprintf(w, "Compute capability: %s (%s)\n", d.Capability, arch)
		p.Fprintf(w, "Device memory size: %d MB\n", d.MemoryMB())
		p.Fprintf(w, "Number of multiprocessors: %s, CUDA cores per MP: %s, Total CUDA Cores: %s\n",
			d.Multiprocessors, d.CoresPerMP, d.TotalCores)
		for _, k := range slices.Sorted(maps.Keys(d.Extra)) {
			p.Fprintf(w, "%s: %s\n", k, d.Extra[k])
		}
	}
}

func printCPU(w io.Writer, c hwinfo.CPUInfo) {
	features := "none"
	if len(c.Features) > 0 {
		features = strings.Join(c.Features, " ")
	}
	p := message.NewPrinter(language.English)
	p.Fprintf(w, "CPU: %s, %d logical cores, SIMD: %s (%d float64 lanes)\n", c.Arch, c.Cores, features, c.Lanes)
}
