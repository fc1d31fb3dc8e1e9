package hwinfo

import (
	"errors"
	"strings"
	"testing"
)

func TestInventory(t *testing.T) {
	inv := NewInventory(StaticDriver{
		{Name: "RTX A4000", Capability: Capability{8, 6}, TotalMemory: 16 << 30, Multiprocessors: 48},
		{Name: "Future", Capability: Capability{11, 0}, TotalMemory: 1 << 30, Multiprocessors: 100},
		{Name: "No MP count", Capability: Capability{7, 5}},
	})

	devs, err := inv.Devices(t.Context())
	if err != nil {
		t.Fatalf("Devices: %v", err)
	}
	if len(devs) != 3 {
		t.Fatalf("got %d devices", len(devs))
	}

	d := devs[0]
	if d.Index != 0 || d.Arch != "Ampere" || d.CoresPerMP != Known(128) || d.TotalCores != Known(48*128) {
		t.Fatalf("device 0 = %+v", d)
	}
	if d.MemoryMB() != 16*1024 {
		t.Fatalf("MemoryMB = %d", d.MemoryMB())
	}

	d = devs[1]
	if d.Index != 1 || d.CoresPerMP.Known || d.TotalCores.Known || d.Multiprocessors != Known(100) {
		t.Fatalf("unknown capability device = %+v", d)
	}

	d = devs[2]
	if d.CoresPerMP != Known(64) || d.Multiprocessors.Known || d.TotalCores.Known {
		t.Fatalf("device without MP count = %+v", d)
	}
}

func TestInventoryDeviceIndex(t *testing.T) {
	inv := NewInventory(StaticDriver{{Name: "only"}})
	if _, err := inv.Device(t.Context(), 1); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("index 1: err = %v", err)
	}
	if _, err := inv.Device(t.Context(), -1); !errors.Is(err, ErrNoDevice) {
		t.Fatalf("index -1: err = %v", err)
	}
	d, err := inv.Device(t.Context(), 0)
	if err != nil || d.Name != "only" {
		t.Fatalf("Device(0) = %+v, %v", d, err)
	}
}

func TestInventoryWithTable(t *testing.T) {
	tbl, err := NewTable([]TableEntry{{Capability{11, 0}, "Next", 256}})
	if err != nil {
		t.Fatal(err)
	}
	inv := NewInventory(StaticDriver{{Name: "Future", Capability: Capability{11, 0}, Multiprocessors: 2}}).WithTable(tbl)
	d, err := inv.Device(t.Context(), 0)
	if err != nil {
		t.Fatal(err)
	}
	if d.TotalCores != Known(512) || d.Arch != "Next" {
		t.Fatalf("device = %+v", d)
	}
}

func TestParseSMI(t *testing.T) {
	out := strings.Join([]string{
		"0, NVIDIA GeForce RTX 3080, 8.6, 10240, 550.54.14, 00000000:01:00.0",
		"1, Tesla K80, [N/A], 11441, 470.82.01, 00000000:02:00.0",
		"",
	}, "\n")
	attrs, err := parseSMI(strings.NewReader(out))
	if err != nil {
		t.Fatalf("parseSMI: %v", err)
	}
	if len(attrs) != 2 {
		t.Fatalf("got %d devices", len(attrs))
	}

	a := attrs[0]
	if a.Name != "NVIDIA GeForce RTX 3080" || a.Capability != (Capability{8, 6}) || a.TotalMemory != 10240<<20 {
		t.Fatalf("device 0 = %+v", a)
	}
	if a.Extra["DRIVER_VERSION"] != "550.54.14" || a.Multiprocessors != 0 {
		t.Fatalf("device 0 extra = %+v", a)
	}

	a = attrs[1]
	if a.Index != 1 || a.Capability != (Capability{}) {
		t.Fatalf("device 1 = %+v", a)
	}
	d := NewInventory(StaticDriver(attrs)).describe(a)
	if d.CoresPerMP.Known || d.TotalCores.Known {
		t.Fatalf("N/A capability resolved to %+v", d)
	}
}

func TestParseSMIRejectsShortRows(t *testing.T) {
	if _, err := parseSMI(strings.NewReader("0, GPU, 8.6\n")); err == nil {
		t.Fatal("accepted a row with missing columns")
	}
}

func TestSMIDriverMissingBinary(t *testing.T) {
	d := SMIDriver{Path: "nvidia-smi-does-not-exist"}
	n, err := d.DeviceCount(t.Context())
	if err != nil || n != 0 {
		t.Fatalf("DeviceCount = %d, %v", n, err)
	}
}

func TestCPU(t *testing.T) {
	c := CPU()
	if c.Arch == "" || c.Cores < 1 || c.Lanes < 1 {
		t.Fatalf("CPU() = %+v", c)
	}
}
