package hwinfo

import (
	"context"
	"errors"
	"fmt"
)

var ErrNoDevice = errors.New("hwinfo: no such device")

// Attributes is what a driver reports about one device.
type Attributes struct {
	Index       int
	Name        string
	Capability  Capability
	TotalMemory uint64 // bytes
	// Multiprocessors is 0 when the driver does not report it.
	Multiprocessors int
	// Extra holds driver specific attributes, printed as-is.
	Extra map[string]string
}

// Device is a fully described compute device.
type Device struct {
	Index           int
	Name            string
	Capability      Capability
	Arch            string
	TotalMemory     uint64
	Multiprocessors Count
	CoresPerMP      Count
	TotalCores      Count
	Extra           map[string]string
}

func (d Device) MemoryMB() uint64 {
	return d.TotalMemory / (1024 * 1024)
}

// Driver enumerates devices. Indexes are zero-based and dense.
type Driver interface {
	Name() string
	DeviceCount(ctx context.Context) (int, error)
	Attributes(ctx context.Context, index int) (Attributes, error)
}

// Inventory combines a Driver with a capability table.
type Inventory struct {
	driver Driver
	table  *Table
}

func NewInventory(d Driver) *Inventory {
	return &Inventory{driver: d, table: DefaultTable()}
}

// WithTable returns a copy of the inventory using t for core lookups.
func (inv *Inventory) WithTable(t *Table) *Inventory {
	return &Inventory{driver: inv.driver, table: t}
}

func (inv *Inventory) DriverName() string { return inv.driver.Name() }

func (inv *Inventory) Count(ctx context.Context) (int, error) {
	n, err := inv.driver.DeviceCount(ctx)
	if err != nil {
		return 0, fmt.Errorf("%s: device count: %w", inv.driver.Name(), err)
	}
	return n, nil
}

// Device describes the device at a zero-based index.
func (inv *Inventory) Device(ctx context.Context, index int) (Device, error) {
	n, err := inv.Count(ctx)
	if err != nil {
		return Device{}, err
	}
	if index < 0 || index >= n {
		return Device{}, fmt.Errorf("%w: index %d, %d device(s) present", ErrNoDevice, index, n)
	}
	a, err := inv.driver.Attributes(ctx, index)
	if err != nil {
		return Device{}, fmt.Errorf("%s: device %d: %w", inv.driver.Name(), index, err)
	}
	return inv.describe(a), nil
}

func (inv *Inventory) Devices(ctx context.Context) ([]Device, error) {
	n, err := inv.Count(ctx)
	if err != nil {
		return nil, err
	}
	devs := make([]Device, 0, n)
	for i := range n {
		d, err := inv.Device(ctx, i)
		if err != nil {
			return nil, err
		}
		devs = append(devs, d)
	}
	return devs, nil
}

func (inv *Inventory) describe(a Attributes) Device {
	d := Device{
		Index:       a.Index,
		Name:        a.Name,
		Capability:  a.Capability,
		TotalMemory: a.TotalMemory,
		CoresPerMP:  inv.table.CoresPerMP(a.Capability),
		Extra:       a.Extra,
	}
	if e, ok := inv.table.Lookup(a.Capability); ok {
		d.Arch = e.Arch
	}
	if a.Multiprocessors > 0 {
		d.Multiprocessors = Known(a.Multiprocessors)
	}
	d.TotalCores = d.Multiprocessors.Mul(d.CoresPerMP)
	return d
}

// StaticDriver serves a fixed list of devices.
type StaticDriver []Attributes

func (StaticDriver) Name() string { return "static" }

func (s StaticDriver) DeviceCount(context.Context) (int, error) { return len(s), nil }

func (s StaticDriver) Attributes(_ context.Context, index int) (Attributes, error) {
	if index < 0 || index >= len(s) {
		return Attributes{}, fmt.Errorf("%w: index %d", ErrNoDevice, index)
	}
	a := s[index]
	a.Index = index
	return a, nil
}
