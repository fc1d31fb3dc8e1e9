//go:build !nogpu

package escape

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	// Import Vulkan backend so it registers via init().
	_ "github.com/gogpu/wgpu/hal/vulkan"

	mandel "github.com/marben/mandel_engine"
)

const (
	// passesPerSubmit bounds how much work sits between fence waits and
	// context checks.
	passesPerSubmit = 64
	gpuFenceTimeout = 10 * time.Second
)

// gpuDevice owns a Vulkan device and the escape pipeline compiled for it.
// Dispatches are serialized on its queue.
type gpuDevice struct {
	mu sync.Mutex

	name     string
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue

	shader     hal.ShaderModule
	bindLayout hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

var (
	gpuOnce   sync.Once
	gpuShared *gpuDevice
	gpuErr    error
)

// OpenGPU returns the process-wide GPU device, opening it on first use.
// The outcome of the first attempt is kept for the life of the process.
func OpenGPU() (Device, error) {
	gpuOnce.Do(func() {
		gpuShared, gpuErr = openGPU()
		if gpuErr != nil {
			mandel.Logger().Debug("gpu: unavailable", "err", gpuErr)
			return
		}
		mandel.Logger().Info("gpu: escape kernel ready", "adapter", gpuShared.name)
	})
	if gpuErr != nil {
		return nil, gpuErr
	}
	return gpuShared, nil
}

func openGPU() (*gpuDevice, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, errors.New("vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	var selected *hal.ExposedAdapter
	names := make([]string, 0, len(adapters))
	for i := range adapters {
		names = append(names, adapters[i].Info.Name)
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		instance.Destroy()
		if len(names) == 0 {
			return nil, errors.New("no GPU adapters found")
		}
		return nil, fmt.Errorf("no hardware GPU among adapters %s", strings.Join(names, ", "))
	}

	openDev, err := selected.Adapter.Open(gputypes.Features(0), gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("open %s: %w", selected.Info.Name, err)
	}
	d := &gpuDevice{
		name:     selected.Info.Name,
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
	}
	if err := d.createPipeline(); err != nil {
		d.close()
		return nil, fmt.Errorf("%s: %w", d.name, err)
	}
	return d, nil
}

func (d *gpuDevice) createPipeline() error {
	spirv, err := compileShader(escapeShaderWGSL)
	if err != nil {
		return err
	}
	d.shader, err = d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "escape",
		Source: hal.ShaderSource{SPIRV: spirv},
	})
	if err != nil {
		return fmt.Errorf("create shader module: %w", err)
	}

	d.bindLayout, err = d.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label: "escape_bind_layout",
		Entries: []gputypes.BindGroupLayoutEntry{
			{Binding: 0, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeUniform}},
			{Binding: 1, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeReadOnlyStorage}},
			{Binding: 2, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
			{Binding: 3, Visibility: gputypes.ShaderStageCompute, Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
		},
	})
	if err != nil {
		return fmt.Errorf("create bind group layout: %w", err)
	}

	d.pipeLayout, err = d.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label: "escape_pipe_layout", BindGroupLayouts: []hal.BindGroupLayout{d.bindLayout},
	})
	if err != nil {
		return fmt.Errorf("create pipeline layout: %w", err)
	}

	d.pipeline, err = d.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label: "escape_pipeline", Layout: d.pipeLayout,
		Compute: hal.ComputeState{Module: d.shader, EntryPoint: "main"},
	})
	if err != nil {
		return fmt.Errorf("create compute pipeline: %w", err)
	}
	return nil
}

func (d *gpuDevice) close() {
	if d.device != nil {
		if d.pipeline != nil {
			d.device.DestroyComputePipeline(d.pipeline)
		}
		if d.pipeLayout != nil {
			d.device.DestroyPipelineLayout(d.pipeLayout)
		}
		if d.bindLayout != nil {
			d.device.DestroyBindGroupLayout(d.bindLayout)
		}
		if d.shader != nil {
			d.device.DestroyShaderModule(d.shader)
		}
		d.device.Destroy()
		d.device = nil
	}
	if d.instance != nil {
		d.instance.Destroy()
		d.instance = nil
	}
}

func (d *gpuDevice) Name() string { return "gpu:" + d.name }

// kernelBuffers are the per-evaluation buffers bound to the escape pipeline.
type kernelBuffers struct {
	params, c, z, cells, staging hal.Buffer
	bind                         hal.BindGroup
	cellsSize                    uint64
}

func (d *gpuDevice) Escape(ctx context.Context, l mandel.Lattice, maxIters int) (*mandel.Grid, error) {
	g := mandel.NewGrid(l.Width(), l.Height())
	n := len(g.Cells)
	if n > maxKernelCells {
		return nil, fmt.Errorf("gpu: %d cells is more than the kernel can index (%d)", n, maxKernelCells)
	}
	gx, gy := dispatchSize(n)

	d.mu.Lock()
	defer d.mu.Unlock()

	b, err := d.upload(l, n, gx)
	if err != nil {
		return nil, err
	}
	defer d.release(b)

	for done := 0; done < maxIters; {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		passes := min(passesPerSubmit, maxIters-done)
		done += passes
		if err := d.submit(b, passes, gx, gy, done == maxIters); err != nil {
			return nil, err
		}
	}

	raw := make([]byte, b.cellsSize)
	if err := d.queue.ReadBuffer(b.staging, 0, raw); err != nil {
		return nil, fmt.Errorf("gpu: readback: %w", err)
	}
	unpackCells(raw, g.Cells)
	return g, nil
}

func (d *gpuDevice) upload(l mandel.Lattice, n int, groupsX uint32) (*kernelBuffers, error) {
	b := &kernelBuffers{cellsSize: uint64(4 * n)} //nolint:gosec // n is positive
	lanes := uint64(8 * n)                        //nolint:gosec // n is positive

	storage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
	var err error
	if b.params, err = d.buffer("escape_params", kernelParamsSize, gputypes.BufferUsageUniform|gputypes.BufferUsageCopyDst); err != nil {
		d.release(b)
		return nil, err
	}
	if b.c, err = d.buffer("escape_c", lanes, storage); err != nil {
		d.release(b)
		return nil, err
	}
	if b.z, err = d.buffer("escape_z", lanes, storage); err != nil {
		d.release(b)
		return nil, err
	}
	if b.cells, err = d.buffer("escape_cells", b.cellsSize, storage|gputypes.BufferUsageCopySrc); err != nil {
		d.release(b)
		return nil, err
	}
	if b.staging, err = d.buffer("escape_staging", b.cellsSize, gputypes.BufferUsageMapRead|gputypes.BufferUsageCopyDst); err != nil {
		d.release(b)
		return nil, err
	}

	d.queue.WriteBuffer(b.params, 0, kernelParams(n, groupsX))
	d.queue.WriteBuffer(b.c, 0, packLattice(l))
	d.queue.WriteBuffer(b.z, 0, make([]byte, lanes))
	d.queue.WriteBuffer(b.cells, 0, activeCells(n))

	b.bind, err = d.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label: "escape_bind", Layout: d.bindLayout,
		Entries: []gputypes.BindGroupEntry{
			{Binding: 0, Resource: gputypes.BufferBinding{Buffer: b.params.NativeHandle(), Offset: 0, Size: kernelParamsSize}},
			{Binding: 1, Resource: gputypes.BufferBinding{Buffer: b.c.NativeHandle(), Offset: 0, Size: lanes}},
			{Binding: 2, Resource: gputypes.BufferBinding{Buffer: b.z.NativeHandle(), Offset: 0, Size: lanes}},
			{Binding: 3, Resource: gputypes.BufferBinding{Buffer: b.cells.NativeHandle(), Offset: 0, Size: b.cellsSize}},
		},
	})
	if err != nil {
		d.release(b)
		return nil, fmt.Errorf("gpu: create bind group: %w", err)
	}
	return b, nil
}

func (d *gpuDevice) buffer(label string, size uint64, usage gputypes.BufferUsage) (hal.Buffer, error) {
	buf, err := d.device.CreateBuffer(&hal.BufferDescriptor{Label: label, Size: size, Usage: usage})
	if err != nil {
		return nil, fmt.Errorf("gpu: create %s buffer (%d bytes): %w", label, size, err)
	}
	return buf, nil
}

func (d *gpuDevice) release(b *kernelBuffers) {
	if b.bind != nil {
		d.device.DestroyBindGroup(b.bind)
	}
	for _, buf := range []hal.Buffer{b.params, b.c, b.z, b.cells, b.staging} {
		if buf != nil {
			d.device.DestroyBuffer(buf)
		}
	}
}

// submit encodes one compute pass per step and waits for the queue.
// Consecutive passes are separated by storage barriers, so each pass sees
// every lane of the previous one.
func (d *gpuDevice) submit(b *kernelBuffers, passes int, gx, gy uint32, readback bool) error {
	encoder, err := d.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{Label: "escape_encoder"})
	if err != nil {
		return fmt.Errorf("gpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("escape"); err != nil {
		return fmt.Errorf("gpu: begin encoding: %w", err)
	}
	for range passes {
		pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "escape_step"})
		pass.SetPipeline(d.pipeline)
		pass.SetBindGroup(0, b.bind, nil)
		pass.Dispatch(gx, gy, 1)
		pass.End()
	}
	if readback {
		encoder.CopyBufferToBuffer(b.cells, b.staging, []hal.BufferCopy{
			{SrcOffset: 0, DstOffset: 0, Size: b.cellsSize},
		})
	}
	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return fmt.Errorf("gpu: end encoding: %w", err)
	}
	defer d.device.FreeCommandBuffer(cmdBuf)

	fence, err := d.device.CreateFence()
	if err != nil {
		return fmt.Errorf("gpu: create fence: %w", err)
	}
	defer d.device.DestroyFence(fence)
	if err := d.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return fmt.Errorf("gpu: submit: %w", err)
	}
	ok, err := d.device.Wait(fence, 1, gpuFenceTimeout)
	if err != nil || !ok {
		return fmt.Errorf("gpu: wait for %d passes: ok=%v err=%w", passes, ok, err)
	}
	return nil
}
