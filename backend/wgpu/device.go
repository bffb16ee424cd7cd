// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"fmt"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wgslverify"
)

// fenceTimeout bounds a single fence poll. Wait loops on short polls so
// a cancelled context is noticed promptly.
const fenceTimeout = 10 * time.Millisecond

// maxWait is the total time a dispatch may spend on the GPU before the
// wait gives up.
const maxWait = 5 * time.Second

// Device wraps a gogpu/wgpu hal device as a wgslverify.Device.
type Device struct {
	instance hal.Instance
	device   hal.Device
	queue    hal.Queue
	limits   gputypes.Limits
	name     string
}

// Open enumerates the available adapters and opens one, preferring
// a discrete or integrated GPU. The caller owns the returned Device
// and must Close it.
func Open() (*Device, error) {
	backend, ok := hal.GetBackend(gputypes.BackendVulkan)
	if !ok {
		return nil, fmt.Errorf("wgpu: vulkan backend not available")
	}
	instance, err := backend.CreateInstance(&hal.InstanceDescriptor{Flags: 0})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create instance: %w", err)
	}
	adapters := instance.EnumerateAdapters(nil)
	if len(adapters) == 0 {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: no GPU adapters found")
	}
	var selected *hal.ExposedAdapter
	for i := range adapters {
		if adapters[i].Info.DeviceType == gputypes.DeviceTypeDiscreteGPU ||
			adapters[i].Info.DeviceType == gputypes.DeviceTypeIntegratedGPU {
			selected = &adapters[i]
			break
		}
	}
	if selected == nil {
		selected = &adapters[0]
	}

	limits := gputypes.DefaultLimits()
	openDev, err := selected.Adapter.Open(gputypes.Features(0), limits)
	if err != nil {
		instance.Destroy()
		return nil, fmt.Errorf("wgpu: open device: %w", err)
	}

	return &Device{
		instance: instance,
		device:   openDev.Device,
		queue:    openDev.Queue,
		limits:   limits,
		name:     selected.Info.Name,
	}, nil
}

// Wrap adapts an already opened hal device and queue. Close on a
// wrapped Device does not destroy them.
func Wrap(device hal.Device, queue hal.Queue, limits gputypes.Limits) *Device {
	return &Device{device: device, queue: queue, limits: limits}
}

// Name returns the adapter name, or "" for a wrapped device.
func (d *Device) Name() string { return d.name }

// Limits reports the binding-size ceilings of the opened device.
func (d *Device) Limits() wgslverify.Limits {
	return wgslverify.Limits{
		MaxUniformBindingSize: d.limits.MaxUniformBufferBindingSize,
		MaxStorageBindingSize: d.limits.MaxStorageBufferBindingSize,
	}
}

// Compile creates a shader module from WGSL source. Pipeline and bind
// group layouts are created on first dispatch, once the binding shape
// (input presence and storage class) is known.
func (d *Device) Compile(ctx context.Context, source string) (wgslverify.Program, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	module, err := d.device.CreateShaderModule(&hal.ShaderModuleDescriptor{
		Label:  "wgslverify_case",
		Source: hal.ShaderSource{WGSL: source},
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create shader module: %w", err)
	}
	return &program{dev: d, module: module}, nil
}

// Close releases the device. Programs compiled from it must be
// destroyed first. A wrapped Device only drops its references.
func (d *Device) Close() {
	if d.instance == nil {
		return
	}
	d.device.Destroy()
	d.instance.Destroy()
	d.instance = nil
	d.device = nil
	d.queue = nil
}
