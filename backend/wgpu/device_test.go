// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"testing"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"
	"github.com/gogpu/wgpu/hal/noop"
	"github.com/stretchr/testify/require"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// createNoopDevice creates a noop device and queue for testing.
// Returns the device, queue, and a cleanup function.
func createNoopDevice(t *testing.T) (hal.Device, hal.Queue, func()) {
	t.Helper()
	api := noop.API{}
	instance, err := api.CreateInstance(nil)
	require.NoError(t, err, "CreateInstance")
	adapters := instance.EnumerateAdapters(nil)
	require.NotEmpty(t, adapters)
	openDev, err := adapters[0].Adapter.Open(0, gputypes.DefaultLimits())
	if err != nil {
		instance.Destroy()
		t.Fatalf("Open failed: %v", err)
	}
	cleanup := func() {
		openDev.Device.Destroy()
		instance.Destroy()
	}
	return openDev.Device, openDev.Queue, cleanup
}

func TestWrapLimits(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	lim := gputypes.DefaultLimits()
	d := Wrap(device, queue, lim)

	got := d.Limits()
	require.Equal(t, lim.MaxUniformBufferBindingSize, got.MaxUniformBindingSize)
	require.Equal(t, lim.MaxStorageBufferBindingSize, got.MaxStorageBindingSize)
	require.Equal(t, got.MaxUniformBindingSize, got.ForClass(wgsltypes.ClassUniform))
	require.Equal(t, got.MaxStorageBindingSize, got.ForClass(wgsltypes.ClassStorage))
}

func TestCompileAndDestroy(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d := Wrap(device, queue, gputypes.DefaultLimits())

	const src = `struct Output { value : u32, }
@group(0) @binding(0) var<storage, read_write> outputs : array<Output, 1>;
@compute @workgroup_size(1)
fn main() { outputs[0].value = 1u; }
`
	prog, err := d.Compile(context.Background(), src)
	require.NoError(t, err)
	prog.Destroy()
}

func TestCompileCancelledContext(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d := Wrap(device, queue, gputypes.DefaultLimits())

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := d.Compile(ctx, "fn main() {}")
	require.ErrorIs(t, err, context.Canceled)
}

func TestCloseWrappedDeviceKeepsHandles(t *testing.T) {
	device, queue, cleanup := createNoopDevice(t)
	defer cleanup()

	d := Wrap(device, queue, gputypes.DefaultLimits())
	d.Close()
	require.NotNil(t, d.device, "Close on a wrapped device must not drop the hal device")
}
