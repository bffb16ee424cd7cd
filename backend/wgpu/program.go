// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgpu

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/gogpu/gputypes"
	"github.com/gogpu/wgpu/hal"

	"github.com/gogpu/wgslverify"
	"github.com/gogpu/wgslverify/wgsltypes"
)

// program is one compiled case shader. The pipeline is created lazily on
// the first dispatch because the bind group layout depends on whether the
// shader declares an input binding and on its storage class, which only
// the dispatch spec reveals.
type program struct {
	dev    *Device
	module hal.ShaderModule

	mu         sync.Mutex
	bgLayout   hal.BindGroupLayout
	pipeLayout hal.PipelineLayout
	pipeline   hal.ComputePipeline
}

func (p *program) ensurePipeline(spec wgslverify.DispatchSpec) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline != nil {
		return nil
	}

	entries := []gputypes.BindGroupLayoutEntry{
		{Binding: 0, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: gputypes.BufferBindingTypeStorage}},
	}
	if spec.Input != nil {
		inputType := gputypes.BufferBindingTypeReadOnlyStorage
		if spec.InputClass == wgsltypes.ClassUniform {
			inputType = gputypes.BufferBindingTypeUniform
		}
		entries = append(entries, gputypes.BindGroupLayoutEntry{
			Binding: 1, Visibility: gputypes.ShaderStageCompute,
			Buffer: &gputypes.BufferBindingLayout{Type: inputType},
		})
	}

	bgLayout, err := p.dev.device.CreateBindGroupLayout(&hal.BindGroupLayoutDescriptor{
		Label:   "wgslverify_bgl",
		Entries: entries,
	})
	if err != nil {
		return fmt.Errorf("wgpu: create bind group layout: %w", err)
	}

	pipeLayout, err := p.dev.device.CreatePipelineLayout(&hal.PipelineLayoutDescriptor{
		Label:            "wgslverify_pl",
		BindGroupLayouts: []hal.BindGroupLayout{bgLayout},
	})
	if err != nil {
		p.dev.device.DestroyBindGroupLayout(bgLayout)
		return fmt.Errorf("wgpu: create pipeline layout: %w", err)
	}

	pipeline, err := p.dev.device.CreateComputePipeline(&hal.ComputePipelineDescriptor{
		Label:  "wgslverify_case",
		Layout: pipeLayout,
		Compute: hal.ComputeState{
			Module:     p.module,
			EntryPoint: "main",
		},
	})
	if err != nil {
		p.dev.device.DestroyPipelineLayout(pipeLayout)
		p.dev.device.DestroyBindGroupLayout(bgLayout)
		return fmt.Errorf("wgpu: create compute pipeline: %w", err)
	}

	p.bgLayout = bgLayout
	p.pipeLayout = pipeLayout
	p.pipeline = pipeline
	return nil
}

// Dispatch uploads the batch input, records a single compute pass and a
// copy of the output buffer into a staging buffer, and submits. The
// returned Pending owns all per-dispatch resources and releases them
// when Wait returns.
func (p *program) Dispatch(ctx context.Context, spec wgslverify.DispatchSpec) (wgslverify.Pending, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	if err := p.ensurePipeline(spec); err != nil {
		return nil, err
	}

	res := &dispatchResources{device: p.dev.device}
	ok := false
	defer func() {
		if !ok {
			res.cleanup()
		}
	}()

	outSize := uint64(spec.OutputSize)
	outputBuf, err := p.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wgslverify_output", Size: outSize,
		Usage: gputypes.BufferUsageStorage | gputypes.BufferUsageCopySrc | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create output buffer: %w", err)
	}
	res.buffers = append(res.buffers, outputBuf)
	p.dev.queue.WriteBuffer(outputBuf, 0, make([]byte, outSize))

	stagingBuf, err := p.dev.device.CreateBuffer(&hal.BufferDescriptor{
		Label: "wgslverify_staging", Size: outSize,
		Usage: gputypes.BufferUsageMapRead | gputypes.BufferUsageCopyDst,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create staging buffer: %w", err)
	}
	res.buffers = append(res.buffers, stagingBuf)

	bgEntries := []gputypes.BindGroupEntry{
		{Binding: 0, Resource: gputypes.BufferBinding{Buffer: outputBuf.NativeHandle(), Offset: 0, Size: outSize}},
	}
	if spec.Input != nil {
		usage := gputypes.BufferUsageStorage | gputypes.BufferUsageCopyDst
		if spec.InputClass == wgsltypes.ClassUniform {
			usage = gputypes.BufferUsageUniform | gputypes.BufferUsageCopyDst
		}
		inputBuf, bufErr := p.dev.device.CreateBuffer(&hal.BufferDescriptor{
			Label: "wgslverify_input", Size: uint64(len(spec.Input)),
			Usage: usage,
		})
		if bufErr != nil {
			return nil, fmt.Errorf("wgpu: create input buffer: %w", bufErr)
		}
		res.buffers = append(res.buffers, inputBuf)
		p.dev.queue.WriteBuffer(inputBuf, 0, spec.Input)
		bgEntries = append(bgEntries, gputypes.BindGroupEntry{
			Binding: 1, Resource: gputypes.BufferBinding{Buffer: inputBuf.NativeHandle(), Offset: 0, Size: uint64(len(spec.Input))},
		})
	}

	bg, err := p.dev.device.CreateBindGroup(&hal.BindGroupDescriptor{
		Label:   "wgslverify_bg",
		Layout:  p.bgLayout,
		Entries: bgEntries,
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create bind group: %w", err)
	}
	res.bindGroup = bg

	encoder, err := p.dev.device.CreateCommandEncoder(&hal.CommandEncoderDescriptor{
		Label: "wgslverify_dispatch",
	})
	if err != nil {
		return nil, fmt.Errorf("wgpu: create command encoder: %w", err)
	}
	if err := encoder.BeginEncoding("wgslverify_dispatch"); err != nil {
		return nil, fmt.Errorf("wgpu: begin encoding: %w", err)
	}

	pass := encoder.BeginComputePass(&hal.ComputePassDescriptor{Label: "wgslverify_pass"})
	pass.SetPipeline(p.pipeline)
	pass.SetBindGroup(0, bg, nil)
	pass.Dispatch(1, 1, 1)
	pass.End()

	encoder.CopyBufferToBuffer(outputBuf, stagingBuf, []hal.BufferCopy{
		{SrcOffset: 0, DstOffset: 0, Size: outSize},
	})

	cmdBuf, err := encoder.EndEncoding()
	if err != nil {
		return nil, fmt.Errorf("wgpu: end encoding: %w", err)
	}
	res.cmdBuf = cmdBuf

	fence, err := p.dev.device.CreateFence()
	if err != nil {
		return nil, fmt.Errorf("wgpu: create fence: %w", err)
	}
	res.fence = fence

	if err := p.dev.queue.Submit([]hal.CommandBuffer{cmdBuf}, fence, 1); err != nil {
		return nil, fmt.Errorf("wgpu: submit: %w", err)
	}

	ok = true
	return &pending{
		dev:     p.dev,
		res:     res,
		staging: stagingBuf,
		size:    outSize,
	}, nil
}

// Destroy releases the pipeline, layouts and shader module.
func (p *program) Destroy() {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.pipeline != nil {
		p.dev.device.DestroyComputePipeline(p.pipeline)
		p.pipeline = nil
	}
	if p.pipeLayout != nil {
		p.dev.device.DestroyPipelineLayout(p.pipeLayout)
		p.pipeLayout = nil
	}
	if p.bgLayout != nil {
		p.dev.device.DestroyBindGroupLayout(p.bgLayout)
		p.bgLayout = nil
	}
	if p.module != nil {
		p.dev.device.DestroyShaderModule(p.module)
		p.module = nil
	}
}

// dispatchResources tracks per-dispatch GPU resources for cleanup.
type dispatchResources struct {
	device    hal.Device
	buffers   []hal.Buffer
	bindGroup hal.BindGroup
	cmdBuf    hal.CommandBuffer
	fence     hal.Fence
}

func (r *dispatchResources) cleanup() {
	if r.fence != nil {
		r.device.DestroyFence(r.fence)
	}
	if r.cmdBuf != nil {
		r.device.FreeCommandBuffer(r.cmdBuf)
	}
	if r.bindGroup != nil {
		r.device.DestroyBindGroup(r.bindGroup)
	}
	for _, b := range r.buffers {
		r.device.DestroyBuffer(b)
	}
}

// pending is a submitted dispatch awaiting its fence.
type pending struct {
	dev     *Device
	res     *dispatchResources
	staging hal.Buffer
	size    uint64
}

// Wait polls the fence in short slices so context cancellation is
// observed, then reads the staged output back. All per-dispatch
// resources are released before Wait returns.
func (w *pending) Wait(ctx context.Context) ([]byte, error) {
	defer w.res.cleanup()

	deadline := time.Now().Add(maxWait)
	for {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		ok, err := w.dev.device.Wait(w.res.fence, 1, fenceTimeout)
		if err != nil {
			return nil, fmt.Errorf("wgpu: wait for GPU: %w", err)
		}
		if ok {
			break
		}
		if time.Now().After(deadline) {
			return nil, fmt.Errorf("wgpu: GPU timeout after %v", maxWait)
		}
	}

	out := make([]byte, w.size)
	if err := w.dev.queue.ReadBuffer(w.staging, 0, out); err != nil {
		return nil, fmt.Errorf("wgpu: readback: %w", err)
	}
	return out, nil
}
