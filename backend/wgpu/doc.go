// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgpu adapts a gogpu/wgpu hal device to the wgslverify.Device
// interface.
//
// Open enumerates the available adapters, preferring a discrete or
// integrated GPU, and wraps the opened hal device. Each compiled program
// holds one shader module, bind group layout, pipeline layout, and compute
// pipeline. Dispatches allocate their buffers and bind group per call,
// submit a single compute pass, and read the output buffer back through a
// staging copy once the fence signals.
package wgpu
