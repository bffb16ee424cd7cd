// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgslverify evaluates WGSL expressions over batches of test
// cases on a compute device and checks each observed result against
// its expectation.
//
// A run is driven by [Run]: cases are optionally packed into vectors,
// split into batches sized to the device's binding limits, synthesized
// into compute shaders by a [shader.Builder], dispatched with at most
// five batches in flight, and decoded and compared as each batch
// completes. Compiled programs are cached per run, keyed by generated
// source, so batches that differ only in their input buffers share one
// compilation.
//
// The [Device] interface is the only collaborator; backend/wgpu
// provides an implementation over gogpu's hal layer.
package wgslverify
