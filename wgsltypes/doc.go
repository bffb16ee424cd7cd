// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package wgsltypes models WGSL value types and their host-sharable
// buffer layouts.
//
// The package provides three layers:
//
//   - Type descriptors (ScalarType, VectorType, MatrixType, ArrayType)
//     that are interned by shape, so two descriptors describing the same
//     type are the same pointer and can be compared with ==.
//   - Layout rules (SizeOf, AlignOf, StrideOf, LayoutMembers) that mirror
//     the WGSL address-space layout constraints bit for bit for the
//     uniform and storage buffer classes.
//   - Values (Scalar, Vector, Matrix, ArrayVal) carrying exact bit
//     patterns, with an encoder/decoder for packed little-endian buffers
//     and a WGSL literal synthesizer for compile-time evaluation.
//
// Abstract numeric kinds (AbstractInt, AbstractFloat) exist only at WGSL
// creation time. They have no buffer encoding; results of that kind are
// read back as two 32-bit words per element and reconstructed here.
package wgsltypes
