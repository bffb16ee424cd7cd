// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgslverify

import (
	"context"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// Limits reports the device's binding-size ceilings. Batch sizing
// never packs more case bytes into one binding than these allow.
type Limits struct {
	// MaxUniformBindingSize is the largest uniform buffer binding in bytes.
	MaxUniformBindingSize uint64

	// MaxStorageBindingSize is the largest storage buffer binding in bytes.
	MaxStorageBindingSize uint64
}

// ForClass returns the binding ceiling for the given storage class.
func (l Limits) ForClass(c wgsltypes.StorageClass) uint64 {
	if c == wgsltypes.ClassUniform {
		return l.MaxUniformBindingSize
	}
	return l.MaxStorageBindingSize
}

// DispatchSpec describes one batch execution.
type DispatchSpec struct {
	// Input holds the encoded case inputs for the @binding(1) buffer,
	// or nil when the program embeds its cases as literals.
	Input []byte

	// InputClass is the storage class the input buffer is bound as.
	InputClass wgsltypes.StorageClass

	// OutputSize is the byte size of the @binding(0) result buffer.
	OutputSize uint32
}

// Pending is an in-flight dispatch. Wait blocks until the device
// signals completion and returns the result buffer contents.
type Pending interface {
	Wait(ctx context.Context) ([]byte, error)
}

// Program is a compiled compute program. A Program may be dispatched
// multiple times with different inputs; the scheduler reuses cached
// programs across batches that share generated source.
type Program interface {
	Dispatch(ctx context.Context, spec DispatchSpec) (Pending, error)

	// Destroy releases device resources. The program must not be
	// dispatched afterwards.
	Destroy()
}

// Device is the compute collaborator: program compilation, dispatch
// and limit queries. Implementations must allow concurrent Dispatch
// and Pending.Wait calls from multiple goroutines.
type Device interface {
	Limits() Limits
	Compile(ctx context.Context, source string) (Program, error)
}
