// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgslverify

import (
	"errors"
	"fmt"
	"strings"

	"github.com/gogpu/wgslverify/compare"
	"github.com/gogpu/wgslverify/shader"
	"github.com/gogpu/wgslverify/wgsltypes"
)

// Usage errors raised before any device interaction.
var (
	// ErrNoBuilder is returned when Config.Builder is nil.
	ErrNoBuilder = errors.New("wgslverify: no shader builder configured")

	// ErrNoExpectation is returned when a case carries no comparator.
	ErrNoExpectation = errors.New("wgslverify: case has no expectation")

	// ErrVectorWidth is returned when Config.Vectorize is outside {0, 2, 3, 4}.
	ErrVectorWidth = errors.New("wgslverify: vectorization width must be 2, 3 or 4")

	// ErrVectorize is returned when vectorization is requested on
	// non-scalar parameter or result types.
	ErrVectorize = errors.New("wgslverify: vectorization requires scalar parameter and result types")

	// ErrBindingLimit is returned when a single case's buffer footprint
	// exceeds the device's binding limits.
	ErrBindingLimit = errors.New("wgslverify: one case exceeds the device binding limit")
)

// Case pairs one expression evaluation's inputs with its expectation.
// Inputs holds one value per declared parameter.
type Case struct {
	Inputs   []wgsltypes.Value
	Expected compare.Comparator
}

// Config describes one verification run.
type Config struct {
	// Builder synthesizes the per-batch shader source.
	Builder shader.Builder

	// Params and Result are the expression's declared types.
	Params []wgsltypes.Type
	Result wgsltypes.Type

	// Mode selects creation-time or runtime evaluation.
	Mode shader.EvalMode

	// Class is the storage class of the input buffer under runtime
	// evaluation. Zero value is storage.
	Class wgsltypes.StorageClass

	// Vectorize packs groups of that many scalar cases into one
	// vector-typed case. Zero disables packing.
	Vectorize int

	// BatchSize caps the cases per batch. Zero derives the size from
	// the device limits (runtime) or a fixed default (creation time).
	BatchSize int

	// Unroll selects per-case statements over an indexed result array
	// under creation-time evaluation.
	Unroll bool

	// ValidateSource parses each generated shader with the WGSL front
	// end before handing it to the device, trading a little time for
	// earlier and clearer diagnostics.
	ValidateSource bool
}

// CaseError describes one failing case: its inputs and the observed
// and expected representations, with failing components bracketed.
type CaseError struct {
	Index    int // case index within the run, after vectorization
	Inputs   []string
	Got      string
	Expected string
}

// Error implements error.
func (e *CaseError) Error() string {
	return fmt.Sprintf("case %d: inputs (%s): got %s, expected %s",
		e.Index, strings.Join(e.Inputs, ", "), e.Got, e.Expected)
}

// BatchError aggregates every failing case of one batch.
type BatchError struct {
	// Batch is the batch's ordinal within the run.
	Batch int

	// Source is the generated WGSL of the failing batch.
	Source string

	// Cases holds one entry per failing case.
	Cases []*CaseError
}

// Error implements error.
func (e *BatchError) Error() string {
	var sb strings.Builder
	fmt.Fprintf(&sb, "batch %d: %d case(s) failed:", e.Batch, len(e.Cases))
	for _, c := range e.Cases {
		sb.WriteString("\n  ")
		sb.WriteString(c.Error())
	}
	return sb.String()
}

// Unwrap exposes the per-case errors to errors.As/Is walks.
func (e *BatchError) Unwrap() []error {
	errs := make([]error, len(e.Cases))
	for i, c := range e.Cases {
		errs[i] = c
	}
	return errs
}
