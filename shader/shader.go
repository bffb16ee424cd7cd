// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// Usage errors. All are raised during Build, before any device
// interaction.
var (
	// ErrNoCases is returned when a build request carries no cases.
	ErrNoCases = errors.New("shader: no cases")

	// ErrArity is returned when a case's input count does not match the
	// declared parameter count.
	ErrArity = errors.New("shader: case input count does not match parameter count")

	// ErrInputType is returned when a case input's type differs from
	// the declared parameter type.
	ErrInputType = errors.New("shader: case input type does not match parameter type")

	// ErrAbstractBuffer is returned when runtime evaluation is
	// requested with abstract-typed parameters or results, which have
	// no buffer representation.
	ErrAbstractBuffer = errors.New("shader: abstract types cannot cross a buffer boundary")

	// ErrAbstractResult is returned when Basic or CompoundAssign is
	// asked to produce an abstract result.
	ErrAbstractResult = errors.New("shader: abstract result type requires an abstract result builder")

	// ErrConstOnly is returned when an abstract result builder is asked
	// for runtime evaluation.
	ErrConstOnly = errors.New("shader: abstract result builders evaluate at shader creation time only")

	// ErrResultKind is returned when a result type's element kind does
	// not match the builder, e.g. AbstractIntResult with a float result.
	ErrResultKind = errors.New("shader: result type not supported by this builder")

	// ErrCompoundArity is returned when CompoundAssign is given a
	// parameter count other than two.
	ErrCompoundArity = errors.New("shader: compound assignment takes exactly two parameters")

	// ErrCompoundResult is returned when CompoundAssign's result type
	// differs from the left operand's type.
	ErrCompoundResult = errors.New("shader: compound assignment result type must match the left operand type")

	// ErrNotRepresentable is returned when a request cannot be spelled
	// in WGSL source: a non-finite float input under creation-time
	// evaluation, or a parameter/result kind with no WGSL type (f64 and
	// the 8/16-bit integers).
	ErrNotRepresentable = errors.New("shader: no WGSL spelling for value or type")
)

// EvalMode selects when the expression under test is evaluated.
type EvalMode int

const (
	// EvalRuntime reads case inputs from a bound buffer and evaluates
	// the expression during dispatch.
	EvalRuntime EvalMode = iota

	// EvalConst embeds case inputs as literals, forcing evaluation at
	// shader creation time.
	EvalConst
)

// String returns "runtime" or "const".
func (m EvalMode) String() string {
	if m == EvalConst {
		return "const"
	}
	return "runtime"
}

// Expr renders the expression under test from its parameter
// expressions, e.g. func(a []string) string { return a[0]+" + "+a[1] }.
type Expr func(args []string) string

// Binary returns an Expr for a two-operand infix operator.
func Binary(op string) Expr {
	return func(args []string) string {
		return fmt.Sprintf("(%s %s %s)", args[0], op, args[1])
	}
}

// Unary returns an Expr for a one-operand prefix operator.
func Unary(op string) Expr {
	return func(args []string) string {
		return fmt.Sprintf("%s(%s)", op, args[0])
	}
}

// Call returns an Expr applying a builtin or user function.
func Call(fn string) Expr {
	return func(args []string) string {
		return fmt.Sprintf("%s(%s)", fn, strings.Join(args, ", "))
	}
}

// Request carries everything a builder needs to synthesize one batch's
// source. Inputs holds one row per case, one value per parameter; under
// EvalRuntime the rows fix only the case count and the actual bytes are
// bound separately.
type Request struct {
	Params []wgsltypes.Type
	Result wgsltypes.Type
	Inputs [][]wgsltypes.Value

	Mode EvalMode

	// Class is the storage class of the input buffer binding under
	// EvalRuntime. Outputs are always read_write storage.
	Class wgsltypes.StorageClass

	// Unroll selects one statement per case instead of a creation-time
	// result array under EvalConst. A single case is always assigned
	// directly, keeping abstract-typed operands unconcretized.
	Unroll bool
}

// Builder synthesizes WGSL source for a batch of cases.
type Builder interface {
	Build(req Request) (string, error)
}

// checkRequest validates the parts common to all builders.
func checkRequest(req Request) error {
	if len(req.Inputs) == 0 {
		return ErrNoCases
	}
	for i, row := range req.Inputs {
		if len(row) != len(req.Params) {
			return fmt.Errorf("case %d has %d inputs for %d parameters: %w",
				i, len(row), len(req.Params), ErrArity)
		}
		for j, v := range row {
			if v.Type() != req.Params[j] {
				return fmt.Errorf("case %d input %d is %s, parameter is %s: %w",
					i, j, v.Type(), req.Params[j], ErrInputType)
			}
		}
	}
	return nil
}

// unspeakableKinds exist in the layout model but have no WGSL type.
var unspeakableKinds = []wgsltypes.ScalarKind{
	wgsltypes.KindI8, wgsltypes.KindU8,
	wgsltypes.KindI16, wgsltypes.KindU16,
	wgsltypes.KindF64,
}

// checkShaderKinds rejects parameter or result kinds that cannot appear
// in synthesized source.
func checkShaderKinds(req Request) error {
	for j, p := range req.Params {
		for _, k := range unspeakableKinds {
			if wgsltypes.ContainsKind(p, k) {
				return fmt.Errorf("parameter %d is %s: %w", j, p, ErrNotRepresentable)
			}
		}
	}
	for _, k := range unspeakableKinds {
		if wgsltypes.ContainsKind(req.Result, k) {
			return fmt.Errorf("result is %s: %w", req.Result, ErrNotRepresentable)
		}
	}
	return nil
}

// checkLiterals rejects creation-time inputs that cannot be spelled as
// WGSL literals, so no Build path reaches the literal formatter's
// internal-invariant panics.
func checkLiterals(req Request) error {
	for i, row := range req.Inputs {
		for j, v := range row {
			if err := literalValue(v); err != nil {
				return fmt.Errorf("case %d input %d: %w", i, j, err)
			}
		}
	}
	return nil
}

func literalValue(v wgsltypes.Value) error {
	switch v := v.(type) {
	case *wgsltypes.Scalar:
		return literalScalar(v)
	case *wgsltypes.Vector:
		for _, e := range v.Elems() {
			if err := literalScalar(e); err != nil {
				return err
			}
		}
	case *wgsltypes.Matrix:
		for _, col := range v.Cols() {
			for _, e := range col {
				if err := literalScalar(e); err != nil {
					return err
				}
			}
		}
	case *wgsltypes.ArrayVal:
		for _, e := range v.Elems() {
			if err := literalValue(e); err != nil {
				return err
			}
		}
	}
	return nil
}

func literalScalar(s *wgsltypes.Scalar) error {
	switch s.Kind() {
	case wgsltypes.KindF16, wgsltypes.KindF32, wgsltypes.KindAbstractFloat:
		if f := s.Float(); math.IsNaN(f) || math.IsInf(f, 0) {
			return fmt.Errorf("%s is not finite: %w", s, ErrNotRepresentable)
		}
	case wgsltypes.KindBool, wgsltypes.KindI32, wgsltypes.KindU32, wgsltypes.KindAbstractInt:
	default:
		return fmt.Errorf("%s: %w", s.Kind(), ErrNotRepresentable)
	}
	return nil
}

// checkBufferable rejects abstract parameter or result kinds under
// runtime evaluation.
func checkBufferable(req Request) error {
	for j, p := range req.Params {
		if hasAbstract(p) {
			return fmt.Errorf("parameter %d is %s: %w", j, p, ErrAbstractBuffer)
		}
	}
	if hasAbstract(req.Result) {
		return fmt.Errorf("result is %s: %w", req.Result, ErrAbstractBuffer)
	}
	return nil
}

func hasAbstract(t wgsltypes.Type) bool {
	return wgsltypes.ContainsKind(t, wgsltypes.KindAbstractInt) ||
		wgsltypes.ContainsKind(t, wgsltypes.KindAbstractFloat)
}

// header emits the capability enables the request needs.
func header(req Request) string {
	needF16 := wgsltypes.ContainsKind(req.Result, wgsltypes.KindF16)
	for _, p := range req.Params {
		needF16 = needF16 || wgsltypes.ContainsKind(p, wgsltypes.KindF16)
	}
	if needF16 {
		return "enable f16;\n\n"
	}
	return ""
}

// structWGSL declares a struct whose members sit at the offsets the
// layout model computes, with explicit filler fields closing every gap
// up to the struct stride. Member types are mapped to their storage
// representation (bool becomes u32).
func structWGSL(name string, fields []string, members []wgsltypes.Type, c wgsltypes.StorageClass) (string, wgsltypes.MemberLayout, error) {
	stored := make([]wgsltypes.Type, len(members))
	for i, m := range members {
		stored[i] = wgsltypes.StorageType(m)
	}
	l, err := wgsltypes.LayoutMembers(stored, c)
	if err != nil {
		return "", l, err
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "struct %s {\n", name)
	pad := 0
	end := uint32(0)
	for i, m := range stored {
		writePadFields(&sb, l.Offsets[i]-end, &pad)
		fmt.Fprintf(&sb, "    %s : %s,\n", fields[i], m.WGSL())
		end = l.Offsets[i] + wgsltypes.SizeOf(m, c)
	}
	writePadFields(&sb, l.Stride-end, &pad)
	sb.WriteString("}\n")
	return sb.String(), l, nil
}

// writePadFields fills gap bytes with filler members. A gap of 2 mod 4
// takes a leading 2-byte filler so the remaining u32 fillers stay
// 4-byte aligned; every gap here is an even number of bytes.
func writePadFields(sb *strings.Builder, gap uint32, pad *int) {
	for gap > 0 {
		if gap%4 == 2 {
			fmt.Fprintf(sb, "    pad%d : f16,\n", *pad)
			gap -= 2
		} else {
			fmt.Fprintf(sb, "    pad%d : u32,\n", *pad)
			gap -= 4
		}
		*pad++
	}
}

// outputBinding declares the Output struct and its read_write storage
// binding at @binding(0).
func outputBinding(result wgsltypes.Type, count int) (string, error) {
	decl, _, err := structWGSL("Output", []string{"value"}, []wgsltypes.Type{result}, wgsltypes.ClassStorage)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(decl)
	fmt.Fprintf(&sb, "@group(0) @binding(0) var<storage, read_write> outputs : array<Output, %d>;\n", count)
	return sb.String(), nil
}

// inputBinding declares the Input struct and its binding at
// @binding(1) in the requested storage class.
func inputBinding(params []wgsltypes.Type, c wgsltypes.StorageClass, count int) (string, error) {
	fields := make([]string, len(params))
	for j := range params {
		fields[j] = fmt.Sprintf("param%d", j)
	}
	decl, _, err := structWGSL("Input", fields, params, c)
	if err != nil {
		return "", err
	}
	var sb strings.Builder
	sb.WriteString(decl)
	if c == wgsltypes.ClassUniform {
		fmt.Fprintf(&sb, "@group(0) @binding(1) var<uniform> inputs : array<Input, %d>;\n", count)
	} else {
		fmt.Fprintf(&sb, "@group(0) @binding(1) var<storage, read> inputs : array<Input, %d>;\n", count)
	}
	return sb.String(), nil
}

// inputArgs renders the parameter expressions for runtime case i,
// unwrapping bool storage representations.
func inputArgs(params []wgsltypes.Type) []string {
	args := make([]string, len(params))
	for j, p := range params {
		args[j] = wgsltypes.FromStorageExpr(p, fmt.Sprintf("inputs[i].param%d", j))
	}
	return args
}

// literalArgs renders one case's inputs as WGSL literals.
func literalArgs(row []wgsltypes.Value) []string {
	args := make([]string, len(row))
	for j, v := range row {
		args[j] = v.WGSL()
	}
	return args
}
