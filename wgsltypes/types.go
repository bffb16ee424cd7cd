// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import (
	"fmt"
	"sync"
)

// Type is a value type descriptor: a scalar, vector, matrix, or fixed
// array. Descriptors are interned by structural identity, so == compares
// shapes: Vec(3, TypeF32) == Vec(3, TypeF32) always holds.
type Type interface {
	// WGSL returns the WGSL spelling of the type. Panics for types that
	// are not shader-representable (see ScalarType.WGSL).
	WGSL() string

	// String returns the human-readable type name.
	String() string

	isType()
}

// VectorType describes a vector of 2 to 4 scalars.
type VectorType struct {
	width int
	elem  *ScalarType
}

// Width returns the component count (2-4).
func (t *VectorType) Width() int { return t.width }

// Elem returns the component scalar type.
func (t *VectorType) Elem() *ScalarType { return t.elem }

func (t *VectorType) String() string {
	return fmt.Sprintf("vec%d<%s>", t.width, t.elem)
}

// WGSL returns the WGSL spelling, e.g. "vec3<f32>".
func (t *VectorType) WGSL() string {
	return fmt.Sprintf("vec%d<%s>", t.width, t.elem.WGSL())
}

func (t *VectorType) isType() {}

// MatrixType describes a column-major matrix of 2-4 columns of 2-4 rows.
// The element type is restricted to floating-point kinds.
type MatrixType struct {
	cols, rows int
	elem       *ScalarType
}

// Cols returns the column count (2-4).
func (t *MatrixType) Cols() int { return t.cols }

// Rows returns the row count (2-4).
func (t *MatrixType) Rows() int { return t.rows }

// Elem returns the element scalar type.
func (t *MatrixType) Elem() *ScalarType { return t.elem }

func (t *MatrixType) String() string {
	return fmt.Sprintf("mat%dx%d<%s>", t.cols, t.rows, t.elem)
}

// WGSL returns the WGSL spelling, e.g. "mat2x3<f32>".
func (t *MatrixType) WGSL() string {
	return fmt.Sprintf("mat%dx%d<%s>", t.cols, t.rows, t.elem.WGSL())
}

func (t *MatrixType) isType() {}

// ArrayType describes a fixed-size array of any element type.
type ArrayType struct {
	count int
	elem  Type
}

// Count returns the element count.
func (t *ArrayType) Count() int { return t.count }

// Elem returns the element type.
func (t *ArrayType) Elem() Type { return t.elem }

func (t *ArrayType) String() string {
	return fmt.Sprintf("array<%s, %d>", t.elem, t.count)
}

// WGSL returns the WGSL spelling, e.g. "array<f32, 4>".
func (t *ArrayType) WGSL() string {
	return fmt.Sprintf("array<%s, %d>", t.elem.WGSL(), t.count)
}

func (t *ArrayType) isType() {}

// =============================================================================
// Interning
// =============================================================================

type vecKey struct {
	width int
	kind  ScalarKind
}

type matKey struct {
	cols, rows int
	kind       ScalarKind
}

type arrKey struct {
	count int
	elem  Type
}

var (
	internMu sync.Mutex
	vecTypes = map[vecKey]*VectorType{}
	matTypes = map[matKey]*MatrixType{}
	arrTypes = map[arrKey]*ArrayType{}
)

// Vec returns the interned vector descriptor of the given width (2-4)
// and element type. Panics on an out-of-range width.
func Vec(width int, elem *ScalarType) *VectorType {
	if width < 2 || width > 4 {
		panic(fmt.Sprintf("wgsltypes: vector width %d out of range [2,4]", width))
	}
	internMu.Lock()
	defer internMu.Unlock()

	k := vecKey{width, elem.kind}
	if t, ok := vecTypes[k]; ok {
		return t
	}
	t := &VectorType{width: width, elem: elem}
	vecTypes[k] = t
	return t
}

// Mat returns the interned matrix descriptor with the given column and
// row counts (2-4 each). The element type must be a real or abstract
// floating-point kind; anything else panics.
func Mat(cols, rows int, elem *ScalarType) *MatrixType {
	if cols < 2 || cols > 4 || rows < 2 || rows > 4 {
		panic(fmt.Sprintf("wgsltypes: matrix shape %dx%d out of range [2,4]", cols, rows))
	}
	if !elem.kind.IsFloat() {
		panic(fmt.Sprintf("wgsltypes: matrix element type must be floating point, got %s", elem))
	}
	internMu.Lock()
	defer internMu.Unlock()

	k := matKey{cols, rows, elem.kind}
	if t, ok := matTypes[k]; ok {
		return t
	}
	t := &MatrixType{cols: cols, rows: rows, elem: elem}
	matTypes[k] = t
	return t
}

// ArrayOf returns the interned fixed-array descriptor of count elements.
// Element descriptors are themselves interned, so the (count, elem) pair
// is a canonical shape key.
func ArrayOf(count int, elem Type) *ArrayType {
	if count <= 0 {
		panic(fmt.Sprintf("wgsltypes: array count %d must be positive", count))
	}
	internMu.Lock()
	defer internMu.Unlock()

	k := arrKey{count, elem}
	if t, ok := arrTypes[k]; ok {
		return t
	}
	t := &ArrayType{count: count, elem: elem}
	arrTypes[k] = t
	return t
}

// ContainsKind reports whether t or any nested element type has the
// given scalar kind.
func ContainsKind(t Type, k ScalarKind) bool {
	switch t := t.(type) {
	case *ScalarType:
		return t.kind == k
	case *VectorType:
		return t.elem.kind == k
	case *MatrixType:
		return t.elem.kind == k
	case *ArrayType:
		return ContainsKind(t.elem, k)
	default:
		panic(fmt.Sprintf("wgsltypes: unknown type %T", t))
	}
}

// ElemKind returns the scalar kind of t's innermost element.
func ElemKind(t Type) ScalarKind {
	switch t := t.(type) {
	case *ScalarType:
		return t.kind
	case *VectorType:
		return t.elem.kind
	case *MatrixType:
		return t.elem.kind
	case *ArrayType:
		return ElemKind(t.elem)
	default:
		panic(fmt.Sprintf("wgsltypes: unknown type %T", t))
	}
}
