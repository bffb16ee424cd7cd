// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import (
	"errors"
	"fmt"
)

// StorageClass selects the buffer layout rule set. Uniform buffers round
// struct/array alignments and array strides up to 16 bytes; storage
// buffers (read-only or read-write) do not.
type StorageClass uint8

const (
	// ClassStorage applies the storage address-space layout rules.
	ClassStorage StorageClass = iota

	// ClassUniform applies the uniform address-space layout rules.
	ClassUniform
)

// String returns the address-space name.
func (c StorageClass) String() string {
	if c == ClassUniform {
		return "uniform"
	}
	return "storage"
}

// ErrNotBufferable is returned when a type that has no buffer field
// representation (f64 or an abstract kind) appears in a buffer member
// list. Such results use dedicated two-word readback paths instead.
var ErrNotBufferable = errors.New("wgsltypes: type cannot be placed in a buffer member")

// roundUp rounds n up to the next multiple of align (a power of two or
// any positive value; generic modulo arithmetic is used).
func roundUp(n, align uint32) uint32 {
	if align == 0 {
		return n
	}
	if r := n % align; r != 0 {
		return n + align - r
	}
	return n
}

// SizeOf returns the byte size of t under the given storage class.
//
// Width-3 vectors keep their natural 3-element size; only their
// alignment is padded (see AlignOf). Matrix rows of 3 pad to 4 for both
// size and alignment because each column is laid out like a vec4. These
// rules mirror the WGSL host-sharable layout specification and must not
// be simplified: buffers are shared with an external compiler.
func SizeOf(t Type, c StorageClass) uint32 {
	switch t := t.(type) {
	case *ScalarType:
		return t.kind.byteSize()
	case *VectorType:
		return uint32(t.width) * t.elem.kind.byteSize()
	case *MatrixType:
		rows := t.rows
		if rows == 3 {
			rows = 4
		}
		return uint32(t.cols) * uint32(rows) * t.elem.kind.byteSize()
	case *ArrayType:
		return uint32(t.count) * StrideOf(t.elem, c)
	default:
		panic(fmt.Sprintf("wgsltypes: unknown type %T", t))
	}
}

// AlignOf returns the byte alignment of t under the given storage class.
func AlignOf(t Type, c StorageClass) uint32 {
	switch t := t.(type) {
	case *ScalarType:
		return t.kind.byteSize()
	case *VectorType:
		w := t.width
		if w == 3 {
			w = 4
		}
		return uint32(w) * t.elem.kind.byteSize()
	case *MatrixType:
		rows := t.rows
		if rows == 3 {
			rows = 4
		}
		return uint32(rows) * t.elem.kind.byteSize()
	case *ArrayType:
		a := AlignOf(t.elem, c)
		if c == ClassUniform {
			a = roundUp(a, 16)
		}
		return a
	default:
		panic(fmt.Sprintf("wgsltypes: unknown type %T", t))
	}
}

// StrideOf returns the distance in bytes between consecutive array
// elements or struct members of type t: the size rounded up to the
// alignment. Under the uniform class, array element strides additionally
// round up to 16.
func StrideOf(t Type, c StorageClass) uint32 {
	s := roundUp(SizeOf(t, c), AlignOf(t, c))
	if c == ClassUniform {
		s = roundUp(s, 16)
	}
	return s
}

// MemberLayout describes the packed layout of an ordered member list.
type MemberLayout struct {
	// Offsets holds the byte offset of each member, in order.
	Offsets []uint32

	// Size is the tight span from offset 0 past the last member, before
	// trailing padding.
	Size uint32

	// Alignment is the largest member alignment, rounded up to 16 under
	// the uniform class.
	Alignment uint32

	// Stride is Size rounded up to Alignment: the distance between
	// consecutive instances of the member list in an array.
	Stride uint32
}

// LayoutMembers computes per-member offsets and the overall size,
// alignment, and stride for a struct with the given member types under
// the storage class rules. It is deterministic and matches the WGSL
// host-visible layout exactly.
//
// Members containing f64 or an abstract kind return ErrNotBufferable:
// those kinds never appear in input/output buffer structs.
func LayoutMembers(members []Type, c StorageClass) (MemberLayout, error) {
	var l MemberLayout
	l.Offsets = make([]uint32, 0, len(members))

	var offset, maxAlign uint32
	for i, m := range members {
		if ContainsKind(m, KindF64) || ContainsKind(m, KindAbstractInt) || ContainsKind(m, KindAbstractFloat) {
			return MemberLayout{}, fmt.Errorf("member %d (%s): %w", i, m, ErrNotBufferable)
		}
		a := AlignOf(m, c)
		offset = roundUp(offset, a)
		l.Offsets = append(l.Offsets, offset)
		offset += SizeOf(m, c)
		if a > maxAlign {
			maxAlign = a
		}
	}

	if c == ClassUniform {
		maxAlign = roundUp(maxAlign, 16)
	}
	l.Size = offset
	l.Alignment = maxAlign
	l.Stride = roundUp(l.Size, l.Alignment)
	return l, nil
}
