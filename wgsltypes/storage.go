// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import "fmt"

// Booleans have no host-sharable layout, so buffer fields hold a 32-bit
// unsigned word per component instead. The helpers below produce the
// WGSL expressions that cross that boundary; all other types pass
// through unchanged.

// StorageType returns the type actually stored in a buffer field for t:
// bool becomes u32 and vecN<bool> becomes vecN<u32>. Every other type is
// returned as-is.
func StorageType(t Type) Type {
	switch t := t.(type) {
	case *ScalarType:
		if t.kind == KindBool {
			return TypeU32
		}
	case *VectorType:
		if t.elem.kind == KindBool {
			return Vec(t.width, TypeU32)
		}
	}
	return t
}

// ToStorageExpr wraps expr, a WGSL expression of type t, into an
// expression of StorageType(t) suitable for writing to a buffer field.
func ToStorageExpr(t Type, expr string) string {
	switch t := t.(type) {
	case *ScalarType:
		if t.kind == KindBool {
			return fmt.Sprintf("select(0u, 1u, %s)", expr)
		}
	case *VectorType:
		if t.elem.kind == KindBool {
			return fmt.Sprintf("select(vec%d<u32>(0u), vec%d<u32>(1u), %s)", t.width, t.width, expr)
		}
	}
	return expr
}

// FromStorageExpr wraps expr, a WGSL expression of type StorageType(t)
// read from a buffer field, back into an expression of type t.
func FromStorageExpr(t Type, expr string) string {
	switch t := t.(type) {
	case *ScalarType:
		if t.kind == KindBool {
			return fmt.Sprintf("(%s != 0u)", expr)
		}
	case *VectorType:
		if t.elem.kind == KindBool {
			return fmt.Sprintf("(%s != vec%d<u32>(0u))", expr, t.width)
		}
	}
	return expr
}
