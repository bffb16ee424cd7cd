// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import (
	"fmt"
	"math"
)

// ScalarKind identifies a scalar value category. Layout and codec logic
// dispatch on the kind, never on type names.
type ScalarKind uint8

const (
	// KindBool is stored in buffers as a 32-bit unsigned integer.
	KindBool ScalarKind = iota

	KindI8
	KindU8
	KindI16
	KindU16
	KindI32
	KindU32

	KindF16
	KindF32
	KindF64

	// KindAbstractInt is the source-level integer kind with 64-bit range.
	// It cannot be stored in buffers or variables; results are read back
	// as two 32-bit words.
	KindAbstractInt

	// KindAbstractFloat is the source-level float kind with f64 precision.
	// Same buffer restrictions as KindAbstractInt.
	KindAbstractFloat
)

// String returns the human-readable kind name.
func (k ScalarKind) String() string {
	switch k {
	case KindBool:
		return "bool"
	case KindI8:
		return "i8"
	case KindU8:
		return "u8"
	case KindI16:
		return "i16"
	case KindU16:
		return "u16"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF16:
		return "f16"
	case KindF32:
		return "f32"
	case KindF64:
		return "f64"
	case KindAbstractInt:
		return "abstract-int"
	case KindAbstractFloat:
		return "abstract-float"
	default:
		return fmt.Sprintf("Unknown(%d)", int(k))
	}
}

// IsFloat reports whether the kind is a floating-point kind of any width,
// including the abstract float kind.
func (k ScalarKind) IsFloat() bool {
	switch k {
	case KindF16, KindF32, KindF64, KindAbstractFloat:
		return true
	}
	return false
}

// IsInteger reports whether the kind is an integer kind of any width,
// including the abstract integer kind.
func (k ScalarKind) IsInteger() bool {
	switch k {
	case KindI8, KindU8, KindI16, KindU16, KindI32, KindU32, KindAbstractInt:
		return true
	}
	return false
}

// IsAbstract reports whether the kind exists only at shader creation time.
func (k ScalarKind) IsAbstract() bool {
	return k == KindAbstractInt || k == KindAbstractFloat
}

// byteSize returns the buffer footprint of one scalar of this kind.
// Booleans occupy a full 32-bit word; abstract kinds occupy a two-word
// record because no native buffer field can hold them.
func (k ScalarKind) byteSize() uint32 {
	switch k {
	case KindI8, KindU8:
		return 1
	case KindI16, KindU16, KindF16:
		return 2
	case KindBool, KindI32, KindU32, KindF32:
		return 4
	case KindF64, KindAbstractInt, KindAbstractFloat:
		return 8
	default:
		panic(fmt.Sprintf("wgsltypes: no byte size for kind %s", k))
	}
}

// ScalarType describes a scalar type. Instances are package-level
// singletons; compare with ==.
type ScalarType struct {
	kind ScalarKind
}

// Interned scalar descriptors. These are the only ScalarType values;
// shape-equal descriptors are pointer-equal.
var (
	TypeBool = &ScalarType{KindBool}
	TypeI8   = &ScalarType{KindI8}
	TypeU8   = &ScalarType{KindU8}
	TypeI16  = &ScalarType{KindI16}
	TypeU16  = &ScalarType{KindU16}
	TypeI32  = &ScalarType{KindI32}
	TypeU32  = &ScalarType{KindU32}
	TypeF16  = &ScalarType{KindF16}
	TypeF32  = &ScalarType{KindF32}
	TypeF64  = &ScalarType{KindF64}

	TypeAbstractInt   = &ScalarType{KindAbstractInt}
	TypeAbstractFloat = &ScalarType{KindAbstractFloat}
)

// Kind returns the scalar kind tag.
func (t *ScalarType) Kind() ScalarKind { return t.kind }

// String returns the human-readable type name.
func (t *ScalarType) String() string { return t.kind.String() }

// WGSL returns the WGSL spelling of the type. It panics for kinds that
// have no WGSL type (the 8/16-bit integers and the two abstract kinds);
// callers must validate shader-representability before synthesis.
func (t *ScalarType) WGSL() string {
	switch t.kind {
	case KindBool:
		return "bool"
	case KindI32:
		return "i32"
	case KindU32:
		return "u32"
	case KindF16:
		return "f16"
	case KindF32:
		return "f32"
	}
	panic(fmt.Sprintf("wgsltypes: %s has no WGSL spelling", t.kind))
}

func (t *ScalarType) isType() {}

// =============================================================================
// float16 conversion
// =============================================================================

// f16FromF64 converts a float64 to IEEE 754 binary16 bits with
// round-to-nearest-even, overflowing to infinity and flushing values
// below the minimum subnormal to zero.
func f16FromF64(f float64) uint16 {
	b := math.Float64bits(f)
	sign := uint16(b >> 48 & 0x8000)
	exp := int64(b>>52&0x7ff) - 1023
	mant := b & 0xfffffffffffff

	switch {
	case exp == 1024: // Inf or NaN
		if mant != 0 {
			return sign | 0x7e00
		}
		return sign | 0x7c00

	case exp > 15: // overflow
		return sign | 0x7c00

	case exp >= -14: // normal range
		m := uint16(mant >> 42)
		rem := mant & (1<<42 - 1)
		h := sign | uint16(exp+15)<<10 | m
		// Round to nearest, ties to even. A carry out of the mantissa
		// increments the exponent field, which is the correct result.
		if rem > 1<<41 || (rem == 1<<41 && m&1 == 1) {
			h++
		}
		return h

	case exp >= -25: // subnormal range: unit is 2^-24
		s := uint64(28 - exp)
		m := mant | 1<<52
		h := uint16(m >> s)
		rem := m & (1<<s - 1)
		half := uint64(1) << (s - 1)
		if rem > half || (rem == half && h&1 == 1) {
			h++
		}
		return sign | h

	default: // underflow
		return sign
	}
}

// f16ToF64 converts IEEE 754 binary16 bits to float64 exactly.
func f16ToF64(h uint16) float64 {
	sign := h&0x8000 != 0
	exp := uint64(h >> 10 & 0x1f)
	mant := uint64(h & 0x3ff)

	var v float64
	switch exp {
	case 0x1f:
		if mant != 0 {
			return math.NaN()
		}
		v = math.Inf(1)
	case 0:
		v = float64(mant) * 0x1p-24
	default:
		bits := (exp-15+1023)<<52 | mant<<42
		v = math.Float64frombits(bits)
	}
	if sign {
		v = -v
	}
	return v
}
