// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import (
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Codec errors.
var (
	// ErrNoBufferEncoding is returned when encoding a value of an
	// abstract kind. Abstract values are materialized as WGSL literals
	// at shader creation time instead of being written to buffers.
	ErrNoBufferEncoding = errors.New("wgsltypes: abstract values have no buffer encoding")

	// ErrShortBuffer is returned when an encode or decode would run past
	// the end of the byte buffer.
	ErrShortBuffer = errors.New("wgsltypes: buffer too short")
)

// Value is an immutable typed value: a scalar, a vector of scalars, a
// column-major matrix, or a homogeneous fixed array. Every value carries
// the exact bit pattern it was constructed from.
type Value interface {
	// Type returns the interned type descriptor.
	Type() Type

	// Encode writes the value's little-endian buffer representation at
	// the given offset. The storage class selects array element strides.
	Encode(dst []byte, off uint32, c StorageClass) error

	// WGSL returns a literal expression that reconstructs the value at
	// shader creation time. Panics for values whose type is not
	// shader-representable; callers validate representability first.
	WGSL() string

	// String returns a human-readable representation for diagnostics.
	String() string
}

// =============================================================================
// Scalar
// =============================================================================

// Scalar is a single scalar value. The bit pattern is authoritative; for
// the abstract float kind the logical float64 value and its low/high
// 32-bit halves are both retained, because comparison must distinguish
// the logical value from its subnormal-boundary bit pattern.
type Scalar struct {
	typ  *ScalarType
	bits uint64
	num  float64 // numeric value for floating kinds
}

// Bool returns a boolean scalar.
func Bool(b bool) *Scalar {
	var bits uint64
	if b {
		bits = 1
	}
	return &Scalar{typ: TypeBool, bits: bits}
}

// I8 returns an 8-bit signed integer scalar.
func I8(v int8) *Scalar {
	return &Scalar{typ: TypeI8, bits: uint64(uint8(v)), num: float64(v)}
}

// U8 returns an 8-bit unsigned integer scalar.
func U8(v uint8) *Scalar {
	return &Scalar{typ: TypeU8, bits: uint64(v), num: float64(v)}
}

// I16 returns a 16-bit signed integer scalar.
func I16(v int16) *Scalar {
	return &Scalar{typ: TypeI16, bits: uint64(uint16(v)), num: float64(v)}
}

// U16 returns a 16-bit unsigned integer scalar.
func U16(v uint16) *Scalar {
	return &Scalar{typ: TypeU16, bits: uint64(v), num: float64(v)}
}

// I32 returns a 32-bit signed integer scalar.
func I32(v int32) *Scalar {
	return &Scalar{typ: TypeI32, bits: uint64(uint32(v)), num: float64(v)}
}

// U32 returns a 32-bit unsigned integer scalar.
func U32(v uint32) *Scalar {
	return &Scalar{typ: TypeU32, bits: uint64(v), num: float64(v)}
}

// F16 returns a 16-bit float scalar holding v rounded to the nearest
// representable binary16 value (ties to even).
func F16(v float64) *Scalar {
	bits := f16FromF64(v)
	return &Scalar{typ: TypeF16, bits: uint64(bits), num: f16ToF64(bits)}
}

// F16FromBits returns a 16-bit float scalar with the exact bit pattern b.
func F16FromBits(b uint16) *Scalar {
	return &Scalar{typ: TypeF16, bits: uint64(b), num: f16ToF64(b)}
}

// F32 returns a 32-bit float scalar.
func F32(v float32) *Scalar {
	return &Scalar{typ: TypeF32, bits: uint64(math.Float32bits(v)), num: float64(v)}
}

// F32FromBits returns a 32-bit float scalar with the exact bit pattern b.
func F32FromBits(b uint32) *Scalar {
	return &Scalar{typ: TypeF32, bits: uint64(b), num: float64(math.Float32frombits(b))}
}

// F64 returns a 64-bit float scalar.
func F64(v float64) *Scalar {
	return &Scalar{typ: TypeF64, bits: math.Float64bits(v), num: v}
}

// AbstractInt returns an abstract integer scalar with 64-bit range.
func AbstractInt(v int64) *Scalar {
	return &Scalar{typ: TypeAbstractInt, bits: uint64(v), num: float64(v)}
}

// AbstractFloat returns an abstract float scalar with f64 precision.
func AbstractFloat(v float64) *Scalar {
	return &Scalar{typ: TypeAbstractFloat, bits: math.Float64bits(v), num: v}
}

// Type returns the scalar's type descriptor.
func (s *Scalar) Type() Type { return s.typ }

// Kind returns the scalar kind tag.
func (s *Scalar) Kind() ScalarKind { return s.typ.kind }

// Bits returns the raw bit pattern, zero-extended to 64 bits.
func (s *Scalar) Bits() uint64 { return s.bits }

// LowWord returns bits 0-31 of the 64-bit pattern. For abstract kinds
// this is the low half of the two-word runtime record.
func (s *Scalar) LowWord() uint32 { return uint32(s.bits) }

// HighWord returns bits 32-63 of the 64-bit pattern.
func (s *Scalar) HighWord() uint32 { return uint32(s.bits >> 32) }

// Bool returns the boolean payload. Valid only for KindBool.
func (s *Scalar) Bool() bool { return s.bits != 0 }

// Int returns the sign-extended integer payload.
func (s *Scalar) Int() int64 {
	switch s.typ.kind {
	case KindI8:
		return int64(int8(s.bits))
	case KindI16:
		return int64(int16(s.bits))
	case KindI32:
		return int64(int32(s.bits))
	default:
		return int64(s.bits)
	}
}

// Float returns the numeric value as float64. For f16/f32 the conversion
// is exact; integer kinds convert with the usual float64 rounding.
func (s *Scalar) Float() float64 {
	switch s.typ.kind {
	case KindF16:
		return f16ToF64(uint16(s.bits))
	case KindF32:
		return float64(math.Float32frombits(uint32(s.bits)))
	case KindF64, KindAbstractFloat:
		return math.Float64frombits(s.bits)
	case KindU8, KindU16, KindU32, KindBool:
		return float64(s.bits)
	default:
		return float64(s.Int())
	}
}

// Encode implements Value. Booleans are written as a 32-bit word with
// non-zero meaning true. Abstract kinds return ErrNoBufferEncoding.
func (s *Scalar) Encode(dst []byte, off uint32, _ StorageClass) error {
	k := s.typ.kind
	if k.IsAbstract() {
		return fmt.Errorf("%s: %w", k, ErrNoBufferEncoding)
	}
	size := k.byteSize()
	if uint32(len(dst)) < off+size {
		return fmt.Errorf("encode %s at %d: %w", k, off, ErrShortBuffer)
	}
	switch size {
	case 1:
		dst[off] = byte(s.bits)
	case 2:
		binary.LittleEndian.PutUint16(dst[off:], uint16(s.bits))
	case 4:
		binary.LittleEndian.PutUint32(dst[off:], uint32(s.bits))
	case 8:
		binary.LittleEndian.PutUint64(dst[off:], s.bits)
	}
	return nil
}

// Repr returns the payload without the kind prefix, e.g. "-1" or "true".
func (s *Scalar) Repr() string {
	switch s.typ.kind {
	case KindBool:
		return strconv.FormatBool(s.bits != 0)
	case KindU8, KindU16, KindU32:
		return strconv.FormatUint(s.bits, 10)
	case KindI8, KindI16, KindI32, KindAbstractInt:
		return strconv.FormatInt(s.Int(), 10)
	default:
		return strconv.FormatFloat(s.Float(), 'g', -1, 64)
	}
}

// String implements Value.
func (s *Scalar) String() string {
	if s.typ.kind == KindAbstractFloat {
		return fmt.Sprintf("%s(%s [0x%016X])", s.typ.kind, s.Repr(), s.bits)
	}
	return fmt.Sprintf("%s(%s)", s.typ.kind, s.Repr())
}

// WGSL implements Value. Floating values emit exact hexadecimal float
// literals so no precision is lost crossing into shader source. Panics
// for non-finite floats and non-representable kinds.
func (s *Scalar) WGSL() string {
	switch s.typ.kind {
	case KindBool:
		return strconv.FormatBool(s.bits != 0)
	case KindI32:
		return fmt.Sprintf("i32(%d)", int32(s.bits))
	case KindU32:
		return fmt.Sprintf("u32(%d)", uint32(s.bits))
	case KindF16:
		return hexFloatLiteral(s.Float(), s.typ.kind) + "h"
	case KindF32:
		return hexFloatLiteral(s.Float(), s.typ.kind) + "f"
	case KindAbstractInt:
		v := s.Int()
		if v == math.MinInt64 {
			// The magnitude overflows an abstract-int literal before
			// negation applies.
			return "(-9223372036854775807 - 1)"
		}
		return strconv.FormatInt(v, 10)
	case KindAbstractFloat:
		return hexFloatLiteral(s.Float(), s.typ.kind)
	}
	panic(fmt.Sprintf("wgsltypes: %s has no WGSL literal form", s.typ.kind))
}

// hexFloatLiteral formats v as a WGSL hexadecimal float literal,
// e.g. "0x1.8p+01". Exact for every finite value.
func hexFloatLiteral(v float64, k ScalarKind) string {
	if math.IsNaN(v) || math.IsInf(v, 0) {
		panic(fmt.Sprintf("wgsltypes: %s literal must be finite, got %v", k, v))
	}
	bitSize := 64
	if k == KindF32 {
		bitSize = 32
	}
	return strconv.FormatFloat(v, 'x', -1, bitSize)
}

// =============================================================================
// Vector
// =============================================================================

// Vector is a vector value of 2-4 same-kind scalars.
type Vector struct {
	typ   *VectorType
	elems []*Scalar
}

// NewVector builds a vector value from 2-4 scalars of one kind.
// Panics on a malformed shape; shapes are fixed by the test author, not
// by runtime data.
func NewVector(elems ...*Scalar) *Vector {
	if len(elems) < 2 || len(elems) > 4 {
		panic(fmt.Sprintf("wgsltypes: vector needs 2-4 elements, got %d", len(elems)))
	}
	for _, e := range elems[1:] {
		if e.typ != elems[0].typ {
			panic(fmt.Sprintf("wgsltypes: mixed vector element kinds %s and %s", elems[0].typ, e.typ))
		}
	}
	return &Vector{typ: Vec(len(elems), elems[0].typ), elems: elems}
}

// Type returns the vector's type descriptor.
func (v *Vector) Type() Type { return v.typ }

// Width returns the component count.
func (v *Vector) Width() int { return len(v.elems) }

// Elem returns component i.
func (v *Vector) Elem(i int) *Scalar { return v.elems[i] }

// Elems returns the components in order.
func (v *Vector) Elems() []*Scalar { return v.elems }

// Encode implements Value. Components are contiguous; a width-3 vector
// spans exactly three components with no trailing pad of its own (the
// fourth slot appears only in enclosing array/matrix strides).
func (v *Vector) Encode(dst []byte, off uint32, c StorageClass) error {
	step := v.typ.elem.kind.byteSize()
	for i, e := range v.elems {
		if err := e.Encode(dst, off+uint32(i)*step, c); err != nil {
			return err
		}
	}
	return nil
}

// WGSL implements Value. Abstract-element vectors omit the template
// parameter so the constructed value stays abstract.
func (v *Vector) WGSL() string {
	parts := make([]string, len(v.elems))
	for i, e := range v.elems {
		parts[i] = e.WGSL()
	}
	if v.typ.elem.kind.IsAbstract() {
		return fmt.Sprintf("vec%d(%s)", len(v.elems), strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s(%s)", v.typ.WGSL(), strings.Join(parts, ", "))
}

// String implements Value.
func (v *Vector) String() string {
	parts := make([]string, len(v.elems))
	for i, e := range v.elems {
		parts[i] = e.Repr()
	}
	return fmt.Sprintf("%s(%s)", v.typ, strings.Join(parts, ", "))
}

// =============================================================================
// Matrix
// =============================================================================

// Matrix is a column-major matrix value of floating-point scalars.
type Matrix struct {
	typ  *MatrixType
	cols [][]*Scalar
}

// NewMatrix builds a matrix value from 2-4 columns of 2-4 rows each.
// All elements must share one floating-point kind. Panics on a
// malformed shape.
func NewMatrix(cols ...[]*Scalar) *Matrix {
	if len(cols) < 2 || len(cols) > 4 {
		panic(fmt.Sprintf("wgsltypes: matrix needs 2-4 columns, got %d", len(cols)))
	}
	rows := len(cols[0])
	elem := cols[0][0].typ
	for _, col := range cols {
		if len(col) != rows {
			panic("wgsltypes: ragged matrix columns")
		}
		for _, e := range col {
			if e.typ != elem {
				panic(fmt.Sprintf("wgsltypes: mixed matrix element kinds %s and %s", elem, e.typ))
			}
		}
	}
	return &Matrix{typ: Mat(len(cols), rows, elem), cols: cols}
}

// Type returns the matrix's type descriptor.
func (m *Matrix) Type() Type { return m.typ }

// Elem returns the element at column c, row r.
func (m *Matrix) Elem(c, r int) *Scalar { return m.cols[c][r] }

// Cols returns the columns in order.
func (m *Matrix) Cols() [][]*Scalar { return m.cols }

// Encode implements Value. Each column is laid out like a vector whose
// stride pads three rows to four.
func (m *Matrix) Encode(dst []byte, off uint32, c StorageClass) error {
	elemSize := m.typ.elem.kind.byteSize()
	rows := uint32(m.typ.rows)
	if rows == 3 {
		rows = 4
	}
	colStride := rows * elemSize
	for ci, col := range m.cols {
		base := off + uint32(ci)*colStride
		for ri, e := range col {
			if err := e.Encode(dst, base+uint32(ri)*elemSize, c); err != nil {
				return err
			}
		}
	}
	return nil
}

// WGSL implements Value. Arguments are column-major.
func (m *Matrix) WGSL() string {
	var parts []string
	for _, col := range m.cols {
		for _, e := range col {
			parts = append(parts, e.WGSL())
		}
	}
	if m.typ.elem.kind.IsAbstract() {
		return fmt.Sprintf("mat%dx%d(%s)", m.typ.cols, m.typ.rows, strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s(%s)", m.typ.WGSL(), strings.Join(parts, ", "))
}

// String implements Value.
func (m *Matrix) String() string {
	colParts := make([]string, len(m.cols))
	for ci, col := range m.cols {
		parts := make([]string, len(col))
		for ri, e := range col {
			parts[ri] = e.Repr()
		}
		colParts[ci] = "(" + strings.Join(parts, ", ") + ")"
	}
	return fmt.Sprintf("%s(%s)", m.typ, strings.Join(colParts, ", "))
}

// =============================================================================
// ArrayVal
// =============================================================================

// ArrayVal is a homogeneous fixed array value.
type ArrayVal struct {
	typ   *ArrayType
	elems []Value
}

// NewArray builds an array value. All elements must have the same type
// descriptor. Panics on a malformed shape.
func NewArray(elems ...Value) *ArrayVal {
	if len(elems) == 0 {
		panic("wgsltypes: array needs at least one element")
	}
	for _, e := range elems[1:] {
		if e.Type() != elems[0].Type() {
			panic(fmt.Sprintf("wgsltypes: mixed array element types %s and %s", elems[0].Type(), e.Type()))
		}
	}
	return &ArrayVal{typ: ArrayOf(len(elems), elems[0].Type()), elems: elems}
}

// Type returns the array's type descriptor.
func (a *ArrayVal) Type() Type { return a.typ }

// Elem returns element i.
func (a *ArrayVal) Elem(i int) Value { return a.elems[i] }

// Elems returns the elements in order.
func (a *ArrayVal) Elems() []Value { return a.elems }

// Encode implements Value. Elements are spaced by the class-specific
// element stride (16-byte multiples under uniform).
func (a *ArrayVal) Encode(dst []byte, off uint32, c StorageClass) error {
	stride := StrideOf(a.typ.elem, c)
	for i, e := range a.elems {
		if err := e.Encode(dst, off+uint32(i)*stride, c); err != nil {
			return err
		}
	}
	return nil
}

// WGSL implements Value.
func (a *ArrayVal) WGSL() string {
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.WGSL()
	}
	if ElemKind(a.typ).IsAbstract() {
		return fmt.Sprintf("array(%s)", strings.Join(parts, ", "))
	}
	return fmt.Sprintf("%s(%s)", a.typ.WGSL(), strings.Join(parts, ", "))
}

// String implements Value.
func (a *ArrayVal) String() string {
	parts := make([]string, len(a.elems))
	for i, e := range a.elems {
		parts[i] = e.String()
	}
	return fmt.Sprintf("%s{%s}", a.typ, strings.Join(parts, ", "))
}

// =============================================================================
// Decode
// =============================================================================

// Decode reads one value of type t from buf at the given offset,
// mirroring Encode. Abstract scalars decode from a two-word record: the
// low 32 bits first, then the high 32 bits.
func Decode(t Type, buf []byte, off uint32, c StorageClass) (Value, error) {
	switch t := t.(type) {
	case *ScalarType:
		return decodeScalar(t, buf, off)

	case *VectorType:
		step := t.elem.kind.byteSize()
		elems := make([]*Scalar, t.width)
		for i := range elems {
			s, err := decodeScalar(t.elem, buf, off+uint32(i)*step)
			if err != nil {
				return nil, err
			}
			elems[i] = s
		}
		return NewVector(elems...), nil

	case *MatrixType:
		elemSize := t.elem.kind.byteSize()
		rows := uint32(t.rows)
		if rows == 3 {
			rows = 4
		}
		colStride := rows * elemSize
		cols := make([][]*Scalar, t.cols)
		for ci := range cols {
			col := make([]*Scalar, t.rows)
			base := off + uint32(ci)*colStride
			for ri := range col {
				s, err := decodeScalar(t.elem, buf, base+uint32(ri)*elemSize)
				if err != nil {
					return nil, err
				}
				col[ri] = s
			}
			cols[ci] = col
		}
		return NewMatrix(cols...), nil

	case *ArrayType:
		stride := StrideOf(t.elem, c)
		elems := make([]Value, t.count)
		for i := range elems {
			v, err := Decode(t.elem, buf, off+uint32(i)*stride, c)
			if err != nil {
				return nil, err
			}
			elems[i] = v
		}
		return NewArray(elems...), nil

	default:
		panic(fmt.Sprintf("wgsltypes: unknown type %T", t))
	}
}

func decodeScalar(t *ScalarType, buf []byte, off uint32) (*Scalar, error) {
	size := t.kind.byteSize()
	if uint32(len(buf)) < off+size {
		return nil, fmt.Errorf("decode %s at %d: %w", t.kind, off, ErrShortBuffer)
	}
	le := binary.LittleEndian
	switch t.kind {
	case KindBool:
		return Bool(le.Uint32(buf[off:]) != 0), nil
	case KindI8:
		return I8(int8(buf[off])), nil
	case KindU8:
		return U8(buf[off]), nil
	case KindI16:
		return I16(int16(le.Uint16(buf[off:]))), nil
	case KindU16:
		return U16(le.Uint16(buf[off:])), nil
	case KindI32:
		return I32(int32(le.Uint32(buf[off:]))), nil
	case KindU32:
		return U32(le.Uint32(buf[off:])), nil
	case KindF16:
		return F16FromBits(le.Uint16(buf[off:])), nil
	case KindF32:
		return F32FromBits(le.Uint32(buf[off:])), nil
	case KindF64:
		return F64(math.Float64frombits(le.Uint64(buf[off:]))), nil
	case KindAbstractInt:
		lo := uint64(le.Uint32(buf[off:]))
		hi := uint64(le.Uint32(buf[off+4:]))
		return AbstractInt(int64(hi<<32 | lo)), nil
	case KindAbstractFloat:
		lo := uint64(le.Uint32(buf[off:]))
		hi := uint64(le.Uint32(buf[off+4:]))
		return AbstractFloat(math.Float64frombits(hi<<32 | lo)), nil
	default:
		panic(fmt.Sprintf("wgsltypes: no decoder for kind %s", t.kind))
	}
}
