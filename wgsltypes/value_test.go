// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import (
	"encoding/binary"
	"errors"
	"math"
	"testing"
)

// valueZoo returns one buffer-encodable value per descriptor shape.
func valueZoo() []Value {
	return []Value{
		Bool(true), Bool(false),
		I8(-128), U8(255), I16(-32768), U16(65535),
		I32(-2147483648), U32(4294967295),
		F16(1.5), F16(-0.0009765625), F32(math.Pi), F64(math.Pi),
		NewVector(I32(-1), I32(0), I32(2147483647)),
		NewVector(Bool(true), Bool(false)),
		NewVector(F16(1), F16(2), F16(3), F16(4)),
		NewVector(U32(0), U32(7), U32(42)),
		NewMatrix(
			[]*Scalar{F32(1), F32(2)},
			[]*Scalar{F32(3), F32(4)},
		),
		NewMatrix(
			[]*Scalar{F32(1), F32(2), F32(3)},
			[]*Scalar{F32(4), F32(5), F32(6)},
		),
		NewMatrix(
			[]*Scalar{F16(1), F16(2), F16(3), F16(4)},
			[]*Scalar{F16(5), F16(6), F16(7), F16(8)},
			[]*Scalar{F16(9), F16(10), F16(11), F16(12)},
		),
		NewArray(F32(1), F32(2), F32(3)),
		NewArray(NewVector(F32(1), F32(2), F32(3)), NewVector(F32(4), F32(5), F32(6))),
	}
}

// encodeAt encodes v into a fresh buffer sized for its stride.
func encodeAt(t *testing.T, v Value, off uint32, c StorageClass) []byte {
	t.Helper()
	buf := make([]byte, off+StrideOf(v.Type(), c))
	if err := v.Encode(buf, off, c); err != nil {
		t.Fatalf("Encode(%s): %v", v, err)
	}
	return buf
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	for _, class := range []StorageClass{ClassStorage, ClassUniform} {
		for _, v := range valueZoo() {
			buf := encodeAt(t, v, 0, class)
			got, err := Decode(v.Type(), buf, 0, class)
			if err != nil {
				t.Fatalf("%s Decode(%s): %v", class, v, err)
			}
			if got.Type() != v.Type() {
				t.Errorf("%s %s: round-trip type %s", class, v.Type(), got.Type())
				continue
			}
			// Bit-exactness checked by re-encoding.
			buf2 := encodeAt(t, got, 0, class)
			if string(buf) != string(buf2) {
				t.Errorf("%s %s: round-trip bytes differ\n got %x\nwant %x", class, v, buf2, buf)
			}
		}
	}
}

func TestEncodeVec3I32Layout(t *testing.T) {
	// A 3-wide i32 vector spans exactly 12 contiguous bytes; the
	// 16-byte alignment shows up only at the struct/array level.
	v := NewVector(I32(-1), I32(0), I32(2147483647))
	if got := SizeOf(v.Type(), ClassStorage); got != 12 {
		t.Fatalf("SizeOf = %d, want 12", got)
	}

	buf := make([]byte, 12)
	if err := v.Encode(buf, 0, ClassStorage); err != nil {
		t.Fatalf("Encode: %v", err)
	}
	le := binary.LittleEndian
	if got := int32(le.Uint32(buf[0:])); got != -1 {
		t.Errorf("component 0 = %d, want -1", got)
	}
	if got := int32(le.Uint32(buf[4:])); got != 0 {
		t.Errorf("component 1 = %d, want 0", got)
	}
	if got := int32(le.Uint32(buf[8:])); got != 2147483647 {
		t.Errorf("component 2 = %d, want 2147483647", got)
	}
}

func TestBoolStoredAsWord(t *testing.T) {
	buf := encodeAt(t, Bool(true), 0, ClassStorage)
	if binary.LittleEndian.Uint32(buf) != 1 {
		t.Errorf("bool true encoded as %x, want 00000001", buf)
	}
	// Any non-zero word decodes as true.
	binary.LittleEndian.PutUint32(buf, 0xdeadbeef)
	v, err := Decode(TypeBool, buf, 0, ClassStorage)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if !v.(*Scalar).Bool() {
		t.Error("non-zero word decoded as false")
	}
}

func TestMatrixColumnPadding(t *testing.T) {
	// mat2x3<f32>: each 3-row column is padded to a 16-byte stride.
	m := NewMatrix(
		[]*Scalar{F32(1), F32(2), F32(3)},
		[]*Scalar{F32(4), F32(5), F32(6)},
	)
	buf := encodeAt(t, m, 0, ClassStorage)
	le := binary.LittleEndian
	if got := math.Float32frombits(le.Uint32(buf[16:])); got != 4 {
		t.Errorf("column 1 row 0 at offset 16 = %v, want 4", got)
	}
}

func TestAbstractValuesHaveNoEncoding(t *testing.T) {
	buf := make([]byte, 16)
	for _, v := range []Value{
		AbstractInt(1),
		AbstractFloat(1.5),
		NewVector(AbstractFloat(1), AbstractFloat(2)),
	} {
		if err := v.Encode(buf, 0, ClassStorage); !errors.Is(err, ErrNoBufferEncoding) {
			t.Errorf("Encode(%s): got %v, want ErrNoBufferEncoding", v, err)
		}
	}
}

func TestEncodeShortBuffer(t *testing.T) {
	if err := F32(1).Encode(make([]byte, 3), 0, ClassStorage); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("got %v, want ErrShortBuffer", err)
	}
	if _, err := Decode(TypeU32, make([]byte, 6), 4, ClassStorage); !errors.Is(err, ErrShortBuffer) {
		t.Errorf("got %v, want ErrShortBuffer", err)
	}
}

func TestDecodeAbstractRecords(t *testing.T) {
	le := binary.LittleEndian

	buf := make([]byte, 8)
	bits := math.Float64bits(-0.5)
	le.PutUint32(buf[0:], uint32(bits))
	le.PutUint32(buf[4:], uint32(bits>>32))
	v, err := Decode(TypeAbstractFloat, buf, 0, ClassStorage)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := v.(*Scalar).Float(); got != -0.5 {
		t.Errorf("abstract float = %v, want -0.5", got)
	}

	n := int64(-9007199254740993) // needs more than 52 bits
	le.PutUint32(buf[0:], uint32(uint64(n)))
	le.PutUint32(buf[4:], uint32(uint64(n)>>32))
	v, err = Decode(TypeAbstractInt, buf, 0, ClassStorage)
	if err != nil {
		t.Fatalf("Decode: %v", err)
	}
	if got := v.(*Scalar).Int(); got != n {
		t.Errorf("abstract int = %d, want %d", got, n)
	}
}

func TestScalarWGSLLiterals(t *testing.T) {
	tests := []struct {
		name string
		val  Value
		want string
	}{
		{"bool true", Bool(true), "true"},
		{"bool false", Bool(false), "false"},
		{"i32 negative", I32(-1), "i32(-1)"},
		{"i32 min", I32(-2147483648), "i32(-2147483648)"},
		{"u32 max", U32(4294967295), "u32(4294967295)"},
		{"f32 one and a half", F32(1.5), "0x1.8p+00f"},
		{"f32 three", F32(3), "0x1.8p+01f"},
		{"f32 negative zero", F32(float32(math.Copysign(0, -1))), "-0x0p+00f"},
		{"f16 one", F16(1), "0x1p+00h"},
		{"f16 smallest subnormal", F16FromBits(1), "0x1p-24h"},
		{"abstract int", AbstractInt(42), "42"},
		{"abstract int min", AbstractInt(math.MinInt64), "(-9223372036854775807 - 1)"},
		{"abstract float half", AbstractFloat(0.5), "0x1p-01"},
		{"vec2 abstract stays abstract", NewVector(AbstractFloat(1), AbstractFloat(0.5)), "vec2(0x1p+00, 0x1p-01)"},
		{"vec2 bool", NewVector(Bool(true), Bool(false)), "vec2<bool>(true, false)"},
		{"vec3 i32", NewVector(I32(1), I32(2), I32(3)), "vec3<i32>(i32(1), i32(2), i32(3))"},
		{
			"mat2x2 column major",
			NewMatrix([]*Scalar{F32(1), F32(2)}, []*Scalar{F32(3), F32(4)}),
			"mat2x2<f32>(0x1p+00f, 0x1p+01f, 0x1.8p+01f, 0x1p+02f)",
		},
		{
			"array concrete",
			NewArray(U32(1), U32(2)),
			"array<u32, 2>(u32(1), u32(2))",
		},
		{
			"array abstract",
			NewArray(AbstractInt(1), AbstractInt(2)),
			"array(1, 2)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := tt.val.WGSL(); got != tt.want {
				t.Errorf("WGSL() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestF16Conversion(t *testing.T) {
	tests := []struct {
		name string
		in   float64
		bits uint16
	}{
		{"one", 1, 0x3c00},
		{"one and a half", 1.5, 0x3e00},
		{"negative two", -2, 0xc000},
		{"max normal", 65504, 0x7bff},
		{"overflow to inf", 65520, 0x7c00},
		{"min normal", 0x1p-14, 0x0400},
		{"min subnormal", 0x1p-24, 0x0001},
		{"subnormal tie rounds to even", 0x1p-25, 0x0000},
		{"underflow", 0x1p-26, 0x0000},
		{"negative zero", math.Copysign(0, -1), 0x8000},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := f16FromF64(tt.in); got != tt.bits {
				t.Errorf("f16FromF64(%v) = %#04x, want %#04x", tt.in, got, tt.bits)
			}
		})
	}

	// Exact bits survive the round trip through float64.
	for bits := uint16(0); bits < 0x7c00; bits += 0x0101 {
		if got := f16FromF64(f16ToF64(bits)); got != bits {
			t.Errorf("round trip %#04x -> %#04x", bits, got)
		}
	}
}

func TestBoolStorageExpressions(t *testing.T) {
	tests := []struct {
		name string
		typ  Type
		to   string
		from string
	}{
		{"bool", TypeBool, "select(0u, 1u, x)", "(x != 0u)"},
		{"vec2<bool>", Vec(2, TypeBool), "select(vec2<u32>(0u), vec2<u32>(1u), x)", "(x != vec2<u32>(0u))"},
		{"f32 passthrough", TypeF32, "x", "x"},
		{"vec3<u32> passthrough", Vec(3, TypeU32), "x", "x"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ToStorageExpr(tt.typ, "x"); got != tt.to {
				t.Errorf("ToStorageExpr = %q, want %q", got, tt.to)
			}
			if got := FromStorageExpr(tt.typ, "x"); got != tt.from {
				t.Errorf("FromStorageExpr = %q, want %q", got, tt.from)
			}
		})
	}

	if StorageType(TypeBool) != TypeU32 {
		t.Error("StorageType(bool) != u32")
	}
	if StorageType(Vec(3, TypeBool)) != Vec(3, TypeU32) {
		t.Error("StorageType(vec3<bool>) != vec3<u32>")
	}
	if StorageType(TypeF16) != TypeF16 {
		t.Error("StorageType(f16) changed a passthrough type")
	}
}
