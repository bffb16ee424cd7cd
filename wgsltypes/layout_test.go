// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgsltypes

import (
	"errors"
	"testing"
)

func TestSizeAndAlignment(t *testing.T) {
	tests := []struct {
		name      string
		typ       Type
		class     StorageClass
		wantSize  uint32
		wantAlign uint32
	}{
		{"f32 storage", TypeF32, ClassStorage, 4, 4},
		{"f16 storage", TypeF16, ClassStorage, 2, 2},
		{"bool storage", TypeBool, ClassStorage, 4, 4},
		{"i8 storage", TypeI8, ClassStorage, 1, 1},
		{"u16 storage", TypeU16, ClassStorage, 2, 2},
		{"f64 storage", TypeF64, ClassStorage, 8, 8},
		{"abstract-int storage", TypeAbstractInt, ClassStorage, 8, 8},
		{"abstract-float uniform", TypeAbstractFloat, ClassUniform, 8, 8},

		{"vec2<f16> storage", Vec(2, TypeF16), ClassStorage, 4, 4},
		{"vec3<f16> storage", Vec(3, TypeF16), ClassStorage, 6, 8},
		{"vec3<f32> storage", Vec(3, TypeF32), ClassStorage, 12, 16},
		{"vec3<i32> uniform", Vec(3, TypeI32), ClassUniform, 12, 16},
		{"vec4<u32> storage", Vec(4, TypeU32), ClassStorage, 16, 16},

		{"mat2x2<f32> storage", Mat(2, 2, TypeF32), ClassStorage, 16, 8},
		{"mat2x3<f32> storage", Mat(2, 3, TypeF32), ClassStorage, 32, 16},
		{"mat3x3<f32> storage", Mat(3, 3, TypeF32), ClassStorage, 48, 16},
		{"mat4x2<f16> storage", Mat(4, 2, TypeF16), ClassStorage, 16, 4},
		{"mat3x4<f32> uniform", Mat(3, 4, TypeF32), ClassUniform, 48, 16},

		{"array<f32,4> storage", ArrayOf(4, TypeF32), ClassStorage, 16, 4},
		{"array<f32,4> uniform", ArrayOf(4, TypeF32), ClassUniform, 64, 16},
		{"array<vec3<f32>,2> storage", ArrayOf(2, Vec(3, TypeF32)), ClassStorage, 32, 16},
		{"array<vec2<f16>,3> storage", ArrayOf(3, Vec(2, TypeF16)), ClassStorage, 12, 4},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := SizeOf(tt.typ, tt.class); got != tt.wantSize {
				t.Errorf("SizeOf(%s, %s) = %d, want %d", tt.typ, tt.class, got, tt.wantSize)
			}
			if got := AlignOf(tt.typ, tt.class); got != tt.wantAlign {
				t.Errorf("AlignOf(%s, %s) = %d, want %d", tt.typ, tt.class, got, tt.wantAlign)
			}
		})
	}
}

// typeZoo returns one representative of every descriptor shape usable in
// buffers.
func typeZoo() []Type {
	return []Type{
		TypeBool, TypeI8, TypeU8, TypeI16, TypeU16, TypeI32, TypeU32, TypeF16, TypeF32,
		Vec(2, TypeF32), Vec(3, TypeF32), Vec(4, TypeF32),
		Vec(2, TypeBool), Vec(3, TypeU32), Vec(3, TypeF16), Vec(4, TypeI32),
		Mat(2, 2, TypeF32), Mat(2, 3, TypeF32), Mat(3, 2, TypeF32),
		Mat(3, 3, TypeF16), Mat(4, 4, TypeF32), Mat(4, 3, TypeF16),
		ArrayOf(1, TypeU32), ArrayOf(3, Vec(3, TypeF32)), ArrayOf(2, Mat(2, 2, TypeF16)),
		ArrayOf(4, ArrayOf(2, TypeF32)),
	}
}

func TestStrideProperties(t *testing.T) {
	for _, class := range []StorageClass{ClassStorage, ClassUniform} {
		for _, typ := range typeZoo() {
			size := SizeOf(typ, class)
			align := AlignOf(typ, class)
			stride := StrideOf(typ, class)

			if stride < size {
				t.Errorf("%s %s: stride %d < size %d", class, typ, stride, size)
			}
			if stride%align != 0 {
				t.Errorf("%s %s: stride %d not a multiple of alignment %d", class, typ, stride, align)
			}
			if class == ClassUniform && stride%16 != 0 {
				t.Errorf("uniform %s: stride %d not a multiple of 16", typ, stride)
			}
		}
	}
}

func TestLayoutMembers(t *testing.T) {
	tests := []struct {
		name        string
		members     []Type
		class       StorageClass
		wantOffsets []uint32
		wantSize    uint32
		wantAlign   uint32
		wantStride  uint32
	}{
		{
			name:        "single f32 storage",
			members:     []Type{TypeF32},
			class:       ClassStorage,
			wantOffsets: []uint32{0},
			wantSize:    4,
			wantAlign:   4,
			wantStride:  4,
		},
		{
			name:        "single f32 uniform rounds to 16",
			members:     []Type{TypeF32},
			class:       ClassUniform,
			wantOffsets: []uint32{0},
			wantSize:    4,
			wantAlign:   16,
			wantStride:  16,
		},
		{
			name:        "f32 then vec3 then f16 storage",
			members:     []Type{TypeF32, Vec(3, TypeF32), TypeF16},
			class:       ClassStorage,
			wantOffsets: []uint32{0, 16, 28},
			wantSize:    30,
			wantAlign:   16,
			wantStride:  32,
		},
		{
			name:        "two u32 storage stays tight",
			members:     []Type{TypeU32, TypeU32},
			class:       ClassStorage,
			wantOffsets: []uint32{0, 4},
			wantSize:    8,
			wantAlign:   4,
			wantStride:  8,
		},
		{
			name:        "vec3<i32> uniform struct alignment rounds up",
			members:     []Type{Vec(3, TypeI32)},
			class:       ClassUniform,
			wantOffsets: []uint32{0},
			wantSize:    12,
			wantAlign:   16,
			wantStride:  16,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l, err := LayoutMembers(tt.members, tt.class)
			if err != nil {
				t.Fatalf("LayoutMembers: %v", err)
			}
			if len(l.Offsets) != len(tt.wantOffsets) {
				t.Fatalf("got %d offsets, want %d", len(l.Offsets), len(tt.wantOffsets))
			}
			for i, want := range tt.wantOffsets {
				if l.Offsets[i] != want {
					t.Errorf("offset[%d] = %d, want %d", i, l.Offsets[i], want)
				}
			}
			if l.Size != tt.wantSize {
				t.Errorf("size = %d, want %d", l.Size, tt.wantSize)
			}
			if l.Alignment != tt.wantAlign {
				t.Errorf("alignment = %d, want %d", l.Alignment, tt.wantAlign)
			}
			if l.Stride != tt.wantStride {
				t.Errorf("stride = %d, want %d", l.Stride, tt.wantStride)
			}
		})
	}
}

func TestLayoutMembersRejectsUnbufferable(t *testing.T) {
	bad := []Type{
		TypeF64,
		TypeAbstractInt,
		TypeAbstractFloat,
		Vec(2, TypeF64),
		ArrayOf(2, TypeAbstractFloat),
	}
	for _, typ := range bad {
		if _, err := LayoutMembers([]Type{TypeF32, typ}, ClassStorage); !errors.Is(err, ErrNotBufferable) {
			t.Errorf("LayoutMembers with %s: got %v, want ErrNotBufferable", typ, err)
		}
	}
}

func TestUniformAlignmentAlwaysMultipleOf16(t *testing.T) {
	for _, typ := range typeZoo() {
		l, err := LayoutMembers([]Type{typ}, ClassUniform)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if l.Alignment%16 != 0 {
			t.Errorf("uniform %s: alignment %d not a multiple of 16", typ, l.Alignment)
		}

		// Storage alignment is never artificially inflated.
		ls, err := LayoutMembers([]Type{typ}, ClassStorage)
		if err != nil {
			t.Fatalf("%s: %v", typ, err)
		}
		if ls.Alignment != AlignOf(typ, ClassStorage) {
			t.Errorf("storage %s: alignment %d inflated beyond member alignment %d",
				typ, ls.Alignment, AlignOf(typ, ClassStorage))
		}
	}
}

func TestInterning(t *testing.T) {
	if Vec(3, TypeF32) != Vec(3, TypeF32) {
		t.Error("Vec(3, f32) not interned")
	}
	if Mat(2, 3, TypeF16) != Mat(2, 3, TypeF16) {
		t.Error("Mat(2, 3, f16) not interned")
	}
	if ArrayOf(4, Vec(2, TypeU32)) != ArrayOf(4, Vec(2, TypeU32)) {
		t.Error("ArrayOf(4, vec2<u32>) not interned")
	}
	if Vec(3, TypeF32) == Vec(4, TypeF32) {
		t.Error("distinct shapes interned to the same descriptor")
	}
}
