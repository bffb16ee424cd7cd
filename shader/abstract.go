// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// AbstractFloatResult synthesizes shaders for expressions producing an
// abstract float. The abstract float kind cannot be returned, stored
// or passed through at runtime, so each case's result is decomposed at
// shader creation time into a two-word bit record: subnormal
// magnitudes are flushed sign-preserving to zero (a device is
// permitted to do the same), then sign, biased exponent and mantissa
// are reassembled from a frexp decomposition.
type AbstractFloatResult struct {
	// Expr renders the expression under test.
	Expr Expr
}

// Build implements Builder.
func (b AbstractFloatResult) Build(req Request) (string, error) {
	return buildAbstract(req, b.Expr, wgsltypes.KindAbstractFloat, abstractFloatSnippet)
}

// AbstractIntResult synthesizes shaders for expressions producing an
// abstract integer, split into low and high 32-bit words by masking
// and arithmetic shift.
type AbstractIntResult struct {
	// Expr renders the expression under test.
	Expr Expr
}

// Build implements Builder.
func (b AbstractIntResult) Build(req Request) (string, error) {
	return buildAbstract(req, b.Expr, wgsltypes.KindAbstractInt, abstractIntSnippet)
}

func buildAbstract(req Request, expr Expr, kind wgsltypes.ScalarKind, snippet func(target, expr string) string) (string, error) {
	if req.Mode != EvalConst {
		return "", ErrConstOnly
	}
	if err := checkRequest(req); err != nil {
		return "", err
	}
	if err := checkLiterals(req); err != nil {
		return "", err
	}
	if wgsltypes.ElemKind(req.Result) != kind {
		return "", fmt.Errorf("result is %s, want %s elements: %w", req.Result, kind, ErrResultKind)
	}
	n := len(req.Inputs)

	var sb strings.Builder
	sb.WriteString(header(req))
	sb.WriteString(abstractOutputBinding(req.Result, n))

	sb.WriteString("\n@compute @workgroup_size(1)\nfn main() {\n")
	for i, row := range req.Inputs {
		e := expr(literalArgs(row))
		switch t := req.Result.(type) {
		case *wgsltypes.ScalarType:
			sb.WriteString(snippet(fmt.Sprintf("outputs[%d].value", i), "("+e+")"))

		case *wgsltypes.VectorType:
			sb.WriteString("    {\n")
			fmt.Fprintf(&sb, "    const r = (%s);\n", e)
			for c := 0; c < t.Width(); c++ {
				sb.WriteString(snippet(fmt.Sprintf("outputs[%d].value[%d]", i, c), fmt.Sprintf("r[%d]", c)))
			}
			sb.WriteString("    }\n")

		case *wgsltypes.MatrixType:
			rowsP := t.Rows()
			if rowsP == 3 {
				rowsP = 4
			}
			sb.WriteString("    {\n")
			fmt.Fprintf(&sb, "    const r = (%s);\n", e)
			for c := 0; c < t.Cols(); c++ {
				for r := 0; r < t.Rows(); r++ {
					sb.WriteString(snippet(
						fmt.Sprintf("outputs[%d].value[%d]", i, c*rowsP+r),
						fmt.Sprintf("r[%d][%d]", c, r)))
				}
			}
			sb.WriteString("    }\n")

		default:
			return "", fmt.Errorf("result is %s: %w", req.Result, ErrResultKind)
		}
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}

// abstractOutputBinding declares the Output struct holding two-word
// records: one vec2<u32> per scalar result element. Width-3 vectors and
// three-row matrix columns pad to four records so the record array's
// WGSL stride matches the host layout's vec4-aligned stride.
func abstractOutputBinding(result wgsltypes.Type, count int) string {
	var field string
	switch t := result.(type) {
	case *wgsltypes.VectorType:
		widthP := t.Width()
		if widthP == 3 {
			widthP = 4
		}
		field = fmt.Sprintf("value : array<vec2<u32>, %d>", widthP)
	case *wgsltypes.MatrixType:
		rowsP := t.Rows()
		if rowsP == 3 {
			rowsP = 4
		}
		field = fmt.Sprintf("value : array<vec2<u32>, %d>", t.Cols()*rowsP)
	default:
		field = "value : vec2<u32>"
	}
	return fmt.Sprintf("struct Output {\n    %s,\n}\n"+
		"@group(0) @binding(0) var<storage, read_write> outputs : array<Output, %d>;\n", field, count)
}

// abstractFloatSnippet reconstructs the 64-bit float pattern of a
// creation-time expression: flush subnormals to signed zero, then pack
// sign, biased exponent (frexp exponent + 1022) and the 52 mantissa
// bits into (low, high) words. Zero takes the select fallback since
// frexp's mantissa path would go negative for it.
func abstractFloatSnippet(target, expr string) string {
	var sb strings.Builder
	sb.WriteString("    {\n")
	fmt.Fprintf(&sb, "        const v = %s;\n", expr)
	sb.WriteString("        const fl = select(v, v * 0.0, abs(v) < 0x1p-1022);\n")
	sb.WriteString("        const z = abs(fl) == 0.0;\n")
	sb.WriteString("        const sgn = select(0u, 0x80000000u, v < 0.0);\n")
	sb.WriteString("        const fr = frexp(abs(fl) + select(0.0, 1.0, z));\n")
	sb.WriteString("        const be = u32(fr.exp + 1022);\n")
	sb.WriteString("        const m = (fr.fract * 2.0 - 1.0) * 0x1p+52;\n")
	sb.WriteString("        const hm = floor(m * 0x1p-32);\n")
	fmt.Fprintf(&sb, "        %s = select(vec2<u32>(u32(m - hm * 0x1p+32), sgn | (be << 20u) | u32(hm)), vec2<u32>(0u, sgn), z);\n", target)
	sb.WriteString("    }\n")
	return sb.String()
}

// abstractIntSnippet splits a creation-time integer into (low, high)
// words. The mask keeps each conversion in u32 range regardless of the
// value's sign.
func abstractIntSnippet(target, expr string) string {
	var sb strings.Builder
	sb.WriteString("    {\n")
	fmt.Fprintf(&sb, "        const v = %s;\n", expr)
	fmt.Fprintf(&sb, "        %s = vec2<u32>(u32(v & 0xffffffff), u32((v >> 32) & 0xffffffff));\n", target)
	sb.WriteString("    }\n")
	return sb.String()
}
