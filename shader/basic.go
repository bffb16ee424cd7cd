// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// Basic synthesizes shaders for general expressions whose result fits
// a native buffer field.
type Basic struct {
	// Expr renders the expression under test.
	Expr Expr
}

// Build implements Builder.
func (b Basic) Build(req Request) (string, error) {
	if err := checkRequest(req); err != nil {
		return "", err
	}
	if err := checkShaderKinds(req); err != nil {
		return "", err
	}
	if hasAbstract(req.Result) {
		return "", fmt.Errorf("result is %s: %w", req.Result, ErrAbstractResult)
	}
	if req.Mode == EvalRuntime {
		return b.buildRuntime(req)
	}
	return b.buildConst(req)
}

func (b Basic) buildRuntime(req Request) (string, error) {
	if err := checkBufferable(req); err != nil {
		return "", err
	}
	n := len(req.Inputs)

	var sb strings.Builder
	sb.WriteString(header(req))

	out, err := outputBinding(req.Result, n)
	if err != nil {
		return "", err
	}
	sb.WriteString(out)
	in, err := inputBinding(req.Params, req.Class, n)
	if err != nil {
		return "", err
	}
	sb.WriteString(in)

	expr := b.Expr(inputArgs(req.Params))
	sb.WriteString("\n@compute @workgroup_size(1)\nfn main() {\n")
	fmt.Fprintf(&sb, "    for (var i = 0u; i < %du; i++) {\n", n)
	fmt.Fprintf(&sb, "        outputs[i].value = %s;\n", wgsltypes.ToStorageExpr(req.Result, "("+expr+")"))
	sb.WriteString("    }\n}\n")
	return sb.String(), nil
}

func (b Basic) buildConst(req Request) (string, error) {
	if err := checkLiterals(req); err != nil {
		return "", err
	}
	n := len(req.Inputs)

	var sb strings.Builder
	sb.WriteString(header(req))

	out, err := outputBinding(req.Result, n)
	if err != nil {
		return "", err
	}
	sb.WriteString(out)

	exprs := make([]string, n)
	for i, row := range req.Inputs {
		exprs[i] = b.Expr(literalArgs(row))
	}

	// A single case is assigned directly; an intermediate array would
	// concretize abstract-typed operands too early.
	if n == 1 || req.Unroll {
		sb.WriteString("\n@compute @workgroup_size(1)\nfn main() {\n")
		for i, e := range exprs {
			fmt.Fprintf(&sb, "    outputs[%d].value = %s;\n",
				i, wgsltypes.ToStorageExpr(req.Result, "("+e+")"))
		}
		sb.WriteString("}\n")
		return sb.String(), nil
	}

	fmt.Fprintf(&sb, "\nconst results = array<%s, %d>(\n", req.Result.WGSL(), n)
	for _, e := range exprs {
		fmt.Fprintf(&sb, "    (%s),\n", e)
	}
	sb.WriteString(");\n")

	sb.WriteString("\n@compute @workgroup_size(1)\nfn main() {\n")
	fmt.Fprintf(&sb, "    for (var i = 0u; i < %du; i++) {\n", n)
	fmt.Fprintf(&sb, "        outputs[i].value = %s;\n", wgsltypes.ToStorageExpr(req.Result, "results[i]"))
	sb.WriteString("    }\n}\n")
	return sb.String(), nil
}
