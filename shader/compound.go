// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package shader

import (
	"fmt"
	"strings"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// CompoundAssign synthesizes shaders for "lhs op= rhs" statements.
// The first parameter is the left operand, the second the right; the
// result type must equal the left operand's type.
type CompoundAssign struct {
	// Op is the compound operator, e.g. "+=" or "<<=".
	Op string
}

// Build implements Builder.
func (b CompoundAssign) Build(req Request) (string, error) {
	if len(req.Params) != 2 {
		return "", fmt.Errorf("%d parameters: %w", len(req.Params), ErrCompoundArity)
	}
	if req.Result != req.Params[0] {
		return "", fmt.Errorf("result %s, left operand %s: %w",
			req.Result, req.Params[0], ErrCompoundResult)
	}
	if err := checkRequest(req); err != nil {
		return "", err
	}
	if err := checkShaderKinds(req); err != nil {
		return "", err
	}
	// The left operand lives in a var, so abstract kinds are out in
	// both modes.
	if err := checkBufferable(req); err != nil {
		return "", err
	}
	if req.Mode == EvalRuntime {
		return b.buildRuntime(req)
	}
	return b.buildConst(req)
}

func (b CompoundAssign) buildRuntime(req Request) (string, error) {
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

	args := inputArgs(req.Params)
	sb.WriteString("\n@compute @workgroup_size(1)\nfn main() {\n")
	fmt.Fprintf(&sb, "    for (var i = 0u; i < %du; i++) {\n", n)
	fmt.Fprintf(&sb, "        var v = %s;\n", args[0])
	fmt.Fprintf(&sb, "        v %s %s;\n", b.Op, args[1])
	fmt.Fprintf(&sb, "        outputs[i].value = %s;\n", wgsltypes.ToStorageExpr(req.Result, "v"))
	sb.WriteString("    }\n}\n")
	return sb.String(), nil
}

func (b CompoundAssign) buildConst(req Request) (string, error) {
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

	// The statement form needs a var per case, so the const mode is
	// always unrolled.
	sb.WriteString("\n@compute @workgroup_size(1)\nfn main() {\n")
	for i, row := range req.Inputs {
		args := literalArgs(row)
		sb.WriteString("    {\n")
		fmt.Fprintf(&sb, "        var v = %s;\n", args[0])
		fmt.Fprintf(&sb, "        v %s %s;\n", b.Op, args[1])
		fmt.Fprintf(&sb, "        outputs[%d].value = %s;\n", i, wgsltypes.ToStorageExpr(req.Result, "v"))
		sb.WriteString("    }\n")
	}
	sb.WriteString("}\n")
	return sb.String(), nil
}
