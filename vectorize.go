// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgslverify

import (
	"fmt"

	"github.com/gogpu/wgslverify/compare"
	"github.com/gogpu/wgslverify/wgsltypes"
)

// vectorize packs groups of width scalar cases into vector-typed
// cases. When the case count is not a multiple of width, the final
// group repeats its last case to fill the vector; the packed
// comparator wraps the underlying per-case comparators and reports a
// per-component summary.
func vectorize(width int, params []wgsltypes.Type, result wgsltypes.Type, cases []Case) ([]wgsltypes.Type, wgsltypes.Type, []Case, error) {
	if width < 2 || width > 4 {
		return nil, nil, nil, fmt.Errorf("width %d: %w", width, ErrVectorWidth)
	}

	scalarParams := make([]*wgsltypes.ScalarType, len(params))
	for j, p := range params {
		s, ok := p.(*wgsltypes.ScalarType)
		if !ok {
			return nil, nil, nil, fmt.Errorf("parameter %d is %s: %w", j, p, ErrVectorize)
		}
		scalarParams[j] = s
	}
	scalarResult, ok := result.(*wgsltypes.ScalarType)
	if !ok {
		return nil, nil, nil, fmt.Errorf("result is %s: %w", result, ErrVectorize)
	}

	vecParams := make([]wgsltypes.Type, len(params))
	for j, s := range scalarParams {
		vecParams[j] = wgsltypes.Vec(width, s)
	}
	vecResult := wgsltypes.Vec(width, scalarResult)

	packed := make([]Case, 0, (len(cases)+width-1)/width)
	for g := 0; g < len(cases); g += width {
		inputs := make([]wgsltypes.Value, len(params))
		parts := make([]compare.Comparator, width)
		for j := range params {
			elems := make([]*wgsltypes.Scalar, width)
			for k := 0; k < width; k++ {
				src := cases[min(g+k, len(cases)-1)]
				if len(src.Inputs) != len(params) {
					return nil, nil, nil, fmt.Errorf("case %d has %d inputs for %d parameters: %w",
						min(g+k, len(cases)-1), len(src.Inputs), len(params), ErrVectorize)
				}
				s, ok := src.Inputs[j].(*wgsltypes.Scalar)
				if !ok {
					return nil, nil, nil, fmt.Errorf("case %d input %d is %s: %w",
						min(g+k, len(cases)-1), j, src.Inputs[j].Type(), ErrVectorize)
				}
				elems[k] = s
			}
			inputs[j] = wgsltypes.NewVector(elems...)
		}
		for k := 0; k < width; k++ {
			parts[k] = cases[min(g+k, len(cases)-1)].Expected
		}
		packed = append(packed, Case{
			Inputs:   inputs,
			Expected: compare.Packed(parts),
		})
	}
	return vecParams, vecResult, packed, nil
}
