// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package shader synthesizes WGSL compute shaders that evaluate an
// expression over a batch of cases and write the results into a
// storage buffer for readback.
//
// Four builder strategies cover the expression forms under test:
//
//   - Basic: general scalar/vector/matrix expressions whose result
//     fits a native buffer field.
//   - CompoundAssign: "lhs op= rhs" statements.
//   - AbstractFloatResult: expressions producing an abstract float,
//     which cannot be stored; an inline snippet decomposes each result
//     into a two-word bit record at shader creation time.
//   - AbstractIntResult: the analogous split for abstract integers.
//
// Each builder supports creation-time evaluation with case values
// embedded as literals; Basic and CompoundAssign additionally support
// runtime evaluation with inputs read from a bound buffer.
package shader
