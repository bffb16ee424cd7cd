// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

// Package compare checks observed shader results against expectations.
//
// Expectations come in three layers. Exactly checks against a concrete
// value, bit-exact for integer and boolean kinds and numerically equal
// for floating kinds of any width. In, Each and Grid test containment
// in admissible intervals, tolerating legitimate cross-implementation
// rounding. AnyOf, SkipUndefined, AlwaysPass and Packed compose the
// lower layers.
//
// Failing vector and matrix components are bracketed in the reported
// representations, e.g. "vec2<bool>(true, [true])".
package compare
