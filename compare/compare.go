// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package compare

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/gogpu/wgslverify/wgsltypes"
)

// Result is the outcome of one comparison. Got and Expected are
// human-readable representations suitable for a mismatch report; on
// failure, failing vector/matrix components are bracketed.
type Result struct {
	Matched  bool
	Got      string
	Expected string
}

// Comparator tests an observed value against an expectation.
type Comparator interface {
	Compare(got wgsltypes.Value) Result
}

// =============================================================================
// Exact value comparison
// =============================================================================

type exact struct {
	want wgsltypes.Value
}

// Exactly expects a concrete value. Integer and boolean kinds must
// match bit for bit; floating kinds of any width are mutually
// comparable by numeric value with no tolerance.
func Exactly(want wgsltypes.Value) Comparator {
	return exact{want: want}
}

func (e exact) Compare(got wgsltypes.Value) Result {
	return compareValues(got, e.want)
}

func compareValues(got, want wgsltypes.Value) Result {
	switch want := want.(type) {
	case *wgsltypes.Scalar:
		g, ok := got.(*wgsltypes.Scalar)
		if !ok {
			return shapeMismatch(got, want)
		}
		if scalarEqual(g, want) {
			return Result{Matched: true, Got: g.String(), Expected: want.String()}
		}
		return Result{Got: "[" + g.String() + "]", Expected: "[" + want.String() + "]"}

	case *wgsltypes.Vector:
		g, ok := got.(*wgsltypes.Vector)
		if !ok || g.Width() != want.Width() {
			return shapeMismatch(got, want)
		}
		matched := true
		gotParts := make([]string, g.Width())
		wantParts := make([]string, g.Width())
		for i := 0; i < g.Width(); i++ {
			gotParts[i] = g.Elem(i).Repr()
			wantParts[i] = want.Elem(i).Repr()
			if !scalarEqual(g.Elem(i), want.Elem(i)) {
				matched = false
				gotParts[i] = "[" + gotParts[i] + "]"
				wantParts[i] = "[" + wantParts[i] + "]"
			}
		}
		return Result{
			Matched:  matched,
			Got:      fmt.Sprintf("%s(%s)", g.Type(), strings.Join(gotParts, ", ")),
			Expected: fmt.Sprintf("%s(%s)", want.Type(), strings.Join(wantParts, ", ")),
		}

	case *wgsltypes.Matrix:
		g, ok := got.(*wgsltypes.Matrix)
		if !ok || len(g.Cols()) != len(want.Cols()) || len(g.Cols()[0]) != len(want.Cols()[0]) {
			return shapeMismatch(got, want)
		}
		matched := true
		gotCols := make([]string, len(g.Cols()))
		wantCols := make([]string, len(g.Cols()))
		for ci := range g.Cols() {
			rows := len(g.Cols()[ci])
			gp := make([]string, rows)
			wp := make([]string, rows)
			for ri := 0; ri < rows; ri++ {
				gp[ri] = g.Elem(ci, ri).Repr()
				wp[ri] = want.Elem(ci, ri).Repr()
				if !scalarEqual(g.Elem(ci, ri), want.Elem(ci, ri)) {
					matched = false
					gp[ri] = "[" + gp[ri] + "]"
					wp[ri] = "[" + wp[ri] + "]"
				}
			}
			gotCols[ci] = "(" + strings.Join(gp, ", ") + ")"
			wantCols[ci] = "(" + strings.Join(wp, ", ") + ")"
		}
		return Result{
			Matched:  matched,
			Got:      fmt.Sprintf("%s(%s)", g.Type(), strings.Join(gotCols, ", ")),
			Expected: fmt.Sprintf("%s(%s)", want.Type(), strings.Join(wantCols, ", ")),
		}

	case *wgsltypes.ArrayVal:
		g, ok := got.(*wgsltypes.ArrayVal)
		if !ok || len(g.Elems()) != len(want.Elems()) {
			return shapeMismatch(got, want)
		}
		matched := true
		gotParts := make([]string, len(g.Elems()))
		wantParts := make([]string, len(g.Elems()))
		for i := range g.Elems() {
			r := compareValues(g.Elem(i), want.Elem(i))
			if !r.Matched {
				matched = false
			}
			gotParts[i] = r.Got
			wantParts[i] = r.Expected
		}
		return Result{
			Matched:  matched,
			Got:      fmt.Sprintf("%s{%s}", g.Type(), strings.Join(gotParts, ", ")),
			Expected: fmt.Sprintf("%s{%s}", want.Type(), strings.Join(wantParts, ", ")),
		}

	default:
		panic(fmt.Sprintf("compare: unknown value %T", want))
	}
}

// scalarEqual compares two scalars. Floating kinds of any width are
// mutually comparable by numeric value; all other kinds require the
// same kind and the same bit pattern.
func scalarEqual(got, want *wgsltypes.Scalar) bool {
	gf := got.Kind().IsFloat()
	wf := want.Kind().IsFloat()
	if gf && wf {
		return got.Float() == want.Float()
	}
	return got.Kind() == want.Kind() && got.Bits() == want.Bits()
}

func shapeMismatch(got, want wgsltypes.Value) Result {
	return Result{
		Got:      fmt.Sprintf("[%s %s]", got.Type(), got),
		Expected: fmt.Sprintf("[%s %s]", want.Type(), want),
	}
}

// =============================================================================
// Interval containment
// =============================================================================

// Interval is an inclusive admissible range for one floating result.
// Interval values come from an external accuracy service; this package
// only tests containment.
type Interval struct {
	Lo, Hi float64
}

// Contains reports whether v lies inside the interval.
func (iv Interval) Contains(v float64) bool {
	return iv.Lo <= v && v <= iv.Hi
}

// String returns the interval in bracket notation.
func (iv Interval) String() string {
	return fmt.Sprintf("[%s, %s]",
		strconv.FormatFloat(iv.Lo, 'g', -1, 64),
		strconv.FormatFloat(iv.Hi, 'g', -1, 64))
}

type inInterval struct {
	iv Interval
}

// In expects a floating scalar whose numeric value lies in [lo, hi].
func In(lo, hi float64) Comparator {
	return inInterval{iv: Interval{Lo: lo, Hi: hi}}
}

// InInterval is like In for a prebuilt Interval.
func InInterval(iv Interval) Comparator {
	return inInterval{iv: iv}
}

func (c inInterval) Compare(got wgsltypes.Value) Result {
	s, ok := got.(*wgsltypes.Scalar)
	if !ok || !s.Kind().IsFloat() {
		return Result{
			Got:      fmt.Sprintf("[%s %s]", got.Type(), got),
			Expected: c.iv.String(),
		}
	}
	if c.iv.Contains(s.Float()) {
		return Result{Matched: true, Got: s.String(), Expected: c.iv.String()}
	}
	return Result{Got: "[" + s.String() + "]", Expected: c.iv.String()}
}

type eachInterval struct {
	ivs []Interval
}

// Each expects a floating-element vector whose components lie in the
// corresponding intervals. The interval count fixes the vector width.
func Each(ivs ...Interval) Comparator {
	return eachInterval{ivs: ivs}
}

func (c eachInterval) Compare(got wgsltypes.Value) Result {
	v, ok := got.(*wgsltypes.Vector)
	if !ok || v.Width() != len(c.ivs) || !v.Elem(0).Kind().IsFloat() {
		return Result{
			Got:      fmt.Sprintf("[%s %s]", got.Type(), got),
			Expected: intervalList(c.ivs),
		}
	}
	matched := true
	gotParts := make([]string, v.Width())
	wantParts := make([]string, v.Width())
	for i := 0; i < v.Width(); i++ {
		gotParts[i] = v.Elem(i).Repr()
		wantParts[i] = c.ivs[i].String()
		if !c.ivs[i].Contains(v.Elem(i).Float()) {
			matched = false
			gotParts[i] = "[" + gotParts[i] + "]"
			wantParts[i] = "[" + wantParts[i] + "]"
		}
	}
	return Result{
		Matched:  matched,
		Got:      fmt.Sprintf("%s(%s)", v.Type(), strings.Join(gotParts, ", ")),
		Expected: "(" + strings.Join(wantParts, ", ") + ")",
	}
}

type gridInterval struct {
	cols [][]Interval
}

// Grid expects a floating-element matrix whose elements lie in the
// corresponding column-major interval grid.
func Grid(cols ...[]Interval) Comparator {
	return gridInterval{cols: cols}
}

func (c gridInterval) Compare(got wgsltypes.Value) Result {
	m, ok := got.(*wgsltypes.Matrix)
	if !ok || len(m.Cols()) != len(c.cols) || len(m.Cols()[0]) != len(c.cols[0]) {
		var colParts []string
		for _, col := range c.cols {
			colParts = append(colParts, intervalList(col))
		}
		return Result{
			Got:      fmt.Sprintf("[%s %s]", got.Type(), got),
			Expected: "(" + strings.Join(colParts, ", ") + ")",
		}
	}
	matched := true
	gotCols := make([]string, len(c.cols))
	wantCols := make([]string, len(c.cols))
	for ci, col := range c.cols {
		gp := make([]string, len(col))
		wp := make([]string, len(col))
		for ri, iv := range col {
			gp[ri] = m.Elem(ci, ri).Repr()
			wp[ri] = iv.String()
			if !iv.Contains(m.Elem(ci, ri).Float()) {
				matched = false
				gp[ri] = "[" + gp[ri] + "]"
				wp[ri] = "[" + wp[ri] + "]"
			}
		}
		gotCols[ci] = "(" + strings.Join(gp, ", ") + ")"
		wantCols[ci] = "(" + strings.Join(wp, ", ") + ")"
	}
	return Result{
		Matched:  matched,
		Got:      fmt.Sprintf("%s(%s)", m.Type(), strings.Join(gotCols, ", ")),
		Expected: "(" + strings.Join(wantCols, ", ") + ")",
	}
}

func intervalList(ivs []Interval) string {
	parts := make([]string, len(ivs))
	for i, iv := range ivs {
		parts[i] = iv.String()
	}
	return "(" + strings.Join(parts, ", ") + ")"
}

// =============================================================================
// Composite comparators
// =============================================================================

type anyOf struct {
	children []Comparator
}

// AnyOf passes if any child expectation matches. On failure the
// expected representation is the union of all rejected alternatives.
func AnyOf(children ...Comparator) Comparator {
	return anyOf{children: children}
}

func (c anyOf) Compare(got wgsltypes.Value) Result {
	rejected := make([]string, 0, len(c.children))
	for _, child := range c.children {
		r := child.Compare(got)
		if r.Matched {
			return r
		}
		rejected = append(rejected, r.Expected)
	}
	return Result{
		Got:      got.String(),
		Expected: "any of " + strings.Join(rejected, " | "),
	}
}

type skipUndefined struct {
	inner Comparator
}

// SkipUndefined defers to the wrapped expectation, or passes
// unconditionally when it is absent (the operation's result is
// undefined for these inputs).
func SkipUndefined(inner Comparator) Comparator {
	return skipUndefined{inner: inner}
}

func (c skipUndefined) Compare(got wgsltypes.Value) Result {
	if c.inner == nil {
		return Result{Matched: true, Got: got.String(), Expected: "undefined"}
	}
	return c.inner.Compare(got)
}

type alwaysPass struct{}

// AlwaysPass matches any observed value. Used for validation-only
// cases where execution, not the result, is under test.
func AlwaysPass() Comparator {
	return alwaysPass{}
}

func (alwaysPass) Compare(got wgsltypes.Value) Result {
	return Result{Matched: true, Got: got.String(), Expected: "any"}
}

// =============================================================================
// Packed (vectorized) comparison
// =============================================================================

type packed struct {
	parts []Comparator
}

// Packed wraps the per-case comparators of scalar cases that were
// packed into one vector case. Component i of the observed vector is
// checked by parts[i]; failing components are bracketed in the
// summary.
func Packed(parts []Comparator) Comparator {
	return packed{parts: parts}
}

func (c packed) Compare(got wgsltypes.Value) Result {
	v, ok := got.(*wgsltypes.Vector)
	if !ok || v.Width() != len(c.parts) {
		return Result{
			Got:      fmt.Sprintf("[%s %s]", got.Type(), got),
			Expected: fmt.Sprintf("vector of width %d", len(c.parts)),
		}
	}
	matched := true
	gotParts := make([]string, v.Width())
	wantParts := make([]string, v.Width())
	for i, part := range c.parts {
		r := part.Compare(v.Elem(i))
		gotParts[i] = r.Got
		wantParts[i] = r.Expected
		if !r.Matched {
			matched = false
		}
	}
	return Result{
		Matched:  matched,
		Got:      fmt.Sprintf("%s(%s)", v.Type(), strings.Join(gotParts, ", ")),
		Expected: "(" + strings.Join(wantParts, ", ") + ")",
	}
}
