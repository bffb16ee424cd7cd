// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgslverify

import (
	"context"
	"errors"
	"math"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gogpu/wgslverify/compare"
	"github.com/gogpu/wgslverify/shader"
	"github.com/gogpu/wgslverify/wgsltypes"
)

// fakeDevice echoes each dispatch's input buffer back as its output,
// which makes an identity expression trivially verifiable without a GPU.
type fakeDevice struct {
	limits Limits

	mu         sync.Mutex
	compiled   []string
	dispatches []DispatchSpec

	compileErr  error
	dispatchErr error
	waitErr     error

	inFlight    atomic.Int32
	maxInFlight atomic.Int32
}

func newFakeDevice() *fakeDevice {
	return &fakeDevice{
		limits: Limits{
			MaxUniformBindingSize: 65536,
			MaxStorageBindingSize: 1 << 27,
		},
	}
}

func (d *fakeDevice) Limits() Limits { return d.limits }

func (d *fakeDevice) Compile(_ context.Context, source string) (Program, error) {
	if d.compileErr != nil {
		return nil, d.compileErr
	}
	d.mu.Lock()
	d.compiled = append(d.compiled, source)
	d.mu.Unlock()
	return &fakeProgram{d: d}, nil
}

func (d *fakeDevice) compileCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.compiled)
}

func (d *fakeDevice) dispatchCount() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.dispatches)
}

type fakeProgram struct {
	d         *fakeDevice
	destroyed atomic.Bool
}

func (p *fakeProgram) Dispatch(_ context.Context, spec DispatchSpec) (Pending, error) {
	d := p.d
	if d.dispatchErr != nil {
		return nil, d.dispatchErr
	}
	if p.destroyed.Load() {
		return nil, errors.New("fake: dispatch on destroyed program")
	}
	d.mu.Lock()
	d.dispatches = append(d.dispatches, spec)
	d.mu.Unlock()

	n := d.inFlight.Add(1)
	for {
		seen := d.maxInFlight.Load()
		if n <= seen || d.maxInFlight.CompareAndSwap(seen, n) {
			break
		}
	}

	out := make([]byte, spec.OutputSize)
	copy(out, spec.Input)
	return &fakePending{d: d, out: out}, nil
}

func (p *fakeProgram) Destroy() { p.destroyed.Store(true) }

type fakePending struct {
	d   *fakeDevice
	out []byte
}

func (f *fakePending) Wait(context.Context) ([]byte, error) {
	// Give later submissions a chance to pile onto the admission gate.
	time.Sleep(time.Millisecond)
	f.d.inFlight.Add(-1)
	if f.d.waitErr != nil {
		return nil, f.d.waitErr
	}
	return f.out, nil
}

// identity is the expression under test throughout: echoing devices
// make it come back verbatim.
var identity = shader.Basic{Expr: func(args []string) string { return args[0] }}

func i32Config() Config {
	return Config{
		Builder: identity,
		Params:  []wgsltypes.Type{wgsltypes.TypeI32},
		Result:  wgsltypes.TypeI32,
		Mode:    shader.EvalRuntime,
	}
}

func TestRunAllPass(t *testing.T) {
	dev := newFakeDevice()
	if err := Run(context.Background(), dev, i32Config(), scalarCases(1, -2, 3)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dev.dispatchCount() != 1 {
		t.Errorf("dispatches = %d, want 1", dev.dispatchCount())
	}
}

func TestRunMismatchAggregation(t *testing.T) {
	dev := newFakeDevice()
	cases := scalarCases(1, 2, 3)
	// Break the middle and last expectations.
	cases[1].Expected = compare.Exactly(wgsltypes.I32(99))
	cases[2].Expected = compare.Exactly(wgsltypes.I32(77))

	err := Run(context.Background(), dev, i32Config(), cases)
	if err == nil {
		t.Fatal("Run passed with broken expectations")
	}

	var be *BatchError
	if !errors.As(err, &be) {
		t.Fatalf("error is %T, want *BatchError: %v", err, err)
	}
	if len(be.Cases) != 2 {
		t.Fatalf("batch has %d failing cases, want 2", len(be.Cases))
	}
	if be.Cases[0].Index != 1 || be.Cases[1].Index != 2 {
		t.Errorf("failing indexes = %d, %d, want 1, 2", be.Cases[0].Index, be.Cases[1].Index)
	}
	if be.Source == "" {
		t.Error("BatchError carries no source")
	}
	if !strings.Contains(err.Error(), "case 1") {
		t.Errorf("report does not name the failing case: %v", err)
	}
}

func TestRunBatchSizingRespectsLimits(t *testing.T) {
	dev := newFakeDevice()
	// Four i32 cases per batch fit the input binding.
	dev.limits.MaxStorageBindingSize = 16

	if err := Run(context.Background(), dev, i32Config(), scalarCases(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.dispatchCount(); got != 3 {
		t.Errorf("dispatches = %d, want 3 (batches of 4, 4, 2)", got)
	}
	for i, spec := range dev.dispatches {
		if uint64(len(spec.Input)) > dev.limits.MaxStorageBindingSize {
			t.Errorf("dispatch %d input is %d bytes, exceeds binding limit", i, len(spec.Input))
		}
		if uint64(spec.OutputSize) > dev.limits.MaxStorageBindingSize {
			t.Errorf("dispatch %d output is %d bytes, exceeds binding limit", i, spec.OutputSize)
		}
	}
}

func TestRunBatchSizeConfigOverride(t *testing.T) {
	dev := newFakeDevice()
	cfg := i32Config()
	cfg.BatchSize = 2

	if err := Run(context.Background(), dev, cfg, scalarCases(1, 2, 3, 4, 5)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.dispatchCount(); got != 3 {
		t.Errorf("dispatches = %d, want 3", got)
	}
}

func TestRunOneCaseOverBindingLimit(t *testing.T) {
	dev := newFakeDevice()
	dev.limits.MaxStorageBindingSize = 2 // smaller than one i32

	err := Run(context.Background(), dev, i32Config(), scalarCases(1))
	if !errors.Is(err, ErrBindingLimit) {
		t.Errorf("Run: %v, want ErrBindingLimit", err)
	}
}

func TestRunProgramCacheSharesSource(t *testing.T) {
	dev := newFakeDevice()
	cfg := i32Config()
	cfg.BatchSize = 4

	// Batches of 4, 4 and 2 cases: the equal-sized batches share
	// generated source and must share one compilation.
	if err := Run(context.Background(), dev, cfg, scalarCases(1, 2, 3, 4, 5, 6, 7, 8, 9, 10)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.compileCount(); got != 2 {
		t.Errorf("compiles = %d, want 2", got)
	}
	if got := dev.dispatchCount(); got != 3 {
		t.Errorf("dispatches = %d, want 3", got)
	}
}

func TestRunConstModeCompilesEveryBatch(t *testing.T) {
	dev := newFakeDevice()
	cases := scalarCases(0, 0, 0)
	for i := range cases {
		// The echo device returns zeroed buffers for input-less
		// dispatches, so zero-valued expectations hold.
		cases[i].Expected = compare.Exactly(wgsltypes.I32(0))
	}
	cfg := i32Config()
	cfg.Mode = shader.EvalConst
	cfg.BatchSize = 1

	if err := Run(context.Background(), dev, cfg, cases); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.compileCount(); got != 3 {
		t.Errorf("compiles = %d, want 3 (creation-time sources are never cached)", got)
	}
	for i, spec := range dev.dispatches {
		if spec.Input != nil {
			t.Errorf("dispatch %d bound an input buffer in creation-time mode", i)
		}
	}
}

func TestRunThrottlesInFlightBatches(t *testing.T) {
	dev := newFakeDevice()
	cfg := i32Config()
	cfg.BatchSize = 1

	if err := Run(context.Background(), dev, cfg, scalarCases(1, 2, 3, 4, 5, 6, 7, 8, 9, 10, 11, 12)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.dispatchCount(); got != 12 {
		t.Errorf("dispatches = %d, want 12", got)
	}
	if got := dev.maxInFlight.Load(); got > maxInFlight {
		t.Errorf("max in-flight batches = %d, want <= %d", got, maxInFlight)
	}
}

func TestRunVectorized(t *testing.T) {
	dev := newFakeDevice()
	cfg := i32Config()
	cfg.Vectorize = 4

	// Five scalar cases pack into two vec4 cases; the echo device
	// returns them verbatim so every packed comparator matches.
	if err := Run(context.Background(), dev, cfg, scalarCases(10, 20, 30, 40, 50)); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if got := dev.dispatchCount(); got != 1 {
		t.Fatalf("dispatches = %d, want 1", got)
	}
	// Two vec4<i32> cases at a 16-byte stride.
	if got := len(dev.dispatches[0].Input); got != 32 {
		t.Errorf("input buffer is %d bytes, want 32", got)
	}
}

func TestRunUsageErrorsBeforeDeviceWork(t *testing.T) {
	tests := []struct {
		name  string
		cfg   Config
		cases []Case
		want  error
	}{
		{
			name: "compound result type mismatch",
			cfg: Config{
				Builder: shader.CompoundAssign{Op: "+="},
				Params:  []wgsltypes.Type{wgsltypes.TypeI32, wgsltypes.TypeI32},
				Result:  wgsltypes.TypeF32,
				Mode:    shader.EvalRuntime,
			},
			cases: []Case{{
				Inputs:   []wgsltypes.Value{wgsltypes.I32(1), wgsltypes.I32(2)},
				Expected: compare.AlwaysPass(),
			}},
			want: shader.ErrCompoundResult,
		},
		{
			name: "no builder",
			cfg:  Config{},
			cases: []Case{{
				Inputs:   []wgsltypes.Value{wgsltypes.I32(1)},
				Expected: compare.AlwaysPass(),
			}},
			want: ErrNoBuilder,
		},
		{
			name: "missing expectation",
			cfg:  i32Config(),
			cases: []Case{{
				Inputs: []wgsltypes.Value{wgsltypes.I32(1)},
			}},
			want: ErrNoExpectation,
		},
		{
			name: "non-finite literal in const mode",
			cfg: Config{
				Builder: identity,
				Params:  []wgsltypes.Type{wgsltypes.TypeF32},
				Result:  wgsltypes.TypeF32,
				Mode:    shader.EvalConst,
			},
			cases: []Case{{
				Inputs:   []wgsltypes.Value{wgsltypes.F32(float32(math.Inf(1)))},
				Expected: compare.AlwaysPass(),
			}},
			want: shader.ErrNotRepresentable,
		},
		{
			name: "bad vectorize width",
			cfg: func() Config {
				c := i32Config()
				c.Vectorize = 7
				return c
			}(),
			cases: scalarCases(1),
			want:  ErrVectorWidth,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dev := newFakeDevice()
			err := Run(context.Background(), dev, tt.cfg, tt.cases)
			if !errors.Is(err, tt.want) {
				t.Fatalf("Run: %v, want %v", err, tt.want)
			}
			if dev.compileCount() != 0 || dev.dispatchCount() != 0 {
				t.Errorf("device saw %d compiles and %d dispatches before the usage error",
					dev.compileCount(), dev.dispatchCount())
			}
		})
	}
}

func TestRunDeviceErrorsAreFatal(t *testing.T) {
	dev := newFakeDevice()
	dev.compileErr = errors.New("compiler exploded")
	err := Run(context.Background(), dev, i32Config(), scalarCases(1))
	if err == nil || !strings.Contains(err.Error(), "compiler exploded") {
		t.Errorf("compile failure not surfaced: %v", err)
	}

	dev = newFakeDevice()
	dev.waitErr = errors.New("device lost")
	err = Run(context.Background(), dev, i32Config(), scalarCases(1))
	if err == nil || !strings.Contains(err.Error(), "device lost") {
		t.Errorf("wait failure not surfaced: %v", err)
	}
}

func TestRunEmptyCaseListIsNoop(t *testing.T) {
	dev := newFakeDevice()
	if err := Run(context.Background(), dev, i32Config(), nil); err != nil {
		t.Fatalf("Run: %v", err)
	}
	if dev.compileCount() != 0 {
		t.Error("empty run touched the device")
	}
}

func TestBatchErrorFormatting(t *testing.T) {
	ce := &CaseError{
		Index:    3,
		Inputs:   []string{"i32(1)", "i32(2)"},
		Got:      "i32(4)",
		Expected: "i32(3)",
	}
	be := &BatchError{Batch: 1, Cases: []*CaseError{ce}}

	msg := be.Error()
	for _, want := range []string{"batch 1", "case 3", "i32(1), i32(2)", "got i32(4)", "expected i32(3)"} {
		if !strings.Contains(msg, want) {
			t.Errorf("report missing %q: %s", want, msg)
		}
	}

	var got *CaseError
	if !errors.As(be, &got) || got != ce {
		t.Error("BatchError does not unwrap to its case errors")
	}
}
