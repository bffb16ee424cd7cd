// Copyright 2026 The gogpu Authors
// SPDX-License-Identifier: BSD-3-Clause

package wgslverify

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/gogpu/naga"
	"golang.org/x/sync/errgroup"

	"github.com/gogpu/wgslverify/internal/cache"
	"github.com/gogpu/wgslverify/shader"
	"github.com/gogpu/wgslverify/wgsltypes"
)

const (
	// maxInFlight caps the number of outstanding batches. Submission of
	// further batches blocks until an earlier one completes.
	maxInFlight = 5

	// constBatchSize is the per-batch case count for creation-time
	// evaluation. Tuned for compiler latency, not correctness: every
	// case adds creation-time work, so batches stay small.
	constBatchSize = 64
)

// Run verifies every case against the device and returns nil when all
// expectations hold. Usage errors surface before any program is
// compiled or dispatched; the one device interaction preceding
// validation is the Limits query, a plain capability read used to plan
// batch sizes. Device errors abort the run; expectation mismatches are
// collected into one *BatchError per failing batch and joined.
func Run(ctx context.Context, dev Device, cfg Config, cases []Case) error {
	if cfg.Builder == nil {
		return ErrNoBuilder
	}
	if len(cases) == 0 {
		return nil
	}
	for i, c := range cases {
		if c.Expected == nil {
			return fmt.Errorf("case %d: %w", i, ErrNoExpectation)
		}
	}

	params, result := cfg.Params, cfg.Result
	if cfg.Vectorize > 0 {
		var err error
		params, result, cases, err = vectorize(cfg.Vectorize, params, result, cases)
		if err != nil {
			return err
		}
	}

	sizing, err := planBatches(dev.Limits(), cfg, params, result, len(cases))
	if err != nil {
		return err
	}
	Logger().Debug("run planned",
		"cases", len(cases),
		"batchSize", sizing.batchSize,
		"mode", cfg.Mode.String(),
		"class", cfg.Class.String())

	var (
		progs = cache.New[string, Program](0)
		gate  = make(chan struct{}, maxInFlight)

		mu        sync.Mutex
		batchErrs []error

		ownedMu sync.Mutex
		owned   []Program
	)
	g, gctx := errgroup.WithContext(ctx)
	defer func() {
		// Cached programs outlive their batches; release them once the
		// whole run has settled.
		for _, p := range owned {
			p.Destroy()
		}
	}()

	submitted := 0
	for start, batch := 0, 0; start < len(cases); start, batch = start+sizing.batchSize, batch+1 {
		end := min(start+sizing.batchSize, len(cases))
		batchCases := cases[start:end]

		src, err := cfg.Builder.Build(shader.Request{
			Params: params,
			Result: result,
			Inputs: inputRows(batchCases),
			Mode:   cfg.Mode,
			Class:  cfg.Class,
			Unroll: cfg.Unroll,
		})
		if err != nil {
			return errors.Join(err, g.Wait())
		}
		if cfg.ValidateSource {
			if _, err := naga.Parse(src); err != nil {
				return errors.Join(fmt.Errorf("wgslverify: generated source rejected: %w", err), g.Wait())
			}
		}

		var prog Program
		if cfg.Mode == shader.EvalConst {
			// Creation-time sources embed their cases, so no two
			// batches share source and caching would only hold garbage.
			prog, err = dev.Compile(gctx, src)
		} else {
			prog, err = progs.GetOrBuild(src, func() (Program, error) {
				p, err := dev.Compile(gctx, src)
				if err != nil {
					return nil, err
				}
				ownedMu.Lock()
				owned = append(owned, p)
				ownedMu.Unlock()
				return p, nil
			})
		}
		if err != nil {
			return errors.Join(fmt.Errorf("wgslverify: batch %d compile: %w", batch, err), g.Wait())
		}

		var input []byte
		if cfg.Mode == shader.EvalRuntime {
			input, err = encodeInputs(batchCases, sizing.inLayout, cfg.Class)
			if err != nil {
				return errors.Join(err, g.Wait())
			}
		}

		// Admission gate: block until fewer than maxInFlight batches
		// are outstanding.
		select {
		case gate <- struct{}{}:
		case <-gctx.Done():
			return errors.Join(context.Cause(gctx), g.Wait())
		}

		pending, err := prog.Dispatch(gctx, DispatchSpec{
			Input:      input,
			InputClass: cfg.Class,
			OutputSize: uint32(len(batchCases)) * sizing.outStride,
		})
		if err != nil {
			<-gate
			if cfg.Mode == shader.EvalConst {
				prog.Destroy()
			}
			return errors.Join(fmt.Errorf("wgslverify: batch %d dispatch: %w", batch, err), g.Wait())
		}
		submitted++

		batchIdx, base, ownProg := batch, start, prog
		ownedConst := cfg.Mode == shader.EvalConst
		g.Go(func() error {
			defer func() { <-gate }()
			if ownedConst {
				defer ownProg.Destroy()
			}

			out, err := pending.Wait(gctx)
			if err != nil {
				return fmt.Errorf("wgslverify: batch %d wait: %w", batchIdx, err)
			}
			be := checkBatch(batchIdx, base, batchCases, result, sizing.outStride, out, src)
			if be != nil {
				mu.Lock()
				batchErrs = append(batchErrs, be)
				mu.Unlock()
			}
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		return err
	}
	stats := progs.Stats()
	Logger().Debug("run complete",
		"batches", submitted,
		"cacheHits", stats.Hits,
		"cacheMisses", stats.Misses,
		"failedBatches", len(batchErrs))
	return errors.Join(batchErrs...)
}

// batchSizing holds the per-run layout and sizing decisions.
type batchSizing struct {
	batchSize int
	inLayout  wgsltypes.MemberLayout
	outStride uint32
}

// planBatches derives the batch size. Creation-time evaluation uses a
// fixed size; runtime evaluation packs as many cases as fit both the
// input binding (in its configured class) and the output binding
// (always storage).
func planBatches(limits Limits, cfg Config, params []wgsltypes.Type, result wgsltypes.Type, total int) (batchSizing, error) {
	var s batchSizing
	s.outStride = wgsltypes.StrideOf(wgsltypes.StorageType(result), wgsltypes.ClassStorage)

	if cfg.Mode == shader.EvalConst {
		s.batchSize = constBatchSize
		if cfg.BatchSize > 0 {
			s.batchSize = cfg.BatchSize
		}
		return s, nil
	}

	stored := make([]wgsltypes.Type, len(params))
	for j, p := range params {
		stored[j] = wgsltypes.StorageType(p)
	}
	l, err := wgsltypes.LayoutMembers(stored, cfg.Class)
	if err != nil {
		return s, fmt.Errorf("wgslverify: input layout: %w", err)
	}
	s.inLayout = l

	byInput := limits.ForClass(cfg.Class) / uint64(l.Stride)
	byOutput := limits.MaxStorageBindingSize / uint64(s.outStride)
	n := min(byInput, byOutput)
	if n == 0 {
		return s, fmt.Errorf("input stride %d, output stride %d: %w", l.Stride, s.outStride, ErrBindingLimit)
	}
	if uint64(total) < n {
		n = uint64(total)
	}
	s.batchSize = int(n)
	if cfg.BatchSize > 0 && cfg.BatchSize < s.batchSize {
		s.batchSize = cfg.BatchSize
	}
	return s, nil
}

// inputRows lifts the cases' input values into the builder's request shape.
func inputRows(cases []Case) [][]wgsltypes.Value {
	rows := make([][]wgsltypes.Value, len(cases))
	for i, c := range cases {
		rows[i] = c.Inputs
	}
	return rows
}

// encodeInputs packs one batch's inputs into an input buffer, one
// struct per case at the layout's member offsets.
func encodeInputs(cases []Case, l wgsltypes.MemberLayout, c wgsltypes.StorageClass) ([]byte, error) {
	buf := make([]byte, uint32(len(cases))*l.Stride)
	for i, cs := range cases {
		base := uint32(i) * l.Stride
		for j, v := range cs.Inputs {
			if err := v.Encode(buf, base+l.Offsets[j], c); err != nil {
				return nil, fmt.Errorf("wgslverify: case %d input %d: %w", i, j, err)
			}
		}
	}
	return buf, nil
}

// checkBatch decodes one batch's output buffer and compares each case,
// returning a *BatchError when any expectation fails.
func checkBatch(batch, base int, cases []Case, result wgsltypes.Type, outStride uint32, out []byte, src string) *BatchError {
	var failures []*CaseError
	for i, cs := range cases {
		got, err := wgsltypes.Decode(result, out, uint32(i)*outStride, wgsltypes.ClassStorage)
		if err != nil {
			failures = append(failures, &CaseError{
				Index:    base + i,
				Inputs:   inputReprs(cs),
				Got:      fmt.Sprintf("<decode failed: %v>", err),
				Expected: "",
			})
			continue
		}
		r := cs.Expected.Compare(got)
		if !r.Matched {
			failures = append(failures, &CaseError{
				Index:    base + i,
				Inputs:   inputReprs(cs),
				Got:      r.Got,
				Expected: r.Expected,
			})
		}
	}
	if len(failures) == 0 {
		return nil
	}
	return &BatchError{Batch: batch, Source: src, Cases: failures}
}

func inputReprs(c Case) []string {
	reprs := make([]string, len(c.Inputs))
	for j, v := range c.Inputs {
		reprs[j] = v.String()
	}
	return reprs
}
