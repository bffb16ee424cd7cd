// Command wgslverify runs a small expression smoke suite against the
// first available GPU. It is a quick way to check that a device,
// driver and WGSL toolchain agree with the CPU on basic arithmetic.
package main

import (
	"context"
	"flag"
	"fmt"
	"log"
	"log/slog"
	"os"
	"time"

	"github.com/gogpu/wgslverify"
	"github.com/gogpu/wgslverify/backend/wgpu"
	"github.com/gogpu/wgslverify/compare"
	"github.com/gogpu/wgslverify/shader"
	"github.com/gogpu/wgslverify/wgsltypes"
)

func main() {
	var (
		uniform  = flag.Bool("uniform", false, "bind inputs as a uniform buffer instead of storage")
		validate = flag.Bool("validate", false, "validate generated WGSL with naga before compiling")
		verbose  = flag.Bool("v", false, "enable debug logging")
		batch    = flag.Int("batch", 0, "cases per dispatch (0 = derive from device limits)")
		vecWidth = flag.Int("vectorize", 4, "vector width for the packed float suite (2-4)")
		timeout  = flag.Duration("timeout", 60*time.Second, "overall deadline for the suite")
	)
	flag.Parse()

	if *verbose {
		wgslverify.SetLogger(slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{
			Level: slog.LevelDebug,
		})))
	}

	dev, err := wgpu.Open()
	if err != nil {
		log.Fatalf("open GPU: %v", err)
	}
	defer dev.Close()
	log.Printf("device: %s", dev.Name())

	class := wgsltypes.ClassStorage
	if *uniform {
		class = wgsltypes.ClassUniform
	}

	ctx, cancel := context.WithTimeout(context.Background(), *timeout)
	defer cancel()

	failed := 0
	for _, s := range suites(class, *validate, *batch, *vecWidth) {
		if err := wgslverify.Run(ctx, dev, s.cfg, s.cases); err != nil {
			failed++
			log.Printf("FAIL %s:\n%v", s.name, err)
			continue
		}
		fmt.Printf("ok   %s (%d cases)\n", s.name, len(s.cases))
	}
	if failed > 0 {
		os.Exit(1)
	}
}

type suite struct {
	name  string
	cfg   wgslverify.Config
	cases []wgslverify.Case
}

func suites(class wgsltypes.StorageClass, validate bool, batch, vecWidth int) []suite {
	i32 := wgsltypes.TypeI32
	u32 := wgsltypes.TypeU32
	f32 := wgsltypes.TypeF32

	addCases := make([]wgslverify.Case, 0, 64)
	for a := int32(-4); a < 4; a++ {
		for b := int32(-4); b < 4; b++ {
			addCases = append(addCases, wgslverify.Case{
				Inputs:   []wgsltypes.Value{wgsltypes.I32(a), wgsltypes.I32(b)},
				Expected: compare.Exactly(wgsltypes.I32(a + b)),
			})
		}
	}

	shiftCases := make([]wgslverify.Case, 0, 32)
	for v := uint32(1); v <= 8; v++ {
		for s := uint32(0); s < 4; s++ {
			shiftCases = append(shiftCases, wgslverify.Case{
				Inputs:   []wgsltypes.Value{wgsltypes.U32(v), wgsltypes.U32(s)},
				Expected: compare.Exactly(wgsltypes.U32(v << s)),
			})
		}
	}

	mulCases := make([]wgslverify.Case, 0, 16)
	for i := 0; i < 16; i++ {
		a := float64(i) * 0.25
		got := a * 3.0
		mulCases = append(mulCases, wgslverify.Case{
			Inputs:   []wgsltypes.Value{wgsltypes.F32(float32(a))},
			Expected: compare.In(got-1e-5, got+1e-5),
		})
	}

	return []suite{
		{
			name: "i32 add",
			cfg: wgslverify.Config{
				Builder:        shader.Basic{Expr: shader.Binary("+")},
				Params:         []wgsltypes.Type{i32, i32},
				Result:         i32,
				Class:          class,
				BatchSize:      batch,
				ValidateSource: validate,
			},
			cases: addCases,
		},
		{
			name: "u32 shift-assign",
			cfg: wgslverify.Config{
				Builder:        shader.CompoundAssign{Op: "<<="},
				Params:         []wgsltypes.Type{u32, u32},
				Result:         u32,
				Class:          class,
				BatchSize:      batch,
				ValidateSource: validate,
			},
			cases: shiftCases,
		},
		{
			name: "f32 multiply (vectorized)",
			cfg: wgslverify.Config{
				Builder:        shader.Basic{Expr: func(args []string) string { return "(" + args[0] + " * 3.0f)" }},
				Params:         []wgsltypes.Type{f32},
				Result:         f32,
				Class:          class,
				Vectorize:      vecWidth,
				ValidateSource: validate,
			},
			cases: mulCases,
		},
		{
			name: "i32 add const-eval",
			cfg: wgslverify.Config{
				Builder:        shader.Basic{Expr: shader.Binary("+")},
				Params:         []wgsltypes.Type{i32, i32},
				Result:         i32,
				Mode:           shader.EvalConst,
				Class:          class,
				BatchSize:      batch,
				ValidateSource: validate,
			},
			cases: addCases[:16],
		},
	}
}
