// Package main provides the strided CLI: build information and quick kernel
// benchmarks for the host.
package main

import (
	"flag"
	"fmt"
	"os"
	"strconv"
	"time"
	"unsafe"

	"k8s.io/klog/v2"

	"github.com/born-ml/strided/backend/cpu"
	internalcpu "github.com/born-ml/strided/internal/backend/cpu"
	"github.com/born-ml/strided/tensor"
)

const version = "v0.1.0-dev"

func main() {
	klog.InitFlags(nil)
	flag.Parse()
	defer klog.Flush()

	args := flag.Args()
	if len(args) == 0 {
		usage()
		return
	}
	switch args[0] {
	case "version":
		fmt.Printf("strided %s\n", version)
	case "info":
		info(cpu.New())
	case "bench":
		n := 512
		if len(args) > 1 {
			v, err := strconv.Atoi(args[1])
			if err != nil || v <= 0 {
				fmt.Fprintf(os.Stderr, "bench: invalid size %q\n", args[1])
				os.Exit(2)
			}
			n = v
		}
		if err := bench(cpu.New(), n); err != nil {
			klog.Errorf("bench: %+v", err)
			os.Exit(1)
		}
	default:
		fmt.Fprintf(os.Stderr, "unknown command %q\n\n", args[0])
		usage()
		os.Exit(2)
	}
}

func usage() {
	fmt.Println("strided - dense strided tensors for Go")
	fmt.Printf("Version: %s\n\n", version)
	fmt.Println("Commands:")
	fmt.Println("  version       Show version")
	fmt.Println("  info          Show vector width, lanes per element type and worker count")
	fmt.Println("  bench [n]     Time an n x n matrix product and a transposed copy (default 512)")
	fmt.Println("")
	fmt.Println("Logging flags (-v, -logtostderr, ...) are those of klog.")
}

func info(b *cpu.Backend) {
	cfg := b.Config()
	fmt.Printf("Backend:        %s\n", b.Name())
	fmt.Printf("Vector bytes:   %d\n", b.VectorBytes())
	fmt.Printf("Workers:        %d\n", b.Workers())
	fmt.Printf("L2 cache bytes: %d\n", cfg.L2CacheBytes)
	fmt.Printf("Parallel copy:  >= %d bytes\n", cfg.ParallelCopyBytes)
	fmt.Println("Lanes:")
	for _, dt := range []tensor.DataType{tensor.Uint8, tensor.Int32, tensor.Int64, tensor.Float32, tensor.Float64} {
		fmt.Printf("  %-8s %2d lanes, matmul block %d\n", dt, b.LanesFor(dt),
			internalcpu.BlockSize(cfg.L2CacheBytes, b.Workers(), dt.Size()))
	}
}

func bench(b *cpu.Backend, n int) error {
	x, err := tensor.Random[float64](tensor.Shape{n, n}, 1, b)
	if err != nil {
		return err
	}
	y, err := tensor.Random[float64](tensor.Shape{n, n}, 2, b)
	if err != nil {
		return err
	}

	start := time.Now()
	z, err := x.MM(y)
	if err != nil {
		return err
	}
	mm := time.Since(start)
	flops := 2 * float64(n) * float64(n) * float64(n)
	fmt.Printf("mm   %dx%d: %v (%.2f GFLOP/s), checksum %.6g\n", n, n, mm, flops/mm.Seconds()/1e9, z.Sum())

	start = time.Now()
	c := x.Transpose().Copy(tensor.C)
	cp := time.Since(start)
	var dummy float64
	bytes := float64(c.Size()) * float64(unsafe.Sizeof(dummy))
	fmt.Printf("copy %dx%d transposed: %v (%.2f GB/s)\n", n, n, cp, bytes/cp.Seconds()/1e9)
	return nil
}
