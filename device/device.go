// Package device describes the hardware a training run executes on
package device

import "fmt"
import "runtime"
import "strings"

import "github.com/klauspost/cpuid/v2"

// Info is a summary of the execution device
type Info struct {
	Brand    string
	Physical int
	Logical  int
	Features []string

	// GPUs lists CUDA devices; empty unless built with the cuda tag
	GPUs []string
}

// Describe probes the CPU and, when compiled in, the CUDA driver
func Describe() Info {
	var info = Info{
		Brand:    cpuid.CPU.BrandName,
		Physical: cpuid.CPU.PhysicalCores,
		Logical:  cpuid.CPU.LogicalCores,
	}
	for _, f := range []cpuid.FeatureID{cpuid.SSE4, cpuid.AVX, cpuid.AVX2, cpuid.FMA3, cpuid.AVX512F, cpuid.ASIMD} {
		if cpuid.CPU.Supports(f) {
			info.Features = append(info.Features, f.String())
		}
	}
	info.GPUs = probeGPUs()
	return info
}

// Threads is the number of goroutines worth running for row parallel work
func (i Info) Threads() int {
	if i.Logical > 0 {
		return i.Logical
	}
	if i.Physical > 0 {
		return i.Physical
	}
	return runtime.NumCPU()
}

func (i Info) String() string {
	var brand = i.Brand
	if brand == "" {
		brand = runtime.GOARCH
	}
	s := fmt.Sprintf("%s cores=%d threads=%d features=[%s]", brand, i.Physical, i.Threads(), strings.Join(i.Features, " "))
	if len(i.GPUs) > 0 {
		s += " gpus=[" + strings.Join(i.GPUs, ", ") + "]"
	}
	return s
}
