// Package device selects the compute device of a run
package device

import "fmt"
import "runtime"

import "github.com/klauspost/cpuid/v2"
import "github.com/pkg/errors"

// ErrNoCUDA is returned when a GPU is requested from a binary built without the cuda tag
var ErrNoCUDA = errors.New("built without cuda support")

// ErrOrdinal is returned for a GPU index that does not exist
var ErrOrdinal = errors.New("no such gpu")

// Info describes the selected device
type Info struct {
	GPU     int // -1 for the CPU
	Name    string
	Memory  int64 // bytes, GPU only
	Compute string

	PhysicalCores int
	LogicalCores  int
	AVX2          bool
	AVX512        bool

	Threads int // recommended worker count for inference
}

func (i Info) String() string {
	if i.GPU >= 0 {
		return fmt.Sprintf("gpu %d: %s, compute %s, %d MiB", i.GPU, i.Name, i.Compute, i.Memory>>20)
	}
	return fmt.Sprintf("cpu: %s, %d cores, %d threads, avx2 %v, avx512 %v",
		i.Name, i.PhysicalCores, i.LogicalCores, i.AVX2, i.AVX512)
}

// CPU inspects the host processor
func CPU() Info {
	var i = Info{
		GPU:           -1,
		Name:          cpuid.CPU.BrandName,
		PhysicalCores: cpuid.CPU.PhysicalCores,
		LogicalCores:  cpuid.CPU.LogicalCores,
		AVX2:          cpuid.CPU.Supports(cpuid.AVX2),
		AVX512:        cpuid.CPU.Supports(cpuid.AVX512F, cpuid.AVX512DQ),
	}
	if i.Name == "" {
		i.Name = runtime.GOARCH
	}
	i.Threads = i.LogicalCores
	if i.Threads <= 0 {
		i.Threads = runtime.NumCPU()
	}
	return i
}

// Select returns the CPU for a negative gpu and the CUDA device of that ordinal otherwise
func Select(gpu int) (Info, error) {
	if gpu < 0 {
		return CPU(), nil
	}
	i, err := cuda(gpu)
	if err != nil {
		return Info{}, errors.Wrapf(err, "gpu %d", gpu)
	}
	i.Threads = CPU().Threads
	return i, nil
}
