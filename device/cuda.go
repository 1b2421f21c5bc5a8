//go:build cuda

package device

import "fmt"

import "github.com/pkg/errors"
import "gorgonia.org/cu"

func cuda(gpu int) (Info, error) {
	n, err := cu.NumDevices()
	if err != nil {
		return Info{}, err
	}
	if gpu >= n {
		return Info{}, errors.Wrapf(ErrOrdinal, "%d devices", n)
	}
	d := cu.Device(gpu)
	name, err := d.Name()
	if err != nil {
		return Info{}, err
	}
	memory, err := d.TotalMem()
	if err != nil {
		return Info{}, err
	}
	major, err := d.Attribute(cu.ComputeCapabilityMajor)
	if err != nil {
		return Info{}, err
	}
	minor, err := d.Attribute(cu.ComputeCapabilityMinor)
	if err != nil {
		return Info{}, err
	}
	return Info{GPU: gpu, Name: name, Memory: memory, Compute: fmt.Sprintf("%d.%d", major, minor)}, nil
}
