//go:build !cuda

package device

func cuda(gpu int) (Info, error) {
	return Info{}, ErrNoCUDA
}
