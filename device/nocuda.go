//go:build !cuda

package device

func probeGPUs() []string {
	return nil
}
