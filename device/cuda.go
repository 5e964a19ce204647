//go:build cuda

package device

import "fmt"
import "log"

import "gorgonia.org/cu"

func probeGPUs() (out []string) {
	n, err := cu.NumDevices()
	if err != nil {
		log.Printf("cuda: %v", err)
		return nil
	}
	for i := 0; i < n; i++ {
		name, err := cu.Device(i).Name()
		if err != nil {
			name = fmt.Sprintf("device %d: %v", i, err)
		}
		out = append(out, name)
	}
	return out
}
