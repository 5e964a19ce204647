package trainer

import "log"

// Weights is a model that persists its weights to a file
type Weights interface {
	ReadCompressedWeightsFromFile(name string) error
	WriteCompressedWeightsToFile(name string) error
}

// Resume loads dstmodel into net when resume is set. A missing or
// incompatible file is logged and training starts from scratch.
func Resume(net Weights, resume bool, dstmodel string) bool {
	if !resume || dstmodel == "" {
		return false
	}
	if err := net.ReadCompressedWeightsFromFile(dstmodel); err != nil {
		log.Printf("resume %s: %v", dstmodel, err)
		return false
	}
	log.Printf("resumed weights from %s", dstmodel)
	return true
}

// Save writes the weights to dstmodel unless it is empty
func Save(net Weights, dstmodel string) error {
	if dstmodel == "" {
		return nil
	}
	return net.WriteCompressedWeightsToFile(dstmodel)
}
