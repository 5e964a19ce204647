package feedforward

import "compress/lzw"
import "encoding/json"
import "io"
import "os"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/batchtrainer/batch"

type layerJson struct {
	Activation string    `json:"activation"`
	Inputs     int       `json:"inputs"`
	Outputs    int       `json:"outputs"`
	Weights    []float64 `json:"weights"`
	Bias       []float64 `json:"bias"`
}

// WriteCompressedWeightsToFile writes model weights to a lzw file
func (f *FeedforwardNetwork) WriteCompressedWeightsToFile(name string) error {
	file, err := os.Create(name)
	if err != nil {
		return err
	}
	err = f.WriteCompressedWeights(file)
	if cerr := file.Close(); err == nil {
		err = cerr
	}
	return err
}

// WriteCompressedWeights writes model weights to a writer
func (f *FeedforwardNetwork) WriteCompressedWeights(w io.Writer) error {
	f.mut.RLock()
	defer f.mut.RUnlock()
	lw := lzw.NewWriter(w, lzw.LSB, 8)

	_, err := lw.Write([]byte("[\n"))
	if err != nil {
		return err
	}
	for i, layer := range f.layers {
		if i != 0 {
			_, err = lw.Write([]byte(",\n"))
			if err != nil {
				return err
			}
		}
		inputs, outputs := layer.w.Dims()
		buf, err := json.Marshal(layerJson{
			Activation: layer.act.String(),
			Inputs:     inputs,
			Outputs:    outputs,
			Weights:    layer.w.RawMatrix().Data,
			Bias:       layer.b,
		})
		if err != nil {
			return err
		}
		if _, err := lw.Write(buf); err != nil {
			return err
		}
	}
	_, err = lw.Write([]byte("]\n"))
	if err != nil {
		return err
	}
	return lw.Close()
}

// ReadCompressedWeightsFromFile reads model weights from a lzw file
func (f *FeedforwardNetwork) ReadCompressedWeightsFromFile(name string) error {
	file, err := os.Open(name)
	if err != nil {
		return err
	}
	err = f.ReadCompressedWeights(file)
	file.Close()
	return err
}

// ReadCompressedWeights reads model weights from a reader. The stored layers
// must match the layers of f, and the momentum is reset.
func (f *FeedforwardNetwork) ReadCompressedWeights(r io.Reader) error {
	f.mut.Lock()
	defer f.mut.Unlock()
	lr := lzw.NewReader(r, lzw.LSB, 8)
	defer lr.Close()

	var stored []layerJson
	if err := json.NewDecoder(lr).Decode(&stored); err != nil {
		return errors.Wrap(err, "weights")
	}
	if len(stored) != len(f.layers) {
		return errors.Wrapf(batch.ErrShapeMismatch, "weights hold %d layers, network has %d", len(stored), len(f.layers))
	}
	for i, s := range stored {
		inputs, outputs := f.layers[i].w.Dims()
		if s.Inputs != inputs || s.Outputs != outputs || len(s.Weights) != inputs*outputs || len(s.Bias) != outputs {
			return errors.Wrapf(batch.ErrShapeMismatch, "layer %d is %dx%d, network has %dx%d", i, s.Inputs, s.Outputs, inputs, outputs)
		}
		act, err := parseActivation(s.Activation)
		if err != nil {
			return errors.Wrapf(err, "layer %d", i)
		}
		if act != f.layers[i].act {
			return errors.Wrapf(batch.ErrShapeMismatch, "layer %d activation %s, network has %s", i, act, f.layers[i].act)
		}
	}
	for i, s := range stored {
		layer := &f.layers[i]
		layer.w.Copy(mat.NewDense(s.Inputs, s.Outputs, s.Weights))
		copy(layer.b, s.Bias)
		layer.vw.Zero()
		for j := range layer.vb {
			layer.vb[j] = 0
		}
	}
	return nil
}
