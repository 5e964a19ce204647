// Package feedforward implements a dense feedforward network type trained by
// minibatch gradient descent with momentum
package feedforward

import "math"
import "math/rand"
import "runtime"
import "sync"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/batchtrainer/batch"
import "github.com/neurlang/batchtrainer/config"
import "github.com/neurlang/batchtrainer/parallel"

// ErrLabel is returned for a label outside [0, classes)
var ErrLabel = errors.New("label out of range")

// Activation is applied element wise to a layer output
type Activation byte

const (
	// Identity leaves the layer output as is
	Identity Activation = iota

	// ReLU clamps negative outputs to zero
	ReLU
)

func (a Activation) String() string {
	if a == ReLU {
		return "relu"
	}
	return "identity"
}

func parseActivation(s string) (Activation, error) {
	switch s {
	case "identity":
		return Identity, nil
	case "relu":
		return ReLU, nil
	}
	return Identity, errors.Errorf("unknown activation %q", s)
}

type dense struct {
	act Activation

	// w is inputs x outputs, vw and vb are the momentum velocities
	w  *mat.Dense
	b  []float64
	vw *mat.Dense
	vb []float64
}

// Config describes a reference network
type Config struct {
	Arch         string
	Inputs       int
	Hidden       int
	Classes      int
	LearningRate float64
	Momentum     float64
	Threads      int
	Seed         int64
}

// FeedforwardNetwork is the feedforward network. The final layer output goes
// through a row wise softmax, so every output row holds class probabilities.
type FeedforwardNetwork struct {
	mut    sync.RWMutex
	layers []dense
	rng    *rand.Rand
	loss   float64

	LearningRate float64
	Momentum     float64

	// Threads bounds the goroutines used per step, all CPUs when zero
	Threads int
}

// New builds a linear or a one hidden layer mlp network
func New(c Config) (*FeedforwardNetwork, error) {
	if err := config.CheckModel(c.Arch); err != nil {
		return nil, err
	}
	if c.Inputs <= 0 || c.Classes < 2 {
		return nil, errors.Wrapf(config.ErrConfiguration, "network needs inputs and at least 2 classes (got %d, %d)", c.Inputs, c.Classes)
	}
	if c.LearningRate <= 0 {
		return nil, errors.Wrapf(config.ErrConfiguration, "learning rate must be > 0 (got %v)", c.LearningRate)
	}
	var net = &FeedforwardNetwork{
		rng:          rand.New(rand.NewSource(c.Seed)),
		LearningRate: c.LearningRate,
		Momentum:     c.Momentum,
		Threads:      c.Threads,
	}
	switch c.Arch {
	case "linear":
		net.NewLayer(c.Inputs, c.Classes, Identity)
	case "mlp":
		if c.Hidden <= 0 {
			return nil, errors.Wrapf(config.ErrConfiguration, "mlp needs hidden units (got %d)", c.Hidden)
		}
		net.NewLayer(c.Inputs, c.Hidden, ReLU)
		net.NewLayer(c.Hidden, c.Classes, Identity)
	}
	return net, nil
}

// NewLayer adds a dense layer to the end of network. Weights start normally
// distributed with variance scaled by the fan in.
func (f *FeedforwardNetwork) NewLayer(inputs, outputs int, act Activation) {
	if f.rng == nil {
		f.rng = rand.New(rand.NewSource(1))
	}
	var gain = 1.0
	if act == ReLU {
		gain = 2
	}
	sigma := math.Sqrt(gain / float64(inputs))
	w := mat.NewDense(inputs, outputs, nil)
	raw := w.RawMatrix().Data
	for i := range raw {
		raw[i] = f.rng.NormFloat64() * sigma
	}
	f.layers = append(f.layers, dense{
		act: act,
		w:   w,
		b:   make([]float64, outputs),
		vw:  mat.NewDense(inputs, outputs, nil),
		vb:  make([]float64, outputs),
	})
}

// LenLayers returns the number of layers
func (f *FeedforwardNetwork) LenLayers() int {
	return len(f.layers)
}

// Inputs is the number of features per sample
func (f *FeedforwardNetwork) Inputs() int {
	if len(f.layers) == 0 {
		return 0
	}
	r, _ := f.layers[0].w.Dims()
	return r
}

// Classes is the number of scores per output row
func (f *FeedforwardNetwork) Classes() int {
	if len(f.layers) == 0 {
		return 0
	}
	_, c := f.layers[len(f.layers)-1].w.Dims()
	return c
}

// LastLoss is the mean cross entropy of the last trained batch
func (f *FeedforwardNetwork) LastLoss() float64 {
	f.mut.RLock()
	defer f.mut.RUnlock()
	return f.loss
}

func (f *FeedforwardNetwork) threads() int {
	if f.Threads > 0 {
		return f.Threads
	}
	return runtime.NumCPU()
}

// forward returns the input of every layer followed by the softmax output
func (f *FeedforwardNetwork) forward(x *mat.Dense) []*mat.Dense {
	var acts = []*mat.Dense{x}
	rows, _ := x.Dims()
	for l := range f.layers {
		layer := &f.layers[l]
		_, outputs := layer.w.Dims()
		z := mat.NewDense(rows, outputs, nil)
		z.Mul(acts[l], layer.w)
		last := l == len(f.layers)-1
		parallel.ForEach(rows, f.threads(), func(i int) {
			row := z.RawRowView(i)
			floats.Add(row, layer.b)
			if layer.act == ReLU {
				for j, v := range row {
					if v < 0 {
						row[j] = 0
					}
				}
			}
			if last {
				softmax(row)
			}
		})
		acts = append(acts, z)
	}
	return acts
}

func softmax(row []float64) {
	top := floats.Max(row)
	for j, v := range row {
		row[j] = math.Exp(v - top)
	}
	floats.Scale(1/floats.Sum(row), row)
}

func (f *FeedforwardNetwork) checkInput(input *batch.Buffer) error {
	if len(f.layers) == 0 {
		return errors.Wrap(config.ErrConfiguration, "network has no layers")
	}
	if input.Cols() != f.Inputs() {
		return errors.Wrapf(batch.ErrShapeMismatch, "input has %d features, network takes %d", input.Cols(), f.Inputs())
	}
	return nil
}

// Predict computes the class probabilities of every input row
func (f *FeedforwardNetwork) Predict(input *batch.Buffer) (*batch.Buffer, error) {
	f.mut.RLock()
	defer f.mut.RUnlock()
	if err := f.checkInput(input); err != nil {
		return nil, err
	}
	var out *mat.Dense
	err := input.Read(func(x *mat.Dense) error {
		acts := f.forward(x)
		out = acts[len(acts)-1]
		return nil
	})
	if err != nil {
		return nil, err
	}
	return batch.FromDense(out), nil
}

// TrainStep runs one forward and backward pass over the batch and updates the
// weights. It returns the class probabilities computed before the update.
func (f *FeedforwardNetwork) TrainStep(input, labels *batch.Buffer) (*batch.Buffer, error) {
	f.mut.Lock()
	defer f.mut.Unlock()
	if err := f.checkInput(input); err != nil {
		return nil, err
	}
	if labels.Rows() != input.Rows() || labels.Cols() != 1 {
		return nil, errors.Wrapf(batch.ErrShapeMismatch, "labels are %dx%d for %d inputs", labels.Rows(), labels.Cols(), input.Rows())
	}

	var out *mat.Dense
	err := input.Read(func(x *mat.Dense) error {
		return labels.Read(func(y *mat.Dense) error {
			classes := make([]int, input.Rows())
			for i := range classes {
				classes[i] = int(y.At(i, 0))
				if classes[i] < 0 || classes[i] >= f.Classes() {
					return errors.Wrapf(ErrLabel, "row %d label %v", i, y.At(i, 0))
				}
			}
			acts := f.forward(x)
			out = mat.DenseCopyOf(acts[len(acts)-1])
			f.backward(acts, classes)
			return nil
		})
	})
	if err != nil {
		return nil, err
	}
	return batch.FromDense(out), nil
}

// backward turns the softmax output into the cross entropy gradient in place
// and applies the momentum update layer by layer
func (f *FeedforwardNetwork) backward(acts []*mat.Dense, classes []int) {
	rows := len(classes)
	delta := acts[len(acts)-1]
	var loss float64
	for i, c := range classes {
		p := delta.At(i, c)
		loss -= math.Log(math.Max(p, 1e-12))
		delta.Set(i, c, p-1)
	}
	f.loss = loss / float64(rows)
	delta.Scale(1/float64(rows), delta)

	for l := len(f.layers) - 1; l >= 0; l-- {
		layer := &f.layers[l]
		inputs, outputs := layer.w.Dims()

		var gw mat.Dense
		gw.Mul(acts[l].T(), delta)
		gb := make([]float64, outputs)
		for i := 0; i < rows; i++ {
			floats.Add(gb, delta.RawRowView(i))
		}

		var next *mat.Dense
		if l > 0 {
			next = mat.NewDense(rows, inputs, nil)
			next.Mul(delta, layer.w.T())
			if f.layers[l-1].act == ReLU {
				prev := acts[l]
				parallel.ForEach(rows, f.threads(), func(i int) {
					row := next.RawRowView(i)
					for j, v := range prev.RawRowView(i) {
						if v <= 0 {
							row[j] = 0
						}
					}
				})
			}
		}

		layer.vw.Scale(f.Momentum, layer.vw)
		gw.Scale(-f.LearningRate, &gw)
		layer.vw.Add(layer.vw, &gw)
		layer.w.Add(layer.w, layer.vw)

		floats.Scale(f.Momentum, layer.vb)
		floats.AddScaled(layer.vb, -f.LearningRate, gb)
		floats.Add(layer.b, layer.vb)

		delta = next
	}
}
