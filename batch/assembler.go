package batch

import "io"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/batchtrainer/datasets"

// Fill describes one assembled minibatch
type Fill struct {
	// Written is the number of samples copied into the buffers
	Written int

	// Labels holds the true class of each written sample, in row order
	Labels []int
}

// Short reports whether the sequence ran out before batchSize samples
func (f Fill) Short(batchSize int) bool {
	return f.Written < batchSize
}

// Assembler copies records into minibatch buffers
type Assembler struct {
	// Scale multiplies every pixel before it is stored; zero stores raw values
	Scale float64
}

// Fill pulls up to batchSize records from seq and writes sample n into row n
// of input and its label into row n of labels. Both buffers stay write locked
// for the whole fill. Rows past Written are zeroed, so a short batch never
// carries samples of the previous one. End of data is reported as a short
// Fill, never as an error.
func (a Assembler) Fill(input, labels *Buffer, seq datasets.Sequence, batchSize int) (Fill, error) {
	if batchSize <= 0 {
		return Fill{}, errors.Wrapf(ErrShapeMismatch, "batch size must be > 0 (got %d)", batchSize)
	}
	var scale = a.Scale
	if scale == 0 {
		scale = 1
	}
	var fill = Fill{Labels: make([]int, 0, batchSize)}
	err := input.Write(func(in *mat.Dense) error {
		return labels.Write(func(lab *mat.Dense) error {
			defer func() {
				zeroRows(in, fill.Written)
				zeroRows(lab, fill.Written)
			}()
			for n := 0; n < batchSize; n++ {
				if n >= input.Rows() || n >= labels.Rows() {
					return errors.Wrapf(ErrBufferOverflow, "batch row %d", n)
				}
				rec, err := seq.Next()
				if err == io.EOF {
					return nil
				}
				if err != nil {
					return errors.Wrapf(err, "batch row %d", n)
				}
				if err := writeRow(in, n, rec.Pixels, scale); err != nil {
					return err
				}
				lab.Set(n, 0, float64(rec.Label))
				fill.Labels = append(fill.Labels, int(rec.Label))
				fill.Written++
			}
			return nil
		})
	})
	return fill, err
}
