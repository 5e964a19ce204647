// Package batch implements the lock guarded minibatch buffers and the
// assembler that fills them from a record sequence
package batch

import "sync"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

// ErrBufferOverflow is returned when a write would land past the last row
var ErrBufferOverflow = errors.New("buffer overflow")

// ErrShapeMismatch is returned when a buffer or sample does not have the agreed shape
var ErrShapeMismatch = errors.New("shape mismatch")

// Buffer is a [rows, ...sample shape] float64 buffer. The samples are stored
// row-major as a rows x prod(sample shape) matrix. Access goes through Write
// and Read, which hold the buffer lock only for the duration of the callback.
type Buffer struct {
	mu    sync.RWMutex
	m     *mat.Dense
	shape []int
}

// New allocates a zeroed buffer of rows samples of the given sample shape.
// An empty sample shape means one value per row.
func New(rows int, sampleShape ...int) (*Buffer, error) {
	if rows <= 0 {
		return nil, errors.Wrapf(ErrShapeMismatch, "rows must be > 0 (got %d)", rows)
	}
	var cols = 1
	for _, d := range sampleShape {
		if d <= 0 {
			return nil, errors.Wrapf(ErrShapeMismatch, "sample shape %v has a non-positive dimension", sampleShape)
		}
		cols *= d
	}
	shape := append([]int{rows}, sampleShape...)
	if len(sampleShape) == 0 {
		shape = append(shape, 1)
	}
	return &Buffer{m: mat.NewDense(rows, cols, nil), shape: shape}, nil
}

// MustNew is New for shapes known to be valid
func MustNew(rows int, sampleShape ...int) *Buffer {
	b, err := New(rows, sampleShape...)
	if err != nil {
		panic(err.Error())
	}
	return b
}

// FromDense takes ownership of m as a [rows, cols] buffer
func FromDense(m *mat.Dense) *Buffer {
	r, c := m.Dims()
	return &Buffer{m: m, shape: []int{r, c}}
}

// Rows is the number of samples the buffer holds
func (b *Buffer) Rows() int {
	return b.shape[0]
}

// Cols is the flattened size of one sample
func (b *Buffer) Cols() int {
	_, c := b.m.Dims()
	return c
}

// Shape returns a copy of [rows, ...sample shape]
func (b *Buffer) Shape() []int {
	return append([]int(nil), b.shape...)
}

// Write runs fn with exclusive access to the buffer contents
func (b *Buffer) Write(fn func(m *mat.Dense) error) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	return fn(b.m)
}

// Read runs fn with shared access to the buffer contents. fn must not modify m.
func (b *Buffer) Read(fn func(m *mat.Dense) error) error {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return fn(b.m)
}

// CheckOutput verifies a trainer output holds rows samples of classes scores
func CheckOutput(out *Buffer, rows, classes int) error {
	if out == nil {
		return errors.Wrap(ErrShapeMismatch, "trainer returned no output")
	}
	if out.Rows() != rows || out.Cols() != classes {
		return errors.Wrapf(ErrShapeMismatch, "output is %dx%d, want %dx%d", out.Rows(), out.Cols(), rows, classes)
	}
	return nil
}

func writeRow(m *mat.Dense, n int, values []uint8, scale float64) error {
	r, c := m.Dims()
	if n >= r {
		return errors.Wrapf(ErrBufferOverflow, "row %d of %d", n, r)
	}
	if len(values) != c {
		return errors.Wrapf(ErrShapeMismatch, "row %d: sample has %d values, buffer row holds %d", n, len(values), c)
	}
	row := m.RawRowView(n)
	for i, v := range values {
		row[i] = float64(v) * scale
	}
	return nil
}

func zeroRows(m *mat.Dense, from int) {
	r, _ := m.Dims()
	for n := from; n < r; n++ {
		row := m.RawRowView(n)
		for i := range row {
			row[i] = 0
		}
	}
}
