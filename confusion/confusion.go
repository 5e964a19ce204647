// Package confusion keeps an incrementally updated confusion matrix and the
// correctness of the most recent samples
package confusion

import "sync"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/floats"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/batchtrainer/batch"

// ErrLengthMismatch is returned when predictions and labels differ in count
var ErrLengthMismatch = errors.New("length mismatch")

// ErrClassRange is returned for a class index outside [0, classes)
var ErrClassRange = errors.New("class out of range")

// Unbounded disables the history capacity
const Unbounded = 0

// Matrix counts (true class, predicted class) pairs. It is safe for
// concurrent use.
type Matrix struct {
	mut     sync.RWMutex
	classes int
	counts  []uint64 // classes x classes, row = true class
	total   uint64

	// history is a ring buffer when capacity > 0
	history  []bool
	head     int
	capacity int
}

// New creates an empty matrix over classes classes with unbounded history
func New(classes int) *Matrix {
	return &Matrix{
		classes: classes,
		counts:  make([]uint64, classes*classes),
	}
}

// Classes is the number of classes the matrix tracks
func (m *Matrix) Classes() int {
	return m.classes
}

// PredictionsFrom returns the arg-max class of each output row. Ties go to
// the lowest index. The buffer is read locked while scanning.
func (m *Matrix) PredictionsFrom(out *batch.Buffer) (predictions []int, err error) {
	if out.Cols() != m.classes {
		return nil, errors.Wrapf(batch.ErrShapeMismatch, "output has %d scores per row, want %d", out.Cols(), m.classes)
	}
	err = out.Read(func(d *mat.Dense) error {
		rows, _ := d.Dims()
		predictions = make([]int, rows)
		for i := range predictions {
			predictions[i] = floats.MaxIdx(d.RawRowView(i))
		}
		return nil
	})
	return predictions, err
}

// AddSamples records one (labels[i], predictions[i]) pair per sample
func (m *Matrix) AddSamples(predictions, labels []int) error {
	if len(predictions) != len(labels) {
		return errors.Wrapf(ErrLengthMismatch, "%d predictions for %d labels", len(predictions), len(labels))
	}
	for i := range predictions {
		if predictions[i] < 0 || predictions[i] >= m.classes {
			return errors.Wrapf(ErrClassRange, "prediction %d at sample %d", predictions[i], i)
		}
		if labels[i] < 0 || labels[i] >= m.classes {
			return errors.Wrapf(ErrClassRange, "label %d at sample %d", labels[i], i)
		}
	}
	m.mut.Lock()
	defer m.mut.Unlock()
	for i, p := range predictions {
		m.counts[labels[i]*m.classes+p]++
		m.total++
		m.push(p == labels[i])
	}
	return nil
}

func (m *Matrix) push(correct bool) {
	if m.capacity <= 0 || len(m.history) < m.capacity {
		m.history = append(m.history, correct)
		return
	}
	m.history[m.head] = correct
	m.head = (m.head + 1) % m.capacity
}

// SetCapacity bounds the history to the n most recent samples. Unbounded
// keeps every sample, so memory grows with the length of training.
func (m *Matrix) SetCapacity(n int) {
	m.mut.Lock()
	defer m.mut.Unlock()
	recent := m.samples()
	if n > 0 && len(recent) > n {
		recent = recent[len(recent)-n:]
	}
	m.history = recent
	m.head = 0
	m.capacity = n
	if m.capacity < 0 {
		m.capacity = Unbounded
	}
}

// Accuracy is the fraction of samples on the diagonal, 0 when empty
func (m *Matrix) Accuracy() float64 {
	m.mut.RLock()
	defer m.mut.RUnlock()
	if m.total == 0 {
		return 0
	}
	var correct uint64
	for c := 0; c < m.classes; c++ {
		correct += m.counts[c*m.classes+c]
	}
	return float64(correct) / float64(m.total)
}

// Count returns how often class truth was predicted as predicted
func (m *Matrix) Count(truth, predicted int) uint64 {
	m.mut.RLock()
	defer m.mut.RUnlock()
	return m.counts[truth*m.classes+predicted]
}

// Total is the number of samples seen
func (m *Matrix) Total() uint64 {
	m.mut.RLock()
	defer m.mut.RUnlock()
	return m.total
}

// Samples returns the history oldest first
func (m *Matrix) Samples() []bool {
	m.mut.RLock()
	defer m.mut.RUnlock()
	return m.samples()
}

func (m *Matrix) samples() []bool {
	out := make([]bool, 0, len(m.history))
	out = append(out, m.history[m.head:]...)
	return append(out, m.history[:m.head]...)
}

// LastSample reports the correctness of the most recent sample. ok is false
// when no sample was added yet.
func (m *Matrix) LastSample() (correct, ok bool) {
	m.mut.RLock()
	defer m.mut.RUnlock()
	if len(m.history) == 0 {
		return false, false
	}
	last := m.head - 1
	if last < 0 {
		last = len(m.history) - 1
	}
	return m.history[last], true
}

// Recall of class c: correct predictions of c over samples truly c
func (m *Matrix) Recall(c int) float64 {
	m.mut.RLock()
	defer m.mut.RUnlock()
	var row uint64
	for p := 0; p < m.classes; p++ {
		row += m.counts[c*m.classes+p]
	}
	if row == 0 {
		return 0
	}
	return float64(m.counts[c*m.classes+c]) / float64(row)
}

// Precision of class c: correct predictions of c over all predictions of c
func (m *Matrix) Precision(c int) float64 {
	m.mut.RLock()
	defer m.mut.RUnlock()
	var col uint64
	for t := 0; t < m.classes; t++ {
		col += m.counts[t*m.classes+c]
	}
	if col == 0 {
		return 0
	}
	return float64(m.counts[c*m.classes+c]) / float64(col)
}
