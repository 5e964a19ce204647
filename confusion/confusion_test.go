package confusion

import "bytes"
import "math"
import "strings"
import "testing"

import "github.com/pkg/errors"
import "gonum.org/v1/gonum/mat"

import "github.com/neurlang/batchtrainer/batch"

// The third sample is predicted 1 with truth 0. Counts are keyed
// (truth, predicted), so it is Count(0, 1).
func TestAccuracy(t *testing.T) {
	m := New(10)
	if err := m.AddSamples([]int{0, 1, 1}, []int{0, 1, 0}); err != nil {
		t.Fatalf("add: %v", err)
	}
	if acc := m.Accuracy(); math.Abs(acc-2.0/3.0) > 1e-12 {
		t.Fatalf("accuracy %v, want 2/3", acc)
	}
	if c := m.Count(0, 1); c != 1 {
		t.Fatalf("counts[true=0][pred=1] = %d, want 1", c)
	}
	if c := m.Count(1, 0); c != 0 {
		t.Fatalf("counts[true=1][pred=0] = %d, want 0", c)
	}
	if c := m.Count(1, 1); c != 1 {
		t.Fatalf("counts[1][1] = %d, want 1", c)
	}
	if m.Total() != 3 {
		t.Fatalf("total %d", m.Total())
	}
}

func TestCountsSumToTotal(t *testing.T) {
	m := New(3)
	m.AddSamples([]int{0, 1, 2, 2, 1}, []int{0, 0, 2, 1, 1})
	var sum uint64
	for i := 0; i < 3; i++ {
		for j := 0; j < 3; j++ {
			sum += m.Count(i, j)
		}
	}
	if sum != m.Total() || sum != 5 {
		t.Fatalf("sum of counts %d, total %d", sum, m.Total())
	}
}

func TestAccuracyEmptyAndIdempotent(t *testing.T) {
	m := New(10)
	if acc := m.Accuracy(); acc != 0 {
		t.Fatalf("empty accuracy %v", acc)
	}
	m.AddSamples([]int{3, 4}, []int{3, 3})
	a, b := m.Accuracy(), m.Accuracy()
	if a != b || a != 0.5 {
		t.Fatalf("accuracy not stable: %v %v", a, b)
	}
}

func TestLengthMismatch(t *testing.T) {
	m := New(10)
	err := m.AddSamples([]int{1, 2}, []int{1})
	if !errors.Is(err, ErrLengthMismatch) {
		t.Fatalf("expected length mismatch, got %v", err)
	}
	if m.Total() != 0 {
		t.Fatalf("rejected samples were counted")
	}
}

func TestClassRange(t *testing.T) {
	m := New(2)
	if err := m.AddSamples([]int{2}, []int{0}); !errors.Is(err, ErrClassRange) {
		t.Fatalf("expected class range error, got %v", err)
	}
}

func TestCapacity(t *testing.T) {
	m := New(10)
	m.SetCapacity(2)
	m.AddSamples([]int{1}, []int{1})
	m.AddSamples([]int{1}, []int{2})
	m.AddSamples([]int{3}, []int{3})
	m.AddSamples([]int{4}, []int{5})
	got := m.Samples()
	if len(got) != 2 || got[0] != true || got[1] != false {
		t.Fatalf("history %v, want [true false]", got)
	}
	if last, ok := m.LastSample(); !ok || last {
		t.Fatalf("last sample %v %v", last, ok)
	}
	if m.Total() != 4 {
		t.Fatalf("capacity must not limit counts, total %d", m.Total())
	}
}

func TestShrinkCapacityKeepsRecent(t *testing.T) {
	m := New(2)
	m.AddSamples([]int{0, 1, 0, 0}, []int{0, 0, 0, 1})
	m.SetCapacity(3)
	got := m.Samples()
	if len(got) != 3 || got[0] != false || got[1] != true || got[2] != false {
		t.Fatalf("history %v", got)
	}
	m.AddSamples([]int{1}, []int{1})
	got = m.Samples()
	if len(got) != 3 || got[0] != true || got[2] != true {
		t.Fatalf("history after push %v", got)
	}
}

func TestUnboundedHistory(t *testing.T) {
	m := New(2)
	if _, ok := m.LastSample(); ok {
		t.Fatal("empty matrix reported a last sample")
	}
	for i := 0; i < 100; i++ {
		m.AddSamples([]int{i % 2}, []int{0})
	}
	if len(m.Samples()) != 100 {
		t.Fatalf("history length %d", len(m.Samples()))
	}
}

func TestPredictionsFrom(t *testing.T) {
	out := batch.FromDense(mat.NewDense(4, 3, []float64{
		0.1, 0.7, 0.2,
		0.5, 0.5, 0.1,
		-1, -2, -0.5,
		0, 0, 0,
	}))
	m := New(3)
	got, err := m.PredictionsFrom(out)
	if err != nil {
		t.Fatalf("predictions: %v", err)
	}
	want := []int{1, 0, 2, 0}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("predictions %v, want %v", got, want)
		}
	}
	if _, err := New(4).PredictionsFrom(out); !errors.Is(err, batch.ErrShapeMismatch) {
		t.Fatalf("expected shape mismatch, got %v", err)
	}
}

func TestReport(t *testing.T) {
	m := New(2)
	m.AddSamples([]int{0, 1, 1}, []int{0, 1, 0})
	var buf bytes.Buffer
	n, err := m.WriteTo(&buf)
	if err != nil {
		t.Fatalf("report: %v", err)
	}
	if n != int64(buf.Len()) {
		t.Fatalf("reported %d bytes, wrote %d", n, buf.Len())
	}
	if !strings.Contains(buf.String(), "accuracy 0.6667") {
		t.Fatalf("report missing accuracy:\n%s", buf.String())
	}
}

func BenchmarkAddSamples(b *testing.B) {
	m := New(10)
	m.SetCapacity(1000)
	predictions := make([]int, 64)
	labels := make([]int, 64)
	for i := range labels {
		predictions[i] = i % 10
		labels[i] = (i * 7) % 10
	}
	b.ResetTimer()
	for i := 0; i < b.N; i++ {
		if err := m.AddSamples(predictions, labels); err != nil {
			b.Fatal(err)
		}
	}
}
