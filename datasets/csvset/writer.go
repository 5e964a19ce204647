package csvset

import "encoding/csv"
import "io"
import "strconv"

import "github.com/neurlang/batchtrainer/datasets"

// Writer encodes records in the same row format Reader decodes
type Writer struct {
	csv    *csv.Writer
	fields []string
}

// NewWriter wraps w
func NewWriter(w io.Writer) *Writer {
	return &Writer{csv: csv.NewWriter(w)}
}

// Write encodes one record
func (w *Writer) Write(rec datasets.Record) error {
	w.fields = append(w.fields[:0], strconv.Itoa(int(rec.Label)))
	for _, p := range rec.Pixels {
		w.fields = append(w.fields, strconv.Itoa(int(p)))
	}
	return w.csv.Write(w.fields)
}

// Flush writes any buffered rows to the underlying writer
func (w *Writer) Flush() error {
	w.csv.Flush()
	return w.csv.Error()
}
