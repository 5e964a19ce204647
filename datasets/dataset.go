// Package datasets implements the labeled image record type and the
// sequences that stream records into the training loop
package datasets

import "io"

// FeatureCount is the pixel count of one 28x28 MNIST image
const FeatureCount = 28 * 28

// Record is one decoded image with its class label. It is not modified
// after decoding.
type Record struct {
	Label  uint8
	Pixels []uint8
}

// Sequence yields records one at a time. Next returns io.EOF once the data is
// exhausted; any other error means the data is corrupt.
type Sequence interface {
	Next() (Record, error)
}

// SequenceCloser is a Sequence holding an open resource
type SequenceCloser interface {
	Sequence
	io.Closer
}

// Source restarts a Sequence from the beginning, once per epoch
type Source interface {
	Open() (SequenceCloser, error)
}

// Take pulls up to n records from seq. It stops early on io.EOF, which is
// not reported as an error.
func Take(seq Sequence, n int) (out []Record, err error) {
	for len(out) < n {
		rec, err := seq.Next()
		if err == io.EOF {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, rec)
	}
	return out, nil
}

// Slice is an in-memory Source over already decoded records
type Slice []Record

// Open starts a new pass over the slice
func (s Slice) Open() (SequenceCloser, error) {
	return &sliceSequence{records: s}, nil
}

type sliceSequence struct {
	records []Record
	pos     int
}

func (s *sliceSequence) Next() (Record, error) {
	if s.pos >= len(s.records) {
		return Record{}, io.EOF
	}
	rec := s.records[s.pos]
	s.pos++
	return rec, nil
}

func (s *sliceSequence) Close() error {
	return nil
}

// Count drains one pass of src and returns its record count
func Count(src Source) (n int, err error) {
	seq, err := src.Open()
	if err != nil {
		return 0, err
	}
	defer seq.Close()
	for {
		_, err := seq.Next()
		if err == io.EOF {
			return n, nil
		}
		if err != nil {
			return n, err
		}
		n++
	}
}
