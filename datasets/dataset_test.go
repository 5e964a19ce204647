package datasets

import "io"
import "testing"

import "github.com/pkg/errors"

func TestTakeStopsAtEnd(t *testing.T) {
	var s = make(Slice, 10)
	for i := range s {
		s[i] = Record{Label: uint8(i), Pixels: []uint8{uint8(i)}}
	}
	seq, err := s.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer seq.Close()

	var sizes []int
	for {
		got, err := Take(seq, 4)
		if err != nil {
			t.Fatalf("take: %v", err)
		}
		if len(got) == 0 {
			break
		}
		sizes = append(sizes, len(got))
	}
	if len(sizes) != 3 || sizes[0] != 4 || sizes[1] != 4 || sizes[2] != 2 {
		t.Fatalf("unexpected sizes %v", sizes)
	}
	if _, err := seq.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF after exhaustion, got %v", err)
	}
}

func TestSliceRestarts(t *testing.T) {
	s := Slice{{Label: 3}, {Label: 5}}
	for pass := 0; pass < 2; pass++ {
		seq, _ := s.Open()
		rec, err := seq.Next()
		if err != nil || rec.Label != 3 {
			t.Fatalf("pass %d: got %v %v", pass, rec, err)
		}
	}
}

func TestDecodeErrorMatches(t *testing.T) {
	var err error = &DecodeError{Row: 7, Field: 2, Reason: "not a number"}
	err = errors.Wrap(err, "batch row 3")
	if !errors.Is(err, ErrDecode) {
		t.Fatalf("wrapped decode error does not match ErrDecode: %v", err)
	}
	var de *DecodeError
	if !errors.As(err, &de) || de.Row != 7 || de.Field != 2 {
		t.Fatalf("could not recover row/field from %v", err)
	}
}

func TestCount(t *testing.T) {
	n, err := Count(make(Slice, 7))
	if err != nil || n != 7 {
		t.Fatalf("count %d %v", n, err)
	}
}
