package csvset

import "bytes"
import "io"
import "os"
import "path/filepath"
import "strings"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/datasets"

func TestRoundTrip(t *testing.T) {
	var records = []datasets.Record{
		{Label: 0, Pixels: []uint8{0, 255, 17, 3}},
		{Label: 9, Pixels: []uint8{1, 2, 3, 4}},
		{Label: 4, Pixels: []uint8{255, 255, 0, 128}},
	}
	var buf bytes.Buffer
	w := NewWriter(&buf)
	for _, rec := range records {
		if err := w.Write(rec); err != nil {
			t.Fatalf("write: %v", err)
		}
	}
	if err := w.Flush(); err != nil {
		t.Fatalf("flush: %v", err)
	}

	r := NewReader(&buf, 4)
	for i, want := range records {
		got, err := r.Next()
		if err != nil {
			t.Fatalf("record %d: %v", i, err)
		}
		if got.Label != want.Label || !bytes.Equal(got.Pixels, want.Pixels) {
			t.Fatalf("record %d: got %v want %v", i, got, want)
		}
	}
	if _, err := r.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestDecodeErrors(t *testing.T) {
	cases := []struct {
		row   string
		field int
	}{
		{"1,2,3", -1},
		{"1,2,3,4,5,6", -1},
		{"x,2,3,4,5", 0},
		{"1,2,three,4,5", 2},
		{"1,2,3,4,256", 4},
		{"1,-2,3,4,5", 1},
	}
	for _, c := range cases {
		r := NewReader(strings.NewReader(c.row+"\n"), 4)
		_, err := r.Next()
		if !errors.Is(err, datasets.ErrDecode) {
			t.Errorf("%q: expected decode error, got %v", c.row, err)
			continue
		}
		var de *datasets.DecodeError
		if !errors.As(err, &de) {
			t.Errorf("%q: not a DecodeError: %v", c.row, err)
			continue
		}
		if de.Row != 1 || de.Field != c.field {
			t.Errorf("%q: got row %d field %d, want row 1 field %d", c.row, de.Row, de.Field, c.field)
		}
	}
}

func TestDecodeErrorIsNotExhaustion(t *testing.T) {
	r := NewReader(strings.NewReader("1,2,3,4,5\n1,2\n"), 4)
	if _, err := r.Next(); err != nil {
		t.Fatalf("first row: %v", err)
	}
	_, err := r.Next()
	if err == io.EOF || !errors.Is(err, datasets.ErrDecode) {
		t.Fatalf("expected decode error on row 2, got %v", err)
	}
}

func TestDecodeErrorReportsFileLine(t *testing.T) {
	r := NewReader(strings.NewReader("1,2,3,4,5\n\n\n1,x,3,4,5\n"), 4)
	if _, err := r.Next(); err != nil || r.Row() != 1 {
		t.Fatalf("first row: line %d %v", r.Row(), err)
	}
	_, err := r.Next()
	var de *datasets.DecodeError
	if !errors.As(err, &de) || de.Row != 4 || de.Field != 1 {
		t.Fatalf("expected decode error at line 4 field 1, got %v", err)
	}
}

func TestFileReopens(t *testing.T) {
	path := filepath.Join(t.TempDir(), "train.csv")
	if err := os.WriteFile(path, []byte("5,1,2\n7,3,4\n\n"), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	src := File{Path: path, FeatureCount: 2}
	for epoch := 0; epoch < 2; epoch++ {
		seq, err := src.Open()
		if err != nil {
			t.Fatalf("open: %v", err)
		}
		got, err := datasets.Take(seq, 10)
		seq.Close()
		if err != nil {
			t.Fatalf("epoch %d: %v", epoch, err)
		}
		if len(got) != 2 || got[0].Label != 5 || got[1].Label != 7 {
			t.Fatalf("epoch %d: unexpected records %v", epoch, got)
		}
	}

	n, err := Count(path)
	if err != nil {
		t.Fatalf("count: %v", err)
	}
	if n != 2 {
		t.Fatalf("expected 2 rows, got %d", n)
	}
}
