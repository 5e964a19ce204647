// Package csvset decodes labeled images stored one per row as delimited text:
// the class label followed by the pixel intensities, no header row
package csvset

import "bufio"
import "encoding/csv"
import "io"
import "os"
import "strconv"

import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/datasets"

// Decode parses one row of fields into a Record. row is only used to
// annotate errors.
func Decode(fields []string, featureCount, row int) (datasets.Record, error) {
	if len(fields) != featureCount+1 {
		return datasets.Record{}, &datasets.DecodeError{
			Row:    row,
			Field:  -1,
			Reason: "expected " + strconv.Itoa(featureCount+1) + " fields, got " + strconv.Itoa(len(fields)),
		}
	}
	label, err := parseByte(fields[0])
	if err != nil {
		return datasets.Record{}, &datasets.DecodeError{Row: row, Field: 0, Reason: "bad label", Err: err}
	}
	var pixels = make([]uint8, featureCount)
	for i := range pixels {
		v, err := parseByte(fields[i+1])
		if err != nil {
			return datasets.Record{}, &datasets.DecodeError{Row: row, Field: i + 1, Reason: "bad pixel", Err: err}
		}
		pixels[i] = v
	}
	return datasets.Record{Label: label, Pixels: pixels}, nil
}

func parseByte(s string) (uint8, error) {
	v, err := strconv.ParseUint(s, 10, 8)
	if err != nil {
		return 0, err
	}
	return uint8(v), nil
}

// Reader is a lazy Sequence over the rows of r
type Reader struct {
	csv          *csv.Reader
	featureCount int
	line         int
}

// NewReader creates a Reader expecting featureCount pixels per row
func NewReader(r io.Reader, featureCount int) *Reader {
	cr := csv.NewReader(bufio.NewReader(r))
	cr.FieldsPerRecord = -1
	cr.ReuseRecord = true
	return &Reader{csv: cr, featureCount: featureCount}
}

// Next decodes the next row. It returns io.EOF at the end of the data.
func (r *Reader) Next() (datasets.Record, error) {
	fields, err := r.csv.Read()
	if err == io.EOF {
		return datasets.Record{}, io.EOF
	}
	if err != nil {
		r.line++
		var pe *csv.ParseError
		if errors.As(err, &pe) {
			r.line = pe.StartLine
		}
		return datasets.Record{}, &datasets.DecodeError{Row: r.line, Field: -1, Reason: "malformed row", Err: err}
	}
	r.line, _ = r.csv.FieldPos(0)
	return Decode(fields, r.featureCount, r.line)
}

// Row reports the file line of the last row read. Blank lines count.
func (r *Reader) Row() int {
	return r.line
}

// File is a Source reading a delimited text file from the start on every Open
type File struct {
	Path         string
	FeatureCount int
}

// Open reopens the file for a new pass
func (f File) Open() (datasets.SequenceCloser, error) {
	file, err := os.Open(f.Path)
	if err != nil {
		return nil, errors.Wrap(err, "open dataset")
	}
	n := f.FeatureCount
	if n <= 0 {
		n = datasets.FeatureCount
	}
	return &fileReader{Reader: NewReader(file, n), file: file}, nil
}

type fileReader struct {
	*Reader
	file *os.File
}

func (f *fileReader) Close() error {
	return f.file.Close()
}

// Count returns the number of non-empty rows in the file at path
func Count(path string) (int, error) {
	file, err := os.Open(path)
	if err != nil {
		return 0, errors.Wrap(err, "open dataset")
	}
	defer file.Close()

	var n int
	scanner := bufio.NewScanner(file)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		if len(scanner.Bytes()) > 0 {
			n++
		}
	}
	if err := scanner.Err(); err != nil {
		return 0, errors.Wrap(err, "count rows")
	}
	return n, nil
}
