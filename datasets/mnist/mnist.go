// Package mnist reads the gzip compressed IDX files of the MNIST dataset as
// a datasets.Source
package mnist

import "bytes"
import "compress/gzip"
import "crypto/sha256"
import "encoding/binary"
import "fmt"
import "io"
import "os"
import "path/filepath"

import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/datasets"

const inferSetImg = "t10k-images-idx3-ubyte.gz"
const inferSetVal = "t10k-labels-idx1-ubyte.gz"
const trainSetImg = "train-images-idx3-ubyte.gz"
const trainSetVal = "train-labels-idx1-ubyte.gz"

// published sha256 digests of the files above
var digests = map[string]string{
	inferSetImg: "8d422c7b0a1c1c79245a5bcf07fe86e33eeafee792b84584aec276f5a2dbc4e6",
	inferSetVal: "f7ae60f92e00ec6debd23a6088c31dbd2371eca3ffa0defaefb259924204aec6",
	trainSetImg: "440fcabf73cc546fa21475e81ea370265605f56be210a4024d2ca8f203523609",
	trainSetVal: "3552534a0a558bbed6aed32b30c495cca23d567ec52cac8be1a0730e8010255c",
}

const imageMagic = 0x00000803
const labelMagic = 0x00000801

// Files is a Source over one image/label file pair in Dir
type Files struct {
	Dir    string
	Images string
	Labels string

	// SkipDigest disables the sha256 check of known file names
	SkipDigest bool
}

// Train returns the training pair in dir
func Train(dir string) Files {
	return Files{Dir: dir, Images: trainSetImg, Labels: trainSetVal}
}

// Infer returns the test pair in dir
func Infer(dir string) Files {
	return Files{Dir: dir, Images: inferSetImg, Labels: inferSetVal}
}

// Open decompresses both files and starts a pass over the images
func (f Files) Open() (datasets.SequenceCloser, error) {
	img, err := f.load(f.Images)
	if err != nil {
		return nil, err
	}
	lab, err := f.load(f.Labels)
	if err != nil {
		return nil, err
	}
	images, rows, cols, err := parseImages(img)
	if err != nil {
		return nil, errors.Wrap(err, f.Images)
	}
	labels, err := parseLabels(lab)
	if err != nil {
		return nil, errors.Wrap(err, f.Labels)
	}
	if len(labels) != images {
		return nil, &datasets.DecodeError{Row: -1, Field: -1,
			Reason: fmt.Sprintf("%d images but %d labels", images, len(labels))}
	}
	return &sequence{pixels: img[16:], labels: labels, size: rows * cols}, nil
}

func (f Files) load(name string) ([]byte, error) {
	path := filepath.Join(f.Dir, name)
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(err, "read mnist file")
	}
	if want, ok := digests[name]; ok && !f.SkipDigest {
		if got := fmt.Sprintf("%x", sha256.Sum256(raw)); got != want {
			return nil, errors.Errorf("file hash for file '%s' is incorrect", path)
		}
	}
	gzipReader, err := gzip.NewReader(bytes.NewReader(raw))
	if err != nil {
		return nil, errors.Wrapf(err, "gzip file '%s'", path)
	}
	defer gzipReader.Close()
	var uncompressed bytes.Buffer
	if _, err := io.Copy(&uncompressed, gzipReader); err != nil {
		return nil, errors.Wrapf(err, "buffering file '%s'", path)
	}
	return uncompressed.Bytes(), nil
}

func parseImages(data []byte) (count, rows, cols int, err error) {
	if len(data) < 16 || binary.BigEndian.Uint32(data) != imageMagic {
		return 0, 0, 0, &datasets.DecodeError{Row: -1, Field: -1, Reason: "not an idx3 image file"}
	}
	count = int(binary.BigEndian.Uint32(data[4:]))
	rows = int(binary.BigEndian.Uint32(data[8:]))
	cols = int(binary.BigEndian.Uint32(data[12:]))
	if len(data)-16 != count*rows*cols {
		return 0, 0, 0, &datasets.DecodeError{Row: -1, Field: -1,
			Reason: fmt.Sprintf("image payload is %d bytes, header says %dx%dx%d", len(data)-16, count, rows, cols)}
	}
	return count, rows, cols, nil
}

func parseLabels(data []byte) ([]byte, error) {
	if len(data) < 8 || binary.BigEndian.Uint32(data) != labelMagic {
		return nil, &datasets.DecodeError{Row: -1, Field: -1, Reason: "not an idx1 label file"}
	}
	count := int(binary.BigEndian.Uint32(data[4:]))
	if len(data)-8 != count {
		return nil, &datasets.DecodeError{Row: -1, Field: -1,
			Reason: fmt.Sprintf("label payload is %d bytes, header says %d", len(data)-8, count)}
	}
	return data[8:], nil
}

type sequence struct {
	pixels []byte
	labels []byte
	size   int
	pos    int
}

func (s *sequence) Next() (datasets.Record, error) {
	if s.pos >= len(s.labels) {
		return datasets.Record{}, io.EOF
	}
	var ptr = s.pos * s.size
	var pixels = make([]uint8, s.size)
	copy(pixels, s.pixels[ptr:ptr+s.size])
	rec := datasets.Record{Label: s.labels[s.pos], Pixels: pixels}
	s.pos++
	return rec, nil
}

func (s *sequence) Close() error {
	s.pixels, s.labels = nil, nil
	return nil
}
