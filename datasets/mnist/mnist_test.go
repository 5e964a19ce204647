package mnist

import "bytes"
import "compress/gzip"
import "encoding/binary"
import "io"
import "os"
import "path/filepath"
import "testing"

import "github.com/pkg/errors"

import "github.com/neurlang/batchtrainer/datasets"

func writeGzip(t *testing.T, path string, data []byte) {
	t.Helper()
	var buf bytes.Buffer
	zw := gzip.NewWriter(&buf)
	zw.Write(data)
	if err := zw.Close(); err != nil {
		t.Fatalf("gzip: %v", err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
}

func idx(magic uint32, dims []uint32, payload []byte) []byte {
	var out = make([]byte, 4+4*len(dims))
	binary.BigEndian.PutUint32(out, magic)
	for i, d := range dims {
		binary.BigEndian.PutUint32(out[4+4*i:], d)
	}
	return append(out, payload...)
}

func TestFilesDecode(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, filepath.Join(dir, "img.gz"), idx(imageMagic, []uint32{2, 2, 2}, []byte{1, 2, 3, 4, 5, 6, 7, 8}))
	writeGzip(t, filepath.Join(dir, "lab.gz"), idx(labelMagic, []uint32{2}, []byte{3, 9}))

	src := Files{Dir: dir, Images: "img.gz", Labels: "lab.gz"}
	seq, err := src.Open()
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer seq.Close()

	first, err := seq.Next()
	if err != nil || first.Label != 3 || !bytes.Equal(first.Pixels, []byte{1, 2, 3, 4}) {
		t.Fatalf("first record: %v %v", first, err)
	}
	second, err := seq.Next()
	if err != nil || second.Label != 9 || !bytes.Equal(second.Pixels, []byte{5, 6, 7, 8}) {
		t.Fatalf("second record: %v %v", second, err)
	}
	if _, err := seq.Next(); err != io.EOF {
		t.Fatalf("expected io.EOF, got %v", err)
	}
}

func TestFilesCountMismatch(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, filepath.Join(dir, "img.gz"), idx(imageMagic, []uint32{1, 1, 2}, []byte{1, 2}))
	writeGzip(t, filepath.Join(dir, "lab.gz"), idx(labelMagic, []uint32{2}, []byte{3, 9}))

	_, err := Files{Dir: dir, Images: "img.gz", Labels: "lab.gz"}.Open()
	if !errors.Is(err, datasets.ErrDecode) {
		t.Fatalf("expected decode error, got %v", err)
	}
}

func TestFilesDigest(t *testing.T) {
	dir := t.TempDir()
	writeGzip(t, filepath.Join(dir, trainSetImg), idx(imageMagic, []uint32{1, 1, 1}, []byte{1}))
	writeGzip(t, filepath.Join(dir, trainSetVal), idx(labelMagic, []uint32{1}, []byte{1}))

	if _, err := Train(dir).Open(); err == nil {
		t.Fatal("expected digest mismatch for a fake training file")
	}
	src := Train(dir)
	src.SkipDigest = true
	if _, err := src.Open(); err != nil {
		t.Fatalf("open without digest: %v", err)
	}
}
