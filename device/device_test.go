package device

import "strings"
import "testing"

func TestThreadsFallback(t *testing.T) {
	if n := (Info{}).Threads(); n <= 0 {
		t.Fatalf("threads %d", n)
	}
	if n := (Info{Physical: 4, Logical: 8}).Threads(); n != 8 {
		t.Fatalf("threads %d, want 8", n)
	}
	if n := (Info{Physical: 4}).Threads(); n != 4 {
		t.Fatalf("threads %d, want 4", n)
	}
}

func TestDescribe(t *testing.T) {
	info := Describe()
	if info.Threads() <= 0 {
		t.Fatalf("no threads detected: %+v", info)
	}
	if !strings.Contains(info.String(), "threads=") {
		t.Fatalf("unexpected description %q", info.String())
	}
}
