package main

import "net/http"
import "net/http/httptest"
import "os"
import "path/filepath"
import "testing"

func TestDownload(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/mnist_test.csv" {
			http.NotFound(w, r)
			return
		}
		w.Write([]byte("7,0,255\n"))
	}))
	defer srv.Close()

	dir := t.TempDir()
	dst := filepath.Join(dir, "mnist_test.csv")
	if err := download(srv.Client(), srv.URL+"/mnist_test.csv", dst); err != nil {
		t.Fatalf("download: %v", err)
	}
	body, err := os.ReadFile(dst)
	if err != nil || string(body) != "7,0,255\n" {
		t.Fatalf("body %q %v", body, err)
	}

	missing := filepath.Join(dir, "mnist_train.csv")
	if err := download(srv.Client(), srv.URL+"/mnist_train.csv", missing); err == nil {
		t.Fatalf("expected an error for a missing file")
	}
	if _, err := os.Stat(missing); !os.IsNotExist(err) {
		t.Fatalf("partial file left behind: %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 1 {
		t.Fatalf("temporary files left: %d entries", len(entries))
	}
}
