package main

import "flag"
import "fmt"
import "io"
import "log"
import "net/http"
import "os"
import "path/filepath"
import "time"

import "github.com/pkg/errors"

const mirror = "http://pjreddie.com/media/files/"

var datasets = map[string][]string{
	"mnist": {"mnist_test.csv", "mnist_train.csv"},
}

func main() {
	dir := flag.String("dir", "assets", "destination directory")
	base := flag.String("mirror", mirror, "base url the files are fetched from")
	flag.Parse()

	name := flag.Arg(0)
	if name == "" {
		name = "mnist"
	}
	files, ok := datasets[name]
	if !ok {
		log.Fatalf("Failed to download %s dataset: unknown dataset", name)
	}
	if err := os.MkdirAll(*dir, 0o755); err != nil {
		log.Fatalf("Failed to download %s dataset: %v", name, err)
	}
	client := &http.Client{Timeout: 10 * time.Minute}
	for i, file := range files {
		fmt.Printf("Downloading... %d/%d: %s\n", i+1, len(files), file)
		if err := download(client, *base+file, filepath.Join(*dir, file)); err != nil {
			log.Fatalf("Failed to download %s dataset: %v", name, err)
		}
	}
	fmt.Printf("%s dataset downloaded\n", name)
}

// download fetches url into a temporary file renamed to dst on success
func download(client *http.Client, url, dst string) error {
	resp, err := client.Get(url)
	if err != nil {
		return err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return errors.Errorf("GET %s: %s", url, resp.Status)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dst), filepath.Base(dst)+".*")
	if err != nil {
		return err
	}
	defer os.Remove(tmp.Name())
	if _, err := io.Copy(tmp, resp.Body); err != nil {
		tmp.Close()
		return errors.Wrapf(err, "GET %s", url)
	}
	if err := tmp.Close(); err != nil {
		return err
	}
	return os.Rename(tmp.Name(), dst)
}
