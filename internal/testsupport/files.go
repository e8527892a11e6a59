package testsupport

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"testing"
)

var filePattern = []byte("muzzman-test-payload;")

// WriteFile creates path with exactly size bytes of a repeating pattern so
// copies can be compared by hash. size <= 0 yields an empty file.
func WriteFile(t testing.TB, path string, size int64) {
	t.Helper()
	f := createFile(t, path)
	defer f.Close()
	if size <= 0 {
		return
	}
	pattern := bytes.Repeat(filePattern, 1024)
	src := io.LimitReader(&repeatReader{pattern: pattern}, size)
	if _, err := io.Copy(f, src); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

// WriteLines writes each line followed by a newline to path.
func WriteLines(t testing.TB, path string, lines ...string) {
	t.Helper()
	f := createFile(t, path)
	defer f.Close()
	for _, line := range lines {
		if _, err := io.WriteString(f, line+"\n"); err != nil {
			t.Fatalf("write %s: %v", path, err)
		}
	}
}

func createFile(t testing.TB, path string) *os.File {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	f, err := os.Create(path)
	if err != nil {
		t.Fatalf("create %s: %v", path, err)
	}
	return f
}

type repeatReader struct {
	pattern []byte
	off     int
}

func (r *repeatReader) Read(p []byte) (int, error) {
	n := 0
	for n < len(p) {
		c := copy(p[n:], r.pattern[r.off:])
		n += c
		r.off = (r.off + c) % len(r.pattern)
	}
	return n, nil
}
