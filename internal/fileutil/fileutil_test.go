package fileutil

import (
	"bytes"
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestCopyFileAtomic(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	content := bytes.Repeat([]byte("muzzman"), 20000)
	if err := os.WriteFile(src, content, 0o644); err != nil {
		t.Fatal(err)
	}

	var reports []float64
	result, err := CopyFileAtomic(context.Background(), src, dst, func(p float64) {
		reports = append(reports, p)
	})
	if err != nil {
		t.Fatalf("CopyFileAtomic: %v", err)
	}
	if result.Written != int64(len(content)) {
		t.Fatalf("written = %d, want %d", result.Written, len(content))
	}
	got, err := os.ReadFile(dst)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(got, content) {
		t.Fatal("content mismatch")
	}
	if len(reports) < 2 || reports[len(reports)-1] != 1 {
		t.Fatalf("expected increasing progress ending at 1, got %v", reports)
	}
	for i := 1; i < len(reports); i++ {
		if reports[i] < reports[i-1] {
			t.Fatalf("progress went backwards: %v", reports)
		}
	}

	want, err := HashFile(src)
	if err != nil {
		t.Fatalf("HashFile: %v", err)
	}
	if result.SHA256 != want {
		t.Fatalf("sha256 = %s, want %s", result.SHA256, want)
	}
	if _, err := os.Stat(dst + PartSuffix); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("part file left behind: %v", err)
	}
}

func TestCopyFileAtomicCancelledRemovesPart(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src.bin")
	dst := filepath.Join(dir, "dst.bin")
	if err := os.WriteFile(src, []byte("data"), 0o644); err != nil {
		t.Fatal(err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := CopyFileAtomic(ctx, src, dst, nil); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	for _, p := range []string{dst, dst + PartSuffix} {
		if _, err := os.Stat(p); !errors.Is(err, os.ErrNotExist) {
			t.Fatalf("expected %s to be absent, got %v", p, err)
		}
	}
}

func TestCopyFileAtomicMissingSource(t *testing.T) {
	dir := t.TempDir()
	_, err := CopyFileAtomic(context.Background(), filepath.Join(dir, "missing"), filepath.Join(dir, "dst"), nil)
	if err == nil || !strings.Contains(err.Error(), "open source") {
		t.Fatalf("expected open source error, got %v", err)
	}
}

func TestCopyWithProgressWithoutTotal(t *testing.T) {
	var dst bytes.Buffer
	called := false
	result, err := CopyWithProgress(context.Background(), &dst, strings.NewReader("abc"), 0, func(float64) { called = true })
	if err != nil {
		t.Fatalf("CopyWithProgress: %v", err)
	}
	if called {
		t.Fatal("progress should not be reported without a total")
	}
	if result.Written != 3 || dst.String() != "abc" {
		t.Fatalf("unexpected result %+v / %q", result, dst.String())
	}
}
