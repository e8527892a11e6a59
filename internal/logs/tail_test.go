package logs_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"muzzman/internal/logs"
)

func writeLog(t *testing.T, path, content string) {
	t.Helper()
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write log: %v", err)
	}
}

func appendLog(t *testing.T, path, content string) {
	t.Helper()
	f, err := os.OpenFile(path, os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open log: %v", err)
	}
	defer f.Close()
	if _, err := f.WriteString(content); err != nil {
		t.Fatalf("append log: %v", err)
	}
}

func TestLastLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muzzmand.log")
	writeLog(t, path, "a\nb\nc\n")

	lines, offset, err := logs.Last(path, 2)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if diff := cmp.Diff([]string{"b", "c"}, lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
	if offset != 6 {
		t.Fatalf("offset = %d, want 6", offset)
	}

	lines, _, err = logs.Last(path, 10)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}
	if diff := cmp.Diff([]string{"a", "b", "c"}, lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
}

func TestLastMissingFile(t *testing.T) {
	lines, offset, err := logs.Last(filepath.Join(t.TempDir(), "missing.log"), 5)
	if err != nil || lines != nil || offset != 0 {
		t.Fatalf("expected empty result, got %v %d %v", lines, offset, err)
	}
}

func TestFromKeepsPartialLine(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muzzmand.log")
	writeLog(t, path, "one\ntw")

	lines, offset, err := logs.From(path, 0)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if diff := cmp.Diff([]string{"one"}, lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}

	appendLog(t, path, "o\n")
	lines, _, err = logs.From(path, offset)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if diff := cmp.Diff([]string{"two"}, lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
}

func TestFromRestartsAfterTruncate(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muzzmand.log")
	writeLog(t, path, "x\n")
	lines, _, err := logs.From(path, 100)
	if err != nil {
		t.Fatalf("From: %v", err)
	}
	if diff := cmp.Diff([]string{"x"}, lines); diff != "" {
		t.Fatalf("lines (-want +got):\n%s", diff)
	}
}

func TestFollowDeliversAppendedLines(t *testing.T) {
	path := filepath.Join(t.TempDir(), "muzzmand.log")
	writeLog(t, path, "old\n")
	_, offset, err := logs.Last(path, 0)
	if err != nil {
		t.Fatalf("Last: %v", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var mu sync.Mutex
	var got []string
	done := make(chan error, 1)
	go func() {
		done <- logs.Follow(ctx, path, offset, 10*time.Millisecond, func(line string) {
			mu.Lock()
			got = append(got, line)
			mu.Unlock()
		})
	}()

	appendLog(t, path, "new\n")
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		mu.Lock()
		n := len(got)
		mu.Unlock()
		if n > 0 {
			break
		}
		time.Sleep(10 * time.Millisecond)
	}
	cancel()
	<-done

	mu.Lock()
	defer mu.Unlock()
	if diff := cmp.Diff([]string{"new"}, got); diff != "" {
		t.Fatalf("followed lines (-want +got):\n%s", diff)
	}
}
