package daemonrun_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muzzman/internal/daemonrun"
	"muzzman/internal/ipc"
	"muzzman/internal/logging"
	"muzzman/internal/session"
	"muzzman/internal/testsupport"
)

func TestRunServesUntilCancelled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	ready := make(chan string, 1)
	done := make(chan error, 1)
	go func() {
		done <- daemonrun.Run(ctx, cfg, daemonrun.Options{
			Version: "test",
			Logger:  logging.NewNop(),
			Ready:   func(socket string) { ready <- socket },
		})
	}()

	var socket string
	select {
	case socket = <-ready:
	case err := <-done:
		if err != nil && strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("unix sockets unavailable: %v", err)
		}
		t.Fatalf("Run returned early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not become ready")
	}
	if socket != cfg.SocketPath() {
		t.Fatalf("ready socket = %q, want %q", socket, cfg.SocketPath())
	}

	sess, err := session.Connect(ctx, ipc.Dialer(socket), session.Options{
		ConnectTimeout: time.Second,
		CallTimeout:    time.Second,
	})
	if err != nil {
		t.Fatalf("Connect: %v", err)
	}
	if sess.DaemonPID() != os.Getpid() {
		t.Fatalf("DaemonPID = %d, want %d", sess.DaemonPID(), os.Getpid())
	}
	if _, err := sess.DefaultLocation(ctx); err != nil {
		t.Fatalf("DefaultLocation: %v", err)
	}
	sess.Close()

	if _, err := os.Stat(cfg.PIDPath()); err != nil {
		t.Fatalf("expected pid file: %v", err)
	}

	second := daemonrun.Run(ctx, cfg, daemonrun.Options{Logger: logging.NewNop()})
	if second == nil || !strings.Contains(second.Error(), "already running") {
		t.Fatalf("expected second daemon to be rejected, got %v", second)
	}

	cancel()
	select {
	case err := <-done:
		if err != nil {
			t.Fatalf("Run: %v", err)
		}
	case <-time.After(5 * time.Second):
		t.Fatal("daemon did not stop")
	}
	if _, err := os.Stat(cfg.PIDPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected pid file removed, got %v", err)
	}
}

func TestRunFailsPreflight(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	blocker := filepath.Join(testsupport.BaseDir(cfg), "blocker")
	testsupport.WriteFile(t, blocker, 0)
	cfg.Daemon.DefaultLocationPath = filepath.Join(blocker, "downloads")

	err := daemonrun.Run(context.Background(), cfg, daemonrun.Options{Logger: logging.NewNop()})
	if err == nil || !strings.Contains(err.Error(), "preflight failed") {
		t.Fatalf("expected preflight failure, got %v", err)
	}
}
