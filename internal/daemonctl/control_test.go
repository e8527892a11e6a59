package daemonctl_test

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muzzman/internal/daemonctl"
	"muzzman/internal/testsupport"
)

func TestProbeWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	status, err := daemonctl.Probe(context.Background(), cfg.SocketPath(), 200*time.Millisecond)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if status.Running {
		t.Fatal("expected daemon to be reported as not running")
	}
}

func TestProbeRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.StartDaemon(t, cfg)

	status, err := daemonctl.Probe(context.Background(), cfg.SocketPath(), time.Second)
	if err != nil {
		t.Fatalf("Probe: %v", err)
	}
	if !status.Running || status.PID != os.Getpid() || status.Version != "test" {
		t.Fatalf("unexpected status %+v", status)
	}
}

func TestStopWithoutDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	_, err := daemonctl.StopAndTerminate(context.Background(), cfg, cfg.SocketPath(), 100*time.Millisecond)
	if !errors.Is(err, daemonctl.ErrDaemonNotRunning) {
		t.Fatalf("expected ErrDaemonNotRunning, got %v", err)
	}
}

func TestStopRefusesCurrentProcess(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.StartDaemon(t, cfg)

	_, err := daemonctl.StopAndTerminate(context.Background(), cfg, cfg.SocketPath(), 100*time.Millisecond)
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected refusal to signal the test process, got %v", err)
	}
}

func TestEnsureStartedReportsRunningDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.StartDaemon(t, cfg)

	result, err := daemonctl.EnsureStarted(context.Background(), cfg.SocketPath(), "/nonexistent/muzzmand", daemonctl.LaunchOptions{}, time.Second)
	if err != nil {
		t.Fatalf("EnsureStarted: %v", err)
	}
	if result.State != daemonctl.StartStateAlreadyRunning || result.PID != os.Getpid() {
		t.Fatalf("unexpected result %+v", result)
	}
}

func TestLaunchRequiresExecutable(t *testing.T) {
	if _, err := daemonctl.Launch("", daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected empty executable path to fail")
	}
	if _, err := daemonctl.Launch(filepath.Join(t.TempDir(), "missing"), daemonctl.LaunchOptions{}); err == nil {
		t.Fatal("expected missing executable to fail")
	}
}
