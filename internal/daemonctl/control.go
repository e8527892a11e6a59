package daemonctl

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"muzzman/internal/config"
	"muzzman/internal/failure"
	"muzzman/internal/ipc"
	"muzzman/internal/session"
)

// DaemonBinary is the executable Launch looks for.
const DaemonBinary = "muzzmand"

const pollInterval = 100 * time.Millisecond

// LaunchOptions controls daemon process launch behavior.
type LaunchOptions struct {
	ConfigPath string
	LogLevel   string
}

type StartState string

const (
	StartStateStarted        StartState = "started"
	StartStateAlreadyRunning StartState = "already_running"
)

// StartResult captures daemon start orchestration state.
type StartResult struct {
	State StartState
	PID   int
}

// Status describes a reachable daemon.
type Status struct {
	Running bool
	PID     int
	Version string
	Socket  string
}

// ErrDaemonNotRunning indicates daemon IPC is unavailable.
var ErrDaemonNotRunning = errors.New("daemon not running")

// ResolveExecutable finds muzzmand next to the running binary, falling back
// to PATH.
func ResolveExecutable() (string, error) {
	if self, err := os.Executable(); err == nil {
		candidate := filepath.Join(filepath.Dir(self), DaemonBinary)
		if info, err := os.Stat(candidate); err == nil && !info.IsDir() {
			return candidate, nil
		}
	}
	path, err := exec.LookPath(DaemonBinary)
	if err != nil {
		return "", fmt.Errorf("resolve %s: %w", DaemonBinary, err)
	}
	return path, nil
}

// Launch starts a detached muzzmand process.
func Launch(executablePath string, opts LaunchOptions) (int, error) {
	if strings.TrimSpace(executablePath) == "" {
		return 0, fmt.Errorf("resolve executable: executable path is empty")
	}

	var args []string
	if cfg := strings.TrimSpace(opts.ConfigPath); cfg != "" {
		args = append(args, "--config", cfg)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		args = append(args, "--log-level", level)
	}
	proc := exec.Command(executablePath, args...)
	proc.SysProcAttr = &syscall.SysProcAttr{Setsid: true}
	if err := proc.Start(); err != nil {
		return 0, fmt.Errorf("launch daemon: %w", err)
	}
	pid := proc.Process.Pid
	return pid, proc.Process.Release()
}

// Probe pings the daemon at socketPath. A daemon that is not listening
// yields Status{Running: false} and no error.
func Probe(ctx context.Context, socketPath string, timeout time.Duration) (Status, error) {
	sess, err := session.Connect(ctx, ipc.Dialer(socketPath), session.Options{ConnectTimeout: timeout})
	if err != nil {
		if isDaemonUnavailable(err) {
			return Status{Socket: socketPath}, nil
		}
		return Status{Socket: socketPath}, err
	}
	defer sess.Close()
	return Status{
		Running: true,
		PID:     sess.DaemonPID(),
		Version: sess.DaemonVersion(),
		Socket:  socketPath,
	}, nil
}

// WaitForReady polls until the daemon answers or timeout elapses.
func WaitForReady(ctx context.Context, socketPath string, timeout time.Duration) (Status, error) {
	deadline := time.Now().Add(timeout)
	var lastErr error
	for time.Now().Before(deadline) {
		status, err := Probe(ctx, socketPath, timeout)
		if err == nil && status.Running {
			return status, nil
		}
		lastErr = err
		if err := sleep(ctx, pollInterval); err != nil {
			return Status{}, err
		}
	}
	if lastErr == nil {
		lastErr = fmt.Errorf("timeout waiting for daemon")
	}
	return Status{}, fmt.Errorf("daemon failed to start: %w", lastErr)
}

// EnsureStarted launches muzzmand unless one already answers on socketPath.
func EnsureStarted(ctx context.Context, socketPath, executablePath string, opts LaunchOptions, waitTimeout time.Duration) (StartResult, error) {
	status, err := Probe(ctx, socketPath, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	if status.Running {
		return StartResult{State: StartStateAlreadyRunning, PID: status.PID}, nil
	}
	if _, err := Launch(executablePath, opts); err != nil {
		return StartResult{}, err
	}
	status, err = WaitForReady(ctx, socketPath, waitTimeout)
	if err != nil {
		return StartResult{}, err
	}
	return StartResult{State: StartStateStarted, PID: status.PID}, nil
}

// WaitForShutdown waits for daemon IPC to disappear.
func WaitForShutdown(ctx context.Context, socketPath string, timeout time.Duration) error {
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		status, err := Probe(ctx, socketPath, pollInterval)
		if err == nil && !status.Running {
			return nil
		}
		if err := sleep(ctx, pollInterval); err != nil {
			return err
		}
	}
	return fmt.Errorf("daemon did not stop within %s", timeout)
}

// StopResult captures daemon stop/termination outcome.
type StopResult struct {
	PID        int
	ForcedKill bool
}

// StopAndTerminate sends SIGTERM to the daemon and SIGKILL if it is still
// answering after gracePeriod.
func StopAndTerminate(ctx context.Context, cfg *config.Config, socketPath string, gracePeriod time.Duration) (StopResult, error) {
	status, err := Probe(ctx, socketPath, cfg.ConnectTimeout())
	if err != nil {
		return StopResult{}, err
	}
	if !status.Running {
		return StopResult{}, ErrDaemonNotRunning
	}
	pid := status.PID
	if pid <= 0 {
		pid, err = readPID(cfg.PIDPath())
		if err != nil {
			return StopResult{}, err
		}
	}
	if pid == os.Getpid() {
		return StopResult{}, fmt.Errorf("refusing to signal current process (pid %d)", pid)
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		return StopResult{}, fmt.Errorf("locate daemon process %d: %w", pid, err)
	}
	if err := proc.Signal(syscall.SIGTERM); err != nil {
		return StopResult{}, fmt.Errorf("signal daemon process %d: %w", pid, err)
	}
	result := StopResult{PID: pid}
	if err := WaitForShutdown(ctx, socketPath, gracePeriod); err == nil {
		return result, nil
	}

	if err := proc.Kill(); err != nil {
		return result, fmt.Errorf("kill daemon process %d: %w", pid, err)
	}
	for _, path := range []string{cfg.PIDPath(), socketPath} {
		if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
			return result, fmt.Errorf("remove %s: %w", path, err)
		}
	}
	result.ForcedKill = true
	return result, nil
}

func readPID(path string) (int, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return 0, fmt.Errorf("read daemon pid file %q: %w", path, err)
	}
	pid, err := strconv.Atoi(strings.TrimSpace(string(data)))
	if err != nil || pid <= 0 {
		return 0, fmt.Errorf("unable to determine daemon pid (pid file: %s)", path)
	}
	return pid, nil
}

func isDaemonUnavailable(err error) bool {
	return errors.Is(err, failure.ErrNotRunning) ||
		errors.Is(err, os.ErrNotExist) ||
		errors.Is(err, syscall.ENOENT) ||
		errors.Is(err, syscall.ECONNREFUSED)
}

func sleep(ctx context.Context, d time.Duration) error {
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
