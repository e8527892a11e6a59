package daemonrun

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"syscall"

	"muzzman/internal/config"
	"muzzman/internal/daemon"
	"muzzman/internal/ipc"
	"muzzman/internal/logging"
	"muzzman/internal/modules"
	"muzzman/internal/preflight"
	"muzzman/internal/store"
)

// Options configures daemon process runtime behavior.
type Options struct {
	LogLevel string
	Version  string
	// Registry overrides the builtin module registry.
	Registry *modules.Registry
	// Logger overrides the logger built from the config.
	Logger *slog.Logger
	// Ready is called once the socket accepts connections.
	Ready func(socketPath string)
}

// Run starts the muzzman daemon and blocks until the context is cancelled
// or the process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger := opts.Logger
	if logger == nil {
		var err error
		if logger, err = newLogger(cfg, opts.LogLevel); err != nil {
			return fmt.Errorf("init logger: %w", err)
		}
	}

	if failed := preflight.Failed(preflight.RunAll(cfg)); len(failed) > 0 {
		details := make([]string, 0, len(failed))
		for _, r := range failed {
			details = append(details, r.Name+": "+r.Detail)
			logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", r.Name),
				logging.String("detail", r.Detail),
				logging.String(logging.FieldErrorHint, "fix the path or its permissions in the config"))
		}
		return fmt.Errorf("preflight failed: %s", strings.Join(details, "; "))
	}

	registry := opts.Registry
	if registry == nil {
		registry = modules.NewDefaultRegistry()
	}
	logStartupSnapshot(logger, cfg, registry)

	st, err := store.Open(cfg)
	if err != nil {
		logger.Error("open state store", logging.Error(err))
		return err
	}

	d, err := daemon.New(cfg, st, registry, logger, opts.Version)
	if err != nil {
		st.Close()
		return fmt.Errorf("create daemon: %w", err)
	}
	defer d.Close()

	// Start takes the instance lock, so a second daemon fails here before
	// touching the first one's socket.
	if err := d.Start(signalCtx); err != nil {
		return fmt.Errorf("start daemon: %w", err)
	}

	pidPath := cfg.PIDPath()
	if err := writePIDFile(pidPath); err != nil {
		return fmt.Errorf("write pid file: %w", err)
	}
	defer os.Remove(pidPath)

	ipcServer, err := ipc.NewServer(signalCtx, cfg.SocketPath(), d, logger)
	if err != nil {
		return fmt.Errorf("start IPC server: %w", err)
	}
	defer ipcServer.Close()
	ipcServer.Serve()

	logger.Info("muzzmand listening",
		logging.String(logging.FieldEventType, "daemon_listening"),
		logging.String("socket", cfg.SocketPath()),
		logging.Int("pid", os.Getpid()))
	if opts.Ready != nil {
		opts.Ready(cfg.SocketPath())
	}

	<-signalCtx.Done()
	logger.Info("muzzman daemon shutting down")
	return nil
}

func newLogger(cfg *config.Config, level string) (*slog.Logger, error) {
	if strings.TrimSpace(level) == "" {
		return logging.NewFromConfig(cfg)
	}
	override := *cfg
	override.Logging.Level = level
	return logging.NewFromConfig(&override)
}

func writePIDFile(path string) error {
	if path == "" {
		return nil
	}
	value := strconv.Itoa(os.Getpid()) + "\n"
	return os.WriteFile(path, []byte(value), 0o644)
}

func logStartupSnapshot(logger *slog.Logger, cfg *config.Config, registry *modules.Registry) {
	if logger == nil || cfg == nil {
		return
	}
	logger.Info("startup snapshot",
		logging.String(logging.FieldEventType, "startup_snapshot"),
		logging.String("state_dir", cfg.Paths.StateDir),
		logging.String("modules_dir", cfg.Paths.ModulesDir),
		logging.String("default_location", cfg.Daemon.DefaultLocationPath),
		logging.Bool("autoload_modules", cfg.Daemon.AutoloadModules),
		logging.String("module_kinds", strings.Join(registry.Kinds(), ",")),
	)
}
