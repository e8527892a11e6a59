package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"muzzman/internal/config"
	"muzzman/internal/failure"
	"muzzman/internal/ipc"
	"muzzman/internal/logging"
	"muzzman/internal/session"
)

type commandContext struct {
	socketFlag  *string
	configFlag  *string
	jsonFlag    *bool
	verboseFlag *bool

	configOnce sync.Once
	config     *config.Config
	configErr  error

	session *session.Session
}

func newCommandContext(socketFlag, configFlag *string, jsonFlag, verboseFlag *bool) *commandContext {
	return &commandContext{
		socketFlag:  socketFlag,
		configFlag:  configFlag,
		jsonFlag:    jsonFlag,
		verboseFlag: verboseFlag,
	}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, _, _, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
	})
	return c.config, c.configErr
}

func (c *commandContext) jsonOutput() bool {
	return c.jsonFlag != nil && *c.jsonFlag
}

func (c *commandContext) logger() *slog.Logger {
	if c.verboseFlag != nil && *c.verboseFlag {
		return logging.NewCLI("debug")
	}
	return logging.NewNop()
}

func (c *commandContext) socketPath() string {
	if c.socketFlag != nil {
		if socket := strings.TrimSpace(*c.socketFlag); socket != "" {
			return socket
		}
	}
	if cfg, err := c.ensureConfig(); err == nil && cfg != nil {
		return cfg.SocketPath()
	}
	def := config.Default()
	return def.SocketPath()
}

// connect opens the session once per command and probes the default
// location so a missing daemon is reported before any mutation.
func (c *commandContext) connect(ctx context.Context) (*session.Session, error) {
	if c.session != nil {
		return c.session, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	socket := c.socketPath()
	sess, err := session.Connect(ctx, ipc.Dialer(socket), session.Options{
		ConnectTimeout: cfg.ConnectTimeout(),
		CallTimeout:    cfg.CallTimeout(),
		Logger:         c.logger(),
	})
	if err != nil {
		return nil, wrapConnectError(err, socket)
	}
	if _, err := sess.DefaultLocation(ctx); err != nil {
		_ = sess.Close()
		return nil, wrapConnectError(err, socket)
	}
	c.session = sess
	return sess, nil
}

func (c *commandContext) withSession(cmd *cobra.Command, fn func(context.Context, *session.Session) error) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	sess, err := c.connect(ctx)
	if err != nil {
		return err
	}
	return fn(ctx, sess)
}

func (c *commandContext) close() error {
	if c.session == nil {
		return nil
	}
	err := c.session.Close()
	c.session = nil
	return err
}

func wrapConnectError(err error, socket string) error {
	switch {
	case errors.Is(err, failure.ErrNotRunning), errors.Is(err, failure.ErrTimeout):
		return fmt.Errorf("daemon is not started (socket %s); start it with `muzzman daemon start`: %w", socket, err)
	case errors.Is(err, failure.ErrNotFound):
		return fmt.Errorf("daemon has no default location; check daemon.default_location_path: %w", err)
	default:
		return fmt.Errorf("connect to daemon: %w", err)
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}

func yesNo(value bool) string {
	if value {
		return "yes"
	}
	return "no"
}
