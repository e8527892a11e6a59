package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizePaths(); err != nil {
		return err
	}
	if err := c.normalizeDaemon(); err != nil {
		return err
	}
	c.normalizeClient()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.StateDir) == "" {
		c.Paths.StateDir = defaultStateDir
	}
	if c.Paths.StateDir, err = expandPath(c.Paths.StateDir); err != nil {
		return fmt.Errorf("paths.state_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.ModulesDir) == "" {
		c.Paths.ModulesDir = defaultModulesDir
	}
	if c.Paths.ModulesDir, err = expandPath(c.Paths.ModulesDir); err != nil {
		return fmt.Errorf("paths.modules_dir: %w", err)
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	if value, ok := os.LookupEnv(SocketEnv); ok && strings.TrimSpace(value) != "" {
		c.Paths.Socket = strings.TrimSpace(value)
	}
	if c.Paths.Socket, err = expandPath(strings.TrimSpace(c.Paths.Socket)); err != nil {
		return fmt.Errorf("paths.socket: %w", err)
	}
	return nil
}

func (c *Config) normalizeDaemon() error {
	var err error
	c.Daemon.DefaultLocationName = strings.TrimSpace(c.Daemon.DefaultLocationName)
	if c.Daemon.DefaultLocationName == "" {
		c.Daemon.DefaultLocationName = defaultLocationName
	}
	if strings.TrimSpace(c.Daemon.DefaultLocationPath) == "" {
		c.Daemon.DefaultLocationPath = defaultLocationPath
	}
	if c.Daemon.DefaultLocationPath, err = expandPath(c.Daemon.DefaultLocationPath); err != nil {
		return fmt.Errorf("daemon.default_location_path: %w", err)
	}
	return nil
}

func (c *Config) normalizeClient() {
	if c.Client.ConnectTimeoutMillis == 0 {
		c.Client.ConnectTimeoutMillis = defaultConnectTimeoutMillis
	}
	if c.Client.CallTimeoutMillis == 0 {
		c.Client.CallTimeoutMillis = defaultCallTimeoutMillis
	}
	if c.Client.PollIntervalMillis == 0 {
		c.Client.PollIntervalMillis = defaultPollIntervalMillis
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds == 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
}
