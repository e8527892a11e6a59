package config

import (
	"errors"
	"fmt"
	"net/url"
	"path/filepath"
)

// maxSocketPath is the sun_path limit on Linux minus the terminator.
const maxSocketPath = 107

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validatePaths(); err != nil {
		return err
	}
	if err := c.validateClient(); err != nil {
		return err
	}
	if err := c.validateNotifications(); err != nil {
		return err
	}
	if err := c.validateLogging(); err != nil {
		return err
	}
	return nil
}

func (c *Config) validatePaths() error {
	if c.Paths.StateDir == "" {
		return errors.New("paths.state_dir must be set")
	}
	if !filepath.IsAbs(c.Daemon.DefaultLocationPath) {
		return fmt.Errorf("daemon.default_location_path must be absolute, got %q", c.Daemon.DefaultLocationPath)
	}
	if len(c.SocketPath()) > maxSocketPath {
		return fmt.Errorf("socket path %q exceeds %d bytes; set paths.socket or %s to a shorter path", c.SocketPath(), maxSocketPath, SocketEnv)
	}
	return nil
}

func (c *Config) validateClient() error {
	if c.Client.ConnectTimeoutMillis <= 0 {
		return errors.New("client.connect_timeout_ms must be positive")
	}
	if c.Client.CallTimeoutMillis <= 0 {
		return errors.New("client.call_timeout_ms must be positive")
	}
	if c.Client.PollIntervalMillis <= 0 {
		return errors.New("client.poll_interval_ms must be positive")
	}
	return nil
}

func (c *Config) validateNotifications() error {
	if c.Notifications.RequestTimeoutSeconds < 0 {
		return errors.New("notifications.request_timeout_s must not be negative")
	}
	topic := c.Notifications.NtfyTopic
	if topic == "" {
		return nil
	}
	u, err := url.Parse(topic)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") || u.Host == "" {
		return fmt.Errorf("notifications.ntfy_topic must be an http(s) url, got %q", topic)
	}
	return nil
}

func (c *Config) validateLogging() error {
	switch c.Logging.Level {
	case "debug", "info", "warn", "error":
		return nil
	default:
		return fmt.Errorf("logging.level: unsupported value %q", c.Logging.Level)
	}
}
