package config

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Paths contains directory and socket configuration.
type Paths struct {
	StateDir   string `toml:"state_dir"`
	ModulesDir string `toml:"modules_dir"`
	LogDir     string `toml:"log_dir"`
	Socket     string `toml:"socket"`
}

// Daemon contains settings only the daemon reads.
type Daemon struct {
	DefaultLocationName string `toml:"default_location_name"`
	DefaultLocationPath string `toml:"default_location_path"`
	AutoloadModules     bool   `toml:"autoload_modules"`
}

// Client contains timing for callers of the daemon.
type Client struct {
	ConnectTimeoutMillis int `toml:"connect_timeout_ms"`
	CallTimeoutMillis    int `toml:"call_timeout_ms"`
	PollIntervalMillis   int `toml:"poll_interval_ms"`
}

// Notifications configures optional ntfy alerts for finished elements.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_s"`
	NotifyCompleted       bool   `toml:"notify_completed"`
	NotifyFailed          bool   `toml:"notify_failed"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format string `toml:"format"`
	Level  string `toml:"level"`
}

// Config encapsulates all configuration values for muzzman.
//
// Configuration sections by subsystem:
//   - Paths: state, module manifests, logs and the daemon socket
//   - Daemon: default location and module autoload
//   - Client: connect, call and progress poll timing
//   - Notifications: ntfy alerts for finished elements
//   - Logging: log format and level
type Config struct {
	Paths         Paths         `toml:"paths"`
	Daemon        Daemon        `toml:"daemon"`
	Client        Client        `toml:"client"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load resolves path (or the default search order when empty), decodes it
// over Default() when it exists, then normalizes and validates. It returns
// the config, the file it resolved to and whether that file existed.
func Load(path string) (*Config, string, bool, error) {
	resolved, exists, err := locateConfig(path)
	if err != nil {
		return nil, "", false, err
	}

	cfg := Default()
	if exists {
		if err := decodeFile(resolved, &cfg); err != nil {
			return nil, "", false, err
		}
	}
	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}
	return &cfg, resolved, exists, nil
}

// decodeFile rejects keys the Config type does not declare.
func decodeFile(path string, cfg *Config) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config: %w", err)
	}
	dec := toml.NewDecoder(bytes.NewReader(data))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

// locateConfig expands an explicit path, or else tries the user config
// path and then ./muzzman.toml. A missing explicit file is not an error.
func locateConfig(explicit string) (string, bool, error) {
	if explicit != "" {
		path, err := expandPath(explicit)
		if err != nil {
			return "", false, err
		}
		exists, err := isRegularFile(path)
		if err != nil {
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return path, exists, nil
	}

	userPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}
	localPath, err := expandPath("muzzman.toml")
	if err != nil {
		return "", false, err
	}
	for _, candidate := range []string{userPath, localPath} {
		if ok, _ := isRegularFile(candidate); ok {
			return candidate, true, nil
		}
	}
	return userPath, false, nil
}

func isRegularFile(path string) (bool, error) {
	info, err := os.Stat(path)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return false, nil
	case err != nil:
		return false, err
	default:
		return !info.IsDir(), nil
	}
}

// EnsureDirectories creates required directories for daemon operation.
// The default location directory is created by the daemon itself so a
// missing mount surfaces as an element I/O error instead of a startup failure.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.StateDir, c.Paths.ModulesDir, c.Paths.LogDir} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	if dir := filepath.Dir(c.SocketPath()); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create socket directory %q: %w", dir, err)
		}
	}
	return nil
}

// SocketPath returns the unix socket the daemon listens on.
func (c *Config) SocketPath() string {
	if strings.TrimSpace(c.Paths.Socket) != "" {
		return c.Paths.Socket
	}
	return filepath.Join(c.Paths.StateDir, "muzzman.sock")
}

// DBPath returns the SQLite database holding persisted state.
func (c *Config) DBPath() string {
	return filepath.Join(c.Paths.StateDir, "muzzman.db")
}

// LockPath returns the single-instance lock file.
func (c *Config) LockPath() string {
	return filepath.Join(c.Paths.StateDir, "muzzmand.lock")
}

// NotifyTimeout bounds one ntfy request.
func (c *Config) NotifyTimeout() time.Duration {
	return time.Duration(c.Notifications.RequestTimeoutSeconds) * time.Second
}

// PIDPath returns the file the running daemon records its pid in.
func (c *Config) PIDPath() string {
	return filepath.Join(c.Paths.StateDir, "muzzmand.pid")
}

// LogPath returns the daemon log file.
func (c *Config) LogPath() string {
	return filepath.Join(c.Paths.LogDir, "muzzmand.log")
}

// ConnectTimeout bounds dialing and probing the daemon.
func (c *Config) ConnectTimeout() time.Duration {
	return time.Duration(c.Client.ConnectTimeoutMillis) * time.Millisecond
}

// CallTimeout bounds a single remote call.
func (c *Config) CallTimeout() time.Duration {
	return time.Duration(c.Client.CallTimeoutMillis) * time.Millisecond
}

// PollInterval is the delay between progress polls.
func (c *Config) PollInterval() time.Duration {
	return time.Duration(c.Client.PollIntervalMillis) * time.Millisecond
}

// expandPath turns "~" and "~/..." into home-relative paths and returns an
// absolute, cleaned result. The empty string passes through.
func expandPath(p string) (string, error) {
	if p == "" {
		return "", nil
	}
	if p == "~" || strings.HasPrefix(p, "~/") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		p = filepath.Join(home, strings.TrimPrefix(p[1:], "/"))
	}
	abs, err := filepath.Abs(p)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", p, err)
	}
	return abs, nil
}

// ExpandPath applies the same "~" and absolute-path rules Load uses.
func ExpandPath(p string) (string, error) {
	return expandPath(p)
}

// CreateSample writes the commented sample configuration to path, creating
// parent directories as needed.
func CreateSample(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("create config directory: %w", err)
	}
	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
