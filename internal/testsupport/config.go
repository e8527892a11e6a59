package testsupport

import (
	"os"
	"path/filepath"
	"testing"

	"muzzman/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// Autoloading is off and the socket lives in a short temp directory so the
// path stays under the unix socket length limit.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Paths.StateDir = filepath.Join(base, "state")
	cfgVal.Paths.ModulesDir = filepath.Join(base, "modules")
	cfgVal.Paths.LogDir = filepath.Join(base, "logs")
	cfgVal.Paths.Socket = filepath.Join(shortTempDir(t), "muzzman.sock")
	cfgVal.Daemon.DefaultLocationPath = filepath.Join(base, "downloads")
	cfgVal.Daemon.AutoloadModules = false
	cfgVal.Client.PollIntervalMillis = 10

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	if err := builder.cfg.EnsureDirectories(); err != nil {
		t.Fatalf("ensure directories: %v", err)
	}
	return builder.cfg
}

// WithAutoload enables loading every manifest in the modules directory at
// daemon start.
func WithAutoload() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Daemon.AutoloadModules = true
	}
}

// WithManifest writes a module manifest of the given kind into the modules
// directory. The file is named <name>.toml.
func WithManifest(name, kind string) ConfigOption {
	return func(b *configBuilder) {
		WriteManifest(b.t, filepath.Join(b.cfg.Paths.ModulesDir, name+".toml"), kind, name)
	}
}

// WriteManifest writes a minimal manifest for kind at path.
func WriteManifest(t testing.TB, path, kind, name string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir for %s: %v", path, err)
	}
	body := "kind = \"" + kind + "\"\nname = \"" + name + "\"\n"
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write manifest %s: %v", path, err)
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Paths.StateDir)
}

func shortTempDir(t testing.TB) string {
	t.Helper()
	dir, err := os.MkdirTemp("", "mz")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	return dir
}
