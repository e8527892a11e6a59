package modules

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"muzzman/internal/failure"
)

// ManifestExt is the file extension of module manifests.
const ManifestExt = ".toml"

// Manifest is the on-disk description of a module.
type Manifest struct {
	Kind  string `toml:"kind"`
	Name  string `toml:"name"`
	Desc  string `toml:"desc"`
	Proxy int    `toml:"proxy"`
}

// Loaded is a manifest bound to a fresh plugin instance.
type Loaded struct {
	Path     string
	Manifest Manifest
	Plugin   Plugin
}

// Name is the manifest name, falling back to the plugin default.
func (l Loaded) Name() string {
	if l.Manifest.Name != "" {
		return l.Manifest.Name
	}
	return l.Plugin.DefaultName()
}

// Desc is the manifest description, falling back to the plugin default.
func (l Loaded) Desc() string {
	if l.Manifest.Desc != "" {
		return l.Manifest.Desc
	}
	return l.Plugin.DefaultDesc()
}

// ReadManifest parses the manifest at path. Every failure is classified as
// failure.ErrLoad.
func ReadManifest(path string) (Manifest, error) {
	var m Manifest
	raw, err := os.ReadFile(path)
	if err != nil {
		return m, fmt.Errorf("%w: read manifest %s: %w", failure.ErrLoad, path, err)
	}
	if err := toml.Unmarshal(raw, &m); err != nil {
		return m, fmt.Errorf("%w: parse manifest %s: %w", failure.ErrLoad, path, err)
	}
	m.Kind = strings.ToLower(strings.TrimSpace(m.Kind))
	m.Name = strings.TrimSpace(m.Name)
	m.Desc = strings.TrimSpace(m.Desc)
	if m.Kind == "" {
		return m, fmt.Errorf("%w: manifest %s: kind is required", failure.ErrLoad, path)
	}
	if m.Proxy < 0 {
		return m, fmt.Errorf("%w: manifest %s: proxy must not be negative", failure.ErrLoad, path)
	}
	return m, nil
}

// Load reads the manifest at path and instantiates its plugin.
func (r *Registry) Load(path string) (Loaded, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return Loaded{}, fmt.Errorf("%w: %w", failure.ErrLoad, err)
	}
	manifest, err := ReadManifest(abs)
	if err != nil {
		return Loaded{}, err
	}
	plugin, err := r.New(manifest.Kind)
	if err != nil {
		return Loaded{}, fmt.Errorf("manifest %s: %w", abs, err)
	}
	return Loaded{Path: abs, Manifest: manifest, Plugin: plugin}, nil
}

// Discover lists manifest files in dir in lexical order. A missing
// directory yields no manifests.
func Discover(dir string) ([]string, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("read modules dir: %w", err)
	}
	var paths []string
	for _, entry := range entries {
		if entry.IsDir() || !strings.EqualFold(filepath.Ext(entry.Name()), ManifestExt) {
			continue
		}
		paths = append(paths, filepath.Join(dir, entry.Name()))
	}
	sort.Strings(paths)
	return paths, nil
}

// Match keeps the paths containing needle. An empty needle keeps all.
func Match(paths []string, needle string) []string {
	var out []string
	for _, p := range paths {
		if strings.Contains(p, needle) {
			out = append(out, p)
		}
	}
	return out
}
