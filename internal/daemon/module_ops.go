package daemon

import (
	"context"
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/modules"
)

// ModulesLen returns the number of loaded modules.
func (d *Daemon) ModulesLen() int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.modules)
}

// Modules returns module ids in load order for [start, end).
func (d *Daemon) Modules(start, end int) ([]ids.ModuleID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if err := failure.CheckRange(start, end, len(d.modules)); err != nil {
		return nil, err
	}
	out := make([]ids.ModuleID, 0, end-start)
	for _, m := range d.modules[start:end] {
		out = append(out, m.id)
	}
	return out, nil
}

// LoadModule reads the manifest at path and appends a new module. Loading
// the same path twice yields two modules.
func (d *Daemon) LoadModule(ctx context.Context, path string) (ids.ModuleID, error) {
	loaded, err := d.registry.Load(path)
	if err != nil {
		logging.WarnWithContext(d.logger, "module load failed", "module_load_failed",
			logging.String("path", path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "module unavailable for resolution"),
			logging.String(logging.FieldErrorHint, "check the manifest kind and syntax"))
		return ids.ModuleID{}, err
	}

	m := &module{
		id:       ids.NewModuleID(),
		loaded:   loaded,
		name:     loaded.Name(),
		desc:     loaded.Desc(),
		proxy:    loaded.Manifest.Proxy,
		loadedAt: time.Now().UTC(),
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.addModuleLocked(m)
	d.persistModuleLocked(ctx, m)
	d.logger.Info("module loaded",
		logging.String(logging.FieldModuleID, m.id.String()),
		logging.String(logging.FieldModuleKind, loaded.Plugin.Kind()),
		logging.String("name", m.name),
		logging.String("path", loaded.Path),
		logging.String(logging.FieldEventType, "module_loaded"))
	return m.id, nil
}

func (d *Daemon) addModuleLocked(m *module) {
	d.modules = append(d.modules, m)
	d.moduleByID[m.id] = m
}

// autoload loads every manifest in the modules directory that is not
// already loaded.
func (d *Daemon) autoload(ctx context.Context) {
	paths, err := modules.Discover(d.cfg.Paths.ModulesDir)
	if err != nil {
		logging.WarnWithContext(d.logger, "module discovery failed", "module_discovery_failed",
			logging.String("path", d.cfg.Paths.ModulesDir),
			logging.Error(err))
		return
	}

	d.mu.Lock()
	known := make(map[string]struct{}, len(d.modules))
	for _, m := range d.modules {
		known[m.loaded.Path] = struct{}{}
	}
	d.mu.Unlock()

	for _, path := range paths {
		if _, ok := known[path]; ok {
			continue
		}
		_, _ = d.LoadModule(ctx, path)
	}
}
