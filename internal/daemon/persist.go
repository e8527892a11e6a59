package daemon

import (
	"context"
	"fmt"

	"muzzman/internal/logging"
	"muzzman/internal/store"
	"muzzman/internal/value"
)

// Persistence is write-through and best effort: in-memory state stays
// authoritative and a failed write is logged, not returned.

func (d *Daemon) persistFailed(what string, err error) {
	logging.WarnWithContext(d.logger, "state write failed", "store_write_failed",
		logging.String("object", what),
		logging.Error(err),
		logging.String(logging.FieldImpact, "change is lost on daemon restart"),
		logging.String(logging.FieldErrorHint, "check free space and permissions of the state directory"))
}

func (d *Daemon) persistModuleLocked(ctx context.Context, m *module) {
	if d.store == nil {
		return
	}
	err := d.store.SaveModule(ctx, store.ModuleRecord{
		ID:       m.id,
		Path:     m.loaded.Path,
		Name:     m.name,
		Desc:     m.desc,
		Proxy:    m.proxy,
		LoadedAt: m.loadedAt,
	})
	if err != nil {
		d.persistFailed(m.id.String(), err)
	}
}

func (d *Daemon) persistLocationLocked(ctx context.Context, loc *location) {
	if d.store == nil || !loc.shouldSave {
		return
	}
	err := d.store.SaveLocation(ctx, store.LocationRecord{
		ID:        loc.id,
		Parent:    loc.parent,
		Name:      loc.name,
		Desc:      loc.desc,
		Path:      loc.path,
		CreatedAt: loc.createdAt,
	})
	if err != nil {
		d.persistFailed(loc.id.String(), err)
	}
}

func (d *Daemon) persistLocationTreeLocked(ctx context.Context, loc *location) {
	d.persistLocationLocked(ctx, loc)
	for _, id := range loc.elements {
		if el, ok := d.elements[id]; ok {
			d.persistElementLocked(ctx, el)
		}
	}
}

func (d *Daemon) unpersistLocationLocked(ctx context.Context, loc *location) {
	if d.store == nil {
		return
	}
	if err := d.store.DeleteLocation(ctx, loc.id); err != nil {
		d.persistFailed(loc.id.String(), err)
	}
}

func (d *Daemon) persistElementLocked(ctx context.Context, el *element) {
	if d.store == nil {
		return
	}
	loc, ok := d.locations[el.location]
	if !ok || !loc.shouldSave {
		return
	}
	err := d.store.SaveElement(ctx, store.ElementRecord{
		ID:          el.id,
		Location:    el.location,
		Name:        el.name,
		Desc:        el.desc,
		Meta:        el.meta,
		Module:      el.module,
		Initialized: el.initialized,
		ElementData: el.data,
		ModuleData:  el.moduleData,
		Output:      el.output,
		Progress:    el.progress,
		StatusMsg:   el.status,
		CreatedAt:   el.createdAt,
	})
	if err != nil {
		d.persistFailed(el.id.String(), err)
	}
}

func (d *Daemon) deleteElementLocked(ctx context.Context, el *element) {
	if d.store == nil {
		return
	}
	if err := d.store.DeleteElement(ctx, el.id); err != nil {
		d.persistFailed(el.id.String(), err)
	}
}

// restore rebuilds modules, locations and elements from the store. The
// first root location becomes the default; orphaned locations are attached
// under it. Restored elements are disabled.
func (d *Daemon) restore(ctx context.Context) error {
	if d.store == nil {
		return nil
	}
	d.mu.Lock()
	restored := len(d.locations) > 0
	d.mu.Unlock()
	if restored {
		return nil
	}
	mods, err := d.store.ListModules(ctx)
	if err != nil {
		return err
	}
	locs, err := d.store.ListLocations(ctx)
	if err != nil {
		return err
	}
	els, err := d.store.ListElements(ctx)
	if err != nil {
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()

	for _, rec := range mods {
		loaded, err := d.registry.Load(rec.Path)
		if err != nil {
			logging.WarnWithContext(d.logger, "persisted module could not be reloaded", "module_restore_failed",
				logging.String(logging.FieldModuleID, rec.ID.String()),
				logging.String("path", rec.Path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "elements bound to this module must be resolved again"))
			continue
		}
		d.addModuleLocked(&module{
			id:       rec.ID,
			loaded:   loaded,
			name:     rec.Name,
			desc:     rec.Desc,
			proxy:    rec.Proxy,
			loadedAt: rec.LoadedAt,
		})
	}

	for _, rec := range locs {
		loc := &location{
			id:         rec.ID,
			name:       rec.Name,
			desc:       rec.Desc,
			path:       rec.Path,
			shouldSave: true,
			createdAt:  rec.CreatedAt,
		}
		d.locations[loc.id] = loc
		if d.defaultLocation.IsZero() {
			d.defaultLocation = loc.id
			continue
		}
		parentID := d.defaultLocation
		if rec.Parent != nil {
			if _, ok := d.locations[*rec.Parent]; ok {
				parentID = *rec.Parent
			}
		}
		loc.parent = &parentID
		parent := d.locations[parentID]
		parent.children = append(parent.children, loc.id)
	}

	for _, rec := range els {
		loc, ok := d.locations[rec.Location]
		if !ok {
			continue
		}
		status := rec.StatusMsg
		if status == statusRunning {
			status = statusStopped
		}
		el := &element{
			id:          rec.ID,
			location:    rec.Location,
			name:        rec.Name,
			desc:        rec.Desc,
			meta:        rec.Meta,
			module:      rec.Module,
			initialized: rec.Initialized,
			data:        orEmpty(rec.ElementData),
			moduleData:  orEmpty(rec.ModuleData),
			output:      orEmpty(rec.Output),
			options:     value.NewData(),
			progress:    rec.Progress,
			status:      status,
			createdAt:   rec.CreatedAt,
		}
		d.elements[el.id] = el
		loc.elements = append(loc.elements, el.id)
	}

	d.logger.Info("state restored",
		logging.Int("modules", len(d.modules)),
		logging.Int("locations", len(d.locations)),
		logging.Int("elements", len(d.elements)),
		logging.String("db", d.store.Path()),
		logging.String(logging.FieldEventType, "state_restored"))
	return nil
}

func orEmpty(data value.Data) value.Data {
	if data.Len() == 0 {
		return value.NewData()
	}
	return data
}

// String renders a short summary for diagnostics.
func (d *Daemon) String() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return fmt.Sprintf("daemon(modules=%d locations=%d elements=%d)", len(d.modules), len(d.locations), len(d.elements))
}
