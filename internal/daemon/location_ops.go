package daemon

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/value"
)

// DefaultLocation returns the root location.
func (d *Daemon) DefaultLocation() (ids.LocationID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.defaultLocation.IsZero() {
		return ids.LocationID{}, failure.Newf(failure.ErrNotFound, "no default location")
	}
	return d.defaultLocation, nil
}

func (d *Daemon) ensureDefaultLocation(ctx context.Context) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	if d.defaultLocation.IsZero() {
		loc := &location{
			id:         ids.NewLocationID(),
			name:       d.cfg.Daemon.DefaultLocationName,
			path:       d.cfg.Daemon.DefaultLocationPath,
			shouldSave: true,
			createdAt:  time.Now().UTC(),
		}
		d.locations[loc.id] = loc
		d.defaultLocation = loc.id
		d.persistLocationLocked(ctx, loc)
		d.logger.Info("default location created",
			logging.String(logging.FieldLocationID, loc.id.String()),
			logging.String("path", loc.path),
			logging.String(logging.FieldEventType, "location_created"))
	}

	loc := d.locations[d.defaultLocation]
	if err := os.MkdirAll(loc.path, 0o755); err != nil {
		logging.WarnWithContext(d.logger, "default location directory unavailable", "location_dir_unavailable",
			logging.String("path", loc.path),
			logging.Error(err),
			logging.String(logging.FieldImpact, "elements cannot be created until the directory exists"),
			logging.String(logging.FieldErrorHint, "check daemon.default_location_path permissions"))
	}
	return nil
}

// CreateLocation adds a child location under parent. The directory is
// <parent path>/<name>. New locations are not persisted until should_save
// is set.
func (d *Daemon) CreateLocation(ctx context.Context, parent ids.LocationID, name string) (ids.LocationID, error) {
	name = strings.TrimSpace(name)
	if name == "" || strings.ContainsAny(name, `/\`) {
		return ids.LocationID{}, failure.Newf(failure.ErrInvalid, "invalid location name %q", name)
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	p, err := d.locationLocked(parent)
	if err != nil {
		return ids.LocationID{}, err
	}
	for _, childID := range p.children {
		if d.locations[childID].name == name {
			return ids.LocationID{}, failure.Newf(failure.ErrAlreadyExists, "location %q in %s", name, parent)
		}
	}

	parentID := parent
	loc := &location{
		id:        ids.NewLocationID(),
		parent:    &parentID,
		name:      name,
		path:      filepath.Join(p.path, name),
		createdAt: time.Now().UTC(),
	}
	d.locations[loc.id] = loc
	p.children = append(p.children, loc.id)
	d.logger.Info("location created",
		logging.String(logging.FieldLocationID, loc.id.String()),
		logging.String("name", name),
		logging.String(logging.FieldEventType, "location_created"))
	return loc.id, nil
}

// Children returns child location ids of id in [start, end).
func (d *Daemon) Children(id ids.LocationID, start, end int) ([]ids.LocationID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	loc, err := d.locationLocked(id)
	if err != nil {
		return nil, err
	}
	return pageOf(loc.children, start, end)
}

// Elements returns element ids held by location id in [start, end).
func (d *Daemon) Elements(id ids.LocationID, start, end int) ([]ids.ElementID, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	loc, err := d.locationLocked(id)
	if err != nil {
		return nil, err
	}
	return pageOf(loc.elements, start, end)
}

// CreateElement allocates a disabled element with empty data under the
// location. Names are unique per location.
func (d *Daemon) CreateElement(ctx context.Context, locID ids.LocationID, name string) (ids.ElementID, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return ids.ElementID{}, failure.Newf(failure.ErrInvalid, "element name is required")
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	loc, err := d.locationLocked(locID)
	if err != nil {
		return ids.ElementID{}, err
	}
	if d.elementNameTakenLocked(loc, name, ids.ElementID{}) {
		return ids.ElementID{}, failure.Newf(failure.ErrAlreadyExists, "element %q in %s", name, locID)
	}
	if err := os.MkdirAll(loc.path, 0o755); err != nil {
		return ids.ElementID{}, failure.Newf(failure.ErrIO, "create location directory %s: %v", loc.path, err)
	}

	el := &element{
		id:         ids.NewElementID(),
		location:   locID,
		name:       name,
		data:       value.NewData(),
		moduleData: value.NewData(),
		output:     value.NewData(),
		options:    value.NewData(),
		createdAt:  time.Now().UTC(),
	}
	d.elements[el.id] = el
	loc.elements = append(loc.elements, el.id)
	d.persistElementLocked(ctx, el)
	d.logger.Info("element created",
		logging.String(logging.FieldElementID, el.id.String()),
		logging.String(logging.FieldLocationID, locID.String()),
		logging.String("name", name),
		logging.String(logging.FieldEventType, "element_created"))
	return el.id, nil
}

func (d *Daemon) elementNameTakenLocked(loc *location, name string, except ids.ElementID) bool {
	for _, elID := range loc.elements {
		if elID == except {
			continue
		}
		if el, ok := d.elements[elID]; ok && el.name == name {
			return true
		}
	}
	return false
}
