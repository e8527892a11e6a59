package daemon

import (
	"context"
	"path/filepath"
	"strings"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

// Lookup confirms that id names a live object of target.
func (d *Daemon) Lookup(target wire.Target, id string) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch target {
	case wire.TargetModule:
		mid, err := parseID(ids.ParseModuleID, id)
		if err != nil {
			return err
		}
		_, err = d.moduleLocked(mid)
		return err
	case wire.TargetLocation:
		lid, err := parseID(ids.ParseLocationID, id)
		if err != nil {
			return err
		}
		_, err = d.locationLocked(lid)
		return err
	case wire.TargetElement:
		eid, err := parseID(ids.ParseElementID, id)
		if err != nil {
			return err
		}
		_, err = d.elementLocked(eid)
		return err
	default:
		return failure.Newf(failure.ErrInvalid, "unknown target %q", target)
	}
}

// Get reads one scalar field.
func (d *Daemon) Get(target wire.Target, id string, field wire.Field) (value.Type, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	switch target {
	case wire.TargetModule:
		mid, err := parseID(ids.ParseModuleID, id)
		if err != nil {
			return value.None(), err
		}
		m, err := d.moduleLocked(mid)
		if err != nil {
			return value.None(), err
		}
		return moduleField(m, field)
	case wire.TargetLocation:
		lid, err := parseID(ids.ParseLocationID, id)
		if err != nil {
			return value.None(), err
		}
		loc, err := d.locationLocked(lid)
		if err != nil {
			return value.None(), err
		}
		return locationField(loc, field)
	case wire.TargetElement:
		eid, err := parseID(ids.ParseElementID, id)
		if err != nil {
			return value.None(), err
		}
		el, err := d.elementLocked(eid)
		if err != nil {
			return value.None(), err
		}
		return elementField(el, field)
	default:
		return value.None(), failure.Newf(failure.ErrInvalid, "unknown target %q", target)
	}
}

func moduleField(m *module, field wire.Field) (value.Type, error) {
	switch field {
	case wire.FieldName:
		return value.String(m.name), nil
	case wire.FieldDesc:
		return value.String(m.desc), nil
	case wire.FieldDefaultName:
		return value.String(m.loaded.Plugin.DefaultName()), nil
	case wire.FieldDefaultDesc:
		return value.String(m.loaded.Plugin.DefaultDesc()), nil
	case wire.FieldProxy:
		return value.Int(int64(m.proxy)), nil
	case wire.FieldPath:
		return value.String(m.loaded.Path), nil
	default:
		return value.None(), unknownField(wire.TargetModule, field)
	}
}

func locationField(loc *location, field wire.Field) (value.Type, error) {
	switch field {
	case wire.FieldName:
		return value.String(loc.name), nil
	case wire.FieldDesc:
		return value.String(loc.desc), nil
	case wire.FieldPath:
		return value.String(loc.path), nil
	case wire.FieldShouldSave:
		return value.Bool(loc.shouldSave), nil
	case wire.FieldLocationsLen:
		return value.Int(int64(len(loc.children))), nil
	case wire.FieldElementsLen:
		return value.Int(int64(len(loc.elements))), nil
	default:
		return value.None(), unknownField(wire.TargetLocation, field)
	}
}

func elementField(el *element, field wire.Field) (value.Type, error) {
	switch field {
	case wire.FieldName:
		return value.String(el.name), nil
	case wire.FieldDesc:
		return value.String(el.desc), nil
	case wire.FieldMeta:
		return value.String(el.meta), nil
	case wire.FieldEnabled:
		return value.Bool(el.enabled), nil
	case wire.FieldProgress:
		return value.Float(el.progress), nil
	case wire.FieldStatusMsg:
		return value.String(el.status), nil
	default:
		return value.None(), unknownField(wire.TargetElement, field)
	}
}

// Set writes one scalar field.
func (d *Daemon) Set(ctx context.Context, target wire.Target, id string, field wire.Field, v value.Type) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	var err error
	switch target {
	case wire.TargetModule:
		err = d.setModuleFieldLocked(ctx, id, field, v)
	case wire.TargetLocation:
		err = d.setLocationFieldLocked(ctx, id, field, v)
	case wire.TargetElement:
		err = d.setElementFieldLocked(ctx, id, field, v)
	default:
		err = failure.Newf(failure.ErrInvalid, "unknown target %q", target)
	}
	if err != nil {
		return err
	}
	d.logger.Debug("field set",
		logging.String("target", string(target)),
		logging.String("id", id),
		logging.String("field", string(field)),
		logging.String("value", v.String()))
	return nil
}

func (d *Daemon) setModuleFieldLocked(ctx context.Context, id string, field wire.Field, v value.Type) error {
	mid, err := parseID(ids.ParseModuleID, id)
	if err != nil {
		return err
	}
	m, err := d.moduleLocked(mid)
	if err != nil {
		return err
	}
	switch field {
	case wire.FieldName, wire.FieldDesc:
		str, err := wantString(field, v)
		if err != nil {
			return err
		}
		if field == wire.FieldName {
			m.name = str
		} else {
			m.desc = str
		}
	case wire.FieldProxy:
		n, err := wantInt(field, v)
		if err != nil {
			return err
		}
		if n < 0 {
			return failure.Newf(failure.ErrInvalid, "proxy must not be negative")
		}
		m.proxy = int(n)
	default:
		return readOnlyField(wire.TargetModule, field)
	}
	d.persistModuleLocked(ctx, m)
	return nil
}

func (d *Daemon) setLocationFieldLocked(ctx context.Context, id string, field wire.Field, v value.Type) error {
	lid, err := parseID(ids.ParseLocationID, id)
	if err != nil {
		return err
	}
	loc, err := d.locationLocked(lid)
	if err != nil {
		return err
	}
	switch field {
	case wire.FieldName:
		name, err := wantString(field, v)
		if err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return failure.Newf(failure.ErrInvalid, "location name is required")
		}
		loc.name = name
	case wire.FieldDesc:
		desc, err := wantString(field, v)
		if err != nil {
			return err
		}
		loc.desc = desc
	case wire.FieldPath:
		path, err := wantString(field, v)
		if err != nil {
			return err
		}
		if !filepath.IsAbs(path) {
			return failure.Newf(failure.ErrInvalid, "location path must be absolute, got %q", path)
		}
		loc.path = filepath.Clean(path)
	case wire.FieldShouldSave:
		save, err := wantBool(field, v)
		if err != nil {
			return err
		}
		if save == loc.shouldSave {
			return nil
		}
		loc.shouldSave = save
		if !save {
			d.unpersistLocationLocked(ctx, loc)
			return nil
		}
		d.persistLocationTreeLocked(ctx, loc)
		return nil
	default:
		return readOnlyField(wire.TargetLocation, field)
	}
	d.persistLocationLocked(ctx, loc)
	return nil
}

func (d *Daemon) setElementFieldLocked(ctx context.Context, id string, field wire.Field, v value.Type) error {
	eid, err := parseID(ids.ParseElementID, id)
	if err != nil {
		return err
	}
	el, err := d.elementLocked(eid)
	if err != nil {
		return err
	}
	switch field {
	case wire.FieldName:
		name, err := wantString(field, v)
		if err != nil {
			return err
		}
		name = strings.TrimSpace(name)
		if name == "" {
			return failure.Newf(failure.ErrInvalid, "element name is required")
		}
		if loc, ok := d.locations[el.location]; ok && d.elementNameTakenLocked(loc, name, el.id) {
			return failure.Newf(failure.ErrAlreadyExists, "element %q in %s", name, el.location)
		}
		el.name = name
	case wire.FieldDesc:
		desc, err := wantString(field, v)
		if err != nil {
			return err
		}
		el.desc = desc
	case wire.FieldMeta:
		meta, err := wantString(field, v)
		if err != nil {
			return err
		}
		el.meta = meta
	default:
		return readOnlyField(wire.TargetElement, field)
	}
	d.persistElementLocked(ctx, el)
	return nil
}

func parseID[T any](parse func(string) (T, error), raw string) (T, error) {
	id, err := parse(raw)
	if err != nil {
		var zero T
		return zero, failure.Newf(failure.ErrInvalid, "%v", err)
	}
	return id, nil
}

func wantString(field wire.Field, v value.Type) (string, error) {
	s, ok := v.AsString()
	if !ok {
		return "", failure.Newf(failure.ErrInvalid, "%s expects a string, got %s", field, v.Kind())
	}
	return s, nil
}

func wantBool(field wire.Field, v value.Type) (bool, error) {
	b, ok := v.AsBool()
	if !ok {
		return false, failure.Newf(failure.ErrInvalid, "%s expects a bool, got %s", field, v.Kind())
	}
	return b, nil
}

func wantInt(field wire.Field, v value.Type) (int64, error) {
	n, ok := v.AsInt()
	if !ok {
		return 0, failure.Newf(failure.ErrInvalid, "%s expects an int, got %s", field, v.Kind())
	}
	return n, nil
}

func unknownField(target wire.Target, field wire.Field) error {
	return failure.Newf(failure.ErrInvalid, "%s has no field %q", target, field)
}

func readOnlyField(target wire.Target, field wire.Field) error {
	return failure.Newf(failure.ErrInvalid, "%s field %q is not writable", target, field)
}
