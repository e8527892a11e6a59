package daemon

import (
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/modules"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

type module struct {
	id       ids.ModuleID
	loaded   modules.Loaded
	name     string
	desc     string
	proxy    int
	loadedAt time.Time
}

type location struct {
	id         ids.LocationID
	parent     *ids.LocationID
	name       string
	desc       string
	path       string
	shouldSave bool
	children   []ids.LocationID
	elements   []ids.ElementID
	createdAt  time.Time
}

type element struct {
	id          ids.ElementID
	location    ids.LocationID
	name        string
	desc        string
	meta        string
	module      *ids.ModuleID
	initialized bool
	enabled     bool
	data        value.Data
	moduleData  value.Data
	output      value.Data
	options     value.Data
	progress    float64
	status      string
	createdAt   time.Time

	// run is bumped when a run starts or stops and when a module is bound,
	// so jobs and finishing goroutines can tell whether they still own
	// the element.
	run    uint64
	cancel func()
}

func (e *element) info() wire.ElementInfo {
	info := wire.ElementInfo{
		ID:          e.id,
		Location:    e.location,
		Initialized: e.initialized,
		Enabled:     e.enabled,
		CreatedAt:   e.createdAt,
	}
	if e.module != nil {
		mid := *e.module
		info.Module = &mid
	}
	return info
}

// The lookups below expect d.mu to be held.

func (d *Daemon) moduleLocked(id ids.ModuleID) (*module, error) {
	m, ok := d.moduleByID[id]
	if !ok {
		return nil, failure.Newf(failure.ErrNotFound, "module %s", id)
	}
	return m, nil
}

func (d *Daemon) locationLocked(id ids.LocationID) (*location, error) {
	loc, ok := d.locations[id]
	if !ok {
		return nil, failure.Newf(failure.ErrNotFound, "location %s", id)
	}
	return loc, nil
}

func (d *Daemon) elementLocked(id ids.ElementID) (*element, error) {
	el, ok := d.elements[id]
	if !ok {
		return nil, failure.Newf(failure.ErrNotFound, "element %s", id)
	}
	return el, nil
}

func (d *Daemon) elementPluginLocked(el *element) (modules.Plugin, error) {
	if el.module == nil {
		return nil, failure.Newf(failure.ErrCannotResolve, "element %s has no module", el.id)
	}
	m, ok := d.moduleByID[*el.module]
	if !ok {
		return nil, failure.Newf(failure.ErrCannotResolve, "module %s of element %s is not loaded", *el.module, el.id)
	}
	return m.loaded.Plugin, nil
}

func removeID[T comparable](list []T, id T) []T {
	for i, v := range list {
		if v == id {
			return append(list[:i:i], list[i+1:]...)
		}
	}
	return list
}

func pageOf[T any](list []T, start, end int) ([]T, error) {
	if err := failure.CheckRange(start, end, len(list)); err != nil {
		return nil, err
	}
	return append(make([]T, 0, end-start), list[start:end]...), nil
}
