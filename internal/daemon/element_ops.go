package daemon

import (
	"context"
	"errors"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/notifications"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

const (
	statusRunning   = "Running"
	statusCompleted = "Completed"
	statusStopped   = "Stopped"
	statusFailed    = "Failed: "
)

// GetData returns a copy of one of the element's stores.
func (d *Daemon) GetData(id ids.ElementID, st wire.Store) (value.Data, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.elementLocked(id)
	if err != nil {
		return value.Data{}, err
	}
	switch st {
	case wire.StoreElement:
		return el.data.Clone(), nil
	case wire.StoreModule:
		return el.moduleData.Clone(), nil
	case wire.StoreOutput:
		return el.output.Clone(), nil
	default:
		return value.Data{}, failure.Newf(failure.ErrInvalid, "unknown data store %q", st)
	}
}

// SetData replaces the element or module store wholesale. The output store
// is written only by the module.
func (d *Daemon) SetData(ctx context.Context, id ids.ElementID, st wire.Store, data value.Data) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.elementLocked(id)
	if err != nil {
		return err
	}
	switch st {
	case wire.StoreElement:
		el.data = data.Clone()
	case wire.StoreModule:
		el.moduleData = data.Clone()
	default:
		return failure.Newf(failure.ErrInvalid, "data store %q is read-only", st)
	}
	d.persistElementLocked(ctx, el)
	d.logger.Debug("element data set",
		logging.String(logging.FieldElementID, id.String()),
		logging.String("store", string(st)),
		logging.Int("keys", data.Len()))
	return nil
}

// Info returns the element's derived lifecycle view.
func (d *Daemon) Info(id ids.ElementID) (wire.ElementInfo, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.elementLocked(id)
	if err != nil {
		return wire.ElementInfo{}, err
	}
	return el.info(), nil
}

// ResolvModule binds the first module, in load order, whose plugin accepts
// the element data and lets it normalize the data. It returns false and
// leaves the element untouched when nothing matches.
func (d *Daemon) ResolvModule(ctx context.Context, id ids.ElementID) (bool, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.elementLocked(id)
	if err != nil {
		return false, err
	}
	if el.enabled {
		return false, failure.Newf(failure.ErrInvalid, "element %s is running", id)
	}

	for _, m := range d.modules {
		plugin := m.loaded.Plugin
		if !plugin.Accepts(el.data.Clone()) {
			continue
		}
		mid := m.id
		el.run++
		el.module = &mid
		el.initialized = false
		el.data = plugin.Normalize(el.data.Clone())
		d.persistElementLocked(ctx, el)
		d.logger.Info("element resolved",
			logging.String(logging.FieldElementID, id.String()),
			logging.String(logging.FieldModuleID, mid.String()),
			logging.String(logging.FieldModuleKind, plugin.Kind()),
			logging.String(logging.FieldEventType, "element_resolved"))
		return true, nil
	}

	d.logger.Info("no module accepts element",
		logging.String(logging.FieldElementID, id.String()),
		logging.Int("modules", len(d.modules)),
		logging.String(logging.FieldEventType, "element_unresolved"))
	return false, nil
}

// Init runs the bound module's preparation step and marks the element
// initialized. It does not start work.
func (d *Daemon) Init(ctx context.Context, id ids.ElementID) error {
	d.mu.Lock()
	el, err := d.elementLocked(id)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	plugin, err := d.elementPluginLocked(el)
	if err != nil {
		d.mu.Unlock()
		return err
	}
	if el.enabled {
		d.mu.Unlock()
		return failure.Newf(failure.ErrInvalid, "element %s is running", id)
	}
	bound := *el.module
	generation := el.run
	d.mu.Unlock()

	if err := plugin.Init(ctx, &job{d: d, id: id, run: generation}); err != nil {
		logging.WarnWithContext(d.logger, "element init failed", "element_init_failed",
			logging.String(logging.FieldElementID, id.String()),
			logging.Error(err),
			logging.String(logging.FieldImpact, "element stays resolved but cannot be enabled"))
		return err
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	el, err = d.elementLocked(id)
	if err != nil {
		return err
	}
	if el.module == nil || *el.module != bound || el.run != generation {
		return failure.Newf(failure.ErrInvalid, "element %s was re-resolved or enabled during init", id)
	}
	el.initialized = true
	d.persistElementLocked(ctx, el)
	attrs := []any{
		logging.String(logging.FieldElementID, id.String()),
		logging.String(logging.FieldEventType, "element_initialized"),
	}
	if size, ok := byteSize(el.moduleData); ok {
		attrs = append(attrs, logging.Int64("size_bytes", size))
	}
	d.logger.Info("element initialized", attrs...)
	return nil
}

// SetEnabled starts or stops the element's run. Enabling requires a prior
// successful Init; enabling a running element or disabling a stopped one
// is a no-op.
func (d *Daemon) SetEnabled(ctx context.Context, id ids.ElementID, enabled bool, opts *wire.EnableOptions) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.elementLocked(id)
	if err != nil {
		return err
	}

	if !enabled {
		if !el.enabled {
			return nil
		}
		d.stopRunLocked(el, statusStopped)
		d.persistElementLocked(ctx, el)
		d.logger.Info("element disabled",
			logging.String(logging.FieldElementID, id.String()),
			logging.String(logging.FieldEventType, "element_disabled"))
		return nil
	}

	if el.enabled {
		return nil
	}
	if !el.initialized {
		return failure.Newf(failure.ErrNotInitialized, "element %s must be initialized before enabling", id)
	}
	plugin, err := d.elementPluginLocked(el)
	if err != nil {
		return err
	}

	el.options = value.NewData()
	if opts != nil {
		el.options = opts.Data.Clone()
	}
	runCtx, cancel := context.WithCancel(d.runContext())
	el.run++
	el.enabled = true
	el.cancel = cancel
	el.progress = 0
	el.status = statusRunning
	el.output = value.NewData()
	generation := el.run

	d.runs.Add(1)
	go func() {
		defer d.runs.Done()
		defer cancel()
		runErr := plugin.Run(runCtx, &job{d: d, id: id, run: generation})
		d.finishRun(id, generation, runErr)
	}()

	d.logger.Info("element enabled",
		logging.String(logging.FieldElementID, id.String()),
		logging.String(logging.FieldModuleKind, plugin.Kind()),
		logging.String(logging.FieldEventType, "element_enabled"))
	return nil
}

func (d *Daemon) stopRunLocked(el *element, status string) {
	if el.cancel != nil {
		el.cancel()
		el.cancel = nil
	}
	el.run++
	el.enabled = false
	el.status = status
}

// finishRun records a run's outcome unless the run was stopped or the
// element destroyed in the meantime.
func (d *Daemon) finishRun(id ids.ElementID, generation uint64, runErr error) {
	d.mu.Lock()
	el, ok := d.elements[id]
	if !ok || el.run != generation {
		d.mu.Unlock()
		return
	}
	el.enabled = false
	el.cancel = nil
	var event notifications.Event
	payload := notifications.Payload{"name": el.name, "location": el.location.String()}
	switch {
	case runErr == nil:
		el.progress = 1
		el.status = statusCompleted
		event = notifications.EventElementCompleted
		if path, ok := el.output.GetString("path"); ok {
			payload["path"] = path
		}
		attrs := []any{
			logging.String(logging.FieldElementID, id.String()),
			logging.String(logging.FieldEventType, "element_completed"),
			logging.Float64("progress", el.progress),
		}
		if size, ok := byteSize(el.output); ok {
			attrs = append(attrs, logging.Int64("size_bytes", size))
		}
		d.logger.Info("element completed", attrs...)
	case errors.Is(runErr, context.Canceled):
		el.status = statusStopped
		d.logger.Info("element stopped",
			logging.String(logging.FieldElementID, id.String()),
			logging.String(logging.FieldEventType, "element_stopped"))
	default:
		el.status = statusFailed + runErr.Error()
		event = notifications.EventElementFailed
		payload["error"] = runErr.Error()
		logging.WarnWithContext(d.logger, "element failed", "element_failed",
			logging.String(logging.FieldElementID, id.String()),
			logging.Error(runErr),
			logging.String(logging.FieldImpact, "element disabled; output incomplete"),
			logging.String(logging.FieldErrorHint, "inspect the element status and re-enable or destroy it"))
	}
	d.persistElementLocked(context.Background(), el)
	d.mu.Unlock()

	if event != "" {
		d.notify(id, event, payload)
	}
}

// byteSize reads the integer "size" key modules use to report bytes.
func byteSize(data value.Data) (int64, bool) {
	v, ok := data.Get("size")
	if !ok {
		return 0, false
	}
	return v.Type.AsInt()
}

// notify publishes in the background; the send is bounded by the notifier's
// own HTTP timeout.
func (d *Daemon) notify(id ids.ElementID, event notifications.Event, payload notifications.Payload) {
	d.notifies.Add(1)
	go func() {
		defer d.notifies.Done()
		if err := d.notifier.Publish(context.Background(), event, payload); err != nil {
			logging.WarnWithContext(d.logger, "notification failed", "notification_failed",
				logging.String(logging.FieldElementID, id.String()),
				logging.String("event", string(event)),
				logging.Error(err),
				logging.String(logging.FieldImpact, "user was not alerted"),
				logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"))
		}
	}()
}

// Destroy cancels any run and removes the element. The id is invalid
// afterwards; destroying it again fails with NotFound.
func (d *Daemon) Destroy(ctx context.Context, id ids.ElementID) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	el, err := d.elementLocked(id)
	if err != nil {
		return err
	}
	if el.enabled {
		d.stopRunLocked(el, statusStopped)
	}
	delete(d.elements, id)
	if loc, ok := d.locations[el.location]; ok {
		loc.elements = removeID(loc.elements, id)
	}
	d.deleteElementLocked(ctx, el)
	d.logger.Info("element destroyed",
		logging.String(logging.FieldElementID, id.String()),
		logging.String(logging.FieldEventType, "element_destroyed"))
	return nil
}
