package session

import (
	"context"

	"muzzman/internal/ids"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

// ElementRef is a proxy for one element.
type ElementRef struct {
	id ids.ElementID
	s  *Session
}

// ID is stable for the reference's lifetime.
func (e ElementRef) ID() ids.ElementID { return e.id }

func (e ElementRef) Name(ctx context.Context) (string, error) {
	return e.s.getString(ctx, "element.get_name", wire.TargetElement, e.id.String(), wire.FieldName)
}

func (e ElementRef) SetName(ctx context.Context, name string) error {
	return e.s.set(ctx, "element.set_name", wire.TargetElement, e.id.String(), wire.FieldName, value.String(name))
}

func (e ElementRef) Desc(ctx context.Context) (string, error) {
	return e.s.getString(ctx, "element.get_desc", wire.TargetElement, e.id.String(), wire.FieldDesc)
}

func (e ElementRef) SetDesc(ctx context.Context, desc string) error {
	return e.s.set(ctx, "element.set_desc", wire.TargetElement, e.id.String(), wire.FieldDesc, value.String(desc))
}

func (e ElementRef) Meta(ctx context.Context) (string, error) {
	return e.s.getString(ctx, "element.get_meta", wire.TargetElement, e.id.String(), wire.FieldMeta)
}

func (e ElementRef) SetMeta(ctx context.Context, meta string) error {
	return e.s.set(ctx, "element.set_meta", wire.TargetElement, e.id.String(), wire.FieldMeta, value.String(meta))
}

// ElementData fetches a fresh copy of the caller-supplied configuration.
func (e ElementRef) ElementData(ctx context.Context) (value.Data, error) {
	return e.getData(ctx, "element.get_element_data", wire.StoreElement)
}

// SetElementData replaces the element data wholesale.
func (e ElementRef) SetElementData(ctx context.Context, data value.Data) error {
	return e.setData(ctx, "element.set_element_data", wire.StoreElement, data)
}

// ModuleData fetches the module-private store.
func (e ElementRef) ModuleData(ctx context.Context) (value.Data, error) {
	return e.getData(ctx, "element.get_module_data", wire.StoreModule)
}

func (e ElementRef) SetModuleData(ctx context.Context, data value.Data) error {
	return e.setData(ctx, "element.set_module_data", wire.StoreModule, data)
}

// Data fetches the output the module produced while running.
func (e ElementRef) Data(ctx context.Context) (value.Data, error) {
	return e.getData(ctx, "element.get_data", wire.StoreOutput)
}

func (e ElementRef) getData(ctx context.Context, op string, store wire.Store) (value.Data, error) {
	var reply wire.DataReply
	req := wire.DataRequest{ID: e.id, Store: store}
	if err := e.s.call(ctx, op, e.id.String(), wire.MethodGetData, req, &reply); err != nil {
		return value.Data{}, err
	}
	return reply.Data, nil
}

func (e ElementRef) setData(ctx context.Context, op string, store wire.Store, data value.Data) error {
	req := wire.SetDataRequest{ID: e.id, Store: store, Data: data}
	return e.s.call(ctx, op, e.id.String(), wire.MethodSetData, req, &wire.Empty{})
}

// Info returns the daemon's derived lifecycle view of the element.
func (e ElementRef) Info(ctx context.Context) (wire.ElementInfo, error) {
	var reply wire.InfoReply
	if err := e.s.call(ctx, "element.get_element_info", e.id.String(), wire.MethodInfo, wire.ElementRequest{ID: e.id}, &reply); err != nil {
		return wire.ElementInfo{}, err
	}
	return reply.Info, nil
}

// Module returns the module the element is bound to, if any.
func (e ElementRef) Module(ctx context.Context) (ModuleRef, bool, error) {
	info, err := e.Info(ctx)
	if err != nil {
		return ModuleRef{}, false, err
	}
	if info.Module == nil {
		return ModuleRef{}, false, nil
	}
	return ModuleRef{id: *info.Module, s: e.s}, true, nil
}

func (e ElementRef) IsEnabled(ctx context.Context) (bool, error) {
	return e.s.getBool(ctx, "element.is_enabled", wire.TargetElement, e.id.String(), wire.FieldEnabled)
}

// SetEnabled starts (true) or cancels (false) the element's run inside the
// daemon. It returns as soon as the daemon acknowledges; it never waits for
// the run to finish. Enabling an element whose Init never succeeded fails
// with failure.ErrNotInitialized.
func (e ElementRef) SetEnabled(ctx context.Context, enabled bool, opts *wire.EnableOptions) error {
	req := wire.SetEnabledRequest{ID: e.id, Enabled: enabled, Options: opts}
	return e.s.call(ctx, "element.set_enabled", e.id.String(), wire.MethodSetEnabled, req, &wire.Empty{})
}

// Progress returns the last progress snapshot, in [0, 1].
func (e ElementRef) Progress(ctx context.Context) (float64, error) {
	return e.s.getFloat(ctx, "element.get_progress", wire.TargetElement, e.id.String(), wire.FieldProgress)
}

func (e ElementRef) StatusMsg(ctx context.Context) (string, error) {
	return e.s.getString(ctx, "element.get_status_msg", wire.TargetElement, e.id.String(), wire.FieldStatusMsg)
}

// ResolvModule asks the daemon to bind the first module that accepts the
// element's data. It reports false when no module matched; the daemon may
// rewrite the element data when it returns true.
func (e ElementRef) ResolvModule(ctx context.Context) (bool, error) {
	var reply wire.BoolReply
	if err := e.s.call(ctx, "element.resolv_module", e.id.String(), wire.MethodResolvModule, wire.ElementRequest{ID: e.id}, &reply); err != nil {
		return false, err
	}
	return reply.OK, nil
}

// Init prepares the bound module to run without starting work.
func (e ElementRef) Init(ctx context.Context) error {
	return e.s.call(ctx, "element.init", e.id.String(), wire.MethodInit, wire.ElementRequest{ID: e.id}, &wire.Empty{})
}

// Destroy removes the element. A second Destroy fails with ErrNotFound.
func (e ElementRef) Destroy(ctx context.Context) error {
	return e.s.call(ctx, "element.destroy", e.id.String(), wire.MethodDestroy, wire.ElementRequest{ID: e.id}, &wire.Empty{})
}
