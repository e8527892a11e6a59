package session

import (
	"context"

	"muzzman/internal/ids"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

// ModuleRef is a proxy for one registered module.
type ModuleRef struct {
	id ids.ModuleID
	s  *Session
}

func (m ModuleRef) ID() ids.ModuleID { return m.id }

func (m ModuleRef) Name(ctx context.Context) (string, error) {
	return m.s.getString(ctx, "module.get_name", wire.TargetModule, m.id.String(), wire.FieldName)
}

func (m ModuleRef) SetName(ctx context.Context, name string) error {
	return m.s.set(ctx, "module.set_name", wire.TargetModule, m.id.String(), wire.FieldName, value.String(name))
}

func (m ModuleRef) DefaultName(ctx context.Context) (string, error) {
	return m.s.getString(ctx, "module.get_default_name", wire.TargetModule, m.id.String(), wire.FieldDefaultName)
}

func (m ModuleRef) Desc(ctx context.Context) (string, error) {
	return m.s.getString(ctx, "module.get_desc", wire.TargetModule, m.id.String(), wire.FieldDesc)
}

func (m ModuleRef) SetDesc(ctx context.Context, desc string) error {
	return m.s.set(ctx, "module.set_desc", wire.TargetModule, m.id.String(), wire.FieldDesc, value.String(desc))
}

func (m ModuleRef) DefaultDesc(ctx context.Context) (string, error) {
	return m.s.getString(ctx, "module.get_default_desc", wire.TargetModule, m.id.String(), wire.FieldDefaultDesc)
}

// Proxy returns the module's proxy setting.
func (m ModuleRef) Proxy(ctx context.Context) (int, error) {
	return m.s.getInt(ctx, "module.get_proxy", wire.TargetModule, m.id.String(), wire.FieldProxy)
}

func (m ModuleRef) SetProxy(ctx context.Context, proxy int) error {
	return m.s.set(ctx, "module.set_proxy", wire.TargetModule, m.id.String(), wire.FieldProxy, value.Int(int64(proxy)))
}
