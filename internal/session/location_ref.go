package session

import (
	"context"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

// LocationRef is a proxy for one location node.
type LocationRef struct {
	id ids.LocationID
	s  *Session
}

func (l LocationRef) ID() ids.LocationID { return l.id }

func (l LocationRef) Name(ctx context.Context) (string, error) {
	return l.s.getString(ctx, "location.get_name", wire.TargetLocation, l.id.String(), wire.FieldName)
}

func (l LocationRef) SetName(ctx context.Context, name string) error {
	return l.s.set(ctx, "location.set_name", wire.TargetLocation, l.id.String(), wire.FieldName, value.String(name))
}

func (l LocationRef) Desc(ctx context.Context) (string, error) {
	return l.s.getString(ctx, "location.get_desc", wire.TargetLocation, l.id.String(), wire.FieldDesc)
}

func (l LocationRef) SetDesc(ctx context.Context, desc string) error {
	return l.s.set(ctx, "location.set_desc", wire.TargetLocation, l.id.String(), wire.FieldDesc, value.String(desc))
}

// Path returns the filesystem directory backing the location.
func (l LocationRef) Path(ctx context.Context) (string, error) {
	return l.s.getString(ctx, "location.get_path", wire.TargetLocation, l.id.String(), wire.FieldPath)
}

func (l LocationRef) SetPath(ctx context.Context, path string) error {
	return l.s.set(ctx, "location.set_path", wire.TargetLocation, l.id.String(), wire.FieldPath, value.String(path))
}

// ShouldSave reports whether the daemon persists the location across restarts.
func (l LocationRef) ShouldSave(ctx context.Context) (bool, error) {
	return l.s.getBool(ctx, "location.get_should_save", wire.TargetLocation, l.id.String(), wire.FieldShouldSave)
}

func (l LocationRef) SetShouldSave(ctx context.Context, save bool) error {
	return l.s.set(ctx, "location.set_should_save", wire.TargetLocation, l.id.String(), wire.FieldShouldSave, value.Bool(save))
}

// LocationsLen returns the number of child locations.
func (l LocationRef) LocationsLen(ctx context.Context) (int, error) {
	return l.s.getInt(ctx, "location.get_locations_len", wire.TargetLocation, l.id.String(), wire.FieldLocationsLen)
}

// Locations returns child locations in [start, end). The count may change
// between LocationsLen and this call; a shrunk collection yields
// failure.ErrOutOfRange.
func (l LocationRef) Locations(ctx context.Context, start, end int) ([]LocationRef, error) {
	const op = "location.get_locations"
	if start < 0 || start > end {
		return nil, failure.Wrap(op, l.id.String(), failure.Newf(failure.ErrOutOfRange, "invalid range %d..%d", start, end))
	}
	var reply wire.ChildrenReply
	req := wire.LocationRangeRequest{ID: l.id, Start: start, End: end}
	if err := l.s.call(ctx, op, l.id.String(), wire.MethodChildren, req, &reply); err != nil {
		return nil, err
	}
	refs := make([]LocationRef, 0, len(reply.IDs))
	for _, id := range reply.IDs {
		refs = append(refs, LocationRef{id: id, s: l.s})
	}
	return refs, nil
}

// ElementsLen returns the number of elements held by the location.
func (l LocationRef) ElementsLen(ctx context.Context) (int, error) {
	return l.s.getInt(ctx, "location.get_elements_len", wire.TargetLocation, l.id.String(), wire.FieldElementsLen)
}

// Elements returns the elements in [start, end) in creation order.
func (l LocationRef) Elements(ctx context.Context, start, end int) ([]ElementRef, error) {
	const op = "location.get_elements"
	if start < 0 || start > end {
		return nil, failure.Wrap(op, l.id.String(), failure.Newf(failure.ErrOutOfRange, "invalid range %d..%d", start, end))
	}
	var reply wire.ElementsReply
	req := wire.LocationRangeRequest{ID: l.id, Start: start, End: end}
	if err := l.s.call(ctx, op, l.id.String(), wire.MethodElements, req, &reply); err != nil {
		return nil, err
	}
	refs := make([]ElementRef, 0, len(reply.IDs))
	for _, id := range reply.IDs {
		refs = append(refs, ElementRef{id: id, s: l.s})
	}
	return refs, nil
}

// CreateElement allocates a new element with empty data, disabled.
func (l LocationRef) CreateElement(ctx context.Context, name string) (ElementRef, error) {
	var reply wire.ElementReply
	req := wire.CreateElementRequest{Location: l.id, Name: name}
	if err := l.s.call(ctx, "location.create_element", l.id.String(), wire.MethodCreateElement, req, &reply); err != nil {
		return ElementRef{}, err
	}
	return ElementRef{id: reply.ID, s: l.s}, nil
}

// CreateLocation adds a child location whose directory sits under this
// one. Names are unique among siblings.
func (l LocationRef) CreateLocation(ctx context.Context, name string) (LocationRef, error) {
	var reply wire.LocationReply
	req := wire.CreateLocationRequest{Parent: l.id, Name: name}
	if err := l.s.call(ctx, "location.create_location", l.id.String(), wire.MethodCreateLocation, req, &reply); err != nil {
		return LocationRef{}, err
	}
	return LocationRef{id: reply.ID, s: l.s}, nil
}
