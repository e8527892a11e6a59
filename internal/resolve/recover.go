package resolve

import (
	"context"

	"muzzman/internal/failure"
	"muzzman/internal/logging"
	"muzzman/internal/session"
)

// Recover re-reads el and settles it after an interrupted Resolve. An
// element that was never resolved is destroyed and the error matches
// failure.ErrCannotResolve; a resolved element that was not initialized is
// initialized. Anything further along is left untouched. The returned stage
// is where the element ended up.
func (r *Resolver) Recover(ctx context.Context, el session.ElementRef) (Stage, error) {
	id := el.ID().String()
	info, err := el.Info(ctx)
	if err != nil {
		return StageCreated, err
	}

	switch {
	case info.Module == nil:
		if err := el.Destroy(ctx); err != nil {
			return StageDataSet, err
		}
		r.logger.Info("removed unresolved element",
			logging.String(logging.FieldElementID, id),
			logging.String(logging.FieldEventType, "element_recovered"))
		return StageDestroyed, failure.Wrap("resolve.recover", id, failure.Newf(failure.ErrCannotResolve, "element was never resolved"))
	case !info.Initialized:
		if err := el.Init(ctx); err != nil {
			return StageResolved, err
		}
		r.logger.Info("initialized resolved element",
			logging.String(logging.FieldElementID, id),
			logging.String(logging.FieldEventType, "element_recovered"))
		return StageInitialized, nil
	case info.Enabled:
		return StageRunning, nil
	}

	status, err := el.StatusMsg(ctx)
	if err != nil {
		return StageInitialized, err
	}
	if status == "" {
		return StageInitialized, nil
	}
	return StageDisabled, nil
}
