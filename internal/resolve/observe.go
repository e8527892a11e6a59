package resolve

import (
	"context"
	"time"

	"muzzman/internal/session"
)

// Snapshot is one poll of a running element.
type Snapshot struct {
	Progress float64
	Status   string
}

// Observe polls el every poll interval and calls fn with each snapshot
// while the element stays enabled. It returns nil once the element is
// disabled; an element already disabled at the first check produces no
// callback at all.
func (r *Resolver) Observe(ctx context.Context, el session.ElementRef, fn func(Snapshot)) error {
	ticker := time.NewTicker(r.pollInterval)
	defer ticker.Stop()
	for {
		enabled, err := el.IsEnabled(ctx)
		if err != nil {
			return err
		}
		if !enabled {
			return nil
		}
		snap, err := snapshot(ctx, el)
		if err != nil {
			return err
		}
		if fn != nil {
			fn(snap)
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
		}
	}
}

func snapshot(ctx context.Context, el session.ElementRef) (Snapshot, error) {
	progress, err := el.Progress(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	status, err := el.StatusMsg(ctx)
	if err != nil {
		return Snapshot{}, err
	}
	return Snapshot{Progress: progress, Status: status}, nil
}
