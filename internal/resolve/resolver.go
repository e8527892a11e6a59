package resolve

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/session"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

const defaultPollInterval = 100 * time.Millisecond

// Request describes the element to create. URL is required; an empty Name
// is derived from the URL and a nil Location means the daemon default.
type Request struct {
	URL      string
	Name     string
	Location *ids.LocationID
	// Data holds extra caller-owned keys. They are written with the url and
	// re-asserted after the module normalizes the element data.
	Data    value.Data
	Options *wire.EnableOptions
}

// Result reports how far Resolve got. Element is set once the element was
// created, even when a later step failed.
type Result struct {
	Element session.ElementRef
	Name    string
	Stage   Stage
}

// Options tunes a Resolver.
type Options struct {
	PollInterval time.Duration
	Logger       *slog.Logger
}

// Resolver runs the resolution state machine against one session.
type Resolver struct {
	session      *session.Session
	pollInterval time.Duration
	logger       *slog.Logger
}

func New(sess *session.Session, opts Options) *Resolver {
	interval := opts.PollInterval
	if interval <= 0 {
		interval = defaultPollInterval
	}
	return &Resolver{
		session:      sess,
		pollInterval: interval,
		logger:       logging.NewComponentLogger(opts.Logger, "resolve"),
	}
}

// Resolve creates an element for req and drives it to Running. It returns
// as soon as the daemon accepted the enable; use Observe to follow the run.
//
// When no module accepts the element data the element is destroyed and the
// error matches failure.ErrCannotResolve. Any other failure leaves the
// element in place at Result.Stage.
func (r *Resolver) Resolve(ctx context.Context, req Request) (Result, error) {
	rawURL := strings.TrimSpace(req.URL)
	if rawURL == "" {
		return Result{}, failure.Wrap("resolve", "", failure.Newf(failure.ErrInvalid, "url is required"))
	}
	name := strings.TrimSpace(req.Name)
	if name == "" {
		name = DeriveName(rawURL)
	}

	loc, err := r.location(ctx, req.Location)
	if err != nil {
		return Result{}, err
	}
	el, err := loc.CreateElement(ctx, name)
	if err != nil {
		return Result{}, err
	}
	res := Result{Element: el, Name: name, Stage: StageCreated}
	id := el.ID().String()
	r.logger.Debug("element created", logging.String(logging.FieldElementID, id), logging.String("name", name))

	owned := callerData(rawURL, req.Data)
	if err := el.SetElementData(ctx, owned); err != nil {
		return res, err
	}
	res.Stage = StageDataSet

	ok, err := el.ResolvModule(ctx)
	if err != nil {
		return res, err
	}
	if !ok {
		if destroyErr := el.Destroy(ctx); destroyErr != nil {
			logging.WarnWithContext(r.logger, "unresolved element could not be destroyed", "resolve_cleanup_failed",
				logging.String(logging.FieldElementID, id),
				logging.Error(destroyErr),
				logging.String(logging.FieldImpact, "an element without a module remains in the location"),
				logging.String(logging.FieldErrorHint, "run muzzman destroy-element "+id))
			return res, failure.Wrap("resolve", id, errors.Join(
				failure.Newf(failure.ErrCannotResolve, "no module accepts %s", rawURL), destroyErr))
		}
		res.Stage = StageDestroyed
		return res, failure.Wrap("resolve", id, failure.Newf(failure.ErrCannotResolve, "no module accepts %s", rawURL))
	}
	res.Stage = StageResolved
	r.logger.Debug("element resolved", logging.String(logging.FieldElementID, id))

	if err := r.reassert(ctx, el, owned); err != nil {
		return res, err
	}

	if err := el.Init(ctx); err != nil {
		return res, err
	}
	res.Stage = StageInitialized

	if err := el.SetEnabled(ctx, true, req.Options); err != nil {
		return res, err
	}
	res.Stage = StageRunning
	r.logger.Debug("element enabled", logging.String(logging.FieldElementID, id))
	return res, nil
}

func (r *Resolver) location(ctx context.Context, id *ids.LocationID) (session.LocationRef, error) {
	if id == nil {
		return r.session.DefaultLocation(ctx)
	}
	return r.session.Location(ctx, *id)
}

func callerData(rawURL string, extra value.Data) value.Data {
	data := extra.Clone()
	data.Set("url", value.String(rawURL))
	return data
}

// reassert writes the caller's keys back over the module's normalized data.
func (r *Resolver) reassert(ctx context.Context, el session.ElementRef, owned value.Data) error {
	current, err := el.ElementData(ctx)
	if err != nil {
		return err
	}
	for _, key := range owned.Keys() {
		v, _ := owned.Get(key)
		current.Set(key, v.Type)
	}
	return el.SetElementData(ctx, current)
}
