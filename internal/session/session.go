package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/logging"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

// Transport delivers one typed call to the daemon and decodes its reply.
// Implementations must honour ctx deadlines, reporting them as
// failure.ErrTimeout, and report an unreachable daemon as
// failure.ErrNotRunning.
type Transport interface {
	Call(ctx context.Context, method string, args, reply any) error
	Close() error
}

// Dialer opens a Transport to the daemon.
type Dialer func(ctx context.Context) (Transport, error)

const (
	defaultConnectTimeout = 2 * time.Second
	defaultCallTimeout    = 5 * time.Second
)

// Options tunes Connect.
type Options struct {
	ConnectTimeout time.Duration
	CallTimeout    time.Duration
	Logger         *slog.Logger
}

// Session is a connected handle on one daemon instance.
type Session struct {
	transport   Transport
	callTimeout time.Duration
	logger      *slog.Logger
	daemonPID   int
	version     string
}

// Connect dials the daemon and pings it. Any failure within ConnectTimeout is
// reported as failure.ErrNotRunning so callers never hang on an absent daemon.
func Connect(ctx context.Context, dial Dialer, opts Options) (*Session, error) {
	if dial == nil {
		return nil, errors.New("session connect: dialer is required")
	}
	connectTimeout := opts.ConnectTimeout
	if connectTimeout <= 0 {
		connectTimeout = defaultConnectTimeout
	}
	callTimeout := opts.CallTimeout
	if callTimeout <= 0 {
		callTimeout = defaultCallTimeout
	}
	logger := logging.NewComponentLogger(opts.Logger, "session")

	connectCtx, cancel := context.WithTimeout(ctx, connectTimeout)
	defer cancel()

	transport, err := dial(connectCtx)
	if err != nil {
		return nil, failure.Wrap("session.connect", "", notRunning(err))
	}

	var pong wire.PingReply
	if err := transport.Call(connectCtx, wire.MethodPing, wire.PingRequest{}, &pong); err != nil {
		_ = transport.Close()
		return nil, failure.Wrap("session.connect", "", notRunning(err))
	}
	logger.Debug("connected to daemon", logging.Int("daemon_pid", pong.PID), logging.String("daemon_version", pong.Version))

	return &Session{
		transport:   transport,
		callTimeout: callTimeout,
		logger:      logger,
		daemonPID:   pong.PID,
		version:     pong.Version,
	}, nil
}

func notRunning(err error) error {
	if errors.Is(err, failure.ErrNotRunning) {
		return err
	}
	return fmt.Errorf("%w: %w", failure.ErrNotRunning, err)
}

// Close releases the transport.
func (s *Session) Close() error {
	if s == nil || s.transport == nil {
		return nil
	}
	return s.transport.Close()
}

// DaemonPID reports the pid the daemon announced when the session connected.
func (s *Session) DaemonPID() int { return s.daemonPID }

// DaemonVersion reports the version string from the same ping.
func (s *Session) DaemonVersion() string { return s.version }

// call performs one round trip bounded by the call timeout.
func (s *Session) call(ctx context.Context, op, id, method string, args, reply any) error {
	if ctx == nil {
		ctx = context.Background()
	}
	callCtx, cancel := context.WithTimeout(ctx, s.callTimeout)
	defer cancel()

	err := s.transport.Call(callCtx, method, args, reply)
	if err == nil {
		return nil
	}
	if failure.CodeOf(err) == failure.CodeUnknown && errors.Is(err, context.DeadlineExceeded) {
		err = fmt.Errorf("%w: %w", failure.ErrTimeout, err)
	}
	s.logger.Debug("daemon call failed",
		logging.String("op", op),
		logging.String("id", id),
		logging.String("code", string(failure.CodeOf(err))),
		logging.Error(err))
	return failure.Wrap(op, id, err)
}

// DefaultLocation returns the daemon's default location. Callers also use it
// as a liveness probe: ErrTimeout/ErrNotRunning mean the daemon is absent,
// ErrNotFound means no default is configured.
func (s *Session) DefaultLocation(ctx context.Context) (LocationRef, error) {
	var reply wire.LocationReply
	if err := s.call(ctx, "session.get_default_location", "", wire.MethodDefaultLocation, wire.Empty{}, &reply); err != nil {
		return LocationRef{}, err
	}
	return LocationRef{id: reply.ID, s: s}, nil
}

// ModulesLen returns the number of registered modules.
func (s *Session) ModulesLen(ctx context.Context) (int, error) {
	var reply wire.LenReply
	if err := s.call(ctx, "session.get_modules_len", "", wire.MethodModulesLen, wire.Empty{}, &reply); err != nil {
		return 0, err
	}
	return reply.Len, nil
}

// Modules returns the modules in [start, end). The daemon rejects ranges past
// the current length with failure.ErrOutOfRange instead of truncating.
func (s *Session) Modules(ctx context.Context, start, end int) ([]ModuleRef, error) {
	if start < 0 || start > end {
		return nil, failure.Wrap("session.get_modules", "", failure.Newf(failure.ErrOutOfRange, "invalid range %d..%d", start, end))
	}
	var reply wire.ModulesReply
	if err := s.call(ctx, "session.get_modules", "", wire.MethodModules, wire.RangeRequest{Start: start, End: end}, &reply); err != nil {
		return nil, err
	}
	refs := make([]ModuleRef, 0, len(reply.IDs))
	for _, id := range reply.IDs {
		refs = append(refs, ModuleRef{id: id, s: s})
	}
	return refs, nil
}

// LoadModule registers the module described by the manifest at path. It is
// not idempotent: loading the same path twice registers two modules.
func (s *Session) LoadModule(ctx context.Context, path string) (ModuleRef, error) {
	var reply wire.ModuleReply
	if err := s.call(ctx, "session.load_module", path, wire.MethodLoadModule, wire.LoadModuleRequest{Path: path}, &reply); err != nil {
		return ModuleRef{}, err
	}
	return ModuleRef{id: reply.ID, s: s}, nil
}

// Location returns a reference after confirming the location exists.
func (s *Session) Location(ctx context.Context, id ids.LocationID) (LocationRef, error) {
	req := wire.LookupRequest{Target: wire.TargetLocation, ID: id.String()}
	if err := s.call(ctx, "session.get_location_ref", id.String(), wire.MethodLookup, req, &wire.Empty{}); err != nil {
		return LocationRef{}, err
	}
	return LocationRef{id: id, s: s}, nil
}

// Element returns a reference after confirming the element exists.
func (s *Session) Element(ctx context.Context, id ids.ElementID) (ElementRef, error) {
	req := wire.LookupRequest{Target: wire.TargetElement, ID: id.String()}
	if err := s.call(ctx, "session.get_element_ref", id.String(), wire.MethodLookup, req, &wire.Empty{}); err != nil {
		return ElementRef{}, err
	}
	return ElementRef{id: id, s: s}, nil
}

func (s *Session) get(ctx context.Context, op string, target wire.Target, id string, field wire.Field) (value.Type, error) {
	var reply wire.GetReply
	req := wire.GetRequest{Target: target, ID: id, Field: field}
	if err := s.call(ctx, op, id, wire.MethodGet, req, &reply); err != nil {
		return value.None(), err
	}
	return reply.Value, nil
}

func (s *Session) set(ctx context.Context, op string, target wire.Target, id string, field wire.Field, v value.Type) error {
	req := wire.SetRequest{Target: target, ID: id, Field: field, Value: v}
	return s.call(ctx, op, id, wire.MethodSet, req, &wire.Empty{})
}

func (s *Session) getString(ctx context.Context, op string, target wire.Target, id string, field wire.Field) (string, error) {
	v, err := s.get(ctx, op, target, id, field)
	if err != nil {
		return "", err
	}
	str, ok := v.AsString()
	if !ok {
		return "", unexpectedKind(op, id, value.KindString, v)
	}
	return str, nil
}

func (s *Session) getBool(ctx context.Context, op string, target wire.Target, id string, field wire.Field) (bool, error) {
	v, err := s.get(ctx, op, target, id, field)
	if err != nil {
		return false, err
	}
	b, ok := v.AsBool()
	if !ok {
		return false, unexpectedKind(op, id, value.KindBool, v)
	}
	return b, nil
}

func (s *Session) getInt(ctx context.Context, op string, target wire.Target, id string, field wire.Field) (int, error) {
	v, err := s.get(ctx, op, target, id, field)
	if err != nil {
		return 0, err
	}
	n, ok := v.AsInt()
	if !ok {
		return 0, unexpectedKind(op, id, value.KindInt, v)
	}
	return int(n), nil
}

func (s *Session) getFloat(ctx context.Context, op string, target wire.Target, id string, field wire.Field) (float64, error) {
	v, err := s.get(ctx, op, target, id, field)
	if err != nil {
		return 0, err
	}
	f, ok := v.AsFloat()
	if !ok {
		return 0, unexpectedKind(op, id, value.KindFloat, v)
	}
	return f, nil
}

func unexpectedKind(op, id string, want value.Kind, got value.Type) error {
	return failure.Wrap(op, id, failure.Newf(failure.ErrInvalid, "expected %s reply, got %s", want, got.Kind()))
}
