package testsupport

import (
	"context"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muzzman/internal/config"
	"muzzman/internal/daemon"
	"muzzman/internal/ids"
	"muzzman/internal/ipc"
	"muzzman/internal/logging"
	"muzzman/internal/modules"
	"muzzman/internal/session"
	"muzzman/internal/store"
	"muzzman/internal/wire"
)

// Env is a running in-process daemon reachable over its unix socket.
type Env struct {
	Config   *config.Config
	Daemon   *daemon.Daemon
	Registry *modules.Registry
	Server   *ipc.Server
	Session  *session.Session
}

// NewRegistry returns the builtin registry plus the given stub plugins.
func NewRegistry(t testing.TB, plugins ...StubPlugin) *modules.Registry {
	t.Helper()
	registry := modules.NewDefaultRegistry()
	for _, p := range plugins {
		if err := registry.Register(p.KindName, p.Factory()); err != nil {
			t.Fatalf("register %s: %v", p.KindName, err)
		}
	}
	return registry
}

// NewDaemon starts a daemon backed by the config's state database and
// stops it at cleanup.
func NewDaemon(t testing.TB, cfg *config.Config, plugins ...StubPlugin) *daemon.Daemon {
	t.Helper()
	return startDaemon(t, cfg, NewRegistry(t, plugins...))
}

func startDaemon(t testing.TB, cfg *config.Config, registry *modules.Registry) *daemon.Daemon {
	t.Helper()
	st, err := store.Open(cfg)
	if err != nil {
		t.Fatalf("store.Open: %v", err)
	}
	t.Cleanup(func() { st.Close() })
	d, err := daemon.New(cfg, st, registry, logging.NewNop(), "test")
	if err != nil {
		t.Fatalf("daemon.New: %v", err)
	}
	if err := d.Start(context.Background()); err != nil {
		t.Fatalf("daemon.Start: %v", err)
	}
	t.Cleanup(func() {
		d.Stop()
	})
	return d
}

// StartDaemon wires daemon, store and IPC server on the config's socket and
// returns a connected session.
func StartDaemon(t testing.TB, cfg *config.Config, plugins ...StubPlugin) *Env {
	t.Helper()

	registry := NewRegistry(t, plugins...)
	d := startDaemon(t, cfg, registry)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	srv, err := ipc.NewServer(ctx, cfg.SocketPath(), d, logging.NewNop())
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping daemon harness: %v", err)
		}
		t.Fatalf("ipc.NewServer: %v", err)
	}
	srv.Serve()
	t.Cleanup(srv.Close)

	sess, err := session.Connect(ctx, ipc.Dialer(cfg.SocketPath()), session.Options{
		ConnectTimeout: time.Second,
		CallTimeout:    5 * time.Second,
	})
	if err != nil {
		t.Fatalf("session.Connect: %v", err)
	}
	t.Cleanup(func() {
		sess.Close()
	})

	return &Env{
		Config:   cfg,
		Daemon:   d,
		Registry: registry,
		Server:   srv,
		Session:  sess,
	}
}

// LoadModule writes a manifest for kind and loads it through the session.
func (e *Env) LoadModule(t testing.TB, kind string) session.ModuleRef {
	t.Helper()
	path := filepath.Join(e.Config.Paths.ModulesDir, kind+".toml")
	WriteManifest(t, path, kind, kind)
	ref, err := e.Session.LoadModule(context.Background(), path)
	if err != nil {
		t.Fatalf("LoadModule(%s): %v", path, err)
	}
	return ref
}

// DefaultLocation returns the daemon's default location reference.
func (e *Env) DefaultLocation(t testing.TB) session.LocationRef {
	t.Helper()
	loc, err := e.Session.DefaultLocation(context.Background())
	if err != nil {
		t.Fatalf("DefaultLocation: %v", err)
	}
	return loc
}

// WaitDisabled polls until the element's run ends or the timeout elapses.
func WaitDisabled(t testing.TB, d *daemon.Daemon, id ids.ElementID, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		info, err := d.Info(id)
		if err != nil {
			t.Fatalf("Info(%s): %v", id, err)
		}
		if !info.Enabled {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("element %s still enabled after %s", id, timeout)
}

// WaitStatus polls until the element's status message equals want.
func WaitStatus(t testing.TB, d *daemon.Daemon, id ids.ElementID, want string, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	var got string
	for time.Now().Before(deadline) {
		v, err := d.Get(wire.TargetElement, id.String(), wire.FieldStatusMsg)
		if err != nil {
			t.Fatalf("Get status(%s): %v", id, err)
		}
		if got, _ = v.AsString(); got == want {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("element %s status = %q after %s, want %q", id, got, timeout, want)
}
