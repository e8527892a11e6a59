package ipc_test

import (
	"context"
	"errors"
	"net"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"muzzman/internal/failure"
	"muzzman/internal/ipc"
	"muzzman/internal/testsupport"
	"muzzman/internal/value"
	"muzzman/internal/wire"
)

func TestIPCServerClient(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	client, err := ipc.Dial(ctx, cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	t.Cleanup(func() {
		client.Close()
	})

	var pong wire.PingReply
	if err := client.Call(ctx, wire.MethodPing, wire.PingRequest{}, &pong); err != nil {
		t.Fatalf("Ping RPC failed: %v", err)
	}
	if pong.PID != os.Getpid() || pong.Version != "test" {
		t.Fatalf("unexpected ping reply: %+v", pong)
	}

	var loc wire.LocationReply
	if err := client.Call(ctx, wire.MethodDefaultLocation, wire.Empty{}, &loc); err != nil {
		t.Fatalf("DefaultLocation RPC failed: %v", err)
	}
	want, err := env.Daemon.DefaultLocation()
	if err != nil {
		t.Fatalf("daemon DefaultLocation: %v", err)
	}
	if loc.ID != want {
		t.Fatalf("default location = %s, want %s", loc.ID, want)
	}

	var created wire.ElementReply
	if err := client.Call(ctx, wire.MethodCreateElement, wire.CreateElementRequest{Location: loc.ID, Name: "a"}, &created); err != nil {
		t.Fatalf("CreateElement RPC failed: %v", err)
	}
	data := value.NewData()
	data.Set("url", value.String("https://example.com/a"))
	data.Set("retries", value.Int(3))
	if err := client.Call(ctx, wire.MethodSetData, wire.SetDataRequest{ID: created.ID, Store: wire.StoreElement, Data: data}, &wire.Empty{}); err != nil {
		t.Fatalf("SetData RPC failed: %v", err)
	}
	var got wire.DataReply
	if err := client.Call(ctx, wire.MethodGetData, wire.DataRequest{ID: created.ID, Store: wire.StoreElement}, &got); err != nil {
		t.Fatalf("GetData RPC failed: %v", err)
	}
	if diff := cmp.Diff(data.Keys(), got.Data.Keys()); diff != "" || !data.Equal(got.Data) {
		t.Fatalf("data mismatch over the wire (-want +got):\n%s", diff)
	}
}

func TestErrorsKeepClassificationAcrossSocket(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	client, err := ipc.Dial(ctx, cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	var mods wire.ModulesReply
	err = client.Call(ctx, wire.MethodModules, wire.RangeRequest{Start: 0, End: 1}, &mods)
	if !errors.Is(err, failure.ErrOutOfRange) {
		t.Fatalf("Modules(0,1) err = %v, want ErrOutOfRange", err)
	}
	if !strings.Contains(err.Error(), "exceeds length 0") {
		t.Fatalf("expected daemon detail in message, got %q", err.Error())
	}

	err = client.Call(ctx, wire.MethodLookup, wire.LookupRequest{Target: wire.TargetElement, ID: "el-00000000-0000-0000-0000-000000000001"}, &wire.Empty{})
	if !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("Lookup err = %v, want ErrNotFound", err)
	}

	var loaded wire.ModuleReply
	err = client.Call(ctx, wire.MethodLoadModule, wire.LoadModuleRequest{Path: filepath.Join(cfg.Paths.ModulesDir, "missing.toml")}, &loaded)
	if !errors.Is(err, failure.ErrLoad) {
		t.Fatalf("LoadModule err = %v, want ErrLoad", err)
	}
}

func TestDestroyedElementCallsFailWithOperation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	loc, err := env.Session.DefaultLocation(ctx)
	if err != nil {
		t.Fatalf("DefaultLocation: %v", err)
	}
	el, err := loc.CreateElement(ctx, "gone")
	if err != nil {
		t.Fatalf("CreateElement: %v", err)
	}
	if err := el.Destroy(ctx); err != nil {
		t.Fatalf("Destroy: %v", err)
	}

	id := el.ID().String()
	cases := []struct {
		op  string
		err error
	}{
		{"element.destroy", el.Destroy(ctx)},
		{"element.get_name", second(el.Name(ctx))},
		{"element.get_element_data", second(el.ElementData(ctx))},
		{"element.set_element_data", el.SetElementData(ctx, value.NewData())},
		{"element.init", el.Init(ctx)},
		{"element.set_enabled", el.SetEnabled(ctx, true, nil)},
	}
	for _, tc := range cases {
		if !errors.Is(tc.err, failure.ErrNotFound) {
			t.Fatalf("%s err = %v, want ErrNotFound", tc.op, tc.err)
		}
		var opErr *failure.OpError
		if !errors.As(tc.err, &opErr) {
			t.Fatalf("%s err is not an OpError: %#v", tc.op, tc.err)
		}
		if opErr.Op != tc.op || opErr.ID != id {
			t.Fatalf("OpError = {%s %s}, want {%s %s}", opErr.Op, opErr.ID, tc.op, id)
		}
	}
}

func second[T any](_ T, err error) error { return err }

func TestDialMissingSocketIsNotRunning(t *testing.T) {
	path := filepath.Join(t.TempDir(), "absent.sock")
	_, err := ipc.Dial(context.Background(), path)
	if !errors.Is(err, failure.ErrNotRunning) {
		t.Fatalf("Dial err = %v, want ErrNotRunning", err)
	}
	if !strings.Contains(err.Error(), "not found") {
		t.Fatalf("expected actionable message, got %q", err.Error())
	}
}

func TestCallDeadlineIsTimeout(t *testing.T) {
	dir, err := os.MkdirTemp("", "mz")
	if err != nil {
		t.Fatalf("mkdir temp: %v", err)
	}
	t.Cleanup(func() { _ = os.RemoveAll(dir) })
	path := filepath.Join(dir, "silent.sock")

	listener, err := net.Listen("unix", path)
	if err != nil {
		if strings.Contains(err.Error(), "operation not permitted") {
			t.Skipf("skipping unix socket test: %v", err)
		}
		t.Fatalf("listen: %v", err)
	}
	defer listener.Close()
	go func() {
		conn, err := listener.Accept()
		if err != nil {
			return
		}
		// Never answer.
		buf := make([]byte, 1024)
		for {
			if _, err := conn.Read(buf); err != nil {
				return
			}
		}
	}()

	client, err := ipc.Dial(context.Background(), path)
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()
	var pong wire.PingReply
	err = client.Call(ctx, wire.MethodPing, wire.PingRequest{}, &pong)
	if !errors.Is(err, failure.ErrTimeout) {
		t.Fatalf("Call err = %v, want ErrTimeout", err)
	}
}

func TestClosedServerIsNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	client, err := ipc.Dial(ctx, cfg.SocketPath())
	if err != nil {
		t.Fatalf("ipc.Dial: %v", err)
	}
	defer client.Close()

	env.Server.Close()
	var pong wire.PingReply
	if err := client.Call(ctx, wire.MethodPing, wire.PingRequest{}, &pong); !errors.Is(err, failure.ErrNotRunning) {
		t.Fatalf("Call after close err = %v, want ErrNotRunning", err)
	}
	if _, err := os.Stat(cfg.SocketPath()); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("expected socket removed, stat err = %v", err)
	}
	if _, err := ipc.Dial(ctx, cfg.SocketPath()); !errors.Is(err, failure.ErrNotRunning) {
		t.Fatalf("Dial after close err = %v, want ErrNotRunning", err)
	}
}
