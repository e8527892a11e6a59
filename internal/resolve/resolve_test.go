package resolve_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/resolve"
	"muzzman/internal/testsupport"
	"muzzman/internal/value"
)

func TestDeriveName(t *testing.T) {
	cases := []struct {
		raw  string
		want string
	}{
		{"https://example.com/file.zip", "file.zip"},
		{"https://example.com/dir/file.zip?token=abc#frag", "file.zip"},
		{"https://example.com/dir/", "dir"},
		{"https://example.com", "example.com"},
		{"https://example.com/a%20b.txt", "a b.txt"},
		{"https://example.com/what%3Fis.txt", "whatis.txt"},
		{"file:///tmp/movie.mkv", "movie.mkv"},
		{"/srv/media/song.flac", "song.flac"},
		{"magnet:?xt=urn:btih:abc", "element"},
		{"", "element"},
	}
	for _, tc := range cases {
		if got := resolve.DeriveName(tc.raw); got != tc.want {
			t.Fatalf("DeriveName(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}

func TestStageString(t *testing.T) {
	if got := resolve.StageInitialized.String(); got != "initialized" {
		t.Fatalf("StageInitialized = %q", got)
	}
	if got := resolve.Stage(42).String(); got != "unknown" {
		t.Fatalf("Stage(42) = %q", got)
	}
	if !resolve.StageDestroyed.Terminal() || resolve.StageRunning.Terminal() {
		t.Fatal("only destroyed is terminal")
	}
}

func newResolver(env *testsupport.Env) *resolve.Resolver {
	return resolve.New(env.Session, resolve.Options{PollInterval: 5 * time.Millisecond})
}

func TestResolveRunsElementAndKeepsCallerURL(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg, testsupport.StubPlugin{KindName: "stub", Prefix: "stub://"})
	env.LoadModule(t, "stub")
	ctx := context.Background()

	extra := value.NewData()
	extra.Set("quality", value.String("high"))
	res, err := newResolver(env).Resolve(ctx, resolve.Request{URL: "stub://host/file.zip", Data: extra})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if res.Stage != resolve.StageRunning {
		t.Fatalf("stage = %s, want running", res.Stage)
	}
	if res.Name != "file.zip" {
		t.Fatalf("derived name = %q, want file.zip", res.Name)
	}
	testsupport.WaitDisabled(t, env.Daemon, res.Element.ID(), 2*time.Second)

	data, err := res.Element.ElementData(ctx)
	if err != nil {
		t.Fatalf("ElementData: %v", err)
	}
	if got, _ := data.GetString("url"); got != "stub://host/file.zip" {
		t.Fatalf("url after re-assert = %q", got)
	}
	if got, _ := data.GetString("quality"); got != "high" {
		t.Fatalf("quality after re-assert = %q", got)
	}
	if got, _ := data.GetString("source"); got != "stub://host/file.zip" {
		t.Fatalf("module key dropped by re-assert: %q", got)
	}
	name, err := res.Element.Name(ctx)
	if err != nil || name != "file.zip" {
		t.Fatalf("element name = %q, %v", name, err)
	}
}

func TestResolveWithoutModuleDestroysElement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg)
	ctx := context.Background()

	res, err := newResolver(env).Resolve(ctx, resolve.Request{URL: "https://example.com/file.zip"})
	if !errors.Is(err, failure.ErrCannotResolve) {
		t.Fatalf("Resolve err = %v, want ErrCannotResolve", err)
	}
	if res.Stage != resolve.StageDestroyed {
		t.Fatalf("stage = %s, want destroyed", res.Stage)
	}
	if _, err := res.Element.Info(ctx); !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("Info after cleanup err = %v, want ErrNotFound", err)
	}
	n, err := env.DefaultLocation(t).ElementsLen(ctx)
	if err != nil || n != 0 {
		t.Fatalf("ElementsLen = %d, %v; want 0", n, err)
	}
}

func TestResolveInitFailureLeavesElement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	broken := testsupport.StubPlugin{KindName: "broken", Prefix: "broken://", InitErr: errors.New("disk full")}
	env := testsupport.StartDaemon(t, cfg, broken)
	env.LoadModule(t, "broken")
	ctx := context.Background()

	res, err := newResolver(env).Resolve(ctx, resolve.Request{URL: "broken://x", Name: "keep-me"})
	if err == nil || !strings.Contains(err.Error(), "disk full") {
		t.Fatalf("Resolve err = %v, want init failure", err)
	}
	if res.Stage != resolve.StageResolved {
		t.Fatalf("stage = %s, want resolved", res.Stage)
	}
	info, err := res.Element.Info(ctx)
	if err != nil {
		t.Fatalf("element should survive init failure: %v", err)
	}
	if info.Initialized || info.Enabled {
		t.Fatalf("unexpected info: %+v", info)
	}
}

func TestResolveIntoUnknownLocation(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg)

	missing := ids.NewLocationID()
	_, err := newResolver(env).Resolve(context.Background(), resolve.Request{URL: "https://example.com/a", Location: &missing})
	if !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("Resolve err = %v, want ErrNotFound", err)
	}
	if _, err := newResolver(env).Resolve(context.Background(), resolve.Request{URL: "  "}); !errors.Is(err, failure.ErrInvalid) {
		t.Fatalf("empty url err = %v, want ErrInvalid", err)
	}
}

func TestObserveSkipsDisabledElement(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	flaky := testsupport.StubPlugin{KindName: "flaky", Prefix: "flaky://", RunErr: errors.New("refused")}
	env := testsupport.StartDaemon(t, cfg, flaky)
	env.LoadModule(t, "flaky")
	ctx := context.Background()

	r := newResolver(env)
	res, err := r.Resolve(ctx, resolve.Request{URL: "flaky://x"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	testsupport.WaitDisabled(t, env.Daemon, res.Element.ID(), 2*time.Second)

	calls := 0
	if err := r.Observe(ctx, res.Element, func(resolve.Snapshot) { calls++ }); err != nil {
		t.Fatalf("Observe: %v", err)
	}
	if calls != 0 {
		t.Fatalf("Observe reported %d snapshots for a disabled element", calls)
	}
	status, _ := res.Element.StatusMsg(ctx)
	if status != "Failed: refused" {
		t.Fatalf("status = %q", status)
	}
}

func TestObserveFollowsRunUntilDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	slow := testsupport.StubPlugin{KindName: "slow", Prefix: "slow://", Block: true}
	env := testsupport.StartDaemon(t, cfg, slow)
	env.LoadModule(t, "slow")
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	r := newResolver(env)
	res, err := r.Resolve(ctx, resolve.Request{URL: "slow://x"})
	if err != nil {
		t.Fatalf("Resolve: %v", err)
	}

	var (
		mu    sync.Mutex
		snaps []resolve.Snapshot
		once  sync.Once
	)
	err = r.Observe(ctx, res.Element, func(s resolve.Snapshot) {
		mu.Lock()
		snaps = append(snaps, s)
		mu.Unlock()
		if s.Progress >= 0.5 {
			once.Do(func() {
				if err := res.Element.SetEnabled(ctx, false, nil); err != nil {
					t.Errorf("disable: %v", err)
				}
			})
		}
	})
	if err != nil {
		t.Fatalf("Observe: %v", err)
	}
	mu.Lock()
	defer mu.Unlock()
	if len(snaps) == 0 {
		t.Fatal("expected at least one snapshot")
	}
	for i := 1; i < len(snaps); i++ {
		if snaps[i].Progress < snaps[i-1].Progress {
			t.Fatalf("progress went backwards: %v", snaps)
		}
	}
}

func TestRecover(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	env := testsupport.StartDaemon(t, cfg, testsupport.StubPlugin{KindName: "stub", Prefix: "stub://"})
	env.LoadModule(t, "stub")
	ctx := context.Background()
	r := newResolver(env)
	loc := env.DefaultLocation(t)

	orphan, err := loc.CreateElement(ctx, "orphan")
	if err != nil {
		t.Fatalf("CreateElement: %v", err)
	}
	stage, err := r.Recover(ctx, orphan)
	if !errors.Is(err, failure.ErrCannotResolve) || stage != resolve.StageDestroyed {
		t.Fatalf("Recover(orphan) = %s, %v", stage, err)
	}

	half, err := loc.CreateElement(ctx, "half")
	if err != nil {
		t.Fatalf("CreateElement: %v", err)
	}
	data := value.NewData()
	data.Set("url", value.String("stub://half"))
	if err := half.SetElementData(ctx, data); err != nil {
		t.Fatalf("SetElementData: %v", err)
	}
	if ok, err := half.ResolvModule(ctx); err != nil || !ok {
		t.Fatalf("ResolvModule = %v, %v", ok, err)
	}
	stage, err = r.Recover(ctx, half)
	if err != nil || stage != resolve.StageInitialized {
		t.Fatalf("Recover(half) = %s, %v; want initialized", stage, err)
	}
	if err := half.SetEnabled(ctx, true, nil); err != nil {
		t.Fatalf("enable after recover: %v", err)
	}
	testsupport.WaitDisabled(t, env.Daemon, half.ID(), 2*time.Second)
	stage, err = r.Recover(ctx, half)
	if err != nil || stage != resolve.StageDisabled {
		t.Fatalf("Recover(finished) = %s, %v; want disabled", stage, err)
	}
}
