package main

import (
	"context"
	"encoding/json"
	"errors"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"muzzman/internal/failure"
	"muzzman/internal/ids"
	"muzzman/internal/testsupport"
)

var stubDownloader = testsupport.StubPlugin{KindName: "stub", Prefix: "stub://"}

func TestGetDefaultLocationPrintsID(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "get-default-location")
	if err != nil {
		t.Fatalf("get-default-location: %v", err)
	}
	id, err := ids.ParseLocationID(firstLine(out))
	if err != nil {
		t.Fatalf("parse printed id %q: %v", out, err)
	}
	if want := env.DefaultLocation(t).ID(); id != want {
		t.Fatalf("printed %s, want %s", id, want)
	}
}

func TestCreateLocationAddsChild(t *testing.T) {
	env := setupCLITestEnv(t)
	parent := env.DefaultLocation(t).ID().String()

	out, _, err := env.run(t, "create-location", "music")
	if err != nil {
		t.Fatalf("create-location: %v", err)
	}
	child := firstLine(out)
	if _, err := ids.ParseLocationID(child); err != nil {
		t.Fatalf("parse printed id %q: %v", out, err)
	}

	out, _, err = env.run(t, "get-location", parent)
	if err != nil {
		t.Fatalf("get-location: %v", err)
	}
	requireContains(t, out, child)

	out, _, err = env.run(t, "create-location", "flac", child)
	if err != nil {
		t.Fatalf("create-location under child: %v", err)
	}
	out, _, err = env.run(t, "get-location", firstLine(out))
	if err != nil {
		t.Fatalf("get-location grandchild: %v", err)
	}
	requireContains(t, out, filepath.Join("music", "flac"))

	if _, _, err := env.run(t, "create-location", "music"); !errors.Is(err, failure.ErrAlreadyExists) {
		t.Fatalf("expected ErrAlreadyExists for a duplicate name, got %v", err)
	}
}

func TestCommandsReportStoppedDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	_, _, err := runCLI(t, []string{"get-default-location"}, cfg.SocketPath(), configPath)
	if err == nil {
		t.Fatal("expected error without a daemon")
	}
	if !errors.Is(err, failure.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	requireContains(t, err.Error(), "daemon is not started")
}

func TestLoadModuleListingRequiresDaemon(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	testsupport.WriteManifest(t, filepath.Join(cfg.Paths.ModulesDir, "alpha-downloader.toml"), "stub", "Alpha")

	out, _, err := runCLI(t, []string{"load-module", "alpha"}, cfg.SocketPath(), configPath)
	if !errors.Is(err, failure.ErrNotRunning) {
		t.Fatalf("expected ErrNotRunning, got %v", err)
	}
	if strings.Contains(out, "alpha-downloader") {
		t.Fatalf("manifests listed without a daemon: %q", out)
	}
}

func TestLoadModuleListsThenLoadsByIndex(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	dir := env.Config.Paths.ModulesDir
	testsupport.WriteManifest(t, filepath.Join(dir, "alpha-downloader.toml"), "stub", "Alpha")
	testsupport.WriteManifest(t, filepath.Join(dir, "beta-downloader.toml"), "stub", "Beta")
	testsupport.WriteManifest(t, filepath.Join(dir, "local-files.toml"), "file", "Files")

	out, errOut, err := env.run(t, "load-module", "downloader")
	if err != nil {
		t.Fatalf("load-module listing: %v", err)
	}
	requireContains(t, out, "0: "+filepath.Join(dir, "alpha-downloader.toml"))
	requireContains(t, out, "1: "+filepath.Join(dir, "beta-downloader.toml"))
	if strings.Contains(out, "local-files") {
		t.Fatalf("listing should not include unmatched manifests: %q", out)
	}
	requireContains(t, errOut, "<index>")

	if _, _, err := env.run(t, "load-module", "downloader", "2"); err == nil {
		t.Fatal("expected out of range index to fail")
	}
	if _, _, err := env.run(t, "load-module", "downloader", "x"); err == nil {
		t.Fatal("expected non-numeric index to fail")
	}

	out, _, err = env.run(t, "load-module", "downloader", "1")
	if err != nil {
		t.Fatalf("load-module: %v", err)
	}
	requireContains(t, out, "Loaded module: Beta")
	requireContains(t, out, "Desc: Test plugin")

	out, _, err = env.run(t, "get-modules")
	if err != nil {
		t.Fatalf("get-modules: %v", err)
	}
	requireContains(t, out, "0: Beta")

	out, _, err = env.run(t, "get-modules", "0")
	if err != nil {
		t.Fatalf("get-modules 0: %v", err)
	}
	requireContains(t, out, "Stub stub")

	if _, _, err := env.run(t, "get-modules", "1"); err == nil {
		t.Fatal("expected get-modules past the end to fail")
	}
}

func TestLoadModuleWithoutMatchFails(t *testing.T) {
	env := setupCLITestEnv(t)
	_, _, err := env.run(t, "load-module", "nothing-here")
	if err == nil {
		t.Fatal("expected error when no manifest matches")
	}
	requireContains(t, err.Error(), "nothing-here")
}

func TestGetModulesJSON(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	env.LoadModule(t, "stub")

	out, _, err := env.run(t, "--json", "get-modules")
	if err != nil {
		t.Fatalf("get-modules --json: %v", err)
	}
	var views []moduleView
	if err := json.Unmarshal([]byte(out), &views); err != nil {
		t.Fatalf("decode %q: %v", out, err)
	}
	if len(views) != 1 || views[0].Name != "stub" {
		t.Fatalf("unexpected modules %+v", views)
	}
}

func TestResolvCreatesAndRunsElement(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	env.LoadModule(t, "stub")

	out, _, err := env.run(t, "resolv", "stub://host/path/movie.mkv")
	if err != nil {
		t.Fatalf("resolv: %v", err)
	}
	id, err := ids.ParseElementID(firstLine(out))
	if err != nil {
		t.Fatalf("parse element id %q: %v", out, err)
	}
	testsupport.WaitDisabled(t, env.Daemon, id, 2*time.Second)

	out, _, err = env.run(t, "get-element", id.String())
	if err != nil {
		t.Fatalf("get-element: %v", err)
	}
	requireContains(t, out, "movie.mkv")
	requireContains(t, out, "source: stub://host/path/movie.mkv")
	requireContains(t, out, "url: stub://host/path/movie.mkv")
	requireContains(t, out, "prepared: true")
	requireContains(t, out, "100.0%")

	out, _, err = env.run(t, "get-location", env.DefaultLocation(t).ID().String())
	if err != nil {
		t.Fatalf("get-location: %v", err)
	}
	requireContains(t, out, id.String())
}

func TestResolvWithNameAndProgress(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	env.LoadModule(t, "stub")
	loc := env.DefaultLocation(t)

	out, _, err := env.run(t, "resolv", "--progress", "stub://host/a.bin", "custom", loc.ID().String())
	if err != nil {
		t.Fatalf("resolv --progress: %v", err)
	}
	requireContains(t, out, "Finished: 100.0%")

	id, err := ids.ParseElementID(firstLine(out))
	if err != nil {
		t.Fatalf("parse element id %q: %v", out, err)
	}
	el, err := env.Session.Element(context.Background(), id)
	if err != nil {
		t.Fatalf("Element: %v", err)
	}
	name, err := el.Name(context.Background())
	if err != nil {
		t.Fatalf("Name: %v", err)
	}
	if name != "custom" {
		t.Fatalf("name = %q, want custom", name)
	}
}

func TestResolvWithoutModuleLeavesNoElement(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	env.LoadModule(t, "stub")

	_, _, err := env.run(t, "resolv", "other://host/file")
	if !errors.Is(err, failure.ErrCannotResolve) {
		t.Fatalf("expected ErrCannotResolve, got %v", err)
	}
	n, err := env.DefaultLocation(t).ElementsLen(context.Background())
	if err != nil {
		t.Fatalf("ElementsLen: %v", err)
	}
	if n != 0 {
		t.Fatalf("expected unresolved element to be destroyed, found %d", n)
	}
}

func TestResolvRejectsBadLocationID(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	if _, _, err := env.run(t, "resolv", "stub://x", "name", "not-an-id"); err == nil {
		t.Fatal("expected invalid location id to fail")
	}
}

func TestDestroyElement(t *testing.T) {
	env := setupCLITestEnv(t, stubDownloader)
	env.LoadModule(t, "stub")

	out, _, err := env.run(t, "resolv", "stub://host/file")
	if err != nil {
		t.Fatalf("resolv: %v", err)
	}
	id := firstLine(out)

	out, _, err = env.run(t, "destroy-element", id)
	if err != nil {
		t.Fatalf("destroy-element: %v", err)
	}
	requireContains(t, out, "Result: ok")

	_, _, err = env.run(t, "destroy-element", id)
	if !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second destroy, got %v", err)
	}
	_, _, err = env.run(t, "get-element", id)
	if !errors.Is(err, failure.ErrNotFound) {
		t.Fatalf("expected ErrNotFound from get-element, got %v", err)
	}
}

func TestDaemonStatus(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := env.run(t, "daemon", "status")
	if err != nil {
		t.Fatalf("daemon status: %v", err)
	}
	requireContains(t, out, "yes")
	requireContains(t, out, "State directory")

	out, _, err = env.run(t, "daemon", "stop")
	if err == nil || !strings.Contains(err.Error(), "refusing") {
		t.Fatalf("expected stop to refuse signalling the test process, got %v (%q)", err, out)
	}
}

func TestDaemonStopWhenNotRunning(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)

	out, _, err := runCLI(t, []string{"daemon", "stop"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("daemon stop: %v", err)
	}
	requireContains(t, out, "Daemon is not running")
}

func TestLogsPrintsTail(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	configPath := filepath.Join(testsupport.BaseDir(cfg), "config.toml")
	writeTestConfig(t, configPath, cfg)
	testsupport.WriteLines(t, cfg.LogPath(), "first", "second", "third")

	out, _, err := runCLI(t, []string{"logs", "-n", "2"}, cfg.SocketPath(), configPath)
	if err != nil {
		t.Fatalf("logs: %v", err)
	}
	if out != "second\nthird\n" {
		t.Fatalf("unexpected output %q", out)
	}
}
