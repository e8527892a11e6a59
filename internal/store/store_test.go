package store_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"muzzman/internal/ids"
	"muzzman/internal/store"
	"muzzman/internal/value"
)

func openStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.OpenPath(filepath.Join(t.TempDir(), "muzzman.db"))
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func TestModulesRoundTripInLoadOrder(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	first := store.ModuleRecord{ID: ids.NewModuleID(), Path: "/m/b.toml", Name: "B", Proxy: 1, LoadedAt: time.Now()}
	second := store.ModuleRecord{ID: ids.NewModuleID(), Path: "/m/a.toml", Name: "A", Desc: "second", LoadedAt: time.Now()}
	for _, rec := range []store.ModuleRecord{first, second} {
		if err := s.SaveModule(ctx, rec); err != nil {
			t.Fatalf("SaveModule: %v", err)
		}
	}
	first.Name = "B renamed"
	if err := s.SaveModule(ctx, first); err != nil {
		t.Fatalf("SaveModule update: %v", err)
	}

	got, err := s.ListModules(ctx)
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("expected 2 modules, got %d", len(got))
	}
	if got[0].ID != first.ID || got[0].Name != "B renamed" || got[0].Proxy != 1 {
		t.Fatalf("unexpected first module %+v", got[0])
	}
	if got[1].ID != second.ID || got[1].Desc != "second" {
		t.Fatalf("unexpected second module %+v", got[1])
	}
}

func TestLocationsAndElementsRoundTrip(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()

	root := store.LocationRecord{ID: ids.NewLocationID(), Name: "Default", Path: "/dl", CreatedAt: time.Now()}
	child := store.LocationRecord{ID: ids.NewLocationID(), Parent: &root.ID, Name: "Music", Path: "/dl/music", CreatedAt: time.Now()}
	for _, rec := range []store.LocationRecord{root, child} {
		if err := s.SaveLocation(ctx, rec); err != nil {
			t.Fatalf("SaveLocation: %v", err)
		}
	}

	mod := ids.NewModuleID()
	data := value.NewData()
	data.Set("url", value.String("file:///tmp/a.bin"))
	out := value.NewData()
	out.Set("path", value.String("/dl/music/a.bin"))
	el := store.ElementRecord{
		ID:          ids.NewElementID(),
		Location:    child.ID,
		Name:        "a.bin",
		Meta:        "tag",
		Module:      &mod,
		Initialized: true,
		ElementData: data,
		Output:      out,
		Progress:    0.5,
		StatusMsg:   "Copying",
		CreatedAt:   time.Now(),
	}
	if err := s.SaveElement(ctx, el); err != nil {
		t.Fatalf("SaveElement: %v", err)
	}

	locs, err := s.ListLocations(ctx)
	if err != nil {
		t.Fatalf("ListLocations: %v", err)
	}
	if len(locs) != 2 || locs[0].Parent != nil || locs[1].Parent == nil || *locs[1].Parent != root.ID {
		t.Fatalf("unexpected locations %+v", locs)
	}

	els, err := s.ListElements(ctx)
	if err != nil {
		t.Fatalf("ListElements: %v", err)
	}
	if len(els) != 1 {
		t.Fatalf("expected 1 element, got %d", len(els))
	}
	got := els[0]
	if got.ID != el.ID || got.Location != child.ID || got.Module == nil || *got.Module != mod {
		t.Fatalf("unexpected element identity %+v", got)
	}
	if !got.Initialized || got.Progress != 0.5 || got.StatusMsg != "Copying" || got.Meta != "tag" {
		t.Fatalf("unexpected element fields %+v", got)
	}
	if diff := cmp.Diff(data, got.ElementData); diff != "" {
		t.Fatalf("element data mismatch (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(out, got.Output); diff != "" {
		t.Fatalf("output mismatch (-want +got):\n%s", diff)
	}
	if got.ModuleData.Len() != 0 {
		t.Fatalf("expected empty module data, got %v", got.ModuleData.Keys())
	}

	if err := s.DeleteLocation(ctx, child.ID); err != nil {
		t.Fatalf("DeleteLocation: %v", err)
	}
	els, err = s.ListElements(ctx)
	if err != nil {
		t.Fatalf("ListElements after delete: %v", err)
	}
	if len(els) != 0 {
		t.Fatalf("expected elements removed with their location, got %d", len(els))
	}
}

func TestDeleteElementIsIdempotent(t *testing.T) {
	s := openStore(t)
	ctx := context.Background()
	loc := store.LocationRecord{ID: ids.NewLocationID(), Name: "Default", Path: "/dl", CreatedAt: time.Now()}
	if err := s.SaveLocation(ctx, loc); err != nil {
		t.Fatalf("SaveLocation: %v", err)
	}
	el := store.ElementRecord{ID: ids.NewElementID(), Location: loc.ID, Name: "x", CreatedAt: time.Now()}
	if err := s.SaveElement(ctx, el); err != nil {
		t.Fatalf("SaveElement: %v", err)
	}
	for i := 0; i < 2; i++ {
		if err := s.DeleteElement(ctx, el.ID); err != nil {
			t.Fatalf("DeleteElement #%d: %v", i+1, err)
		}
	}
}

func TestReopenKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	rec := store.ModuleRecord{ID: ids.NewModuleID(), Path: "/m/x.toml", Name: "X", LoadedAt: time.Now()}
	if err := s.SaveModule(context.Background(), rec); err != nil {
		t.Fatalf("SaveModule: %v", err)
	}
	if err := s.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	mods, err := reopened.ListModules(context.Background())
	if err != nil {
		t.Fatalf("ListModules: %v", err)
	}
	if len(mods) != 1 || mods[0].ID != rec.ID {
		t.Fatalf("expected module to survive reopen, got %+v", mods)
	}
}

func TestSchemaMismatch(t *testing.T) {
	path := filepath.Join(t.TempDir(), "state.db")
	s, err := store.OpenPath(path)
	if err != nil {
		t.Fatalf("OpenPath: %v", err)
	}
	if err := store.SetSchemaVersionForTest(s, 99); err != nil {
		t.Fatalf("set version: %v", err)
	}
	_ = s.Close()

	if _, err := store.OpenPath(path); !errors.Is(err, store.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}
