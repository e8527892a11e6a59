package store

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"muzzman/internal/ids"
	"muzzman/internal/value"
)

// ModuleRecord is a loaded module as persisted.
type ModuleRecord struct {
	ID       ids.ModuleID
	Path     string
	Name     string
	Desc     string
	Proxy    int
	LoadedAt time.Time
}

// LocationRecord is a should_save location as persisted. Parent is nil for
// the root location.
type LocationRecord struct {
	ID        ids.LocationID
	Parent    *ids.LocationID
	Name      string
	Desc      string
	Path      string
	CreatedAt time.Time
}

// ElementRecord is an element of a persisted location.
type ElementRecord struct {
	ID          ids.ElementID
	Location    ids.LocationID
	Name        string
	Desc        string
	Meta        string
	Module      *ids.ModuleID
	Initialized bool
	ElementData value.Data
	ModuleData  value.Data
	Output      value.Data
	Progress    float64
	StatusMsg   string
	CreatedAt   time.Time
}

// SaveModule inserts or updates a module row.
func (s *Store) SaveModule(ctx context.Context, rec ModuleRecord) error {
	err := s.exec(ctx, `INSERT INTO modules (id, path, name, description, proxy, loaded_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET path = excluded.path, name = excluded.name,
			description = excluded.description, proxy = excluded.proxy`,
		rec.ID.String(), rec.Path, rec.Name, rec.Desc, rec.Proxy, formatTime(rec.LoadedAt))
	if err != nil {
		return fmt.Errorf("save module %s: %w", rec.ID, err)
	}
	return nil
}

// ListModules returns modules in load order.
func (s *Store) ListModules(ctx context.Context) ([]ModuleRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT id, path, name, description, proxy, loaded_at FROM modules ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list modules: %w", err)
	}
	defer rows.Close()

	var out []ModuleRecord
	for rows.Next() {
		var (
			rec      ModuleRecord
			rawID    string
			loadedAt string
		)
		if err := rows.Scan(&rawID, &rec.Path, &rec.Name, &rec.Desc, &rec.Proxy, &loadedAt); err != nil {
			return nil, fmt.Errorf("scan module: %w", err)
		}
		if rec.ID, err = ids.ParseModuleID(rawID); err != nil {
			return nil, fmt.Errorf("module row: %w", err)
		}
		rec.LoadedAt = parseTime(loadedAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveLocation inserts or updates a location row.
func (s *Store) SaveLocation(ctx context.Context, rec LocationRecord) error {
	var parent sql.NullString
	if rec.Parent != nil {
		parent = sql.NullString{String: rec.Parent.String(), Valid: true}
	}
	err := s.exec(ctx, `INSERT INTO locations (id, parent_id, name, description, path, created_at)
		VALUES (?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET parent_id = excluded.parent_id, name = excluded.name,
			description = excluded.description, path = excluded.path`,
		rec.ID.String(), parent, rec.Name, rec.Desc, rec.Path, formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("save location %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteLocation removes a location and every element persisted under it.
func (s *Store) DeleteLocation(ctx context.Context, id ids.LocationID) error {
	if err := s.exec(ctx, "DELETE FROM elements WHERE location_id = ?", id.String()); err != nil {
		return fmt.Errorf("delete elements of %s: %w", id, err)
	}
	if err := s.exec(ctx, "DELETE FROM locations WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("delete location %s: %w", id, err)
	}
	return nil
}

// ListLocations returns locations in creation order, so parents precede
// their children.
func (s *Store) ListLocations(ctx context.Context) ([]LocationRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		"SELECT id, parent_id, name, description, path, created_at FROM locations ORDER BY seq")
	if err != nil {
		return nil, fmt.Errorf("list locations: %w", err)
	}
	defer rows.Close()

	var out []LocationRecord
	for rows.Next() {
		var (
			rec       LocationRecord
			rawID     string
			parent    sql.NullString
			createdAt string
		)
		if err := rows.Scan(&rawID, &parent, &rec.Name, &rec.Desc, &rec.Path, &createdAt); err != nil {
			return nil, fmt.Errorf("scan location: %w", err)
		}
		if rec.ID, err = ids.ParseLocationID(rawID); err != nil {
			return nil, fmt.Errorf("location row: %w", err)
		}
		if parent.Valid {
			pid, err := ids.ParseLocationID(parent.String)
			if err != nil {
				return nil, fmt.Errorf("location %s parent: %w", rec.ID, err)
			}
			rec.Parent = &pid
		}
		rec.CreatedAt = parseTime(createdAt)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// SaveElement inserts or updates an element row. The element's location
// must already be saved.
func (s *Store) SaveElement(ctx context.Context, rec ElementRecord) error {
	elementData, err := json.Marshal(rec.ElementData)
	if err != nil {
		return fmt.Errorf("encode element data: %w", err)
	}
	moduleData, err := json.Marshal(rec.ModuleData)
	if err != nil {
		return fmt.Errorf("encode module data: %w", err)
	}
	output, err := json.Marshal(rec.Output)
	if err != nil {
		return fmt.Errorf("encode output: %w", err)
	}
	var module sql.NullString
	if rec.Module != nil {
		module = sql.NullString{String: rec.Module.String(), Valid: true}
	}
	err = s.exec(ctx, `INSERT INTO elements (id, location_id, name, description, meta, module_id, initialized,
			element_data_json, module_data_json, output_json, progress, status_msg, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET location_id = excluded.location_id, name = excluded.name,
			description = excluded.description, meta = excluded.meta, module_id = excluded.module_id,
			initialized = excluded.initialized, element_data_json = excluded.element_data_json,
			module_data_json = excluded.module_data_json, output_json = excluded.output_json,
			progress = excluded.progress, status_msg = excluded.status_msg`,
		rec.ID.String(), rec.Location.String(), rec.Name, rec.Desc, rec.Meta, module, boolToInt(rec.Initialized),
		string(elementData), string(moduleData), string(output), rec.Progress, rec.StatusMsg, formatTime(rec.CreatedAt))
	if err != nil {
		return fmt.Errorf("save element %s: %w", rec.ID, err)
	}
	return nil
}

// DeleteElement removes an element row. Deleting an absent row is not an error.
func (s *Store) DeleteElement(ctx context.Context, id ids.ElementID) error {
	if err := s.exec(ctx, "DELETE FROM elements WHERE id = ?", id.String()); err != nil {
		return fmt.Errorf("delete element %s: %w", id, err)
	}
	return nil
}

// ListElements returns every persisted element in creation order.
func (s *Store) ListElements(ctx context.Context) ([]ElementRecord, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT id, location_id, name, description, meta, module_id, initialized,
			element_data_json, module_data_json, output_json, progress, status_msg, created_at
		FROM elements ORDER BY seq`)
	if err != nil {
		return nil, fmt.Errorf("list elements: %w", err)
	}
	defer rows.Close()

	var out []ElementRecord
	for rows.Next() {
		rec, err := scanElement(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, rec)
	}
	return out, rows.Err()
}

func scanElement(scanner interface{ Scan(dest ...any) error }) (ElementRecord, error) {
	var (
		rec         ElementRecord
		rawID       string
		rawLocation string
		module      sql.NullString
		initialized int
		elementData string
		moduleData  string
		output      string
		createdAt   string
	)
	if err := scanner.Scan(&rawID, &rawLocation, &rec.Name, &rec.Desc, &rec.Meta, &module, &initialized,
		&elementData, &moduleData, &output, &rec.Progress, &rec.StatusMsg, &createdAt); err != nil {
		return rec, fmt.Errorf("scan element: %w", err)
	}
	var err error
	if rec.ID, err = ids.ParseElementID(rawID); err != nil {
		return rec, fmt.Errorf("element row: %w", err)
	}
	if rec.Location, err = ids.ParseLocationID(rawLocation); err != nil {
		return rec, fmt.Errorf("element %s location: %w", rec.ID, err)
	}
	if module.Valid {
		mid, err := ids.ParseModuleID(module.String)
		if err != nil {
			return rec, fmt.Errorf("element %s module: %w", rec.ID, err)
		}
		rec.Module = &mid
	}
	rec.Initialized = initialized != 0
	for _, field := range []struct {
		raw string
		dst *value.Data
	}{
		{elementData, &rec.ElementData},
		{moduleData, &rec.ModuleData},
		{output, &rec.Output},
	} {
		if err := json.Unmarshal([]byte(field.raw), field.dst); err != nil {
			return rec, fmt.Errorf("element %s data: %w", rec.ID, err)
		}
	}
	rec.CreatedAt = parseTime(createdAt)
	return rec, nil
}

func boolToInt(v bool) int {
	if v {
		return 1
	}
	return 0
}
