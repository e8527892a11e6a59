package value

import (
	"encoding/json"
	"errors"
	"fmt"
	"sort"
)

// ErrDuplicateKey is returned by Data.Add when the key is already present.
var ErrDuplicateKey = errors.New("duplicate key")

// Value is a Type plus the metadata a module attaches to a setting.
type Value struct {
	Type     Type   `json:"type"`
	Default  Type   `json:"default"`
	Desc     string `json:"desc,omitempty"`
	Editable bool   `json:"editable"`
}

// From wraps t in an editable Value whose default is t.
func From(t Type) Value {
	return Value{Type: t, Default: t, Editable: true}
}

// Equal compares payloads and metadata.
func (v Value) Equal(other Value) bool {
	return v.Type.Equal(other.Type) &&
		v.Default.Equal(other.Default) &&
		v.Desc == other.Desc &&
		v.Editable == other.Editable
}

// Data maps unique string keys to Values. Key order is not significant.
// The zero Data is empty and ready to use.
type Data struct {
	entries map[string]Value
}

// NewData returns an empty store.
func NewData() Data {
	return Data{entries: map[string]Value{}}
}

// Add inserts key, failing with ErrDuplicateKey when it already exists.
func (d *Data) Add(key string, v Value) error {
	if _, ok := d.entries[key]; ok {
		return fmt.Errorf("%w: %q", ErrDuplicateKey, key)
	}
	d.ensure()
	d.entries[key] = v
	return nil
}

// Set upserts key. An existing entry keeps its metadata and only has its
// payload replaced.
func (d *Data) Set(key string, t Type) {
	d.ensure()
	if existing, ok := d.entries[key]; ok {
		existing.Type = t
		d.entries[key] = existing
		return
	}
	d.entries[key] = From(t)
}

// Get returns the value stored under key.
func (d Data) Get(key string) (Value, bool) {
	v, ok := d.entries[key]
	return v, ok
}

// GetString returns the payload under key when it is a string.
func (d Data) GetString(key string) (string, bool) {
	v, ok := d.entries[key]
	if !ok {
		return "", false
	}
	return v.Type.AsString()
}

// Remove deletes key and reports whether it existed.
func (d *Data) Remove(key string) bool {
	if _, ok := d.entries[key]; !ok {
		return false
	}
	delete(d.entries, key)
	return true
}

// Len returns the number of keys.
func (d Data) Len() int { return len(d.entries) }

// Keys returns the keys in sorted order.
func (d Data) Keys() []string {
	keys := make([]string, 0, len(d.entries))
	for k := range d.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Clone returns an independent copy.
func (d Data) Clone() Data {
	out := Data{entries: make(map[string]Value, len(d.entries))}
	for k, v := range d.entries {
		out.entries[k] = v
	}
	return out
}

// Equal reports whether both stores hold the same keys and values.
func (d Data) Equal(other Data) bool {
	if len(d.entries) != len(other.entries) {
		return false
	}
	for k, v := range d.entries {
		o, ok := other.entries[k]
		if !ok || !v.Equal(o) {
			return false
		}
	}
	return true
}

func (d *Data) ensure() {
	if d.entries == nil {
		d.entries = map[string]Value{}
	}
}

// MarshalJSON encodes the store as a JSON object.
func (d Data) MarshalJSON() ([]byte, error) {
	if d.entries == nil {
		return []byte("{}"), nil
	}
	return json.Marshal(d.entries)
}

// UnmarshalJSON decodes a JSON object produced by MarshalJSON.
func (d *Data) UnmarshalJSON(raw []byte) error {
	entries := map[string]Value{}
	if err := json.Unmarshal(raw, &entries); err != nil {
		return fmt.Errorf("unmarshal data: %w", err)
	}
	d.entries = entries
	return nil
}
