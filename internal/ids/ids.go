package ids

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/google/uuid"
)

const (
	modulePrefix   = "mod-"
	locationPrefix = "loc-"
	elementPrefix  = "el-"
)

// ModuleID names a module registered with the daemon.
type ModuleID uuid.UUID

// LocationID names a location node.
type LocationID uuid.UUID

// ElementID names an element.
type ElementID uuid.UUID

// NewModuleID allocates a fresh random module id.
func NewModuleID() ModuleID { return ModuleID(uuid.New()) }

// NewLocationID allocates a fresh random location id.
func NewLocationID() LocationID { return LocationID(uuid.New()) }

// NewElementID allocates a fresh random element id.
func NewElementID() ElementID { return ElementID(uuid.New()) }

func (id ModuleID) String() string { return modulePrefix + uuid.UUID(id).String() }
func (id LocationID) String() string { return locationPrefix + uuid.UUID(id).String() }
func (id ElementID) String() string { return elementPrefix + uuid.UUID(id).String() }

// IsZero reports whether the id was never assigned.
func (id ModuleID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// IsZero reports whether the id was never assigned.
func (id LocationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

// IsZero reports whether the id was never assigned.
func (id ElementID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }

func (id ModuleID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id LocationID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }
func (id ElementID) MarshalText() ([]byte, error) { return []byte(id.String()), nil }

func (id *ModuleID) UnmarshalText(text []byte) error {
	parsed, err := ParseModuleID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *LocationID) UnmarshalText(text []byte) error {
	parsed, err := ParseLocationID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

func (id *ElementID) UnmarshalText(text []byte) error {
	parsed, err := ParseElementID(string(text))
	if err != nil {
		return err
	}
	*id = parsed
	return nil
}

// ParseModuleID parses the canonical text form of a module id.
func ParseModuleID(text string) (ModuleID, error) {
	u, err := parse(text, modulePrefix)
	return ModuleID(u), err
}

// ParseLocationID parses the canonical text form of a location id.
func ParseLocationID(text string) (LocationID, error) {
	u, err := parse(text, locationPrefix)
	return LocationID(u), err
}

// ParseElementID parses the canonical text form of an element id.
func ParseElementID(text string) (ElementID, error) {
	u, err := parse(text, elementPrefix)
	return ElementID(u), err
}

// parse accepts the bare form ("el-<uuid>") and the JSON-quoted form
// ("\"el-<uuid>\"") that shells pass through when ids are copied from JSON
// output.
func parse(text, prefix string) (uuid.UUID, error) {
	trimmed := strings.TrimSpace(text)
	if strings.HasPrefix(trimmed, `"`) {
		unquoted, err := strconv.Unquote(trimmed)
		if err != nil {
			return uuid.Nil, fmt.Errorf("parse id %q: %w", text, err)
		}
		trimmed = strings.TrimSpace(unquoted)
	}
	if !strings.HasPrefix(trimmed, prefix) {
		return uuid.Nil, fmt.Errorf("parse id %q: expected %q prefix", text, prefix)
	}
	u, err := uuid.Parse(strings.TrimPrefix(trimmed, prefix))
	if err != nil {
		return uuid.Nil, fmt.Errorf("parse id %q: %w", text, err)
	}
	if u == uuid.Nil {
		return uuid.Nil, fmt.Errorf("parse id %q: nil uuid", text)
	}
	return u, nil
}
