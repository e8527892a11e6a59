package ids_test

import (
	"encoding/json"
	"strconv"
	"strings"
	"testing"

	"muzzman/internal/ids"
)

func TestElementIDTextRoundTrip(t *testing.T) {
	id := ids.NewElementID()
	text := id.String()
	if !strings.HasPrefix(text, "el-") {
		t.Fatalf("expected el- prefix, got %q", text)
	}
	parsed, err := ids.ParseElementID(text)
	if err != nil {
		t.Fatalf("ParseElementID: %v", err)
	}
	if parsed != id {
		t.Fatalf("round trip mismatch: %s != %s", parsed, id)
	}
}

func TestParseAcceptsJSONQuotedForm(t *testing.T) {
	id := ids.NewLocationID()
	encoded, err := json.Marshal(id)
	if err != nil {
		t.Fatalf("marshal: %v", err)
	}
	if string(encoded) != strconv.Quote(id.String()) {
		t.Fatalf("unexpected JSON form %s", encoded)
	}
	parsed, err := ids.ParseLocationID(string(encoded))
	if err != nil {
		t.Fatalf("ParseLocationID: %v", err)
	}
	if parsed != id {
		t.Fatalf("expected %s, got %s", id, parsed)
	}

	var decoded ids.LocationID
	if err := json.Unmarshal(encoded, &decoded); err != nil {
		t.Fatalf("unmarshal: %v", err)
	}
	if decoded != id {
		t.Fatalf("expected %s, got %s", id, decoded)
	}
}

func TestParseRejectsWrongKind(t *testing.T) {
	module := ids.NewModuleID()
	if _, err := ids.ParseElementID(module.String()); err == nil {
		t.Fatal("expected module id to be rejected as element id")
	}
	if _, err := ids.ParseModuleID("mod-not-a-uuid"); err == nil {
		t.Fatal("expected malformed uuid to fail")
	}
	if _, err := ids.ParseLocationID("loc-00000000-0000-0000-0000-000000000000"); err == nil {
		t.Fatal("expected nil uuid to fail")
	}
}

func TestIDsAreComparableMapKeys(t *testing.T) {
	a := ids.NewElementID()
	b := ids.NewElementID()
	seen := map[ids.ElementID]int{a: 1, b: 2}
	if seen[a] != 1 || seen[b] != 2 {
		t.Fatalf("unexpected map contents: %#v", seen)
	}
	var zero ids.ElementID
	if !zero.IsZero() || a.IsZero() {
		t.Fatal("IsZero mismatch")
	}
}
