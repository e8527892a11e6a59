package failure_test

import (
	"errors"
	"fmt"
	"strings"
	"testing"

	"muzzman/internal/failure"
)

func TestEncodeDecodePreservesClassification(t *testing.T) {
	original := failure.Wrap("element.destroy", "el-123", failure.Newf(failure.ErrNotFound, "element el-123"))
	decoded := failure.Decode(failure.Encode(original))
	if !errors.Is(decoded, failure.ErrNotFound) {
		t.Fatalf("expected decoded error to match ErrNotFound, got %v", decoded)
	}
	if decoded.Error() != original.Error() {
		t.Fatalf("expected message %q, got %q", original.Error(), decoded.Error())
	}
}

func TestDecodeUnknownMessage(t *testing.T) {
	err := failure.Decode("boom")
	if err == nil || err.Error() != "boom" {
		t.Fatalf("unexpected decode result: %v", err)
	}
	if failure.CodeOf(err) != failure.CodeUnknown {
		t.Fatalf("expected unknown code, got %s", failure.CodeOf(err))
	}
	if failure.Decode("") != nil {
		t.Fatal("expected empty message to decode to nil")
	}
}

func TestOpErrorCarriesContext(t *testing.T) {
	err := failure.Wrap("location.create_element", "loc-1", fmt.Errorf("mkdir: %w", failure.ErrIO))
	var opErr *failure.OpError
	if !errors.As(err, &opErr) {
		t.Fatalf("expected OpError, got %T", err)
	}
	if opErr.Op != "location.create_element" || opErr.ID != "loc-1" {
		t.Fatalf("unexpected context: %#v", opErr)
	}
	if !strings.Contains(err.Error(), "loc-1") {
		t.Fatalf("expected id in message, got %q", err.Error())
	}
	if failure.Wrap("op", "id", nil) != nil {
		t.Fatal("expected nil passthrough")
	}
}

func TestCheckRange(t *testing.T) {
	cases := []struct {
		start, end, n int
		ok            bool
	}{
		{0, 0, 0, true},
		{0, 3, 3, true},
		{1, 2, 3, true},
		{3, 3, 3, true},
		{0, 4, 3, false},
		{2, 1, 3, false},
		{-1, 1, 3, false},
	}
	for _, tc := range cases {
		err := failure.CheckRange(tc.start, tc.end, tc.n)
		if tc.ok && err != nil {
			t.Fatalf("CheckRange(%d,%d,%d) unexpected error: %v", tc.start, tc.end, tc.n, err)
		}
		if !tc.ok && !errors.Is(err, failure.ErrOutOfRange) {
			t.Fatalf("CheckRange(%d,%d,%d) expected ErrOutOfRange, got %v", tc.start, tc.end, tc.n, err)
		}
	}
}
