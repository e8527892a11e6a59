package value

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
)

// Kind tags the variant held by a Type.
type Kind uint8

const (
	KindNone Kind = iota
	KindString
	KindBool
	KindInt
	KindFloat
	KindBytes
	KindList
)

var kindNames = map[Kind]string{
	KindNone:   "none",
	KindString: "string",
	KindBool:   "bool",
	KindInt:    "int",
	KindFloat:  "float",
	KindBytes:  "bytes",
	KindList:   "list",
}

func (k Kind) String() string {
	if name, ok := kindNames[k]; ok {
		return name
	}
	return "kind(" + strconv.Itoa(int(k)) + ")"
}

// ParseKind maps a wire name back to a Kind.
func ParseKind(name string) (Kind, bool) {
	for kind, candidate := range kindNames {
		if candidate == name {
			return kind, true
		}
	}
	return KindNone, false
}

// Type is a closed tagged union. The zero Type is None.
type Type struct {
	kind Kind
	str  string
	b    bool
	i    int64
	f    float64
	raw  []byte
	list []Type
}

func None() Type { return Type{} }
func String(s string) Type { return Type{kind: KindString, str: s} }
func Bool(b bool) Type { return Type{kind: KindBool, b: b} }
func Int(i int64) Type { return Type{kind: KindInt, i: i} }
func Float(f float64) Type { return Type{kind: KindFloat, f: f} }
func Bytes(raw []byte) Type { return Type{kind: KindBytes, raw: bytes.Clone(raw)} }
func List(items ...Type) Type { return Type{kind: KindList, list: append([]Type(nil), items...)} }
func (t Type) Kind() Kind { return t.kind }
func (t Type) IsNone() bool { return t.kind == KindNone }

// AsString returns the string payload when t holds a string.
func (t Type) AsString() (string, bool) { return t.str, t.kind == KindString }

// AsBool returns the bool payload when t holds a bool.
func (t Type) AsBool() (bool, bool) { return t.b, t.kind == KindBool }

// AsInt returns the integer payload when t holds an int.
func (t Type) AsInt() (int64, bool) { return t.i, t.kind == KindInt }

// AsFloat returns the numeric payload for float and int variants.
func (t Type) AsFloat() (float64, bool) {
	switch t.kind {
	case KindFloat:
		return t.f, true
	case KindInt:
		return float64(t.i), true
	default:
		return 0, false
	}
}

// AsBytes returns a copy of the byte payload.
func (t Type) AsBytes() ([]byte, bool) {
	if t.kind != KindBytes {
		return nil, false
	}
	return bytes.Clone(t.raw), true
}

// AsList returns a copy of the list payload.
func (t Type) AsList() ([]Type, bool) {
	if t.kind != KindList {
		return nil, false
	}
	return append([]Type(nil), t.list...), true
}

// Equal reports deep equality of two Types.
func (t Type) Equal(other Type) bool {
	if t.kind != other.kind {
		return false
	}
	switch t.kind {
	case KindNone:
		return true
	case KindString:
		return t.str == other.str
	case KindBool:
		return t.b == other.b
	case KindInt:
		return t.i == other.i
	case KindFloat:
		return t.f == other.f
	case KindBytes:
		return bytes.Equal(t.raw, other.raw)
	case KindList:
		if len(t.list) != len(other.list) {
			return false
		}
		for i := range t.list {
			if !t.list[i].Equal(other.list[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String renders the payload for display.
func (t Type) String() string {
	switch t.kind {
	case KindString:
		return t.str
	case KindBool:
		return strconv.FormatBool(t.b)
	case KindInt:
		return strconv.FormatInt(t.i, 10)
	case KindFloat:
		return strconv.FormatFloat(t.f, 'f', -1, 64)
	case KindBytes:
		return fmt.Sprintf("<%d bytes>", len(t.raw))
	case KindList:
		var buf bytes.Buffer
		buf.WriteByte('[')
		for i, item := range t.list {
			if i > 0 {
				buf.WriteString(", ")
			}
			buf.WriteString(item.String())
		}
		buf.WriteByte(']')
		return buf.String()
	default:
		return "none"
	}
}

type typeJSON struct {
	Kind  string          `json:"kind"`
	Value json.RawMessage `json:"value,omitempty"`
}

// MarshalJSON encodes t as {"kind": "...", "value": ...}.
func (t Type) MarshalJSON() ([]byte, error) {
	var payload any
	switch t.kind {
	case KindNone:
		return json.Marshal(typeJSON{Kind: KindNone.String()})
	case KindString:
		payload = t.str
	case KindBool:
		payload = t.b
	case KindInt:
		payload = t.i
	case KindFloat:
		payload = t.f
	case KindBytes:
		payload = t.raw
	case KindList:
		items := t.list
		if items == nil {
			items = []Type{}
		}
		payload = items
	default:
		return nil, fmt.Errorf("marshal value: unknown kind %d", t.kind)
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return json.Marshal(typeJSON{Kind: t.kind.String(), Value: raw})
}

// UnmarshalJSON decodes the tagged form produced by MarshalJSON.
func (t *Type) UnmarshalJSON(data []byte) error {
	var wire typeJSON
	if err := json.Unmarshal(data, &wire); err != nil {
		return fmt.Errorf("unmarshal value: %w", err)
	}
	kind, ok := ParseKind(wire.Kind)
	if !ok {
		return fmt.Errorf("unmarshal value: unknown kind %q", wire.Kind)
	}
	decoded := Type{kind: kind}
	var err error
	switch kind {
	case KindNone:
	case KindString:
		err = json.Unmarshal(wire.Value, &decoded.str)
	case KindBool:
		err = json.Unmarshal(wire.Value, &decoded.b)
	case KindInt:
		err = json.Unmarshal(wire.Value, &decoded.i)
	case KindFloat:
		err = json.Unmarshal(wire.Value, &decoded.f)
	case KindBytes:
		err = json.Unmarshal(wire.Value, &decoded.raw)
	case KindList:
		err = json.Unmarshal(wire.Value, &decoded.list)
	}
	if err != nil {
		return fmt.Errorf("unmarshal %s value: %w", kind, err)
	}
	*t = decoded
	return nil
}
