package logging

import (
	"bytes"
	"context"
	"io"
	"log/slog"
	"path/filepath"
	"strconv"
	"strings"
	"sync"
	"time"
)

// consoleHandler renders a one-line header followed by an indented field
// list. Info and above show a curated subset of fields; debug shows all.
type consoleHandler struct {
	mu        *sync.Mutex
	out       io.Writer
	level     *slog.LevelVar
	preset    []field
	prefix    string
	addSource bool
}

// field is one flattened attribute; group names are joined into the key.
type field struct {
	key   string
	value slog.Value
}

func newConsoleHandler(w io.Writer, lvl *slog.LevelVar, addSource bool) slog.Handler {
	return &consoleHandler{mu: new(sync.Mutex), out: w, level: lvl, addSource: addSource}
}

func (h *consoleHandler) Enabled(_ context.Context, level slog.Level) bool {
	return level >= h.level.Level()
}

func (h *consoleHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	next := *h
	next.preset = appendFields(append([]field(nil), h.preset...), h.prefix, attrs...)
	return &next
}

func (h *consoleHandler) WithGroup(name string) slog.Handler {
	if name == "" {
		return h
	}
	next := *h
	next.prefix = joinKey(h.prefix, name)
	return &next
}

func (h *consoleHandler) Handle(_ context.Context, record slog.Record) error {
	if !h.Enabled(context.Background(), record.Level) {
		return nil
	}

	fields := append(make([]field, 0, len(h.preset)+record.NumAttrs()), h.preset...)
	record.Attrs(func(attr slog.Attr) bool {
		fields = appendFields(fields, h.prefix, attr)
		return true
	})
	fields = lastWins(fields)

	var (
		component string
		subj      subject
		shown     = make([]field, 0, len(fields))
	)
	for _, f := range fields {
		switch f.key {
		case FieldComponent:
			component = attrString(f.value)
			continue
		case FieldElementID:
			subj.element = attrString(f.value)
		case FieldLocationID:
			subj.location = attrString(f.value)
		case FieldModuleID:
			subj.module = attrString(f.value)
		}
		shown = append(shown, f)
	}

	ts := record.Time
	if ts.IsZero() {
		ts = time.Now()
	}
	var src *slog.Source
	if h.addSource {
		src = record.Source()
	}

	var buf bytes.Buffer
	buf.Grow(256 + 32*len(shown))
	writeHeader(&buf, header{
		ts:        ts,
		level:     record.Level,
		component: component,
		subject:   subj.String(),
		message:   strings.TrimSpace(record.Message),
		source:    src,
	})
	if record.Level < slog.LevelInfo {
		writeAllFields(&buf, shown)
	} else {
		writeCuratedFields(&buf, shown)
	}

	h.mu.Lock()
	defer h.mu.Unlock()
	_, err := h.out.Write(buf.Bytes())
	return err
}

type header struct {
	ts        time.Time
	level     slog.Level
	component string
	subject   string
	message   string
	source    *slog.Source
}

// writeHeader emits "<ts> LEVEL [component] Subject – message [file:line]".
func writeHeader(buf *bytes.Buffer, h header) {
	buf.WriteString(formatTimestamp(h.ts))
	buf.WriteByte(' ')
	buf.WriteString(levelLabel(h.level))
	if h.component != "" {
		buf.WriteString(" [" + h.component + "]")
	}
	if h.subject != "" {
		buf.WriteString(" " + h.subject)
	}
	message := h.message
	if message == "" {
		message = "(no message)"
	}
	buf.WriteString(" – " + message)
	if h.source != nil && h.source.File != "" {
		buf.WriteString(" [" + filepath.Base(h.source.File) + ":" + strconv.Itoa(h.source.Line) + "]")
	}
	buf.WriteByte('\n')
}

func writeCuratedFields(buf *bytes.Buffer, fields []field) {
	selected, hidden := selectInfoFields(fields, infoAttrLimit)
	for _, f := range selected {
		buf.WriteString("    - " + f.label + ": " + f.value + "\n")
	}
	switch {
	case hidden == 1:
		buf.WriteString("    + 1 more field hidden\n")
	case hidden > 1:
		buf.WriteString("    + " + strconv.Itoa(hidden) + " more fields hidden\n")
	}
}

func writeAllFields(buf *bytes.Buffer, fields []field) {
	for _, f := range fields {
		buf.WriteString("    " + f.key + ": " + formatValue(f.value) + "\n")
	}
}

// subject names the most specific entity a record is about.
type subject struct {
	module   string
	location string
	element  string
}

func (s subject) String() string {
	switch {
	case s.element != "":
		return "Element " + s.element
	case s.location != "":
		return "Location " + s.location
	case s.module != "":
		return "Module " + s.module
	default:
		return ""
	}
}

// lastWins drops empty keys and keeps the first position of each key with
// the value of its last occurrence.
func lastWins(fields []field) []field {
	index := make(map[string]int, len(fields))
	out := fields[:0:0]
	for _, f := range fields {
		if f.key == "" {
			continue
		}
		if i, ok := index[f.key]; ok {
			out[i].value = f.value
			continue
		}
		index[f.key] = len(out)
		out = append(out, f)
	}
	return out
}

func appendFields(dst []field, prefix string, attrs ...slog.Attr) []field {
	for _, attr := range attrs {
		if attr.Equal(slog.Attr{}) {
			continue
		}
		value := attr.Value.Resolve()
		if value.Kind() == slog.KindGroup {
			dst = appendFields(dst, joinKey(prefix, attr.Key), value.Group()...)
			continue
		}
		dst = append(dst, field{key: joinKey(prefix, attr.Key), value: value})
	}
	return dst
}

func joinKey(prefix, key string) string {
	switch {
	case prefix == "":
		return key
	case key == "":
		return prefix
	default:
		return prefix + "." + key
	}
}

func levelLabel(level slog.Level) string {
	switch {
	case level >= slog.LevelError:
		return "ERROR"
	case level >= slog.LevelWarn:
		return "WARN"
	case level >= slog.LevelInfo:
		return "INFO"
	default:
		return "DEBUG"
	}
}
