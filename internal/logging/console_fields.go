package logging

import (
	"log/slog"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

type infoField struct {
	label string
	value string
}

const infoAttrLimit = 8

// Keys shown first, in this order, on info-level console lines.
var infoHighlightKeys = []string{
	FieldEventType,
	"error",
	FieldErrorHint,
	FieldImpact,
	"url",
	"name",
	"path",
	FieldModuleKind,
	"progress",
	"status",
	"size_bytes",
	"elapsed",
}

var debugOnlyKeys = map[string]struct{}{
	FieldElementID:  {},
	FieldLocationID: {},
	FieldModuleID:   {},
	"pid":           {},
	"socket":        {},
	"method":        {},
}

var titleCaser = cases.Title(language.English)

// selectInfoFields returns formatted info-level fields and a count of hidden
// entries. limit=0 means no limit.
func selectInfoFields(attrs []field, limit int) ([]infoField, int) {
	if len(attrs) == 0 {
		return nil, 0
	}
	used := make([]bool, len(attrs))
	result := make([]infoField, 0, infoAttrLimit)
	hidden := 0

	add := func(idx int) {
		used[idx] = true
		if limit > 0 && len(result) >= limit {
			hidden++
			return
		}
		result = append(result, infoField{
			label: displayLabel(attrs[idx].key),
			value: formatValueForKey(attrs[idx].key, attrs[idx].value),
		})
	}

	for _, key := range infoHighlightKeys {
		for idx, attr := range attrs {
			if !used[idx] && attr.key == key {
				add(idx)
			}
		}
	}
	for idx, attr := range attrs {
		if used[idx] {
			continue
		}
		if _, skip := debugOnlyKeys[attr.key]; skip || attr.key == "" {
			continue
		}
		add(idx)
	}
	return result, hidden
}

func formatValueForKey(key string, v slog.Value) string {
	v = v.Resolve()
	switch {
	case isByteSizeKey(key) && v.Kind() == slog.KindInt64 && v.Int64() >= 0:
		return humanize.IBytes(uint64(v.Int64()))
	case isByteSizeKey(key) && v.Kind() == slog.KindUint64:
		return humanize.IBytes(v.Uint64())
	case isDurationKey(key) && v.Kind() == slog.KindDuration:
		return v.Duration().Round(time.Millisecond).String()
	case key == "progress" && v.Kind() == slog.KindFloat64:
		return humanize.FormatFloat("#.#", v.Float64()*100) + "%"
	case v.Kind() == slog.KindBool:
		if v.Bool() {
			return "yes"
		}
		return "no"
	}
	value := formatValue(v)
	if key == "error" {
		value = truncateErrorValue(value)
	}
	return value
}

func isByteSizeKey(key string) bool {
	return strings.HasSuffix(key, "_bytes") || key == "size"
}

func isDurationKey(key string) bool {
	return strings.HasSuffix(key, "_duration") || key == "elapsed" || key == "duration"
}

func truncateErrorValue(value string) string {
	value = strings.TrimSpace(value)
	const maxLen = 200
	if len(value) > maxLen {
		value = value[:maxLen] + "…"
	}
	return value
}

func displayLabel(key string) string {
	switch key {
	case FieldEventType:
		return "Event"
	case FieldErrorHint:
		return "Hint"
	case FieldModuleKind:
		return "Kind"
	case "url":
		return "URL"
	case "size_bytes":
		return "Size"
	}
	parts := strings.FieldsFunc(key, func(r rune) bool {
		return r == '_' || r == '-' || r == '.'
	})
	return titleCaser.String(strings.Join(parts, " "))
}
