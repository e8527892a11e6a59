package main

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"muzzman/internal/value"
)

var titleCaser = cases.Title(language.English)

// writeJSON encodes v as indented JSON to the command's stdout.
func writeJSON(cmd *cobra.Command, v any) error {
	enc := json.NewEncoder(cmd.OutOrStdout())
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// label turns a snake_case key into a title-cased display label.
func label(key string) string {
	return titleCaser.String(strings.ReplaceAll(key, "_", " "))
}

// formatData renders a store as "Key: value" lines in key order, or "-" when
// empty.
func formatData(data value.Data) string {
	keys := data.Keys()
	if len(keys) == 0 {
		return "-"
	}
	lines := make([]string, 0, len(keys))
	for _, key := range keys {
		v, _ := data.Get(key)
		lines = append(lines, fmt.Sprintf("%s: %s", key, v.Type.String()))
	}
	return strings.Join(lines, "\n")
}

func formatProgress(p float64) string {
	return strconv.FormatFloat(p*100, 'f', 1, 64) + "%"
}

func joinOrDash(items []string) string {
	if len(items) == 0 {
		return "-"
	}
	return strings.Join(items, "\n")
}

func orDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
