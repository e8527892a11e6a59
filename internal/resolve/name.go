package resolve

import (
	"net/url"
	"path"
	"path/filepath"
	"strings"

	"muzzman/internal/textutil"
)

const fallbackName = "element"

// DeriveName picks an element name for raw: the last path segment of a URL
// ("https://example.com/file.zip" gives "file.zip"), the host when the path
// is empty, or the base name of a plain filesystem path. Characters unsafe
// in file names are dropped.
func DeriveName(raw string) string {
	raw = strings.TrimSpace(raw)
	parsed, err := url.Parse(raw)
	if err != nil || parsed.Scheme == "" {
		return orFallback(segment(filepath.ToSlash(raw)))
	}
	p := parsed.Path
	if p == "" {
		p = parsed.Opaque
	}
	if seg := segment(p); seg != "" {
		return seg
	}
	return orFallback(parsed.Hostname())
}

func segment(p string) string {
	seg := path.Base(strings.TrimRight(p, "/"))
	if seg == "/" {
		return ""
	}
	return textutil.SanitizeFileName(seg)
}

func orFallback(name string) string {
	if name == "" {
		return fallbackName
	}
	return name
}
