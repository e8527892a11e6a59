package modules

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	"muzzman/internal/failure"
	"muzzman/internal/fileutil"
	"muzzman/internal/textutil"
	"muzzman/internal/value"
)

// FileKind is the kind of the builtin local copy plugin.
const FileKind = "file"

// FilePlugin copies a local file, named by a file:// URL or an absolute
// path, into the element's location.
type FilePlugin struct{}

func NewFilePlugin() *FilePlugin { return &FilePlugin{} }

func (*FilePlugin) Kind() string { return FileKind }

func (*FilePlugin) DefaultName() string { return "File" }

func (*FilePlugin) DefaultDesc() string { return "Copies local files into a location" }

func (*FilePlugin) Accepts(data value.Data) bool {
	raw, ok := data.GetString("url")
	if !ok {
		return false
	}
	_, err := sourcePath(raw)
	return err == nil
}

// Normalize rewrites the store to {url, path} with the canonical file URL.
func (*FilePlugin) Normalize(data value.Data) value.Data {
	raw, _ := data.GetString("url")
	path, err := sourcePath(raw)
	if err != nil {
		return data
	}
	out := value.NewData()
	out.Set("url", value.String((&url.URL{Scheme: "file", Path: path}).String()))
	out.Set("path", value.String(path))
	return out
}

// Init checks the source exists and records its size in the module data.
func (*FilePlugin) Init(_ context.Context, job Job) error {
	src, err := jobSource(job)
	if err != nil {
		return err
	}
	info, err := os.Stat(src)
	if err != nil {
		return fmt.Errorf("%w: stat source: %w", failure.ErrIO, err)
	}
	if info.IsDir() {
		return failure.Newf(failure.ErrInvalid, "source %s is a directory", src)
	}
	md := job.ModuleData()
	md.Set("size", value.Int(info.Size()))
	md.Set("source", value.String(src))
	job.SetModuleData(md)
	return nil
}

func (*FilePlugin) Run(ctx context.Context, job Job) error {
	src, err := jobSource(job)
	if err != nil {
		return err
	}
	name := textutil.SanitizeFileName(filepath.Base(job.Name()))
	if name == "" {
		name = filepath.Base(src)
	}
	dst := filepath.Join(job.Dir(), name)
	if err := os.MkdirAll(job.Dir(), 0o755); err != nil {
		return fmt.Errorf("%w: create location dir: %w", failure.ErrIO, err)
	}

	job.SetStatus("Copying")
	job.SetProgress(0)
	result, err := fileutil.CopyFileAtomic(ctx, src, dst, job.SetProgress)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: copy: %w", failure.ErrIO, err)
	}

	output := value.NewData()
	output.Set("path", value.String(dst))
	output.Set("size", value.Int(result.Written))
	output.Set("sha256", value.String(result.SHA256))
	job.SetOutput(output)
	job.SetProgress(1)
	return nil
}

func jobSource(job Job) (string, error) {
	data := job.ElementData()
	if p, ok := data.GetString("path"); ok && filepath.IsAbs(p) {
		return p, nil
	}
	raw, _ := data.GetString("url")
	return sourcePath(raw)
}

func sourcePath(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", failure.Newf(failure.ErrInvalid, "missing url")
	}
	if filepath.IsAbs(raw) {
		return filepath.Clean(raw), nil
	}
	u, err := url.Parse(raw)
	if err != nil || u.Scheme != "file" || u.Path == "" {
		return "", failure.Newf(failure.ErrInvalid, "not a file url: %q", raw)
	}
	if u.Host != "" && u.Host != "localhost" {
		return "", failure.Newf(failure.ErrInvalid, "remote file url: %q", raw)
	}
	return filepath.Clean(u.Path), nil
}
