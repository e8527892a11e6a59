package fileutil

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
)

const copyChunk = 64 * 1024

// PartSuffix marks a destination that is still being written.
const PartSuffix = ".part"

// CopyResult reports what a copy wrote.
type CopyResult struct {
	Written int64
	SHA256  string
}

// CopyWithProgress streams src to dst in chunks, checking ctx between
// chunks. progress receives the written fraction of total; a total <= 0
// disables progress reports.
func CopyWithProgress(ctx context.Context, dst io.Writer, src io.Reader, total int64, progress func(float64)) (CopyResult, error) {
	buf := make([]byte, copyChunk)
	hasher := sha256.New()
	out := io.MultiWriter(dst, hasher)
	var written int64
	for {
		if err := ctx.Err(); err != nil {
			return CopyResult{Written: written}, err
		}
		n, readErr := src.Read(buf)
		if n > 0 {
			if _, err := out.Write(buf[:n]); err != nil {
				return CopyResult{Written: written}, err
			}
			written += int64(n)
			if total > 0 && progress != nil {
				progress(float64(written) / float64(total))
			}
		}
		if readErr == io.EOF {
			return CopyResult{Written: written, SHA256: hex.EncodeToString(hasher.Sum(nil))}, nil
		}
		if readErr != nil {
			return CopyResult{Written: written}, readErr
		}
	}
}

// CopyFileAtomic copies src to dst through dst+PartSuffix and renames it into
// place once the size matches. The part file is removed on any failure,
// including cancellation.
func CopyFileAtomic(ctx context.Context, src, dst string, progress func(float64)) (CopyResult, error) {
	in, err := os.Open(src)
	if err != nil {
		return CopyResult{}, fmt.Errorf("open source: %w", err)
	}
	defer in.Close()

	info, err := in.Stat()
	if err != nil {
		return CopyResult{}, fmt.Errorf("stat source: %w", err)
	}

	tmp := dst + PartSuffix
	out, err := os.Create(tmp)
	if err != nil {
		return CopyResult{}, fmt.Errorf("create destination: %w", err)
	}

	result, copyErr := CopyWithProgress(ctx, out, in, info.Size(), progress)
	closeErr := out.Close()
	if copyErr == nil {
		copyErr = closeErr
	}
	if copyErr == nil && result.Written != info.Size() {
		copyErr = fmt.Errorf("copy size mismatch: source %d bytes, copied %d bytes", info.Size(), result.Written)
	}
	if copyErr != nil {
		_ = os.Remove(tmp)
		return result, copyErr
	}
	if err := os.Rename(tmp, dst); err != nil {
		_ = os.Remove(tmp)
		return result, fmt.Errorf("finalize destination: %w", err)
	}
	return result, nil
}

// HashFile returns the hex SHA256 of the file at path.
func HashFile(path string) (string, error) {
	f, err := os.Open(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := sha256.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}
