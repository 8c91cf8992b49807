// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package convert

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdiddy/docconv/pkg/types"
)

// BatchResult holds the outcome of a batch conversion run.
type BatchResult struct {
	Converted int
	Failed    int
}

// Total returns the number of files processed.
func (r BatchResult) Total() int {
	return r.Converted + r.Failed
}

// HasFailures reports whether any file failed conversion.
func (r BatchResult) HasFailures() bool {
	return r.Failed > 0
}

// LoadUpload reads a local file into an Upload named after its base name.
func LoadUpload(path string) (types.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return types.Upload{}, fmt.Errorf("reading %s: %w", path, err)
	}
	return types.Upload{Filename: filepath.Base(path), Data: data}, nil
}

// WriteOutcome writes o into dir under its suggested filename and returns
// the path written.
func WriteOutcome(dir string, o *types.Outcome) (string, error) {
	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("creating output directory: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(o.Filename))
	if err := os.WriteFile(path, o.Payload, 0o644); err != nil {
		return "", fmt.Errorf("writing %s: %w", path, err)
	}
	return path, nil
}

// ConvertFile converts one local file through svc and writes the result to
// outDir, printing a status line to w.
func ConvertFile(ctx context.Context, svc Service, path string, target types.Format, outDir string, w io.Writer) bool {
	name := filepath.Base(path)

	up, err := LoadUpload(path)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return false
	}

	out, err := svc.Convert(ctx, types.ConversionRequest{Source: up, Target: target})
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%s: %s)\n", name, types.KindOf(err), types.PublicDetail(err))
		return false
	}

	written, err := WriteOutcome(outDir, out)
	if err != nil {
		fmt.Fprintf(w, "failed:  %s (%v)\n", name, err)
		return false
	}

	fmt.Fprintf(w, "converted: %s -> %s\n", name, written)
	return true
}

// ConvertBatch converts each path in order, printing per-file status to w
// and returning a summary. A failed file does not stop the batch.
func ConvertBatch(ctx context.Context, svc Service, paths []string, target types.Format, outDir string, w io.Writer) BatchResult {
	var result BatchResult
	for _, p := range paths {
		if ctx.Err() != nil {
			fmt.Fprintf(w, "failed:  %s (canceled)\n", filepath.Base(p))
			result.Failed++
			continue
		}
		if ConvertFile(ctx, svc, p, target, outDir, w) {
			result.Converted++
		} else {
			result.Failed++
		}
	}
	fmt.Fprintf(w, "\nBatch summary: %d converted, %d failed (total: %d)\n",
		result.Converted, result.Failed, result.Total())
	return result
}
