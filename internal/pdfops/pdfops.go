// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package pdfops implements page-level PDF operations (merge, split,
// compress, image import) on files inside a request workspace.
package pdfops

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu"
	"github.com/pdfcpu/pdfcpu/pkg/pdfcpu/model"

	"github.com/pdiddy/docconv/internal/imaging"
	"github.com/pdiddy/docconv/pkg/types"
)

func newConfig() *model.Configuration {
	conf := model.NewDefaultConfiguration()
	conf.ValidationMode = model.ValidationRelaxed
	return conf
}

// PageCount validates the PDF at path and returns its page count. Anything
// pdfcpu cannot parse, or a document without pages, is InvalidPdfInput.
func PageCount(path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, types.WrapError(types.ErrWorkspaceIO, err, "opening pdf")
	}
	defer f.Close()

	conf := newConfig()
	if err := api.Validate(f, conf); err != nil {
		return 0, types.WrapError(types.ErrInvalidPdfInput, err, "file is not a valid PDF")
	}
	if _, err := f.Seek(0, io.SeekStart); err != nil {
		return 0, types.WrapError(types.ErrWorkspaceIO, err, "rewinding pdf")
	}
	n, err := api.PageCount(f, conf)
	if err != nil {
		return 0, types.WrapError(types.ErrInvalidPdfInput, err, "file is not a valid PDF")
	}
	if n == 0 {
		return 0, types.Errorf(types.ErrInvalidPdfInput, "PDF has no pages")
	}
	return n, nil
}

// Merge appends every page of inputs, in order, into out. Every input is
// validated first so a bad document never yields a partial result.
func Merge(ctx context.Context, inputs []string, out string) error {
	if len(inputs) < 2 {
		return types.Errorf(types.ErrInvalidRequest, "merge needs at least 2 files, got %d", len(inputs))
	}
	for i, in := range inputs {
		if _, err := PageCount(in); err != nil {
			var e *types.Error
			if errors.As(err, &e) && e.Kind == types.ErrInvalidPdfInput {
				e.Detail = fmt.Sprintf("file %d is not a valid PDF", i+1)
			}
			return err
		}
	}
	if err := ctx.Err(); err != nil {
		return types.WrapError(types.ErrCanceled, err, "request canceled")
	}

	readers := make([]io.ReadSeeker, 0, len(inputs))
	for _, in := range inputs {
		f, err := os.Open(in)
		if err != nil {
			return types.WrapError(types.ErrWorkspaceIO, err, "opening pdf")
		}
		defer f.Close()
		readers = append(readers, f)
	}

	return writeFile(out, func(w io.Writer) error {
		if err := api.MergeRaw(readers, w, false, newConfig()); err != nil {
			return types.WrapError(types.ErrInvalidPdfInput, err, "PDFs could not be merged")
		}
		return nil
	})
}

// Split writes one PDF per range into outDir and returns their paths in
// range order. Ranges must already be checked against the page count.
func Split(ctx context.Context, input string, ranges []Range, outDir string) ([]string, error) {
	data, err := os.ReadFile(input)
	if err != nil {
		return nil, types.WrapError(types.ErrWorkspaceIO, err, "reading pdf")
	}

	outputs := make([]string, 0, len(ranges))
	for i, r := range ranges {
		if err := ctx.Err(); err != nil {
			return nil, types.WrapError(types.ErrCanceled, err, "request canceled")
		}
		out := filepath.Join(outDir, fmt.Sprintf("part_%d.pdf", i+1))
		err := writeFile(out, func(w io.Writer) error {
			if err := api.Trim(bytes.NewReader(data), w, []string{r.String()}, newConfig()); err != nil {
				return types.WrapError(types.ErrInvalidPdfInput, err, fmt.Sprintf("extracting pages %s", r))
			}
			return nil
		})
		if err != nil {
			return nil, err
		}
		outputs = append(outputs, out)
	}
	return outputs, nil
}

// ImagesToPDF places each image on its own page of a new PDF at out.
// Every image header is checked against maxPixels before import.
func ImagesToPDF(images []string, out string, maxPixels int64) error {
	for _, img := range images {
		if err := imaging.CheckFile(img, maxPixels); err != nil {
			return err
		}
	}
	if err := api.ImportImagesFile(images, out, pdfcpu.DefaultImportConfig(), newConfig()); err != nil {
		return types.WrapError(types.ErrConversionToolFailure, err, "image could not be placed in a PDF")
	}
	return nil
}

// writeFile creates path and streams fn's output into it. A failed write
// leaves no file behind.
func writeFile(path string, fn func(io.Writer) error) error {
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return types.WrapError(types.ErrWorkspaceIO, err, "creating output")
	}
	bw := bufio.NewWriter(f)
	if err := fn(bw); err != nil {
		f.Close()
		os.Remove(path)
		return err
	}
	if err := bw.Flush(); err != nil {
		f.Close()
		os.Remove(path)
		return types.WrapError(types.ErrWorkspaceIO, err, "writing output")
	}
	if err := f.Close(); err != nil {
		return types.WrapError(types.ErrWorkspaceIO, err, "writing output")
	}
	return nil
}
