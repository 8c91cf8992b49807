// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package packager turns the files an operation produced into the payload
// returned to the caller.
package packager

import (
	"archive/zip"
	"bytes"
	"fmt"
	"os"
	"strings"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	// MergedName is the suggested filename of a merge result.
	MergedName = "merged.pdf"

	// SplitArchiveName is the suggested filename when a split yields
	// several documents.
	SplitArchiveName = "split_pdfs.zip"

	zipMIME = "application/zip"
)

// Package reads files and returns a single payload when there is one file
// and a zip archive otherwise. Archive entries are named page_1.<ext>,
// page_2.<ext>, ... in the order given.
func Package(files []string, format types.Format, singleName, archiveName string) (*types.Outcome, error) {
	switch len(files) {
	case 0:
		return nil, types.Errorf(types.ErrOutputNotProduced, "operation produced no output")
	case 1:
		data, err := os.ReadFile(files[0])
		if err != nil {
			return nil, types.WrapError(types.ErrWorkspaceIO, err, "reading output")
		}
		return &types.Outcome{Payload: data, MIMEType: format.MIMEType(), Filename: singleName}, nil
	}

	data, err := Archive(files, format)
	if err != nil {
		return nil, err
	}
	return &types.Outcome{Payload: data, MIMEType: zipMIME, Filename: archiveName}, nil
}

// Archive zips files under stable page_N entry names.
func Archive(files []string, format types.Format) ([]byte, error) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for i, f := range files {
		data, err := os.ReadFile(f)
		if err != nil {
			return nil, types.WrapError(types.ErrWorkspaceIO, err, "reading output")
		}
		w, err := zw.Create(EntryName(i+1, format))
		if err != nil {
			return nil, types.WrapError(types.ErrWorkspaceIO, err, "writing archive")
		}
		if _, err := w.Write(data); err != nil {
			return nil, types.WrapError(types.ErrWorkspaceIO, err, "writing archive")
		}
	}
	if err := zw.Close(); err != nil {
		return nil, types.WrapError(types.ErrWorkspaceIO, err, "writing archive")
	}
	return buf.Bytes(), nil
}

// EntryName is the archive name of the n-th (1-based) output.
func EntryName(n int, format types.Format) string {
	return fmt.Sprintf("page_%d.%s", n, format)
}

// ConvertedName is the upload's base name with the target extension.
func ConvertedName(u types.Upload, target types.Format) string {
	return u.BaseName() + "." + string(target)
}

// SplitName names the single document produced by a one-range split.
func SplitName(u types.Upload, pages string) string {
	return u.BaseName() + "_" + pages + ".pdf"
}

// PagesArchiveName names the archive of a multi-page render.
func PagesArchiveName(u types.Upload) string {
	return u.BaseName() + "_pages.zip"
}

// CompressedName prefixes the original filename, directories stripped.
func CompressedName(u types.Upload) string {
	name := u.Filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if strings.TrimSpace(name) == "" {
		name = u.BaseName() + ".pdf"
	}
	return "compressed_" + name
}
