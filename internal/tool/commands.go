// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"path/filepath"
	"strconv"
	"strings"

	"github.com/pdiddy/docconv/pkg/types"
)

// pdfImportFilters selects the LibreOffice import filter that opens a PDF in
// the application owning the target format.
var pdfImportFilters = map[types.Family]string{
	types.FamilyWord:         "writer_pdf_import",
	types.FamilySpreadsheet:  "calc_pdf_import",
	types.FamilyPresentation: "impress_pdf_import",
}

// PDFImportFilter returns the import filter for converting a PDF to target,
// or "" when target is not an office format.
func PDFImportFilter(target types.Format) string {
	return pdfImportFilters[target.Family()]
}

// stem returns the filename of path without directory or extension.
func stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

func fileURL(path string) string {
	p := filepath.ToSlash(path)
	if !strings.HasPrefix(p, "/") {
		p = "/" + p
	}
	return "file://" + p
}

// SofficeArgs builds the headless LibreOffice argv that converts input into
// outDir. profileDir holds a private user profile so concurrent invocations
// never contend for the same profile lock.
func SofficeArgs(input, outDir, profileDir string, target types.Format, infilter string) []string {
	args := []string{
		"-env:UserInstallation=" + fileURL(profileDir),
		"--headless",
		"--invisible",
		"--nologo",
		"--nodefault",
		"--norestore",
		"--nolockcheck",
	}
	if infilter != "" {
		args = append(args, "--infilter="+infilter)
	}
	return append(args,
		"--convert-to", string(target.Canonical()),
		"--outdir", outDir,
		input,
	)
}

// SofficeOutput is where LibreOffice writes the result: the input's base
// name with the target extension, inside outDir.
func SofficeOutput(input, outDir string, target types.Format) string {
	return filepath.Join(outDir, stem(input)+"."+string(target.Canonical()))
}

// MagickArgs builds the ImageMagick argv that rasterises every page of a PDF
// into outDir as <stem>-0.<ext>, <stem>-1.<ext>, ... Transparency is
// flattened onto white.
func MagickArgs(input, outDir string, target types.Format, dpi int) []string {
	return []string{
		"-density", strconv.Itoa(dpi),
		input,
		"-background", "white",
		"-alpha", "remove",
		"-alpha", "off",
		"-quality", "95",
		"+adjoin",
		MagickPattern(input, outDir, target),
	}
}

// MagickPattern is the numbered output template passed to ImageMagick.
func MagickPattern(input, outDir string, target types.Format) string {
	return filepath.Join(outDir, stem(input)+"-%d."+string(target.Canonical()))
}

// MagickPage returns the path ImageMagick writes zero-based page i to.
func MagickPage(input, outDir string, target types.Format, i int) string {
	return filepath.Join(outDir, stem(input)+"-"+strconv.Itoa(i)+"."+string(target.Canonical()))
}

// GhostscriptArgs builds the pdfwrite argv that recompresses input into
// output using profile.
func GhostscriptArgs(input, output string, profile types.CompressionProfile) []string {
	dpi := strconv.Itoa(profile.ImageDPI)
	return []string{
		"-sDEVICE=pdfwrite",
		"-dCompatibilityLevel=1.4",
		"-dPDFSETTINGS=" + profile.PDFSettings,
		"-dNOPAUSE",
		"-dQUIET",
		"-dBATCH",
		"-dSAFER",
		"-dDetectDuplicateImages=true",
		"-dCompressFonts=true",
		"-dDownsampleColorImages=true",
		"-dColorImageResolution=" + dpi,
		"-dDownsampleGrayImages=true",
		"-dGrayImageResolution=" + dpi,
		"-dDownsampleMonoImages=true",
		"-dMonoImageResolution=" + dpi,
		"-dJPEGQ=" + strconv.Itoa(profile.JPEGQuality),
		"-sOutputFile=" + output,
		input,
	}
}
