// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"path/filepath"
	"strings"
)

// Format is a file format identified by its lowercase extension without the
// leading dot (e.g. "docx").
type Format string

const (
	FormatPDF  Format = "pdf"
	FormatDOC  Format = "doc"
	FormatDOCX Format = "docx"
	FormatXLS  Format = "xls"
	FormatXLSX Format = "xlsx"
	FormatPPT  Format = "ppt"
	FormatPPTX Format = "pptx"
	FormatJPG  Format = "jpg"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// AllFormats lists the closed format set in a stable order.
var AllFormats = []Format{
	FormatPDF,
	FormatDOC, FormatDOCX,
	FormatXLS, FormatXLSX,
	FormatPPT, FormatPPTX,
	FormatJPG, FormatJPEG, FormatPNG,
}

// Family groups formats that share a conversion strategy.
type Family string

const (
	FamilyNone         Family = ""
	FamilyPDF          Family = "pdf"
	FamilyWord         Family = "word"
	FamilySpreadsheet  Family = "spreadsheet"
	FamilyPresentation Family = "presentation"
	FamilyImage        Family = "image"
)

// ParseFormat normalises s (".DOCX", " docx ") into a Format. The result is
// not checked against the closed set; use Known for that.
func ParseFormat(s string) Format {
	return Format(strings.ToLower(strings.TrimPrefix(strings.TrimSpace(s), ".")))
}

// FormatOf returns the format implied by a filename's extension, or "" when
// the name has no extension.
func FormatOf(filename string) Format {
	return ParseFormat(filepath.Ext(filename))
}

// Known reports whether f belongs to the closed format set.
func (f Format) Known() bool {
	return f.Family() != FamilyNone
}

// Family returns the family f belongs to, or FamilyNone for unknown formats.
func (f Format) Family() Family {
	switch f {
	case FormatPDF:
		return FamilyPDF
	case FormatDOC, FormatDOCX:
		return FamilyWord
	case FormatXLS, FormatXLSX:
		return FamilySpreadsheet
	case FormatPPT, FormatPPTX:
		return FamilyPresentation
	case FormatJPG, FormatJPEG, FormatPNG:
		return FamilyImage
	}
	return FamilyNone
}

// IsOffice reports whether f is a word-processing, spreadsheet, or
// presentation format.
func (f Format) IsOffice() bool {
	switch f.Family() {
	case FamilyWord, FamilySpreadsheet, FamilyPresentation:
		return true
	}
	return false
}

// IsImage reports whether f is a raster image format.
func (f Format) IsImage() bool { return f.Family() == FamilyImage }

// Canonical folds spelling variants ("jpeg" → "jpg") so two formats can be
// compared for identity.
func (f Format) Canonical() Format {
	if f == FormatJPEG {
		return FormatJPG
	}
	return f
}

// MIMEType returns the media type for f, defaulting to
// application/octet-stream.
func (f Format) MIMEType() string {
	switch f {
	case FormatPDF:
		return "application/pdf"
	case FormatDOC:
		return "application/msword"
	case FormatDOCX:
		return "application/vnd.openxmlformats-officedocument.wordprocessingml.document"
	case FormatXLS:
		return "application/vnd.ms-excel"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	case FormatPPT:
		return "application/vnd.ms-powerpoint"
	case FormatPPTX:
		return "application/vnd.openxmlformats-officedocument.presentationml.presentation"
	case FormatJPG, FormatJPEG:
		return "image/jpeg"
	case FormatPNG:
		return "image/png"
	}
	return "application/octet-stream"
}

func (f Format) String() string { return string(f) }
