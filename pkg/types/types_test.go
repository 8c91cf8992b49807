// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import (
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseFormat(t *testing.T) {
	tests := []struct {
		in   string
		want Format
	}{
		{"pdf", FormatPDF},
		{".DOCX", FormatDOCX},
		{"  Png ", FormatPNG},
		{"", Format("")},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, ParseFormat(tt.in))
		})
	}
}

func TestFormatOf(t *testing.T) {
	assert.Equal(t, FormatXLSX, FormatOf("report.final.XLSX"))
	assert.Equal(t, Format(""), FormatOf("README"))
}

func TestFormatFamily(t *testing.T) {
	assert.Equal(t, FamilyWord, FormatDOC.Family())
	assert.Equal(t, FamilySpreadsheet, FormatXLSX.Family())
	assert.Equal(t, FamilyPresentation, FormatPPT.Family())
	assert.Equal(t, FamilyImage, FormatJPEG.Family())
	assert.Equal(t, FamilyPDF, FormatPDF.Family())
	assert.False(t, Format("odt").Known())
	assert.True(t, FormatPPTX.IsOffice())
	assert.False(t, FormatPDF.IsOffice())
	assert.Equal(t, FormatJPG, FormatJPEG.Canonical())
}

func TestUploadBaseName(t *testing.T) {
	tests := []struct {
		name string
		file string
		want string
	}{
		{"plain", "report.docx", "report"},
		{"nested path", `C:\Users\me\slides.pptx`, "slides"},
		{"multiple dots", "a.b.c.pdf", "a.b.c"},
		{"dotfile", ".pdf", ".pdf"},
		{"empty", "", "document"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, Upload{Filename: tt.file}.BaseName())
		})
	}
}

func TestParseQuality(t *testing.T) {
	q, err := ParseQuality(" HIGH ")
	require.NoError(t, err)
	assert.Equal(t, QualityHigh, q)

	for _, bad := range []string{"", "ultra", "med"} {
		_, err := ParseQuality(bad)
		require.Error(t, err, bad)
		assert.Equal(t, ErrInvalidQuality, KindOf(err))
	}
}

func TestQualityProfileMonotonic(t *testing.T) {
	low, ok := QualityLow.Profile()
	require.True(t, ok)
	med, ok := QualityMedium.Profile()
	require.True(t, ok)
	high, ok := QualityHigh.Profile()
	require.True(t, ok)

	assert.Less(t, low.ImageDPI, med.ImageDPI)
	assert.Less(t, med.ImageDPI, high.ImageDPI)
	assert.Less(t, low.JPEGQuality, med.JPEGQuality)
	assert.Less(t, med.JPEGQuality, high.JPEGQuality)

	_, ok = Quality("").Profile()
	assert.False(t, ok)
}

func TestErrorKinds(t *testing.T) {
	cause := errors.New("exit status 1: /tmp/docconv-123/in.docx")
	err := fmt.Errorf("running soffice: %w", WrapError(ErrConversionToolFailure, cause, "soffice exited 1"))

	assert.Equal(t, ErrConversionToolFailure, KindOf(err))
	assert.ErrorIs(t, err, cause)
	assert.Equal(t, "conversion failed", PublicDetail(err))

	rangeErr := Errorf(ErrInvalidPageRange, "page %d is out of range", 9)
	assert.Equal(t, "page 9 is out of range", PublicDetail(rangeErr))
	assert.True(t, ErrInvalidPageRange.IsValidation())
	assert.False(t, ErrConversionTimeout.IsValidation())

	assert.Equal(t, ErrConversionToolFailure, KindOf(errors.New("plain")))
	assert.Equal(t, ErrorKind(""), KindOf(nil))
}
