// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Quality is a compression aggressiveness tier.
type Quality string

const (
	QualityLow    Quality = "low"
	QualityMedium Quality = "medium"
	QualityHigh   Quality = "high"
)

// ParseQuality normalises s and rejects anything outside the three tiers.
// There is no default: an empty string is an error.
func ParseQuality(s string) (Quality, error) {
	q := Quality(strings.ToLower(strings.TrimSpace(s)))
	switch q {
	case QualityLow, QualityMedium, QualityHigh:
		return q, nil
	}
	return "", Errorf(ErrInvalidQuality, "quality %q is not one of low, medium, high", s)
}

// CompressionProfile is the parameter set handed to the compression tool.
type CompressionProfile struct {
	// PDFSettings is the Ghostscript distiller preset (e.g. "/screen").
	PDFSettings string `json:"pdf_settings" yaml:"pdf_settings"`

	// ImageDPI is the resolution colour and grey images are downsampled to.
	ImageDPI int `json:"image_dpi" yaml:"image_dpi"`

	// JPEGQuality is the DCT encoder quality, 0-100.
	JPEGQuality int `json:"jpeg_quality" yaml:"jpeg_quality"`
}

// Profile returns the fixed profile for q. Low is the most aggressive.
func (q Quality) Profile() (CompressionProfile, bool) {
	switch q {
	case QualityLow:
		return CompressionProfile{PDFSettings: "/screen", ImageDPI: 72, JPEGQuality: 40}, true
	case QualityMedium:
		return CompressionProfile{PDFSettings: "/ebook", ImageDPI: 150, JPEGQuality: 65}, true
	case QualityHigh:
		return CompressionProfile{PDFSettings: "/printer", ImageDPI: 300, JPEGQuality: 85}, true
	}
	return CompressionProfile{}, false
}
