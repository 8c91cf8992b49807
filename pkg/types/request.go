// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "strings"

// Strategy identifies the conversion path chosen for a (source, target) pair.
type Strategy string

const (
	StrategyNone         Strategy = ""
	StrategyOfficeRender Strategy = "office-suite-headless-render"
	StrategyPDFToOffice  Strategy = "pdf-to-office-extract"
	StrategyPDFToImage   Strategy = "pdf-to-image-render"
	StrategyImageToPDF   Strategy = "image-to-pdf"
	StrategyImageConvert Strategy = "image-convert"
	StrategyPDFCompress  Strategy = "pdf-compress"
)

// Operation names a request kind for logging and history.
type Operation string

const (
	OpConvert  Operation = "convert"
	OpMerge    Operation = "merge"
	OpSplit    Operation = "split"
	OpCompress Operation = "compress"
)

// Upload is one uploaded file: its client-supplied name and raw bytes.
type Upload struct {
	Filename string `json:"filename" yaml:"filename"`
	Data     []byte `json:"-" yaml:"-"`
}

// Format returns the format implied by the upload's filename.
func (u Upload) Format() Format { return FormatOf(u.Filename) }

// BaseName returns the filename without directory or extension, or
// "document" when nothing usable remains.
func (u Upload) BaseName() string {
	name := u.Filename
	if i := strings.LastIndexAny(name, `/\`); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i > 0 {
		name = name[:i]
	}
	name = strings.TrimSpace(name)
	if name == "" || name == "." || name == ".." {
		return "document"
	}
	return name
}

// ConversionRequest asks for Source to be converted to Target.
type ConversionRequest struct {
	Source Upload `json:"source" yaml:"source"`
	Target Format `json:"target" yaml:"target"`
}

// MergeRequest concatenates Inputs in order into one PDF.
type MergeRequest struct {
	Inputs []Upload `json:"inputs" yaml:"inputs"`
}

// SplitRequest extracts page ranges of Input. Ranges is the raw expression,
// e.g. "1-3,5".
type SplitRequest struct {
	Input  Upload `json:"input" yaml:"input"`
	Ranges string `json:"ranges" yaml:"ranges"`
}

// CompressRequest recompresses Input using the profile for Quality.
type CompressRequest struct {
	Input   Upload  `json:"input" yaml:"input"`
	Quality Quality `json:"quality" yaml:"quality"`
}

// Outcome is a successful engine result.
type Outcome struct {
	Payload  []byte `json:"-" yaml:"-"`
	MIMEType string `json:"mime_type" yaml:"mime_type"`
	Filename string `json:"filename" yaml:"filename"`
}
