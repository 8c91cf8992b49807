// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formats

import (
	"github.com/pdiddy/docconv/pkg/types"
)

// DefaultMaxUploadBytes matches the 25 MB limit of the original upload form.
const DefaultMaxUploadBytes int64 = 25 << 20

// DefaultMaxImagePixels keeps a decoded RGBA image well under 256 MB.
const DefaultMaxImagePixels int64 = 50_000_000

// Policy applies the extension whitelist and size limit shared by every
// operation. It is immutable after construction.
type Policy struct {
	allowed   map[types.Format]bool
	maxBytes  int64
	maxPixels int64
}

// NewPolicy builds a Policy from the engine config. An empty whitelist
// admits the whole closed format set; entries outside it are ignored.
func NewPolicy(cfg types.EngineConfig) *Policy {
	p := &Policy{
		allowed:   make(map[types.Format]bool),
		maxBytes:  cfg.MaxUploadBytes,
		maxPixels: cfg.MaxImagePixels,
	}
	if p.maxBytes <= 0 {
		p.maxBytes = DefaultMaxUploadBytes
	}
	if p.maxPixels <= 0 {
		p.maxPixels = DefaultMaxImagePixels
	}
	if len(cfg.AllowedExtensions) == 0 {
		for _, f := range types.AllFormats {
			p.allowed[f] = true
		}
		return p
	}
	for _, ext := range cfg.AllowedExtensions {
		if f := types.ParseFormat(ext); f.Known() {
			p.allowed[f] = true
		}
	}
	return p
}

// MaxBytes returns the per-upload size limit.
func (p *Policy) MaxBytes() int64 { return p.maxBytes }

// MaxPixels returns the width*height limit for image sources.
func (p *Policy) MaxPixels() int64 { return p.maxPixels }

// CheckUpload runs the whitelist check followed by the size check and
// returns the upload's format.
func (p *Policy) CheckUpload(u types.Upload) (types.Format, error) {
	f := u.Format()
	if f == "" {
		return "", types.Errorf(types.ErrUnsupportedExtension, "uploaded file must have an extension")
	}
	if !p.allowed[f] {
		return "", types.Errorf(types.ErrUnsupportedExtension, "file type .%s is not accepted", f)
	}
	if err := p.CheckSize(int64(len(u.Data))); err != nil {
		return "", err
	}
	return f, nil
}

// CheckSize rejects payloads over the limit.
func (p *Policy) CheckSize(n int64) error {
	if n > p.maxBytes {
		return types.Errorf(types.ErrPayloadTooLarge,
			"file is too large, maximum supported size is %d MB", p.maxBytes>>20)
	}
	return nil
}

// CheckTarget rejects target formats outside the closed set. Targets are
// not subject to the source whitelist.
func (p *Policy) CheckTarget(target types.Format) error {
	if !target.Known() {
		return types.Errorf(types.ErrUnsupportedConversion, "target format %q is not supported", string(target))
	}
	return nil
}
