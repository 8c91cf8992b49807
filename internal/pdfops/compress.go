// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfops

import (
	"context"
	"os"

	"github.com/pdiddy/docconv/pkg/types"
)

// Compressor recompresses a PDF with a fixed parameter profile.
type Compressor interface {
	Compress(ctx context.Context, input, output string, profile types.CompressionProfile) error
}

// Compress runs c over input with quality's profile, writing to output, and
// returns whichever of output and input is smaller. The result is never
// larger than the original.
func Compress(ctx context.Context, c Compressor, input, output string, quality types.Quality) (string, error) {
	profile, ok := quality.Profile()
	if !ok {
		return "", types.Errorf(types.ErrInvalidQuality, "quality must be one of low, medium, high")
	}
	if err := c.Compress(ctx, input, output, profile); err != nil {
		return "", err
	}

	in, err := os.Stat(input)
	if err != nil {
		return "", types.WrapError(types.ErrWorkspaceIO, err, "reading input size")
	}
	out, err := os.Stat(output)
	if err != nil {
		return "", types.WrapError(types.ErrOutputNotProduced, err, "compressed output missing")
	}
	if out.Size() >= in.Size() {
		return input, nil
	}
	return output, nil
}
