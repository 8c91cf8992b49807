// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package imaging converts between raster formats in-process.
package imaging

import (
	"bufio"
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/jpeg"
	"image/png"
	"io"
	"os"

	"golang.org/x/image/draw"

	"github.com/pdiddy/docconv/pkg/types"
)

// JPEGQuality is the encoder quality used for every JPEG the engine writes.
const JPEGQuality = 95

// DefaultMaxPixels bounds width*height when no cap is configured.
const DefaultMaxPixels int64 = 50_000_000

// CheckDimensions reads only the image header from r and rejects images
// whose pixel count exceeds maxPixels (DefaultMaxPixels when <= 0), so a
// tiny file declaring huge dimensions is refused before any allocation.
func CheckDimensions(r io.Reader, maxPixels int64) (image.Config, error) {
	if maxPixels <= 0 {
		maxPixels = DefaultMaxPixels
	}
	cfg, _, err := image.DecodeConfig(r)
	if err != nil {
		return cfg, types.WrapError(types.ErrConversionToolFailure, err, "image could not be decoded")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 || int64(cfg.Width)*int64(cfg.Height) > maxPixels {
		return cfg, types.Errorf(types.ErrPayloadTooLarge,
			"image is %dx%d pixels, maximum supported is %d pixels", cfg.Width, cfg.Height, maxPixels)
	}
	return cfg, nil
}

// CheckFile applies CheckDimensions to the image at path.
func CheckFile(path string, maxPixels int64) error {
	f, err := os.Open(path)
	if err != nil {
		return types.WrapError(types.ErrWorkspaceIO, err, "opening image")
	}
	defer f.Close()
	_, err = CheckDimensions(bufio.NewReader(f), maxPixels)
	return err
}

// Transcode decodes an image from r and re-encodes it as target into w.
// The header is checked against maxPixels before the pixels are decoded.
// JPEG output has any transparency flattened onto white.
func Transcode(r io.Reader, w io.Writer, target types.Format, maxPixels int64) error {
	if !target.IsImage() {
		return types.Errorf(types.ErrUnsupportedConversion, "%s is not an image format", target)
	}
	var head bytes.Buffer
	if _, err := CheckDimensions(io.TeeReader(r, &head), maxPixels); err != nil {
		return err
	}
	src, _, err := image.Decode(io.MultiReader(&head, r))
	if err != nil {
		return types.WrapError(types.ErrConversionToolFailure, err, "image could not be decoded")
	}

	switch target.Canonical() {
	case types.FormatJPG:
		err = jpeg.Encode(w, Flatten(src), &jpeg.Options{Quality: JPEGQuality})
	case types.FormatPNG:
		err = png.Encode(w, src)
	}
	if err != nil {
		return types.WrapError(types.ErrConversionToolFailure, err, fmt.Sprintf("encoding %s", target))
	}
	return nil
}

// ConvertFile transcodes the image at in and writes it to out.
func ConvertFile(in, out string, target types.Format, maxPixels int64) error {
	f, err := os.Open(in)
	if err != nil {
		return types.WrapError(types.ErrWorkspaceIO, err, "opening image")
	}
	defer f.Close()

	o, err := os.OpenFile(out, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, 0o600)
	if err != nil {
		return types.WrapError(types.ErrWorkspaceIO, err, "creating image")
	}
	bw := bufio.NewWriter(o)
	if err := Transcode(bufio.NewReader(f), bw, target, maxPixels); err != nil {
		o.Close()
		return err
	}
	if err := bw.Flush(); err != nil {
		o.Close()
		return types.WrapError(types.ErrWorkspaceIO, err, "writing image")
	}
	if err := o.Close(); err != nil {
		return types.WrapError(types.ErrWorkspaceIO, err, "writing image")
	}
	return nil
}

// Flatten composites img over an opaque white background. Opaque images are
// returned unchanged.
func Flatten(img image.Image) image.Image {
	if opaque, ok := img.(interface{ Opaque() bool }); ok && opaque.Opaque() {
		return img
	}
	b := img.Bounds()
	dst := image.NewRGBA(b)
	draw.Draw(dst, b, image.NewUniform(color.White), image.Point{}, draw.Src)
	draw.Draw(dst, b, img, b.Min, draw.Over)
	return dst
}
