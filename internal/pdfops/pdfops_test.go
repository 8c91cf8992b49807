// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfops

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"testing"

	"github.com/pdfcpu/pdfcpu/pkg/api"
	pdftypes "github.com/pdfcpu/pdfcpu/pkg/pdfcpu/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docconv/internal/imaging/imagingtest"
	"github.com/pdiddy/docconv/pkg/types"
)

// makePDF writes a PDF with the given number of pages. Each page is built
// from an image of a distinct width so page order is observable.
func makePDF(t *testing.T, dir, name string, pages, widthOffset int) string {
	t.Helper()
	var images []string
	for i := 0; i < pages; i++ {
		img := image.NewRGBA(image.Rect(0, 0, 20+widthOffset+10*i, 30))
		for x := 0; x < img.Bounds().Dx(); x++ {
			img.Set(x, 0, color.RGBA{B: 200, A: 255})
		}
		p := filepath.Join(dir, fmt.Sprintf("%s-img-%d.png", name, i))
		var buf bytes.Buffer
		require.NoError(t, png.Encode(&buf, img))
		require.NoError(t, os.WriteFile(p, buf.Bytes(), 0o600))
		images = append(images, p)
	}
	out := filepath.Join(dir, name+".pdf")
	require.NoError(t, ImagesToPDF(images, out, 0))
	return out
}

func dims(t *testing.T, path string) []pdftypes.Dim {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	d, err := api.PageDims(f, newConfig())
	require.NoError(t, err)
	return d
}

func TestPageCount(t *testing.T) {
	dir := t.TempDir()
	pdf := makePDF(t, dir, "doc", 3, 0)

	n, err := PageCount(pdf)
	require.NoError(t, err)
	assert.Equal(t, 3, n)

	bad := filepath.Join(dir, "bad.pdf")
	require.NoError(t, os.WriteFile(bad, []byte("%PDF-1.4 truncated garbage"), 0o600))
	_, err = PageCount(bad)
	assert.Equal(t, types.ErrInvalidPdfInput, types.KindOf(err))

	_, err = PageCount(filepath.Join(dir, "missing.pdf"))
	assert.Equal(t, types.ErrWorkspaceIO, types.KindOf(err))
}

func TestMerge(t *testing.T) {
	dir := t.TempDir()
	a := makePDF(t, dir, "a", 2, 0)
	b := makePDF(t, dir, "b", 1, 100)
	c := makePDF(t, dir, "c", 3, 200)
	ctx := context.Background()

	t.Run("order preserved", func(t *testing.T) {
		out := filepath.Join(dir, "ab.pdf")
		require.NoError(t, Merge(ctx, []string{a, b}, out))
		n, err := PageCount(out)
		require.NoError(t, err)
		assert.Equal(t, 3, n)
		assert.Equal(t, append(dims(t, a), dims(t, b)...), dims(t, out))
	})

	t.Run("associative", func(t *testing.T) {
		ab := filepath.Join(dir, "ab2.pdf")
		abc1 := filepath.Join(dir, "abc1.pdf")
		abc2 := filepath.Join(dir, "abc2.pdf")
		require.NoError(t, Merge(ctx, []string{a, b}, ab))
		require.NoError(t, Merge(ctx, []string{ab, c}, abc1))
		require.NoError(t, Merge(ctx, []string{a, b, c}, abc2))
		assert.Equal(t, dims(t, abc2), dims(t, abc1))
	})

	t.Run("not commutative", func(t *testing.T) {
		ab := filepath.Join(dir, "ab3.pdf")
		ba := filepath.Join(dir, "ba3.pdf")
		require.NoError(t, Merge(ctx, []string{a, b}, ab))
		require.NoError(t, Merge(ctx, []string{b, a}, ba))
		assert.Equal(t, append(dims(t, b), dims(t, a)...), dims(t, ba))
		assert.NotEqual(t, dims(t, ab), dims(t, ba))
	})

	t.Run("invalid input yields no output", func(t *testing.T) {
		bad := filepath.Join(dir, "bad.pdf")
		require.NoError(t, os.WriteFile(bad, []byte("not a pdf"), 0o600))
		out := filepath.Join(dir, "never.pdf")

		err := Merge(ctx, []string{a, bad}, out)
		require.Error(t, err)
		assert.Equal(t, types.ErrInvalidPdfInput, types.KindOf(err))
		assert.Equal(t, "file 2 is not a valid PDF", types.PublicDetail(err))
		assert.NoFileExists(t, out)
	})

	t.Run("needs two inputs", func(t *testing.T) {
		err := Merge(ctx, []string{a}, filepath.Join(dir, "one.pdf"))
		assert.Equal(t, types.ErrInvalidRequest, types.KindOf(err))
	})
}

func TestSplit(t *testing.T) {
	dir := t.TempDir()
	src := makePDF(t, dir, "src", 8, 0)
	srcDims := dims(t, src)
	ctx := context.Background()

	t.Run("full range round trip", func(t *testing.T) {
		outDir := t.TempDir()
		ranges, err := ParseRanges("1-8", 8)
		require.NoError(t, err)
		outs, err := Split(ctx, src, ranges, outDir)
		require.NoError(t, err)
		require.Len(t, outs, 1)
		assert.Equal(t, srcDims, dims(t, outs[0]))
	})

	t.Run("2,5-7 yields pages 2,5,6,7", func(t *testing.T) {
		outDir := t.TempDir()
		ranges, err := ParseRanges("2,5-7", 8)
		require.NoError(t, err)
		outs, err := Split(ctx, src, ranges, outDir)
		require.NoError(t, err)
		require.Len(t, outs, 2)
		assert.Equal(t, srcDims[1:2], dims(t, outs[0]))
		assert.Equal(t, srcDims[4:7], dims(t, outs[1]))
	})

	t.Run("out of range produces nothing", func(t *testing.T) {
		outDir := t.TempDir()
		for _, expr := range []string{"0", "9", "1-9", "0-3"} {
			_, err := ParseRanges(expr, 8)
			assert.Equal(t, types.ErrInvalidPageRange, types.KindOf(err), expr)
		}
		entries, err := os.ReadDir(outDir)
		require.NoError(t, err)
		assert.Empty(t, entries)
	})

	t.Run("canceled context", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		cancel()
		_, err := Split(cctx, src, []Range{{1, 1}}, t.TempDir())
		assert.Equal(t, types.ErrCanceled, types.KindOf(err))
	})
}

// sizedCompressor writes an output of a fixed size per profile.
type sizedCompressor struct {
	sizes map[string]int
	err   error
}

func (s sizedCompressor) Compress(_ context.Context, _, output string, p types.CompressionProfile) error {
	if s.err != nil {
		return s.err
	}
	return os.WriteFile(output, bytes.Repeat([]byte{'x'}, s.sizes[p.PDFSettings]), 0o600)
}

func TestCompress(t *testing.T) {
	dir := t.TempDir()
	input := filepath.Join(dir, "input_1.pdf")
	require.NoError(t, os.WriteFile(input, bytes.Repeat([]byte{'x'}, 1000), 0o600))
	c := sizedCompressor{sizes: map[string]int{"/screen": 100, "/ebook": 400, "/printer": 2000}}
	ctx := context.Background()

	var sizes []int64
	for _, q := range []types.Quality{types.QualityLow, types.QualityMedium, types.QualityHigh} {
		out := filepath.Join(dir, "compressed_"+string(q)+".pdf")
		got, err := Compress(ctx, c, input, out, q)
		require.NoError(t, err)
		info, err := os.Stat(got)
		require.NoError(t, err)
		assert.LessOrEqual(t, info.Size(), int64(1000), "never larger than original")
		sizes = append(sizes, info.Size())
	}
	assert.LessOrEqual(t, sizes[0], sizes[1])
	assert.LessOrEqual(t, sizes[1], sizes[2])

	_, err := Compress(ctx, c, input, filepath.Join(dir, "x.pdf"), types.Quality("ultra"))
	assert.Equal(t, types.ErrInvalidQuality, types.KindOf(err))

	failing := sizedCompressor{err: types.Errorf(types.ErrConversionTimeout, "gs exceeded 1s")}
	_, err = Compress(ctx, failing, input, filepath.Join(dir, "y.pdf"), types.QualityLow)
	assert.Equal(t, types.ErrConversionTimeout, types.KindOf(err))
}

func TestImagesToPDF_RejectsHugeCanvasBeforeImport(t *testing.T) {
	dir := t.TempDir()
	img := filepath.Join(dir, "input_1.png")
	require.NoError(t, os.WriteFile(img, imagingtest.PNGHeader(50000, 50000), 0o600))
	out := filepath.Join(dir, "converted.pdf")

	err := ImagesToPDF([]string{img}, out, 0)
	require.Error(t, err)
	assert.Equal(t, types.ErrPayloadTooLarge, types.KindOf(err))
	assert.NoFileExists(t, out)
}
