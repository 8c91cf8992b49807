// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	defaultSoffice     = "soffice"
	defaultMagick      = "magick"
	defaultGhostscript = "gs"
	defaultRenderDPI   = 150
)

// Toolbox binds the configured binaries to a Runner and implements the
// tool-backed strategies.
type Toolbox struct {
	runner  *Runner
	soffice string
	magick  string
	gs      string
	dpi     int
}

// NewToolbox resolves binary names from cfg, falling back to common
// alternates (libreoffice, convert) when the preferred name is not on PATH.
func NewToolbox(cfg types.ToolsConfig, runner *Runner) *Toolbox {
	soffice := cfg.Soffice
	if soffice == "" {
		soffice = runner.Resolve(defaultSoffice, "libreoffice")
	}
	magick := cfg.Magick
	if magick == "" {
		magick = runner.Resolve(defaultMagick, "convert")
	}
	gs := cfg.Ghostscript
	if gs == "" {
		gs = defaultGhostscript
	}
	dpi := cfg.RenderDPI
	if dpi <= 0 {
		dpi = defaultRenderDPI
	}
	return &Toolbox{runner: runner, soffice: soffice, magick: magick, gs: gs, dpi: dpi}
}

// Invoke runs the external tool for strategy and returns the produced files
// in page order. input must live directly inside the workspace root and
// outDir inside it. There is exactly one tool invocation and no retry.
func (t *Toolbox) Invoke(ctx context.Context, strategy types.Strategy, input, outDir string, target types.Format) ([]string, error) {
	switch strategy {
	case types.StrategyOfficeRender:
		out, err := t.OfficeConvert(ctx, input, outDir, target, "")
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	case types.StrategyPDFToOffice:
		out, err := t.OfficeConvert(ctx, input, outDir, target, PDFImportFilter(target))
		if err != nil {
			return nil, err
		}
		return []string{out}, nil
	case types.StrategyPDFToImage:
		return t.RenderPages(ctx, input, outDir, target)
	}
	return nil, types.Errorf(types.ErrConversionToolFailure, "strategy %s has no external tool", strategy)
}

// OfficeConvert renders input to target through LibreOffice's native export.
func (t *Toolbox) OfficeConvert(ctx context.Context, input, outDir string, target types.Format, infilter string) (string, error) {
	root := filepath.Dir(input)
	profile := filepath.Join(root, "lo-profile")

	err := t.runner.Run(ctx, Command{
		Tool: "soffice",
		Bin:  t.soffice,
		Args: SofficeArgs(input, outDir, profile, target, infilter),
		Dir:  root,
		Env:  []string{"HOME=" + root},
	})
	if err != nil {
		return "", err
	}
	return locate(SofficeOutput(input, outDir, target))
}

// RenderPages rasterises every page of a PDF and returns one image per page.
func (t *Toolbox) RenderPages(ctx context.Context, input, outDir string, target types.Format) ([]string, error) {
	err := t.runner.Run(ctx, Command{
		Tool: "magick",
		Bin:  t.magick,
		Args: MagickArgs(input, outDir, target, t.dpi),
		Dir:  filepath.Dir(input),
	})
	if err != nil {
		return nil, err
	}

	var pages []string
	for i := 0; ; i++ {
		p := MagickPage(input, outDir, target, i)
		if _, err := locate(p); err != nil {
			break
		}
		pages = append(pages, p)
	}
	if len(pages) == 0 {
		return nil, types.Errorf(types.ErrOutputNotProduced, "no page images were produced")
	}
	return pages, nil
}

// Compress recompresses input into output with Ghostscript.
func (t *Toolbox) Compress(ctx context.Context, input, output string, profile types.CompressionProfile) error {
	err := t.runner.Run(ctx, Command{
		Tool: "gs",
		Bin:  t.gs,
		Args: GhostscriptArgs(input, output, profile),
		Dir:  filepath.Dir(input),
	})
	if err != nil {
		return err
	}
	_, err = locate(output)
	return err
}

// locate confirms a tool wrote a non-empty file at the expected path.
func locate(path string) (string, error) {
	info, err := os.Stat(path)
	if err != nil || info.IsDir() || info.Size() == 0 {
		return "", types.WrapError(types.ErrOutputNotProduced, err,
			fmt.Sprintf("expected output %s was not produced", filepath.Base(path)))
	}
	return path, nil
}
