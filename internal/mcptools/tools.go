// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package mcptools exposes the conversion engine as MCP tools operating on
// local file paths.
package mcptools

import (
	"context"
	"fmt"
	"path/filepath"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

// ConvertInput is the argument object of docconv_convert.
type ConvertInput struct {
	Path         string `json:"path" jsonschema:"path of the file to convert"`
	TargetFormat string `json:"target_format" jsonschema:"target extension, e.g. pdf, docx, png"`
	OutputDir    string `json:"output_dir,omitempty" jsonschema:"directory for the result, defaults to the input's directory"`
}

// MergeInput is the argument object of docconv_merge.
type MergeInput struct {
	Paths     []string `json:"paths" jsonschema:"PDF files to merge, in order"`
	OutputDir string   `json:"output_dir,omitempty" jsonschema:"directory for merged.pdf, defaults to the first input's directory"`
}

// SplitInput is the argument object of docconv_split.
type SplitInput struct {
	Path      string `json:"path" jsonschema:"PDF file to split"`
	Ranges    string `json:"ranges" jsonschema:"page ranges, e.g. 1-3,5"`
	OutputDir string `json:"output_dir,omitempty" jsonschema:"directory for the result, defaults to the input's directory"`
}

// CompressInput is the argument object of docconv_compress.
type CompressInput struct {
	Path      string `json:"path" jsonschema:"PDF file to compress"`
	Quality   string `json:"quality" jsonschema:"one of low, medium, high"`
	OutputDir string `json:"output_dir,omitempty" jsonschema:"directory for the result, defaults to the input's directory"`
}

// FileResult reports where a tool wrote its result.
type FileResult struct {
	Output   string `json:"output"`
	MIMEType string `json:"mime_type"`
	Bytes    int    `json:"bytes"`
}

// FormatsResult is the capability table keyed by source extension.
type FormatsResult struct {
	Formats map[string][]string `json:"formats"`
}

// Register adds the docconv tools to srv.
func Register(srv *mcp.Server, svc convert.Service) {
	t := &tools{svc: svc}

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docconv_convert",
		Description: "Convert a document or image to another format (pdf, docx, xlsx, pptx, jpg, png)",
	}, t.convert)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docconv_merge",
		Description: "Merge two or more PDF files into one, preserving order",
	}, t.merge)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docconv_split",
		Description: "Extract page ranges of a PDF; several ranges produce a zip",
	}, t.split)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docconv_compress",
		Description: "Reduce PDF size with a low, medium or high quality profile",
	}, t.compress)

	mcp.AddTool(srv, &mcp.Tool{
		Name:        "docconv_formats",
		Description: "List the supported source formats and their conversion targets",
	}, t.formats)
}

// NewServer returns an MCP server with the docconv tools registered.
func NewServer(svc convert.Service, version string) *mcp.Server {
	srv := mcp.NewServer(&mcp.Implementation{Name: "docconv", Version: version}, nil)
	Register(srv, svc)
	return srv
}

type tools struct {
	svc convert.Service
}

func (t *tools) convert(ctx context.Context, _ *mcp.CallToolRequest, in ConvertInput) (*mcp.CallToolResult, FileResult, error) {
	up, err := convert.LoadUpload(in.Path)
	if err != nil {
		return nil, FileResult{}, err
	}
	out, err := t.svc.Convert(ctx, types.ConversionRequest{Source: up, Target: types.ParseFormat(in.TargetFormat)})
	return finish(out, err, outputDir(in.OutputDir, in.Path))
}

func (t *tools) merge(ctx context.Context, _ *mcp.CallToolRequest, in MergeInput) (*mcp.CallToolResult, FileResult, error) {
	inputs := make([]types.Upload, 0, len(in.Paths))
	for _, p := range in.Paths {
		up, err := convert.LoadUpload(p)
		if err != nil {
			return nil, FileResult{}, err
		}
		inputs = append(inputs, up)
	}
	first := ""
	if len(in.Paths) > 0 {
		first = in.Paths[0]
	}
	out, err := t.svc.Merge(ctx, types.MergeRequest{Inputs: inputs})
	return finish(out, err, outputDir(in.OutputDir, first))
}

func (t *tools) split(ctx context.Context, _ *mcp.CallToolRequest, in SplitInput) (*mcp.CallToolResult, FileResult, error) {
	up, err := convert.LoadUpload(in.Path)
	if err != nil {
		return nil, FileResult{}, err
	}
	out, err := t.svc.Split(ctx, types.SplitRequest{Input: up, Ranges: in.Ranges})
	return finish(out, err, outputDir(in.OutputDir, in.Path))
}

func (t *tools) compress(ctx context.Context, _ *mcp.CallToolRequest, in CompressInput) (*mcp.CallToolResult, FileResult, error) {
	up, err := convert.LoadUpload(in.Path)
	if err != nil {
		return nil, FileResult{}, err
	}
	out, err := t.svc.Compress(ctx, types.CompressRequest{Input: up, Quality: types.Quality(in.Quality)})
	return finish(out, err, outputDir(in.OutputDir, in.Path))
}

func (t *tools) formats(ctx context.Context, _ *mcp.CallToolRequest, _ struct{}) (*mcp.CallToolResult, FormatsResult, error) {
	table, err := t.svc.Formats(ctx)
	if err != nil {
		return nil, FormatsResult{}, err
	}
	return nil, FormatsResult{Formats: table}, nil
}

// finish writes a successful outcome to dir. Engine errors are reduced to
// their kind and public detail.
func finish(out *types.Outcome, err error, dir string) (*mcp.CallToolResult, FileResult, error) {
	if err != nil {
		return nil, FileResult{}, fmt.Errorf("%s: %s", types.KindOf(err), types.PublicDetail(err))
	}
	path, err := convert.WriteOutcome(dir, out)
	if err != nil {
		return nil, FileResult{}, err
	}
	return nil, FileResult{Output: path, MIMEType: out.MIMEType, Bytes: len(out.Payload)}, nil
}

func outputDir(dir, input string) string {
	if dir != "" {
		return dir
	}
	if input == "" {
		return "."
	}
	return filepath.Dir(input)
}
