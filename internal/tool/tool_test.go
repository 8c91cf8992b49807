// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docconv/pkg/types"
)

// fakeExecutor records invocations and delegates to runFunc.
type fakeExecutor struct {
	onPath  map[string]bool
	calls   []Command
	runFunc func(ctx context.Context, c Command, stderr *bytes.Buffer) error
}

func (f *fakeExecutor) LookPath(file string) (string, error) {
	if f.onPath[file] {
		return "/usr/bin/" + file, nil
	}
	return "", exec.ErrNotFound
}

func (f *fakeExecutor) Run(ctx context.Context, c Command, stderr *bytes.Buffer) error {
	f.calls = append(f.calls, c)
	if f.runFunc != nil {
		return f.runFunc(ctx, c, stderr)
	}
	return nil
}

// fakeSandbox wraps commands with a recognisable prefix and records kills.
type fakeSandbox struct {
	names  []string
	killed []string
}

func (*fakeSandbox) Name() string             { return "docker" }
func (*fakeSandbox) Available() bool          { return true }
func (*fakeSandbox) ImageExists(string) error { return nil }
func (f *fakeSandbox) Wrap(image, name, workdir string, env []string, bin string, args []string) (string, []string) {
	f.names = append(f.names, name)
	return "docker", append([]string{"run", image, bin}, args...)
}
func (f *fakeSandbox) Kill(name string) error {
	f.killed = append(f.killed, name)
	return nil
}

func newTestRunner(t *testing.T, timeout time.Duration, exec executor) (*Runner, *test.Hook) {
	t.Helper()
	log, hook := test.NewNullLogger()
	log.SetLevel(logrus.DebugLevel)
	r := NewRunner(timeout, nil, "", log)
	r.exec = exec
	return r, hook
}

func TestRunner_Run(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		runFunc  func(ctx context.Context, c Command, stderr *bytes.Buffer) error
		cancel   bool
		wantKind types.ErrorKind
	}{
		{
			name:    "success",
			timeout: time.Second,
		},
		{
			name:    "non-zero exit maps to tool failure",
			timeout: time.Second,
			runFunc: func(_ context.Context, _ Command, stderr *bytes.Buffer) error {
				stderr.WriteString("Error: source file could not be loaded /tmp/docconv-x/input_1.docx")
				return errors.New("exit status 1")
			},
			wantKind: types.ErrConversionToolFailure,
		},
		{
			name:    "deadline maps to timeout",
			timeout: 20 * time.Millisecond,
			runFunc: func(ctx context.Context, _ Command, _ *bytes.Buffer) error {
				<-ctx.Done()
				return ctx.Err()
			},
			wantKind: types.ErrConversionTimeout,
		},
		{
			name:    "parent cancellation maps to canceled",
			timeout: time.Minute,
			cancel:  true,
			runFunc: func(ctx context.Context, _ Command, _ *bytes.Buffer) error {
				<-ctx.Done()
				return ctx.Err()
			},
			wantKind: types.ErrCanceled,
		},
		{
			name:    "missing binary",
			timeout: time.Second,
			runFunc: func(context.Context, Command, *bytes.Buffer) error {
				return &exec.Error{Name: "soffice", Err: exec.ErrNotFound}
			},
			wantKind: types.ErrConversionToolFailure,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeExecutor{runFunc: tt.runFunc}
			r, _ := newTestRunner(t, tt.timeout, fe)

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(10 * time.Millisecond)
					cancel()
				}()
			}

			err := r.Run(ctx, Command{Tool: "soffice", Bin: "soffice", Args: []string{"--headless"}})
			if tt.wantKind == "" {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Equal(t, tt.wantKind, types.KindOf(err))
			assert.NotContains(t, types.PublicDetail(err), "/tmp/")
		})
	}
}

func TestRunner_LogsStderrButDoesNotReturnIt(t *testing.T) {
	fe := &fakeExecutor{runFunc: func(_ context.Context, _ Command, stderr *bytes.Buffer) error {
		stderr.WriteString(strings.Repeat("x", maxLoggedStderr+10))
		return errors.New("exit status 77")
	}}
	r, hook := newTestRunner(t, time.Second, fe)

	err := r.Run(context.Background(), Command{Tool: "gs", Bin: "gs"})
	require.Error(t, err)
	assert.NotContains(t, err.Error(), "xxxx")

	entry := hook.LastEntry()
	require.NotNil(t, entry)
	assert.Equal(t, logrus.WarnLevel, entry.Level)
	assert.Equal(t, "gs", entry.Data["tool"])
	logged, ok := entry.Data["stderr"].(string)
	require.True(t, ok)
	assert.True(t, strings.HasSuffix(logged, "...(truncated)"))
}

func TestRunner_SandboxWrapsCommand(t *testing.T) {
	fe := &fakeExecutor{}
	r, _ := newTestRunner(t, time.Second, fe)
	sb := &fakeSandbox{}
	r.sandbox = sb
	r.image = "tools:1"

	require.NoError(t, r.Run(context.Background(), Command{
		Tool: "gs", Bin: "gs", Args: []string{"-dBATCH"}, Env: []string{"HOME=/x"},
	}))
	require.Len(t, fe.calls, 1)
	assert.Equal(t, "docker", fe.calls[0].Bin)
	assert.Equal(t, []string{"run", "tools:1", "gs", "-dBATCH"}, fe.calls[0].Args)
	assert.Nil(t, fe.calls[0].Env)
	require.Len(t, sb.names, 1)
	assert.True(t, strings.HasPrefix(sb.names[0], "docconv-"))
	assert.Empty(t, sb.killed, "a finished container is not killed")
}

func TestRunner_SandboxKillsContainerOnTimeout(t *testing.T) {
	tests := []struct {
		name     string
		timeout  time.Duration
		cancel   bool
		wantKind types.ErrorKind
	}{
		{name: "timeout", timeout: 20 * time.Millisecond, wantKind: types.ErrConversionTimeout},
		{name: "caller cancels", timeout: time.Minute, cancel: true, wantKind: types.ErrCanceled},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fe := &fakeExecutor{runFunc: func(ctx context.Context, _ Command, _ *bytes.Buffer) error {
				<-ctx.Done()
				return ctx.Err()
			}}
			r, _ := newTestRunner(t, tt.timeout, fe)
			sb := &fakeSandbox{}
			r.sandbox = sb

			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			if tt.cancel {
				go func() {
					time.Sleep(10 * time.Millisecond)
					cancel()
				}()
			}

			err := r.Run(ctx, Command{Tool: "soffice", Bin: "soffice"})
			assert.Equal(t, tt.wantKind, types.KindOf(err))
			require.Len(t, sb.names, 1)
			assert.Equal(t, sb.names, sb.killed)
		})
	}
}

func TestRunner_Resolve(t *testing.T) {
	fe := &fakeExecutor{onPath: map[string]bool{"libreoffice": true}}
	r, _ := newTestRunner(t, time.Second, fe)

	assert.Equal(t, "libreoffice", r.Resolve("soffice", "libreoffice"))
	assert.Equal(t, "magick", r.Resolve("magick", "convert"))

	r.sandbox = &fakeSandbox{}
	assert.Equal(t, "soffice", r.Resolve("soffice", "libreoffice"))
}

func TestRunner_RealProcess(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := NewRunner(time.Second, nil, "", log)
	err := r.Run(context.Background(), Command{Tool: "sh", Bin: "sh", Args: []string{"-c", "echo boom >&2; exit 3"}})
	assert.Equal(t, types.ErrConversionToolFailure, types.KindOf(err))

	r = NewRunner(50*time.Millisecond, nil, "", log)
	start := time.Now()
	err = r.Run(context.Background(), Command{Tool: "sh", Bin: "sh", Args: []string{"-c", "sleep 5"}})
	assert.Equal(t, types.ErrConversionTimeout, types.KindOf(err))
	assert.Less(t, time.Since(start), 4*time.Second, "hung process must be killed")
}

func TestSofficeArgs(t *testing.T) {
	args := SofficeArgs("/w/input_1.pdf", "/w/out", "/w/lo-profile", types.FormatDOCX, "writer_pdf_import")
	assert.Equal(t, []string{
		"-env:UserInstallation=file:///w/lo-profile",
		"--headless", "--invisible", "--nologo", "--nodefault", "--norestore", "--nolockcheck",
		"--infilter=writer_pdf_import",
		"--convert-to", "docx",
		"--outdir", "/w/out",
		"/w/input_1.pdf",
	}, args)

	args = SofficeArgs("/w/input_1.docx", "/w/out", "/w/lo-profile", types.FormatJPEG, "")
	assert.NotContains(t, strings.Join(args, " "), "--infilter")
	assert.Contains(t, args, "jpg")

	assert.Equal(t, filepath.Join("/w/out", "input_1.pdf"), SofficeOutput("/w/input_1.docx", "/w/out", types.FormatPDF))
}

func TestPDFImportFilter(t *testing.T) {
	assert.Equal(t, "writer_pdf_import", PDFImportFilter(types.FormatDOCX))
	assert.Equal(t, "calc_pdf_import", PDFImportFilter(types.FormatXLSX))
	assert.Equal(t, "impress_pdf_import", PDFImportFilter(types.FormatPPTX))
	assert.Equal(t, "", PDFImportFilter(types.FormatPNG))
}

func TestMagickArgs(t *testing.T) {
	args := MagickArgs("/w/input_1.pdf", "/w/out", types.FormatPNG, 200)
	assert.Equal(t, []string{"-density", "200", "/w/input_1.pdf"}, args[:3])
	assert.Equal(t, filepath.Join("/w/out", "input_1-%d.png"), args[len(args)-1])
	assert.Equal(t, filepath.Join("/w/out", "input_1-2.png"), MagickPage("/w/input_1.pdf", "/w/out", types.FormatPNG, 2))
}

func TestGhostscriptArgs(t *testing.T) {
	profile, _ := types.QualityLow.Profile()
	args := GhostscriptArgs("/w/input_1.pdf", "/w/compressed.pdf", profile)
	assert.Contains(t, args, "-dPDFSETTINGS=/screen")
	assert.Contains(t, args, "-dColorImageResolution=72")
	assert.Contains(t, args, "-sOutputFile=/w/compressed.pdf")
	assert.Equal(t, "/w/input_1.pdf", args[len(args)-1])
}

// writeOutputs returns a runFunc that creates the given files.
func writeOutputs(paths ...string) func(context.Context, Command, *bytes.Buffer) error {
	return func(context.Context, Command, *bytes.Buffer) error {
		for _, p := range paths {
			if err := os.WriteFile(p, []byte("data"), 0o600); err != nil {
				return err
			}
		}
		return nil
	}
}

func TestToolbox_Invoke(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o700))
	input := filepath.Join(root, "input_1.docx")

	tests := []struct {
		name      string
		strategy  types.Strategy
		input     string
		target    types.Format
		produce   []string
		wantFiles int
		wantKind  types.ErrorKind
	}{
		{
			name:      "office render locates output by base name",
			strategy:  types.StrategyOfficeRender,
			input:     input,
			target:    types.FormatPDF,
			produce:   []string{filepath.Join(outDir, "input_1.pdf")},
			wantFiles: 1,
		},
		{
			name:     "office render ignores differently named output",
			strategy: types.StrategyOfficeRender,
			input:    input,
			target:   types.FormatPDF,
			produce:  []string{filepath.Join(outDir, "something-else.pdf")},
			wantKind: types.ErrOutputNotProduced,
		},
		{
			name:      "pdf to image returns every page in order",
			strategy:  types.StrategyPDFToImage,
			input:     filepath.Join(root, "input_1.pdf"),
			target:    types.FormatPNG,
			produce:   []string{filepath.Join(outDir, "input_1-0.png"), filepath.Join(outDir, "input_1-1.png"), filepath.Join(outDir, "input_1-2.png")},
			wantFiles: 3,
		},
		{
			name:     "pdf to image with no pages",
			strategy: types.StrategyPDFToImage,
			input:    filepath.Join(root, "input_1.pdf"),
			target:   types.FormatJPG,
			wantKind: types.ErrOutputNotProduced,
		},
		{
			name:     "in-process strategy is rejected",
			strategy: types.StrategyImageConvert,
			input:    filepath.Join(root, "input_1.png"),
			target:   types.FormatJPG,
			wantKind: types.ErrConversionToolFailure,
		},
	}
	for i, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries, _ := os.ReadDir(outDir)
			for _, e := range entries {
				require.NoError(t, os.Remove(filepath.Join(outDir, e.Name())))
			}

			fe := &fakeExecutor{runFunc: writeOutputs(tt.produce...)}
			r, _ := newTestRunner(t, time.Second, fe)
			tb := NewToolbox(types.ToolsConfig{Soffice: "soffice", Magick: "magick"}, r)

			files, err := tb.Invoke(context.Background(), tt.strategy, tt.input, outDir, tt.target)
			if tt.wantKind != "" {
				require.Error(t, err, fmt.Sprint(i))
				assert.Equal(t, tt.wantKind, types.KindOf(err))
				return
			}
			require.NoError(t, err)
			assert.Len(t, files, tt.wantFiles)
			assert.Equal(t, tt.produce, files)
			require.Len(t, fe.calls, 1, "exactly one invocation")
		})
	}
}

func TestToolbox_OfficeConvertIsolatesProfile(t *testing.T) {
	root := t.TempDir()
	outDir := filepath.Join(root, "out")
	require.NoError(t, os.MkdirAll(outDir, 0o700))

	fe := &fakeExecutor{runFunc: writeOutputs(filepath.Join(outDir, "input_1.docx"))}
	r, _ := newTestRunner(t, time.Second, fe)
	tb := NewToolbox(types.ToolsConfig{Soffice: "soffice"}, r)

	_, err := tb.Invoke(context.Background(), types.StrategyPDFToOffice, filepath.Join(root, "input_1.pdf"), outDir, types.FormatDOCX)
	require.NoError(t, err)

	require.Len(t, fe.calls, 1)
	c := fe.calls[0]
	assert.Equal(t, root, c.Dir)
	assert.Equal(t, []string{"HOME=" + root}, c.Env)
	assert.Contains(t, c.Args, "--infilter=writer_pdf_import")
}

func TestToolbox_Compress(t *testing.T) {
	root := t.TempDir()
	out := filepath.Join(root, "compressed.pdf")
	profile, _ := types.QualityMedium.Profile()

	fe := &fakeExecutor{runFunc: writeOutputs(out)}
	r, _ := newTestRunner(t, time.Second, fe)
	tb := NewToolbox(types.ToolsConfig{}, r)
	require.NoError(t, tb.Compress(context.Background(), filepath.Join(root, "input_1.pdf"), out, profile))
	assert.Equal(t, "gs", fe.calls[0].Bin)

	fe = &fakeExecutor{}
	r, _ = newTestRunner(t, time.Second, fe)
	tb = NewToolbox(types.ToolsConfig{}, r)
	err := tb.Compress(context.Background(), filepath.Join(root, "input_1.pdf"), filepath.Join(root, "missing.pdf"), profile)
	assert.Equal(t, types.ErrOutputNotProduced, types.KindOf(err))
}
