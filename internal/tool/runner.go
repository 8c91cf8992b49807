// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package tool runs the external conversion programs (LibreOffice,
// ImageMagick, Ghostscript) as bounded child processes and maps their
// failures onto engine error kinds.
package tool

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docconv/internal/container"
	"github.com/pdiddy/docconv/pkg/types"
)

const (
	// DefaultTimeout bounds a single invocation when none is configured.
	DefaultTimeout = 120 * time.Second

	// maxLoggedStderr caps how much tool stderr reaches the log.
	maxLoggedStderr = 4 << 10

	// killGrace is how long Wait may block after the process is killed.
	killGrace = 5 * time.Second
)

// Command is a fully built tool invocation. Args are passed to the process
// verbatim; nothing is ever interpreted by a shell.
type Command struct {
	// Tool is the logical tool name used in logs ("soffice", "magick", "gs").
	Tool string

	// Bin is the executable to run.
	Bin string

	// Args are the program arguments, excluding Bin.
	Args []string

	// Dir is the working directory and the only directory a sandbox mounts.
	Dir string

	// Env holds extra KEY=VALUE entries appended to the environment.
	Env []string
}

// executor abstracts process execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	Run(ctx context.Context, cmd Command, stderr *bytes.Buffer) error
}

// osExecutor is the production executor backed by os/exec.
type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) Run(ctx context.Context, c Command, stderr *bytes.Buffer) error {
	cmd := exec.CommandContext(ctx, c.Bin, c.Args...)
	cmd.Dir = c.Dir
	cmd.Env = append(os.Environ(), c.Env...)
	cmd.Stdout = stderr
	cmd.Stderr = stderr
	cmd.WaitDelay = killGrace
	killProcessGroup(cmd)
	return cmd.Run()
}

// Runner executes Commands with a hard wall-clock timeout, optionally inside
// a container runtime.
type Runner struct {
	exec    executor
	timeout time.Duration
	sandbox container.Runtime
	image   string
	log     logrus.FieldLogger
}

// NewRunner returns a Runner. A nil sandbox runs tools on the host.
func NewRunner(timeout time.Duration, sandbox container.Runtime, image string, log logrus.FieldLogger) *Runner {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Runner{
		exec:    &osExecutor{},
		timeout: timeout,
		sandbox: sandbox,
		image:   image,
		log:     log,
	}
}

// Timeout returns the per-invocation limit.
func (r *Runner) Timeout() time.Duration { return r.timeout }

// Resolve returns the first of candidates found on PATH. In sandbox mode
// the first candidate is trusted as-is since the host PATH is irrelevant.
func (r *Runner) Resolve(candidates ...string) string {
	if len(candidates) == 0 {
		return ""
	}
	if r.sandbox != nil {
		return candidates[0]
	}
	for _, c := range candidates {
		if c == "" {
			continue
		}
		if _, err := r.exec.LookPath(c); err == nil {
			return c
		}
	}
	return candidates[0]
}

// Run executes c exactly once. Expiry of the timeout yields
// ConversionTimeout, cancellation of ctx yields Canceled, and any other
// failure yields ConversionToolFailure. Captured output is logged, never
// returned.
func (r *Runner) Run(ctx context.Context, c Command) error {
	log := r.log.WithField("tool", c.Tool)

	var containerName string
	if r.sandbox != nil {
		containerName = "docconv-" + uuid.NewString()
		bin, args := r.sandbox.Wrap(r.image, containerName, c.Dir, c.Env, c.Bin, c.Args)
		c.Bin, c.Args, c.Env = bin, args, nil
		log = log.WithFields(logrus.Fields{"sandbox": r.sandbox.Name(), "container": containerName})
	}

	runCtx, cancel := context.WithTimeout(ctx, r.timeout)
	defer cancel()

	var output bytes.Buffer
	start := time.Now()
	err := r.exec.Run(runCtx, c, &output)
	elapsed := time.Since(start)

	if err == nil {
		log.WithField("duration", elapsed).Debug("tool finished")
		return nil
	}

	fields := logrus.Fields{
		"duration": elapsed,
		"stderr":   truncate(output.Bytes(), maxLoggedStderr),
	}
	var exitErr *exec.ExitError
	if errors.As(err, &exitErr) {
		fields["exit_code"] = exitErr.ExitCode()
	}
	log = log.WithFields(fields).WithError(err)

	// Killing the runtime client does not stop the container it started.
	if containerName != "" && runCtx.Err() != nil {
		if kerr := r.sandbox.Kill(containerName); kerr != nil {
			log.WithField("kill_error", kerr.Error()).Warn("stopping sandbox container failed")
		}
	}

	switch {
	case ctx.Err() != nil:
		log.Info("tool canceled")
		return types.WrapError(types.ErrCanceled, err, "request canceled")
	case errors.Is(runCtx.Err(), context.DeadlineExceeded):
		log.Warn("tool timed out")
		return types.WrapError(types.ErrConversionTimeout, err,
			fmt.Sprintf("%s exceeded %s", c.Tool, r.timeout))
	case errors.Is(err, exec.ErrNotFound):
		log.Error("tool binary not found")
		return types.WrapError(types.ErrConversionToolFailure, err,
			fmt.Sprintf("%s is not installed", c.Tool))
	}

	log.Warn("tool failed")
	return types.WrapError(types.ErrConversionToolFailure, err, fmt.Sprintf("%s failed", c.Tool))
}

func truncate(b []byte, n int) string {
	if len(b) <= n {
		return string(b)
	}
	return string(b[:n]) + "...(truncated)"
}
