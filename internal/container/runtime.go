// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package container implements container runtime detection and the argv
// rewriting that runs a conversion tool inside a throwaway container with
// only the request's scratch directory mounted.
package container

import (
	"fmt"
	"os/exec"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	binDocker = "docker"
	binPodman = "podman"
)

// Runtime provides container operations: checking availability, verifying
// images, and wrapping a tool invocation into a `run` command line.
type Runtime interface {
	// Name returns the runtime name ("docker" or "podman").
	Name() string

	// Available reports whether the runtime binary exists on PATH and
	// responds to an info command.
	Available() bool

	// ImageExists checks whether the named image exists locally.
	// Returns nil when the image is found, or an error describing the failure.
	ImageExists(image string) error

	// Wrap returns the binary and arguments that run bin with args inside
	// image as a container called name. workdir is bind-mounted at the same
	// path so file arguments stay valid, and env entries are forwarded with -e.
	Wrap(image, name, workdir string, env []string, bin string, args []string) (string, []string)

	// Kill force-stops the named container.
	Kill(name string) error
}

// executor abstracts command execution for testing.
type executor interface {
	LookPath(file string) (string, error)
	RunSilent(name string, args ...string) error
}

type osExecutor struct{}

func (o *osExecutor) LookPath(file string) (string, error) {
	return exec.LookPath(file)
}

func (o *osExecutor) RunSilent(name string, args ...string) error {
	return exec.Command(name, args...).Run()
}

// flavor is what differs between the supported runtimes.
type flavor struct {
	bin        string
	imageProbe []string
}

var flavors = map[types.SandboxMode]flavor{
	types.SandboxDocker: {bin: binDocker, imageProbe: []string{"image", "inspect"}},
	types.SandboxPodman: {bin: binPodman, imageProbe: []string{"image", "exists"}},
}

// detectOrder is the preference order for auto mode.
var detectOrder = []types.SandboxMode{types.SandboxDocker, types.SandboxPodman}

type sandbox struct {
	flavor
	exec executor
}

func newSandbox(mode types.SandboxMode, exec executor) *sandbox {
	return &sandbox{flavor: flavors[mode], exec: exec}
}

func (s *sandbox) Name() string { return s.bin }

func (s *sandbox) Available() bool {
	if _, err := s.exec.LookPath(s.bin); err != nil {
		return false
	}
	return s.exec.RunSilent(s.bin, "info") == nil
}

func (s *sandbox) ImageExists(image string) error {
	args := append(append([]string{}, s.imageProbe...), image)
	if err := s.exec.RunSilent(s.bin, args...); err != nil {
		return fmt.Errorf("sandbox image %s is not present in %s (build it with `mage image`): %w", image, s.bin, err)
	}
	return nil
}

// Wrap never grants network access and mounts nothing but workdir.
func (s *sandbox) Wrap(image, name, workdir string, env []string, bin string, args []string) (string, []string) {
	argv := make([]string, 0, 12+2*len(env)+len(args))
	argv = append(argv,
		"run", "--rm", "-i",
		"--name", name,
		"--network", "none",
		"-v", workdir+":"+workdir,
		"-w", workdir,
	)
	for _, kv := range env {
		argv = append(argv, "-e", kv)
	}
	argv = append(argv, image, bin)
	return s.bin, append(argv, args...)
}

func (s *sandbox) Kill(name string) error {
	if err := s.exec.RunSilent(s.bin, "kill", name); err != nil {
		return fmt.Errorf("killing container %s: %w", name, err)
	}
	return nil
}

var defaultExec = &osExecutor{}

// DetectRuntime returns the first operational runtime, preferring docker.
func DetectRuntime() (Runtime, error) {
	return detectRuntime(defaultExec)
}

func detectRuntime(exec executor) (*sandbox, error) {
	for _, mode := range detectOrder {
		if s := newSandbox(mode, exec); s.Available() {
			return s, nil
		}
	}
	return nil, fmt.Errorf("no container runtime available: neither %s nor %s is installed and running",
		binDocker, binPodman)
}

// ForMode resolves the sandbox setting to a runtime. Host mode returns a nil
// Runtime. Explicit docker/podman modes fail if that runtime is unusable;
// auto mode behaves like DetectRuntime. When a runtime is returned, image
// must exist locally.
func ForMode(mode types.SandboxMode, image string) (Runtime, error) {
	s, err := forMode(defaultExec, mode, image)
	if s == nil {
		return nil, err
	}
	return s, err
}

func forMode(exec executor, mode types.SandboxMode, image string) (*sandbox, error) {
	var s *sandbox
	switch mode {
	case "", types.SandboxHost:
		return nil, nil
	case types.SandboxDocker, types.SandboxPodman:
		s = newSandbox(mode, exec)
		if !s.Available() {
			return nil, fmt.Errorf("%s is not available", s.bin)
		}
	case types.SandboxAuto:
		detected, err := detectRuntime(exec)
		if err != nil {
			return nil, err
		}
		s = detected
	default:
		return nil, fmt.Errorf("unknown sandbox mode %q (want host, docker, podman, or auto)", mode)
	}

	if image == "" {
		return nil, fmt.Errorf("sandbox mode %s requires tools.sandbox_image", mode)
	}
	if err := s.ImageExists(image); err != nil {
		return nil, err
	}
	return s, nil
}
