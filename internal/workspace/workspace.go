// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package workspace manages the per-request scratch directory. Every file a
// request stages or a tool produces lives under one Workspace, and Release
// removes the whole tree.
package workspace

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/pdiddy/docconv/pkg/types"
)

const (
	dirPrefix = "docconv-"
	outDir    = "out"
)

// Workspace is a private scratch directory owned by a single request.
type Workspace struct {
	id  string
	dir string

	mu       sync.Mutex
	owned    map[string]struct{}
	inputs   int
	released bool
}

// Acquire creates a uniquely named directory under parent (os.TempDir() when
// empty). The directory is readable only by the current user.
func Acquire(parent string) (*Workspace, error) {
	if parent == "" {
		parent = os.TempDir()
	}
	id := uuid.NewString()
	dir, err := os.MkdirTemp(parent, dirPrefix+id+"-")
	if err != nil {
		return nil, types.WrapError(types.ErrWorkspaceIO, err, "creating scratch directory")
	}
	return &Workspace{
		id:    id,
		dir:   dir,
		owned: make(map[string]struct{}),
	}, nil
}

// Run acquires a workspace, calls fn, and releases the workspace on every
// exit path, panics included. A teardown failure is logged and never replaces
// fn's result.
func Run(parent string, log logrus.FieldLogger, fn func(*Workspace) error) error {
	ws, err := Acquire(parent)
	if err != nil {
		return err
	}
	defer func() {
		if rerr := ws.Release(); rerr != nil {
			log.WithError(rerr).WithField("workspace", ws.ID()).Error("workspace teardown failed")
		}
	}()
	return fn(ws)
}

// ID returns the workspace identifier embedded in the directory name.
func (w *Workspace) ID() string { return w.id }

// Dir returns the workspace root.
func (w *Workspace) Dir() string { return w.dir }

// WriteInput stages data under a name the workspace chooses. Only the
// extension of suggestedName is kept, so client-supplied names never reach
// the filesystem or a tool's argument list.
func (w *Workspace) WriteInput(data []byte, suggestedName string) (string, error) {
	ext := types.FormatOf(suggestedName)

	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return "", types.Errorf(types.ErrWorkspaceIO, "workspace already released")
	}
	w.inputs++
	name := fmt.Sprintf("input_%d", w.inputs)
	w.mu.Unlock()

	if ext != "" {
		name += "." + string(ext)
	}
	path := filepath.Join(w.dir, name)
	if err := os.WriteFile(path, data, 0o600); err != nil {
		return "", types.WrapError(types.ErrWorkspaceIO, err, "staging input")
	}
	w.track(path)
	return path, nil
}

// OutputDir returns (creating on first use) the directory tools write into.
func (w *Workspace) OutputDir() (string, error) {
	dir := filepath.Join(w.dir, outDir)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return "", types.WrapError(types.ErrWorkspaceIO, err, "creating output directory")
	}
	w.track(dir)
	return dir, nil
}

// Path returns a path for name inside the workspace and records it as owned.
func (w *Workspace) Path(name string) string {
	p := filepath.Join(w.dir, filepath.Base(name))
	w.track(p)
	return p
}

// Owned returns the paths created through this workspace.
func (w *Workspace) Owned() []string {
	w.mu.Lock()
	defer w.mu.Unlock()
	out := make([]string, 0, len(w.owned))
	for p := range w.owned {
		out = append(out, p)
	}
	return out
}

// Release removes the workspace tree. It is safe to call more than once.
func (w *Workspace) Release() error {
	w.mu.Lock()
	if w.released {
		w.mu.Unlock()
		return nil
	}
	w.released = true
	w.mu.Unlock()

	if err := os.RemoveAll(w.dir); err != nil {
		return fmt.Errorf("removing %s: %w", w.dir, err)
	}
	return nil
}

func (w *Workspace) track(path string) {
	w.mu.Lock()
	w.owned[path] = struct{}{}
	w.mu.Unlock()
}
