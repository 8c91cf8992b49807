// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build unix

package tool

import (
	"context"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"

	"github.com/pdiddy/docconv/pkg/types"
)

func TestRunner_TimeoutKillsForkedHelpers(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	dir := t.TempDir()
	marker := filepath.Join(dir, "marker")

	// The outer shell waits on a nested shell, the way a launcher waits on
	// the real office process.
	r := NewRunner(50*time.Millisecond, nil, "", log)
	start := time.Now()
	err := r.Run(context.Background(), Command{
		Tool: "sh",
		Bin:  "sh",
		Args: []string{"-c", "sh -c 'sleep 1; touch marker'; true"},
		Dir:  dir,
	})
	elapsed := time.Since(start)

	assert.Equal(t, types.ErrConversionTimeout, types.KindOf(err))
	assert.Less(t, elapsed, 900*time.Millisecond, "Run must return once the group is killed")

	time.Sleep(1500 * time.Millisecond)
	_, statErr := os.Stat(marker)
	assert.True(t, os.IsNotExist(statErr), "forked helper outlived the timeout")
}

func TestRunner_CancelKillsForkedHelpers(t *testing.T) {
	if _, err := exec.LookPath("sh"); err != nil {
		t.Skip("sh not available")
	}
	log := logrus.New()
	log.SetOutput(io.Discard)

	r := NewRunner(time.Minute, nil, "", log)
	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(50 * time.Millisecond)
		cancel()
	}()

	start := time.Now()
	err := r.Run(ctx, Command{Tool: "sh", Bin: "sh", Args: []string{"-c", "sh -c 'sleep 5'; true"}})
	assert.Equal(t, types.ErrCanceled, types.KindOf(err))
	assert.Less(t, time.Since(start), 2*time.Second)
}
