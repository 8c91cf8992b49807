// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

//go:build !unix

package tool

import "os/exec"

// killProcessGroup leaves the default kill-the-child behaviour in place.
func killProcessGroup(*exec.Cmd) {}
