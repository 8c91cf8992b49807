//go:build mage

// Package main contains Mage build targets for docconv developer tooling.
package main

import (
	"bytes"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/magefile/mage/mg"
	"github.com/magefile/mage/sh"
)

const (
	binDir    = "bin"
	binName   = "docconv"
	cmdPkg    = "./cmd/docconv"
	toolImage = "docconv-tools:latest"
)

// Default is the target run by a bare `mage`.
var Default = Build

// requiredTools are the external programs the tool-backed strategies invoke.
// Each entry lists acceptable binary names in preference order.
var requiredTools = map[string][]string{
	"LibreOffice": {"soffice", "libreoffice"},
	"ImageMagick": {"magick", "convert"},
	"Ghostscript": {"gs"},
}

// Build compiles the CLI binary into bin/ with the version stamped from git.
func Build() error {
	if err := os.MkdirAll(binDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", binDir, err)
	}
	out := filepath.Join(binDir, binName)
	ldflags := "-X main.version=" + gitVersion()
	if err := sh.RunV("go", "build", "-ldflags", ldflags, "-o", out, cmdPkg); err != nil {
		return fmt.Errorf("go build: %w", err)
	}
	fmt.Printf("Built %s\n", out)
	return nil
}

// Test runs the unit tests with the race detector.
func Test() error {
	return sh.RunV("go", "test", "-race", "./...")
}

// Lint runs go vet over the module.
func Lint() error {
	return sh.RunV("go", "vet", "./...")
}

// Check runs Lint then Test.
func Check() {
	mg.SerialDeps(Lint, Test)
}

// Tools reports which external conversion programs are on PATH.
func Tools() error {
	var missing []string
	for _, name := range []string{"LibreOffice", "ImageMagick", "Ghostscript"} {
		found := ""
		for _, bin := range requiredTools[name] {
			if p, err := exec.LookPath(bin); err == nil {
				found = p
				break
			}
		}
		if found == "" {
			fmt.Printf("  %-12s missing (tried %s)\n", name, strings.Join(requiredTools[name], ", "))
			missing = append(missing, name)
			continue
		}
		fmt.Printf("  %-12s %s\n", name, found)
	}
	if len(missing) > 0 {
		return fmt.Errorf("missing tools: %s", strings.Join(missing, ", "))
	}
	return nil
}

// Image builds the sandbox image that bundles the conversion tools.
func Image() error {
	rt := "docker"
	if _, err := exec.LookPath(rt); err != nil {
		rt = "podman"
	}
	return sh.RunV(rt, "build", "-t", toolImage, "-f", "Dockerfile.tools", ".")
}

// Run builds and starts the HTTP server.
func Run() error {
	mg.Deps(Build)
	return sh.RunV(filepath.Join(binDir, binName), "serve")
}

// Clean removes build output.
func Clean() error {
	fmt.Println("Removing", binDir)
	return sh.Rm(binDir)
}

// Stats prints project metrics: Go production and test LOC.
func Stats() error {
	prodLines, err := countGoLines(".", false)
	if err != nil {
		return err
	}
	testLines, err := countGoLines(".", true)
	if err != nil {
		return err
	}

	fmt.Printf("Lines of code (Go, production): %d\n", prodLines)
	fmt.Printf("Lines of code (Go, tests):      %d\n", testLines)
	return nil
}

// gitVersion returns `git describe` output, or "dev" outside a checkout.
func gitVersion() string {
	v, err := sh.Output("git", "describe", "--tags", "--always", "--dirty")
	if err != nil || v == "" {
		return "dev"
	}
	return v
}

// countGoLines walks the directory tree and counts non-blank lines in Go files,
// skipping the _examples reference tree. If testOnly is true, count only
// _test.go files; otherwise count non-test .go files.
func countGoLines(root string, testOnly bool) (int, error) {
	total := 0
	err := filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return err
		}
		if info.IsDir() {
			if strings.HasPrefix(info.Name(), "_") || info.Name() == ".git" {
				return filepath.SkipDir
			}
			return nil
		}
		if filepath.Ext(path) != ".go" {
			return nil
		}
		if strings.HasSuffix(path, "_test.go") != testOnly {
			return nil
		}
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading %s: %w", path, err)
		}
		for _, line := range bytes.Split(data, []byte("\n")) {
			if len(bytes.TrimSpace(line)) > 0 {
				total++
			}
		}
		return nil
	})
	return total, err
}
