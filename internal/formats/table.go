// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package formats holds the static format capability table, the strategy
// selector built on it, and the request validation policy.
package formats

import (
	"slices"

	"github.com/pdiddy/docconv/pkg/types"
)

// capabilities is built once at package init and never mutated afterwards.
// Callers only ever receive copies.
var capabilities = buildCapabilities()

func buildCapabilities() map[types.Format][]types.Format {
	office := []types.Format{
		types.FormatDOC, types.FormatDOCX,
		types.FormatXLS, types.FormatXLSX,
		types.FormatPPT, types.FormatPPTX,
	}
	images := []types.Format{types.FormatJPG, types.FormatJPEG, types.FormatPNG}

	m := make(map[types.Format][]types.Format)

	m[types.FormatPDF] = []types.Format{
		types.FormatDOCX, types.FormatXLSX, types.FormatPPTX,
		types.FormatJPG, types.FormatJPEG, types.FormatPNG,
	}

	for _, src := range office {
		targets := []types.Format{types.FormatPDF}
		for _, dst := range office {
			if dst != src {
				targets = append(targets, dst)
			}
		}
		targets = append(targets, images...)
		m[src] = targets
	}

	for _, src := range images {
		var targets []types.Format
		for _, dst := range images {
			if dst.Canonical() != src.Canonical() {
				targets = append(targets, dst)
			}
		}
		targets = append(targets, types.FormatPDF)
		m[src] = targets
	}

	return m
}

// ReachableTargets returns the formats src can be converted to. Unknown
// sources yield an empty slice. The result is a fresh copy.
func ReachableTargets(src types.Format) []types.Format {
	return slices.Clone(capabilities[src])
}

// Reachable reports whether dst is listed for src.
func Reachable(src, dst types.Format) bool {
	return slices.Contains(capabilities[src], dst)
}

// Table returns a copy of the whole capability graph keyed by source, in the
// order of types.AllFormats. It backs the formats listing endpoints.
func Table() map[string][]string {
	out := make(map[string][]string, len(capabilities))
	for _, src := range types.AllFormats {
		targets := capabilities[src]
		names := make([]string, len(targets))
		for i, t := range targets {
			names[i] = string(t)
		}
		out[string(src)] = names
	}
	return out
}
