// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package types

import "time"

// Status is the terminal state of a recorded operation.
type Status string

const (
	StatusSuccess Status = "success"
	StatusError   Status = "error"
)

// HistoryEntry is the metadata recorded for one engine request. Payloads
// and filenames are never stored.
type HistoryEntry struct {
	ID           string        `json:"id" yaml:"id"`
	Operation    Operation     `json:"operation" yaml:"operation"`
	SourceFormat Format        `json:"source_format" yaml:"source_format"`
	TargetFormat Format        `json:"target_format,omitempty" yaml:"target_format,omitempty"`
	Strategy     Strategy      `json:"strategy,omitempty" yaml:"strategy,omitempty"`
	Status       Status        `json:"status" yaml:"status"`
	ErrorKind    ErrorKind     `json:"error_kind,omitempty" yaml:"error_kind,omitempty"`
	InputFiles   int           `json:"input_files" yaml:"input_files"`
	InputBytes   int64         `json:"input_bytes" yaml:"input_bytes"`
	OutputBytes  int64         `json:"output_bytes" yaml:"output_bytes"`
	Duration     time.Duration `json:"duration" yaml:"duration"`
	CreatedAt    time.Time     `json:"created_at" yaml:"created_at"`
}
