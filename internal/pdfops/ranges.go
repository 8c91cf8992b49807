// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package pdfops

import (
	"strconv"
	"strings"

	"github.com/pdiddy/docconv/pkg/types"
)

// Range is a 1-indexed, inclusive page interval.
type Range struct {
	Start int `json:"start" yaml:"start"`
	End   int `json:"end" yaml:"end"`
}

// Pages returns the number of pages the range covers.
func (r Range) Pages() int { return r.End - r.Start + 1 }

// String renders the range in the form pdfcpu page selection accepts.
func (r Range) String() string {
	if r.Start == r.End {
		return strconv.Itoa(r.Start)
	}
	return strconv.Itoa(r.Start) + "-" + strconv.Itoa(r.End)
}

// ParseRanges parses expr of the form "range(,range)*" where range is N or
// N-M, and checks every interval against a document of total pages.
// Overlapping ranges are allowed and keep their order.
func ParseRanges(expr string, total int) ([]Range, error) {
	ranges, err := ParseRangeSyntax(expr)
	if err != nil {
		return nil, err
	}
	for _, r := range ranges {
		if r.End > total {
			return nil, types.Errorf(types.ErrInvalidPageRange,
				"range %s is outside the document's %d pages", r, total)
		}
	}
	return ranges, nil
}

// ParseRangeSyntax checks expr against the range grammar without knowing
// the page count. Page numbers start at 1.
func ParseRangeSyntax(expr string) ([]Range, error) {
	if strings.TrimSpace(expr) == "" {
		return nil, types.Errorf(types.ErrInvalidPageRange, "page range is empty")
	}

	var ranges []Range
	for _, part := range strings.Split(expr, ",") {
		r, err := parseRange(strings.TrimSpace(part))
		if err != nil {
			return nil, err
		}
		if r.Start < 1 {
			return nil, types.Errorf(types.ErrInvalidPageRange, "range %s starts before page 1", r)
		}
		ranges = append(ranges, r)
	}
	return ranges, nil
}

func parseRange(s string) (Range, error) {
	if s == "" {
		return Range{}, types.Errorf(types.ErrInvalidPageRange, "empty range in page list")
	}

	lo, hi, isSpan := strings.Cut(s, "-")
	start, err := parsePage(lo, s)
	if err != nil {
		return Range{}, err
	}
	end := start
	if isSpan {
		if end, err = parsePage(hi, s); err != nil {
			return Range{}, err
		}
	}
	if start > end {
		return Range{}, types.Errorf(types.ErrInvalidPageRange, "range %q starts after it ends", s)
	}
	return Range{Start: start, End: end}, nil
}

func parsePage(s, whole string) (int, error) {
	s = strings.TrimSpace(s)
	for _, c := range s {
		if c < '0' || c > '9' {
			return 0, types.Errorf(types.ErrInvalidPageRange, "malformed range %q", whole)
		}
	}
	n, err := strconv.Atoi(s)
	if err != nil {
		return 0, types.WrapError(types.ErrInvalidPageRange, err, "malformed range "+strconv.Quote(whole))
	}
	return n, nil
}
