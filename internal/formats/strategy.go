// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package formats

import (
	"github.com/pdiddy/docconv/pkg/types"
)

// Select resolves the strategy for converting src to dst. Identical formats
// (including jpg/jpeg spellings) and pairs missing from the capability table
// fail with UnsupportedConversion.
func Select(src, dst types.Format) (types.Strategy, error) {
	if src.Canonical() == dst.Canonical() {
		return types.StrategyNone, types.Errorf(types.ErrUnsupportedConversion,
			"source and target format are both .%s", src)
	}
	if !Reachable(src, dst) {
		return types.StrategyNone, types.Errorf(types.ErrUnsupportedConversion,
			"conversion from .%s to .%s is not supported", src, dst)
	}

	switch {
	case src.IsOffice():
		return types.StrategyOfficeRender, nil
	case src == types.FormatPDF && dst.IsOffice():
		return types.StrategyPDFToOffice, nil
	case src == types.FormatPDF && dst.IsImage():
		return types.StrategyPDFToImage, nil
	case src.IsImage() && dst == types.FormatPDF:
		return types.StrategyImageToPDF, nil
	case src.IsImage() && dst.IsImage():
		return types.StrategyImageConvert, nil
	}

	return types.StrategyNone, types.Errorf(types.ErrUnsupportedConversion,
		"conversion from .%s to .%s is not supported", src, dst)
}
