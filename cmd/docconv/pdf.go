// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

var mergeCmd = &cobra.Command{
	Use:   "merge [pdfs...]",
	Short: "Merge PDFs into one document, in argument order",
	Args:  cobra.MinimumNArgs(2),
	RunE:  runMerge,
}

var splitCmd = &cobra.Command{
	Use:   "split [pdf]",
	Short: "Extract page ranges from a PDF",
	Long: `Split extracts each range into its own PDF. Ranges are 1-based and
comma-separated, e.g. "1-3,5,8-10". One range produces a single PDF; several
produce split_pdfs.zip.`,
	Args: cobra.ExactArgs(1),
	RunE: runSplit,
}

var compressCmd = &cobra.Command{
	Use:   "compress [pdf]",
	Short: "Recompress a PDF with Ghostscript",
	Long: `Compress rewrites a PDF at the chosen quality tier. The result is never
larger than the input: when recompression does not help, the original bytes are
returned unchanged.`,
	Args: cobra.ExactArgs(1),
	RunE: runCompress,
}

func init() {
	for _, c := range []*cobra.Command{mergeCmd, splitCmd, compressCmd} {
		c.Flags().String("out", ".", "directory for the result")
		rootCmd.AddCommand(c)
	}
	splitCmd.Flags().String("ranges", "", "page ranges, e.g. 1-3,5 (required)")
	_ = splitCmd.MarkFlagRequired("ranges")
	compressCmd.Flags().String("quality", string(types.QualityMedium), "low, medium, or high")
}

func runMerge(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	inputs := make([]types.Upload, 0, len(args))
	for _, p := range args {
		up, err := convert.LoadUpload(p)
		if err != nil {
			return err
		}
		inputs = append(inputs, up)
	}

	outDir, _ := cmd.Flags().GetString("out")
	out, err := env.svc.Merge(cmd.Context(), types.MergeRequest{Inputs: inputs})
	return writeResult(out, err, outDir)
}

func runSplit(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	up, err := convert.LoadUpload(args[0])
	if err != nil {
		return err
	}
	ranges, _ := cmd.Flags().GetString("ranges")
	outDir, _ := cmd.Flags().GetString("out")

	out, err := env.svc.Split(cmd.Context(), types.SplitRequest{Input: up, Ranges: ranges})
	return writeResult(out, err, outDir)
}

func runCompress(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	up, err := convert.LoadUpload(args[0])
	if err != nil {
		return err
	}
	quality, _ := cmd.Flags().GetString("quality")
	outDir, _ := cmd.Flags().GetString("out")

	out, err := env.svc.Compress(cmd.Context(), types.CompressRequest{Input: up, Quality: types.Quality(quality)})
	return writeResult(out, err, outDir)
}
