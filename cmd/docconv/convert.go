// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert [files...]",
	Short: "Convert files to another format",
	Long: `Convert transforms each file into the target format. Office documents are
rendered through LibreOffice, PDFs are rasterised with ImageMagick or reopened
in LibreOffice, and images are transcoded in-process.

A failure on one file does not stop the others; the command exits non-zero if
any file failed.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "", "target format, e.g. pdf, docx, png (required)")
	convertCmd.Flags().String("out", ".", "directory for converted files")
	_ = convertCmd.MarkFlagRequired("to")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	env, err := setup(cmd)
	if err != nil {
		return err
	}
	defer env.Close()

	to, _ := cmd.Flags().GetString("to")
	outDir, _ := cmd.Flags().GetString("out")

	result := convert.ConvertBatch(cmd.Context(), env.svc, args, types.ParseFormat(to), outDir, os.Stdout)
	if result.HasFailures() {
		return fmt.Errorf("%d of %d files failed", result.Failed, result.Total())
	}
	return nil
}

// writeResult writes out into outDir and reports the path, or describes err
// using its public kind and detail.
func writeResult(out *types.Outcome, err error, outDir string) error {
	if err != nil {
		return fmt.Errorf("%s: %s", types.KindOf(err), types.PublicDetail(err))
	}
	path, err := convert.WriteOutcome(outDir, out)
	if err != nil {
		return err
	}
	fmt.Printf("wrote: %s (%d bytes)\n", path, len(out.Payload))
	return nil
}
