// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docconv/internal/server"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the conversion engine over HTTP",
	Long: `Serve starts the HTTP API:

  GET  /health     liveness probe
  GET  /formats    supported source -> target formats
  POST /convert    multipart: file, target_format
  POST /merge      multipart: files (repeated, in order)
  POST /split      multipart: file, ranges
  POST /compress   multipart: file, quality

Successful requests return the produced file. Failures return
{"status":"error","kind":...,"detail":...} with a status matching the kind.`,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().String("addr", "", "listen address (overrides server.addr)")
	_ = viper.BindPFlag("server.addr", serveCmd.Flags().Lookup("addr"))

	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, args []string) error {
	env, err := setupLocal()
	if err != nil {
		return err
	}
	defer env.Close()

	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := server.New(env.engine, env.engine.MaxUploadBytes(), env.log)
	return srv.ListenAndServe(ctx, env.cfg.Server)
}
