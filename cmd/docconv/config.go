// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/pdiddy/docconv/internal/container"
	"github.com/pdiddy/docconv/internal/convert"
	"github.com/pdiddy/docconv/internal/formats"
	"github.com/pdiddy/docconv/internal/history"
	"github.com/pdiddy/docconv/internal/httputil"
	"github.com/pdiddy/docconv/internal/tool"
	"github.com/pdiddy/docconv/pkg/types"
)

// setDefaults registers every config key so AutomaticEnv can resolve it
// even when no config file is present.
func setDefaults(v *viper.Viper) {
	v.SetDefault("engine.max_upload_bytes", int64(25<<20))
	v.SetDefault("engine.allowed_extensions", []string{})
	v.SetDefault("engine.tool_timeout", tool.DefaultTimeout)
	v.SetDefault("engine.max_concurrent", runtime.NumCPU())
	v.SetDefault("engine.queue_timeout", convert.DefaultQueueTimeout)
	v.SetDefault("engine.max_image_pixels", formats.DefaultMaxImagePixels)
	v.SetDefault("engine.scratch_dir", os.TempDir())

	v.SetDefault("tools.soffice", "")
	v.SetDefault("tools.magick", "")
	v.SetDefault("tools.ghostscript", "")
	v.SetDefault("tools.render_dpi", 150)
	v.SetDefault("tools.sandbox", string(types.SandboxHost))
	v.SetDefault("tools.sandbox_image", "")

	v.SetDefault("server.addr", ":8080")
	v.SetDefault("server.read_timeout", 60*time.Second)
	v.SetDefault("server.write_timeout", 5*time.Minute)

	home, err := os.UserHomeDir()
	if err != nil {
		home = "."
	}
	v.SetDefault("history.enabled", false)
	v.SetDefault("history.path", filepath.Join(home, ".local", "share", "docconv", "history.db"))

	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "text")
}

// loadConfig decodes the merged viper state into a Config.
func loadConfig() (types.Config, error) {
	return decodeConfig(viper.GetViper())
}

func decodeConfig(v *viper.Viper) (types.Config, error) {
	var cfg types.Config
	if err := v.Unmarshal(&cfg); err != nil {
		return cfg, fmt.Errorf("decoding config: %w", err)
	}
	return cfg, nil
}

// newLogger builds the process logger. Logs go to stderr so stdout stays
// free for command output and the MCP stdio transport.
func newLogger(cfg types.LogConfig) (*logrus.Logger, error) {
	log := logrus.New()
	log.SetOutput(os.Stderr)

	level, err := logrus.ParseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("parsing log level: %w", err)
	}
	log.SetLevel(level)

	switch cfg.Format {
	case "json":
		log.SetFormatter(&logrus.JSONFormatter{})
	case "", "text":
		log.SetFormatter(&logrus.TextFormatter{FullTimestamp: true})
	default:
		return nil, fmt.Errorf("unknown log format %q", cfg.Format)
	}
	return log, nil
}

// runtimeEnv holds what a command needs to reach the engine.
type runtimeEnv struct {
	cfg     types.Config
	log     *logrus.Logger
	svc     convert.Service
	engine  *convert.Engine
	history *history.Store
}

// Close releases the history store if one was opened.
func (r *runtimeEnv) Close() {
	if r.history != nil {
		if err := r.history.Close(); err != nil {
			r.log.WithError(err).Warn("closing history store")
		}
	}
}

// setup loads config and builds either a local engine or, when --remote is
// set, an HTTP client for a running server.
func setup(cmd *cobra.Command) (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	env := &runtimeEnv{cfg: cfg, log: log}

	if remote, _ := cmd.Flags().GetString("remote"); remote != "" {
		log.WithField("remote", remote).Debug("using remote server")
		env.svc = httputil.NewClient(remote, httputil.DefaultTimeout)
		return env, nil
	}

	if err := env.buildEngine(); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

// setupLocal is setup without the --remote option; serve and mcp always run
// the engine in-process.
func setupLocal() (*runtimeEnv, error) {
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	log, err := newLogger(cfg.Log)
	if err != nil {
		return nil, err
	}
	env := &runtimeEnv{cfg: cfg, log: log}
	if err := env.buildEngine(); err != nil {
		env.Close()
		return nil, err
	}
	return env, nil
}

func (r *runtimeEnv) buildEngine() error {
	sandbox, err := container.ForMode(r.cfg.Tools.Sandbox, r.cfg.Tools.SandboxImage)
	if err != nil {
		return err
	}
	runner := tool.NewRunner(r.cfg.Engine.ToolTimeout, sandbox, r.cfg.Tools.SandboxImage, r.log)
	toolbox := tool.NewToolbox(r.cfg.Tools, runner)

	opts := []convert.Option{convert.WithLogger(r.log)}
	if r.cfg.History.Enabled {
		store, err := history.NewStore(r.cfg.History)
		if err != nil {
			return err
		}
		r.history = store
		opts = append(opts, convert.WithHistory(store))
	}

	r.engine = convert.New(r.cfg.Engine, toolbox, opts...)
	r.svc = r.engine
	return nil
}
