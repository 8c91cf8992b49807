// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pdiddy/docconv/pkg/types"
)

func TestDecodeConfig_Defaults(t *testing.T) {
	v := viper.New()
	setDefaults(v)

	cfg, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, int64(25<<20), cfg.Engine.MaxUploadBytes)
	assert.Equal(t, 120*time.Second, cfg.Engine.ToolTimeout)
	assert.Equal(t, 30*time.Second, cfg.Engine.QueueTimeout)
	assert.Equal(t, int64(50_000_000), cfg.Engine.MaxImagePixels)
	assert.Positive(t, cfg.Engine.MaxConcurrent)
	assert.Equal(t, types.SandboxHost, cfg.Tools.Sandbox)
	assert.Equal(t, 150, cfg.Tools.RenderDPI)
	assert.Equal(t, ":8080", cfg.Server.Addr)
	assert.False(t, cfg.History.Enabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestDecodeConfig_FileAndEnv(t *testing.T) {
	path := filepath.Join(t.TempDir(), "docconv.yaml")
	require.NoError(t, os.WriteFile(path, []byte(`
engine:
  max_upload_bytes: 1048576
  tool_timeout: 45s
  max_image_pixels: 1000000
  allowed_extensions: [pdf, docx]
tools:
  magick: convert
history:
  enabled: true
`), 0o644))
	t.Setenv("DOCCONV_SERVER_ADDR", "127.0.0.1:9000")
	t.Setenv("DOCCONV_LOG_LEVEL", "debug")

	v := viper.New()
	v.SetConfigFile(path)
	setDefaults(v)
	bindEnv(v)
	require.NoError(t, v.ReadInConfig())

	cfg, err := decodeConfig(v)
	require.NoError(t, err)

	assert.Equal(t, int64(1<<20), cfg.Engine.MaxUploadBytes)
	assert.Equal(t, 45*time.Second, cfg.Engine.ToolTimeout)
	assert.Equal(t, int64(1_000_000), cfg.Engine.MaxImagePixels)
	assert.Equal(t, []string{"pdf", "docx"}, cfg.Engine.AllowedExtensions)
	assert.Equal(t, "convert", cfg.Tools.Magick)
	assert.True(t, cfg.History.Enabled)
	assert.Equal(t, "127.0.0.1:9000", cfg.Server.Addr)
	assert.Equal(t, "debug", cfg.Log.Level)
}

func TestNewLogger(t *testing.T) {
	tests := []struct {
		name      string
		cfg       types.LogConfig
		wantLevel logrus.Level
		wantJSON  bool
		wantErr   bool
	}{
		{name: "text info", cfg: types.LogConfig{Level: "info", Format: "text"}, wantLevel: logrus.InfoLevel},
		{name: "json debug", cfg: types.LogConfig{Level: "debug", Format: "json"}, wantLevel: logrus.DebugLevel, wantJSON: true},
		{name: "empty format is text", cfg: types.LogConfig{Level: "warn"}, wantLevel: logrus.WarnLevel},
		{name: "bad level", cfg: types.LogConfig{Level: "loud"}, wantErr: true},
		{name: "bad format", cfg: types.LogConfig{Level: "info", Format: "xml"}, wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			log, err := newLogger(tt.cfg)
			if tt.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantLevel, log.GetLevel())
			_, isJSON := log.Formatter.(*logrus.JSONFormatter)
			assert.Equal(t, tt.wantJSON, isJSON)
		})
	}
}
