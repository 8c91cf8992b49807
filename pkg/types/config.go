package types

import "time"

// SandboxMode selects where external tools run.
type SandboxMode string

const (
	SandboxHost   SandboxMode = "host"
	SandboxDocker SandboxMode = "docker"
	SandboxPodman SandboxMode = "podman"
	SandboxAuto   SandboxMode = "auto"
)

// EngineConfig holds the limits the engine enforces on every request. It is
// supplied by the bootstrap layer; the engine never reads config files.
type EngineConfig struct {
	// MaxUploadBytes is the largest accepted single upload (default 25 MiB).
	MaxUploadBytes int64 `json:"max_upload_bytes" yaml:"max_upload_bytes" mapstructure:"max_upload_bytes"`

	// AllowedExtensions whitelists source formats. Empty means the full
	// closed format set.
	AllowedExtensions []string `json:"allowed_extensions" yaml:"allowed_extensions" mapstructure:"allowed_extensions"`

	// ToolTimeout bounds every external tool invocation (default 120s).
	ToolTimeout time.Duration `json:"tool_timeout" yaml:"tool_timeout" mapstructure:"tool_timeout"`

	// MaxConcurrent caps requests executing at once (default NumCPU).
	MaxConcurrent int `json:"max_concurrent" yaml:"max_concurrent" mapstructure:"max_concurrent"`

	// QueueTimeout is how long a request waits for a free slot before it
	// fails with Busy (default 30s).
	QueueTimeout time.Duration `json:"queue_timeout" yaml:"queue_timeout" mapstructure:"queue_timeout"`

	// MaxImagePixels caps width*height of an image source, checked from
	// its header before any decode (default 50 million).
	MaxImagePixels int64 `json:"max_image_pixels" yaml:"max_image_pixels" mapstructure:"max_image_pixels"`

	// ScratchDir is the parent of per-request workspaces (default os.TempDir()).
	ScratchDir string `json:"scratch_dir" yaml:"scratch_dir" mapstructure:"scratch_dir"`
}

// ToolsConfig names the external binaries and how they are run.
type ToolsConfig struct {
	// Soffice is the LibreOffice binary (default "soffice").
	Soffice string `json:"soffice" yaml:"soffice" mapstructure:"soffice"`

	// Magick is the ImageMagick binary (default "magick").
	Magick string `json:"magick" yaml:"magick" mapstructure:"magick"`

	// Ghostscript is the Ghostscript binary (default "gs").
	Ghostscript string `json:"ghostscript" yaml:"ghostscript" mapstructure:"ghostscript"`

	// RenderDPI is the resolution used when rasterising PDF pages (default 150).
	RenderDPI int `json:"render_dpi" yaml:"render_dpi" mapstructure:"render_dpi"`

	// Sandbox selects host execution or a container runtime.
	Sandbox SandboxMode `json:"sandbox" yaml:"sandbox" mapstructure:"sandbox"`

	// SandboxImage is the image used when Sandbox is not host.
	SandboxImage string `json:"sandbox_image" yaml:"sandbox_image" mapstructure:"sandbox_image"`
}

// ServerConfig holds HTTP listener settings.
type ServerConfig struct {
	Addr         string        `json:"addr" yaml:"addr" mapstructure:"addr"`
	ReadTimeout  time.Duration `json:"read_timeout" yaml:"read_timeout" mapstructure:"read_timeout"`
	WriteTimeout time.Duration `json:"write_timeout" yaml:"write_timeout" mapstructure:"write_timeout"`
}

// HistoryConfig controls the optional operation log.
type HistoryConfig struct {
	Enabled bool   `json:"enabled" yaml:"enabled" mapstructure:"enabled"`
	Path    string `json:"path" yaml:"path" mapstructure:"path"`
}

// LogConfig controls structured logging.
type LogConfig struct {
	// Level is a logrus level name (default "info").
	Level string `json:"level" yaml:"level" mapstructure:"level"`

	// Format is "text" or "json".
	Format string `json:"format" yaml:"format" mapstructure:"format"`
}

// Config groups every section of docconv.yaml.
type Config struct {
	Engine  EngineConfig  `json:"engine" yaml:"engine" mapstructure:"engine"`
	Tools   ToolsConfig   `json:"tools" yaml:"tools" mapstructure:"tools"`
	Server  ServerConfig  `json:"server" yaml:"server" mapstructure:"server"`
	History HistoryConfig `json:"history" yaml:"history" mapstructure:"history"`
	Log     LogConfig     `json:"log" yaml:"log" mapstructure:"log"`
}
