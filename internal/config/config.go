package config

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"

	"github.com/lucasew/markdown-input/internal/preview"
)

type Config struct {
	Server   ServerConfig   `yaml:"server"`
	Auth     AuthConfig     `yaml:"auth"`
	Log      LogConfig      `yaml:"log"`
	Preview  PreviewConfig  `yaml:"preview"`
	Terminal TerminalConfig `yaml:"terminal"`
	Bundle   BundleConfig   `yaml:"bundle"`
}

type ServerConfig struct {
	HTTPAddr        string        `yaml:"http_addr"`
	AllowedOrigins  []string      `yaml:"allowed_origins"`
	MaxBodyBytes    int64         `yaml:"max_body_bytes"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout"`
}

type AuthConfig struct {
	JWTSecret string        `yaml:"jwt_secret"`
	TokenTTL  time.Duration `yaml:"token_ttl"`
}

type LogConfig struct {
	Level  string `yaml:"level"`
	Format string `yaml:"format"`
}

// PreviewConfig holds the server-side default render options.
type PreviewConfig struct {
	Backend          string   `yaml:"backend"`
	SkipHTML         bool     `yaml:"skip_html"`
	EscapeHTML       bool     `yaml:"escape_html"`
	LinkTarget       string   `yaml:"link_target"`
	SourcePos        bool     `yaml:"source_pos"`
	DisallowedTypes  []string `yaml:"disallowed_types"`
	UnwrapDisallowed bool     `yaml:"unwrap_disallowed"`
	GFM              bool     `yaml:"gfm"`
	HardWraps        bool     `yaml:"hard_wraps"`
	MDX              bool     `yaml:"mdx"`
	Frontmatter      bool     `yaml:"frontmatter"`
	Highlight        bool     `yaml:"highlight"`
	Emoji            bool     `yaml:"emoji"`
	Sanitize         bool     `yaml:"sanitize"`
}

type TerminalConfig struct {
	Style string `yaml:"style"`
	Width int    `yaml:"width"`
}

type BundleConfig struct {
	Preset string `yaml:"preset"`
	File   string `yaml:"file"`
	Root   string `yaml:"root"`
	OutDir string `yaml:"out_dir"`
}

// Options converts the configured defaults into render options.
func (p PreviewConfig) Options() preview.Options {
	return preview.Options{
		SkipHTML:         p.SkipHTML,
		EscapeHTML:       p.EscapeHTML,
		LinkTarget:       p.LinkTarget,
		SourcePos:        p.SourcePos,
		DisallowedTypes:  p.DisallowedTypes,
		UnwrapDisallowed: p.UnwrapDisallowed,
		GFM:              p.GFM,
		HardWraps:        p.HardWraps,
		MDX:              p.MDX,
		Frontmatter:      p.Frontmatter,
		Highlight:        p.Highlight,
		Emoji:            p.Emoji,
		Sanitize:         p.Sanitize,
	}
}

// NewLogger builds the process logger. Format is "text" or "json".
func (l LogConfig) NewLogger(w io.Writer) (*slog.Logger, error) {
	level := slog.LevelInfo
	if l.Level != "" {
		if err := level.UnmarshalText([]byte(l.Level)); err != nil {
			return nil, fmt.Errorf("log.level: %w", err)
		}
	}
	opts := &slog.HandlerOptions{Level: level}
	switch strings.ToLower(l.Format) {
	case "", "text":
		return slog.New(slog.NewTextHandler(w, opts)), nil
	case "json":
		return slog.New(slog.NewJSONHandler(w, opts)), nil
	default:
		return nil, fmt.Errorf("log.format: unknown format %q", l.Format)
	}
}

// Default returns the configuration described by GetConfigOptions.
func Default() *Config {
	v := viper.New()
	applyDefaults(v)
	cfg, _ := FromViper(v)
	return cfg
}

// Load reads a YAML config file on top of the defaults. Unknown keys are
// rejected so typos surface instead of silently keeping a default.
func Load(path string) (*Config, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	defer f.Close()

	cfg := Default()
	dec := yaml.NewDecoder(f)
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("parse config: %w", err)
	}

	return cfg, nil
}

// FromViper reads every known key out of v.
func FromViper(v *viper.Viper) (*Config, error) {
	cfg := &Config{
		Server: ServerConfig{
			HTTPAddr:        v.GetString("server.http_addr"),
			AllowedOrigins:  stringSlice(v, "server.allowed_origins"),
			MaxBodyBytes:    v.GetInt64("server.max_body_bytes"),
			ShutdownTimeout: v.GetDuration("server.shutdown_timeout"),
		},
		Auth: AuthConfig{
			JWTSecret: v.GetString("auth.jwt_secret"),
			TokenTTL:  v.GetDuration("auth.token_ttl"),
		},
		Log: LogConfig{
			Level:  v.GetString("log.level"),
			Format: v.GetString("log.format"),
		},
		Preview: PreviewConfig{
			Backend:          v.GetString("preview.backend"),
			SkipHTML:         v.GetBool("preview.skip_html"),
			EscapeHTML:       v.GetBool("preview.escape_html"),
			LinkTarget:       v.GetString("preview.link_target"),
			SourcePos:        v.GetBool("preview.source_pos"),
			DisallowedTypes:  stringSlice(v, "preview.disallowed_types"),
			UnwrapDisallowed: v.GetBool("preview.unwrap_disallowed"),
			GFM:              v.GetBool("preview.gfm"),
			HardWraps:        v.GetBool("preview.hard_wraps"),
			MDX:              v.GetBool("preview.mdx"),
			Frontmatter:      v.GetBool("preview.frontmatter"),
			Highlight:        v.GetBool("preview.highlight"),
			Emoji:            v.GetBool("preview.emoji"),
			Sanitize:         v.GetBool("preview.sanitize"),
		},
		Terminal: TerminalConfig{
			Style: v.GetString("terminal.style"),
			Width: v.GetInt("terminal.width"),
		},
		Bundle: BundleConfig{
			Preset: v.GetString("bundle.preset"),
			File:   v.GetString("bundle.file"),
			Root:   v.GetString("bundle.root"),
			OutDir: v.GetString("bundle.out_dir"),
		},
	}
	return cfg, cfg.Validate()
}

// Validate reports every invalid value at once.
func (c *Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Server.HTTPAddr) == "" {
		errs = append(errs, errors.New("server.http_addr is required"))
	}
	if c.Server.MaxBodyBytes <= 0 {
		errs = append(errs, errors.New("server.max_body_bytes must be greater than 0"))
	}
	if c.Auth.JWTSecret != "" && c.Auth.TokenTTL <= 0 {
		errs = append(errs, errors.New("auth.token_ttl must be greater than 0"))
	}
	if _, err := c.Log.NewLogger(io.Discard); err != nil {
		errs = append(errs, err)
	}
	switch c.Preview.Backend {
	case "html", "term", "termhtml":
	default:
		errs = append(errs, fmt.Errorf("preview.backend must be html, term or termhtml, got %q", c.Preview.Backend))
	}
	if c.Terminal.Width < 0 || c.Terminal.Width > 400 {
		errs = append(errs, errors.New("terminal.width must be between 0 and 400"))
	}
	return errors.Join(errs...)
}

// stringSlice also accepts comma-separated values, as sent through env.
func stringSlice(v *viper.Viper, key string) []string {
	raw := v.GetStringSlice(key)
	out := make([]string, 0, len(raw))
	for _, item := range raw {
		for _, part := range strings.Split(item, ",") {
			if p := strings.TrimSpace(part); p != "" {
				out = append(out, p)
			}
		}
	}
	return out
}
