package config

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/lucasew/markdown-input/internal/preview"
)

func TestLoad(t *testing.T) {
	content := `
server:
  http_addr: ":9090"
auth:
  jwt_secret: "test"
  token_ttl: 1h
preview:
  skip_html: true
  disallowed_types: [image]
`
	tmp, err := os.CreateTemp("", "config-*.yaml")
	if err != nil {
		t.Fatal(err)
	}
	defer func() {
		_ = os.Remove(tmp.Name())
	}()
	if _, err := tmp.Write([]byte(content)); err != nil {
		t.Fatal(err)
	}
	if err := tmp.Close(); err != nil {
		t.Fatal(err)
	}

	cfg, err := Load(tmp.Name())
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.HTTPAddr != ":9090" {
		t.Errorf("expected :9090, got %s", cfg.Server.HTTPAddr)
	}
	if cfg.Auth.JWTSecret != "test" {
		t.Errorf("expected test, got %s", cfg.Auth.JWTSecret)
	}
	if cfg.Auth.TokenTTL != time.Hour {
		t.Errorf("expected 1h, got %s", cfg.Auth.TokenTTL)
	}
	if !cfg.Preview.SkipHTML || !cfg.Preview.EscapeHTML {
		t.Errorf("expected skip_html from file and escape_html from defaults, got %+v", cfg.Preview)
	}
	if cfg.Server.MaxBodyBytes != 1<<20 {
		t.Errorf("expected default body limit, got %d", cfg.Server.MaxBodyBytes)
	}
	if err := cfg.Validate(); err != nil {
		t.Errorf("expected valid config, got %v", err)
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); err == nil {
		t.Fatal("expected error for missing file")
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, []byte("preview:\n  skip_htm: true\n"), 0o644))

	_, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "skip_htm")
}

func TestLoadEmptyFileKeepsDefaults(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.yaml")
	require.NoError(t, os.WriteFile(path, nil, 0o644))

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, Default(), cfg)
}

func TestDefaultsMatchPreviewDefaults(t *testing.T) {
	cfg := Default()
	got := cfg.Preview.Options()
	want := preview.DefaultOptions()
	assert.Equal(t, want.EscapeHTML, got.EscapeHTML)
	assert.Equal(t, want.SkipHTML, got.SkipHTML)
	assert.Equal(t, want.GFM, got.GFM)
	assert.Equal(t, want.MDX, got.MDX)
	assert.Equal(t, want.Frontmatter, got.Frontmatter)
	assert.Equal(t, want.Sanitize, got.Sanitize)
	assert.Equal(t, want.Highlight, got.Highlight)
	assert.Empty(t, got.DisallowedTypes)
}

func TestValidateInvalid(t *testing.T) {
	cfg := Default()
	cfg.Server.HTTPAddr = ""
	cfg.Server.MaxBodyBytes = 0
	cfg.Auth.JWTSecret = "s"
	cfg.Auth.TokenTTL = 0
	cfg.Log.Level = "loud"
	cfg.Preview.Backend = "pdf"
	cfg.Terminal.Width = 1000

	err := cfg.Validate()
	require.Error(t, err)
	for _, want := range []string{
		"server.http_addr is required",
		"server.max_body_bytes must be greater than 0",
		"auth.token_ttl must be greater than 0",
		"log.level",
		"preview.backend must be html, term or termhtml",
		"terminal.width must be between 0 and 400",
	} {
		assert.Contains(t, err.Error(), want)
	}
}

func TestSetupPrecedence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "markdown-input.yaml")
	require.NoError(t, os.WriteFile(file, []byte("server:\n  http_addr: \":7000\"\nterminal:\n  width: 60\n"), 0o644))

	t.Setenv("MARKDOWN_INPUT_TERMINAL_WIDTH", "100")
	t.Setenv("MARKDOWN_INPUT_SERVER_ALLOWED_ORIGINS", "https://a.example, https://b.example")

	v := viper.New()
	used, err := Setup(v, file)
	require.NoError(t, err)
	assert.Equal(t, file, used)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":7000", cfg.Server.HTTPAddr)
	assert.Equal(t, 100, cfg.Terminal.Width)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, cfg.Server.AllowedOrigins)
	assert.Equal(t, "dark", cfg.Terminal.Style)
}

func TestSetupWithoutFile(t *testing.T) {
	t.Chdir(t.TempDir())
	v := viper.New()
	used, err := Setup(v, "")
	require.NoError(t, err)
	assert.Empty(t, used)

	cfg, err := FromViper(v)
	require.NoError(t, err)
	assert.Equal(t, ":8080", cfg.Server.HTTPAddr)
}

func TestSetupExplicitMissingFile(t *testing.T) {
	_, err := Setup(viper.New(), filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestRenderDefaultYAML(t *testing.T) {
	out := RenderDefaultYAML()
	assert.True(t, strings.HasPrefix(out, "# markdown-input configuration"))
	assert.Contains(t, out, "preview:\n")
	assert.Contains(t, out, "  escape_html: true\n")

	// The rendered file must load back to the defaults.
	var cfg Config
	require.NoError(t, yaml.Unmarshal([]byte(out), &cfg))
	def := Default()
	assert.Equal(t, def.Server.HTTPAddr, cfg.Server.HTTPAddr)
	assert.Equal(t, def.Preview, cfg.Preview)
	assert.Equal(t, def.Auth.TokenTTL, cfg.Auth.TokenTTL)
}

func TestNewLogger(t *testing.T) {
	var buf bytes.Buffer
	logger, err := LogConfig{Level: "debug", Format: "json"}.NewLogger(&buf)
	require.NoError(t, err)
	logger.Debug("hello", "k", "v")
	assert.Contains(t, buf.String(), `"msg":"hello"`)

	_, err = LogConfig{Format: "xml"}.NewLogger(&buf)
	assert.Error(t, err)
}
