package main

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasew/markdown-input/internal/bundle"
	"github.com/lucasew/markdown-input/internal/lint"
)

func execute(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetIn(strings.NewReader(stdin))
	rootCmd.SetOut(&out)
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetIn(nil)
		rootCmd.SetOut(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestMain(m *testing.M) {
	logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	os.Exit(m.Run())
}

func TestRenderCommand(t *testing.T) {
	out, err := execute(t, "_Hello world_", "render")
	require.NoError(t, err)
	assert.Contains(t, out, "<em>Hello world</em>")
}

func TestRenderCommandJSON(t *testing.T) {
	out, err := execute(t, "a <b>x</b>", "render", "--json", "--options", `{"skipHtml":true}`)
	require.NoError(t, err)

	var res map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &res))
	opts := res["options"].(map[string]any)
	assert.Equal(t, false, opts["escapeHtml"])
	assert.NotContains(t, res["body"], "<b>")
}

func TestRenderCommandBadOptions(t *testing.T) {
	_, err := execute(t, "x", "render", "--json=false", "--options", `{"gfm":"yes"}`)
	assert.Error(t, err)
}

func TestLintCommand(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("_Hello world_"), 0o644))

	out, err := execute(t, "", "lint", "--format", "json", "--frail=false", path)
	require.NoError(t, err)

	var files []lint.File
	require.NoError(t, json.Unmarshal([]byte(out), &files))
	require.Len(t, files, 1)
	assert.Equal(t, path, files[0].Path)
	assert.Len(t, files[0].Messages, 2)

	_, err = execute(t, "", "lint", "--format", "text", "--color", "never", "--frail", path)
	assert.Error(t, err)
}

func TestBundleCommands(t *testing.T) {
	out, err := execute(t, "", "bundle", "presets")
	require.NoError(t, err)
	assert.Equal(t, "library\nmain\n", out)

	out, err = execute(t, "", "bundle", "show", "--bundle.preset", "main")
	require.NoError(t, err)
	cfg, err := bundle.Parse([]byte(out))
	require.NoError(t, err)
	assert.Equal(t, "main.js", cfg.Output.Filename)

	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "src"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(root, "src", "index.js"),
		[]byte("import client from 'part:@sanity/base/client'\nimport React from 'react'\n"), 0o644))

	out, err = execute(t, "", "bundle", "plan", "--bundle.preset", "library", "--bundle.root", root)
	require.NoError(t, err)
	var m bundle.Manifest
	require.NoError(t, json.Unmarshal([]byte(out), &m))
	assert.Equal(t, []string{"part:@sanity/base/client"}, m.Externals)
	assert.Equal(t, []string{"react"}, m.Vendored)
}

func TestConfigInit(t *testing.T) {
	out, err := execute(t, "", "config", "init")
	require.NoError(t, err)
	assert.Contains(t, out, "preview:\n")

	path := filepath.Join(t.TempDir(), "markdown-input.yaml")
	require.NoError(t, writeDefaultConfig(nil, path, false))
	assert.Error(t, writeDefaultConfig(nil, path, false))
	assert.NoError(t, writeDefaultConfig(nil, path, true))
}

func TestConfigCheck(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "markdown-input.yaml")
	require.NoError(t, writeDefaultConfig(nil, path, false))

	out, err := execute(t, "", "config", "check", path)
	require.NoError(t, err)
	assert.Equal(t, path+": ok\n", out)

	bad := filepath.Join(dir, "bad.yaml")
	require.NoError(t, os.WriteFile(bad, []byte("preview:\n  backend: pdf\n"), 0o644))
	_, err = execute(t, "", "config", "check", bad)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "preview.backend")

	typo := filepath.Join(dir, "typo.yaml")
	require.NoError(t, os.WriteFile(typo, []byte("server:\n  http_adr: \":1\"\n"), 0o644))
	_, err = execute(t, "", "config", "check", typo)
	assert.Error(t, err)
}

func TestVersionCommand(t *testing.T) {
	out, err := execute(t, "", "version", "--json")
	require.NoError(t, err)
	var info map[string]string
	require.NoError(t, json.Unmarshal([]byte(out), &info))
	assert.Equal(t, bundle.LibraryName, info["library"])
}

func TestTokenCommandNeedsSecret(t *testing.T) {
	t.Setenv("MARKDOWN_INPUT_AUTH_JWT_SECRET", "")
	_, err := execute(t, "", "token")
	assert.Error(t, err)

	t.Setenv("MARKDOWN_INPUT_AUTH_JWT_SECRET", "s3cret")
	out, err := execute(t, "", "token", "editor")
	require.NoError(t, err)
	assert.Equal(t, 2, strings.Count(strings.TrimSpace(out), "."))
}

func TestUseColor(t *testing.T) {
	var buf bytes.Buffer
	c, err := useColor("always", &buf)
	require.NoError(t, err)
	assert.True(t, c)

	c, err = useColor("auto", &buf)
	require.NoError(t, err)
	assert.False(t, c)

	_, err = useColor("rainbow", &buf)
	assert.Error(t, err)
}
