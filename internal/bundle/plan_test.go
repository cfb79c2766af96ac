package bundle

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"io"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lucasew/markdown-input/internal/artifacts"
)

var logoPNG = []byte("\x89PNG fake image bytes")

func sampleProject(t *testing.T) afero.Fs {
	t.Helper()
	fs := afero.NewMemMapFs()
	files := map[string]string{
		"/app/src/index.js": `import React from 'react'
import client from 'part:@sanity/base/client'
import fs from 'fs'
import MarkdownInput from './MarkdownInput'
import './style.css'
const docs = require('./docs')
export default MarkdownInput
`,
		"/app/src/MarkdownInput.js": `import {Preview} from './preview'
import TextArea from 'part:@sanity/components/textareas/default'
import debounce from 'lodash/debounce'
import {jsx} from '@emotion/react/jsx-runtime'
`,
		"/app/src/preview/index.js": `import Intro from '../intro.mdx'
import logo from '../logo.png'
`,
		"/app/src/intro.mdx": `import Note from './note'

# Intro

Some *text* about it's use.
`,
		"/app/src/note.md":   "A note.\n",
		"/app/src/style.css": "@import './base.css';\nbody { color: red; }\n",
		"/app/src/base.css":  "html { margin: 0; }\n",
		"/app/src/docs.md":   "# Docs\n",
		"/app/src/logo.png":  string(logoPNG),
	}
	for name, content := range files {
		require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
	}
	return fs
}

func TestPlan(t *testing.T) {
	fs := sampleProject(t)
	m, err := Library().Plan(context.Background(), fs, "/app")
	require.NoError(t, err)

	assert.Equal(t, "dist/markdown-input.js", m.Output)
	assert.Equal(t, "mardownInput", m.Library)
	assert.Equal(t, []string{"part:@sanity/base/client", "part:@sanity/components/textareas/default"}, m.Externals)
	assert.Equal(t, []string{"@emotion/react", "lodash", "react"}, m.Vendored)
	assert.Equal(t, []string{"fs"}, m.Shims)

	paths := map[string]Module{}
	for _, mod := range m.Modules {
		paths[mod.Path] = mod
	}
	for _, p := range []string{
		"src/index.js", "src/MarkdownInput.js", "src/preview/index.js", "src/intro.mdx",
		"src/note.md", "src/style.css", "src/base.css", "src/docs.md", "src/logo.png",
	} {
		assert.Contains(t, paths, p)
	}
	assert.Len(t, m.Modules, 9)
	assert.Equal(t, "src/index.js", m.Modules[0].Path)
	assert.Equal(t, []string{"@mdx-js/loader", "babel-loader"}, paths["src/intro.mdx"].Loaders)
	assert.Equal(t, []string{"src/intro.mdx", "src/logo.png"}, paths["src/preview/index.js"].Imports)

	sum := md5.Sum(logoPNG)
	want := hex.EncodeToString(sum[:]) + ".png"
	require.Len(t, m.Assets, 1)
	assert.Equal(t, Asset{Source: "src/logo.png", Name: want}, m.Assets[0])
	assert.Equal(t, want, paths["src/logo.png"].Asset)
}

func TestPlanErrors(t *testing.T) {
	tests := []struct {
		name    string
		files   map[string]string
		wantErr error
		module  string
	}{
		{
			name:    "missing entry",
			files:   map[string]string{},
			wantErr: ErrUnresolved,
			module:  "(entry)",
		},
		{
			name: "unresolved relative import",
			files: map[string]string{
				"/app/src/index.js": "import x from './missing'\n",
			},
			wantErr: ErrUnresolved,
			module:  "src/index.js",
		},
		{
			name: "import escaping root",
			files: map[string]string{
				"/app/src/index.js": "import x from '../../etc/passwd'\n",
			},
			wantErr: ErrUnresolved,
			module:  "src/index.js",
		},
		{
			name: "no loader for file type",
			files: map[string]string{
				"/app/src/index.js": "import logo from './logo.svg'\n",
				"/app/src/logo.svg": "<svg/>",
			},
			wantErr: ErrNoLoader,
			module:  "src/logo.svg",
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			fs := afero.NewMemMapFs()
			for name, content := range tt.files {
				require.NoError(t, afero.WriteFile(fs, name, []byte(content), 0o644))
			}
			_, err := Library().Plan(context.Background(), fs, "/app")
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.wantErr)

			var be *BuildError
			require.True(t, errors.As(err, &be))
			assert.Equal(t, tt.module, be.Module)
		})
	}
}

func TestWriteManifest(t *testing.T) {
	fs := sampleProject(t)
	cfg := Main()
	m, err := cfg.Plan(context.Background(), fs, "/app")
	require.NoError(t, err)

	out := afero.NewMemMapFs()
	storage := artifacts.NewStorage(out, "/dist")
	require.NoError(t, WriteManifest(context.Background(), storage, fs, "/app", m))

	names, err := storage.List(context.Background(), "main")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"manifest.json", m.Assets[0].Name}, names)

	rc, err := storage.Get(context.Background(), "main", "manifest.json")
	require.NoError(t, err)
	defer rc.Close()
	back, err := ReadManifest(rc)
	require.NoError(t, err)
	assert.Equal(t, m.Output, back.Output)
	assert.Equal(t, m.Externals, back.Externals)

	asset, err := storage.Get(context.Background(), "main", m.Assets[0].Name)
	require.NoError(t, err)
	defer asset.Close()
	data, err := io.ReadAll(asset)
	require.NoError(t, err)
	assert.Equal(t, logoPNG, data)
}
