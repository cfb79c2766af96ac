package bundle

import (
	"fmt"
	"sort"
)

const (
	// LibraryName is the global identifier the host loads the artifact under.
	LibraryName = "mardownInput"

	HostExternals = `^part:@sanity\/.+$`
)

// baseConfig holds what both presets share.
func baseConfig(name, filename string) *Config {
	return &Config{
		Name:  name,
		Entry: "./src/index.js",
		Output: Output{
			Path:     "dist",
			Filename: filename,
			Library:  LibraryName,
		},
		Rules: []Rule{
			{
				Test:    MustPattern(`\.js$`),
				Exclude: ptr(MustPattern(`node_modules`)),
				Use: []Loader{
					{Name: "babel-loader", Options: map[string]any{"babelrc": true}},
				},
			},
			{
				Test: MustPattern(`(?i)\.css$`),
				Use: []Loader{
					{Name: "css-loader", Options: map[string]any{"import": true}},
				},
			},
			{
				Test: MustPattern(`\.mdx?$`),
				Use: []Loader{
					{Name: "babel-loader"},
					{Name: "@mdx-js/loader"},
				},
			},
			{
				Test: MustPattern(`(?i)\.(png|jpe?g|gif)$`),
				Use: []Loader{
					{Name: "file-loader"},
				},
			},
		},
		Externals: []Pattern{MustPattern(HostExternals)},
		Node:      map[string]string{"fs": "empty"},
	}
}

// Library is the plugin build: markdown-input.js, default minification.
func Library() *Config {
	return baseConfig("library", "markdown-input.js")
}

// Main is the main.js build. It turns minimization off but still lists a
// minimizer plugin, which Validate flags.
func Main() *Config {
	cfg := baseConfig("main", "main.js")
	cfg.Optimization = &Optimization{
		Minimize:  false,
		Minimizer: []string{"terser-webpack-plugin"},
	}
	return cfg
}

var presets = map[string]func() *Config{
	"library": Library,
	"main":    Main,
}

// Preset returns a fresh copy of a named preset.
func Preset(name string) (*Config, error) {
	fn, ok := presets[name]
	if !ok {
		return nil, fmt.Errorf("unknown bundle preset %q (available: %v)", name, PresetNames())
	}
	return fn(), nil
}

// PresetNames lists the built-in presets.
func PresetNames() []string {
	names := make([]string, 0, len(presets))
	for n := range presets {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}

func ptr[T any](v T) *T { return &v }
