package bundle

import (
	"bytes"
	"context"
	"crypto/md5"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"regexp"
	"sort"
	"strings"

	"github.com/spf13/afero"

	"github.com/lucasew/markdown-input/internal/artifacts"
)

var (
	// ErrUnresolved is returned when a relative import points at no file.
	ErrUnresolved = errors.New("module not found")
	// ErrNoLoader is returned when no rule matches a module in the graph.
	ErrNoLoader = errors.New("no loader configured")
)

// BuildError describes a fatal problem found while walking the module graph.
type BuildError struct {
	Module    string
	Specifier string
	Err       error
}

func (e *BuildError) Error() string {
	if e.Specifier != "" {
		return fmt.Sprintf("%s: can't resolve %q: %v", e.Module, e.Specifier, e.Err)
	}
	return fmt.Sprintf("%s: %v", e.Module, e.Err)
}

func (e *BuildError) Unwrap() error { return e.Err }

// ResolveExtensions are tried in order for extensionless relative imports.
var ResolveExtensions = []string{".js", ".mdx", ".md", ".css"}

// Module is one file pulled into the bundle.
type Module struct {
	Path    string   `json:"path"`
	Loaders []string `json:"loaders"`
	Imports []string `json:"imports,omitempty"`
	Asset   string   `json:"asset,omitempty"`
}

// Asset is a file emitted next to the bundle under a content-hash name.
type Asset struct {
	Source string `json:"source"`
	Name   string `json:"name"`
}

// Manifest is the outcome of planning a build.
type Manifest struct {
	Name      string   `json:"name"`
	Output    string   `json:"output"`
	Library   string   `json:"library"`
	Modules   []Module `json:"modules"`
	Externals []string `json:"externals"`
	Vendored  []string `json:"vendored"`
	Shims     []string `json:"shims"`
	Assets    []Asset  `json:"assets"`
}

var (
	jsImport  = regexp.MustCompile(`(?m)^\s*(?:import|export)\s+(?:[^'";]*?\s+from\s+)?['"]([^'"]+)['"]`)
	jsRequire = regexp.MustCompile(`\brequire\(\s*['"]([^'"]+)['"]\s*\)`)
	cssImport = regexp.MustCompile(`@import\s+(?:url\(\s*)?['"]([^'"]+)['"]`)
)

// Plan walks the module graph from the entry and reports what the bundle
// would contain: each module with its loader pipeline, the specifiers left to
// the host, vendored packages, shimmed core modules and emitted assets.
func (c *Config) Plan(ctx context.Context, fs afero.Fs, root string) (*Manifest, error) {
	entry := path.Clean(strings.TrimPrefix(filepath.ToSlash(c.Entry), "./"))

	m := &Manifest{
		Name:    c.Name,
		Output:  path.Join(filepath.ToSlash(c.Output.Path), c.Output.Filename),
		Library: c.Output.Library,
	}
	if !exists(fs, root, entry) {
		return nil, &BuildError{Module: "(entry)", Specifier: c.Entry, Err: ErrUnresolved}
	}

	externals := map[string]struct{}{}
	vendored := map[string]struct{}{}
	shims := map[string]struct{}{}

	seen := map[string]bool{entry: true}
	queue := []string{entry}
	for len(queue) > 0 {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := queue[0]
		queue = queue[1:]

		rule, ok := c.Match(id)
		if !ok {
			return nil, &BuildError{Module: id, Err: ErrNoLoader}
		}
		src, err := afero.ReadFile(fs, filepath.Join(root, filepath.FromSlash(id)))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", id, err)
		}

		mod := Module{Path: id, Loaders: rule.Pipeline()}
		if emitsFile(rule) {
			name := assetName(id, src)
			mod.Asset = name
			m.Assets = append(m.Assets, Asset{Source: id, Name: name})
			m.Modules = append(m.Modules, mod)
			continue
		}

		for _, spec := range scanImports(id, src) {
			switch {
			case isRelative(spec):
				dep, err := resolve(fs, root, id, spec)
				if err != nil {
					return nil, err
				}
				mod.Imports = append(mod.Imports, dep)
				if !seen[dep] {
					seen[dep] = true
					queue = append(queue, dep)
				}
			case c.IsExternal(spec):
				externals[spec] = struct{}{}
			case c.IsShimmed(spec):
				shims[spec] = struct{}{}
			default:
				vendored[packageName(spec)] = struct{}{}
			}
		}
		m.Modules = append(m.Modules, mod)
	}

	m.Externals = sortedKeys(externals)
	m.Vendored = sortedKeys(vendored)
	m.Shims = sortedKeys(shims)
	if m.Assets == nil {
		m.Assets = []Asset{}
	}
	return m, nil
}

// WriteManifest stores manifest.json and every emitted asset under the
// manifest's build name.
func WriteManifest(ctx context.Context, storage artifacts.Storage, fs afero.Fs, root string, m *Manifest) error {
	data, err := json.MarshalIndent(m, "", "  ")
	if err != nil {
		return fmt.Errorf("encode manifest: %w", err)
	}
	if err := storage.Save(ctx, m.Name, "manifest.json", bytes.NewReader(data)); err != nil {
		return fmt.Errorf("save manifest: %w", err)
	}
	for _, a := range m.Assets {
		if err := copyAsset(ctx, storage, fs, root, m.Name, a); err != nil {
			return err
		}
	}
	return nil
}

func copyAsset(ctx context.Context, storage artifacts.Storage, fs afero.Fs, root, build string, a Asset) error {
	f, err := fs.Open(filepath.Join(root, filepath.FromSlash(a.Source)))
	if err != nil {
		return fmt.Errorf("open asset %s: %w", a.Source, err)
	}
	defer f.Close()
	if err := storage.Save(ctx, build, a.Name, f); err != nil {
		return fmt.Errorf("save asset %s: %w", a.Source, err)
	}
	return nil
}

func scanImports(id string, src []byte) []string {
	var patterns []*regexp.Regexp
	switch strings.ToLower(path.Ext(id)) {
	case ".css":
		patterns = []*regexp.Regexp{cssImport}
	default:
		patterns = []*regexp.Regexp{jsImport, jsRequire}
	}

	var out []string
	seen := map[string]bool{}
	for _, re := range patterns {
		for _, match := range re.FindAllSubmatch(src, -1) {
			spec := string(match[1])
			if !seen[spec] {
				seen[spec] = true
				out = append(out, spec)
			}
		}
	}
	return out
}

func isRelative(spec string) bool {
	return strings.HasPrefix(spec, "./") || strings.HasPrefix(spec, "../")
}

func resolve(fs afero.Fs, root, from, spec string) (string, error) {
	base := path.Join(path.Dir(from), spec)
	if base == ".." || strings.HasPrefix(base, "../") {
		return "", &BuildError{Module: from, Specifier: spec, Err: ErrUnresolved}
	}

	candidates := []string{base}
	for _, ext := range ResolveExtensions {
		candidates = append(candidates, base+ext)
	}
	candidates = append(candidates, path.Join(base, "index.js"))

	for _, cand := range candidates {
		if exists(fs, root, cand) {
			return cand, nil
		}
	}
	return "", &BuildError{Module: from, Specifier: spec, Err: ErrUnresolved}
}

func exists(fs afero.Fs, root, id string) bool {
	info, err := fs.Stat(filepath.Join(root, filepath.FromSlash(id)))
	return err == nil && !info.IsDir()
}

func emitsFile(r Rule) bool {
	for _, l := range r.Use {
		if l.Name == "file-loader" {
			return true
		}
	}
	return false
}

// assetName follows the file-loader default: [contenthash].[ext].
func assetName(id string, src []byte) string {
	sum := md5.Sum(src)
	return hex.EncodeToString(sum[:]) + path.Ext(id)
}

// packageName trims a deep import down to its package, keeping the scope.
func packageName(spec string) string {
	parts := strings.Split(spec, "/")
	if strings.HasPrefix(spec, "@") && len(parts) >= 2 {
		return parts[0] + "/" + parts[1]
	}
	return parts[0]
}

func sortedKeys(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for k := range set {
		out = append(out, k)
	}
	sort.Strings(out)
	return out
}

// ReadManifest decodes a manifest written by WriteManifest.
func ReadManifest(r io.Reader) (*Manifest, error) {
	var m Manifest
	if err := json.NewDecoder(r).Decode(&m); err != nil {
		return nil, fmt.Errorf("decode manifest: %w", err)
	}
	return &m, nil
}
