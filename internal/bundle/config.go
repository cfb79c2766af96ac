// Package bundle describes how the preview widget is packaged into a plugin
// artifact: entry module, output, per-extension loader rules and the module
// specifiers the host supplies at load time.
package bundle

import (
	"encoding/json"
	"fmt"
	"os"
	"regexp"

	"gopkg.in/yaml.v3"
)

// Config is a declarative bundle configuration record.
type Config struct {
	Name         string            `yaml:"name" json:"name"`
	Entry        string            `yaml:"entry" json:"entry"`
	Output       Output            `yaml:"output" json:"output"`
	Rules        []Rule            `yaml:"rules" json:"rules"`
	Externals    []Pattern         `yaml:"externals,omitempty" json:"externals,omitempty"`
	Node         map[string]string `yaml:"node,omitempty" json:"node,omitempty"`
	Optimization *Optimization     `yaml:"optimization,omitempty" json:"optimization,omitempty"`
}

type Output struct {
	Path     string `yaml:"path" json:"path"`
	Filename string `yaml:"filename" json:"filename"`
	Library  string `yaml:"library" json:"library"`
}

// Optimization controls minification. Minimize false with a non-empty
// Minimizer list is ambiguous and reported by Validate.
type Optimization struct {
	Minimize  bool     `yaml:"minimize" json:"minimize"`
	Minimizer []string `yaml:"minimizer,omitempty" json:"minimizer,omitempty"`
}

// Rule applies a loader pipeline to files whose path matches Test and not
// Exclude.
type Rule struct {
	Test    Pattern  `yaml:"test" json:"test"`
	Exclude *Pattern `yaml:"exclude,omitempty" json:"exclude,omitempty"`
	Use     []Loader `yaml:"use" json:"use"`
}

type Loader struct {
	Name    string         `yaml:"loader" json:"loader"`
	Options map[string]any `yaml:"options,omitempty" json:"options,omitempty"`
}

// Matches reports whether the rule applies to path.
func (r Rule) Matches(path string) bool {
	if r.Test.Regexp == nil || !r.Test.MatchString(path) {
		return false
	}
	return r.Exclude == nil || r.Exclude.Regexp == nil || !r.Exclude.MatchString(path)
}

// Pipeline returns the loaders in application order. Loaders are declared
// last-to-first, so the last one runs first.
func (r Rule) Pipeline() []string {
	out := make([]string, 0, len(r.Use))
	for i := len(r.Use) - 1; i >= 0; i-- {
		out = append(out, r.Use[i].Name)
	}
	return out
}

// Pattern is a regular expression that encodes as its source string.
type Pattern struct {
	*regexp.Regexp
}

// MustPattern compiles expr or panics.
func MustPattern(expr string) Pattern {
	return Pattern{regexp.MustCompile(expr)}
}

func (p Pattern) String() string {
	if p.Regexp == nil {
		return ""
	}
	return p.Regexp.String()
}

func (p Pattern) MarshalYAML() (interface{}, error) {
	return p.String(), nil
}

func (p *Pattern) UnmarshalYAML(value *yaml.Node) error {
	var expr string
	if err := value.Decode(&expr); err != nil {
		return err
	}
	return p.set(expr)
}

func (p Pattern) MarshalJSON() ([]byte, error) {
	return json.Marshal(p.String())
}

func (p *Pattern) UnmarshalJSON(data []byte) error {
	var expr string
	if err := json.Unmarshal(data, &expr); err != nil {
		return err
	}
	return p.set(expr)
}

func (p *Pattern) set(expr string) error {
	re, err := regexp.Compile(expr)
	if err != nil {
		return fmt.Errorf("compile pattern %q: %w", expr, err)
	}
	p.Regexp = re
	return nil
}

// Match returns the first rule that applies to path.
func (c *Config) Match(path string) (Rule, bool) {
	for _, r := range c.Rules {
		if r.Matches(path) {
			return r, true
		}
	}
	return Rule{}, false
}

// IsExternal reports whether specifier is supplied by the host and must not
// be bundled.
func (c *Config) IsExternal(specifier string) bool {
	for _, p := range c.Externals {
		if p.Regexp != nil && p.MatchString(specifier) {
			return true
		}
	}
	return false
}

// IsShimmed reports whether a core module is replaced by an inert shim.
func (c *Config) IsShimmed(specifier string) bool {
	return c.Node[specifier] == "empty"
}

// Parse decodes a YAML bundle configuration.
func Parse(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse bundle config: %w", err)
	}
	return &cfg, nil
}

// Load reads a YAML bundle configuration from path.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read bundle config: %w", err)
	}
	return Parse(data)
}

// Marshal encodes cfg as YAML.
func Marshal(cfg *Config) ([]byte, error) {
	return yaml.Marshal(cfg)
}
