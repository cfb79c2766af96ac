package bundle

import (
	"errors"
	"fmt"
	"strings"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid bundle config")

// Warning is a non-fatal configuration finding.
type Warning struct {
	Field   string `json:"field"`
	Message string `json:"message"`
}

func (w Warning) String() string {
	return fmt.Sprintf("%s: %s", w.Field, w.Message)
}

// Validate checks the record for missing required fields and surfaces
// ambiguous settings as warnings. All errors are reported together.
func (c *Config) Validate() ([]Warning, error) {
	var errs []error
	fail := func(field, msg string) {
		errs = append(errs, fmt.Errorf("%w: %s: %s", ErrInvalidConfig, field, msg))
	}

	if strings.TrimSpace(c.Entry) == "" {
		fail("entry", "is required")
	}
	if strings.TrimSpace(c.Output.Filename) == "" {
		fail("output.filename", "is required")
	}
	if strings.TrimSpace(c.Output.Library) == "" {
		fail("output.library", "is required")
	}
	for i, r := range c.Rules {
		if r.Test.Regexp == nil {
			fail(fmt.Sprintf("rules[%d].test", i), "is required")
		}
		if len(r.Use) == 0 {
			fail(fmt.Sprintf("rules[%d].use", i), "needs at least one loader")
		}
		for j, l := range r.Use {
			if strings.TrimSpace(l.Name) == "" {
				fail(fmt.Sprintf("rules[%d].use[%d].loader", i, j), "is required")
			}
		}
	}
	for i, p := range c.Externals {
		if p.Regexp == nil {
			fail(fmt.Sprintf("externals[%d]", i), "is empty")
		}
	}
	for mod, mode := range c.Node {
		if mode != "empty" {
			fail("node."+mod, fmt.Sprintf("unsupported mode %q", mode))
		}
	}

	var warnings []Warning
	if o := c.Optimization; o != nil && !o.Minimize && len(o.Minimizer) > 0 {
		warnings = append(warnings, Warning{
			Field: "optimization",
			Message: fmt.Sprintf("minimize is false but minimizer plugins are configured (%s); set minimize or drop the plugins",
				strings.Join(o.Minimizer, ", ")),
		})
	}
	if len(c.Externals) == 0 {
		warnings = append(warnings, Warning{
			Field:   "externals",
			Message: "no host externals; host modules will be bundled",
		})
	}

	return warnings, errors.Join(errs...)
}
