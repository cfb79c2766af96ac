package config

import (
	"errors"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix namespaces environment overrides, e.g. MARKDOWN_INPUT_AUTH_JWT_SECRET.
const EnvPrefix = "MARKDOWN_INPUT"

type ConfigOption struct {
	Key     string
	Default any
	Comment string
}

// GetConfigOptions returns the default configuration options and their meanings.
func GetConfigOptions() []ConfigOption {
	return []ConfigOption{
		{Key: "server.http_addr", Default: ":8080", Comment: "HTTP listen address for the preview server"},
		{Key: "server.allowed_origins", Default: []string{}, Comment: "Origins allowed by CORS and the live preview socket; empty allows same-origin only"},
		{Key: "server.max_body_bytes", Default: int64(1 << 20), Comment: "Maximum request body size in bytes"},
		{Key: "server.shutdown_timeout", Default: "10s", Comment: "Grace period for in-flight requests on shutdown"},

		{Key: "auth.jwt_secret", Default: "", Comment: "HS256 secret for bearer tokens on /v1; empty disables auth"},
		{Key: "auth.token_ttl", Default: "24h", Comment: "Lifetime of tokens issued by the token command"},

		{Key: "log.level", Default: "info", Comment: "debug, info, warn or error"},
		{Key: "log.format", Default: "text", Comment: "text or json"},

		{Key: "preview.backend", Default: "html", Comment: "Default renderer: html, term or termhtml"},
		{Key: "preview.skip_html", Default: false, Comment: "Drop raw HTML from the source"},
		{Key: "preview.escape_html", Default: true, Comment: "Show raw HTML as text; ignored when skip_html is set"},
		{Key: "preview.link_target", Default: "", Comment: "target attribute added to links"},
		{Key: "preview.source_pos", Default: false, Comment: "Annotate blocks with data-sourcepos"},
		{Key: "preview.disallowed_types", Default: []string{}, Comment: "mdast node types removed from the output, e.g. image or html"},
		{Key: "preview.unwrap_disallowed", Default: false, Comment: "Keep the children of removed nodes"},
		{Key: "preview.gfm", Default: true, Comment: "GitHub Flavored Markdown extensions"},
		{Key: "preview.hard_wraps", Default: false, Comment: "Render soft line breaks as <br>"},
		{Key: "preview.mdx", Default: true, Comment: "Accept MDX import/export blocks"},
		{Key: "preview.frontmatter", Default: true, Comment: "Parse YAML front matter into meta"},
		{Key: "preview.highlight", Default: false, Comment: "Syntax highlight fenced code"},
		{Key: "preview.emoji", Default: false, Comment: "Replace :shortcodes: with emoji"},
		{Key: "preview.sanitize", Default: true, Comment: "Run HTML output through the UGC sanitizer"},

		{Key: "terminal.style", Default: "dark", Comment: "glamour style for the term backend"},
		{Key: "terminal.width", Default: 80, Comment: "Word wrap column for the term backend; 0 disables wrapping"},

		{Key: "bundle.preset", Default: "library", Comment: "Built-in bundle preset: library or main"},
		{Key: "bundle.file", Default: "", Comment: "YAML bundle config; overrides the preset when set"},
		{Key: "bundle.root", Default: ".", Comment: "Project root the bundle entry is resolved against"},
		{Key: "bundle.out_dir", Default: "dist", Comment: "Where bundle manifests and assets are written"},
	}
}

// applyDefaults seeds Viper with defaults defined in GetConfigOptions.
func applyDefaults(v *viper.Viper) {
	for _, o := range GetConfigOptions() {
		v.SetDefault(o.Key, o.Default)
	}
}

// Setup resolves configuration with precedence: defaults < file < env < flags.
// When configFile is empty markdown-input.yaml is searched in the working
// directory. It returns the config file used, if any.
func Setup(v *viper.Viper, configFile string) (string, error) {
	if configFile != "" {
		v.SetConfigFile(configFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("markdown-input")
		v.SetConfigType("yaml")
	}

	applyDefaults(v)

	v.SetEnvPrefix(EnvPrefix)
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if configFile == "" && errors.As(err, &notFound) {
			return "", nil
		}
		return "", err
	}
	return v.ConfigFileUsed(), nil
}
