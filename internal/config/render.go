package config

import (
	"fmt"
	"strings"
)

// RenderDefaultYAML renders a commented YAML config with defaults from
// GetConfigOptions.
func RenderDefaultYAML() string {
	var b strings.Builder
	b.WriteString("# markdown-input configuration (YAML)\n")

	section := ""
	for _, o := range GetConfigOptions() {
		parts := strings.SplitN(o.Key, ".", 2)
		if len(parts) != 2 {
			writeYAMLOption(&b, "", o.Key, o.Default, o.Comment)
			continue
		}
		if parts[0] != section {
			section = parts[0]
			b.WriteString("\n" + section + ":\n")
		}
		writeYAMLOption(&b, "  ", parts[1], o.Default, o.Comment)
	}
	return b.String()
}

func writeYAMLOption(b *strings.Builder, indent, key string, value any, comment string) {
	if comment != "" {
		b.WriteString(indent + "# " + comment + "\n")
	}
	switch v := value.(type) {
	case string:
		b.WriteString(fmt.Sprintf("%s%s: %q\n", indent, key, v))
	case bool, int, int64:
		b.WriteString(fmt.Sprintf("%s%s: %v\n", indent, key, v))
	case []string:
		if len(v) == 0 {
			b.WriteString(fmt.Sprintf("%s%s: []\n", indent, key))
			return
		}
		b.WriteString(fmt.Sprintf("%s%s:\n", indent, key))
		for _, s := range v {
			b.WriteString(fmt.Sprintf("%s  - %q\n", indent, s))
		}
	}
}
