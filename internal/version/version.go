package version

import (
	_ "embed"
	"runtime"
	"strings"
)

//go:embed version.txt
var version string

func Get() string {
	return strings.TrimSpace(version)
}

// Info is the payload of the version endpoint and command.
type Info struct {
	Version string `json:"version" yaml:"version"`
	Go      string `json:"go" yaml:"go"`
	Library string `json:"library" yaml:"library"`
}

// Describe reports the build version for the given bundle identifier.
func Describe(library string) Info {
	return Info{Version: Get(), Go: runtime.Version(), Library: library}
}
