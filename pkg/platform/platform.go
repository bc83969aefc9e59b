// Package platform detects the running platform and maps it through
// recipe-supplied naming tables before URL templating.
package platform

import (
	"runtime"
)

// Platform is the detected (os, arch) pair before any mapping.
type Platform struct {
	OS   string
	Arch string
}

// Default mapping tables applied when a recipe does not supply its own.
// Upstream release artifacts are most commonly named with these tokens.
var (
	defaultOSMap = map[string]string{
		"macos":  "darwin",
		"darwin": "darwin",
		"linux":  "linux",
	}
	defaultArchMap = map[string]string{
		"x86_64":  "amd64",
		"amd64":   "amd64",
		"aarch64": "arm64",
		"arm64":   "arm64",
	}
)

// Detect returns the current platform. The OS name is normalized to the
// token upstream projects use (runtime.GOOS already matches for linux and
// darwin).
func Detect() Platform {
	return Platform{OS: runtime.GOOS, Arch: normalizeArch(runtime.GOARCH)}
}

func normalizeArch(arch string) string {
	switch arch {
	case "amd64":
		return "x86_64"
	case "arm64":
		return "aarch64"
	}
	return arch
}

// Map applies the recipe's os/arch mapping tables, falling back to the
// defaults for keys the recipe does not cover.
func (p Platform) Map(osMap, archMap map[string]string) (mappedOS, mappedArch string) {
	mappedOS = lookup(p.OS, osMap, defaultOSMap)
	mappedArch = lookup(p.Arch, archMap, defaultArchMap)
	return mappedOS, mappedArch
}

func lookup(key string, userMap, defaults map[string]string) string {
	if userMap != nil {
		if v, ok := userMap[key]; ok {
			return v
		}
	}
	if v, ok := defaults[key]; ok {
		return v
	}
	return key
}
