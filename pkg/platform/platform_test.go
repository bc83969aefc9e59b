package platform

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestMap(t *testing.T) {
	tests := []struct {
		name     string
		platform Platform
		osMap    map[string]string
		archMap  map[string]string
		wantOS   string
		wantArch string
	}{
		{
			name:     "defaults for linux x86_64",
			platform: Platform{OS: "linux", Arch: "x86_64"},
			wantOS:   "linux",
			wantArch: "amd64",
		},
		{
			name:     "defaults for macos aarch64",
			platform: Platform{OS: "macos", Arch: "aarch64"},
			wantOS:   "darwin",
			wantArch: "arm64",
		},
		{
			name:     "recipe map overrides default",
			platform: Platform{OS: "linux", Arch: "x86_64"},
			osMap:    map[string]string{"linux": "Linux"},
			archMap:  map[string]string{"x86_64": "x64"},
			wantOS:   "Linux",
			wantArch: "x64",
		},
		{
			name:     "recipe map falls through to default for missing key",
			platform: Platform{OS: "darwin", Arch: "aarch64"},
			osMap:    map[string]string{"linux": "Linux"},
			wantOS:   "darwin",
			wantArch: "arm64",
		},
		{
			name:     "unknown values pass through unchanged",
			platform: Platform{OS: "freebsd", Arch: "riscv64"},
			wantOS:   "freebsd",
			wantArch: "riscv64",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			gotOS, gotArch := tt.platform.Map(tt.osMap, tt.archMap)
			assert.Equal(t, tt.wantOS, gotOS)
			assert.Equal(t, tt.wantArch, gotArch)
		})
	}
}

func TestDetect(t *testing.T) {
	p := Detect()
	assert.NotEmpty(t, p.OS)
	assert.NotEmpty(t, p.Arch)
	// GOARCH tokens are normalized to upstream naming
	assert.NotEqual(t, "amd64", p.Arch)
	assert.NotEqual(t, "arm64", p.Arch)
}
