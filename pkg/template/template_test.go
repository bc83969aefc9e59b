package template

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oradev/ora/pkg/errors"
)

func TestResolve(t *testing.T) {
	tests := []struct {
		name     string
		template string
		vars     map[string]string
		want     string
	}{
		{
			name:     "plain substitution",
			template: "hello-{os}-{arch}.tar.gz",
			vars:     map[string]string{"os": "linux", "arch": "amd64"},
			want:     "hello-linux-amd64.tar.gz",
		},
		{
			name:     "missing variable leaves placeholder",
			template: "hello-{os}-{arch}.tar.gz",
			vars:     map[string]string{"os": "linux"},
			want:     "hello-linux-{arch}.tar.gz",
		},
		{
			name:     "repeated placeholder",
			template: "{v}/{v}.tar.gz",
			vars:     map[string]string{"v": "1.0"},
			want:     "1.0/1.0.tar.gz",
		},
		{
			name:     "url context percent-encodes value",
			template: "https://example.com/releases/{version}/dl",
			vars:     map[string]string{"version": "v1.0 beta"},
			want:     "https://example.com/releases/v1.0%20beta/dl",
		},
		{
			name:     "non-url context inserts verbatim",
			template: "name {version}",
			vars:     map[string]string{"version": "v1.0 beta"},
			want:     "name v1.0 beta",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Resolve(tt.template, tt.vars)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestResolvePolicyViolations(t *testing.T) {
	tests := []struct {
		name     string
		value    string
		wantCode errors.ErrorCode
	}{
		{"path traversal", "../../etc", errors.ErrTemplateTraversal},
		{"null byte", "v1\x00.0", errors.ErrTemplateNullByte},
		{"newline", "v1\n.0", errors.ErrTemplateNewline},
		{"carriage return", "v1\r.0", errors.ErrTemplateNewline},
		{"too long", strings.Repeat("a", 1025), errors.ErrTemplateTooLong},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Resolve("https://example.com/{version}", map[string]string{"version": tt.value})
			require.Error(t, err)
			assert.True(t, errors.IsErrorCode(err, tt.wantCode), "got %v", err)
		})
	}
}

func TestResolveWithPolicyBoundaries(t *testing.T) {
	policy := DefaultPolicy()
	policy.MaxValueLength = 4

	_, err := ResolveWithPolicy("x-{v}", map[string]string{"v": "12345"}, policy)
	assert.True(t, errors.IsErrorCode(err, errors.ErrTemplateTooLong))

	got, err := ResolveWithPolicy("x-{v}", map[string]string{"v": "1234"}, policy)
	require.NoError(t, err)
	assert.Equal(t, "x-1234", got)
}

func TestResolveUnusedVariableNotChecked(t *testing.T) {
	// Policy applies only to variables the template actually references.
	got, err := Resolve("static", map[string]string{"v": "../../etc"})
	require.NoError(t, err)
	assert.Equal(t, "static", got)
}

func TestResolveURLEncodingDisabled(t *testing.T) {
	policy := DefaultPolicy()
	policy.URLEncode = false

	got, err := ResolveWithPolicy("https://example.com/{v}", map[string]string{"v": "a b"}, policy)
	require.NoError(t, err)
	assert.Equal(t, "https://example.com/a b", got)
}
