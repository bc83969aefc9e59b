package verify

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/recipe"
)

func localClient() *httpclient.Client {
	policy := config.DefaultSecurityConfig().Network
	policy.BlockPrivateNetworks = false
	policy.ValidateDNS = false
	return httpclient.New(policy)
}

func writeArtifact(t *testing.T, content string) (path, digest string) {
	t.Helper()
	path = filepath.Join(t.TempDir(), "hello-linux-amd64.tar.gz")
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	sum := sha256.Sum256([]byte(content))
	return path, hex.EncodeToString(sum[:])
}

func TestParseChecksumContent(t *testing.T) {
	tests := []struct {
		name     string
		content  string
		format   string
		filename string
		want     string
		wantCode errors.ErrorCode
	}{
		{
			name:     "single hash bare digest",
			content:  "ABCDEF0123\n",
			format:   recipe.FormatSingleHash,
			filename: "x.tar.gz",
			want:     "abcdef0123",
		},
		{
			name:     "single hash takes first token",
			content:  "abc123  x.tar.gz",
			format:   recipe.FormatSingleHash,
			filename: "x.tar.gz",
			want:     "abc123",
		},
		{
			name:     "single hash empty file",
			content:  "  \n ",
			format:   recipe.FormatSingleHash,
			filename: "x.tar.gz",
			wantCode: errors.ErrChecksumFormat,
		},
		{
			name:     "multi hash exact match",
			content:  "aaa  other.tar.gz\nbbb  x.tar.gz\n",
			format:   recipe.FormatMultiHash,
			filename: "x.tar.gz",
			want:     "bbb",
		},
		{
			name:     "multi hash binary marker",
			content:  "ccc *x.tar.gz\n",
			format:   recipe.FormatMultiHash,
			filename: "x.tar.gz",
			want:     "ccc",
		},
		{
			name:     "multi hash suffix match",
			content:  "ddd  release/v1/x.tar.gz\n",
			format:   recipe.FormatMultiHash,
			filename: "x.tar.gz",
			want:     "ddd",
		},
		{
			name:     "multi hash skips comments and blanks",
			content:  "# checksums\n\neee  x.tar.gz\n",
			format:   recipe.FormatMultiHash,
			filename: "x.tar.gz",
			want:     "eee",
		},
		{
			name:     "multi hash only comments",
			content:  "# nothing here\n# still nothing\n",
			format:   recipe.FormatMultiHash,
			filename: "x.tar.gz",
			wantCode: errors.ErrChecksumFormat,
		},
		{
			name:     "multi hash no entry",
			content:  "fff  other.tar.gz\n",
			format:   recipe.FormatMultiHash,
			filename: "x.tar.gz",
			wantCode: errors.ErrChecksumFormat,
		},
		{
			name:     "unknown format",
			content:  "abc",
			format:   "exotic",
			filename: "x.tar.gz",
			wantCode: errors.ErrChecksumFormat,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseChecksumContent(tt.content, tt.format, tt.filename)
			if tt.wantCode != "" {
				require.Error(t, err)
				assert.True(t, errors.IsErrorCode(err, tt.wantCode), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestHashFile(t *testing.T) {
	path, digest := writeArtifact(t, "payload")

	got, err := HashFile(path, "sha256")
	require.NoError(t, err)
	assert.Equal(t, digest, got)

	_, err = HashFile(path, "crc32")
	assert.True(t, errors.IsErrorCode(err, errors.ErrChecksumFormat))
}

func testRecipe(checksumURL string) *recipe.RepoConfig {
	return &recipe.RepoConfig{
		Name: "hello",
		Security: recipe.Security{
			Checksum: &recipe.Checksum{
				URL:       checksumURL,
				Algorithm: "sha256",
				Format:    recipe.FormatMultiHash,
			},
		},
	}
}

func TestVerifySuccess(t *testing.T) {
	path, digest := writeArtifact(t, "release artifact")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprintf(w, "%s  hello-linux-amd64.tar.gz\n", digest)
	}))
	defer srv.Close()

	err := Verify(context.Background(), localClient(), path, testRecipe(srv.URL), "v1.0.0", "linux", "amd64", false)
	assert.NoError(t, err)
}

func TestVerifyMismatch(t *testing.T) {
	path, _ := writeArtifact(t, "release artifact")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "0000000000000000000000000000000000000000000000000000000000000000  hello-linux-amd64.tar.gz\n")
	}))
	defer srv.Close()

	err := Verify(context.Background(), localClient(), path, testRecipe(srv.URL), "v1.0.0", "linux", "amd64", false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrChecksumMismatch))
}

func TestVerifyNoChecksumConfigured(t *testing.T) {
	path, _ := writeArtifact(t, "x")
	rec := &recipe.RepoConfig{Name: "hello"}

	err := Verify(context.Background(), localClient(), path, rec, "v1", "linux", "amd64", false)
	assert.True(t, errors.IsErrorCode(err, errors.ErrChecksumMissing))
}

func TestVerifyAllowInsecureSkips(t *testing.T) {
	path, _ := writeArtifact(t, "x")
	rec := &recipe.RepoConfig{Name: "hello"}

	assert.NoError(t, Verify(context.Background(), localClient(), path, rec, "v1", "linux", "amd64", true))
}

func TestVerifySignatureFailsClosed(t *testing.T) {
	path, digest := writeArtifact(t, "signed artifact")

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/sums" {
			fmt.Fprintf(w, "%s  hello-linux-amd64.tar.gz\n", digest)
			return
		}
		_, _ = w.Write([]byte("fake signature bytes"))
	}))
	defer srv.Close()

	rec := testRecipe(srv.URL + "/sums")
	rec.Security.GPG = &recipe.GPG{SignatureURL: srv.URL + "/artifact.sig"}

	err := Verify(context.Background(), localClient(), path, rec, "v1.0.0", "linux", "amd64", false)
	require.Error(t, err)
	assert.True(t, errors.IsErrorCode(err, errors.ErrGpgNotImplemented))

	// The signature was still fetched next to the artifact.
	_, statErr := os.Stat(path + ".sig")
	assert.NoError(t, statErr)
}
