package registry

import (
	"context"
	"net/url"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
)

type registryKind int

const (
	kindGit registryKind = iota
	kindDirectURL
)

// kindOf infers the registry kind from the URL.
func kindOf(rawURL string) registryKind {
	if strings.Contains(rawURL, ".git") {
		return kindGit
	}
	return kindDirectURL
}

// validateGitURL enforces the git scheme policy. https is the only
// default; git://, ssh:// and file:// stay blocked unless explicitly
// allowed.
func (m *Manager) validateGitURL(rawURL string) error {
	u, err := url.Parse(rawURL)
	if err != nil {
		return errors.Wrapf(err, errors.ErrInvalidInput, "invalid registry URL %q", rawURL)
	}

	allowed := m.policy.AllowedGitSchemes
	if m.policy.HTTPSOnly || len(allowed) == 0 {
		allowed = []string{"https"}
	}
	for _, s := range allowed {
		if u.Scheme == s {
			return nil
		}
	}
	return errors.Newf(errors.ErrGitScheme, "git scheme %q is not allowed for registries", u.Scheme)
}

// Sync brings one registry's local state up to date. Git registries
// clone shallowly or fast-forward; direct registries have nothing to
// sync eagerly.
func (m *Manager) Sync(ctx context.Context, name string) error {
	entry, ok := m.cfg.FindRegistry(name)
	if !ok {
		return errors.Newf(errors.ErrRegistryNotFound, "registry %q is not configured", name)
	}
	if kindOf(entry.URL) != kindGit {
		log.Debug().Str("registry", name).Msg("Direct registry, nothing to sync")
		return nil
	}
	return m.syncGit(ctx, *entry)
}

// SyncAll syncs every enabled registry, continuing past failures.
func (m *Manager) SyncAll(ctx context.Context) error {
	var firstErr error
	for _, entry := range m.cfg.EnabledRegistries() {
		if err := m.Sync(ctx, entry.Name); err != nil {
			log.Warn().Err(err).Str("registry", entry.Name).Msg("Registry sync failed")
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

func (m *Manager) syncGit(ctx context.Context, entry config.RegistryEntry) error {
	if err := m.validateGitURL(entry.URL); err != nil {
		return err
	}

	timeout := time.Duration(m.policy.GitTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 300 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	cloneDir := m.paths.RegistryCloneDir(entry.Name)
	gitDir := filepath.Join(cloneDir, ".git")

	if _, err := os.Stat(gitDir); err == nil {
		return m.pull(ctx, cloneDir, entry)
	}
	return m.clone(ctx, cloneDir, entry)
}

// clone performs a shallow clone and enforces the repository size cap.
// An over-limit clone is deleted before failing.
func (m *Manager) clone(ctx context.Context, cloneDir string, entry config.RegistryEntry) error {
	if err := os.MkdirAll(filepath.Dir(cloneDir), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create registry cache")
	}

	args := []string{"clone", "--depth", "1"}
	if entry.Branch != "" {
		args = append(args, "--branch", entry.Branch)
	}
	args = append(args, entry.URL, cloneDir)

	if _, err := runGit(ctx, "", args...); err != nil {
		return errors.Wrapf(err, errors.ErrGitOperation, "failed to clone registry %q", entry.Name)
	}

	maxBytes := m.policy.MaxGitSizeMB * 1024 * 1024
	if size := dirSize(filepath.Join(cloneDir, ".git")); maxBytes > 0 && size > maxBytes {
		_ = os.RemoveAll(cloneDir)
		return errors.Newf(errors.ErrGitBomb,
			"registry %q clone is %d bytes, over the %d MB limit", entry.Name, size, m.policy.MaxGitSizeMB)
	}

	log.Info().Str("registry", entry.Name).Str("dir", cloneDir).Msg("Registry cloned")
	return nil
}

// pull fetches the tracked branch and fast-forwards. Anything that can't
// fast-forward is left alone; the clone is a cache, so the user can
// remove and re-add the registry.
func (m *Manager) pull(ctx context.Context, cloneDir string, entry config.RegistryEntry) error {
	branch := entry.Branch
	if branch == "" {
		branch = detectDefaultBranch(ctx, cloneDir)
	}

	if _, err := runGit(ctx, cloneDir, "fetch", "--depth", "1", "origin", branch); err != nil {
		return errors.Wrapf(err, errors.ErrGitOperation, "failed to fetch registry %q", entry.Name)
	}
	if _, err := runGit(ctx, cloneDir, "merge", "--ff-only", "FETCH_HEAD"); err != nil {
		return errors.Wrapf(err, errors.ErrGitOperation, "failed to fast-forward registry %q", entry.Name)
	}

	log.Info().Str("registry", entry.Name).Msg("Registry updated")
	return nil
}

func detectDefaultBranch(ctx context.Context, cloneDir string) string {
	out, err := runGit(ctx, cloneDir, "rev-parse", "--abbrev-ref", "HEAD")
	if err == nil && out != "" {
		return out
	}
	return "main"
}

// runGit executes one git subcommand, optionally inside dir.
func runGit(ctx context.Context, dir string, args ...string) (string, error) {
	cmd := exec.CommandContext(ctx, "git", args...)
	if dir != "" {
		cmd.Dir = dir
	}
	output, err := cmd.CombinedOutput()
	trimmed := strings.TrimSpace(string(output))
	if err != nil {
		log.Debug().Str("args", strings.Join(args, " ")).Str("output", trimmed).Msg("git command failed")
		return trimmed, err
	}
	return trimmed, nil
}

// dirSize walks a directory tree summing regular file sizes.
func dirSize(root string) int64 {
	var total int64
	_ = filepath.Walk(root, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if info.Mode().IsRegular() {
			total += info.Size()
		}
		return nil
	})
	return total
}
