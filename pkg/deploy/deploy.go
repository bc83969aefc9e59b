// Package deploy moves an extracted archive into its versioned install
// directory and creates binary shims. Every write is path-bounded: copies
// are re-canonicalized against the install directory, and symlinks are
// verified to live in the bin directory and point at regular files inside
// the install tree.
package deploy

import (
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/recipe"
)

var log = logging.GetLogger("deploy")

// Result records what deployment created, for the installed database.
type Result struct {
	InstallDir string
	Files      []string
	Symlinks   []string
}

// Deploy copies the extracted tree into the versioned package directory
// and links the recipe's binaries into the bin directory.
func Deploy(extractDir string, install recipe.Install, p paths.Paths, mode paths.InstallMode, name, version string) (*Result, error) {
	installDir := p.PackageDir(mode, name, version)
	if err := os.RemoveAll(installDir); err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to clear %s", installDir)
	}
	if err := os.MkdirAll(installDir, 0755); err != nil {
		return nil, errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", installDir)
	}
	canonInstall, err := filepath.EvalSymlinks(installDir)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to canonicalize %s", installDir)
	}

	result := &Result{InstallDir: installDir}

	if err := copyTree(extractDir, canonInstall, result); err != nil {
		return nil, err
	}

	if err := linkBinaries(install.Binaries, canonInstall, p.BinDir(mode), result); err != nil {
		return nil, err
	}

	if err := placeAdditionalFiles(install.Files, canonInstall); err != nil {
		return nil, err
	}

	log.Info().Str("package", name).Str("version", version).
		Int("files", len(result.Files)).Int("symlinks", len(result.Symlinks)).
		Msg("Deployed")
	return result, nil
}

// copyTree walks the extracted tree, copying regular files and recreating
// directories. Symlinks were already blocked at extraction; any that
// appear anyway are skipped.
func copyTree(src, canonInstall string, result *Result) error {
	return filepath.Walk(src, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to walk %s", src)
		}
		rel, err := filepath.Rel(src, path)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to relativize %s", path)
		}
		if rel == "." {
			return nil
		}
		for _, component := range strings.Split(rel, string(filepath.Separator)) {
			if component == ".." {
				return errors.Newf(errors.ErrPathEscape, "path %s escapes the extraction directory", rel)
			}
		}

		target := filepath.Join(canonInstall, rel)

		if info.Mode()&os.ModeSymlink != 0 {
			log.Warn().Str("path", rel).Msg("Skipping symlink in extracted tree")
			return nil
		}
		if info.IsDir() {
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", target)
			}
			return nil
		}
		if !info.Mode().IsRegular() {
			log.Warn().Str("path", rel).Msg("Skipping special file in extracted tree")
			return nil
		}

		if err := copyFile(path, target, info.Mode().Perm()&0o777); err != nil {
			return err
		}
		canon, err := filepath.EvalSymlinks(target)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to canonicalize %s", target)
		}
		if !paths.IsWithin(canonInstall, canon) {
			_ = os.Remove(target)
			return errors.Newf(errors.ErrPathEscape, "%s resolved outside the install directory", rel)
		}
		result.Files = append(result.Files, target)
		return nil
	})
}

// linkBinaries resolves each binary pattern inside the install tree and
// links it from the bin directory.
func linkBinaries(binaries []string, canonInstall, binDir string, result *Result) error {
	if len(binaries) == 0 {
		return nil
	}
	if err := os.MkdirAll(binDir, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", binDir)
	}
	canonBin, err := filepath.EvalSymlinks(binDir)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to canonicalize %s", binDir)
	}

	for _, pattern := range binaries {
		target, err := resolveBinary(canonInstall, pattern)
		if err != nil {
			return err
		}

		if err := ensureExecutable(target); err != nil {
			return err
		}

		dest := filepath.Join(canonBin, filepath.Base(target))
		if filepath.Dir(dest) != canonBin {
			return errors.Newf(errors.ErrSymlinkTarget, "refusing symlink outside %s", canonBin)
		}

		if fi, err := os.Lstat(dest); err == nil {
			if fi.Mode()&os.ModeSymlink == 0 {
				return errors.Newf(errors.ErrSymlinkExists,
					"%s exists and is not a symlink, refusing to replace it", dest)
			}
			if err := os.Remove(dest); err != nil {
				return errors.Wrapf(err, errors.ErrIO, "failed to replace %s", dest)
			}
		}

		if err := os.Symlink(target, dest); err != nil {
			return errors.Wrapf(err, errors.ErrIO, "failed to link %s", dest)
		}
		result.Symlinks = append(result.Symlinks, dest)
	}
	return nil
}

// resolveBinary globs a pattern under the install dir, takes the first
// match in sorted order, and verifies it is a regular file that stays
// inside the install tree.
func resolveBinary(canonInstall, pattern string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(canonInstall, pattern))
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid binary pattern %q", pattern)
	}
	if len(matches) == 0 {
		return "", errors.Newf(errors.ErrGlobNoMatch, "no file matches binary pattern %q", pattern)
	}
	sort.Strings(matches)
	candidate := matches[0]

	canon, err := filepath.EvalSymlinks(candidate)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to canonicalize %s", candidate)
	}
	if !paths.IsWithin(canonInstall, canon) {
		return "", errors.Newf(errors.ErrPathEscape, "binary %q resolves outside the install directory", pattern)
	}

	fi, err := os.Stat(canon)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrIO, "failed to stat %s", canon)
	}
	if !fi.Mode().IsRegular() {
		return "", errors.Newf(errors.ErrMissingBinary, "binary %q is not a regular file", pattern)
	}
	return canon, nil
}

// ensureExecutable grants the user-execute bit when missing.
func ensureExecutable(path string) error {
	fi, err := os.Stat(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to stat %s", path)
	}
	if fi.Mode()&0o100 == 0 {
		if err := os.Chmod(path, fi.Mode().Perm()|0o100); err != nil {
			return errors.Wrapf(err, errors.ErrPermission, "failed to make %s executable", path)
		}
	}
	return nil
}

// placeAdditionalFiles copies recipe-declared file mappings, with both
// ends bounded inside the install directory.
func placeAdditionalFiles(files []recipe.FileMapping, canonInstall string) error {
	for _, f := range files {
		src := filepath.Join(canonInstall, f.Src)
		canonSrc, err := filepath.EvalSymlinks(src)
		if err != nil {
			return errors.Wrapf(err, errors.ErrIO, "additional file %q not found", f.Src)
		}
		if !paths.IsWithin(canonInstall, canonSrc) {
			return errors.Newf(errors.ErrPathEscape, "additional file %q resolves outside the install directory", f.Src)
		}

		dst := filepath.Join(canonInstall, f.Dst)
		if !paths.IsWithin(canonInstall, filepath.Clean(dst)) {
			return errors.Newf(errors.ErrPathEscape, "additional file destination %q escapes the install directory", f.Dst)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
			return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", f.Dst)
		}
		if err := copyFile(canonSrc, dst, 0644); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dst string, mode os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to open %s", src)
	}
	defer func() { _ = in.Close() }()

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", dst)
	}

	if mode == 0 {
		mode = 0644
	}
	out, err := os.OpenFile(dst, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "failed to create %s", dst)
	}

	_, copyErr := io.Copy(out, in)
	closeErr := out.Close()
	if copyErr != nil {
		return errors.Wrapf(copyErr, errors.ErrIO, "failed to copy to %s", dst)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, errors.ErrIO, "failed to close %s", dst)
	}
	return nil
}
