// Package extract expands release archives under anti-bomb and
// anti-traversal policies. Links, devices, SUID bits, mtimes and xattrs
// are never reproduced; every created path is re-canonicalized and checked
// against the destination after the write, not only before.
package extract

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
	"github.com/oradev/ora/pkg/paths"
)

var log = logging.GetLogger("extract")

// Extract expands the archive at archivePath into dest. An existing
// destination is removed first so stale files from a previous expansion
// cannot survive.
func Extract(archivePath, dest string, policy config.ExtractionPolicy) error {
	if err := os.RemoveAll(dest); err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to clear extraction directory %s", dest)
	}
	if err := os.MkdirAll(dest, 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create extraction directory %s", dest)
	}

	canonDest, err := filepath.EvalSymlinks(dest)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to canonicalize %s", dest)
	}

	tr := &tracker{policy: policy, canonDest: canonDest}

	name := strings.ToLower(archivePath)
	switch {
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		err = extractTar(archivePath, canonDest, compressGzip, tr)
	case strings.HasSuffix(name, ".tar.xz"), strings.HasSuffix(name, ".txz"):
		err = extractTar(archivePath, canonDest, compressXz, tr)
	case strings.HasSuffix(name, ".zip"):
		err = extractZip(archivePath, canonDest, tr)
	case strings.HasSuffix(name, ".tar"):
		err = extractTar(archivePath, canonDest, compressNone, tr)
	default:
		return errors.Newf(errors.ErrArchiveFormat, "unsupported archive format: %s", filepath.Base(archivePath))
	}
	if err != nil {
		return err
	}

	log.Info().Str("archive", filepath.Base(archivePath)).
		Int("files", tr.fileCount).Int64("bytes", tr.totalSize).
		Msg("Extraction complete")
	return nil
}

// tracker accumulates cumulative extraction state against the policy.
type tracker struct {
	policy    config.ExtractionPolicy
	canonDest string
	totalSize int64
	fileCount int
}

// admitEntry validates one archive entry path and declared size before
// any bytes are written.
func (t *tracker) admitEntry(name string, size int64) error {
	if len(name) > t.policy.MaxPathLength {
		return errors.Newf(errors.ErrPathTooLong, "entry path exceeds %d bytes", t.policy.MaxPathLength)
	}
	if err := checkComponents(name, t.policy.MaxDirectoryDepth); err != nil {
		return err
	}
	if size > t.policy.MaxFileSize {
		return errors.Newf(errors.ErrOversizeFile,
			"entry %s declares %d bytes, limit is %d", name, size, t.policy.MaxFileSize)
	}

	t.fileCount++
	if t.fileCount > t.policy.MaxFileCount {
		return errors.Newf(errors.ErrTooManyFiles, "archive exceeds %d entries", t.policy.MaxFileCount)
	}
	t.totalSize += size
	if t.totalSize > t.policy.MaxTotalSize {
		return errors.Newf(errors.ErrOversizeTotal,
			"cumulative extracted size exceeds %d bytes", t.policy.MaxTotalSize)
	}
	return nil
}

// checkComponents rejects absolute paths and any component other than a
// normal name or ".".
func checkComponents(name string, maxDepth int) error {
	if name == "" {
		return errors.New(errors.ErrPathTraversal, "empty entry path")
	}
	if strings.HasPrefix(name, "/") || filepath.IsAbs(name) || strings.Contains(name, ":\\") {
		return errors.Newf(errors.ErrPathTraversal, "absolute entry path %q", name)
	}

	components := strings.Split(name, "/")
	depth := 0
	for _, c := range components {
		if c == "" || c == "." {
			continue
		}
		if c == ".." {
			return errors.Newf(errors.ErrPathTraversal, "entry path %q escapes the destination", name)
		}
		depth++
	}
	if depth > maxDepth {
		return errors.Newf(errors.ErrDepthExceeded, "entry path %q exceeds depth %d", name, maxDepth)
	}
	return nil
}

// verifyWithin canonicalizes a just-created path and confirms it is still
// inside the destination. Pre-write checks alone are not trusted.
func (t *tracker) verifyWithin(path string) error {
	canon, err := filepath.EvalSymlinks(path)
	if err != nil {
		return errors.Wrapf(err, errors.ErrIO, "failed to canonicalize %s", path)
	}
	if !paths.IsWithin(t.canonDest, canon) {
		_ = os.RemoveAll(path)
		return errors.Newf(errors.ErrPathTraversal, "%s resolved outside the destination", path)
	}
	return nil
}
