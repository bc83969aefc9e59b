package extract

import (
	"archive/zip"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/oradev/ora/pkg/errors"
)

func extractZip(archivePath, canonDest string, tr *tracker) error {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return errors.Wrap(err, errors.ErrArchiveFormat, "invalid zip archive")
	}
	defer func() { _ = r.Close() }()

	// The central directory is available upfront, so a fan-out bomb is
	// rejected before any entry is touched.
	if len(r.File) > tr.policy.MaxFileCount {
		return errors.Newf(errors.ErrTooManyFiles,
			"archive declares %d entries, limit is %d", len(r.File), tr.policy.MaxFileCount)
	}

	for _, f := range r.File {
		if f.FileInfo().IsDir() || strings.HasSuffix(f.Name, "/") {
			if err := tr.admitEntry(f.Name, 0); err != nil {
				return err
			}
			target := filepath.Join(canonDest, f.Name)
			if err := os.MkdirAll(target, 0755); err != nil {
				return errors.Wrapf(err, errors.ErrDirCreate, "failed to create %s", f.Name)
			}
			if err := tr.verifyWithin(target); err != nil {
				return err
			}
			continue
		}

		declared := int64(f.UncompressedSize64)
		if err := tr.admitEntry(f.Name, declared); err != nil {
			return err
		}
		if err := writeZipFile(f, canonDest, declared, tr); err != nil {
			return err
		}
	}
	return nil
}

func writeZipFile(f *zip.File, canonDest string, declared int64, tr *tracker) error {
	target := filepath.Join(canonDest, f.Name)
	if err := os.MkdirAll(filepath.Dir(target), 0755); err != nil {
		return errors.Wrapf(err, errors.ErrDirCreate, "failed to create parent of %s", f.Name)
	}

	rc, err := f.Open()
	if err != nil {
		return errors.Wrapf(err, errors.ErrArchiveFormat, "failed to open entry %s", f.Name)
	}
	defer func() { _ = rc.Close() }()

	// Masking to 0o777 strips SUID and SGID bits.
	mode := f.Mode().Perm() & fs.FileMode(0o777)
	if mode == 0 {
		mode = 0644
	}

	out, err := os.OpenFile(target, os.O_CREATE|os.O_WRONLY|os.O_TRUNC, mode)
	if err != nil {
		return errors.Wrapf(err, errors.ErrFileCreate, "failed to create %s", f.Name)
	}

	written, copyErr := io.Copy(out, io.LimitReader(rc, declared+1))
	closeErr := out.Close()
	if copyErr != nil {
		return errors.Wrapf(copyErr, errors.ErrIO, "failed to write %s", f.Name)
	}
	if closeErr != nil {
		return errors.Wrapf(closeErr, errors.ErrIO, "failed to close %s", f.Name)
	}
	if written > declared {
		_ = os.Remove(target)
		return errors.Newf(errors.ErrOversizeFile, "entry %s exceeds its declared size", f.Name)
	}

	return tr.verifyWithin(target)
}
