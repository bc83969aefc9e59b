// Package cache manages ora's derived on-disk state: downloaded
// artifacts, registry clones, and scraper results. Everything here can be
// deleted at any time and will be repopulated on demand.
package cache

import (
	"crypto/md5"
	"encoding/hex"
	"os"

	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/logging"
	"github.com/oradev/ora/pkg/paths"
)

var log = logging.GetLogger("cache")

// Cache exposes the cache subdirectories rooted at the paths layout.
type Cache struct {
	paths paths.Paths
}

// New returns a cache over the given layout.
func New(p paths.Paths) *Cache {
	return &Cache{paths: p}
}

// DownloadsDir ensures and returns the downloads directory.
func (c *Cache) DownloadsDir() (string, error) {
	return c.ensure(c.paths.DownloadsDir())
}

// RegistriesDir ensures and returns the registry clone root.
func (c *Cache) RegistriesDir() (string, error) {
	return c.ensure(c.paths.RegistriesDir())
}

// ScraperPath returns the cache file path for a discovery URL. The key is
// a stable hash of the URL, not the URL itself, so arbitrary URLs cannot
// shape filenames.
func (c *Cache) ScraperPath(discoveryURL string) (string, error) {
	if _, err := c.ensure(c.paths.ScrapersDir()); err != nil {
		return "", err
	}
	sum := md5.Sum([]byte(discoveryURL))
	return c.paths.ScraperCachePath(hex.EncodeToString(sum[:])), nil
}

// ClearDownloads removes every downloaded artifact. Called from the
// signal handler before exiting, so failures are logged, not returned.
func (c *Cache) ClearDownloads() {
	dir := c.paths.DownloadsDir()
	if err := os.RemoveAll(dir); err != nil {
		log.Warn().Err(err).Str("dir", dir).Msg("Failed to clear downloads cache")
		return
	}
	log.Debug().Str("dir", dir).Msg("Cleared downloads cache")
}

func (c *Cache) ensure(dir string) (string, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return "", errors.Wrapf(err, errors.ErrDirCreate, "failed to create cache directory %s", dir)
	}
	return dir, nil
}
