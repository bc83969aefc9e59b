package provider

import (
	"context"
	"encoding/json"
	"os"
	"strings"
	"time"

	"github.com/oradev/ora/pkg/cache"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/saferegex"
)

// archiveExtensions filters scraped links down to release artifacts.
var archiveExtensions = []string{".zip", ".tar.gz", ".tar.xz", ".tar.bz2", ".tgz"}

// platformTags is the fixed substring table used to classify scraped
// URLs. "-archive" variants appear on some download pages.
var platformTags = []string{
	"linux-x64", "linux-arm64",
	"darwin-x64", "darwin-arm64",
	"win32-x64", "win32-arm64",
}

// scrapedEntry is one classified artifact link.
type scrapedEntry struct {
	URL      string `json:"url"`
	Version  string `json:"version"`
	Platform string `json:"platform"`
}

// scrapeCache is the on-disk cache document, one per discovery URL.
type scrapeCache struct {
	FetchedAt int64          `json:"fetched_at"`
	TTL       int64          `json:"ttl"`
	Entries   []scrapedEntry `json:"entries"`
}

// scrapeProvider discovers versions by scraping a download page. Results
// persist in a per-URL cache file with an absolute expiry so repeated
// commands don't hammer the page.
type scrapeProvider struct {
	rec    *recipe.RepoConfig
	client *httpclient.Client
	cache  *cache.Cache
	ttl    int64

	// now is swappable in tests.
	now func() time.Time
}

func (p *scrapeProvider) clock() time.Time {
	if p.now != nil {
		return p.now()
	}
	return time.Now()
}

func (p *scrapeProvider) discoveryURL() (string, error) {
	if v := p.rec.Source.Version; v != nil && v.DiscoveryURL != "" {
		return v.DiscoveryURL, nil
	}
	if p.rec.Source.Download.URL != "" {
		return p.rec.Source.Download.URL, nil
	}
	return "", errors.Newf(errors.ErrRepoFormat,
		"package %s has no page URL to scrape", p.rec.Name)
}

func (p *scrapeProvider) ListVersions(ctx context.Context) ([]Version, error) {
	entries, err := p.entries(ctx)
	if err != nil {
		return nil, err
	}

	seen := map[string]bool{}
	var versions []Version
	for _, e := range entries {
		if e.Version == "" || seen[e.Version] {
			continue
		}
		seen[e.Version] = true
		versions = append(versions, Version{
			Tag:        e.Version,
			Name:       e.Version,
			Prerelease: InferPrerelease(e.Version),
		})
	}
	SortDescending(versions)
	return versions, nil
}

func (p *scrapeProvider) DownloadURL(ctx context.Context, version, mappedOS, mappedArch string) (string, error) {
	entries, err := p.entries(ctx)
	if err != nil {
		return "", err
	}

	key := mappedOS + "_" + mappedArch
	filter, hasFilter := p.rec.URLFilter(key)

	for _, e := range entries {
		if e.Version != version {
			continue
		}
		if hasFilter {
			if strings.Contains(e.Platform, filter) || strings.Contains(e.URL, filter) {
				return e.URL, nil
			}
			continue
		}
		return e.URL, nil
	}

	return "", errors.Newf(errors.ErrPlatformSupport,
		"no scraped artifact for %s version %s on %s", p.rec.Name, version, key)
}

// entries returns the scraped artifact links, from cache when fresh.
func (p *scrapeProvider) entries(ctx context.Context) ([]scrapedEntry, error) {
	pageURL, err := p.discoveryURL()
	if err != nil {
		return nil, err
	}

	cachePath, err := p.cache.ScraperPath(pageURL)
	if err != nil {
		return nil, err
	}

	if cached, ok := p.loadCache(cachePath); ok {
		return cached.Entries, nil
	}

	entries, err := p.scrape(ctx, pageURL)
	if err != nil {
		return nil, err
	}
	p.storeCache(cachePath, entries)
	return entries, nil
}

func (p *scrapeProvider) loadCache(path string) (*scrapeCache, bool) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, false
	}
	var doc scrapeCache
	if err := json.Unmarshal(data, &doc); err != nil {
		log.Warn().Str("path", path).Msg("Discarding unreadable scraper cache")
		return nil, false
	}
	if p.clock().Unix() >= doc.FetchedAt+doc.TTL {
		return nil, false
	}
	return &doc, true
}

func (p *scrapeProvider) storeCache(path string, entries []scrapedEntry) {
	ttl := p.ttl
	if ttl <= 0 {
		ttl = 3600
	}
	doc := scrapeCache{FetchedAt: p.clock().Unix(), TTL: ttl, Entries: entries}
	data, err := json.Marshal(doc)
	if err != nil {
		return
	}
	if err := os.WriteFile(path, data, 0644); err != nil {
		log.Warn().Err(err).Str("path", path).Msg("Failed to write scraper cache")
	}
}

// scrape fetches the page and classifies every artifact link on it.
func (p *scrapeProvider) scrape(ctx context.Context, pageURL string) ([]scrapedEntry, error) {
	disc := p.rec.Source.Version
	if disc == nil || disc.URLPattern == "" {
		return nil, errors.Newf(errors.ErrRepoFormat,
			"package %s has no url_pattern for scraping", p.rec.Name)
	}

	body, err := p.client.GetText(ctx, pageURL)
	if err != nil {
		return nil, err
	}

	urlRe, err := saferegex.Compile(disc.URLPattern)
	if err != nil {
		return nil, err
	}
	var entries []scrapedEntry
	for _, match := range urlRe.FindAllString(body, -1) {
		if !hasArchiveExtension(match) {
			continue
		}
		entries = append(entries, scrapedEntry{
			URL:      match,
			Version:  extractVersion(disc.VersionPattern, match),
			Platform: classifyPlatform(match),
		})
	}

	log.Debug().Str("page", pageURL).Int("artifacts", len(entries)).Msg("Scraped download page")
	return entries, nil
}

func extractVersion(pattern, url string) string {
	if pattern == "" {
		return ""
	}
	re, err := saferegex.Compile(pattern)
	if err != nil {
		return ""
	}
	match := re.FindStringSubmatch(url)
	if len(match) > 1 {
		return match[1]
	}
	return ""
}

func hasArchiveExtension(url string) bool {
	for _, ext := range archiveExtensions {
		if strings.HasSuffix(url, ext) {
			return true
		}
	}
	return false
}

// classifyPlatform assigns the first matching platform tag, checking the
// "-archive" variant too.
func classifyPlatform(url string) string {
	for _, tag := range platformTags {
		if strings.Contains(url, tag+"-archive") || strings.Contains(url, tag) {
			return tag
		}
	}
	return "unknown"
}
