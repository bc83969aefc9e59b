// Package install stitches the full pipeline together: recipe
// resolution, version discovery, download, verification, extraction,
// deployment, and state recording. One Installer instance owns the
// installed database for the lifetime of a CLI invocation.
package install

import (
	"context"
	"net/url"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/oradev/ora/pkg/audit"
	"github.com/oradev/ora/pkg/cache"
	"github.com/oradev/ora/pkg/config"
	"github.com/oradev/ora/pkg/deploy"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/extract"
	"github.com/oradev/ora/pkg/httpclient"
	"github.com/oradev/ora/pkg/installdb"
	"github.com/oradev/ora/pkg/logging"
	"github.com/oradev/ora/pkg/paths"
	"github.com/oradev/ora/pkg/platform"
	"github.com/oradev/ora/pkg/provider"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/registry"
	"github.com/oradev/ora/pkg/ui"
	"github.com/oradev/ora/pkg/verify"
)

var log = logging.GetLogger("install")

// Options carries the per-invocation flags.
type Options struct {
	// Version pins an exact release tag instead of latest stable.
	Version string

	// Mode selects userland or system layout. Empty falls back to the
	// configured default.
	Mode paths.InstallMode

	// AllowInsecure lets an allow_insecure recipe proceed and skips the
	// post-install confirmation prompt.
	AllowInsecure bool

	// RepoFile installs from a local recipe file instead of a registry.
	RepoFile string

	// LocalArchive and MetadataFile install a local archive without any
	// discovery, download, or verification.
	LocalArchive string
	MetadataFile string
}

// Installer owns the shared state for install, uninstall, and update
// operations.
type Installer struct {
	paths      paths.Paths
	cfg        *config.GlobalConfig
	sec        config.SecurityConfig
	client     *httpclient.Client
	cache      *cache.Cache
	registries *registry.Manager
	db         *installdb.Database
	audit      *audit.Logger
	plat       platform.Platform

	// stdin feeds the post-install confirmation prompt.
	stdin *os.File
}

// New loads configuration and state and wires up an Installer.
func New(p paths.Paths) (*Installer, error) {
	cfg, err := config.LoadGlobalConfig(p.GlobalConfigPath())
	if err != nil {
		return nil, err
	}
	sec, err := config.LoadSecurityConfig(p.SecurityConfigPath())
	if err != nil {
		return nil, err
	}
	db, err := installdb.Load(p.InstalledDBPath())
	if err != nil {
		return nil, err
	}

	client := httpclient.New(sec.Network)
	return &Installer{
		paths:      p,
		cfg:        &cfg,
		sec:        sec,
		client:     client,
		cache:      cache.New(p),
		registries: registry.NewManager(&cfg, p.GlobalConfigPath(), p, client, sec.Registries),
		db:         db,
		audit:      audit.New(p.AuditLogPath()),
		plat:       platform.Detect(),
		stdin:      os.Stdin,
	}, nil
}

// DB exposes the installed database for read-only presentation commands.
func (i *Installer) DB() *installdb.Database {
	return i.db
}

// Config exposes the loaded global configuration.
func (i *Installer) Config() *config.GlobalConfig {
	return i.cfg
}

// Registries exposes the registry manager.
func (i *Installer) Registries() *registry.Manager {
	return i.registries
}

// Install runs the full pipeline for one package spec. spec is a package
// name, optionally suffixed "@registry", or resolved through the
// configured aliases first.
func (i *Installer) Install(ctx context.Context, spec string, opts Options) error {
	if opts.LocalArchive != "" {
		return i.InstallLocal(ctx, opts.LocalArchive, opts.MetadataFile, opts)
	}

	rec, sourceTag, err := i.resolveRecipe(ctx, spec, opts)
	if err != nil {
		return err
	}

	if existing, ok := i.db.Get(rec.Name); ok {
		ui.Info("%s %s is already installed, nothing to do", rec.Name, existing.Version)
		return nil
	}

	if err := i.checkInsecure(rec, opts); err != nil {
		return err
	}

	mappedOS, mappedArch := i.plat.Map(rec.OSMap(), rec.ArchMap())
	log.Debug().Str("os", mappedOS).Str("arch", mappedArch).Msg("Platform mapped")

	prov, err := provider.New(rec, i.client, i.cache, i.cfg.Scraper.TTLSeconds)
	if err != nil {
		return err
	}

	version, err := i.chooseVersion(ctx, prov, rec.Name, opts)
	if err != nil {
		return err
	}

	downloadURL, err := prov.DownloadURL(ctx, version, mappedOS, mappedArch)
	if err != nil {
		return err
	}

	archivePath, err := i.download(ctx, downloadURL)
	if err != nil {
		return err
	}

	if err := verify.Verify(ctx, i.client, archivePath, rec, version, mappedOS, mappedArch,
		rec.Security.AllowInsecure); err != nil {
		return err
	}

	extractDir := filepath.Join(i.paths.DownloadsDir(), rec.Name+"_extract")
	if err := extract.Extract(archivePath, extractDir, i.sec.Extraction); err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(extractDir) }()

	mode := i.mode(opts)
	result, err := deploy.Deploy(extractDir, rec.Install, i.paths, mode, rec.Name, version)
	if err != nil {
		return err
	}

	i.runPostInstall(ctx, rec, result.InstallDir, version, mappedOS, mappedArch, opts)

	if err := i.record(rec, version, mode, sourceTag, archivePath, result); err != nil {
		return err
	}

	ui.Success("Installed %s %s", rec.Name, version)
	return nil
}

// checkInsecure enforces the allow_insecure gate: framed warning, then
// abort unless the flag consents or the package is suppressed.
func (i *Installer) checkInsecure(rec *recipe.RepoConfig, opts Options) error {
	if !rec.Security.AllowInsecure {
		return nil
	}
	for _, name := range i.cfg.SuppressInsecureWarnings {
		if name == rec.Name {
			return nil
		}
	}

	ui.InsecureWarning(rec.Name, rec.Security.Warnings)
	if !opts.AllowInsecure {
		return errors.Newf(errors.ErrInsecurePackage,
			"package %s disables verification, pass --allow-insecure to install it", rec.Name)
	}
	return nil
}

// chooseVersion pins the requested version or picks the latest stable
// release from the provider.
func (i *Installer) chooseVersion(ctx context.Context, prov provider.Provider, name string, opts Options) (string, error) {
	if opts.Version != "" {
		return opts.Version, nil
	}

	versions, err := prov.ListVersions(ctx)
	if err != nil {
		return "", err
	}
	latest, err := provider.LatestStable(versions)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrVersionNotFound, "no installable version for %s", name)
	}
	return latest.Tag, nil
}

// download fetches the artifact into the downloads cache. The filename is
// the last path segment of the URL.
func (i *Installer) download(ctx context.Context, rawURL string) (string, error) {
	filename, err := artifactFilename(rawURL)
	if err != nil {
		return "", err
	}

	dir, err := i.cache.DownloadsDir()
	if err != nil {
		return "", err
	}
	dest := filepath.Join(dir, filename)

	ui.Info("Downloading %s", filename)
	if err := i.client.Download(ctx, rawURL, dest); err != nil {
		return "", err
	}
	return dest, nil
}

// artifactFilename derives the on-disk name from a download URL.
func artifactFilename(rawURL string) (string, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return "", errors.Wrapf(err, errors.ErrInvalidInput, "invalid download URL %q", rawURL)
	}
	trimmed := strings.TrimRight(u.Path, "/")
	name := filepath.Base(trimmed)
	if name == "" || name == "." || name == "/" {
		return "", errors.Newf(errors.ErrInvalidInput,
			"download URL %q has no usable filename", rawURL)
	}
	return name, nil
}

// record writes the installed database entry and the audit line.
func (i *Installer) record(rec *recipe.RepoConfig, version string, mode paths.InstallMode, sourceTag, archivePath string, result *deploy.Result) error {
	checksums := map[string]string{}
	if cs := rec.Security.Checksum; cs != nil {
		if digest, err := verify.HashFile(archivePath, cs.Algorithm); err == nil {
			checksums[cs.Algorithm] = digest
		}
	}

	i.db.Add(installdb.InstalledPackage{
		Name:           rec.Name,
		Version:        version,
		InstalledAt:    time.Now(),
		InstallMode:    string(mode),
		InstallDir:     result.InstallDir,
		Files:          result.Files,
		Symlinks:       result.Symlinks,
		RegistrySource: sourceTag,
		Checksums:      checksums,
		AllowInsecure:  rec.Security.AllowInsecure,
	})
	if err := i.db.Save(); err != nil {
		return err
	}

	if err := i.audit.Append(audit.EventInstall, map[string]string{
		"package": rec.Name,
		"version": version,
		"mode":    string(mode),
		"source":  sourceTag,
		"success": "true",
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to append audit record")
	}
	return nil
}

// mode resolves the effective install mode from flags and config.
func (i *Installer) mode(opts Options) paths.InstallMode {
	if opts.Mode != "" {
		return opts.Mode
	}
	if i.cfg.Install.DefaultMode == string(paths.ModeSystem) {
		return paths.ModeSystem
	}
	return paths.ModeUserland
}
