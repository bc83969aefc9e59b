package install

import (
	"context"
	"os"
	"time"

	toml "github.com/pelletier/go-toml/v2"

	"github.com/oradev/ora/pkg/audit"
	"github.com/oradev/ora/pkg/deploy"
	"github.com/oradev/ora/pkg/errors"
	"github.com/oradev/ora/pkg/extract"
	"github.com/oradev/ora/pkg/installdb"
	"github.com/oradev/ora/pkg/recipe"
	"github.com/oradev/ora/pkg/ui"
)

// localMetadata is the minimal document accompanying a local archive.
type localMetadata struct {
	Name    string         `toml:"name"`
	Version string         `toml:"version"`
	Install recipe.Install `toml:"install"`
}

// InstallLocal deploys a user-supplied archive. Discovery, download, and
// verification are skipped: the user vouches for bytes they already have.
func (i *Installer) InstallLocal(ctx context.Context, archive, metadataPath string, opts Options) error {
	if metadataPath == "" {
		return errors.New(errors.ErrInvalidInput, "local install requires --metadata")
	}

	archivePath, err := i.paths.NormalizePath(archive)
	if err != nil {
		return err
	}
	meta, err := loadLocalMetadata(metadataPath)
	if err != nil {
		return err
	}

	if existing, ok := i.db.Get(meta.Name); ok {
		ui.Info("%s %s is already installed, nothing to do", meta.Name, existing.Version)
		return nil
	}

	extractDir := archivePath + "_extract"
	if err := extract.Extract(archivePath, extractDir, i.sec.Extraction); err != nil {
		return err
	}
	defer func() { _ = os.RemoveAll(extractDir) }()

	mode := i.mode(opts)
	result, err := deploy.Deploy(extractDir, meta.Install, i.paths, mode, meta.Name, meta.Version)
	if err != nil {
		return err
	}

	i.db.Add(installdb.InstalledPackage{
		Name:           meta.Name,
		Version:        meta.Version,
		InstalledAt:    time.Now(),
		InstallMode:    string(mode),
		InstallDir:     result.InstallDir,
		Files:          result.Files,
		Symlinks:       result.Symlinks,
		RegistrySource: sourceLocal + archivePath,
		AllowInsecure:  true,
	})
	if err := i.db.Save(); err != nil {
		return err
	}

	if err := i.audit.Append(audit.EventInstall, map[string]string{
		"package": meta.Name,
		"version": meta.Version,
		"mode":    string(mode),
		"source":  sourceLocal + archivePath,
		"success": "true",
	}); err != nil {
		log.Warn().Err(err).Msg("Failed to append audit record")
	}

	ui.Success("Installed %s %s from local archive", meta.Name, meta.Version)
	return nil
}

func loadLocalMetadata(path string) (*localMetadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, errors.ErrIO, "failed to read metadata %s", path)
	}
	var meta localMetadata
	if err := toml.Unmarshal(data, &meta); err != nil {
		return nil, errors.Wrapf(err, errors.ErrConfigParse, "malformed metadata %s", path)
	}
	if meta.Name == "" {
		return nil, errors.New(errors.ErrInvalidInput, "metadata has no package name")
	}
	if meta.Version == "" {
		meta.Version = "local"
	}
	return &meta, nil
}
