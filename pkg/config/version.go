package config

import (
	"strconv"
	"strings"

	"github.com/oradev/ora/pkg/errors"
)

// CurrentConfigVersion is the version written by this release for both the
// global config and installed-package schema.
const CurrentConfigVersion = "0.1"

// CompareVersions compares two "major.minor" version strings as integer
// pairs. Missing or unparsable parts are treated as zero. Returns -1, 0,
// or 1.
func CompareVersions(a, b string) int {
	amaj, amin := splitVersion(a)
	bmaj, bmin := splitVersion(b)
	if amaj != bmaj {
		if amaj < bmaj {
			return -1
		}
		return 1
	}
	if amin != bmin {
		if amin < bmin {
			return -1
		}
		return 1
	}
	return 0
}

func splitVersion(v string) (major, minor int) {
	parts := strings.SplitN(strings.TrimSpace(v), ".", 3)
	if len(parts) > 0 {
		major, _ = strconv.Atoi(parts[0])
	}
	if len(parts) > 1 {
		minor, _ = strconv.Atoi(parts[1])
	}
	return major, minor
}

// migrateConfigVersion brings a loaded config forward to the current
// version. Migrations are forward-only; a config written by a newer
// release is refused so a newer schema is never downgraded in place.
func migrateConfigVersion(cfg *GlobalConfig) (migrated bool, err error) {
	switch {
	case cfg.ConfigVersion == CurrentConfigVersion:
		return false, nil
	case CompareVersions(cfg.ConfigVersion, CurrentConfigVersion) > 0:
		return false, errors.Newf(errors.ErrConfigNewer,
			"config version %s is newer than supported %s, upgrade ora to proceed",
			cfg.ConfigVersion, CurrentConfigVersion)
	default:
		// "", "0.0" and any other older version migrate by restamping;
		// no structural changes exist between 0.0 and 0.1.
		cfg.ConfigVersion = CurrentConfigVersion
		return true, nil
	}
}
