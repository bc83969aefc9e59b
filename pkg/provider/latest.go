package provider

import (
	"sort"
	"strings"

	"github.com/Masterminds/semver/v3"

	"github.com/oradev/ora/pkg/errors"
)

// InferPrerelease guesses the prerelease flag for sources that do not
// supply one.
func InferPrerelease(tag string) bool {
	lower := strings.ToLower(tag)
	return strings.Contains(lower, "alpha") ||
		strings.Contains(lower, "beta") ||
		strings.Contains(lower, "rc")
}

// LatestStable picks the highest non-prerelease version. Tags parse as
// lenient semver (a leading "v" is fine); tags that don't parse compare
// lexicographically among themselves and lose to any parsable tag.
func LatestStable(versions []Version) (Version, error) {
	var best *Version
	var bestSemver *semver.Version

	for i := range versions {
		v := &versions[i]
		if v.Prerelease {
			continue
		}
		sv, _ := semver.NewVersion(strings.TrimPrefix(v.Tag, "v"))

		switch {
		case best == nil:
			best, bestSemver = v, sv
		case sv != nil && bestSemver != nil:
			if sv.GreaterThan(bestSemver) {
				best, bestSemver = v, sv
			}
		case sv != nil && bestSemver == nil:
			best, bestSemver = v, sv
		case sv == nil && bestSemver == nil:
			if v.Tag > best.Tag {
				best = v
			}
		}
	}

	if best == nil {
		return Version{}, errors.New(errors.ErrVersionNotFound, "no stable version available")
	}
	return *best, nil
}

// SortDescending orders versions newest-first by the same comparison
// LatestStable uses.
func SortDescending(versions []Version) {
	sort.SliceStable(versions, func(i, j int) bool {
		vi, ei := semver.NewVersion(strings.TrimPrefix(versions[i].Tag, "v"))
		vj, ej := semver.NewVersion(strings.TrimPrefix(versions[j].Tag, "v"))
		switch {
		case ei == nil && ej == nil:
			return vi.GreaterThan(vj)
		case ei == nil:
			return true
		case ej == nil:
			return false
		default:
			return versions[i].Tag > versions[j].Tag
		}
	})
}
