package semver

import (
	"fmt"

	masterminds "github.com/Masterminds/semver/v3"
)

const resolverLogPrefix = "semver:resolver"

// ValidateVersion checks that a registered agent version is valid SemVer.
func ValidateVersion(version string) error {
	if _, err := masterminds.NewVersion(version); err != nil {
		return fmt.Errorf("%s - invalid version %q: %w", resolverLogPrefix, version, err)
	}
	return nil
}

// SatisfiesRange checks if a version string satisfies a range.
// An empty range matches every version, including an unversioned agent.
func SatisfiesRange(version, rangeStr string) bool {
	if rangeStr == "" {
		return true
	}
	if version == "" {
		return false
	}

	sv, err := masterminds.NewVersion(version)
	if err != nil {
		return false
	}

	if IsMajorOnly(rangeStr) {
		return int(sv.Major()) == ExtractMajorFromRange(rangeStr)
	}

	if IsExactVersion(rangeStr) {
		want, err := masterminds.NewVersion(rangeStr)
		if err != nil {
			return false
		}
		return sv.Equal(want)
	}

	constraint, err := masterminds.NewConstraint(rangeStr)
	if err != nil {
		return false
	}
	return constraint.Check(sv)
}
