package audience

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/mod/semver"
)

// compareVersions orders user against target. When target omits minor or
// patch components (and carries no pre-release or build suffix), only the
// components present in target take part: "2.1.3" equals "2.1".
func compareVersions(user, target string) (int, error) {
	if err := checkVersion(user); err != nil {
		return 0, err
	}
	if err := checkVersion(target); err != nil {
		return 0, err
	}

	targetCore, targetSuffix := splitVersion(target)
	if targetSuffix == "" {
		if parts := strings.Count(targetCore, ".") + 1; parts < 3 {
			userCore, _ := splitVersion(user)
			userParts := strings.Split(userCore, ".")
			if len(userParts) > parts {
				userParts = userParts[:parts]
			}
			user = strings.Join(userParts, ".")
		}
	}

	u, t := "v"+user, "v"+target
	if !semver.IsValid(u) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSemver, user)
	}
	if !semver.IsValid(t) {
		return 0, fmt.Errorf("%w: %q", ErrInvalidSemver, target)
	}
	return semver.Compare(u, t), nil
}

func checkVersion(v string) error {
	if v == "" || strings.IndexFunc(v, unicode.IsSpace) >= 0 {
		return fmt.Errorf("%w: %q", ErrInvalidSemver, v)
	}
	if strings.HasPrefix(v, "v") || strings.HasPrefix(v, "V") {
		return fmt.Errorf("%w: %q", ErrInvalidSemver, v)
	}
	return nil
}

// splitVersion separates "1.2.3" from a "-pre" or "+build" suffix.
func splitVersion(v string) (core, suffix string) {
	if i := strings.IndexAny(v, "-+"); i >= 0 {
		return v[:i], v[i:]
	}
	return v, ""
}
