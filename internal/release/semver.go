package release

import (
	"fmt"
	"regexp"
	"sort"
	"strings"

	"github.com/coreos/go-semver/semver"
)

// strictSemverRe matches plain X.Y.Z versions without prerelease or build
// metadata. Version planning only ever emits this shape.
var strictSemverRe = regexp.MustCompile(`^\d+\.\d+\.\d+$`)

// IsStrictSemver reports whether v is a plain X.Y.Z version.
func IsStrictSemver(v string) bool {
	return strictSemverRe.MatchString(strings.TrimSpace(v))
}

// BumpPatch returns v with the patch component incremented. It fails when v
// is not a plain X.Y.Z version.
func BumpPatch(v string) (string, error) {
	v = strings.TrimSpace(v)
	if !IsStrictSemver(v) {
		return "", fmt.Errorf("not a SemVer X.Y.Z: %q", v)
	}
	sv, err := semver.NewVersion(v)
	if err != nil {
		return "", fmt.Errorf("could not parse version %q: %w", v, err)
	}
	sv.BumpPatch()

	return sv.String(), nil
}

// MaxStrict returns the highest plain X.Y.Z version from values, or the empty
// string when none qualifies.
func MaxStrict(values []string) string {
	var best *semver.Version
	var bestRaw string
	for _, raw := range values {
		v := strings.TrimSpace(raw)
		if !IsStrictSemver(v) {
			continue
		}
		sv, err := semver.NewVersion(v)
		if err != nil {
			continue
		}
		if best == nil || best.LessThan(*sv) {
			best = sv
			bestRaw = v
		}
	}

	return bestRaw
}

// parseLoose parses a version tolerating a leading "v" and prerelease or
// build metadata. Returns nil when the string is not a semantic version.
func parseLoose(v string) *semver.Version {
	v = strings.TrimSpace(v)
	v = strings.TrimPrefix(v, "v")
	sv, err := semver.NewVersion(v)
	if err != nil {
		return nil
	}

	return sv
}

// SortSemverDesc returns the subset of values that parse as semantic versions,
// ordered highest first according to semver precedence (GA above prerelease).
// The original strings are preserved.
func SortSemverDesc(values []string) []string {
	type entry struct {
		parsed *semver.Version
		raw    string
	}
	parsed := make([]entry, 0, len(values))
	for _, raw := range values {
		if sv := parseLoose(raw); sv != nil {
			parsed = append(parsed, entry{parsed: sv, raw: raw})
		}
	}
	sort.SliceStable(parsed, func(i, j int) bool {
		return parsed[j].parsed.LessThan(*parsed[i].parsed)
	})

	out := make([]string, 0, len(parsed))
	for _, e := range parsed {
		out = append(out, e.raw)
	}

	return out
}
