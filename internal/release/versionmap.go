// Package release computes next versions for applications, builds and
// packages, and performs production rollbacks against the platform.
package release

import (
	"fmt"
	"math/rand/v2"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Seeds holds the fallback versions used when an application has no usable
// history on the platform.
type Seeds struct {
	// Application seeds the application version sequence.
	Application string `yaml:"application"`
	// Build seeds the build number sequence.
	Build string `yaml:"build"`
}

// Package describes one deliverable package of an application.
type Package struct {
	// Type is the package flavor, currently "docker" or "generic".
	Type string `yaml:"type"`
	// Name is the package name, e.g. the docker image name.
	Name string `yaml:"name"`
	// Seed is the fallback tag when no published tags exist yet.
	Seed string `yaml:"seed"`
}

// Application is one entry of the version map.
type Application struct {
	// Key is the application key, e.g. "bookverse-web".
	Key      string    `yaml:"key"`
	Seeds    Seeds     `yaml:"seeds"`
	Packages []Package `yaml:"packages"`
}

// VersionMap is the declarative seed configuration consumed by version
// planning. Seeds are only a starting point: once real versions exist on the
// platform they take precedence.
type VersionMap struct {
	Applications []Application `yaml:"applications"`
}

// Application returns the entry for the given application key, or nil.
func (m *VersionMap) Application(key string) *Application {
	key = strings.TrimSpace(key)
	for i := range m.Applications {
		if strings.TrimSpace(m.Applications[i].Key) == key {
			return &m.Applications[i]
		}
	}

	return nil
}

// Package returns the package entry with the given name, or nil.
func (a *Application) Package(name string) *Package {
	name = strings.TrimSpace(name)
	for i := range a.Packages {
		if strings.TrimSpace(a.Packages[i].Name) == name {
			return &a.Packages[i]
		}
	}

	return nil
}

// ParseVersionMap decodes a version map from YAML bytes.
func ParseVersionMap(b []byte) (*VersionMap, error) {
	var m VersionMap
	if err := yaml.Unmarshal(b, &m); err != nil {
		return nil, fmt.Errorf("could not parse version map: %w", err)
	}

	return &m, nil
}

// LoadVersionMap reads and decodes a version map file.
func LoadVersionMap(path string) (*VersionMap, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("could not read version map: %w", err)
	}

	return ParseVersionMap(b)
}

// seed version component ranges, kept small so demo versions look realistic
var seedRanges = struct {
	major [2]int
	minor [2]int
	patch [2]int
}{
	major: [2]int{1, 3},
	minor: [2]int{0, 20},
	patch: [2]int{0, 30},
}

func randomSeed() string {
	pick := func(r [2]int) int { return r[0] + rand.IntN(r[1]-r[0]+1) }

	return fmt.Sprintf("%d.%d.%d", pick(seedRanges.major), pick(seedRanges.minor), pick(seedRanges.patch))
}

// EnsureSeeds fills in missing seeds for every application and package in the
// map. Existing seeds are kept so repeated runs are idempotent.
func (m *VersionMap) EnsureSeeds() {
	for i := range m.Applications {
		app := &m.Applications[i]
		if app.Seeds.Application == "" {
			app.Seeds.Application = randomSeed()
		}
		if app.Seeds.Build == "" {
			app.Seeds.Build = randomSeed()
		}
		for j := range app.Packages {
			if app.Packages[j].Seed == "" {
				app.Packages[j].Seed = randomSeed()
			}
		}
	}
}

// WriteVersionMap writes the map back as YAML, creating parent directories as
// needed.
func WriteVersionMap(path string, m *VersionMap) error {
	b, err := yaml.Marshal(m)
	if err != nil {
		return fmt.Errorf("could not marshal version map: %w", err)
	}
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("could not create version map dir: %w", err)
		}
	}
	if err := os.WriteFile(path, b, 0o644); err != nil { //nolint: gosec
		return fmt.Errorf("could not write version map: %w", err)
	}

	return nil
}
