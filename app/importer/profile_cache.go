package importer

import (
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/lysyi3m/property-pal/app/listing"
	"gopkg.in/yaml.v3"
)

var ErrProfileNotFound = errors.New("import profile not found")

type ProfileCache struct {
	profilesDir string
	cache       map[string]*Profile
	mu          sync.RWMutex
}

func NewProfileCache(profilesDir string) *ProfileCache {
	return &ProfileCache{
		profilesDir: profilesDir,
		cache:       make(map[string]*Profile),
	}
}

// Run loads every profile in the profiles directory. A missing directory
// means no profiles.
func (pc *ProfileCache) Run() error {
	if _, err := os.Stat(pc.profilesDir); os.IsNotExist(err) {
		return nil
	}

	files, err := filepath.Glob(filepath.Join(pc.profilesDir, "*.yml"))
	if err != nil {
		return fmt.Errorf("failed to find YML files: %w", err)
	}

	for _, file := range files {
		name := strings.TrimSuffix(filepath.Base(file), ".yml")

		profile, err := pc.LoadProfile(name)
		if err != nil {
			return fmt.Errorf("error loading %s: %w", file, err)
		}

		slog.Debug("Import profile loaded", "profile", name, "columns", len(profile.Columns))
	}

	return nil
}

func (pc *ProfileCache) LoadProfile(name string) (*Profile, error) {
	profileFile := filepath.Join(pc.profilesDir, name+".yml")

	profile, err := pc.parseProfile(profileFile)
	if err != nil {
		return nil, err
	}

	profile.Name = name

	if err := pc.validateProfile(profile); err != nil {
		return nil, fmt.Errorf("invalid profile %s: %w", profileFile, err)
	}

	profile.buildAliases()

	pc.mu.Lock()
	defer pc.mu.Unlock()
	pc.cache[profile.Name] = profile

	return profile, nil
}

func (pc *ProfileCache) GetProfile(name string) (*Profile, error) {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	profile, ok := pc.cache[name]
	if !ok {
		return nil, fmt.Errorf("%w: '%s'", ErrProfileNotFound, name)
	}
	return profile, nil
}

// GetProfileNames returns loaded profile names in sorted order.
func (pc *ProfileCache) GetProfileNames() []string {
	pc.mu.RLock()
	defer pc.mu.RUnlock()

	names := make([]string, 0, len(pc.cache))
	for name := range pc.cache {
		names = append(names, name)
	}
	slices.Sort(names)
	return names
}

func (pc *ProfileCache) GetProfileCount() int {
	pc.mu.RLock()
	defer pc.mu.RUnlock()
	return len(pc.cache)
}

func (pc *ProfileCache) parseProfile(profileFile string) (*Profile, error) {
	data, err := os.ReadFile(profileFile)
	if err != nil {
		return nil, fmt.Errorf("failed to read file: %w", err)
	}

	var profile Profile
	if err := yaml.Unmarshal(data, &profile); err != nil {
		return nil, fmt.Errorf("failed to parse YAML: %w", err)
	}

	return &profile, nil
}

func (pc *ProfileCache) validateProfile(profile *Profile) error {
	if profile == nil {
		return fmt.Errorf("profile is nil")
	}

	if profile.Name == "" {
		return fmt.Errorf("profile name is required")
	}

	if len(profile.Columns) == 0 {
		return fmt.Errorf("profile must map at least one column")
	}

	seen := make(map[string]string)
	for canonical, aliases := range profile.Columns {
		if !slices.Contains(listing.KnownColumns, canonical) {
			return fmt.Errorf("unknown column: %s", canonical)
		}
		if len(aliases) == 0 {
			return fmt.Errorf("column %s must have at least one alias", canonical)
		}

		for _, alias := range aliases {
			key := strings.ToLower(strings.TrimSpace(alias))
			if key == "" {
				return fmt.Errorf("column %s has an empty alias", canonical)
			}
			if other, dup := seen[key]; dup && other != canonical {
				return fmt.Errorf("alias %q is mapped to both %s and %s", alias, other, canonical)
			}
			seen[key] = canonical
		}
	}

	return nil
}
