// Package profilestore loads the Profile Store (spec.md §6): an external,
// user-editable catalog of vendor DeviceProfile records, one YAML file per
// profile, read into an immutable in-memory index at startup.
package profilestore

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/lanscope/upnprecon/internal/models"
	"github.com/lanscope/upnprecon/pkg/utils"
)

// Store - неизменяемый в памяти каталог DeviceProfile, загруженный из
// директории с YAML-файлами (spec.md §6: "profiles/*.yaml").
type Store struct {
	profiles []*models.DeviceProfile
}

// Load reads every *.yaml/*.yml file in dir into a Store. A directory that
// does not exist yields an empty Store (it holds no generic fallback either,
// so profile matching finds no profile) rather than an error, since the Profile Store is an
// optional external collaborator (spec.md §6).
func Load(dir string) (*Store, error) {
	logger := utils.GetLogger()
	entries, err := os.ReadDir(dir)
	if os.IsNotExist(err) {
		logger.Debugf("profile store directory %s does not exist, starting empty", dir)
		return &Store{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to read profile store directory %s: %w", dir, err)
	}

	store := &Store{}
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		if ext != ".yaml" && ext != ".yml" {
			continue
		}

		path := filepath.Join(dir, name)
		data, err := os.ReadFile(path)
		if err != nil {
			logger.Warnf("failed to read profile file %s: %v", path, err)
			continue
		}

		var profile models.DeviceProfile
		if err := yaml.Unmarshal(data, &profile); err != nil {
			logger.Warnf("failed to parse profile file %s: %v", path, err)
			continue
		}
		if profile.Name == "" {
			logger.Warnf("profile file %s missing required name field, skipping", path)
			continue
		}
		store.profiles = append(store.profiles, &profile)
	}

	logger.Infof("profile store: loaded %d profile(s) from %s", len(store.profiles), dir)
	return store, nil
}

// All returns every loaded profile, excluding the generic fallback (which
// the Matcher consults separately as a last resort).
func (s *Store) All() []*models.DeviceProfile {
	out := make([]*models.DeviceProfile, 0, len(s.profiles))
	for _, p := range s.profiles {
		if !p.IsGenericFallback() {
			out = append(out, p)
		}
	}
	return out
}

// ByName looks up a profile by its exact name, including the generic
// fallback profile if present in the store.
func (s *Store) ByName(name string) *models.DeviceProfile {
	for _, p := range s.profiles {
		if p.Name == name {
			return p
		}
	}
	return nil
}
