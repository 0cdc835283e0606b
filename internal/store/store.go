// Package store persists project records as YAML files. A record lives in
// the upstream directory while its project is healthy and in the
// known-issues directory once it has been flagged, never in both.
package store

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/utils"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// ErrNotFound is returned when neither directory holds a record
var ErrNotFound = errors.New("project record not found")

const recordExt = ".yaml"

// Store reads and writes project records
type Store struct {
	upstreamDir    string
	knownIssuesDir string
}

// New creates a store over the two record directories
func New(upstreamDir, knownIssuesDir string) *Store {
	return &Store{
		upstreamDir:    upstreamDir,
		knownIssuesDir: knownIssuesDir,
	}
}

// Path returns where the record of name lives when flagged or not
func (s *Store) Path(name string, flagged bool) string {
	if flagged {
		return filepath.Join(s.knownIssuesDir, name+recordExt)
	}
	return filepath.Join(s.upstreamDir, name+recordExt)
}

// Load reads the record of name, falling back to the known-issues
// directory. flagged reports where it was found.
func (s *Store) Load(name string) (*models.ProjectInfo, bool, error) {
	if err := checkName(name); err != nil {
		return nil, false, err
	}

	for _, flagged := range []bool{false, true} {
		path := s.Path(name, flagged)
		data, err := os.ReadFile(path)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, false, &models.AdvisorError{Type: models.ErrStore, Project: name, Err: err}
		}

		info, err := Decode(data)
		if err != nil {
			return nil, false, &models.AdvisorError{
				Type:    models.ErrStore,
				Project: name,
				Err:     fmt.Errorf("parsing %s: %w", path, err),
			}
		}
		logrus.WithField("path", path).Debug("Loaded project record")
		return info, flagged, nil
	}

	return nil, false, &models.AdvisorError{Type: models.ErrStore, Project: name, Err: ErrNotFound}
}

// Save writes the record of name to exactly one directory and removes any
// copy left in the other.
func (s *Store) Save(name string, info *models.ProjectInfo, flagged bool) error {
	if err := checkName(name); err != nil {
		return err
	}

	data, err := Encode(info)
	if err != nil {
		return &models.AdvisorError{Type: models.ErrStore, Project: name, Err: err}
	}

	path := s.Path(name, flagged)
	if err := utils.WriteFile(path, data, 0644); err != nil {
		return &models.AdvisorError{Type: models.ErrStore, Project: name, Err: err}
	}
	if err := utils.RemoveIfExists(s.Path(name, !flagged)); err != nil {
		return &models.AdvisorError{Type: models.ErrStore, Project: name, Err: err}
	}

	logrus.WithFields(logrus.Fields{
		"path":    path,
		"flagged": flagged,
	}).Debug("Saved project record")
	return nil
}

// List returns the names of all records in both directories, sorted
func (s *Store) List() ([]string, error) {
	seen := make(map[string]bool)
	for _, dir := range []string{s.upstreamDir, s.knownIssuesDir} {
		entries, err := os.ReadDir(dir)
		if errors.Is(err, os.ErrNotExist) {
			continue
		}
		if err != nil {
			return nil, &models.AdvisorError{Type: models.ErrStore, Err: err}
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), recordExt) {
				continue
			}
			seen[strings.TrimSuffix(entry.Name(), recordExt)] = true
		}
	}

	names := make([]string, 0, len(seen))
	for name := range seen {
		names = append(names, name)
	}
	sort.Strings(names)
	return names, nil
}

// Decode parses a YAML project record
func Decode(data []byte) (*models.ProjectInfo, error) {
	var info models.ProjectInfo
	if err := yaml.Unmarshal(data, &info); err != nil {
		return nil, err
	}
	return &info, nil
}

// Encode renders a project record as YAML
func Encode(info *models.ProjectInfo) ([]byte, error) {
	return yaml.Marshal(info)
}

func checkName(name string) error {
	if name == "" {
		return models.ErrMissingProject
	}
	if strings.ContainsAny(name, `/\`) || name == "." || name == ".." {
		return fmt.Errorf("invalid project name %q", name)
	}
	return nil
}
