// Package specsource locates the spec file describing the packaged
// version of a project: downloaded from the distribution's git forge, read
// from a local (possibly compressed) file, or extracted from a source RPM.
package specsource

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/ralt/upgrade-advisor/internal/fetch"
	"github.com/ralt/upgrade-advisor/internal/models"
	"github.com/ralt/upgrade-advisor/internal/rpmspec"
	"github.com/ralt/upgrade-advisor/internal/scanner"
	"github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// Source yields the parsed spec of a project
type Source interface {
	Load(ctx context.Context, name string) (*rpmspec.Spec, error)
}

// Exception relocates a spec file inside its package repository
type Exception struct {
	Dir  string `yaml:"dir"`
	File string `yaml:"file"`
}

// LoadExceptions reads a YAML map of project name to Exception
func LoadExceptions(path string) (map[string]Exception, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading spec exceptions: %w", err)
	}

	exceptions := make(map[string]Exception)
	if err := yaml.Unmarshal(data, &exceptions); err != nil {
		return nil, fmt.Errorf("parsing spec exceptions %s: %w", path, err)
	}
	return exceptions, nil
}

// Forge downloads spec files from raw URLs of the form
// <base>/<name>/raw/<branch>/<name>.spec
type Forge struct {
	client     fetch.Client
	baseURL    string
	branch     string
	exceptions map[string]Exception
}

// NewForge creates a Forge source
func NewForge(client fetch.Client, baseURL, branch string, exceptions map[string]Exception) *Forge {
	if exceptions == nil {
		exceptions = map[string]Exception{}
	}
	return &Forge{
		client:     client,
		baseURL:    strings.TrimSuffix(baseURL, "/"),
		branch:     branch,
		exceptions: exceptions,
	}
}

// URL returns where the spec of name is downloaded from
func (f *Forge) URL(name string) string {
	file := name + ".spec"
	if exp, ok := f.exceptions[name]; ok {
		file = exp.File
		if exp.Dir != "" {
			file = strings.Trim(exp.Dir, "/") + "/" + exp.File
		}
	}
	return fmt.Sprintf("%s/%s/raw/%s/%s", f.baseURL, name, f.branch, file)
}

// Download returns the spec text of name, or "" when the forge has none
func (f *Forge) Download(ctx context.Context, name string) (string, error) {
	url := f.URL(name)
	logrus.WithField("url", url).Debug("Downloading spec")

	body, err := f.client.Get(ctx, url, nil)
	if errors.Is(err, fetch.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", err
	}

	text := string(body)
	// The forge answers some missing files with a short text page
	if strings.HasPrefix(strings.TrimSpace(strings.ToLower(text)), "not found") {
		return "", nil
	}
	return text, nil
}

// Load implements Source
func (f *Forge) Load(ctx context.Context, name string) (*rpmspec.Spec, error) {
	if name == "" {
		return nil, models.ErrMissingProject
	}

	text, err := f.Download(ctx, name)
	if err != nil {
		return nil, &models.AdvisorError{Type: models.ErrFetch, Project: name, Err: err}
	}
	if text == "" {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: models.ErrNoSpec}
	}
	return rpmspec.Parse(text), nil
}

// File reads a local spec file, compressed with gzip, xz or zstd or not
type File struct {
	Path string
}

// Load implements Source
func (f *File) Load(_ context.Context, name string) (*rpmspec.Spec, error) {
	inputType, err := scanner.DetectInputType(f.Path)
	if err != nil {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: err}
	}
	switch inputType {
	case scanner.TypeSRPM:
		return (&SRPM{Path: f.Path}).Load(context.Background(), name)
	case scanner.TypeUnknown:
		// A file named explicitly is read as plain text
		inputType = scanner.TypeSpec
	}

	// Open spec file
	rc, err := scanner.OpenSpec(f.Path, inputType)
	if err != nil {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: err}
	}
	defer rc.Close()

	spec, err := rpmspec.ParseReader(rc)
	if err != nil {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: fmt.Errorf("reading %s: %w", f.Path, err)}
	}
	return spec, nil
}

// SRPM extracts the spec embedded in a source RPM
type SRPM struct {
	Path string
}

// Load implements Source
func (s *SRPM) Load(_ context.Context, name string) (*rpmspec.Spec, error) {
	pkg, err := rpmspec.ReadSRPM(s.Path)
	if err != nil {
		return nil, &models.AdvisorError{Type: models.ErrSpecParse, Project: name, Err: err}
	}
	if name != "" && pkg.Name != "" && pkg.Name != name {
		logrus.WithFields(logrus.Fields{
			"project": name,
			"srpm":    pkg.Name,
		}).Warn("Source package name differs from project")
	}
	return pkg.Spec, nil
}
