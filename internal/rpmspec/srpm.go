package rpmspec

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path"
	"strings"

	"github.com/sassoftware/go-rpmutils"
	"github.com/sirupsen/logrus"
)

// ErrNoSpecInPackage is returned when a source RPM carries no .spec file
var ErrNoSpecInPackage = errors.New("no spec file in source package")

// SourcePackage is a spec file read out of a source RPM, together with the
// identity recorded in the RPM header
type SourcePackage struct {
	Name     string
	Version  string
	Release  string
	SpecName string
	Spec     *Spec
}

// ReadSRPM opens a source RPM and parses the spec file it carries
func ReadSRPM(filename string) (*SourcePackage, error) {
	f, err := os.Open(filename)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	return ParseSRPM(f)
}

// ParseSRPM reads a source RPM stream and parses the spec file it carries
func ParseSRPM(r io.Reader) (*SourcePackage, error) {
	// Read RPM header
	rpm, err := rpmutils.ReadRpm(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read RPM: %w", err)
	}

	pkg := &SourcePackage{
		Name:    getStringTag(rpm, rpmutils.NAME),
		Version: getStringTag(rpm, rpmutils.VERSION),
		Release: getStringTag(rpm, rpmutils.RELEASE),
	}

	payload, err := rpm.PayloadReaderExtended()
	if err != nil {
		return nil, fmt.Errorf("failed to open payload: %w", err)
	}

	for {
		info, err := payload.Next()
		if err == io.EOF {
			return nil, ErrNoSpecInPackage
		}
		if err != nil {
			return nil, fmt.Errorf("failed to read payload: %w", err)
		}
		if payload.IsLink() || !strings.HasSuffix(info.Name(), ".spec") {
			continue
		}

		spec, err := ParseReader(payload)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", info.Name(), err)
		}
		pkg.SpecName = path.Base(info.Name())
		pkg.Spec = spec
		break
	}

	if pkg.Version != "" && rpmutils.Vercmp(pkg.Version, pkg.Spec.Version) != 0 {
		logrus.WithFields(logrus.Fields{
			"package": pkg.Name,
			"header":  pkg.Version,
			"spec":    pkg.Spec.Version,
		}).Warn("Spec version differs from the source package header")
	}

	return pkg, nil
}

// getStringTag safely gets a string tag from RPM
func getStringTag(rpm *rpmutils.Rpm, tag int) string {
	val, err := rpm.Header.Get(tag)
	if err != nil {
		return ""
	}

	// Handle different types that might be returned
	switch v := val.(type) {
	case string:
		return v
	case []byte:
		return string(v)
	case []string:
		if len(v) > 0 {
			return v[0]
		}
	default:
		return fmt.Sprintf("%v", v)
	}

	return ""
}
