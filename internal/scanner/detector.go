package scanner

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
)

// Magic bytes for input detection
var (
	// RPM packages start with 0xED 0xAB 0xEE 0xDB
	rpmMagic = []byte{0xED, 0xAB, 0xEE, 0xDB}

	gzipMagic = []byte{0x1F, 0x8B}
	zstdMagic = []byte{0x28, 0xB5, 0x2F, 0xFD}
	xzMagic   = []byte{0xFD, 0x37, 0x7A, 0x58, 0x5A, 0x00}
)

// DetectInputType determines the input type based on magic bytes and file name
func DetectInputType(path string) (InputType, error) {
	f, err := os.Open(path)
	if err != nil {
		return TypeUnknown, err
	}
	defer f.Close()

	// Read first 512 bytes for magic byte detection
	header := make([]byte, 512)
	n, err := f.Read(header)
	if err != nil && n == 0 {
		// Empty spec files are still spec files
		if strings.HasSuffix(path, ".spec") {
			return TypeSpec, nil
		}
		return TypeUnknown, err
	}
	header = header[:n]

	basename := filepath.Base(path)

	// Source RPMs
	if bytes.HasPrefix(header, rpmMagic) || strings.HasSuffix(basename, ".src.rpm") {
		return TypeSRPM, nil
	}

	if !strings.Contains(basename, ".spec") {
		return TypeUnknown, nil
	}

	switch {
	case bytes.HasPrefix(header, gzipMagic) || strings.HasSuffix(basename, ".spec.gz"):
		return TypeSpecGzip, nil
	case bytes.HasPrefix(header, xzMagic) || strings.HasSuffix(basename, ".spec.xz"):
		return TypeSpecXz, nil
	case bytes.HasPrefix(header, zstdMagic) || strings.HasSuffix(basename, ".spec.zst"):
		return TypeSpecZstd, nil
	case strings.HasSuffix(basename, ".spec"):
		return TypeSpec, nil
	}

	return TypeUnknown, nil
}
