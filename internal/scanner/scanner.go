package scanner

import "context"

// InputType represents the kind of local file a spec can be read from
type InputType int

const (
	TypeUnknown InputType = iota
	TypeSpec
	TypeSpecGzip
	TypeSpecXz
	TypeSpecZstd
	TypeSRPM
)

// String returns the string representation of InputType
func (it InputType) String() string {
	switch it {
	case TypeSpec:
		return "spec"
	case TypeSpecGzip:
		return "spec.gz"
	case TypeSpecXz:
		return "spec.xz"
	case TypeSpecZstd:
		return "spec.zst"
	case TypeSRPM:
		return "srpm"
	default:
		return "unknown"
	}
}

// ScannedInput represents a spec input found during scanning
type ScannedInput struct {
	Path string
	Type InputType
	Size int64
}

// Scanner interface for detecting and scanning spec inputs
type Scanner interface {
	// Scan recursively scans a directory for spec inputs
	Scan(ctx context.Context, dir string) ([]ScannedInput, error)

	// DetectType determines the input type of a file
	DetectType(path string) (InputType, error)
}
