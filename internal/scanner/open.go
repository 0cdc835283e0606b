package scanner

import (
	"fmt"
	"io"
	"os"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/ulikunitz/xz"
)

type readCloser struct {
	io.Reader
	closers []func() error
}

func (rc *readCloser) Close() error {
	var first error
	for i := len(rc.closers) - 1; i >= 0; i-- {
		if err := rc.closers[i](); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// OpenSpec opens a spec file, decompressing it according to inputType.
// Source RPMs are not handled here; see rpmspec.ReadSRPM.
func OpenSpec(path string, inputType InputType) (io.ReadCloser, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}

	rc := &readCloser{Reader: f, closers: []func() error{f.Close}}

	switch inputType {
	case TypeSpec:
	case TypeSpecGzip:
		gr, err := gzip.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		rc.Reader = gr
		rc.closers = append(rc.closers, gr.Close)
	case TypeSpecXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		rc.Reader = xr
	case TypeSpecZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			f.Close()
			return nil, err
		}
		rc.Reader = zr
		rc.closers = append(rc.closers, func() error {
			zr.Close()
			return nil
		})
	default:
		f.Close()
		return nil, fmt.Errorf("cannot open %s input %s as a spec", inputType, path)
	}

	return rc, nil
}
