package socrata

import (
	"fmt"
	"io"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
)

type readCloser struct {
	io.Reader
	close func() error
}

func (r readCloser) Close() error { return r.close() }

// decompress wraps body according to Content-Encoding, falling back to the
// path suffix (.gz, .zst). Closing the result closes body.
func decompress(body io.ReadCloser, encoding, path string) (io.ReadCloser, error) {
	kind := strings.ToLower(strings.TrimSpace(encoding))
	if kind == "" || kind == "identity" {
		switch {
		case strings.HasSuffix(path, ".gz"):
			kind = "gzip"
		case strings.HasSuffix(path, ".zst"):
			kind = "zstd"
		}
	}

	switch kind {
	case "", "identity":
		return body, nil

	case "gzip":
		zr, err := gzip.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create gzip reader: %w", err)
		}
		return readCloser{Reader: zr, close: func() error {
			zr.Close()
			return body.Close()
		}}, nil

	case "zstd":
		dec, err := zstd.NewReader(body)
		if err != nil {
			return nil, fmt.Errorf("failed to create zstd reader: %w", err)
		}
		return readCloser{Reader: dec, close: func() error {
			dec.Close()
			return body.Close()
		}}, nil
	}
	return nil, fmt.Errorf("unsupported content encoding %q", encoding)
}
