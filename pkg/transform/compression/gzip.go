package compression

import (
	"compress/gzip"
	"fmt"
	"io"
)

// Gzip compresses bodies on Encode and decompresses them on Decode.
type Gzip struct{}

func (Gzip) Name() string { return "gzip" }

// Encode streams the compressed form of r; compression runs as the result is consumed.
// Closing the returned closer stops the compressor early.
func (Gzip) Encode(r io.Reader) (io.Reader, io.Closer, error) {
	pr, pw := io.Pipe()
	go func() {
		zw := gzip.NewWriter(pw)
		if _, err := io.Copy(zw, r); err != nil {
			_ = zw.Close()
			pw.CloseWithError(fmt.Errorf("gzip: copy: %w", err))
			return
		}
		pw.CloseWithError(zw.Close())
	}()
	return pr, pr, nil
}

func (Gzip) Decode(rc io.ReadCloser) (io.ReadCloser, error) {
	zr, err := gzip.NewReader(rc)
	if err != nil {
		return nil, fmt.Errorf("gzip: %w", err)
	}
	return &gzipReadCloser{Reader: zr, src: rc}, nil
}

type gzipReadCloser struct {
	*gzip.Reader
	src io.Closer
}

func (g *gzipReadCloser) Close() error {
	zerr := g.Reader.Close()
	if err := g.src.Close(); err != nil {
		return err
	}
	return zerr
}
