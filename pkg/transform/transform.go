// Package transform encodes objects before they are stored and decodes them after they are read.
package transform

import (
	"fmt"
	"io"

	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/transform/compression"
	"github.com/tizianocitro/blobquickstart/pkg/transform/encryption"
)

// Step is a reversible transformation of an object body.
type Step interface {
	Name() string
	// Encode returns the encoded stream and an optional closer that releases
	// resources held by the step when the stream is not read to the end.
	Encode(r io.Reader) (io.Reader, io.Closer, error)
	Decode(rc io.ReadCloser) (io.ReadCloser, error)
}

// Pipeline applies its steps in order on Encode and in reverse order on Decode.
type Pipeline struct {
	steps []Step
}

func NewPipeline(steps ...Step) Pipeline {
	return Pipeline{steps: steps}
}

// Empty reports whether the pipeline leaves bodies untouched.
func (p Pipeline) Empty() bool {
	return len(p.steps) == 0
}

func (p Pipeline) Names() []string {
	names := make([]string, 0, len(p.steps))
	for _, s := range p.steps {
		names = append(names, s.Name())
	}
	return names
}

// Encode chains the steps. The returned closer must be closed once the caller
// is done with the stream.
func (p Pipeline) Encode(r io.Reader) (io.Reader, io.Closer, error) {
	var closers multiCloser
	cur := r
	for _, s := range p.steps {
		out, c, err := s.Encode(cur)
		if err != nil {
			_ = closers.Close()
			return nil, nil, fmt.Errorf("%s: %w", s.Name(), err)
		}
		if c != nil {
			closers = append(closers, c)
		}
		cur = out
	}
	return cur, closers, nil
}

func (p Pipeline) Decode(rc io.ReadCloser) (io.ReadCloser, error) {
	cur := rc
	for i := len(p.steps) - 1; i >= 0; i-- {
		out, err := p.steps[i].Decode(cur)
		if err != nil {
			_ = cur.Close()
			return nil, fmt.Errorf("%s: %w", p.steps[i].Name(), err)
		}
		cur = out
	}
	return cur, nil
}

type multiCloser []io.Closer

func (m multiCloser) Close() error {
	var first error
	for i := len(m) - 1; i >= 0; i-- {
		if err := m[i].Close(); err != nil && first == nil {
			first = err
		}
	}
	return first
}

// ForProperties builds the pipeline selected by the connection properties.
// Objects are compressed first and then encrypted.
func ForProperties(props common.ConnectionProperties) (Pipeline, error) {
	var steps []Step

	switch props.SaveCompress {
	case common.NO_COMPRESSION:
	case common.GZIP_COMPRESSION:
		steps = append(steps, compression.Gzip{})
	default:
		return Pipeline{}, fmt.Errorf("unsupported compression algorithm: %v", props.SaveCompress)
	}

	switch props.SaveEncrypt {
	case common.NO_ENCRYPTION:
	case common.AES256_ENCRYPTION:
		aead, err := encryption.NewAESGCM(props.EncryptKey)
		if err != nil {
			return Pipeline{}, err
		}
		steps = append(steps, aead)
	default:
		return Pipeline{}, fmt.Errorf("unsupported encryption algorithm: %v", props.SaveEncrypt)
	}

	return NewPipeline(steps...), nil
}
