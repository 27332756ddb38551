package encryption

import (
	"bytes"
	"crypto/aes"
	"crypto/cipher"
	"crypto/rand"
	"crypto/sha256"
	"errors"
	"fmt"
	"io"
)

var ErrMissingKey = errors.New("aesgcm: missing key")

// AESGCM seals a whole body with AES-256-GCM. The stored form is nonce || ciphertext.
type AESGCM struct {
	aead cipher.AEAD
}

// NewAESGCM derives a 32-byte key from passphrase with SHA-256.
func NewAESGCM(passphrase string) (*AESGCM, error) {
	if passphrase == "" {
		return nil, ErrMissingKey
	}
	key := sha256.Sum256([]byte(passphrase))

	block, err := aes.NewCipher(key[:])
	if err != nil {
		return nil, fmt.Errorf("aesgcm: new cipher: %w", err)
	}
	aead, err := cipher.NewGCM(block)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: new GCM: %w", err)
	}
	return &AESGCM{aead: aead}, nil
}

func (*AESGCM) Name() string { return "aes256-gcm" }

func (a *AESGCM) Encode(r io.Reader) (io.Reader, io.Closer, error) {
	plain, err := io.ReadAll(r)
	if err != nil {
		return nil, nil, fmt.Errorf("aesgcm: read input: %w", err)
	}

	nonce := make([]byte, a.aead.NonceSize(), a.aead.NonceSize()+len(plain)+a.aead.Overhead())
	if _, err := rand.Read(nonce); err != nil {
		return nil, nil, fmt.Errorf("aesgcm: nonce: %w", err)
	}

	return bytes.NewReader(a.aead.Seal(nonce, nonce, plain, nil)), nil, nil
}

func (a *AESGCM) Decode(rc io.ReadCloser) (io.ReadCloser, error) {
	sealed, err := io.ReadAll(rc)
	_ = rc.Close()
	if err != nil {
		return nil, fmt.Errorf("aesgcm: read input: %w", err)
	}

	n := a.aead.NonceSize()
	if len(sealed) < n {
		return nil, fmt.Errorf("aesgcm: invalid ciphertext (too short)")
	}

	plain, err := a.aead.Open(nil, sealed[:n], sealed[n:], nil)
	if err != nil {
		return nil, fmt.Errorf("aesgcm: decryption failed: %w", err)
	}
	return io.NopCloser(bytes.NewReader(plain)), nil
}
