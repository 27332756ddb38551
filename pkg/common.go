package common

import "fmt"

// ConnectionProperties defines the properties for a connection.
// SaveCompress selects the compression applied to objects before they are stored.
// SaveEncrypt selects the encryption applied to objects before they are stored.
// EncryptKey is the passphrase used when SaveEncrypt is AES256_ENCRYPTION.
type ConnectionProperties struct {
	SaveCompress CompressionAlgorithm
	SaveEncrypt  EncryptionAlgorithm
	EncryptKey   string
}

type CompressionAlgorithm int

const (
	NO_COMPRESSION CompressionAlgorithm = iota
	GZIP_COMPRESSION
)

type EncryptionAlgorithm int

const (
	NO_ENCRYPTION EncryptionAlgorithm = iota
	AES256_ENCRYPTION
)

// PublicAccess is the anonymous read level granted on a container.
// PRIVATE_ACCESS disables anonymous access.
// BLOB_ACCESS allows anonymous reads of single objects.
// CONTAINER_ACCESS also allows anonymous listing of the container.
type PublicAccess int

const (
	PRIVATE_ACCESS PublicAccess = iota
	BLOB_ACCESS
	CONTAINER_ACCESS
)

func (p PublicAccess) String() string {
	switch p {
	case PRIVATE_ACCESS:
		return "none"
	case BLOB_ACCESS:
		return "blob"
	case CONTAINER_ACCESS:
		return "container"
	}
	return fmt.Sprintf("PublicAccess(%d)", int(p))
}

// ParsePublicAccess maps the configuration names none, blob and container to a PublicAccess.
func ParsePublicAccess(s string) (PublicAccess, error) {
	switch s {
	case "", "none", "private":
		return PRIVATE_ACCESS, nil
	case "blob":
		return BLOB_ACCESS, nil
	case "container":
		return CONTAINER_ACCESS, nil
	}
	return PRIVATE_ACCESS, fmt.Errorf("unknown public access level: %q", s)
}

// ParseCompression maps the configuration names none and gzip to a CompressionAlgorithm.
func ParseCompression(s string) (CompressionAlgorithm, error) {
	switch s {
	case "", "none":
		return NO_COMPRESSION, nil
	case "gzip":
		return GZIP_COMPRESSION, nil
	}
	return NO_COMPRESSION, fmt.Errorf("unknown compression algorithm: %q", s)
}

// ParseEncryption maps the configuration names none and aes256 to an EncryptionAlgorithm.
func ParseEncryption(s string) (EncryptionAlgorithm, error) {
	switch s {
	case "", "none":
		return NO_ENCRYPTION, nil
	case "aes256":
		return AES256_ENCRYPTION, nil
	}
	return NO_ENCRYPTION, fmt.Errorf("unknown encryption algorithm: %q", s)
}
