// Package blobquickstart connects to blob storage backends and exposes them
// through the filestorage.FileStorage interface.
package blobquickstart

import (
	"context"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/tizianocitro/blobquickstart/internal/connection"
	connfilestorage "github.com/tizianocitro/blobquickstart/internal/connection/filestorage"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

// ConnectionOptions holds the options for creating a connection.
// parameters:
// - ConnectionMethod: The method used to establish the connection.
// - SaveEncrypt: The encryption applied to objects before they are stored.
// - SaveCompress: The compression applied to objects before they are stored.
// - EncryptKey: The passphrase used with AES256_ENCRYPTION.
type ConnectionOptions struct {
	ConnectionMethod connectionFunc
	SaveEncrypt      EncryptionAlgorithm
	SaveCompress     CompressionAlgorithm
	EncryptKey       string
}

type connectionFunc *connection.AuthConfig

var (
	// ErrCredentialNotSet is returned when no credential was supplied.
	ErrCredentialNotSet = connection.ErrCredentialNotSet
	// ErrInvalidCredential is returned when a credential cannot be parsed.
	ErrInvalidCredential = connection.ErrInvalidCredential
)

func prepare(connectionOptions ConnectionOptions, allowed ...connection.ConnectType) (*connection.AuthConfig, error) {
	var authConfig *connection.AuthConfig = connectionOptions.ConnectionMethod
	if authConfig == nil {
		return nil, fmt.Errorf("connectionMethod cannot be nil")
	}

	valid := false
	for _, t := range allowed {
		if authConfig.GetConnectType() == t {
			valid = true
			break
		}
	}
	if !valid {
		return nil, fmt.Errorf("invalid connection method %q; use one of %v", authConfig.GetConnectType(), allowed)
	}

	authConfig.SetProperties(common.ConnectionProperties{
		SaveEncrypt:  connectionOptions.SaveEncrypt,
		SaveCompress: connectionOptions.SaveCompress,
		EncryptKey:   connectionOptions.EncryptKey,
	})
	return authConfig, nil
}

// NewAzBlobConnection creates a new Azure Blob Storage connection.
// With ConnectWithConnectionString the endpoint is taken from the connection string.
func NewAzBlobConnection(ctx context.Context, endpoint string, connectionOptions ConnectionOptions) (*filestorage.AzBlobClient, error) {
	authConfig, err := prepare(connectionOptions,
		connection.WithCredential, connection.WithEnv, connection.WithConnectionString)
	if err != nil {
		return nil, err
	}

	return connfilestorage.CreateAzBlobConnection(ctx, endpoint, authConfig)
}

// NewS3Connection creates a new AWS S3 (or S3-compatible) connection.
func NewS3Connection(ctx context.Context, endpoint string, connectionOptions ConnectionOptions, awsRegion string) (*filestorage.S3Client, error) {
	authConfig, err := prepare(connectionOptions, connection.WithCredential, connection.WithEnv)
	if err != nil {
		return nil, err
	}

	return connfilestorage.CreateS3Connection(ctx, endpoint, authConfig, awsRegion)
}

// NewMinIOConnection creates a new MinIO connection.
// It takes an endpoint, connection options, and optional MinIO options.
func NewMinIOConnection(ctx context.Context, endpoint string, connectionOptions ConnectionOptions, minioOptions *minio.Options) (*filestorage.MinioClient, error) {
	authConfig, err := prepare(connectionOptions, connection.WithCredential, connection.WithEnv)
	if err != nil {
		return nil, err
	}

	return connfilestorage.CreateMinioConnection(ctx, endpoint, authConfig, minioOptions)
}

// ConnectWithCredentials returns a connectionFunc configured with the provided credentials.
// For Azure the identity is the storage account name.
func ConnectWithCredentials(identity string, secretAccessKey string) connectionFunc {
	authConfig := connection.NewAuthConfig(connection.WithCredential)
	authConfig.SetAccessKey(identity)
	authConfig.SetSecretKey(secretAccessKey)
	return authConfig
}

// ConnectWithEnvCredentials returns a connectionFunc that reads the provider's
// standard credential environment variables when connecting.
func ConnectWithEnvCredentials() connectionFunc {
	return connection.NewAuthConfig(connection.WithEnv)
}

// ConnectWithConnectionString returns a connectionFunc configured with an Azure storage connection string.
func ConnectWithConnectionString(connectionString string) connectionFunc {
	authConfig := connection.NewAuthConfig(connection.WithConnectionString)
	authConfig.SetConnectionString(connectionString)
	return authConfig
}

// Re-export types (type alias)
type CompressionAlgorithm = common.CompressionAlgorithm
type EncryptionAlgorithm = common.EncryptionAlgorithm
type PublicAccess = common.PublicAccess

// Re-export constants
const (
	NO_COMPRESSION   = common.NO_COMPRESSION
	GZIP_COMPRESSION = common.GZIP_COMPRESSION

	NO_ENCRYPTION     = common.NO_ENCRYPTION
	AES256_ENCRYPTION = common.AES256_ENCRYPTION

	PRIVATE_ACCESS   = common.PRIVATE_ACCESS
	BLOB_ACCESS      = common.BLOB_ACCESS
	CONTAINER_ACCESS = common.CONTAINER_ACCESS
)
