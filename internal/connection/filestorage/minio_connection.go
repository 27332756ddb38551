package connfilestorage

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
	"github.com/tizianocitro/blobquickstart/internal/connection"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

// CreateMinioConnection creates a MinioClient.
// It takes an endpoint, an AuthConfig, and optional MinIO options.
// The scheme of endpoint decides whether TLS is used when minioOptions is nil.
func CreateMinioConnection(ctx context.Context, endpoint string, config *connection.AuthConfig, minioOptions *minio.Options) (*filestorage.MinioClient, error) {
	if config == nil {
		return nil, fmt.Errorf("AuthConfig cannot be nil")
	}

	if minioOptions == nil {
		minioOptions = &minio.Options{
			Secure: strings.HasPrefix(endpoint, "https://"),
		}
	}

	if endpoint == "" || endpoint == "default" {
		endpoint = "localhost:9000"
	}
	endpoint = strings.TrimPrefix(endpoint, "http://")
	endpoint = strings.TrimPrefix(endpoint, "https://")

	switch config.GetConnectType() {
	case connection.WithCredential:
		if config.GetAccessKey() == "" || config.GetSecretKey() == "" {
			return nil, fmt.Errorf("access key and/or secret key not set: %w", connection.ErrCredentialNotSet)
		}
		minioOptions.Creds = credentials.NewStaticV4(config.GetAccessKey(), config.GetSecretKey(), "")
	case connection.WithEnv:
		accessKey := os.Getenv("MINIO_ACCESS_KEY")
		secretKey := os.Getenv("MINIO_SECRET_KEY")
		if accessKey == "" || secretKey == "" {
			return nil, fmt.Errorf("environment variables MINIO_ACCESS_KEY and/or MINIO_SECRET_KEY are not set: %w",
				connection.ErrCredentialNotSet)
		}
		minioOptions.Creds = credentials.NewStaticV4(accessKey, secretKey, "")
	default:
		return nil, fmt.Errorf("invalid connection type for MinIO: %s", config.GetConnectType())
	}

	minioClient, err := minio.New(endpoint, minioOptions)
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	return filestorage.NewMinioClient(ctx, minioClient, config.GetProperties())
}
