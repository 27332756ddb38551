package connfilestorage

import (
	"context"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3config "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/tizianocitro/blobquickstart/internal/connection"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

// CreateS3Connection creates an S3Client from config.
// endpoint overrides the service endpoint (LocalStack, S3-compatible stores); "" or
// "default" uses AWS. Path-style addressing is always on.
func CreateS3Connection(ctx context.Context, endpoint string, config *connection.AuthConfig, awsRegion string) (*filestorage.S3Client, error) {
	if config == nil {
		return nil, fmt.Errorf("AuthConfig cannot be nil")
	}

	if endpoint == "default" {
		endpoint = ""
	}

	if awsRegion == "" {
		awsRegion = "no-region"
	}

	opts := []func(*s3config.LoadOptions) error{s3config.WithRegion(awsRegion)}

	switch config.GetConnectType() {
	case connection.WithCredential:
		if config.GetAccessKey() == "" || config.GetSecretKey() == "" {
			return nil, fmt.Errorf("access key and/or secret key not set: %w", connection.ErrCredentialNotSet)
		}
		opts = append(opts, s3config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			config.GetAccessKey(),
			config.GetSecretKey(),
			"",
		)))
	case connection.WithEnv:
		if os.Getenv("AWS_ACCESS_KEY_ID") == "" || os.Getenv("AWS_SECRET_ACCESS_KEY") == "" {
			return nil, fmt.Errorf("environment variables AWS_ACCESS_KEY_ID and/or AWS_SECRET_ACCESS_KEY are not set: %w",
				connection.ErrCredentialNotSet)
		}
	default:
		return nil, fmt.Errorf("invalid connection type for AWS S3: %s", config.GetConnectType())
	}

	awsCfg, err := s3config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("cannot load the AWS configuration: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		o.UsePathStyle = true
		if endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
		}
	})

	return filestorage.NewS3Client(ctx, client, config.GetProperties())
}
