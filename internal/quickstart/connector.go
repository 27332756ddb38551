package quickstart

import (
	"context"
	"fmt"

	"github.com/tizianocitro/blobquickstart"
	"github.com/tizianocitro/blobquickstart/internal/config"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

// OptionsFromConfig converts the quickstart section of the configuration.
func OptionsFromConfig(cfg config.QuickstartConfig) (Options, error) {
	access, err := common.ParsePublicAccess(cfg.PublicAccess)
	if err != nil {
		return Options{}, err
	}

	return Options{
		ContainerPrefix: cfg.ContainerPrefix,
		FilePrefix:      cfg.FilePrefix,
		Content:         cfg.Content,
		LocalDir:        cfg.LocalDir,
		PageSize:        cfg.PageSize,
		PublicAccess:    access,
		Interactive:     cfg.Interactive,
	}, nil
}

// NewConnector returns a Connector for the configured provider.
//
// Azure uses the connection string unless an account name and key or
// use_env_credentials are configured. S3 and MinIO always use a key pair,
// either explicit or from the environment.
func NewConnector(cfg config.StorageConfig) (Connector, error) {
	compress, err := common.ParseCompression(cfg.Compression)
	if err != nil {
		return nil, err
	}
	encrypt, err := common.ParseEncryption(cfg.Encryption)
	if err != nil {
		return nil, err
	}

	opts := blobquickstart.ConnectionOptions{
		SaveCompress: compress,
		SaveEncrypt:  encrypt,
		EncryptKey:   cfg.EncryptKey,
	}
	switch {
	case cfg.UseEnvCredentials:
		opts.ConnectionMethod = blobquickstart.ConnectWithEnvCredentials()
	case cfg.Provider == "azblob" && cfg.AccessKey == "":
		opts.ConnectionMethod = blobquickstart.ConnectWithConnectionString(cfg.ConnectionString)
	default:
		opts.ConnectionMethod = blobquickstart.ConnectWithCredentials(cfg.AccessKey, cfg.SecretKey)
	}

	switch cfg.Provider {
	case "azblob":
		return func(ctx context.Context) (filestorage.FileStorage, error) {
			return blobquickstart.NewAzBlobConnection(ctx, cfg.Endpoint, opts)
		}, nil
	case "s3":
		return func(ctx context.Context) (filestorage.FileStorage, error) {
			return blobquickstart.NewS3Connection(ctx, cfg.Endpoint, opts, cfg.Region)
		}, nil
	case "minio":
		return func(ctx context.Context) (filestorage.FileStorage, error) {
			return blobquickstart.NewMinIOConnection(ctx, cfg.Endpoint, opts, nil)
		}, nil
	}

	return nil, fmt.Errorf("unsupported storage provider: %q", cfg.Provider)
}
