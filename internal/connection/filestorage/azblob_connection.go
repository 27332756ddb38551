package connfilestorage

import (
	"context"
	"fmt"
	"os"

	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/tizianocitro/blobquickstart/internal/connection"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

// CreateAzBlobConnection creates an AzBlobClient from config.
// endpoint is the account URL used with shared-key credentials; "" or "default"
// selects https://<account>.blob.core.windows.net. A connection string carries
// its own endpoint, so endpoint is ignored in that mode.
// Credential problems are reported before any request is sent.
func CreateAzBlobConnection(ctx context.Context, endpoint string, config *connection.AuthConfig) (*filestorage.AzBlobClient, error) {
	if config == nil {
		return nil, fmt.Errorf("AuthConfig cannot be nil")
	}

	var client *azblob.Client

	switch config.GetConnectType() {
	case connection.WithCredential:
		c, err := sharedKeyClient(endpoint, config.GetAccessKey(), config.GetSecretKey())
		if err != nil {
			return nil, err
		}
		client = c
	case connection.WithEnv:
		accountName := os.Getenv("AZURE_STORAGE_ACCOUNT_NAME")
		accountKey := os.Getenv("AZURE_STORAGE_ACCOUNT_KEY")
		if accountName == "" || accountKey == "" {
			return nil, fmt.Errorf("environment variables AZURE_STORAGE_ACCOUNT_NAME and/or AZURE_STORAGE_ACCOUNT_KEY are not set: %w",
				connection.ErrCredentialNotSet)
		}
		c, err := sharedKeyClient(endpoint, accountName, accountKey)
		if err != nil {
			return nil, err
		}
		client = c
	case connection.WithConnectionString:
		if config.GetConnectionString() == "" {
			return nil, fmt.Errorf("azure storage connection string is empty: %w", connection.ErrCredentialNotSet)
		}
		c, err := azblob.NewClientFromConnectionString(config.GetConnectionString(), nil)
		if err != nil {
			return nil, fmt.Errorf("failed to create Azure Blob Storage client: %w: %v", connection.ErrInvalidCredential, err)
		}
		client = c
	default:
		return nil, fmt.Errorf("invalid connection type for azure blob: %s", config.GetConnectType())
	}

	return filestorage.NewAzBlobClient(ctx, client, config.GetProperties())
}

func sharedKeyClient(endpoint, accountName, accountKey string) (*azblob.Client, error) {
	if accountName == "" || accountKey == "" {
		return nil, fmt.Errorf("access key and/or secret key not set: %w", connection.ErrCredentialNotSet)
	}

	credential, err := azblob.NewSharedKeyCredential(accountName, accountKey)
	if err != nil {
		return nil, fmt.Errorf("failed to create shared key credential: %w: %v", connection.ErrInvalidCredential, err)
	}

	accountURL := endpoint
	if accountURL == "" || accountURL == "default" {
		accountURL = fmt.Sprintf("https://%s.blob.core.windows.net", accountName)
	}

	client, err := azblob.NewClientWithSharedKeyCredential(accountURL, credential, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create Azure Blob Storage client: %w", err)
	}

	return client, nil
}
