package connfilestorage_test

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tizianocitro/blobquickstart/internal/connection"
	connfilestorage "github.com/tizianocitro/blobquickstart/internal/connection/filestorage"
)

func authConfig(connectType connection.ConnectType, accessKey, secretKey string) *connection.AuthConfig {
	config := connection.NewAuthConfig(connectType)
	config.SetAccessKey(accessKey)
	config.SetSecretKey(secretKey)
	return config
}

func TestCreateConnection_NilConfig(t *testing.T) {
	ctx := context.Background()

	az, err := connfilestorage.CreateAzBlobConnection(ctx, "", nil)
	assert.EqualError(t, err, "AuthConfig cannot be nil")
	assert.Nil(t, az)

	s3c, err := connfilestorage.CreateS3Connection(ctx, "", nil, "")
	assert.EqualError(t, err, "AuthConfig cannot be nil")
	assert.Nil(t, s3c)

	mc, err := connfilestorage.CreateMinioConnection(ctx, "", nil, nil)
	assert.EqualError(t, err, "AuthConfig cannot be nil")
	assert.Nil(t, mc)
}

func TestCreateAzBlobConnection_InvalidConnType(t *testing.T) {
	config := authConfig("InvalidConnectionTypeForAzblob", "account", "key")

	conn, err := connfilestorage.CreateAzBlobConnection(context.Background(), "", config)
	require.Error(t, err)
	assert.ErrorContains(t, err, "invalid connection type for azure blob:")
	assert.Nil(t, conn)
}

func TestCreateAzBlobConnection_WithCredentials_MissingCredentials(t *testing.T) {
	config := authConfig(connection.WithCredential, "", "")

	conn, err := connfilestorage.CreateAzBlobConnection(context.Background(), "", config)
	require.Error(t, err)
	assert.ErrorIs(t, err, connection.ErrCredentialNotSet)
	assert.ErrorContains(t, err, "access key and/or secret key not set")
	assert.Nil(t, conn)
}

func TestCreateAzBlobConnection_WithCredentials_KeyNotBase64(t *testing.T) {
	config := authConfig(connection.WithCredential, "account", "not base64!")

	conn, err := connfilestorage.CreateAzBlobConnection(context.Background(), "", config)
	require.Error(t, err)
	assert.ErrorIs(t, err, connection.ErrInvalidCredential)
	assert.Nil(t, conn)
}

func TestCreateAzBlobConnection_WithEnv_NoEnvCredentialSetup(t *testing.T) {
	t.Setenv("AZURE_STORAGE_ACCOUNT_NAME", "")
	t.Setenv("AZURE_STORAGE_ACCOUNT_KEY", "")

	conn, err := connfilestorage.CreateAzBlobConnection(context.Background(), "", connection.NewAuthConfig(connection.WithEnv))
	require.Error(t, err)
	assert.ErrorIs(t, err, connection.ErrCredentialNotSet)
	assert.ErrorContains(t, err, "environment variables AZURE_STORAGE_ACCOUNT_NAME and/or AZURE_STORAGE_ACCOUNT_KEY are not set")
	assert.Nil(t, conn)
}

func TestCreateAzBlobConnection_WithConnString(t *testing.T) {
	cases := []struct {
		name             string
		connectionString string
		want             error
	}{
		{"empty", "", connection.ErrCredentialNotSet},
		{"malformed", "invalidstring", connection.ErrInvalidCredential},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			config := connection.NewAuthConfig(connection.WithConnectionString)
			config.SetConnectionString(tc.connectionString)

			conn, err := connfilestorage.CreateAzBlobConnection(context.Background(), "", config)
			require.Error(t, err)
			assert.ErrorIs(t, err, tc.want)
			assert.Nil(t, conn)
		})
	}
}

func TestCreateS3Connection_CredentialErrors(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "")
	ctx := context.Background()

	conn, err := connfilestorage.CreateS3Connection(ctx, "", authConfig(connection.WithCredential, "user", ""), "us-east-1")
	assert.ErrorIs(t, err, connection.ErrCredentialNotSet)
	assert.Nil(t, conn)

	conn, err = connfilestorage.CreateS3Connection(ctx, "", connection.NewAuthConfig(connection.WithEnv), "us-east-1")
	assert.ErrorIs(t, err, connection.ErrCredentialNotSet)
	assert.ErrorContains(t, err, "AWS_ACCESS_KEY_ID and/or AWS_SECRET_ACCESS_KEY")
	assert.Nil(t, conn)

	conn, err = connfilestorage.CreateS3Connection(ctx, "", connection.NewAuthConfig(connection.WithConnectionString), "us-east-1")
	assert.ErrorContains(t, err, fmt.Sprintf("invalid connection type for AWS S3: %s", connection.WithConnectionString))
	assert.Nil(t, conn)
}

func TestCreateMinioConnection_CredentialErrors(t *testing.T) {
	t.Setenv("MINIO_ACCESS_KEY", "")
	t.Setenv("MINIO_SECRET_KEY", "")
	ctx := context.Background()

	conn, err := connfilestorage.CreateMinioConnection(ctx, "localhost:9000", authConfig(connection.WithCredential, "", "secret"), nil)
	assert.ErrorIs(t, err, connection.ErrCredentialNotSet)
	assert.Nil(t, conn)

	conn, err = connfilestorage.CreateMinioConnection(ctx, "localhost:9000", connection.NewAuthConfig(connection.WithEnv), nil)
	assert.ErrorIs(t, err, connection.ErrCredentialNotSet)
	assert.ErrorContains(t, err, "MINIO_ACCESS_KEY and/or MINIO_SECRET_KEY")
	assert.Nil(t, conn)

	conn, err = connfilestorage.CreateMinioConnection(ctx, "localhost:9000", connection.NewAuthConfig(connection.WithConnectionString), nil)
	assert.ErrorContains(t, err, "invalid connection type for MinIO")
	assert.Nil(t, conn)
}
