package filestorage

import (
	"context"
	"io"
	"time"

	common "github.com/tizianocitro/blobquickstart/pkg"
)

// FileStorage is the set of container and object operations every backend provides.
// storeBox names the container (Azure) or bucket (S3, MinIO) an object lives in.
type FileStorage interface {
	CreateContainer(ctx context.Context, containerName string) error
	SetPublicAccess(ctx context.Context, containerName string, access common.PublicAccess) error
	ContainerExists(ctx context.Context, containerName string) (bool, error)
	DeleteContainerIfExists(ctx context.Context, containerName string) error

	PutObject(ctx context.Context, storeBox string, fileName string, reader io.Reader) error
	GetObject(ctx context.Context, storeBox string, fileName string) (io.ReadCloser, error)
	RemoveObject(ctx context.Context, storeBox string, fileName string) error

	// ListObjectsPage returns at most maxResults objects starting at token.
	// A nil token starts from the beginning; a nil ContinuationToken in the
	// result means there are no more pages.
	ListObjectsPage(ctx context.Context, storeBox string, token *string, maxResults int32) (ObjectPage, error)

	GetConnectionProperties() common.ConnectionProperties
}

type ObjectInfo struct {
	Name         string
	URI          string
	Size         int64
	LastModified time.Time
}

type ObjectPage struct {
	Objects           []ObjectInfo
	ContinuationToken *string
}

// nextToken normalizes the empty-marker responses some services send on the last page.
func nextToken(token *string) *string {
	if token == nil || *token == "" {
		return nil
	}
	return token
}

var (
	_ FileStorage = (*AzBlobClient)(nil)
	_ FileStorage = (*S3Client)(nil)
	_ FileStorage = (*MinioClient)(nil)
)
