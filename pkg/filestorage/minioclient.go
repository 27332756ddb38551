package filestorage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"

	"github.com/minio/minio-go/v7"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/transform"
)

// MinioClient is a client for interacting with MinIO storage; containers map to buckets.
// It implements the FileStorage interface.
type MinioClient struct {
	client     *minio.Client
	properties common.ConnectionProperties
	pipeline   transform.Pipeline
}

// NewMinioClient wraps an original MinIO client and checks that the server
// answers a bucket listing.
func NewMinioClient(ctx context.Context, client *minio.Client, properties common.ConnectionProperties) (*MinioClient, error) {
	if client == nil {
		return nil, fmt.Errorf("failed to create MinIO client: client is nil")
	}

	pipe, err := transform.ForProperties(properties)
	if err != nil {
		return nil, fmt.Errorf("failed to create MinIO client: %w", err)
	}

	_, err = client.ListBuckets(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to MinIO: %w", err)
	}

	return &MinioClient{
		client:     client,
		properties: properties,
		pipeline:   pipe,
	}, nil
}

// GetClient returns the underlying MinIO client.
func (m *MinioClient) GetClient() *minio.Client {
	return m.client
}

func (m *MinioClient) GetConnectionProperties() common.ConnectionProperties {
	return m.properties
}

func (m *MinioClient) CreateContainer(ctx context.Context, bucketName string) error {
	err := m.client.MakeBucket(ctx, bucketName, minio.MakeBucketOptions{})
	if err != nil {
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	return nil
}

// SetPublicAccess installs an anonymous-read bucket policy; an empty policy removes it.
func (m *MinioClient) SetPublicAccess(ctx context.Context, bucketName string, access common.PublicAccess) error {
	policy, err := publicReadPolicy(bucketName, access)
	if err != nil {
		return err
	}

	if err := m.client.SetBucketPolicy(ctx, bucketName, policy); err != nil {
		return fmt.Errorf("failed to set bucket policy on %s: %w", bucketName, err)
	}

	return nil
}

func (m *MinioClient) ContainerExists(ctx context.Context, bucketName string) (bool, error) {
	found, err := m.client.BucketExists(ctx, bucketName)
	if err != nil {
		return false, fmt.Errorf("failed to check bucket %s: %w", bucketName, err)
	}

	return found, nil
}

// DeleteContainerIfExists removes every object in the bucket and then the bucket itself.
func (m *MinioClient) DeleteContainerIfExists(ctx context.Context, bucketName string) error {
	found, err := m.ContainerExists(ctx, bucketName)
	if err != nil {
		return err
	}
	if !found {
		return nil
	}

	removeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	objects := m.client.ListObjects(removeCtx, bucketName, minio.ListObjectsOptions{Recursive: true})
	for rerr := range m.client.RemoveObjects(removeCtx, bucketName, objects, minio.RemoveObjectsOptions{}) {
		return fmt.Errorf("failed to remove object %s from %s: %w", rerr.ObjectName, bucketName, rerr.Err)
	}

	err = m.client.RemoveBucket(ctx, bucketName)
	if err != nil {
		if minio.ToErrorResponse(err).Code == "NoSuchBucket" {
			return nil
		}
		return fmt.Errorf("failed to remove bucket: %w", err)
	}

	return nil
}

// GetObject stats the object first, because minio-go defers errors to the first read.
func (m *MinioClient) GetObject(ctx context.Context, storeBox string, fileName string) (io.ReadCloser, error) {
	object, err := m.client.GetObject(ctx, storeBox, fileName, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("failed to get the object from MinIO client: %w", err)
	}

	if _, err := object.Stat(); err != nil {
		_ = object.Close()
		return nil, fmt.Errorf("failed to get the object from MinIO client: %w", err)
	}

	obj, err := m.pipeline.Decode(object)
	if err != nil {
		return nil, fmt.Errorf("fail to transform reader: %w", err)
	}

	return obj, nil
}

func (m *MinioClient) PutObject(ctx context.Context, storeBox string, fileName string, reader io.Reader) error {
	if reader == nil {
		return fmt.Errorf("reader is nil")
	}

	obj, closer, err := m.pipeline.Encode(reader)
	if err != nil {
		return fmt.Errorf("apply write pipeline: %w", err)
	}
	defer closer.Close()

	_, err = m.client.PutObject(ctx, storeBox, fileName, obj, getSize(obj), minio.PutObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to put the object into minio bucket: %w", err)
	}

	return nil
}

func (m *MinioClient) RemoveObject(ctx context.Context, storeBox string, fileName string) error {
	_, err := m.client.StatObject(ctx, storeBox, fileName, minio.StatObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object from minio bucket: %w", err)
	}

	err = m.client.RemoveObject(ctx, storeBox, fileName, minio.RemoveObjectOptions{})
	if err != nil {
		return fmt.Errorf("failed to remove object from minio bucket: %w", err)
	}

	return nil
}

// ListObjectsPage pages with StartAfter; the continuation token is the last key of the previous page.
// One extra key is requested to learn whether another page exists.
func (m *MinioClient) ListObjectsPage(ctx context.Context, storeBox string, token *string, maxResults int32) (ObjectPage, error) {
	if maxResults <= 0 {
		maxResults = 1000
	}

	listCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	opts := minio.ListObjectsOptions{Recursive: true, MaxKeys: int(maxResults)}
	if token != nil {
		opts.StartAfter = *token
	}

	var page ObjectPage
	for obj := range m.client.ListObjects(listCtx, storeBox, opts) {
		if obj.Err != nil {
			return ObjectPage{}, fmt.Errorf("failed to list objects: %w", obj.Err)
		}
		if len(page.Objects) == int(maxResults) {
			last := page.Objects[len(page.Objects)-1].Name
			page.ContinuationToken = &last
			break
		}
		page.Objects = append(page.Objects, ObjectInfo{
			Name:         obj.Key,
			URI:          m.objectURL(storeBox, obj.Key),
			Size:         obj.Size,
			LastModified: obj.LastModified,
		})
	}

	return page, nil
}

func (m *MinioClient) objectURL(bucketName, key string) string {
	u := *m.client.EndpointURL()
	u.Path = "/" + bucketName + "/" + key
	u.RawPath = ""
	return u.String()
}

// getSize reports the length of readers that know it, and -1 otherwise so
// minio-go falls back to a streaming multipart upload.
func getSize(reader io.Reader) int64 {
	switch r := reader.(type) {
	case *bytes.Reader:
		return int64(r.Len())
	case *strings.Reader:
		return int64(r.Len())
	case *bytes.Buffer:
		return int64(r.Len())
	}

	seeker, ok := reader.(io.Seeker)
	if !ok {
		return -1
	}
	cur, err := seeker.Seek(0, io.SeekCurrent)
	if err != nil {
		return -1
	}
	end, err := seeker.Seek(0, io.SeekEnd)
	if err != nil {
		return -1
	}
	if _, err := seeker.Seek(cur, io.SeekStart); err != nil {
		return -1
	}
	return end - cur
}
