package filestorage

import (
	"context"
	"fmt"
	"io"

	"github.com/Azure/azure-sdk-for-go/sdk/azcore/to"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/bloberror"
	"github.com/Azure/azure-sdk-for-go/sdk/storage/azblob/container"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/transform"
)

// AzBlobClient wraps an Azure Blob Storage client.
// It implements the FileStorage interface.
type AzBlobClient struct {
	client     *azblob.Client
	properties common.ConnectionProperties
	pipeline   transform.Pipeline
}

// NewAzBlobClient wraps client and checks that the account answers a container listing.
func NewAzBlobClient(ctx context.Context, client *azblob.Client, properties common.ConnectionProperties) (*AzBlobClient, error) {
	if client == nil {
		return nil, fmt.Errorf("failed to create AzBlobClient: client is nil")
	}

	pipe, err := transform.ForProperties(properties)
	if err != nil {
		return nil, fmt.Errorf("failed to create AzBlobClient: %w", err)
	}

	pager := client.NewListContainersPager(&azblob.ListContainersOptions{MaxResults: to.Ptr[int32](1)})
	if _, err := pager.NextPage(ctx); err != nil {
		return nil, fmt.Errorf("failed to connect to azure blob: %w", err)
	}

	return &AzBlobClient{
		client:     client,
		properties: properties,
		pipeline:   pipe,
	}, nil
}

func (a *AzBlobClient) GetClient() *azblob.Client {
	return a.client
}

func (a *AzBlobClient) containerClient(containerName string) *container.Client {
	return a.client.ServiceClient().NewContainerClient(containerName)
}

func (a *AzBlobClient) CreateContainer(ctx context.Context, containerName string) error {
	_, err := a.client.CreateContainer(ctx, containerName, nil)
	if err != nil {
		return fmt.Errorf("failed to create container %s: %w", containerName, err)
	}

	return nil
}

// SetPublicAccess replaces the container's access policy. PRIVATE_ACCESS clears anonymous access.
func (a *AzBlobClient) SetPublicAccess(ctx context.Context, containerName string, access common.PublicAccess) error {
	opts := &container.SetAccessPolicyOptions{}
	switch access {
	case common.PRIVATE_ACCESS:
	case common.BLOB_ACCESS:
		opts.Access = to.Ptr(container.PublicAccessTypeBlob)
	case common.CONTAINER_ACCESS:
		opts.Access = to.Ptr(container.PublicAccessTypeContainer)
	default:
		return fmt.Errorf("unsupported public access level: %v", access)
	}

	_, err := a.containerClient(containerName).SetAccessPolicy(ctx, opts)
	if err != nil {
		return fmt.Errorf("failed to set access policy on %s: %w", containerName, err)
	}

	return nil
}

func (a *AzBlobClient) ContainerExists(ctx context.Context, containerName string) (bool, error) {
	_, err := a.containerClient(containerName).GetProperties(ctx, nil)
	if err == nil {
		return true, nil
	}
	if bloberror.HasCode(err, bloberror.ContainerNotFound, bloberror.ContainerBeingDeleted) {
		return false, nil
	}

	return false, fmt.Errorf("failed to get container properties: %w", err)
}

func (a *AzBlobClient) DeleteContainerIfExists(ctx context.Context, containerName string) error {
	_, err := a.client.DeleteContainer(ctx, containerName, nil)
	if err != nil && !bloberror.HasCode(err, bloberror.ContainerNotFound) {
		return fmt.Errorf("failed to delete container %s: %w", containerName, err)
	}

	return nil
}

func (a *AzBlobClient) GetObject(ctx context.Context, storeBox string, fileName string) (io.ReadCloser, error) {
	get, err := a.client.DownloadStream(ctx, storeBox, fileName, nil)
	if err != nil {
		return nil, err
	}

	retryReader := get.NewRetryReader(ctx, &azblob.RetryReaderOptions{})

	obj, err := a.pipeline.Decode(retryReader)
	if err != nil {
		return nil, fmt.Errorf("fail to transform reader: %w", err)
	}

	return obj, nil
}

func (a *AzBlobClient) PutObject(ctx context.Context, storeBox, fileName string, reader io.Reader) error {
	if reader == nil {
		return fmt.Errorf("reader is nil")
	}

	obj, closer, err := a.pipeline.Encode(reader)
	if err != nil {
		return fmt.Errorf("apply write pipeline: %w", err)
	}
	defer closer.Close()

	_, err = a.client.UploadStream(ctx, storeBox, fileName, obj, nil)
	if err != nil {
		return fmt.Errorf("azure upload stream: %w", err)
	}

	return nil
}

func (a *AzBlobClient) RemoveObject(ctx context.Context, storeBox string, fileName string) error {
	_, err := a.client.DeleteBlob(ctx, storeBox, fileName, nil)
	if err != nil {
		return err
	}

	return nil
}

func (a *AzBlobClient) ListObjectsPage(ctx context.Context, storeBox string, token *string, maxResults int32) (ObjectPage, error) {
	opts := &azblob.ListBlobsFlatOptions{Marker: token}
	if maxResults > 0 {
		opts.MaxResults = &maxResults
	}

	resp, err := a.client.NewListBlobsFlatPager(storeBox, opts).NextPage(ctx)
	if err != nil {
		return ObjectPage{}, fmt.Errorf("failed to list blobs: %w", err)
	}

	page := ObjectPage{ContinuationToken: nextToken(resp.NextMarker)}
	if resp.Segment == nil {
		return page, nil
	}

	cc := a.containerClient(storeBox)
	for _, item := range resp.Segment.BlobItems {
		if item.Name == nil {
			continue
		}
		info := ObjectInfo{
			Name: *item.Name,
			URI:  cc.NewBlobClient(*item.Name).URL(),
		}
		if p := item.Properties; p != nil {
			if p.ContentLength != nil {
				info.Size = *p.ContentLength
			}
			if p.LastModified != nil {
				info.LastModified = *p.LastModified
			}
		}
		page.Objects = append(page.Objects, info)
	}

	return page, nil
}

func (a *AzBlobClient) GetConnectionProperties() common.ConnectionProperties {
	return a.properties
}
