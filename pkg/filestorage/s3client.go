package filestorage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"log"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/transform"
)

const s3WaitTimeout = time.Minute

// S3Client wraps an AWS S3 client; containers map to buckets.
// It implements the FileStorage interface.
type S3Client struct {
	client     *s3.Client
	properties common.ConnectionProperties
	pipeline   transform.Pipeline
}

func NewS3Client(ctx context.Context, client *s3.Client, properties common.ConnectionProperties) (*S3Client, error) {
	if client == nil {
		return nil, fmt.Errorf("failed to create S3Client: client is nil")
	}

	pipe, err := transform.ForProperties(properties)
	if err != nil {
		return nil, fmt.Errorf("failed to create S3Client: %w", err)
	}

	_, err = client.ListBuckets(ctx, &s3.ListBucketsInput{})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to AWS S3: %w", err)
	}

	return &S3Client{
		client:     client,
		properties: properties,
		pipeline:   pipe,
	}, nil
}

func (s *S3Client) GetClient() *s3.Client {
	return s.client
}

func (s *S3Client) GetConnectionProperties() common.ConnectionProperties {
	return s.properties
}

func (s *S3Client) CreateContainer(ctx context.Context, bucketName string) error {
	input := &s3.CreateBucketInput{Bucket: aws.String(bucketName)}
	if region := s.client.Options().Region; region != "" && region != "us-east-1" && region != "no-region" {
		input.CreateBucketConfiguration = &types.CreateBucketConfiguration{
			LocationConstraint: types.BucketLocationConstraint(region),
		}
	}

	_, err := s.client.CreateBucket(ctx, input)
	if err != nil {
		var owned *types.BucketAlreadyOwnedByYou
		var exists *types.BucketAlreadyExists
		if errors.As(err, &owned) {
			log.Printf("You already own bucket %s.\n", bucketName)
		} else if errors.As(err, &exists) {
			log.Printf("Bucket %s already exists.\n", bucketName)
		}
		return fmt.Errorf("failed to create bucket %s: %w", bucketName, err)
	}

	err = s3.NewBucketExistsWaiter(s.client).Wait(
		ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)}, s3WaitTimeout)
	if err != nil {
		return fmt.Errorf("failed attempt to wait for bucket %s to exist: %w", bucketName, err)
	}

	return nil
}

// SetPublicAccess installs an anonymous-read bucket policy, or removes the policy for PRIVATE_ACCESS.
func (s *S3Client) SetPublicAccess(ctx context.Context, bucketName string, access common.PublicAccess) error {
	policy, err := publicReadPolicy(bucketName, access)
	if err != nil {
		return err
	}

	if policy == "" {
		_, err = s.client.DeleteBucketPolicy(ctx, &s3.DeleteBucketPolicyInput{Bucket: aws.String(bucketName)})
		if err != nil {
			return fmt.Errorf("failed to delete bucket policy on %s: %w", bucketName, err)
		}
		return nil
	}

	_, err = s.client.PutBucketPolicy(ctx, &s3.PutBucketPolicyInput{
		Bucket: aws.String(bucketName),
		Policy: aws.String(policy),
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "AccessDenied" {
			log.Printf("Access denied while setting a public policy on %s; check the account's Block Public Access settings.\n", bucketName)
		}
		return fmt.Errorf("failed to put bucket policy on %s: %w", bucketName, err)
	}

	return nil
}

func (s *S3Client) ContainerExists(ctx context.Context, bucketName string) (bool, error) {
	_, err := s.client.HeadBucket(ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)})
	if err == nil {
		return true, nil
	}

	var notFound *types.NotFound
	var noBucket *types.NoSuchBucket
	if errors.As(err, &notFound) || errors.As(err, &noBucket) {
		return false, nil
	}

	return false, fmt.Errorf("failed to head bucket %s: %w", bucketName, err)
}

// DeleteContainerIfExists empties the bucket and deletes it. S3 refuses to delete non-empty buckets.
func (s *S3Client) DeleteContainerIfExists(ctx context.Context, bucketName string) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{Bucket: aws.String(bucketName)})
	for paginator.HasMorePages() {
		output, err := paginator.NextPage(ctx)
		if err != nil {
			var noBucket *types.NoSuchBucket
			if errors.As(err, &noBucket) {
				return nil
			}
			return fmt.Errorf("failed to list bucket %s before delete: %w", bucketName, err)
		}
		for _, obj := range output.Contents {
			if err := s.RemoveObject(ctx, bucketName, aws.ToString(obj.Key)); err != nil {
				return err
			}
		}
	}

	_, err := s.client.DeleteBucket(ctx, &s3.DeleteBucketInput{Bucket: aws.String(bucketName)})
	if err != nil {
		var noBucket *types.NoSuchBucket
		if errors.As(err, &noBucket) {
			return nil
		}
		return fmt.Errorf("failed to delete bucket %s: %w", bucketName, err)
	}

	err = s3.NewBucketNotExistsWaiter(s.client).Wait(
		ctx, &s3.HeadBucketInput{Bucket: aws.String(bucketName)}, s3WaitTimeout)
	if err != nil {
		return fmt.Errorf("failed attempt to wait for bucket %s to be deleted: %w", bucketName, err)
	}

	return nil
}

func (s *S3Client) GetObject(ctx context.Context, storeBox string, fileName string) (io.ReadCloser, error) {
	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(storeBox),
		Key:    aws.String(fileName),
	})
	if err != nil {
		var noKey *types.NoSuchKey
		if errors.As(err, &noKey) {
			log.Printf("Can't get object %s from bucket %s. No such key exists.\n", fileName, storeBox)
		}
		return nil, err
	}

	obj, err := s.pipeline.Decode(result.Body)
	if err != nil {
		return nil, fmt.Errorf("fail to transform reader: %w", err)
	}

	return obj, nil
}

// PutObject buffers the encoded body when it is not seekable, since the SDK
// needs a known length to sign plain-HTTP uploads.
func (s *S3Client) PutObject(ctx context.Context, storeBox string, fileName string, reader io.Reader) error {
	if reader == nil {
		return fmt.Errorf("reader is nil")
	}

	obj, closer, err := s.pipeline.Encode(reader)
	if err != nil {
		return fmt.Errorf("apply write pipeline: %w", err)
	}
	defer closer.Close()

	body, ok := obj.(io.ReadSeeker)
	if !ok {
		buf, err := io.ReadAll(obj)
		if err != nil {
			return fmt.Errorf("failed to read input stream: %w", err)
		}
		body = bytes.NewReader(buf)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket: aws.String(storeBox),
		Key:    aws.String(fileName),
		Body:   body,
	})
	if err != nil {
		var apiErr smithy.APIError
		if errors.As(err, &apiErr) && apiErr.ErrorCode() == "EntityTooLarge" {
			log.Printf("Error while uploading object to %s. The object is too large.\n", storeBox)
		}
		return fmt.Errorf("failed to upload %s to %s: %w", fileName, storeBox, err)
	}

	err = s3.NewObjectExistsWaiter(s.client).Wait(
		ctx, &s3.HeadObjectInput{Bucket: aws.String(storeBox), Key: aws.String(fileName)}, s3WaitTimeout)
	if err != nil {
		return fmt.Errorf("failed attempt to wait for object %s to exist: %w", fileName, err)
	}

	return nil
}

func (s *S3Client) RemoveObject(ctx context.Context, storeBox string, fileName string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(storeBox),
		Key:    aws.String(fileName),
	})
	if err != nil {
		return fmt.Errorf("failed to delete object %s from %s: %w", fileName, storeBox, err)
	}

	return nil
}

func (s *S3Client) ListObjectsPage(ctx context.Context, storeBox string, token *string, maxResults int32) (ObjectPage, error) {
	input := &s3.ListObjectsV2Input{
		Bucket:            aws.String(storeBox),
		ContinuationToken: token,
	}
	if maxResults > 0 {
		input.MaxKeys = aws.Int32(maxResults)
	}

	output, err := s.client.ListObjectsV2(ctx, input)
	if err != nil {
		return ObjectPage{}, fmt.Errorf("failed to list objects: %w", err)
	}

	var page ObjectPage
	if aws.ToBool(output.IsTruncated) {
		page.ContinuationToken = nextToken(output.NextContinuationToken)
	}

	for _, obj := range output.Contents {
		key := aws.ToString(obj.Key)
		page.Objects = append(page.Objects, ObjectInfo{
			Name:         key,
			URI:          s.objectURL(storeBox, key),
			Size:         aws.ToInt64(obj.Size),
			LastModified: aws.ToTime(obj.LastModified),
		})
	}

	return page, nil
}

// objectURL builds a path-style URL, matching the addressing the client is configured with.
func (s *S3Client) objectURL(bucketName, key string) string {
	opts := s.client.Options()
	endpoint := aws.ToString(opts.BaseEndpoint)
	if endpoint == "" {
		endpoint = fmt.Sprintf("https://s3.%s.amazonaws.com", opts.Region)
	}

	segments := strings.Split(key, "/")
	for i, seg := range segments {
		segments[i] = url.PathEscape(seg)
	}
	return strings.TrimSuffix(endpoint, "/") + "/" + bucketName + "/" + strings.Join(segments, "/")
}
