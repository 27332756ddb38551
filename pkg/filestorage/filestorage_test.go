package filestorage_test

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	common "github.com/tizianocitro/blobquickstart/pkg"
	"github.com/tizianocitro/blobquickstart/pkg/filestorage"
)

func newContainerName() string {
	return "test-" + uuid.NewString()
}

// openWithContainer opens the backend and creates a fresh container that is
// deleted when the test ends.
func openWithContainer(t *testing.T, b backend, props common.ConnectionProperties) (filestorage.FileStorage, string) {
	t.Helper()
	ctx := context.Background()

	store, err := b.open(ctx, props)
	require.NoError(t, err)

	name := newContainerName()
	require.NoError(t, store.CreateContainer(ctx, name))
	t.Cleanup(func() {
		if err := store.DeleteContainerIfExists(context.Background(), name); err != nil {
			t.Logf("failed to delete container %s: %v", name, err)
		}
	})
	return store, name
}

func readAll(t *testing.T, rc io.ReadCloser) string {
	t.Helper()
	defer rc.Close()
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	return string(data)
}

func TestFileStorage_NilClient(t *testing.T) {
	ctx := context.Background()

	az, err := filestorage.NewAzBlobClient(ctx, nil, common.ConnectionProperties{})
	require.Nil(t, az)
	assert.ErrorContains(t, err, "failed to create AzBlobClient: client is nil")

	s3c, err := filestorage.NewS3Client(ctx, nil, common.ConnectionProperties{})
	require.Nil(t, s3c)
	assert.ErrorContains(t, err, "failed to create S3Client: client is nil")

	mc, err := filestorage.NewMinioClient(ctx, nil, common.ConnectionProperties{})
	require.Nil(t, mc)
	assert.ErrorContains(t, err, "failed to create MinIO client: client is nil")
}

func TestFileStorage_ContainerLifecycle(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		store, err := b.open(ctx, common.ConnectionProperties{})
		require.NoError(t, err)

		name := newContainerName()
		exists, err := store.ContainerExists(ctx, name)
		require.NoError(t, err)
		assert.False(t, exists)

		require.NoError(t, store.CreateContainer(ctx, name))
		exists, err = store.ContainerExists(ctx, name)
		require.NoError(t, err)
		assert.True(t, exists)

		page, err := store.ListObjectsPage(ctx, name, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Objects)
		assert.Nil(t, page.ContinuationToken)

		require.NoError(t, store.PutObject(ctx, name, "QuickStart_1.txt", strings.NewReader("Hello, World!")))
		require.NoError(t, store.DeleteContainerIfExists(ctx, name), "non-empty containers are deleted too")

		exists, err = store.ContainerExists(ctx, name)
		require.NoError(t, err)
		assert.False(t, exists)

		assert.NoError(t, store.DeleteContainerIfExists(ctx, name), "deleting a missing container is not an error")
	})
}

func TestFileStorage_PutGetRoundTrip(t *testing.T) {
	cases := map[string]common.ConnectionProperties{
		"plain": {},
		"gzip":  {SaveCompress: common.GZIP_COMPRESSION},
		"aes256": {
			SaveEncrypt: common.AES256_ENCRYPTION,
			EncryptKey:  "quickstart-secret",
		},
		"gzip+aes256": {
			SaveCompress: common.GZIP_COMPRESSION,
			SaveEncrypt:  common.AES256_ENCRYPTION,
			EncryptKey:   "quickstart-secret",
		},
	}

	forEachBackend(t, func(t *testing.T, b backend) {
		for name, props := range cases {
			t.Run(name, func(t *testing.T) {
				ctx := context.Background()
				store, box := openWithContainer(t, b, props)
				assert.Equal(t, props, store.GetConnectionProperties())

				content := strings.Repeat("Hello, World!\n", 100)
				require.NoError(t, store.PutObject(ctx, box, "QuickStart_1.txt", strings.NewReader(content)))

				rc, err := store.GetObject(ctx, box, "QuickStart_1.txt")
				require.NoError(t, err)
				assert.Equal(t, content, readAll(t, rc))
			})
		}
	})
}

func TestFileStorage_PutObject_NilReader(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		store, box := openWithContainer(t, b, common.ConnectionProperties{})
		err := store.PutObject(context.Background(), box, "nil.txt", nil)
		assert.EqualError(t, err, "reader is nil")
	})
}

func TestFileStorage_GetObject_Missing(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		store, box := openWithContainer(t, b, common.ConnectionProperties{})
		rc, err := store.GetObject(context.Background(), box, "missing.txt")
		assert.Error(t, err)
		assert.Nil(t, rc)
	})
}

func TestFileStorage_RemoveObject(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		store, box := openWithContainer(t, b, common.ConnectionProperties{})

		require.NoError(t, store.PutObject(ctx, box, "remove.txt", strings.NewReader("bye")))
		require.NoError(t, store.RemoveObject(ctx, box, "remove.txt"))

		page, err := store.ListObjectsPage(ctx, box, nil, 10)
		require.NoError(t, err)
		assert.Empty(t, page.Objects)
	})
}

func TestFileStorage_ListObjectsPage_Paginates(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		store, box := openWithContainer(t, b, common.ConnectionProperties{})

		var want []string
		for i := 0; i < 5; i++ {
			name := fmt.Sprintf("QuickStart_%d.txt", i)
			want = append(want, name)
			require.NoError(t, store.PutObject(ctx, box, name, strings.NewReader(name)))
		}

		var got []string
		var token *string
		pages := 0
		for {
			page, err := store.ListObjectsPage(ctx, box, token, 2)
			require.NoError(t, err)
			pages++
			require.LessOrEqual(t, len(page.Objects), 2)
			for _, obj := range page.Objects {
				got = append(got, obj.Name)
				assert.True(t, strings.HasSuffix(obj.URI, "/"+box+"/"+obj.Name), "unexpected URI %s", obj.URI)
				assert.Equal(t, int64(len(obj.Name)), obj.Size)
				assert.False(t, obj.LastModified.IsZero())
			}
			token = page.ContinuationToken
			if token == nil {
				break
			}
			require.Less(t, pages, 10, "listing did not terminate")
		}

		sort.Strings(got)
		assert.Equal(t, want, got)
		assert.Equal(t, 3, pages)
	})
}

func TestFileStorage_SetPublicAccess(t *testing.T) {
	forEachBackend(t, func(t *testing.T, b backend) {
		ctx := context.Background()
		store, box := openWithContainer(t, b, common.ConnectionProperties{})

		require.NoError(t, store.PutObject(ctx, box, "public.txt", strings.NewReader("Hello, World!")))
		page, err := store.ListObjectsPage(ctx, box, nil, 10)
		require.NoError(t, err)
		require.Len(t, page.Objects, 1)
		uri := page.Objects[0].URI

		if b.anonymousDenied {
			assert.NotEqual(t, http.StatusOK, anonymousGet(t, uri))
		}

		require.NoError(t, store.SetPublicAccess(ctx, box, common.BLOB_ACCESS))
		assert.Equal(t, http.StatusOK, anonymousGet(t, uri))

		require.NoError(t, store.SetPublicAccess(ctx, box, common.CONTAINER_ACCESS))
		assert.Equal(t, http.StatusOK, anonymousGet(t, uri))

		require.NoError(t, store.SetPublicAccess(ctx, box, common.PRIVATE_ACCESS))
		if b.anonymousDenied {
			assert.NotEqual(t, http.StatusOK, anonymousGet(t, uri))
		}

		assert.Error(t, store.SetPublicAccess(ctx, box, common.PublicAccess(42)))
	})
}

func anonymousGet(t *testing.T, uri string) int {
	t.Helper()
	res, err := http.Get(uri)
	require.NoError(t, err)
	_ = res.Body.Close()
	return res.StatusCode
}
