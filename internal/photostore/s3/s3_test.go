package s3

import (
	"bytes"
	"context"
	"io"
	"os"
	"strings"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/beautytracker/internal/photostore"
)

func TestS3PhotoStoreURL(t *testing.T) {
	store, err := NewS3PhotoStore(Config{Endpoint: "minio.local:9000", Bucket: "photos"})
	require.NoError(t, err)
	assert.Equal(t, "http://minio.local:9000/photos/products/a.jpg", store.URL("products/a.jpg"))

	store, err = NewS3PhotoStore(Config{Endpoint: "s3.amazonaws.com", Bucket: "photos", UseSSL: true, PublicURL: "https://cdn.example"})
	require.NoError(t, err)
	assert.Equal(t, "https://cdn.example/products/a.jpg", store.URL("products/a.jpg"))
}

func TestNewS3PhotoStoreInvalidEndpoint(t *testing.T) {
	_, err := NewS3PhotoStore(Config{Endpoint: "http://not-a-host-port", Bucket: "b"})
	assert.Error(t, err)
}

// TestS3PhotoStoreRoundTrip runs against a real S3-compatible server when
// S3_TEST_ENDPOINT is set, e.g. a local MinIO container.
func TestS3PhotoStoreRoundTrip(t *testing.T) {
	endpoint := os.Getenv("S3_TEST_ENDPOINT")
	if endpoint == "" {
		t.Skip("S3_TEST_ENDPOINT not set")
	}
	ctx := context.Background()

	store, err := NewS3PhotoStore(Config{
		Endpoint:  endpoint,
		Bucket:    "beautytracker-test-" + strings.ToLower(uuid.NewString()[:8]),
		AccessKey: os.Getenv("S3_TEST_ACCESS_KEY"),
		SecretKey: os.Getenv("S3_TEST_SECRET_KEY"),
	})
	require.NoError(t, err)
	require.NoError(t, store.EnsureBucket(ctx, ""))

	key, err := store.Save(ctx, "products/alice", "image/png", bytes.NewReader([]byte("png bytes")))
	require.NoError(t, err)

	rc, mimeType, err := store.Get(ctx, key)
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	_ = rc.Close()
	assert.Equal(t, "image/png", mimeType)
	assert.Equal(t, []byte("png bytes"), data)

	require.NoError(t, store.Delete(ctx, key))
	_, _, err = store.Get(ctx, key)
	assert.ErrorIs(t, err, photostore.ErrNotFound)
}
