package s3

import (
	"context"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestObjectURL(t *testing.T) {
	assert.Equal(t, "http://cdn.local/photos/properties/p-1/img.jpg", ObjectURL("http://cdn.local/", "photos", "/properties/p-1/img.jpg"))
}

func TestParseEndpoint(t *testing.T) {
	assert.Equal(t, "localhost:9000", parseEndpoint("http://localhost:9000"))
	assert.Equal(t, "minio:9000", parseEndpoint("minio:9000"))
}

func TestNewImageStoreValidates(t *testing.T) {
	_, err := NewImageStore(Config{Bucket: "photos"}, nil)
	assert.Error(t, err)
	_, err = NewImageStore(Config{Endpoint: "http://localhost:9000"}, nil)
	assert.Error(t, err)

	store, err := NewImageStore(Config{Endpoint: "http://localhost:9000", Bucket: "photos"}, nil)
	require.NoError(t, err)
	assert.Equal(t, "http://localhost:9000", store.publicBaseURL)
}

func TestUnconfigured(t *testing.T) {
	_, err := Unconfigured{}.Upload(context.Background(), "k", strings.NewReader("x"), 1, "image/png")
	assert.ErrorIs(t, err, ErrNotConfigured)
	assert.NoError(t, Unconfigured{}.Delete(context.Background(), "k"))
}
