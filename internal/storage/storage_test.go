package storage

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/andresuchdata/salescast/backend-go/internal/config"
)

func TestNormalizeEndpoint(t *testing.T) {
	tests := []struct {
		in       string
		useSSL   bool
		endpoint string
		secure   bool
	}{
		{"https://s3.example.com/", false, "s3.example.com", true},
		{"http://localhost:9000", true, "localhost:9000", false},
		{"minio:9000", false, "minio:9000", false},
		{"//minio:9000", true, "minio:9000", true},
	}
	for _, tt := range tests {
		endpoint, secure := normalizeEndpoint(tt.in, tt.useSSL)
		assert.Equal(t, tt.endpoint, endpoint, tt.in)
		assert.Equal(t, tt.secure, secure, tt.in)
	}
}

func TestNewMinioClientValidation(t *testing.T) {
	_, err := NewMinioClient(config.StorageConfig{})
	assert.Error(t, err)

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000"})
	assert.Error(t, err)

	_, err = NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b"})
	assert.Error(t, err)

	c, err := NewMinioClient(config.StorageConfig{Endpoint: "localhost:9000", AccessKey: "a", SecretKey: "b", Bucket: "sales"})
	require.NoError(t, err)
	assert.Equal(t, "sales", c.bucket)
}

func TestLocalStorage(t *testing.T) {
	ctx := context.Background()
	s := NewLocalStorage(t.TempDir())

	require.NoError(t, s.UploadObject(ctx, "uploads/2024/a.csv", []byte("x,y\n")))
	require.NoError(t, s.UploadObject(ctx, "uploads/b.json", []byte("[]")))
	require.NoError(t, s.UploadObject(ctx, "other/c.csv", []byte("z")))

	objs, err := s.ListObjects(ctx, "uploads/")
	require.NoError(t, err)
	assert.Equal(t, []ObjectInfo{{Key: "uploads/2024/a.csv", Size: 4}, {Key: "uploads/b.json", Size: 2}}, objs)

	rc, err := s.OpenObject(ctx, "uploads/b.json")
	require.NoError(t, err)
	data, err := io.ReadAll(rc)
	require.NoError(t, err)
	require.NoError(t, rc.Close())
	assert.Equal(t, "[]", string(data))

	dest := filepath.Join(t.TempDir(), "nested", "copy.csv")
	require.NoError(t, s.DownloadObject(ctx, "other/c.csv", dest))
	got, err := os.ReadFile(dest)
	require.NoError(t, err)
	assert.Equal(t, "z", string(got))
}
