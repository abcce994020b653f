package services

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/minio/minio-go/v7"
	"github.com/pkg/errors"
)

// ImageUpload is an image file received with a catalog write.
type ImageUpload struct {
	Filename    string
	ContentType string
	Size        int64
	Body        io.Reader
}

// MinIOImageStore stores catalog images in a bucket and returns their URL.
type MinIOImageStore struct {
	client *minio.Client
	bucket string
}

func NewMinIOImageStore(client *minio.Client, bucket string) *MinIOImageStore {
	return &MinIOImageStore{client: client, bucket: bucket}
}

func objectName(prefix, filename string) string {
	ext := strings.ToLower(path.Ext(filename))
	return fmt.Sprintf("%s/%s%s", prefix, uuid.NewString(), ext)
}

// Upload stores img under prefix with a random object name.
func (m *MinIOImageStore) Upload(ctx context.Context, prefix string, img ImageUpload) (string, error) {
	name := objectName(prefix, img.Filename)
	_, err := m.client.PutObject(ctx, m.bucket, name, img.Body, img.Size,
		minio.PutObjectOptions{ContentType: img.ContentType})
	if err != nil {
		return "", errors.Wrap(err, "failed to upload image")
	}
	return m.client.EndpointURL().JoinPath(m.bucket, name).String(), nil
}
