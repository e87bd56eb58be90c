package source

import (
	"context"
	"fmt"
	"io"
	"net/http"

	"github.com/greut/resizer/config"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Minio reads objects from a MinIO (or any S3 compatible) server.
type Minio struct {
	client *minio.Client
}

// NewMinio connects to the configured endpoint.
func NewMinio(cfg config.MinioConfig) (*Minio, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("minio client: %w", err)
	}

	return &Minio{client: client}, nil
}

// Read implements Source.
func (m *Minio) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	obj, err := m.client.GetObject(ctx, bucket, key, minio.GetObjectOptions{})
	if err != nil {
		return nil, minioError(err)
	}
	defer obj.Close()

	// errors only show up on the first read
	body, err := io.ReadAll(obj)
	if err != nil {
		return nil, minioError(err)
	}

	return body, nil
}

func minioError(err error) error {
	resp := minio.ToErrorResponse(err)

	switch {
	case resp.Code == "NoSuchKey" || resp.Code == "NoSuchBucket":
		return &Error{StatusCode: http.StatusNotFound, Err: err}
	case resp.StatusCode != 0:
		return &Error{StatusCode: resp.StatusCode, Err: err}
	}

	return err
}
