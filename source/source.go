// Package source fetches the original image bytes from a storage backend.
package source

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/greut/resizer/config"
	"go.uber.org/zap"
)

// Source reads the object key of bucket.
type Source interface {
	Read(ctx context.Context, bucket, key string) ([]byte, error)
}

// Error is a fetch failure with the HTTP status the backend answered with, or
// the closest one.
type Error struct {
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.Err == nil {
		return fmt.Sprintf("%d (%s)", e.StatusCode, http.StatusText(e.StatusCode))
	}
	return fmt.Sprintf("%d (%s) %v", e.StatusCode, http.StatusText(e.StatusCode), e.Err)
}

func (e *Error) Unwrap() error {
	return e.Err
}

// NotFound builds a 404 error for bucket/key.
func NotFound(bucket, key string) *Error {
	return &Error{StatusCode: http.StatusNotFound, Err: fmt.Errorf("%s/%s", bucket, key)}
}

// NewFromConfig returns the source named in the configuration.
func NewFromConfig(cfg *config.Config, logger *zap.Logger) (Source, error) {
	name := strings.ToLower(cfg.Source.Name)

	logger.Debug("source", zap.String("name", name))

	switch name {
	case "", "supabase":
		if cfg.Supabase.ProjectURL == "" {
			return nil, fmt.Errorf("supabase source: no project url")
		}
		return NewSupabase(cfg.Supabase.ProjectURL, cfg.Supabase.ServiceRoleKey, cfg.Source.Timeout.Duration), nil
	case "http":
		return NewHTTP(cfg.Source.URL, cfg.Source.Timeout.Duration), nil
	case "disk":
		return NewDisk(cfg.Source.Path), nil
	case "s3":
		return NewS3(cfg.Source.S3)
	case "minio":
		return NewMinio(cfg.Source.Minio)
	}

	return nil, fmt.Errorf("unknown source type %#v", cfg.Source.Name)
}
