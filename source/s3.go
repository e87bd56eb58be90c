package source

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3manager"
	"github.com/greut/resizer/config"
	"go.uber.org/multierr"
)

// S3 reads objects through the AWS SDK. The bucket comes from the request path.
type S3 struct {
	downloader *s3manager.Downloader
}

// NewS3 builds the session from the configuration. Empty credentials fall back
// to the SDK default chain.
func NewS3(cfg config.S3Config) (*S3, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		S3ForcePathStyle: aws.Bool(cfg.PathStyle),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}
	if cfg.AccessKeyID != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, multierr.Append(fmt.Errorf("failed at s3 session"), err)
	}

	return &S3{downloader: s3manager.NewDownloader(sess)}, nil
}

// Read implements Source.
func (s *S3) Read(ctx context.Context, bucket, key string) ([]byte, error) {
	buf := aws.NewWriteAtBuffer([]byte{})

	_, err := s.downloader.DownloadWithContext(ctx, buf, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, s3Error(bucket, key, err)
	}

	return buf.Bytes(), nil
}

func s3Error(bucket, key string, err error) error {
	var rf awserr.RequestFailure
	if errors.As(err, &rf) {
		return &Error{StatusCode: rf.StatusCode(), Err: err}
	}

	var ae awserr.Error
	if errors.As(err, &ae) {
		switch ae.Code() {
		case s3.ErrCodeNoSuchKey, s3.ErrCodeNoSuchBucket, "NotFound":
			return &Error{StatusCode: http.StatusNotFound, Err: err}
		}
	}

	return multierr.Append(fmt.Errorf("failed at s3 download %s/%s", bucket, key), err)
}
