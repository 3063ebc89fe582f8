package backup

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"
	"path"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Config holds configuration for an S3 remote.
type S3Config struct {
	Bucket string
	// Region is the AWS region of the bucket.
	Region string
	// Endpoint is an optional custom endpoint (MinIO, LocalStack).
	Endpoint string
	// UsePathStyle enables path-style addressing (required for MinIO).
	UsePathStyle bool
	// Prefix is prepended to every object name.
	Prefix string
}

// S3Remote keeps backup copies in an S3 bucket.
type S3Remote struct {
	client     *s3.Client
	config     S3Config
	maxRetries int
}

// NewS3Remote loads the default AWS credential chain and returns a remote
// for cfg.Bucket.
func NewS3Remote(ctx context.Context, cfg S3Config) (*S3Remote, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("s3 remote: bucket is required")
	}

	var opts []func(*config.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, config.WithRegion(cfg.Region))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})
	return NewS3RemoteWithClient(client, cfg), nil
}

// NewS3RemoteWithClient returns a remote using a pre-configured client.
func NewS3RemoteWithClient(client *s3.Client, cfg S3Config) *S3Remote {
	return &S3Remote{client: client, config: cfg, maxRetries: 3}
}

func (s *S3Remote) Upload(ctx context.Context, localPath, objectName string) error {
	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	defer file.Close()

	err = s.retryWithBackoff(ctx, func() error {
		if _, err := file.Seek(0, io.SeekStart); err != nil {
			return err
		}
		_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
			Bucket:      aws.String(s.config.Bucket),
			Key:         aws.String(s.key(objectName)),
			Body:        file,
			ContentType: aws.String(contentType(objectName)),
		})
		return err
	})
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUploadFailed, err)
	}
	return nil
}

func (s *S3Remote) Download(ctx context.Context, objectName, localPath string) error {
	var resp *s3.GetObjectOutput
	err := s.retryWithBackoff(ctx, func() error {
		var getErr error
		resp, getErr = s.client.GetObject(ctx, &s3.GetObjectInput{
			Bucket: aws.String(s.config.Bucket),
			Key:    aws.String(s.key(objectName)),
		})
		return getErr
	})
	if err != nil {
		if errors.Is(err, ErrObjectNotFound) {
			return fmt.Errorf("%w: %s", ErrObjectNotFound, objectName)
		}
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	defer resp.Body.Close()

	if err := copyReader(resp.Body, localPath); err != nil {
		return fmt.Errorf("%w: %v", ErrDownloadFailed, err)
	}
	return nil
}

// List returns object names relative to the configured prefix.
func (s *S3Remote) List(ctx context.Context) ([]string, error) {
	var names []string
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.config.Bucket),
		Prefix: aws.String(s.key("")),
	})
	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			return nil, fmt.Errorf("listing objects: %w", err)
		}
		for _, obj := range page.Contents {
			names = append(names, strings.TrimPrefix(aws.ToString(obj.Key), s.key("")))
		}
	}
	return names, nil
}

func (s *S3Remote) key(objectName string) string {
	if s.config.Prefix == "" {
		return objectName
	}
	if objectName == "" {
		return strings.TrimSuffix(s.config.Prefix, "/") + "/"
	}
	return path.Join(s.config.Prefix, objectName)
}

// retryWithBackoff runs operation until it succeeds, the context ends or
// the retries are spent. Missing objects are not retried.
func (s *S3Remote) retryWithBackoff(ctx context.Context, operation func() error) error {
	var lastErr error
	for attempt := 0; attempt <= s.maxRetries; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = operation()
		if lastErr == nil {
			return nil
		}
		var noSuchKey *s3types.NoSuchKey
		if errors.As(lastErr, &noSuchKey) {
			return ErrObjectNotFound
		}

		if attempt < s.maxRetries {
			backoff := time.Duration(math.Pow(2, float64(attempt))) * 100 * time.Millisecond
			select {
			case <-ctx.Done():
				return ctx.Err()
			case <-time.After(backoff):
			}
		}
	}
	return lastErr
}

func contentType(objectName string) string {
	if strings.HasSuffix(objectName, CompressedExt) {
		return "application/x-snappy-framed"
	}
	return "application/json"
}

func copyReader(r io.Reader, dst string) error {
	out, err := os.Create(dst)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, r); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
