package storage

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/FACorreiaa/devcamper-api/config"
)

// Store persists uploaded files under a flat name.
type Store interface {
	Save(ctx context.Context, name, contentType string, r io.Reader) error
}

// New picks the backend named by uploads.driver.
func New(cfg config.UploadsConfig, logger *slog.Logger) (Store, error) {
	switch cfg.Driver {
	case "", "local":
		return NewLocalStore(cfg.Path, logger)
	case "s3":
		return NewS3Store(cfg, logger), nil
	default:
		return nil, fmt.Errorf("unsupported uploads driver %q", cfg.Driver)
	}
}

// LocalStore writes files into a directory served as static content.
type LocalStore struct {
	dir    string
	logger *slog.Logger
}

var _ Store = (*LocalStore)(nil)

func NewLocalStore(dir string, logger *slog.Logger) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("creating upload dir %s: %w", dir, err)
	}
	return &LocalStore{dir: dir, logger: logger}, nil
}

func (s *LocalStore) Save(ctx context.Context, name, _ string, r io.Reader) error {
	_, span := otel.Tracer("Storage").Start(ctx, "LocalSave", trace.WithAttributes(attribute.String("file.name", name)))
	defer span.End()

	// names are generated server side, never taken from the client
	path := filepath.Join(s.dir, filepath.Base(name))
	f, err := os.Create(path)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "create failed")
		return fmt.Errorf("creating %s: %w", path, err)
	}
	if _, err = io.Copy(f, r); err != nil {
		f.Close()
		span.RecordError(err)
		span.SetStatus(codes.Error, "write failed")
		return fmt.Errorf("writing %s: %w", path, err)
	}
	if err = f.Close(); err != nil {
		return fmt.Errorf("closing %s: %w", path, err)
	}
	s.logger.DebugContext(ctx, "File stored", slog.String("path", path))
	return nil
}

type objectPutter interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Store uploads to an S3 compatible bucket using path-style addressing.
type S3Store struct {
	client objectPutter
	bucket string
	logger *slog.Logger
}

var _ Store = (*S3Store)(nil)

func NewS3Store(cfg config.UploadsConfig, logger *slog.Logger) *S3Store {
	opts := s3.Options{
		Region:       cfg.S3.Region,
		Credentials:  credentials.NewStaticCredentialsProvider(cfg.S3.AccessKey, cfg.S3.SecretKey, ""),
		UsePathStyle: true,
	}
	if cfg.S3.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.S3.Endpoint)
	}
	return &S3Store{client: s3.New(opts), bucket: cfg.S3.Bucket, logger: logger}
}

func (s *S3Store) Save(ctx context.Context, name, contentType string, r io.Reader) error {
	ctx, span := otel.Tracer("Storage").Start(ctx, "S3Save", trace.WithAttributes(
		attribute.String("s3.bucket", s.bucket),
		attribute.String("file.name", name),
	))
	defer span.End()

	// uploads are capped well below a megabyte, buffering keeps the body seekable for signing
	body, err := io.ReadAll(r)
	if err != nil {
		return fmt.Errorf("reading upload: %w", err)
	}

	_, err = s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(s.bucket),
		Key:           aws.String(name),
		Body:          bytes.NewReader(body),
		ContentLength: aws.Int64(int64(len(body))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		s.logger.ErrorContext(ctx, "S3 upload failed", slog.String("key", name), slog.Any("error", err))
		span.RecordError(err)
		span.SetStatus(codes.Error, "put failed")
		return fmt.Errorf("uploading %s to bucket %s: %w", name, s.bucket, err)
	}
	s.logger.DebugContext(ctx, "File stored", slog.String("bucket", s.bucket), slog.String("key", name))
	return nil
}
