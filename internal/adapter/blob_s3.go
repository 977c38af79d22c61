package adapter

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"time"

	"github.com/MKhiriev/go-clip-keeper/internal/config"
	"github.com/MKhiriev/go-clip-keeper/internal/logger"
	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/gabriel-vasile/mimetype"
)

// presignExpiry is the longest lifetime SigV4 allows for a presigned URL.
const presignExpiry = 7 * 24 * time.Hour

// s3API is the subset of the S3 client used by [s3BlobStorage].
type s3API interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// presignAPI is the subset of the S3 presign client used by [s3BlobStorage].
type presignAPI interface {
	PresignGetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

type s3BlobStorage struct {
	client    s3API
	presigner presignAPI
	bucket    string
	prefix    string

	logger *logger.Logger
}

// NewS3BlobStorage constructs a [BlobStorage] backed by an S3 bucket. AWS
// credentials come from the default chain (environment, shared config,
// instance role). cfg.Endpoint and cfg.UsePathStyle support S3-compatible
// servers such as MinIO.
func NewS3BlobStorage(ctx context.Context, cfg config.Images, log *logger.Logger) (BlobStorage, error) {
	if cfg.Bucket == "" {
		return nil, errors.New("empty images bucket")
	}

	var opts []func(*awsconfig.LoadOptions) error
	if cfg.Region != "" {
		opts = append(opts, awsconfig.WithRegion(cfg.Region))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("error loading aws config: %w", err)
	}
	if awsCfg.Region == "" {
		awsCfg.Region = "us-east-1"
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
		}
		o.UsePathStyle = cfg.UsePathStyle
	})

	return newS3BlobStorage(client, s3.NewPresignClient(client), cfg.Bucket, cfg.Prefix, log), nil
}

func newS3BlobStorage(client s3API, presigner presignAPI, bucket, prefix string, log *logger.Logger) *s3BlobStorage {
	return &s3BlobStorage{
		client:    client,
		presigner: presigner,
		bucket:    bucket,
		prefix:    prefix,
		logger:    log.WithComponent("s3_blob_storage"),
	}
}

// objectKey places every blob under `{prefix}images/`. Only the base name of
// name is used.
func (b *s3BlobStorage) objectKey(name string) string {
	return b.prefix + "images/" + path.Base(name)
}

// Upload implements [BlobStorage]. The content type is sniffed from the data.
func (b *s3BlobStorage) Upload(ctx context.Context, name string, r io.Reader) (string, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return "", fmt.Errorf("error reading blob %s: %w", name, err)
	}

	contentType := mimetype.Detect(data).String()
	key := b.objectKey(name)

	_, err = b.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(data),
		ContentLength: aws.Int64(int64(len(data))),
		ContentType:   aws.String(contentType),
	})
	if err != nil {
		return "", mapS3Error(err)
	}

	b.logger.Debug().Str("key", key).Str("content_type", contentType).Int("size", len(data)).Msg("blob uploaded")
	return b.presign(ctx, key)
}

// URL implements [BlobStorage].
func (b *s3BlobStorage) URL(ctx context.Context, name string) (string, error) {
	key := b.objectKey(name)

	_, err := b.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return "", mapS3Error(err)
	}

	return b.presign(ctx, key)
}

func (b *s3BlobStorage) presign(ctx context.Context, key string) (string, error) {
	req, err := b.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(presignExpiry))
	if err != nil {
		return "", fmt.Errorf("error presigning %s: %w", key, err)
	}

	return req.URL, nil
}

// Delete implements [BlobStorage].
func (b *s3BlobStorage) Delete(ctx context.Context, name string) error {
	_, err := b.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(b.objectKey(name)),
	})
	if err = mapS3Error(err); err != nil && !errors.Is(err, ErrNotFound) {
		return err
	}

	return nil
}

func mapS3Error(err error) error {
	if err == nil {
		return nil
	}

	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %v", ErrNotFound, err)
		case "AccessDenied", "Forbidden":
			return fmt.Errorf("%w: %v", ErrForbidden, err)
		case "InvalidAccessKeyId", "SignatureDoesNotMatch", "ExpiredToken":
			return fmt.Errorf("%w: %v", ErrUnauthorized, err)
		}
		return fmt.Errorf("%w: %v", ErrInternalServerError, err)
	}

	return fmt.Errorf("%w: %v", ErrNetwork, err)
}
