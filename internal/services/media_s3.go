package services

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/url"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	s3types "github.com/aws/aws-sdk-go-v2/service/s3/types"
)

// S3Storage puts images in an S3-compatible bucket (AWS, R2, MinIO) that is
// publicly readable at publicBaseURL.
type S3Storage struct {
	client        *s3.Client
	bucket        string
	publicBaseURL string
}

type S3Options struct {
	Endpoint        string
	Region          string
	Bucket          string
	AccessKeyID     string
	SecretAccessKey string
	PublicBaseURL   string
}

func NewS3Storage(opts S3Options) *S3Storage {
	cfg := aws.Config{
		Region: opts.Region,
	}
	if opts.AccessKeyID != "" {
		cfg.Credentials = credentials.NewStaticCredentialsProvider(opts.AccessKeyID, opts.SecretAccessKey, "")
	}

	client := s3.NewFromConfig(cfg, func(o *s3.Options) {
		if opts.Endpoint != "" {
			o.BaseEndpoint = aws.String(opts.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Storage{
		client:        client,
		bucket:        opts.Bucket,
		publicBaseURL: strings.TrimRight(opts.PublicBaseURL, "/"),
	}
}

func (s *S3Storage) Save(ctx context.Context, name, contentType string, r io.Reader) (string, error) {
	input := &s3.PutObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
		Body:   r,
	}
	if contentType != "" {
		input.ContentType = aws.String(contentType)
	}
	if _, err := s.client.PutObject(ctx, input); err != nil {
		return "", fmt.Errorf("put object: %w", err)
	}
	return s.publicBaseURL + "/" + url.PathEscape(name), nil
}

func (s *S3Storage) Delete(ctx context.Context, name string) (bool, error) {
	_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	})
	if err != nil {
		var nf *s3types.NotFound
		if errors.As(err, &nf) {
			return false, nil
		}
		return false, fmt.Errorf("head object: %w", err)
	}

	if _, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(name),
	}); err != nil {
		return false, fmt.Errorf("delete object: %w", err)
	}
	return true, nil
}

func (s *S3Storage) NameFromURL(rawURL string) (string, bool) {
	prefix := s.publicBaseURL + "/"
	if !strings.HasPrefix(rawURL, prefix) {
		return "", false
	}
	name, err := url.PathUnescape(strings.TrimPrefix(rawURL, prefix))
	if err != nil || !validName(name) {
		return "", false
	}
	return name, true
}
