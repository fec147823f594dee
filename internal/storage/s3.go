// Package storage holds the S3-backed image store for product photos.
package storage

import (
	"context"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

// ImageStore uploads product images and returns a public URL.
type ImageStore interface {
	Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error)
}

// S3Store stores images in an S3 bucket fronted by a public base URL
// (CloudFront or the bucket website endpoint).
type S3Store struct {
	client     *s3.Client
	bucket     string
	publicBase string
}

// NewS3Store builds an S3Store using the ambient AWS credential chain.
func NewS3Store(ctx context.Context, region, bucket, publicBase string) (*S3Store, error) {
	cfg, err := awsconfig.LoadDefaultConfig(ctx, awsconfig.WithRegion(region))
	if err != nil {
		return nil, fmt.Errorf("failed to load AWS config: %w", err)
	}
	return &S3Store{
		client:     s3.NewFromConfig(cfg),
		bucket:     bucket,
		publicBase: strings.TrimRight(publicBase, "/"),
	}, nil
}

// Upload puts the object under a collision-free key derived from the original
// filename and returns its public URL.
func (s *S3Store) Upload(ctx context.Context, body io.Reader, filename, contentType string) (string, error) {
	key := buildObjectKey(filename)

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        body,
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("failed to upload %s to S3: %w", key, err)
	}
	return s.publicBase + "/" + key, nil
}

func buildObjectKey(filename string) string {
	name := sanitizeFilename(filename)
	ext := strings.ToLower(filepath.Ext(name))
	base := strings.TrimSuffix(name, ext)
	if base == "" {
		base = "image"
	}
	return fmt.Sprintf("products/%s-%s%s", base, uuid.New().String(), ext)
}

func sanitizeFilename(name string) string {
	name = strings.TrimSpace(name)
	name = strings.ReplaceAll(name, string(filepath.Separator), "-")
	name = strings.ReplaceAll(name, " ", "-")
	if name == "" {
		return "image"
	}
	return name
}
