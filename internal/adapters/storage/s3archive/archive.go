package s3archive

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/hylla/csrpulse/internal/app"
)

// Config holds bucket and credential settings for the archive.
type Config struct {
	Bucket  string
	Region  string
	Profile string // shared-config profile, mostly for local use
}

// PutObjectAPI is the subset of *s3.Client the archive needs.
type PutObjectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive writes rendered report exports to one S3 bucket.
type Archive struct {
	client PutObjectAPI
	bucket string
}

var _ app.ExportArchiver = (*Archive)(nil)

// New loads the default AWS config chain and returns an archive for cfg.Bucket.
func New(ctx context.Context, cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, errors.New("s3 archive bucket is required")
	}
	opts := []func(*config.LoadOptions) error{}
	if region := strings.TrimSpace(cfg.Region); region != "" {
		opts = append(opts, config.WithRegion(region))
	}
	if profile := strings.TrimSpace(cfg.Profile); profile != "" {
		opts = append(opts, config.WithSharedConfigProfile(profile))
	}
	awsCfg, err := config.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config for s3 archive: %w", err)
	}
	return NewWithClient(s3.NewFromConfig(awsCfg), cfg.Bucket), nil
}

// NewWithClient wraps an existing client.
func NewWithClient(client PutObjectAPI, bucket string) *Archive {
	return &Archive{client: client, bucket: strings.TrimSpace(bucket)}
}

// Archive uploads body under key.
func (a *Archive) Archive(ctx context.Context, key, contentType string, body []byte) error {
	key = strings.TrimLeft(strings.TrimSpace(key), "/")
	if key == "" {
		return errors.New("s3 archive key is required")
	}
	_, err := a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(a.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(contentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("put s3://%s/%s: %w", a.bucket, key, err)
	}
	return nil
}
