package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsCfg "github.com/aws/aws-sdk-go-v2/config" // Alias config to avoid clash
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"
	"github.com/aws/smithy-go"
	"github.com/rs/zerolog/log"

	"ideahub/mentorship-api/internal/config"
	"ideahub/mentorship-api/internal/metrics"
)

const metricsService = "file-store"

// objectAPI is the subset of *s3.Client the store uses.
type objectAPI interface {
	PutObject(ctx context.Context, params *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

// s3Storage implements the FileStorage interface using an S3-compatible backend.
type s3Storage struct {
	client     objectAPI
	bucketName string
	baseURL    string // objects are reachable at baseURL + "/" + key
}

// NewS3Storage creates a new S3 storage service instance.
func NewS3Storage(ctx context.Context, cfg config.S3Config) (FileStorage, error) {
	if cfg.BucketName == "" {
		return nil, errors.New("s3 bucket name is required")
	}

	opts := []func(*awsCfg.LoadOptions) error{awsCfg.WithRegion(cfg.Region)}
	if cfg.AccessKeyID != "" {
		opts = append(opts, awsCfg.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, "")))
	}

	awsSDKConfig, err := awsCfg.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	endpoint := normalizeEndpoint(cfg.Endpoint, cfg.UseSSL)
	s3Client := s3.NewFromConfig(awsSDKConfig, func(o *s3.Options) {
		if endpoint != "" {
			// S3-compatible services (MinIO, Spaces) need path-style addressing.
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	log.Info().Str("endpoint", endpoint).Str("bucket", cfg.BucketName).Msg("S3 storage initialized")

	return newS3Storage(s3Client, cfg.BucketName, objectBaseURL(cfg, endpoint)), nil
}

func newS3Storage(client objectAPI, bucket, baseURL string) *s3Storage {
	return &s3Storage{client: client, bucketName: bucket, baseURL: strings.TrimRight(baseURL, "/")}
}

// Upload stores the file under opts.Folder/opts.Name with opts.Tags as object tags.
func (s *s3Storage) Upload(ctx context.Context, file File, opts UploadOptions) (obj Object, err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall(metricsService, start, err) }()

	name := opts.Name
	if name == "" {
		name = ObjectName(start, 0, file.Name)
	}
	key := ObjectKey(opts.Folder, name)

	input := &s3.PutObjectInput{
		Bucket:        aws.String(s.bucketName),
		Key:           aws.String(key),
		Body:          bytes.NewReader(file.Data),
		ContentLength: aws.Int64(int64(len(file.Data))),
	}
	if file.ContentType != "" {
		input.ContentType = aws.String(file.ContentType)
	}
	if len(opts.Tags) > 0 {
		tags := url.Values{}
		for k, v := range opts.Tags {
			tags.Set(k, v)
		}
		input.Tagging = aws.String(tags.Encode())
	}

	if _, err = s.client.PutObject(ctx, input); err != nil {
		log.Error().Err(err).Str("key", key).Str("bucket", s.bucketName).Msg("failed to upload object")
		return Object{}, &UploadError{Name: file.Name, Err: err}
	}

	return Object{URL: s.baseURL + "/" + key, StorageID: key}, nil
}

// Delete removes an object from the bucket. S3 deletes succeed on missing keys,
// so existence is checked first to report AlreadyAbsent.
func (s *s3Storage) Delete(ctx context.Context, storageID string) (outcome DeleteOutcome, err error) {
	start := time.Now()
	defer func() { metrics.ObserveExternalCall(metricsService, start, err) }()

	_, err = s.client.HeadObject(ctx, &s3.HeadObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storageID),
	})
	if err != nil {
		if isNotFound(err) {
			log.Info().Str("key", storageID).Msg("object already absent")
			return AlreadyAbsent, nil
		}
		return "", fmt.Errorf("head object %q: %w", storageID, err)
	}

	_, err = s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(s.bucketName),
		Key:    aws.String(storageID),
	})
	if err != nil {
		if isNotFound(err) {
			return AlreadyAbsent, nil
		}
		log.Error().Err(err).Str("key", storageID).Str("bucket", s.bucketName).Msg("failed to delete object")
		return "", fmt.Errorf("delete object %q: %w", storageID, err)
	}

	log.Info().Str("key", storageID).Str("bucket", s.bucketName).Msg("deleted object")
	return Deleted, nil
}

func isNotFound(err error) bool {
	if errors.Is(err, ErrObjectNotFound) {
		return true
	}
	var nf *types.NotFound
	var nsk *types.NoSuchKey
	if errors.As(err, &nf) || errors.As(err, &nsk) {
		return true
	}
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NotFound", "NoSuchKey", "404":
			return true
		}
	}
	return false
}

func normalizeEndpoint(endpoint string, useSSL bool) string {
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" || strings.Contains(endpoint, "://") {
		return endpoint
	}
	if useSSL {
		return "https://" + endpoint
	}
	return "http://" + endpoint
}

// objectBaseURL picks the durable URL prefix: a public base URL when configured,
// the path-style endpoint URL for S3-compatible stores, else the AWS virtual-hosted URL.
func objectBaseURL(cfg config.S3Config, endpoint string) string {
	switch {
	case cfg.PublicBaseURL != "":
		return strings.TrimRight(cfg.PublicBaseURL, "/")
	case endpoint != "":
		return endpoint + "/" + cfg.BucketName
	default:
		return fmt.Sprintf("https://%s.s3.%s.amazonaws.com", cfg.BucketName, cfg.Region)
	}
}
