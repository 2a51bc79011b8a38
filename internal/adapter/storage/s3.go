package storage

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	s3manager "github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/aws-sdk-go-v2/service/s3/types"

	"github.com/pgporter/pgporter/internal/domain"
)

// s3API is the slice of the S3 client this adapter needs; tests provide
// fakes against it.
type s3API interface {
	HeadObject(ctx context.Context, params *s3.HeadObjectInput, optFns ...func(*s3.Options)) (*s3.HeadObjectOutput, error)
	GetObject(ctx context.Context, params *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
	ListObjectsV2(ctx context.Context, params *s3.ListObjectsV2Input, optFns ...func(*s3.Options)) (*s3.ListObjectsV2Output, error)
	DeleteObject(ctx context.Context, params *s3.DeleteObjectInput, optFns ...func(*s3.Options)) (*s3.DeleteObjectOutput, error)
}

type uploadAPI interface {
	Upload(ctx context.Context, input *s3.PutObjectInput, opts ...func(*s3manager.Uploader)) (*s3manager.UploadOutput, error)
}

// S3Store moves artifacts to and from one bucket. It performs no key
// naming of its own; callers compose keys.
type S3Store struct {
	client   s3API
	uploader uploadAPI
	bucket   string
}

func NewS3(awsCfg aws.Config, bucket string) *S3Store {
	client := s3.NewFromConfig(awsCfg)
	return &S3Store{
		client:   client,
		uploader: s3manager.NewUploader(client),
		bucket:   bucket,
	}
}

func (s *S3Store) Upload(ctx context.Context, localPath, key string, opts domain.UploadOptions) error {
	if !opts.Replace {
		_, err := s.client.HeadObject(ctx, &s3.HeadObjectInput{
			Bucket: &s.bucket,
			Key:    &key,
		})
		switch {
		case err == nil:
			return fmt.Errorf("%w: s3://%s/%s", domain.ErrKeyExists, s.bucket, key)
		case !isNotFound(err):
			return fmt.Errorf("failed to check key s3://%s/%s: %w", s.bucket, key, err)
		}
	}

	file, err := os.Open(localPath)
	if err != nil {
		return fmt.Errorf("failed to open file: %w", err)
	}
	defer file.Close()

	input := &s3.PutObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
		Body:   file,
	}
	if opts.EncryptAtRest {
		input.ServerSideEncryption = types.ServerSideEncryptionAes256
	}

	if _, err := s.uploader.Upload(ctx, input); err != nil {
		return fmt.Errorf("failed to upload to S3: %w", err)
	}

	return nil
}

func (s *S3Store) Download(ctx context.Context, key string) (string, error) {
	resp, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return "", fmt.Errorf("failed to download s3://%s/%s: %w", s.bucket, key, err)
	}
	defer resp.Body.Close()

	tmp, err := os.CreateTemp("", "pgporter_download_*")
	if err != nil {
		return "", fmt.Errorf("failed to create temp file: %w", err)
	}
	defer tmp.Close()

	if _, err := io.Copy(tmp, resp.Body); err != nil {
		os.Remove(tmp.Name())
		return "", fmt.Errorf("failed to write s3://%s/%s to disk: %w", s.bucket, key, err)
	}

	return tmp.Name(), nil
}

func (s *S3Store) ListKeys(ctx context.Context, prefix string) ([]string, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}

	var keys []string
	for _, obj := range resp.Contents {
		keys = append(keys, *obj.Key)
	}
	return keys, nil
}

func (s *S3Store) Delete(ctx context.Context, key string) error {
	_, err := s.client.DeleteObject(ctx, &s3.DeleteObjectInput{
		Bucket: &s.bucket,
		Key:    &key,
	})
	if err != nil {
		return fmt.Errorf("failed to delete from S3: %w", err)
	}
	return nil
}

func (s *S3Store) OldKeys(ctx context.Context, prefix string, cutoff time.Time) ([]string, error) {
	resp, err := s.client.ListObjectsV2(ctx, &s3.ListObjectsV2Input{
		Bucket: &s.bucket,
		Prefix: &prefix,
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list S3 objects: %w", err)
	}

	var keys []string
	for _, obj := range resp.Contents {
		if obj.LastModified != nil && obj.LastModified.Before(cutoff) {
			keys = append(keys, *obj.Key)
		}
	}
	return keys, nil
}

func isNotFound(err error) bool {
	var notFound *types.NotFound
	return errors.As(err, &notFound)
}
