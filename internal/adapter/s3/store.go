// Package s3 stores raw uploaded documents in an S3 bucket and hands
// out presigned upload URLs for browser-direct uploads.
package s3

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/feature/s3/manager"
	awss3 "github.com/aws/aws-sdk-go-v2/service/s3"
)

// PresignExpiry is how long a presigned upload URL stays valid.
const PresignExpiry = 5 * time.Minute

// API is the subset of the S3 client the store uses directly.
type API interface {
	GetObject(ctx context.Context, params *awss3.GetObjectInput, optFns ...func(*awss3.Options)) (*awss3.GetObjectOutput, error)
	HeadObject(ctx context.Context, params *awss3.HeadObjectInput, optFns ...func(*awss3.Options)) (*awss3.HeadObjectOutput, error)
	DeleteObject(ctx context.Context, params *awss3.DeleteObjectInput, optFns ...func(*awss3.Options)) (*awss3.DeleteObjectOutput, error)
}

// Uploader matches the manager uploader's Upload method.
type Uploader interface {
	Upload(ctx context.Context, input *awss3.PutObjectInput, opts ...func(*manager.Uploader)) (*manager.UploadOutput, error)
}

type Store struct {
	client   API
	uploader Uploader
	presign  *awss3.PresignClient
	bucket   string
}

// New connects to S3 with static credentials when provided, falling
// back to the default credential chain otherwise.
func New(ctx context.Context, region, bucket, accessKey, secretKey string) (*Store, error) {
	if bucket == "" {
		return nil, fmt.Errorf("document bucket not set")
	}
	if region == "" {
		return nil, fmt.Errorf("AWS region not set")
	}

	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(region)}
	if accessKey != "" && secretKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(accessKey, secretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := awss3.NewFromConfig(awsCfg)
	return &Store{
		client:   client,
		uploader: manager.NewUploader(client),
		presign:  awss3.NewPresignClient(client),
		bucket:   bucket,
	}, nil
}

func (s *Store) Bucket() string { return s.bucket }

// Put writes an object with user metadata attached.
func (s *Store) Put(ctx context.Context, key string, body []byte, contentType string, metadata map[string]string) error {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	_, err := s.uploader.Upload(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	})
	if err != nil {
		return fmt.Errorf("s3 upload failed: %w", err)
	}
	return nil
}

func (s *Store) Get(ctx context.Context, key string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, 2*time.Minute)
	defer cancel()

	resp, err := s.client.GetObject(ctx, &awss3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 get failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read body: %w", err)
	}
	return body, nil
}

// Head returns the object's user metadata.
func (s *Store) Head(ctx context.Context, key string) (map[string]string, error) {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	resp, err := s.client.HeadObject(ctx, &awss3.HeadObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("s3 head failed: %w", err)
	}
	return resp.Metadata, nil
}

func (s *Store) Delete(ctx context.Context, key string) error {
	ctx, cancel := context.WithTimeout(ctx, 30*time.Second)
	defer cancel()

	_, err := s.client.DeleteObject(ctx, &awss3.DeleteObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("s3 delete failed: %w", err)
	}
	return nil
}

// PresignPut returns a URL a browser can PUT the file to directly. The
// metadata travels with the object so the worker can recover document
// identity without a database lookup.
func (s *Store) PresignPut(ctx context.Context, key, contentType string, metadata map[string]string) (string, error) {
	req, err := s.presign.PresignPutObject(ctx, &awss3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		ContentType: aws.String(contentType),
		Metadata:    metadata,
	}, awss3.WithPresignExpires(PresignExpiry))
	if err != nil {
		return "", fmt.Errorf("presign put failed: %w", err)
	}
	return req.URL, nil
}
