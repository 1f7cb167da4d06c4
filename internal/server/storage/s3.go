// Package storage hands out presigned S3 URLs so clients move file bytes
// directly to and from object storage.
package storage

import (
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	newS3PresignClient = func(c *s3.Client) *s3.PresignClient {
		return s3.NewPresignClient(c)
	}

	presignPutObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignPutObject(ctx, in, optFns...)
	}
	presignGetObject = func(pc *s3.PresignClient, ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error) {
		return pc.PresignGetObject(ctx, in, optFns...)
	}

	nowFunc = time.Now
)

// S3Config holds the object storage settings.
type S3Config struct {
	AccessKey string
	SecretKey string
	Bucket    string
	Region    string
	// BaseEndpoint points at S3-compatible storage such as MinIO. Empty
	// means AWS.
	BaseEndpoint string
	Expires      time.Duration
}

// S3Presigner creates presigned PUT and GET URLs for one bucket.
type S3Presigner struct {
	cfg S3Config
	pc  *s3.PresignClient
}

// NewS3Presigner loads the AWS configuration with static credentials and
// builds a presign client. No request is sent to S3.
func NewS3Presigner(ctx context.Context, cfg S3Config) (*S3Presigner, error) {
	awsCfg, err := loadDefaultAWSConfig(ctx,
		config.WithRegion(cfg.Region),
		config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			cfg.AccessKey,
			cfg.SecretKey,
			"",
		)))
	if err != nil {
		return nil, err
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	return &S3Presigner{cfg: cfg, pc: newS3PresignClient(client)}, nil
}

// NewStorageKey returns a fresh object key under the user's prefix.
func NewStorageKey(userID int64) string {
	d := nowFunc()
	return fmt.Sprintf("users/%d/%d/%d/%d/%v", userID, d.Year(), d.Month(), d.Day(), uuid.New())
}

// PresignPut returns a URL the client can PUT the object body to.
func (p *S3Presigner) PresignPut(ctx context.Context, key, contentType string) (string, error) {
	in := &s3.PutObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}
	if contentType != "" {
		in.ContentType = aws.String(contentType)
	}

	req, err := presignPutObject(p.pc, ctx, in, s3.WithPresignExpires(p.cfg.Expires))
	if err != nil {
		return "", fmt.Errorf("presign put: %w", err)
	}
	return req.URL, nil
}

// PresignGet returns a URL the client can download the object from.
func (p *S3Presigner) PresignGet(ctx context.Context, key string) (string, error) {
	req, err := presignGetObject(p.pc, ctx, &s3.GetObjectInput{
		Bucket: aws.String(p.cfg.Bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(p.cfg.Expires))
	if err != nil {
		return "", fmt.Errorf("presign get: %w", err)
	}
	return req.URL, nil
}
