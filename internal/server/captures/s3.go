package captures

import (
	"bytes"
	"context"
	"fmt"
	"sync"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newS3ClientFromConfig = func(cfg aws.Config, optFns ...func(*s3.Options)) *s3.Client {
		return s3.NewFromConfig(cfg, optFns...)
	}

	putObject = func(c *s3.Client, ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
		return c.PutObject(ctx, in, optFns...)
	}
)

// S3Options configure an S3Archive. Credentials are static (MinIO root user
// in development).
type S3Options struct {
	Bucket       string
	Region       string
	User         string
	Password     string
	BaseEndpoint string
}

// S3Archive writes captures with PutObject. The client is built lazily on
// first use so a missing object store does not block server start.
type S3Archive struct {
	opts S3Options

	once    sync.Once
	client  *s3.Client
	initErr error
}

func NewS3Archive(opts S3Options) *S3Archive {
	return &S3Archive{opts: opts}
}

func (a *S3Archive) getClient(ctx context.Context) (*s3.Client, error) {
	a.once.Do(func() {
		cfg, err := loadDefaultAWSConfig(ctx,
			config.WithRegion(a.opts.Region),
			config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
				a.opts.User,
				a.opts.Password,
				"",
			)))
		if err != nil {
			a.initErr = fmt.Errorf("load aws config: %w", err)
			return
		}
		a.client = newS3ClientFromConfig(cfg, func(o *s3.Options) {
			if a.opts.BaseEndpoint != "" {
				o.BaseEndpoint = aws.String(a.opts.BaseEndpoint)
			}
			o.UsePathStyle = true
		})
	})
	return a.client, a.initErr
}

func (a *S3Archive) Put(ctx context.Context, key string, image []byte) error {
	client, err := a.getClient(ctx)
	if err != nil {
		return err
	}

	_, err = putObject(client, ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.opts.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(image),
		ContentType: aws.String("image/jpeg"),
	})
	if err != nil {
		return fmt.Errorf("put capture %s: %w", key, err)
	}
	return nil
}
