package export

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	v4 "github.com/aws/aws-sdk-go-v2/aws/signer/v4"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/google/uuid"

	"github.com/justsurfingit/cover-letter-agent/internal/config"
)

// Seams for tests.
var (
	loadDefaultAWSConfig  = awsconfig.LoadDefaultConfig
	newS3ClientFromConfig = s3.NewFromConfig
	newS3PresignClient    = func(c *s3.Client) *s3.PresignClient { return s3.NewPresignClient(c) }
)

type objectPutter interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

type objectPresigner interface {
	PresignGetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.PresignOptions)) (*v4.PresignedHTTPRequest, error)
}

// Archive stores exported documents in an S3-compatible bucket and hands
// out time-limited download links.
type Archive struct {
	bucket    string
	ttl       time.Duration
	putter    objectPutter
	presigner objectPresigner
	now       func() time.Time
}

// NewArchive connects to the configured bucket. Static credentials and a
// custom endpoint are optional; without them the default AWS chain is used.
func NewArchive(ctx context.Context, cfg config.ExportConfig) (*Archive, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("export archive: bucket is not configured")
	}
	opts := []func(*awsconfig.LoadOptions) error{awsconfig.WithRegion(cfg.Region)}
	if cfg.AccessKey != "" {
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}
	awsCfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("export archive: load aws config: %w", err)
	}

	client := newS3ClientFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})
	return &Archive{
		bucket:    cfg.Bucket,
		ttl:       cfg.PresignTTL,
		putter:    client,
		presigner: newS3PresignClient(client),
		now:       time.Now,
	}, nil
}

// Stored describes an archived document.
type Stored struct {
	Key       string    `json:"key"`
	URL       string    `json:"url"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Store uploads data under a per-user key and returns a presigned GET URL.
func (a *Archive) Store(ctx context.Context, userID, filename, contentType string, data []byte) (*Stored, error) {
	now := a.now()
	key := fmt.Sprintf("letters/%s/%d/%02d/%s/%s", userID, now.Year(), now.Month(), uuid.NewString(), filename)

	_, err := a.putter.PutObject(ctx, &s3.PutObjectInput{
		Bucket:             aws.String(a.bucket),
		Key:                aws.String(key),
		Body:               bytes.NewReader(data),
		ContentType:        aws.String(contentType),
		ContentDisposition: aws.String(fmt.Sprintf("attachment; filename=%q", filename)),
	})
	if err != nil {
		return nil, fmt.Errorf("export archive: upload %s: %w", key, err)
	}

	req, err := a.presigner.PresignGetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(a.bucket),
		Key:    aws.String(key),
	}, s3.WithPresignExpires(a.ttl))
	if err != nil {
		return nil, fmt.Errorf("export archive: presign %s: %w", key, err)
	}
	return &Stored{Key: key, URL: req.URL, ExpiresAt: now.Add(a.ttl)}, nil
}
