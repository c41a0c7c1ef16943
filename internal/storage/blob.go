package storage

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"
	"time"

	"code.cloudfoundry.org/lager"
	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/awserr"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/aws/aws-sdk-go/service/s3/s3iface"

	"github.com/adamscao/lotcert/internal/config"
)

// ErrObjectNotFound is returned when a key has no stored object
var ErrObjectNotFound = errors.New("object not found")

const pdfContentType = "application/pdf"

// BlobStore persists certificate PDFs in an S3-compatible bucket (Cloudflare R2, MinIO, S3)
type BlobStore struct {
	client    s3iface.S3API
	bucket    string
	keyPrefix string
	logger    lager.Logger
}

// NewS3Client builds an S3 API client from storage settings
func NewS3Client(cfg config.StorageConfig) (s3iface.S3API, error) {
	awsCfg := &aws.Config{
		Region:           aws.String(cfg.Region),
		Credentials:      credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		S3ForcePathStyle: aws.Bool(true),
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage session: %w", err)
	}

	return s3.New(sess), nil
}

// NewBlobStore creates a blob store over an S3 API client
func NewBlobStore(client s3iface.S3API, bucket, keyPrefix string, logger lager.Logger) *BlobStore {
	return &BlobStore{
		client:    client,
		bucket:    bucket,
		keyPrefix: strings.Trim(keyPrefix, "/"),
		logger:    logger.Session("blob-store", lager.Data{"bucket": bucket}),
	}
}

// KeyFor returns the object key of a certificate's PDF. Addressing is by
// certificate ID; the content hash is kept on the record for integrity checks.
func (b *BlobStore) KeyFor(certificateID string) string {
	return path.Join(b.keyPrefix, certificateID+".pdf")
}

// Put uploads a PDF under key
func (b *BlobStore) Put(ctx context.Context, key string, body []byte) error {
	_, err := b.client.PutObjectWithContext(ctx, &s3.PutObjectInput{
		Bucket:        aws.String(b.bucket),
		Key:           aws.String(key),
		Body:          bytes.NewReader(body),
		ContentType:   aws.String(pdfContentType),
		ContentLength: aws.Int64(int64(len(body))),
	})
	if err != nil {
		return fmt.Errorf("failed to upload %s: %w", key, err)
	}

	b.logger.Debug("uploaded", lager.Data{"key": key, "size": len(body)})
	return nil
}

// Get downloads the object stored under key
func (b *BlobStore) Get(ctx context.Context, key string) ([]byte, error) {
	out, err := b.client.GetObjectWithContext(ctx, &s3.GetObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("%s: %w", key, ErrObjectNotFound)
		}
		return nil, fmt.Errorf("failed to download %s: %w", key, err)
	}
	defer out.Body.Close()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("failed to read %s: %w", key, err)
	}

	return body, nil
}

// SignedURL returns a pre-signed GET link valid for ttl that makes browsers
// save the object as filename and forbids intermediary caching.
func (b *BlobStore) SignedURL(key, filename string, ttl time.Duration) (string, error) {
	req, _ := b.client.GetObjectRequest(&s3.GetObjectInput{
		Bucket:                     aws.String(b.bucket),
		Key:                        aws.String(key),
		ResponseContentDisposition: aws.String(fmt.Sprintf(`attachment; filename="%s"`, filename)),
		ResponseCacheControl:       aws.String("no-store"),
	})

	url, err := req.Presign(ttl)
	if err != nil {
		return "", fmt.Errorf("failed to presign %s: %w", key, err)
	}

	return url, nil
}

// Object describes a stored document
type Object struct {
	Key          string
	Size         int64
	LastModified time.Time
}

// List returns every object stored under the certificate prefix
func (b *BlobStore) List(ctx context.Context) ([]Object, error) {
	var objects []Object

	input := &s3.ListObjectsV2Input{
		Bucket: aws.String(b.bucket),
		Prefix: aws.String(b.keyPrefix + "/"),
	}
	err := b.client.ListObjectsV2PagesWithContext(ctx, input, func(page *s3.ListObjectsV2Output, lastPage bool) bool {
		for _, obj := range page.Contents {
			objects = append(objects, Object{
				Key:          aws.StringValue(obj.Key),
				Size:         aws.Int64Value(obj.Size),
				LastModified: aws.TimeValue(obj.LastModified),
			})
		}
		return true
	})
	if err != nil {
		return nil, fmt.Errorf("failed to list objects: %w", err)
	}

	return objects, nil
}

// Delete removes the object stored under key
func (b *BlobStore) Delete(ctx context.Context, key string) error {
	_, err := b.client.DeleteObjectWithContext(ctx, &s3.DeleteObjectInput{
		Bucket: aws.String(b.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return fmt.Errorf("failed to delete %s: %w", key, err)
	}

	b.logger.Info("deleted", lager.Data{"key": key})
	return nil
}

func isNotFound(err error) bool {
	var aerr awserr.Error
	if errors.As(err, &aerr) {
		switch aerr.Code() {
		case s3.ErrCodeNoSuchKey, "NotFound":
			return true
		}
	}
	return false
}
