package s3infra

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/go-verify-bot/internal/config"
	"github.com/go-verify-bot/internal/infrastructure/awsconf"
)

// maxEvidenceBytes caps downloads; evidence is validated to 8 MiB before it gets here.
const maxEvidenceBytes = 8*1024*1024 + 1

// objectAPI is the subset of the S3 client the archive uses.
type objectAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// Archive copies evidence images from the platform CDN into a bucket.
type Archive struct {
	client  objectAPI
	presign func(ctx context.Context, key string, ttl time.Duration) (string, error)
	http    *http.Client
	bucket  string
}

// NewClient creates an S3 client. An endpoint override (LocalStack) also switches to
// path-style addressing.
func NewClient(ctx context.Context, cfg *config.Config) (*s3.Client, error) {
	awsCfg, err := awsconf.Load(ctx, cfg)
	if err != nil {
		return nil, err
	}
	return s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if ep := awsconf.Endpoint(cfg); ep != nil {
			o.BaseEndpoint = ep
			o.UsePathStyle = true
		}
	}), nil
}

// NewArchive creates an Archive writing to bucket.
func NewArchive(client *s3.Client, bucket string) *Archive {
	pc := s3.NewPresignClient(client)
	return &Archive{
		client: client,
		presign: func(ctx context.Context, key string, ttl time.Duration) (string, error) {
			req, err := pc.PresignGetObject(ctx, &s3.GetObjectInput{
				Bucket: aws.String(bucket),
				Key:    aws.String(key),
			}, s3.WithPresignExpires(ttl))
			if err != nil {
				return "", err
			}
			return req.URL, nil
		},
		http:   &http.Client{Timeout: 30 * time.Second},
		bucket: bucket,
	}
}

// Archive downloads sourceURL and stores it under key. It returns the stored key.
func (a *Archive) Archive(ctx context.Context, key, sourceURL, contentType string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, sourceURL, nil)
	if err != nil {
		return "", fmt.Errorf("build evidence request: %w", err)
	}
	resp, err := a.http.Do(req)
	if err != nil {
		return "", fmt.Errorf("download evidence: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("download evidence: unexpected status %d", resp.StatusCode)
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxEvidenceBytes))
	if err != nil {
		return "", fmt.Errorf("read evidence: %w", err)
	}
	if len(body) >= maxEvidenceBytes {
		return "", fmt.Errorf("evidence exceeds %d bytes", maxEvidenceBytes-1)
	}
	if contentType == "" {
		contentType = detectContentType(key)
	}

	_, err = a.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(a.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return "", fmt.Errorf("s3 put object: %w", err)
	}
	return key, nil
}

// PresignedURL generates a time-limited GET URL for an archived object.
func (a *Archive) PresignedURL(ctx context.Context, key string, ttl time.Duration) (string, error) {
	url, err := a.presign(ctx, key, ttl)
	if err != nil {
		return "", fmt.Errorf("presign get object: %w", err)
	}
	return url, nil
}

func detectContentType(filename string) string {
	lower := strings.ToLower(filename)
	switch {
	case strings.HasSuffix(lower, ".jpg") || strings.HasSuffix(lower, ".jpeg"):
		return "image/jpeg"
	case strings.HasSuffix(lower, ".png"):
		return "image/png"
	case strings.HasSuffix(lower, ".webp"):
		return "image/webp"
	case strings.HasSuffix(lower, ".gif"):
		return "image/gif"
	default:
		return "application/octet-stream"
	}
}
