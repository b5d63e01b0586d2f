// Package secrets resolves the token signing secret from its configured
// reference: a literal value, a file:// path or an s3://bucket/key object.
package secrets

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

const (
	fileScheme = "file://"
	s3Scheme   = "s3://"
)

// RecommendedMinLength is the shortest secret that does not trigger a
// startup warning.
const RecommendedMinLength = 32

var (
	ErrEmptySecret = errors.New("signing secret is empty")
	ErrBadS3Ref    = errors.New("malformed s3 reference, want s3://bucket/key")
)

// S3Config addresses an S3-compatible store (AWS or MinIO).
type S3Config struct {
	AccessKey    string
	SecretKey    string
	Region       string
	BaseEndpoint string
}

type objectGetter interface {
	GetObject(ctx context.Context, in *s3.GetObjectInput, optFns ...func(*s3.Options)) (*s3.GetObjectOutput, error)
}

var (
	loadDefaultAWSConfig = config.LoadDefaultConfig

	newObjectGetter = func(cfg aws.Config, optFns ...func(*s3.Options)) objectGetter {
		return s3.NewFromConfig(cfg, optFns...)
	}
)

// Resolve returns the secret bytes named by ref. File and object contents
// are trimmed of surrounding whitespace; an empty result is an error.
func Resolve(ctx context.Context, ref string, s3cfg S3Config) ([]byte, error) {
	var (
		secret []byte
		err    error
	)

	switch {
	case strings.HasPrefix(ref, fileScheme):
		secret, err = os.ReadFile(strings.TrimPrefix(ref, fileScheme))
		if err != nil {
			return nil, fmt.Errorf("read secret file: %w", err)
		}
		secret = bytes.TrimSpace(secret)
	case strings.HasPrefix(ref, s3Scheme):
		secret, err = fetchS3(ctx, strings.TrimPrefix(ref, s3Scheme), s3cfg)
		if err != nil {
			return nil, err
		}
		secret = bytes.TrimSpace(secret)
	default:
		secret = []byte(ref)
	}

	if len(secret) == 0 {
		return nil, ErrEmptySecret
	}
	return secret, nil
}

// IsWeak reports whether secret is shorter than RecommendedMinLength.
func IsWeak(secret []byte) bool {
	return len(secret) < RecommendedMinLength
}

func fetchS3(ctx context.Context, location string, s3cfg S3Config) ([]byte, error) {
	bucket, key, ok := strings.Cut(location, "/")
	if !ok || bucket == "" || key == "" {
		return nil, ErrBadS3Ref
	}

	opts := []func(*config.LoadOptions) error{config.WithRegion(s3cfg.Region)}
	if s3cfg.AccessKey != "" {
		opts = append(opts, config.WithCredentialsProvider(credentials.NewStaticCredentialsProvider(
			s3cfg.AccessKey,
			s3cfg.SecretKey,
			"",
		)))
	}

	cfg, err := loadDefaultAWSConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("load aws config: %w", err)
	}

	client := newObjectGetter(cfg, func(o *s3.Options) {
		if s3cfg.BaseEndpoint != "" {
			o.BaseEndpoint = aws.String(s3cfg.BaseEndpoint)
			o.UsePathStyle = true
		}
	})

	out, err := client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, fmt.Errorf("get s3://%s/%s: %w", bucket, key, err)
	}
	defer out.Body.Close()

	data, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, fmt.Errorf("read s3://%s/%s: %w", bucket, key, err)
	}
	return data, nil
}
