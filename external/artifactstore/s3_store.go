package artifactstore

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	crerr "github.com/cockroachdb/errors"

	"github.com/ligatr/league-engine/internal/platform/logging"
)

type S3StoreConfig struct {
	// Endpoint overrides the AWS endpoint; set to the account endpoint
	// when the bucket lives on an S3-compatible service such as R2.
	Endpoint        string
	Region          string
	AccessKeyID     string
	SecretAccessKey string
	Bucket          string
	Timeout         time.Duration
}

// S3Store keeps result artifacts in an S3-compatible bucket under the
// results/{season}/{league}/{match}.json layout.
type S3Store struct {
	client  *s3.Client
	bucket  string
	timeout time.Duration
	logger  *logging.Logger
}

func NewS3Store(ctx context.Context, cfg S3StoreConfig, logger *logging.Logger) (*S3Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, crerr.New("artifact bucket is required")
	}
	if logger == nil {
		logger = logging.Default()
	}

	region := strings.TrimSpace(cfg.Region)
	if region == "" {
		region = "auto"
	}

	loadOpts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		loadOpts = append(loadOpts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKeyID, cfg.SecretAccessKey, ""),
		))
	}

	sdkCfg, err := awsconfig.LoadDefaultConfig(ctx, loadOpts...)
	if err != nil {
		return nil, crerr.Wrap(err, "load aws sdk config")
	}

	client := s3.NewFromConfig(sdkCfg, func(o *s3.Options) {
		if endpoint := strings.TrimSpace(cfg.Endpoint); endpoint != "" {
			o.BaseEndpoint = aws.String(endpoint)
			o.UsePathStyle = true
		}
	})

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 20 * time.Second
	}

	return &S3Store{
		client:  client,
		bucket:  strings.TrimSpace(cfg.Bucket),
		timeout: timeout,
		logger:  logger,
	}, nil
}

func (s *S3Store) Get(ctx context.Context, path string) ([]byte, error) {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := normalizeKey(path)
	out, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		if isNoSuchKey(err) {
			return nil, fmt.Errorf("artifact %s does not exist: %w", key, err)
		}
		return nil, crerr.Wrapf(err, "get artifact %s", key)
	}
	defer func() {
		_ = out.Body.Close()
	}()

	body, err := io.ReadAll(out.Body)
	if err != nil {
		return nil, crerr.Wrapf(err, "read artifact %s", key)
	}
	return body, nil
}

func (s *S3Store) Put(ctx context.Context, path string, body []byte, contentType string) error {
	ctx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	key := normalizeKey(path)
	if contentType == "" {
		contentType = "application/json"
	}

	_, err := s.client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(body),
		ContentType: aws.String(contentType),
	})
	if err != nil {
		return crerr.Wrapf(err, "put artifact %s", key)
	}

	s.logger.DebugContext(ctx, "artifact stored", "key", key, "bytes", len(body))
	return nil
}

func normalizeKey(path string) string {
	return strings.TrimPrefix(strings.TrimSpace(path), "/")
}

func isNoSuchKey(err error) bool {
	var apiErr smithy.APIError
	if !crerr.As(err, &apiErr) {
		return false
	}
	code := apiErr.ErrorCode()
	return code == "NoSuchKey" || code == "NotFound"
}
