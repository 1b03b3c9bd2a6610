package loadtest

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

// Sink publishes a finished report.
type Sink interface {
	Write(ctx context.Context, report *Report) error
}

// FileSink writes the report as JSON to a file, or to Stdout when Path is
// "-".
type FileSink struct {
	Path string

	// Stdout receives the report for Path "-".
	// Default: os.Stdout.
	Stdout io.Writer
}

func (s *FileSink) Write(_ context.Context, report *Report) error {
	if s.Path == "-" {
		out := s.Stdout
		if out == nil {
			out = os.Stdout
		}
		return WriteJSON(out, report)
	}
	f, err := os.Create(s.Path)
	if err != nil {
		return err
	}
	if err := WriteJSON(f, report); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}

// S3PutAPI is the subset of *s3.Client the S3 sink uses.
type S3PutAPI interface {
	PutObject(ctx context.Context, in *s3.PutObjectInput, optFns ...func(*s3.Options)) (*s3.PutObjectOutput, error)
}

// S3Sink uploads the report JSON to a bucket.
type S3Sink struct {
	Client S3PutAPI
	Bucket string

	// Key is the object key. "{timestamp}" is replaced by the run time.
	// Default: "gateprobe/reports/{timestamp}.json".
	Key string
}

func (s *S3Sink) Write(ctx context.Context, report *Report) error {
	if s.Client == nil || s.Bucket == "" {
		return errors.New("loadtest: s3 sink needs a client and a bucket")
	}
	var buf bytes.Buffer
	if err := WriteJSON(&buf, report); err != nil {
		return err
	}

	key := s.objectKey(report)
	_, err := s.Client.PutObject(ctx, &s3.PutObjectInput{
		Bucket:      aws.String(s.Bucket),
		Key:         aws.String(key),
		Body:        bytes.NewReader(buf.Bytes()),
		ContentType: aws.String("application/json"),
		Metadata: map[string]string{
			"report-version": report.Version,
			"target":         report.Run.Target,
		},
	})
	if err != nil {
		return fmt.Errorf("s3 upload %s/%s failed: %w", s.Bucket, key, err)
	}
	return nil
}

func (s *S3Sink) objectKey(report *Report) string {
	key := s.Key
	if key == "" {
		key = "gateprobe/reports/{timestamp}.json"
	}
	stamp := report.Run.Timestamp
	if t, err := time.Parse(time.RFC3339Nano, stamp); err == nil {
		stamp = t.UTC().Format("20060102T150405Z")
	}
	return strings.ReplaceAll(key, "{timestamp}", stamp)
}

// S3Config configures NewS3Client.
type S3Config struct {
	// Region is the bucket region.
	// Default: "us-east-1".
	Region string

	// Endpoint overrides the service endpoint, e.g. for MinIO.
	Endpoint string

	// UsePathStyle addresses buckets by path instead of virtual host.
	UsePathStyle bool

	// AccessKeyID, SecretAccessKey and SessionToken are static credentials.
	// When AccessKeyID is empty they are read from the AWS_ACCESS_KEY_ID,
	// AWS_SECRET_ACCESS_KEY and AWS_SESSION_TOKEN environment variables.
	AccessKeyID     string
	SecretAccessKey string
	SessionToken    string
}

// NewS3Client builds an S3 client from static or environment credentials.
func NewS3Client(cfg S3Config) *s3.Client {
	region := cfg.Region
	if region == "" {
		region = os.Getenv("AWS_REGION")
	}
	if region == "" {
		region = "us-east-1"
	}

	creds := aws.Credentials{
		AccessKeyID:     cfg.AccessKeyID,
		SecretAccessKey: cfg.SecretAccessKey,
		SessionToken:    cfg.SessionToken,
		Source:          "gateprobe",
	}
	if creds.AccessKeyID == "" {
		creds = aws.Credentials{
			AccessKeyID:     os.Getenv("AWS_ACCESS_KEY_ID"),
			SecretAccessKey: os.Getenv("AWS_SECRET_ACCESS_KEY"),
			SessionToken:    os.Getenv("AWS_SESSION_TOKEN"),
			Source:          "environment",
		}
	}

	opts := s3.Options{
		Region:       region,
		UsePathStyle: cfg.UsePathStyle,
		Credentials: aws.NewCredentialsCache(aws.CredentialsProviderFunc(func(context.Context) (aws.Credentials, error) {
			if creds.AccessKeyID == "" {
				return aws.Credentials{}, errors.New("loadtest: no AWS credentials configured")
			}
			return creds, nil
		})),
	}
	if cfg.Endpoint != "" {
		opts.BaseEndpoint = aws.String(cfg.Endpoint)
	}
	return s3.New(opts)
}
