package loadtest

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"
)

type fakeS3 struct {
	input *s3.PutObjectInput
	body  []byte
	err   error
}

func (f *fakeS3) PutObject(_ context.Context, in *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.input = in
	if in.Body != nil {
		f.body, _ = io.ReadAll(in.Body)
	}
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3SinkUploadsReport(t *testing.T) {
	fake := &fakeS3{}
	sink := &S3Sink{Client: fake, Bucket: "perf"}

	if err := sink.Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if got := aws.ToString(fake.input.Bucket); got != "perf" {
		t.Errorf("Bucket = %q", got)
	}
	if got := aws.ToString(fake.input.Key); got != "gateprobe/reports/20260304T050607Z.json" {
		t.Errorf("Key = %q", got)
	}
	if got := aws.ToString(fake.input.ContentType); got != "application/json" {
		t.Errorf("ContentType = %q", got)
	}
	if fake.input.Metadata["target"] != "127.0.0.1:9000" || fake.input.Metadata["report-version"] != ReportVersion {
		t.Errorf("Metadata = %v", fake.input.Metadata)
	}

	var decoded Report
	if err := json.Unmarshal(fake.body, &decoded); err != nil {
		t.Fatalf("uploaded body is not a report: %v", err)
	}
	if decoded.Latency.Samples != 3 {
		t.Errorf("uploaded samples = %d", decoded.Latency.Samples)
	}
}

func TestS3SinkCustomKey(t *testing.T) {
	fake := &fakeS3{}
	sink := &S3Sink{Client: fake, Bucket: "perf", Key: "runs/{timestamp}/report.json"}
	if err := sink.Write(context.Background(), sampleReport()); err != nil {
		t.Fatal(err)
	}
	if got := aws.ToString(fake.input.Key); got != "runs/20260304T050607Z/report.json" {
		t.Errorf("Key = %q", got)
	}
}

func TestS3SinkErrors(t *testing.T) {
	if err := (&S3Sink{Bucket: "perf"}).Write(context.Background(), sampleReport()); err == nil {
		t.Error("Write() without client error = nil")
	}
	if err := (&S3Sink{Client: &fakeS3{}}).Write(context.Background(), sampleReport()); err == nil {
		t.Error("Write() without bucket error = nil")
	}

	denied := errors.New("access denied")
	err := (&S3Sink{Client: &fakeS3{err: denied}, Bucket: "perf"}).Write(context.Background(), sampleReport())
	if !errors.Is(err, denied) {
		t.Fatalf("Write() error = %v, want wrapped %v", err, denied)
	}
	if !strings.Contains(err.Error(), "perf/gateprobe/reports/") {
		t.Errorf("error does not name the object: %v", err)
	}
}

func TestFileSink(t *testing.T) {
	path := filepath.Join(t.TempDir(), "report.json")
	if err := (&FileSink{Path: path}).Write(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if !json.Valid(data) {
		t.Errorf("file is not JSON:\n%s", data)
	}

	var buf bytes.Buffer
	if err := (&FileSink{Path: "-", Stdout: &buf}).Write(context.Background(), sampleReport()); err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(buf.Bytes(), data) {
		t.Error("stdout and file output differ")
	}

	missing := filepath.Join(t.TempDir(), "no", "such", "dir", "r.json")
	if err := (&FileSink{Path: missing}).Write(context.Background(), sampleReport()); err == nil {
		t.Error("Write() into a missing directory error = nil")
	}
}

func TestNewS3Client(t *testing.T) {
	t.Setenv("AWS_REGION", "")
	t.Setenv("AWS_ACCESS_KEY_ID", "")

	c := NewS3Client(S3Config{
		Endpoint:        "http://127.0.0.1:9000",
		UsePathStyle:    true,
		AccessKeyID:     "AKID",
		SecretAccessKey: "secret",
	})
	opts := c.Options()
	if opts.Region != "us-east-1" {
		t.Errorf("Region = %q, want us-east-1", opts.Region)
	}
	if aws.ToString(opts.BaseEndpoint) != "http://127.0.0.1:9000" || !opts.UsePathStyle {
		t.Errorf("endpoint options = %q path-style %v", aws.ToString(opts.BaseEndpoint), opts.UsePathStyle)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatalf("Retrieve() error = %v", err)
	}
	if creds.AccessKeyID != "AKID" || creds.SecretAccessKey != "secret" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestNewS3ClientFromEnvironment(t *testing.T) {
	t.Setenv("AWS_REGION", "eu-west-1")
	t.Setenv("AWS_ACCESS_KEY_ID", "ENVKEY")
	t.Setenv("AWS_SECRET_ACCESS_KEY", "envsecret")
	t.Setenv("AWS_SESSION_TOKEN", "")

	opts := NewS3Client(S3Config{}).Options()
	if opts.Region != "eu-west-1" {
		t.Errorf("Region = %q", opts.Region)
	}
	creds, err := opts.Credentials.Retrieve(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	if creds.AccessKeyID != "ENVKEY" || creds.Source != "environment" {
		t.Errorf("credentials = %+v", creds)
	}
}

func TestNewS3ClientWithoutCredentials(t *testing.T) {
	t.Setenv("AWS_ACCESS_KEY_ID", "")
	opts := NewS3Client(S3Config{Region: "ap-east-1"}).Options()
	if _, err := opts.Credentials.Retrieve(context.Background()); err == nil {
		t.Error("Retrieve() without credentials error = nil")
	}
}
