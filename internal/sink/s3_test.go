package sink

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"testing"

	"github.com/aws/aws-sdk-go-v2/aws"
	"github.com/aws/aws-sdk-go-v2/service/s3"

	"github.com/wardensec/warden/internal/log"
	"github.com/wardensec/warden/internal/review"
)

// fakeS3 captures PutObject inputs.
type fakeS3 struct {
	lastInput *s3.PutObjectInput
	err       error
}

func (f *fakeS3) PutObject(_ context.Context, params *s3.PutObjectInput, _ ...func(*s3.Options)) (*s3.PutObjectOutput, error) {
	f.lastInput = params
	if f.err != nil {
		return nil, f.err
	}
	return &s3.PutObjectOutput{}, nil
}

func TestS3Sink_Store(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	s := &S3Sink{client: fake, bucket: "sec-reports", prefix: "warden", logger: log.NewNop()}

	location, err := s.Store(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if want := "s3://sec-reports/warden/security-report-test-report-1.json"; location != want {
		t.Errorf("location = %q, want %q", location, want)
	}
	if got := aws.ToString(fake.lastInput.Bucket); got != "sec-reports" {
		t.Errorf("bucket = %q, want sec-reports", got)
	}
	if got := aws.ToString(fake.lastInput.ContentType); got != "application/json" {
		t.Errorf("content type = %q, want application/json", got)
	}

	body, err := io.ReadAll(fake.lastInput.Body)
	if err != nil {
		t.Fatalf("reading uploaded body: %v", err)
	}
	var got review.Report
	if err := json.Unmarshal(body, &got); err != nil {
		t.Fatalf("uploaded body is not valid JSON: %v", err)
	}
	if got.ID != "test-report-1" {
		t.Errorf("uploaded report ID = %q, want test-report-1", got.ID)
	}
}

func TestS3Sink_UploadFailure(t *testing.T) {
	t.Parallel()

	s := &S3Sink{client: &fakeS3{err: errors.New("denied")}, bucket: "b", logger: log.NewNop()}
	if _, err := s.Store(context.Background(), sampleReport()); err == nil {
		t.Error("Store() should propagate upload failures")
	}
}

func TestS3Sink_NoPrefix(t *testing.T) {
	t.Parallel()

	fake := &fakeS3{}
	s := &S3Sink{client: fake, bucket: "b", logger: log.NewNop()}

	if _, err := s.Store(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}
	if got := aws.ToString(fake.lastInput.Key); got != "security-report-test-report-1.json" {
		t.Errorf("key = %q, want no leading prefix", got)
	}
}
