package sink

import (
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/wardensec/warden/internal/log"
	"github.com/wardensec/warden/internal/review"
)

func sampleReport() *review.Report {
	return &review.Report{
		ID:        "test-report-1",
		Timestamp: time.Now().UTC(),
		Framework: review.Framework{Name: "warden", Version: "test"},
		Summary:   review.Summary{SecurityScore: 95},
		Findings: []review.Finding{
			{ID: "f1", ValidatorName: "secrets", Type: "api-key", Title: "key in source"},
		},
	}
}

func TestFileSink_StoreRoundTrip(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFileSink(dir, log.NewNop())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	path, err := s.Store(context.Background(), sampleReport())
	if err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	if !strings.HasSuffix(path, "security-report-test-report-1.json") {
		t.Errorf("path = %q, want report-id based filename", path)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("reading stored report: %v", err)
	}
	var got review.Report
	if err := json.Unmarshal(data, &got); err != nil {
		t.Fatalf("stored report is not valid JSON: %v", err)
	}
	if got.ID != "test-report-1" || got.Summary.SecurityScore != 95 {
		t.Errorf("round trip mismatch: got id=%q score=%d", got.ID, got.Summary.SecurityScore)
	}
}

func TestFileSink_CreatesDirectory(t *testing.T) {
	t.Parallel()

	dir := filepath.Join(t.TempDir(), "nested", "reports")
	if _, err := NewFileSink(dir, log.NewNop()); err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		t.Errorf("report directory was not created: %v", err)
	}
}

func TestFileSink_NoPartialFiles(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	s, err := NewFileSink(dir, log.NewNop())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}
	if _, err := s.Store(context.Background(), sampleReport()); err != nil {
		t.Fatalf("Store() error = %v", err)
	}

	entries, err := os.ReadDir(dir)
	if err != nil {
		t.Fatalf("reading dir: %v", err)
	}
	for _, e := range entries {
		if strings.HasSuffix(e.Name(), ".tmp") {
			t.Errorf("temp file left behind: %s", e.Name())
		}
	}
}

func TestFileSink_RequiresDir(t *testing.T) {
	t.Parallel()

	if _, err := NewFileSink("", log.NewNop()); err == nil {
		t.Error("NewFileSink(\"\") should fail")
	}
}

// failSink always fails; used to exercise Multi error joining.
type failSink struct{}

func (failSink) Store(context.Context, *review.Report) (string, error) {
	return "", errors.New("always fails")
}

func TestMulti_StoresToAllAndJoinsErrors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	fs, err := NewFileSink(dir, log.NewNop())
	if err != nil {
		t.Fatalf("NewFileSink() error = %v", err)
	}

	m := NewMulti(failSink{}, fs)
	path, err := m.Store(context.Background(), sampleReport())

	if err == nil {
		t.Error("Multi.Store() should surface the failing sink's error")
	}
	if path == "" {
		t.Error("Multi.Store() should still return the succeeding sink's path")
	}
	if _, statErr := os.Stat(path); statErr != nil {
		t.Errorf("succeeding sink did not write: %v", statErr)
	}
}
