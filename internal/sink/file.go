// Package sink provides ReportSink implementations: local JSON files and S3.
package sink

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/gofrs/flock"

	"github.com/wardensec/warden/internal/log"
	"github.com/wardensec/warden/internal/review"
)

const lockRetryInterval = 50 * time.Millisecond

// FileSink persists reports as JSON files in a directory. Writes are guarded
// by an advisory file lock so concurrent warden processes sharing an output
// directory cannot interleave, and go through a temp-file rename so readers
// never observe a partial report.
type FileSink struct {
	dir    string
	logger log.Logger
}

// NewFileSink creates the sink, creating dir if needed (0750).
func NewFileSink(dir string, logger log.Logger) (*FileSink, error) {
	if dir == "" {
		return nil, fmt.Errorf("file sink: directory is required")
	}
	if err := os.MkdirAll(dir, 0o750); err != nil {
		return nil, fmt.Errorf("creating report directory: %w", err)
	}
	if logger == nil {
		logger = log.NewNop()
	}
	return &FileSink{dir: dir, logger: logger}, nil
}

// Store writes the report and returns its path.
func (s *FileSink) Store(ctx context.Context, report *review.Report) (string, error) {
	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("encoding report: %w", err)
	}

	lock := flock.New(filepath.Join(s.dir, ".warden.lock"))
	locked, err := lock.TryLockContext(ctx, lockRetryInterval)
	if err != nil {
		return "", fmt.Errorf("locking report directory: %w", err)
	}
	if !locked {
		return "", fmt.Errorf("locking report directory: lock not acquired")
	}
	defer func() {
		if err := lock.Unlock(); err != nil {
			s.logger.Warn("releasing report directory lock", "error", err)
		}
	}()

	path := filepath.Join(s.dir, fmt.Sprintf("security-report-%s.json", report.ID))
	tmp := path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return "", fmt.Errorf("writing report: %w", err)
	}
	if err := os.Rename(tmp, path); err != nil {
		// Best effort: don't leave the temp file behind.
		_ = os.Remove(tmp)
		return "", fmt.Errorf("finalizing report: %w", err)
	}

	s.logger.Debug("report stored", "path", path, "bytes", len(data))
	return path, nil
}
