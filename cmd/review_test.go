package cmd

import (
	"errors"
	"testing"

	"github.com/wardensec/warden/internal/review"
)

func TestReviewVerdict(t *testing.T) {
	t.Parallel()

	finding := review.Finding{Type: "permission", Title: "World-writable file"}
	vuln := review.Vulnerability{
		Finding:  review.Finding{Type: "api-key", Title: "AWS access key ID in source"},
		Severity: review.SeverityCritical,
	}

	tests := []struct {
		name    string
		report  *review.Report
		relaxed bool
		wantErr bool
	}{
		{name: "clean report", report: &review.Report{}, wantErr: false},
		{
			name:    "vulnerabilities always fail",
			report:  &review.Report{Vulnerabilities: []review.Vulnerability{vuln}},
			relaxed: true,
			wantErr: true,
		},
		{
			name:    "findings fail by default",
			report:  &review.Report{Findings: []review.Finding{finding}},
			wantErr: true,
		},
		{
			name:    "findings pass when relaxed",
			report:  &review.Report{Findings: []review.Finding{finding}},
			relaxed: true,
			wantErr: false,
		},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()

			err := reviewVerdict(tt.report, tt.relaxed)
			if (err != nil) != tt.wantErr {
				t.Fatalf("reviewVerdict() error = %v, wantErr %v", err, tt.wantErr)
			}
			if err != nil && !errors.Is(err, errReviewFailed) {
				t.Errorf("error should wrap errReviewFailed, got %v", err)
			}
		})
	}
}
