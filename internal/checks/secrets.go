package checks

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wardensec/warden/internal/review"
)

// secretPattern pairs a detection regex with its report metadata.
type secretPattern struct {
	title    string
	re       *regexp.Regexp
	severity review.Severity
}

var secretPatterns = []secretPattern{
	{
		title:    "AWS access key ID in source",
		re:       regexp.MustCompile(`\bAKIA[0-9A-Z]{16}\b`),
		severity: review.SeverityCritical,
	},
	{
		title:    "Private key material in source",
		re:       regexp.MustCompile(`-----BEGIN (RSA |EC |OPENSSH |PGP )?PRIVATE KEY( BLOCK)?-----`),
		severity: review.SeverityCritical,
	},
	{
		title:    "Hardcoded credential assignment",
		re:       regexp.MustCompile(`(?i)(api[_-]?key|secret|auth[_-]?token|password)\s*[:=]\s*["'][A-Za-z0-9+/_\-]{16,}["']`),
		severity: review.SeverityHigh,
	},
}

// Secrets scans target files for credentials committed to source.
type Secrets struct{}

// Check implements review.Validator.
func (*Secrets) Check(ctx context.Context, target *review.Target) (*review.Result, error) {
	files, err := targetFiles(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &review.Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		data := readScannable(path)
		if data == nil {
			continue
		}

		for lineNo, line := range strings.Split(string(data), "\n") {
			for _, p := range secretPatterns {
				if !p.re.MatchString(line) {
					continue
				}
				result.Vulnerabilities = append(result.Vulnerabilities, review.Vulnerability{
					Finding: review.Finding{
						Type:        "api-key",
						Title:       p.title,
						Description: fmt.Sprintf("%s detected in %s", p.title, path),
						Location:    fmt.Sprintf("%s:%d", path, lineNo+1),
					},
					Severity:       p.severity,
					Recommendation: "Remove the credential from source, rotate it, and load it from the environment or a secrets manager.",
				})
			}
		}
	}

	return result, nil
}
