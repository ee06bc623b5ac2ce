package checks

import (
	"context"
	"fmt"
	"os"

	"github.com/wardensec/warden/internal/review"
)

// Permissions flags world-writable files. A world-writable executable is
// escalated to a vulnerability: anyone on the host can replace code that
// will be run.
type Permissions struct{}

// Check implements review.Validator.
func (*Permissions) Check(ctx context.Context, target *review.Target) (*review.Result, error) {
	files, err := targetFiles(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &review.Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		mode := info.Mode().Perm()
		if mode&0o002 == 0 {
			continue
		}

		if mode&0o111 != 0 {
			result.Vulnerabilities = append(result.Vulnerabilities, review.Vulnerability{
				Finding: review.Finding{
					Type:        "permission",
					Title:       "World-writable executable",
					Description: fmt.Sprintf("%s is executable and writable by any user (%04o)", path, mode),
					Location:    path,
				},
				Severity:       review.SeverityMedium,
				Recommendation: "Remove the world-writable bit: chmod o-w " + path,
			})
			continue
		}

		result.Findings = append(result.Findings, review.Finding{
			Type:        "permission",
			Title:       "World-writable file",
			Description: fmt.Sprintf("%s is writable by any user (%04o)", path, mode),
			Location:    path,
		})
	}

	return result, nil
}

// Fix removes the world-writable bit from every flagged file in the result.
// Returns the paths it changed. Used by the CLI's --autofix flag.
func (*Permissions) Fix(result *review.Result) ([]string, error) {
	var paths []string
	for _, f := range result.Findings {
		if f.Type == "permission" && f.Location != "" {
			paths = append(paths, f.Location)
		}
	}
	for _, v := range result.Vulnerabilities {
		if v.Type == "permission" && v.Location != "" {
			paths = append(paths, v.Location)
		}
	}

	var fixed []string
	for _, path := range paths {
		info, err := os.Stat(path)
		if err != nil {
			continue
		}
		mode := info.Mode().Perm()
		if err := os.Chmod(path, mode&^0o002); err != nil {
			return fixed, fmt.Errorf("fixing %s: %w", path, err)
		}
		fixed = append(fixed, path)
	}
	return fixed, nil
}
