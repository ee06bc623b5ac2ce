package checks

import (
	"context"
	"os"
	"path/filepath"

	"github.com/wardensec/warden/internal/review"
)

// manifestLocks maps a dependency manifest to the lock files that pin it.
// A manifest with none of its locks present means builds float on whatever
// the registry serves that day.
var manifestLocks = map[string][]string{
	"go.mod":       {"go.sum"},
	"package.json": {"package-lock.json", "yarn.lock", "pnpm-lock.yaml"},
	"Gemfile":      {"Gemfile.lock"},
	"Cargo.toml":   {"Cargo.lock"},
}

// Dependencies flags dependency manifests whose lock file is missing.
type Dependencies struct{}

// Check implements review.Validator.
func (*Dependencies) Check(ctx context.Context, target *review.Target) (*review.Result, error) {
	files, err := targetFiles(ctx, target)
	if err != nil {
		return nil, err
	}

	present := make(map[string]bool, len(files))
	for _, path := range files {
		present[path] = true
	}

	result := &review.Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		locks, isManifest := manifestLocks[filepath.Base(path)]
		if !isManifest {
			continue
		}

		dir := filepath.Dir(path)
		pinned := false
		for _, lock := range locks {
			lockPath := filepath.Join(dir, lock)
			if present[lockPath] || fileExists(lockPath) {
				pinned = true
				break
			}
		}
		if pinned {
			continue
		}

		result.Findings = append(result.Findings, review.Finding{
			Type:        "dependency",
			Title:       "Unpinned dependencies",
			Description: path + " has no lock file; dependency versions are not reproducible",
			Location:    path,
		})
	}

	return result, nil
}

// fileExists covers locks excluded from the walk or outside an explicit
// Files list.
func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}
