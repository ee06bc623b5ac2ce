// Package checks ships warden's built-in validators: filesystem checks for
// embedded secrets, loose permissions, insecure configuration, and unpinned
// dependencies. They are ordinary review.Validator implementations; a
// deployment can replace or extend them through the registry.
package checks

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/wardensec/warden/internal/review"
)

// Validator names used at registration. Later registrations under the same
// name replace these defaults.
const (
	NameSecrets      = "secrets"
	NamePermissions  = "permissions"
	NameConfigFiles  = "config-files"
	NameDependencies = "dependencies"
)

// maxScanSize caps per-file reads; anything larger is skipped as likely
// binary or generated.
const maxScanSize = 1 << 20

// skipDirs are never descended into.
var skipDirs = []string{".git", "node_modules", "vendor", ".idea", "dist"}

// RegisterDefaults registers the built-in validator set.
func RegisterDefaults(reg *review.Registry) {
	reg.Register(NameSecrets, &Secrets{})
	reg.Register(NamePermissions, &Permissions{})
	reg.Register(NameConfigFiles, &ConfigFiles{})
	reg.Register(NameDependencies, &Dependencies{})
}

// targetFiles resolves the target to a concrete file list: the explicit
// Files when given, otherwise a walk of Dir. Excluded paths are dropped in
// both modes.
func targetFiles(ctx context.Context, target *review.Target) ([]string, error) {
	if len(target.Files) > 0 {
		files := make([]string, 0, len(target.Files))
		for _, f := range target.Files {
			if !isExcluded(target, f) {
				files = append(files, f)
			}
		}
		return files, nil
	}

	root := target.Dir
	if root == "" {
		root = "."
	}

	var files []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			// Unreadable entries are skipped, not fatal.
			return nil //nolint:nilerr
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if slices.Contains(skipDirs, d.Name()) {
				return filepath.SkipDir
			}
			return nil
		}
		if isExcluded(target, path) {
			return nil
		}
		files = append(files, path)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walking %s: %w", root, err)
	}
	return files, nil
}

// isExcluded matches exclude entries as path substrings or as globs against
// the base name.
func isExcluded(target *review.Target, path string) bool {
	base := filepath.Base(path)
	for _, pattern := range target.Exclude {
		if pattern == "" {
			continue
		}
		if strings.Contains(path, pattern) {
			return true
		}
		if ok, err := filepath.Match(pattern, base); err == nil && ok {
			return true
		}
	}
	return false
}

// readScannable returns the file contents, or nil for files that should not
// be scanned (too large, unreadable).
func readScannable(path string) []byte {
	info, err := os.Stat(path)
	if err != nil || info.Size() > maxScanSize {
		return nil
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil
	}
	return data
}
