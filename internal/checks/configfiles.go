package checks

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/wardensec/warden/internal/review"
)

// insecureSettings maps configuration keys to the value that makes them a
// finding. Keys are matched case-insensitively at any nesting depth.
var insecureSettings = map[string]bool{
	"debug":                true,
	"insecure":             true,
	"insecure_skip_verify": true,
	"allow_http":           true,
	"verify_ssl":           false,
	"verify_tls":           false,
	"tls":                  false,
	"ssl":                  false,
}

// ConfigFiles parses YAML configuration in the target and flags settings
// that weaken security in production: debug modes, disabled TLS
// verification, plaintext transport.
type ConfigFiles struct{}

// Check implements review.Validator.
func (*ConfigFiles) Check(ctx context.Context, target *review.Target) (*review.Result, error) {
	files, err := targetFiles(ctx, target)
	if err != nil {
		return nil, err
	}

	result := &review.Result{}
	for _, path := range files {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		ext := filepath.Ext(path)
		if ext != ".yml" && ext != ".yaml" {
			continue
		}

		data := readScannable(path)
		if data == nil {
			continue
		}

		var doc map[string]any
		if err := yaml.Unmarshal(data, &doc); err != nil {
			// Not a config document we can reason about.
			continue
		}

		for _, hit := range scanSettings(doc, "") {
			result.Findings = append(result.Findings, review.Finding{
				Type:        "config",
				Title:       "Insecure configuration setting",
				Description: fmt.Sprintf("%s sets %s", path, hit),
				Location:    path,
			})
		}
	}

	return result, nil
}

// scanSettings walks the parsed document and returns "key=value" strings for
// every insecure setting found.
func scanSettings(doc map[string]any, prefix string) []string {
	var hits []string
	for key, value := range doc {
		full := key
		if prefix != "" {
			full = prefix + "." + key
		}

		switch v := value.(type) {
		case bool:
			if bad, known := insecureSettings[strings.ToLower(key)]; known && v == bad {
				hits = append(hits, fmt.Sprintf("%s=%t", full, v))
			}
		case map[string]any:
			hits = append(hits, scanSettings(v, full)...)
		}
	}
	return hits
}
