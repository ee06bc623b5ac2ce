package review

import (
	"fmt"
	"math"
	"sort"
)

// findingPenalty is the score cost of one plain finding.
const findingPenalty = 0.5

// Score computes the 0-100 security score: start at 100, subtract each
// vulnerability's severity weight and half a point per finding, round to the
// nearest integer, clamp to [0, 100].
func Score(findings []Finding, vulnerabilities []Vulnerability) int {
	score := 100.0
	for _, v := range vulnerabilities {
		score -= v.Severity.Weight()
	}
	score -= findingPenalty * float64(len(findings))

	rounded := int(math.Round(score))
	if rounded < 0 {
		return 0
	}
	if rounded > 100 {
		return 100
	}
	return rounded
}

// catalogEntry is a canned remediation text for one finding type.
type catalogEntry struct {
	title       string
	description string
}

// recommendationCatalog maps finding types to canned remediation guidance.
// Types outside the catalog get the generic "Address {type} Issues" entry.
var recommendationCatalog = map[string]catalogEntry{
	"api-key": {
		title:       "Secure API Key Management",
		description: "Move API keys and other secrets out of source code into environment variables or a dedicated secrets manager, and rotate any key that was committed.",
	},
	"dependency": {
		title:       "Update Vulnerable Dependencies",
		description: "Pin dependency versions with a lockfile and upgrade packages with known vulnerabilities.",
	},
	"config": {
		title:       "Harden Configuration",
		description: "Disable debug settings and insecure transport options in configuration files before deploying.",
	},
	"permission": {
		title:       "Restrict File Permissions",
		description: "Remove world-writable bits and apply least-privilege permissions to files and directories.",
	},
	"communication": {
		title:       "Encrypt Communications",
		description: "Use TLS for all network communication and reject plaintext fallbacks.",
	},
	"validation": {
		title:       "Strengthen Input Validation",
		description: "Validate and sanitize all externally supplied input before it reaches business logic.",
	},
	"authentication": {
		title:       "Strengthen Authentication",
		description: "Enforce strong credential storage, rate-limited login attempts, and multi-factor authentication where available.",
	},
	"logging": {
		title:       "Improve Security Logging",
		description: "Log security-relevant events without recording secrets, and ship logs to tamper-resistant storage.",
	},
}

// buildRecommendations derives the report's recommendation list: one entry
// per finding type (canned text keyed by type), plus one entry per critical
// or high severity vulnerability. Output order is deterministic: typed
// recommendations sorted by type, then severity entries in vulnerability
// order.
func buildRecommendations(findings []Finding, vulnerabilities []Vulnerability) []Recommendation {
	byType := make(map[string]int)
	for _, f := range findings {
		byType[f.Type]++
	}

	types := make([]string, 0, len(byType))
	for t := range byType {
		types = append(types, t)
	}
	sort.Strings(types)

	recs := make([]Recommendation, 0, len(types))
	for _, t := range types {
		entry, ok := recommendationCatalog[t]
		if !ok {
			entry = catalogEntry{
				title:       fmt.Sprintf("Address %s Issues", t),
				description: fmt.Sprintf("Review and resolve the reported %s findings.", t),
			}
		}
		recs = append(recs, Recommendation{
			Type:          t,
			FindingsCount: byType[t],
			Title:         entry.title,
			Description:   entry.description,
		})
	}

	for _, v := range vulnerabilities {
		if v.Severity != SeverityCritical && v.Severity != SeverityHigh {
			continue
		}
		description := v.Recommendation
		if description == "" {
			description = v.Description
		}
		recs = append(recs, Recommendation{
			Type:        v.Type,
			Severity:    v.Severity,
			Title:       fmt.Sprintf("Fix %s severity issue: %s", v.Severity, v.Title),
			Description: description,
		})
	}

	return recs
}
