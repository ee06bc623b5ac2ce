package review

import "time"

// Severity ranks a vulnerability. Unknown values still score (weight 1) so a
// misbehaving validator cannot zero out its own impact.
type Severity string

// Severity levels, highest first.
const (
	SeverityCritical Severity = "critical"
	SeverityHigh     Severity = "high"
	SeverityMedium   Severity = "medium"
	SeverityLow      Severity = "low"
)

// Weight is the score penalty for one vulnerability of this severity.
func (s Severity) Weight() float64 {
	switch s {
	case SeverityCritical:
		return 20
	case SeverityHigh:
		return 10
	case SeverityMedium:
		return 5
	case SeverityLow:
		return 2
	default:
		return 1
	}
}

// Finding is a non-blocking security observation. Immutable once created;
// the engine fills ID, ValidatorName and Timestamp when a validator leaves
// them empty.
type Finding struct {
	ID            string    `json:"id"`
	ValidatorName string    `json:"validatorName"`
	Type          string    `json:"type"`
	Title         string    `json:"title"`
	Description   string    `json:"description"`
	Location      string    `json:"location,omitempty"`
	Timestamp     time.Time `json:"timestamp"`
}

// Vulnerability is a severity-ranked finding with an optional remediation.
type Vulnerability struct {
	Finding
	Severity       Severity `json:"severity"`
	Recommendation string   `json:"recommendation,omitempty"`
}

// Recommendation is a derived remediation entry. Never persisted outside a
// Report.
type Recommendation struct {
	Type          string   `json:"type"`
	FindingsCount int      `json:"findingsCount,omitempty"`
	Severity      Severity `json:"severity,omitempty"`
	Title         string   `json:"title"`
	Description   string   `json:"description"`
}

// Summary aggregates one run's counts and score.
type Summary struct {
	SecurityScore        int `json:"securityScore"`
	FindingsCount        int `json:"findingsCount"`
	VulnerabilitiesCount int `json:"vulnerabilitiesCount"`
	PassedValidators     int `json:"passedValidators"`
	TotalValidators      int `json:"totalValidators"`
}

// Framework identifies the reviewed system in the report header.
type Framework struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Report is the top-level aggregate of one review run. Its findings and
// vulnerabilities are exactly the union of that run's validator outputs;
// the engine accumulates locally per run, so reports never carry state over
// from a previous invocation. A Report is an immutable value once returned.
type Report struct {
	ID              string           `json:"id"`
	Timestamp       time.Time        `json:"timestamp"`
	Framework       Framework        `json:"framework"`
	Summary         Summary          `json:"summary"`
	Findings        []Finding        `json:"findings"`
	Vulnerabilities []Vulnerability  `json:"vulnerabilities"`
	Recommendations []Recommendation `json:"recommendations"`
	ReportPath      string           `json:"reportPath,omitempty"`
}

// Result is one validator's contribution to a run.
type Result struct {
	Findings        []Finding
	Vulnerabilities []Vulnerability
}

// Target is the read-only context handed to every validator. Validators must
// not mutate it; the engine shares one instance across the whole fan-out.
type Target struct {
	// Dir is the root directory under review.
	Dir string

	// Files restricts the review to an explicit list instead of walking Dir.
	Files []string

	// Exclude lists path substrings or base-name globs to skip.
	Exclude []string
}
