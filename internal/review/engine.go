// Package review runs named security validators against a target system and
// aggregates their findings into a scored report with prioritized
// recommendations.
//
// Validators fan out concurrently with no ordering guarantee and no shared
// mutable state; each one is isolated so a panic, error, or timeout
// contributes nothing instead of aborting the run. All per-run accumulation
// is local to Run, so concurrent reviews on one Engine are safe by
// construction.
package review

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/wardensec/warden/internal/log"
)

// Sink persists a finished report and returns the storage location.
// Implementations live outside this package (file, S3).
type Sink interface {
	Store(ctx context.Context, report *Report) (string, error)
}

// EngineConfig configures an Engine.
type EngineConfig struct {
	// Registry holds the validators to run. A nil registry gets a fresh
	// empty one.
	Registry *Registry

	// Timeout bounds each validator's Check call. Zero disables the
	// deadline. A timed-out validator counts as failed.
	Timeout time.Duration

	// Sink, when set, receives every finished report. Store failures are
	// logged, never fatal to the run.
	Sink Sink

	// Framework identifies the reviewed system in report headers.
	Framework Framework

	Logger log.Logger
}

// Engine runs registered validators and assembles reports.
type Engine struct {
	registry  *Registry
	timeout   time.Duration
	sink      Sink
	framework Framework
	logger    log.Logger
}

// NewEngine creates an Engine.
func NewEngine(cfg EngineConfig) *Engine {
	if cfg.Registry == nil {
		cfg.Registry = NewRegistry()
	}
	if cfg.Logger == nil {
		cfg.Logger = log.NewNop()
	}
	if cfg.Framework.Name == "" {
		cfg.Framework.Name = "warden"
	}
	return &Engine{
		registry:  cfg.Registry,
		timeout:   cfg.Timeout,
		sink:      cfg.Sink,
		framework: cfg.Framework,
		logger:    cfg.Logger,
	}
}

// Registry returns the engine's validator registry.
func (e *Engine) Registry() *Registry {
	return e.registry
}

// outcome is one validator's settled result.
type outcome struct {
	name   string
	result *Result
	err    error
}

// Run executes every registered validator concurrently against the target
// and returns a freshly built report. One validator's failure never aborts
// the others; a slow validator delays only the final aggregation.
func (e *Engine) Run(ctx context.Context, target *Target) (*Report, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("review canceled before start: %w", err)
	}
	if target == nil {
		target = &Target{}
	}

	validators := e.registry.snapshot()
	started := time.Now()

	outcomes := make(chan outcome, len(validators))
	var wg sync.WaitGroup
	for name, v := range validators {
		wg.Add(1)
		go func(name string, v Validator) {
			defer wg.Done()
			outcomes <- e.runOne(ctx, name, v, target)
		}(name, v)
	}
	wg.Wait()
	close(outcomes)

	// Join in name order so report contents are deterministic regardless of
	// completion order.
	settled := make(map[string]outcome, len(validators))
	names := make([]string, 0, len(validators))
	for o := range outcomes {
		settled[o.name] = o
		names = append(names, o.name)
	}
	sort.Strings(names)

	var findings []Finding
	var vulnerabilities []Vulnerability
	for _, name := range names {
		o := settled[name]
		if o.err != nil {
			e.logger.Warn("validator failed",
				"validator", o.name,
				"error", o.err,
			)
			continue
		}
		if o.result == nil {
			continue
		}
		for _, f := range o.result.Findings {
			findings = append(findings, normalizeFinding(f, o.name))
		}
		for _, v := range o.result.Vulnerabilities {
			v.Finding = normalizeFinding(v.Finding, o.name)
			vulnerabilities = append(vulnerabilities, v)
		}
	}

	report := &Report{
		ID:              uuid.NewString(),
		Timestamp:       time.Now().UTC(),
		Framework:       e.framework,
		Findings:        findings,
		Vulnerabilities: vulnerabilities,
		Recommendations: buildRecommendations(findings, vulnerabilities),
	}
	report.Summary = Summary{
		SecurityScore:        Score(findings, vulnerabilities),
		FindingsCount:        len(findings),
		VulnerabilitiesCount: len(vulnerabilities),
		PassedValidators:     len(validators) - contributingValidators(findings, vulnerabilities),
		TotalValidators:      len(validators),
	}

	e.logger.Info("review completed",
		"score", report.Summary.SecurityScore,
		"findings", report.Summary.FindingsCount,
		"vulnerabilities", report.Summary.VulnerabilitiesCount,
		"validators", report.Summary.TotalValidators,
		"duration", time.Since(started),
	)

	if e.sink != nil {
		path, err := e.sink.Store(ctx, report)
		if err != nil {
			e.logger.Warn("storing report", "error", err, "report_id", report.ID)
		} else {
			report.ReportPath = path
		}
	}

	return report, nil
}

// runOne executes a single validator with panic isolation and the
// per-validator deadline.
func (e *Engine) runOne(ctx context.Context, name string, v Validator, target *Target) (out outcome) {
	out = outcome{name: name}

	defer func() {
		if rec := recover(); rec != nil {
			out.result = nil
			out.err = fmt.Errorf("validator panic: %v", rec)
		}
	}()

	if e.timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.timeout)
		defer cancel()
	}

	type checked struct {
		result *Result
		err    error
	}
	done := make(chan checked, 1)
	go func() {
		defer func() {
			if rec := recover(); rec != nil {
				done <- checked{err: fmt.Errorf("validator panic: %v", rec)}
			}
		}()
		res, err := v.Check(ctx, target)
		done <- checked{result: res, err: err}
	}()

	select {
	case c := <-done:
		out.result = c.result
		out.err = c.err
	case <-ctx.Done():
		// Timeout or cancellation counts as validator failure. The check
		// goroutine is left to observe ctx and return on its own.
		out.err = fmt.Errorf("validator did not settle: %w", ctx.Err())
	}
	return out
}

// normalizeFinding fills generated fields the validator left empty.
func normalizeFinding(f Finding, validatorName string) Finding {
	if f.ID == "" {
		f.ID = uuid.NewString()
	}
	if f.ValidatorName == "" {
		f.ValidatorName = validatorName
	}
	if f.Timestamp.IsZero() {
		f.Timestamp = time.Now().UTC()
	}
	return f
}

// contributingValidators counts distinct validator names appearing in any
// finding or vulnerability.
func contributingValidators(findings []Finding, vulnerabilities []Vulnerability) int {
	seen := make(map[string]struct{})
	for _, f := range findings {
		seen[f.ValidatorName] = struct{}{}
	}
	for _, v := range vulnerabilities {
		seen[v.ValidatorName] = struct{}{}
	}
	return len(seen)
}
