package cmd

import (
	"errors"
	"fmt"
	"strconv"

	"github.com/pterm/pterm"
	"github.com/spf13/cobra"

	"github.com/wardensec/warden/internal/checks"
	"github.com/wardensec/warden/internal/config"
	"github.com/wardensec/warden/internal/review"
	"github.com/wardensec/warden/internal/sink"
)

// errReviewFailed signals a non-clean review; main prints it and exits 1.
var errReviewFailed = errors.New("security review failed")

var (
	reviewDir     string
	reviewFiles   []string
	reviewExclude []string
	reviewOutput  string
	reviewAutofix bool
	reviewRelaxed bool
)

var reviewCmd = &cobra.Command{
	Use:   "review",
	Short: "Run the security review against a directory or file set",
	Long: `Review runs every registered validator against the target and writes a
JSON report to the output directory (and to S3 when a bucket is configured).

The command exits non-zero when vulnerabilities are found, or when findings
are present without --relaxed.`,
	RunE: runReview,
}

func init() {
	reviewCmd.Flags().StringVarP(&reviewDir, "dir", "d", ".", "Directory to review")
	reviewCmd.Flags().StringSliceVarP(&reviewFiles, "files", "f", nil, "Explicit files to review instead of walking --dir")
	reviewCmd.Flags().StringSliceVarP(&reviewExclude, "exclude", "e", nil, "Path substrings or base-name globs to skip")
	reviewCmd.Flags().StringVarP(&reviewOutput, "output", "o", "", "Report output directory (default from config)")
	reviewCmd.Flags().BoolVar(&reviewAutofix, "autofix", false, "Fix world-writable permissions after the review")
	reviewCmd.Flags().BoolVar(&reviewRelaxed, "relaxed", false, "Exit zero on findings (vulnerabilities still fail)")
	rootCmd.AddCommand(reviewCmd)
}

func runReview(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	cfg, err := config.Load()
	if err != nil {
		return fmt.Errorf("loading config: %w", err)
	}
	if reviewOutput != "" {
		cfg.Review.OutputDir = reviewOutput
	}
	if err := cfg.Validate(); err != nil {
		return fmt.Errorf("validating config: %w", err)
	}

	logger := newLogger(cfg)

	registry := review.NewRegistry()
	checks.RegisterDefaults(registry)

	fileSink, err := sink.NewFileSink(cfg.Review.OutputDir, logger)
	if err != nil {
		return fmt.Errorf("creating report sink: %w", err)
	}
	var reportSink review.Sink = fileSink
	if cfg.Review.S3Bucket != "" {
		s3Sink, err := sink.NewS3Sink(ctx, cfg.Review.S3Bucket, cfg.Review.S3Prefix, logger)
		if err != nil {
			return fmt.Errorf("creating S3 sink: %w", err)
		}
		reportSink = sink.NewMulti(fileSink, s3Sink)
	}

	engine := review.NewEngine(review.EngineConfig{
		Registry:  registry,
		Timeout:   cfg.Review.ValidatorTimeout,
		Sink:      reportSink,
		Framework: review.Framework{Name: "warden", Version: AppVersion},
		Logger:    logger,
	})

	target := &review.Target{
		Dir:     reviewDir,
		Files:   reviewFiles,
		Exclude: reviewExclude,
	}

	spinner, _ := pterm.DefaultSpinner.Start("Reviewing " + targetLabel(target))
	report, err := engine.Run(ctx, target)
	if err != nil {
		spinner.Fail("Review aborted")
		return fmt.Errorf("running review: %w", err)
	}
	spinner.Success(fmt.Sprintf("Reviewed with %d validators", report.Summary.TotalValidators))

	if reviewAutofix {
		fixed, fixErr := (&checks.Permissions{}).Fix(&review.Result{
			Findings:        report.Findings,
			Vulnerabilities: report.Vulnerabilities,
		})
		for _, path := range fixed {
			pterm.Info.Println("Fixed permissions: " + path)
		}
		if fixErr != nil {
			return fmt.Errorf("applying fixes: %w", fixErr)
		}
	}

	printReport(report)

	return reviewVerdict(report, reviewRelaxed)
}

func targetLabel(target *review.Target) string {
	if len(target.Files) > 0 {
		return fmt.Sprintf("%d files", len(target.Files))
	}
	return target.Dir
}

// reviewVerdict decides the command's exit status from the report.
func reviewVerdict(report *review.Report, relaxed bool) error {
	switch {
	case len(report.Vulnerabilities) > 0:
		return fmt.Errorf("%w: %d vulnerabilities", errReviewFailed, len(report.Vulnerabilities))
	case len(report.Findings) > 0 && !relaxed:
		return fmt.Errorf("%w: %d findings (use --relaxed to allow)", errReviewFailed, len(report.Findings))
	default:
		return nil
	}
}

func printReport(report *review.Report) {
	score := report.Summary.SecurityScore
	scoreText := strconv.Itoa(score) + "/100"
	switch {
	case score >= 90:
		pterm.Success.Println("Security score: " + scoreText)
	case score >= 70:
		pterm.Warning.Println("Security score: " + scoreText)
	default:
		pterm.Error.Println("Security score: " + scoreText)
	}
	pterm.Printf("Validators: %d/%d passed, findings: %d, vulnerabilities: %d\n\n",
		report.Summary.PassedValidators,
		report.Summary.TotalValidators,
		report.Summary.FindingsCount,
		report.Summary.VulnerabilitiesCount,
	)

	if len(report.Vulnerabilities) > 0 {
		data := [][]string{{"Severity", "Validator", "Title", "Location"}}
		for _, v := range report.Vulnerabilities {
			data = append(data, []string{
				severityLabel(v.Severity),
				pterm.FgCyan.Sprint(v.ValidatorName),
				v.Title,
				v.Location,
			})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		pterm.Println()
	}

	if len(report.Findings) > 0 {
		data := [][]string{{"Validator", "Title", "Location"}}
		for _, f := range report.Findings {
			data = append(data, []string{pterm.FgCyan.Sprint(f.ValidatorName), f.Title, f.Location})
		}
		_ = pterm.DefaultTable.WithHasHeader().WithData(data).Render()
		pterm.Println()
	}

	for _, rec := range report.Recommendations {
		pterm.Info.Printf("%s: %s\n", rec.Title, rec.Description)
	}

	if report.ReportPath != "" {
		pterm.Printf("\nReport written to %s\n", report.ReportPath)
	}
}

func severityLabel(s review.Severity) string {
	switch s {
	case review.SeverityCritical, review.SeverityHigh:
		return pterm.FgRed.Sprint(s)
	case review.SeverityMedium:
		return pterm.FgYellow.Sprint(s)
	default:
		return pterm.FgBlue.Sprint(s)
	}
}
