/*
This file implements the reporting functionality for grading runs. It:

- Renders the weighted grade and per-criterion feedback
- Supports multiple output formats (terminal summary, JSON, AsciiDoc)
- Organizes check outcomes by category
- Handles report file creation and formatting options
*/

package grading

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
	"github.com/fatih/color"
)

// ReportConfig defines the configuration for report generation
type ReportConfig struct {
	// Format is the report format to generate
	Format types.ReportFormat

	// OutputDir is where file-based reports will be saved
	OutputDir string

	// Filename is the name of the report file
	Filename string

	// IncludeTimestamp adds a timestamp to the filename
	IncludeTimestamp bool

	// IncludeDetailedResults includes per-check detail in the report
	IncludeDetailedResults bool

	// Title is the title of the report
	Title string
}

// Reporter generates reports for grading runs
type Reporter struct {
	config    ReportConfig
	runner    *Runner
	scorecard *Scorecard
}

// NewReporter creates a new reporter
func NewReporter(config ReportConfig, runner *Runner, scorecard *Scorecard) *Reporter {
	return &Reporter{
		config:    config,
		runner:    runner,
		scorecard: scorecard,
	}
}

// Generate produces the report. Terminal summaries are printed directly and
// return an empty path; JSON and AsciiDoc reports are written under the
// configured output directory and return the file path.
func (r *Reporter) Generate() (string, error) {
	switch r.config.Format {
	case types.FormatSummary:
		r.printSummary()
		return "", nil

	case types.FormatJSON:
		content, err := r.generateJSON()
		if err != nil {
			return "", err
		}
		return r.writeReport(content, "json")

	case types.FormatAsciiDoc:
		return r.writeReport(r.generateAsciiDoc(), "adoc")

	default:
		return "", fmt.Errorf("unsupported report format: %s", r.config.Format)
	}
}

// writeReport writes content to the output directory with the given extension
func (r *Reporter) writeReport(content, extension string) (string, error) {
	if err := os.MkdirAll(r.config.OutputDir, 0755); err != nil {
		return "", fmt.Errorf("failed to create output directory: %w", err)
	}

	filename := r.config.Filename
	if filename == "" {
		filename = "failover-grading-report"
	}
	if r.config.IncludeTimestamp {
		filename = fmt.Sprintf("%s-%s", filename, time.Now().Format("20060102-150405"))
	}

	path := filepath.Join(r.config.OutputDir, fmt.Sprintf("%s.%s", filename, extension))
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		return "", fmt.Errorf("failed to write report: %w", err)
	}

	return path, nil
}

// sortedResults returns the runner outcomes ordered by check ID
func (r *Reporter) sortedResults() []Result {
	results := r.runner.GetResults()
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	out := make([]Result, 0, len(ids))
	for _, id := range ids {
		out = append(out, results[id])
	}
	return out
}

// printSummary prints a colorized grading summary to the terminal
func (r *Reporter) printSummary() {
	score, err := r.scorecard.Score()

	fmt.Println()
	fmt.Println(strings.Repeat("=", 60))
	if err != nil {
		color.Red("SCORE: unavailable (%v)", err)
	} else if score >= 1.0 {
		color.Green("SCORE: %.3f", score)
	} else if score > 0 {
		color.Yellow("SCORE: %.3f", score)
	} else {
		color.Red("SCORE: %.3f", score)
	}
	fmt.Println(strings.Repeat("=", 60))

	fmt.Println("\nSubscores:")
	subscores := r.scorecard.Subscores()
	weights := r.scorecard.Weights()
	for _, criterion := range r.scorecard.Criteria() {
		weightPct := int(weights[criterion]*100 + 0.5)
		if subscores[criterion] >= 1.0 {
			color.Green("  [PASS] %s: %.1f (weight: %d%%)", criterion, subscores[criterion], weightPct)
		} else {
			color.Red("  [FAIL] %s: %.1f (weight: %d%%)", criterion, subscores[criterion], weightPct)
		}
	}

	fmt.Println("\nChecks:")
	for _, result := range r.sortedResults() {
		line := fmt.Sprintf("  [%s] %s: %s", result.Status, result.CheckID, result.Message)
		switch result.Status {
		case types.StatusPassed:
			color.Green("%s", line)
		case types.StatusSkipped:
			color.HiCyan("%s", line)
		default:
			color.Red("%s", line)
		}

		if r.config.IncludeDetailedResults {
			for _, rec := range result.Recommendations {
				fmt.Printf("      - %s\n", rec)
			}
		}
	}
	fmt.Println()
}

// jsonReport is the serialized form of a grading run
type jsonReport struct {
	Title       string               `json:"title"`
	GeneratedAt string               `json:"generated_at"`
	Result      types.GradingResult  `json:"result"`
	Checks      []types.Result       `json:"checks,omitempty"`
	Counts      map[types.Status]int `json:"counts"`
}

// generateJSON renders the grading run as JSON
func (r *Reporter) generateJSON() (string, error) {
	gradingResult, err := r.scorecard.GradingResult()
	if err != nil {
		return "", fmt.Errorf("failed to assemble grading result: %w", err)
	}

	report := jsonReport{
		Title:       r.config.Title,
		GeneratedAt: time.Now().Format(time.RFC3339),
		Result:      gradingResult,
		Counts:      r.runner.CountByStatus(),
	}

	if r.config.IncludeDetailedResults {
		for _, result := range r.sortedResults() {
			report.Checks = append(report.Checks, result.ToTypesResult())
		}
	}

	data, err := json.MarshalIndent(report, "", "  ")
	if err != nil {
		return "", fmt.Errorf("failed to marshal report: %w", err)
	}

	return string(data), nil
}

// generateAsciiDoc renders the grading run as an AsciiDoc document
func (r *Reporter) generateAsciiDoc() string {
	var b strings.Builder

	b.WriteString(fmt.Sprintf("= %s\n", r.config.Title))
	b.WriteString(fmt.Sprintf("Generated: %s\n\n", time.Now().Format(time.RFC1123)))

	score, err := r.scorecard.Score()
	if err != nil {
		b.WriteString(fmt.Sprintf("== Score\n\nunavailable (%v)\n\n", err))
	} else {
		b.WriteString(fmt.Sprintf("== Score\n\n%.3f\n\n", score))
	}

	b.WriteString("== Criteria\n\n")
	b.WriteString("[cols=\"3,1,1\", options=\"header\"]\n|===\n|Criterion|Subscore|Weight\n")
	subscores := r.scorecard.Subscores()
	weights := r.scorecard.Weights()
	for _, criterion := range r.scorecard.Criteria() {
		b.WriteString(fmt.Sprintf("|%s|%.1f|%d%%\n", criterion, subscores[criterion], int(weights[criterion]*100+0.5)))
	}
	b.WriteString("|===\n\n")

	b.WriteString("== Checks\n\n")
	for _, result := range r.sortedResults() {
		b.WriteString(fmt.Sprintf("=== %s\n\n", result.CheckID))
		b.WriteString(fmt.Sprintf("Status: %s\n\nMessage: %s\n\n", result.Status, result.Message))

		if r.config.IncludeDetailedResults && result.Detail != "" {
			b.WriteString("----\n")
			b.WriteString(result.Detail)
			if !strings.HasSuffix(result.Detail, "\n") {
				b.WriteString("\n")
			}
			b.WriteString("----\n\n")
		}

		if len(result.Recommendations) > 0 {
			b.WriteString("Recommendations:\n\n")
			for _, rec := range result.Recommendations {
				b.WriteString(fmt.Sprintf("* %s\n", rec))
			}
			b.WriteString("\n")
		}
	}

	return b.String()
}
