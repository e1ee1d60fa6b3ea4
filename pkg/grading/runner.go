/*
This file implements the core runner for executing grading checks. It:

- Manages the execution of multiple grading checks
- Supports parallel or sequential execution modes
- Handles timeouts and error conditions
- Collects and organizes check outcomes
- Provides progress reporting during check execution

Per the grading contract, a check that errors out or times out is recorded
as a failing outcome for its criterion; it never aborts the run. The runner
always finishes with one result per registered check.
*/

package grading

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
	"github.com/schollz/progressbar/v3"
)

// Config defines the configuration for the runner
type Config struct {
	// CategoryFilter limits checks to specific categories
	CategoryFilter []types.Category

	// SkipCriteria excludes checks scoring the named criteria
	SkipCriteria []string

	// Timeout is the maximum time allowed for a single check
	Timeout time.Duration

	// Parallel indicates whether checks should run in parallel
	Parallel bool

	// SkipProgressBar indicates whether to skip the progress bar
	SkipProgressBar bool

	// VerboseOutput enables verbose output
	VerboseOutput bool
}

// Runner executes grading checks and collects outcomes
type Runner struct {
	checks      []Check
	config      Config
	results     map[string]Result
	progressBar *progressbar.ProgressBar
	mu          sync.Mutex
}

// NewRunner creates a new grading runner
func NewRunner(config Config) *Runner {
	return &Runner{
		checks:  []Check{},
		config:  config,
		results: make(map[string]Result),
	}
}

// AddCheck adds a grading check to the runner
func (r *Runner) AddCheck(check Check) {
	r.checks = append(r.checks, check)
}

// AddChecks adds multiple grading checks to the runner
func (r *Runner) AddChecks(checks []Check) {
	for _, check := range checks {
		r.AddCheck(check)
	}
}

// GetChecks returns all registered grading checks
func (r *Runner) GetChecks() []Check {
	return r.checks
}

// skipped reports whether the check's criterion is excluded from this run
func (r *Runner) skipped(check Check) bool {
	for _, criterion := range r.config.SkipCriteria {
		if check.Criterion() == criterion {
			return true
		}
	}
	return false
}

// Run executes all registered grading checks
func (r *Runner) Run() error {
	if len(r.checks) == 0 {
		return fmt.Errorf("no grading checks registered")
	}

	// Filter checks by category if specified
	var checksToRun []Check
	if len(r.config.CategoryFilter) > 0 {
		for _, check := range r.checks {
			for _, cat := range r.config.CategoryFilter {
				if check.Category() == cat {
					checksToRun = append(checksToRun, check)
					break
				}
			}
		}
	} else {
		checksToRun = r.checks
	}

	// Record explicitly skipped checks so the scorecard still sees their criteria
	var remaining []Check
	for _, check := range checksToRun {
		if r.skipped(check) {
			r.mu.Lock()
			r.results[check.ID()] = NewResult(check.ID(), check.Criterion(), types.StatusSkipped, "Check excluded from this run")
			r.mu.Unlock()
			continue
		}
		remaining = append(remaining, check)
	}
	checksToRun = remaining

	if len(checksToRun) == 0 {
		return fmt.Errorf("no grading checks match the specified categories")
	}

	// Initialize progress bar if enabled
	if !r.config.SkipProgressBar {
		fmt.Println("Failover Remediation Grading in Progress ...")

		r.progressBar = progressbar.NewOptions(len(checksToRun),
			progressbar.OptionEnableColorCodes(true),
			progressbar.OptionSetWidth(50),
			progressbar.OptionShowCount(),
			progressbar.OptionSetTheme(progressbar.Theme{
				Saucer:        "[green]=[reset]",
				SaucerPadding: " ",
				BarStart:      "|",
				BarEnd:        "|",
			}),
		)
	}

	// Run checks in parallel or sequentially based on configuration
	if r.config.Parallel {
		r.runParallel(checksToRun)
	} else {
		r.runSequential(checksToRun)
	}

	return nil
}

// checkContext returns the context bounding a single check run
func (r *Runner) checkContext() (context.Context, context.CancelFunc) {
	if r.config.Timeout > 0 {
		return context.WithTimeout(context.Background(), r.config.Timeout)
	}
	return context.Background(), func() {}
}

// runSequential runs grading checks sequentially
func (r *Runner) runSequential(checks []Check) {
	for _, check := range checks {
		// Run the check, releasing its context before the next iteration
		ctx, cancel := r.checkContext()
		result := r.runCheck(ctx, check)
		cancel()

		// Store the result
		r.mu.Lock()
		r.results[check.ID()] = result
		r.mu.Unlock()

		// Print verbose output if enabled but no progress bar is used
		if r.config.VerboseOutput && r.config.SkipProgressBar {
			fmt.Printf("[%s] %s: %s\n", result.Status, check.Name(), result.Message)
		}

		// Increment progress bar if enabled
		if !r.config.SkipProgressBar && r.progressBar != nil {
			_ = r.progressBar.Add(1)
		}
	}
}

// runParallel runs grading checks in parallel
func (r *Runner) runParallel(checks []Check) {
	var wg sync.WaitGroup
	wg.Add(len(checks))

	// To track completed checks
	completedChecks := sync.Map{}

	// Update display mutex
	var displayMutex sync.Mutex

	for _, check := range checks {
		go func(c Check) {
			defer wg.Done()

			ctx, cancel := r.checkContext()
			defer cancel()

			// Run the check
			result := r.runCheck(ctx, c)

			// Store the result
			r.mu.Lock()
			r.results[c.ID()] = result
			r.mu.Unlock()

			// Print verbose output if enabled but no progress bar is used
			if r.config.VerboseOutput && r.config.SkipProgressBar {
				fmt.Printf("[%s] %s: %s\n", result.Status, c.Name(), result.Message)
			}

			// Mark check as completed
			completedChecks.Store(c.ID(), true)

			// Increment progress bar if enabled
			if !r.config.SkipProgressBar && r.progressBar != nil {
				displayMutex.Lock()
				// Count completed checks for progress bar
				completed := 0
				completedChecks.Range(func(key, value interface{}) bool {
					completed++
					return true
				})

				_ = r.progressBar.Set(completed)
				displayMutex.Unlock()
			}
		}(check)
	}

	wg.Wait()
}

// runCheck executes a single grading check. A check error or timeout is
// folded into a failing result for the check's criterion.
func (r *Runner) runCheck(ctx context.Context, check Check) Result {
	// Track execution time
	startTime := time.Now()

	// Create a channel for the result
	resultCh := make(chan Result, 1)
	errCh := make(chan error, 1)

	// Run the check in a goroutine
	go func() {
		result, err := check.Run()
		if err != nil {
			errCh <- err
			return
		}
		resultCh <- result
	}()

	// Wait for the check to complete or timeout
	select {
	case result := <-resultCh:
		// Add execution time to the result
		result = result.WithExecutionTime(time.Since(startTime))
		return result

	case err := <-errCh:
		result := NewResult(check.ID(), check.Criterion(), types.StatusFailed, fmt.Sprintf("Check failed: %v", err))
		result = result.WithExecutionTime(time.Since(startTime))
		return result

	case <-ctx.Done():
		result := NewResult(check.ID(), check.Criterion(), types.StatusFailed, "Check timed out")
		result = result.WithExecutionTime(time.Since(startTime))
		return result
	}
}

// GetResults returns all grading check outcomes
func (r *Runner) GetResults() map[string]Result {
	return r.results
}

// GetResultsByCategory returns check outcomes grouped by category
func (r *Runner) GetResultsByCategory() map[types.Category][]Result {
	resultsByCategory := make(map[types.Category][]Result)

	for _, check := range r.checks {
		if result, exists := r.results[check.ID()]; exists {
			resultsByCategory[check.Category()] = append(resultsByCategory[check.Category()], result)
		}
	}

	return resultsByCategory
}

// GetResultsByStatus returns check outcomes grouped by status
func (r *Runner) GetResultsByStatus() map[types.Status][]Result {
	resultsByStatus := make(map[types.Status][]Result)

	for _, result := range r.results {
		resultsByStatus[result.Status] = append(resultsByStatus[result.Status], result)
	}

	return resultsByStatus
}

// CountByStatus returns the count of outcomes by status
func (r *Runner) CountByStatus() map[types.Status]int {
	counts := make(map[types.Status]int)

	for _, result := range r.results {
		counts[result.Status]++
	}

	return counts
}
