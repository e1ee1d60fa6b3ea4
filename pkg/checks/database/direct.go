/*
This file implements the direct-connection variants of the database checks.
When the grader itself can reach the proxy service (typically when it runs
inside the cluster) a supplied DSN lets it open the connection with the
PostgreSQL driver instead of shelling into the database pod. The graded
semantics are identical to the exec-based checks.
*/

package database

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	// PostgreSQL driver for the direct probes
	_ "github.com/lib/pq"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// DefaultProbeTimeout bounds a direct query when no timeout is configured
const DefaultProbeTimeout = 15 * time.Second

// queryOne opens the DSN, runs a single-row query and scans its first column
func queryOne(dsn string, timeout time.Duration, query string, dest interface{}) error {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return fmt.Errorf("failed to open connection: %w", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), timeout)
	defer cancel()

	if err := db.QueryRowContext(ctx, query).Scan(dest); err != nil {
		return fmt.Errorf("query %q failed: %w", query, err)
	}

	return nil
}

// DirectAccessibilityCheck verifies the proxy carries traffic by connecting
// to it directly with the PostgreSQL driver
type DirectAccessibilityCheck struct {
	grading.BaseCheck
	dsn     string
	timeout time.Duration
}

// NewDirectAccessibilityCheck creates a direct accessibility probe. A zero
// timeout falls back to the default probe timeout.
func NewDirectAccessibilityCheck(dsn string, timeout time.Duration) *DirectAccessibilityCheck {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &DirectAccessibilityCheck{
		BaseCheck: grading.NewBaseCheck(
			"database-accessibility-direct",
			"Database Accessibility (direct)",
			"Checks database connectivity through the proxy using a direct connection",
			types.CategoryConnectivity,
			rubric.CriterionDatabaseAccessible,
		),
		dsn:     dsn,
		timeout: timeout,
	}
}

// Run executes the check
func (c *DirectAccessibilityCheck) Run() (grading.Result, error) {
	var one int
	if err := queryOne(c.dsn, c.timeout, "SELECT 1", &one); err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot query through the proxy")
		result.AddRecommendation("Verify the proxy service endpoints and the repaired pgbouncer configuration")
		return result.WithDetail(err.Error()), nil
	}

	if one != 1 {
		return grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
			fmt.Sprintf("SELECT 1 returned %d", one)), nil
	}

	return grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed, "Can connect and query through the proxy"), nil
}

// DirectIntegrityCheck verifies the sentinel row over a direct connection
type DirectIntegrityCheck struct {
	grading.BaseCheck
	dsn        string
	timeout    time.Duration
	thresholds rubric.Thresholds
}

// NewDirectIntegrityCheck creates a direct data integrity probe. A zero
// timeout falls back to the default probe timeout.
func NewDirectIntegrityCheck(dsn string, timeout time.Duration, thresholds rubric.Thresholds) *DirectIntegrityCheck {
	if timeout <= 0 {
		timeout = DefaultProbeTimeout
	}
	return &DirectIntegrityCheck{
		BaseCheck: grading.NewBaseCheck(
			"database-integrity-direct",
			"Data Integrity (direct)",
			"Checks the sentinel test data through the proxy using a direct connection",
			types.CategoryDataIntegrity,
			rubric.CriterionDataIntegrity,
		),
		dsn:        dsn,
		timeout:    timeout,
		thresholds: thresholds,
	}
}

// Run executes the check
func (c *DirectIntegrityCheck) Run() (grading.Result, error) {
	var count int
	query := fmt.Sprintf("SELECT COUNT(*) FROM bleats WHERE id=%d", c.thresholds.SentinelBleatID)
	if err := queryOne(c.dsn, c.timeout, query, &count); err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot access test data through the proxy")
		return result.WithDetail(err.Error()), nil
	}

	if count != c.thresholds.ExpectedSentinelCount {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
			fmt.Sprintf("Sentinel row count is %d, expected %d", count, c.thresholds.ExpectedSentinelCount))
		result.AddRecommendation("Confirm the failover promoted a replica with the full data set")
		return result, nil
	}

	return grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed, "Test data accessible through the proxy"), nil
}
