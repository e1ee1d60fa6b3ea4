/*
This file implements the data integrity check. It:

- Counts the sentinel row that was written before the simulated incident
- Runs the query through the proxy service, inside the database pod
- Passes only when the count matches the rubric expectation exactly
*/

package database

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/cluster"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// IntegrityCheck verifies the sentinel test data survived the incident
type IntegrityCheck struct {
	grading.BaseCheck
	executor   cluster.Executor
	target     Target
	thresholds rubric.Thresholds
}

// NewIntegrityCheck creates a new data integrity check
func NewIntegrityCheck(executor cluster.Executor, target Target, thresholds rubric.Thresholds) *IntegrityCheck {
	return &IntegrityCheck{
		BaseCheck: grading.NewBaseCheck(
			"database-integrity",
			"Data Integrity",
			"Checks that the sentinel test data is still accessible through the proxy",
			types.CategoryDataIntegrity,
			rubric.CriterionDataIntegrity,
		),
		executor:   executor,
		target:     target,
		thresholds: thresholds,
	}
}

// Run executes the check
func (c *IntegrityCheck) Run() (grading.Result, error) {
	query := fmt.Sprintf("SELECT COUNT(*) FROM bleats WHERE id=%d;", c.thresholds.SentinelBleatID)
	out, err := c.executor.ExecInPod(c.target.Pod,
		"psql", "-U", c.target.User, "-d", c.target.Database, "-h", c.target.Host,
		"-t", "-c", query)
	if err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot access test data through the proxy")
		return result.WithDetail(err.Error()), nil
	}

	count, convErr := strconv.Atoi(strings.TrimSpace(out))
	if convErr != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
			fmt.Sprintf("Unexpected count output: %q", strings.TrimSpace(out)))
		return result.WithDetail(out), nil
	}

	if count != c.thresholds.ExpectedSentinelCount {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
			fmt.Sprintf("Sentinel row count is %d, expected %d", count, c.thresholds.ExpectedSentinelCount))
		result.AddRecommendation("Confirm the failover promoted a replica with the full data set")
		return result.WithDetail(out), nil
	}

	result := grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed, "Test data accessible through the proxy")
	return result.WithDetail(out), nil
}
