/*
This file implements the database accessibility check. It:

- Executes psql inside the database pod, connecting through the proxy service
- Runs a trivial SELECT 1 and verifies a row came back
- Fails on any exec error, non-zero exit, or unexpected output

Routing the query through the proxy is the point: it proves the repaired
configuration actually carries traffic.
*/

package database

import (
	"strings"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/cluster"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// AccessibilityCheck verifies the database answers queries through the proxy
type AccessibilityCheck struct {
	grading.BaseCheck
	executor cluster.Executor
	target   Target
}

// NewAccessibilityCheck creates a new database accessibility check
func NewAccessibilityCheck(executor cluster.Executor, target Target) *AccessibilityCheck {
	return &AccessibilityCheck{
		BaseCheck: grading.NewBaseCheck(
			"database-accessibility",
			"Database Accessibility",
			"Checks that the database can be queried through the connection-pooling proxy",
			types.CategoryConnectivity,
			rubric.CriterionDatabaseAccessible,
		),
		executor: executor,
		target:   target,
	}
}

// Run executes the check
func (c *AccessibilityCheck) Run() (grading.Result, error) {
	out, err := c.executor.ExecInPod(c.target.Pod,
		"psql", "-U", c.target.User, "-d", c.target.Database, "-h", c.target.Host,
		"-c", "SELECT 1;")
	if err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot query through the proxy")
		result.AddRecommendation("Verify the proxy service endpoints and the repaired pgbouncer configuration")
		return result.WithDetail(err.Error()), nil
	}

	if !strings.Contains(out, "1 row") {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Query through the proxy returned no row")
		return result.WithDetail(out), nil
	}

	result := grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed, "Can connect and query through the proxy")
	return result.WithDetail(out), nil
}
