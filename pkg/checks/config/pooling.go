/*
This file implements the pool settings check against the proxy configuration. It:

- Verifies server_lifetime is capped at the rubric threshold
- Verifies server_idle_timeout is below the rubric threshold
- Verifies a server_reset_query is configured
- Requires all of them fixed before the criterion passes

These are the three settings the incident left in a pathological state; a
partial fix still fails the criterion.
*/

package config

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

var (
	lifetimePattern    = regexp.MustCompile(`server_lifetime\s*=\s*([0-9]+)`)
	idleTimeoutPattern = regexp.MustCompile(`server_idle_timeout\s*=\s*([0-9]+)`)
)

// requiredFixes is how many pool settings must be repaired for a pass
const requiredFixes = 3

// PoolSettingsCheck verifies the connection pool tuning was fully repaired
type PoolSettingsCheck struct {
	grading.BaseCheck
	source     *Source
	thresholds rubric.Thresholds
}

// NewPoolSettingsCheck creates a new pool settings check
func NewPoolSettingsCheck(source *Source, thresholds rubric.Thresholds) *PoolSettingsCheck {
	return &PoolSettingsCheck{
		BaseCheck: grading.NewBaseCheck(
			"config-pool-settings",
			"Connection Pool Settings",
			"Checks that all problematic connection pool settings were fixed",
			types.CategoryConfiguration,
			rubric.CriterionPoolOptimized,
		),
		source:     source,
		thresholds: thresholds,
	}
}

// Run executes the check
func (c *PoolSettingsCheck) Run() (grading.Result, error) {
	ini, err := c.source.Text()
	if err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot verify pool settings (config not found)")
		result.AddRecommendation(fmt.Sprintf("Ensure the %s ConfigMap exists and carries a %s entry", ConfigMapName, IniKey))
		return result.WithDetail(err.Error()), nil
	}

	fixed := 0

	var detail strings.Builder
	detail.WriteString("=== Pool Settings Analysis ===\n\n")

	if m := lifetimePattern.FindStringSubmatch(ini); m != nil {
		lifetime, convErr := strconv.Atoi(m[1])
		if convErr == nil && lifetime <= c.thresholds.MaxServerLifetime {
			fixed++
			detail.WriteString(fmt.Sprintf("server_lifetime = %d (<= %d): fixed\n", lifetime, c.thresholds.MaxServerLifetime))
		} else {
			detail.WriteString(fmt.Sprintf("server_lifetime = %s (must be <= %d): not fixed\n", m[1], c.thresholds.MaxServerLifetime))
		}
	} else {
		detail.WriteString("server_lifetime: not set\n")
	}

	if m := idleTimeoutPattern.FindStringSubmatch(ini); m != nil {
		idleTimeout, convErr := strconv.Atoi(m[1])
		if convErr == nil && idleTimeout < c.thresholds.MaxServerIdleTimeout {
			fixed++
			detail.WriteString(fmt.Sprintf("server_idle_timeout = %d (< %d): fixed\n", idleTimeout, c.thresholds.MaxServerIdleTimeout))
		} else {
			detail.WriteString(fmt.Sprintf("server_idle_timeout = %s (must be < %d): not fixed\n", m[1], c.thresholds.MaxServerIdleTimeout))
		}
	} else {
		detail.WriteString("server_idle_timeout: not set\n")
	}

	if strings.Contains(ini, "server_reset_query") {
		fixed++
		detail.WriteString("server_reset_query: present\n")
	} else {
		detail.WriteString("server_reset_query: missing\n")
	}

	if fixed >= requiredFixes {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed,
			fmt.Sprintf("Connection pool settings fully optimized (%d/%d settings fixed)", fixed, requiredFixes))
		return result.WithDetail(detail.String()), nil
	}

	result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
		fmt.Sprintf("Connection pool settings not fully optimized (%d/%d settings fixed, need all %d)", fixed, requiredFixes, requiredFixes))
	result.AddRecommendation(fmt.Sprintf("Set server_lifetime to at most %d seconds", c.thresholds.MaxServerLifetime))
	result.AddRecommendation(fmt.Sprintf("Set server_idle_timeout below %d seconds", c.thresholds.MaxServerIdleTimeout))
	result.AddRecommendation("Configure a server_reset_query (e.g. DISCARD ALL) so pooled connections are reset between clients")
	return result.WithDetail(detail.String()), nil
}
