/*
This file implements the proxy pod stability check. It:

- Lists the proxy pods by label selector through the Kubernetes API
- Verifies at least one pod is running with all containers ready
- Grades the restart count against the rubric threshold
- Optionally requires the pod to have been created after the incident
  started, proving the proxy was restarted onto the repaired config
*/

package pods

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/cluster"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// DefaultLabelSelector matches the connection-pooling proxy pods
const DefaultLabelSelector = "app=pgbouncer"

// listTimeout bounds the pod listing call
const listTimeout = 20 * time.Second

// ProxyStabilityCheck verifies the proxy pods restarted onto the repaired
// configuration and stayed up
type ProxyStabilityCheck struct {
	grading.BaseCheck
	client        *cluster.Client
	selector      string
	maxRestarts   int32
	incidentStart time.Time
}

// NewProxyStabilityCheck creates a new proxy stability check. A zero
// incidentStart disables the creation-timestamp requirement.
func NewProxyStabilityCheck(client *cluster.Client, selector string, maxRestarts int32, incidentStart time.Time) *ProxyStabilityCheck {
	if selector == "" {
		selector = DefaultLabelSelector
	}
	return &ProxyStabilityCheck{
		BaseCheck: grading.NewBaseCheck(
			"pods-proxy-stability",
			"Proxy Pod Stability",
			"Checks that the proxy pods are running, ready and not crash-looping",
			types.CategoryStability,
			rubric.CriterionProxyStability,
		),
		client:        client,
		selector:      selector,
		maxRestarts:   maxRestarts,
		incidentStart: incidentStart,
	}
}

// Run executes the check
func (c *ProxyStabilityCheck) Run() (grading.Result, error) {
	ctx, cancel := context.WithTimeout(context.Background(), listTimeout)
	defer cancel()

	infos, err := c.client.PodsBySelector(ctx, c.selector)
	if err != nil {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed, "Cannot list proxy pods")
		return result.WithDetail(err.Error()), nil
	}

	if len(infos) == 0 {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
			fmt.Sprintf("No proxy pods match selector %q", c.selector))
		result.AddRecommendation("Confirm the proxy deployment exists and carries the expected labels")
		return result, nil
	}

	var detail strings.Builder
	detail.WriteString("=== Proxy Pod Analysis ===\n\n")

	stable := 0
	for _, info := range infos {
		ok := info.Phase == "Running" && info.Ready && info.Restarts <= c.maxRestarts
		if ok && !c.incidentStart.IsZero() && !info.CreatedAt.After(c.incidentStart) {
			ok = false
		}
		if ok {
			stable++
		}

		detail.WriteString(fmt.Sprintf("%s: phase=%s ready=%t restarts=%d created=%s\n",
			info.Name, info.Phase, info.Ready, info.Restarts, info.CreatedAt.Format(time.RFC3339)))
	}

	if stable == 0 {
		result := grading.NewResult(c.ID(), c.Criterion(), types.StatusFailed,
			fmt.Sprintf("No stable proxy pod found (%d matched selector %q)", len(infos), c.selector))
		result.AddRecommendation(fmt.Sprintf("Restart the proxy onto the repaired config; restart count must stay at or below %d", c.maxRestarts))
		if !c.incidentStart.IsZero() {
			result.AddRecommendation(fmt.Sprintf("The pod must have been recreated after %s", c.incidentStart.Format(time.RFC3339)))
		}
		return result.WithDetail(detail.String()), nil
	}

	result := grading.NewResult(c.ID(), c.Criterion(), types.StatusPassed,
		fmt.Sprintf("%d/%d proxy pods stable", stable, len(infos)))
	return result.WithDetail(detail.String()), nil
}
