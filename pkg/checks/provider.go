/*
This file acts as the main provider for all grading checks. It includes:

- Construction of the shared proxy configuration source
- Selection of the exec-based or direct database checks depending on the
  supplied DSN
- Registration of the pod stability check when an API client is available

The provider serves as the central registry for the grading checks, making
them available to the runner.
*/

package checks

import (
	"fmt"
	"time"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/checks/config"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/checks/database"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/checks/pods"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/cluster"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
)

// Options wires the cluster access layer and rubric into the checks
type Options struct {
	// Namespace is the namespace the exercise runs in
	Namespace string

	// Kubectl is the CLI wrapper used for ConfigMap reads and pod exec
	Kubectl *cluster.Kubectl

	// Client is the typed API client; nil when no kubeconfig is available
	Client *cluster.Client

	// Rubric supplies the thresholds the checks grade against
	Rubric rubric.Rubric

	// DSN switches the database checks to direct connections when set
	DSN string

	// ProbeTimeout bounds a direct database query; zero means the
	// default probe timeout
	ProbeTimeout time.Duration

	// LabelSelector overrides the proxy pod selector
	LabelSelector string

	// IncidentStart, when set, requires proxy pods created after it
	IncidentStart time.Time
}

// configFetch builds the ConfigMap fetch for the shared configuration
// source, preferring the typed API over the CLI
func configFetch(opts Options) config.FetchFunc {
	if opts.Client != nil {
		client := opts.Client
		return func() (string, error) {
			ctx, cancel := cluster.ListContext()
			defer cancel()
			return client.ConfigMapKey(ctx, config.ConfigMapName, config.IniKey)
		}
	}

	kubectl := opts.Kubectl
	return func() (string, error) {
		if kubectl == nil {
			return "", fmt.Errorf("no cluster access configured")
		}
		return kubectl.ConfigMapKey(config.ConfigMapName, config.IniKey)
	}
}

// GetChecks returns all grading checks for the failover remediation exercise
func GetChecks(opts Options) []grading.Check {
	var list []grading.Check

	// Both configuration checks grade the same fetched buffer
	source := config.NewSource(configFetch(opts))
	list = append(list, config.NewDNSEndpointCheck(source))
	list = append(list, config.NewPoolSettingsCheck(source, opts.Rubric.Thresholds))

	// Database checks: direct connections when a DSN is supplied, pod exec
	// through the CLI otherwise
	if opts.DSN != "" {
		list = append(list, database.NewDirectAccessibilityCheck(opts.DSN, opts.ProbeTimeout))
		list = append(list, database.NewDirectIntegrityCheck(opts.DSN, opts.ProbeTimeout, opts.Rubric.Thresholds))
	} else {
		target := database.DefaultTarget(opts.Namespace)
		list = append(list, database.NewAccessibilityCheck(opts.Kubectl, target))
		list = append(list, database.NewIntegrityCheck(opts.Kubectl, target, opts.Rubric.Thresholds))
	}

	// The stability check needs the typed API; without a client the
	// criterion is graded as failing by the scorecard when the rubric
	// weights it
	if opts.Client != nil && opts.Rubric.Grades(rubric.CriterionProxyStability) {
		list = append(list, pods.NewProxyStabilityCheck(
			opts.Client, opts.LabelSelector, opts.Rubric.Thresholds.MaxProxyRestarts, opts.IncidentStart))
	}

	return list
}
