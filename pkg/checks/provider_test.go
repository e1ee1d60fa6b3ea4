package checks

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"k8s.io/client-go/kubernetes/fake"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/cluster"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/grading"
	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/rubric"
)

func checkIDs(list []grading.Check) []string {
	ids := make([]string, 0, len(list))
	for _, check := range list {
		ids = append(ids, check.ID())
	}
	return ids
}

func TestGetChecksExecPath(t *testing.T) {
	list := GetChecks(Options{
		Namespace: "bleater",
		Kubectl:   cluster.NewKubectl("bleater"),
		Rubric:    rubric.Default(),
	})

	ids := checkIDs(list)
	assert.Contains(t, ids, "config-dns-endpoint")
	assert.Contains(t, ids, "config-pool-settings")
	assert.Contains(t, ids, "database-accessibility")
	assert.Contains(t, ids, "database-integrity")
	assert.NotContains(t, ids, "database-accessibility-direct")

	// No API client, no stability check
	assert.NotContains(t, ids, "pods-proxy-stability")
}

func TestGetChecksDirectPath(t *testing.T) {
	list := GetChecks(Options{
		Namespace: "bleater",
		Kubectl:   cluster.NewKubectl("bleater"),
		Rubric:    rubric.Default(),
		DSN:       "postgres://bleater@pgbouncer.bleater.svc.cluster.local:6432/bleater",
	})

	ids := checkIDs(list)
	assert.Contains(t, ids, "database-accessibility-direct")
	assert.Contains(t, ids, "database-integrity-direct")
	assert.NotContains(t, ids, "database-accessibility")
	assert.NotContains(t, ids, "database-integrity")
}

func TestGetChecksStabilityNeedsRubricWeight(t *testing.T) {
	client := cluster.NewClient(fake.NewSimpleClientset(), "bleater")

	// v3 does not grade proxy stability
	v3, err := rubric.Get("v3")
	require.NoError(t, err)
	list := GetChecks(Options{Namespace: "bleater", Kubectl: cluster.NewKubectl("bleater"), Client: client, Rubric: v3})
	assert.NotContains(t, checkIDs(list), "pods-proxy-stability")

	// v2 does
	v2, err := rubric.Get("v2")
	require.NoError(t, err)
	list = GetChecks(Options{Namespace: "bleater", Kubectl: cluster.NewKubectl("bleater"), Client: client, Rubric: v2})
	assert.Contains(t, checkIDs(list), "pods-proxy-stability")
}

func TestGetChecksEveryCheckScoresAKnownCriterion(t *testing.T) {
	v1, err := rubric.Get("v1")
	require.NoError(t, err)

	client := cluster.NewClient(fake.NewSimpleClientset(), "bleater")
	list := GetChecks(Options{
		Namespace: "bleater",
		Kubectl:   cluster.NewKubectl("bleater"),
		Client:    client,
		Rubric:    v1,
	})

	for _, check := range list {
		assert.True(t, v1.Grades(check.Criterion()), "check %s scores unweighted criterion %s", check.ID(), check.Criterion())
	}
}
