package grading

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

func TestScorecardScore(t *testing.T) {
	card := NewScorecard()
	card.Record("uses_dns_not_ip", 1.0, 0.35)
	card.Record("database_accessible", 1.0, 0.20)
	card.Record("data_integrity_verified", 0.0, 0.15)
	card.Record("connection_pool_optimized", 1.0, 0.30)

	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 0.85, score)
}

func TestScorecardScoreRounding(t *testing.T) {
	card := NewScorecard()
	card.Record("a_criterion", 1.0, 1.0/3.0)
	card.Record("b_criterion", 0.0, 2.0/3.0)

	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 0.333, score)
}

func TestScorecardEmpty(t *testing.T) {
	card := NewScorecard()

	_, err := card.Score()
	assert.Error(t, err)
}

func TestScorecardDuplicateCriterionKeepsLowerSubscore(t *testing.T) {
	card := NewScorecard()
	card.Record("database_accessible", 1.0, 0.5)
	card.Record("database_accessible", 0.0, 0.5)
	card.Record("uses_dns_not_ip", 0.0, 0.5)
	card.Record("uses_dns_not_ip", 1.0, 0.5)

	subscores := card.Subscores()
	assert.Equal(t, 0.0, subscores["database_accessible"])
	assert.Equal(t, 0.0, subscores["uses_dns_not_ip"])

	// Weight is recorded once per criterion
	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 0.0, score)
}

func TestScorecardFeedback(t *testing.T) {
	card := NewScorecard()
	card.Record("uses_dns_not_ip", 1.0, 0.35)
	card.Record("database_accessible", 0.0, 0.20)
	card.Record("data_integrity_verified", 1.0, 0.15)
	card.Record("connection_pool_optimized", 1.0, 0.30)

	feedback := card.Feedback()
	assert.Contains(t, feedback, "Score: 0.800")
	assert.Contains(t, feedback, "[PASS] uses_dns_not_ip: 1.0 (weight: 35%)")
	assert.Contains(t, feedback, "[FAIL] database_accessible: 0.0 (weight: 20%)")
}

func TestBuildScorecard(t *testing.T) {
	results := map[string]Result{
		"config-dns-endpoint": NewResult("config-dns-endpoint", "uses_dns_not_ip", types.StatusPassed, "ok"),
		"database-integrity":  NewResult("database-integrity", "data_integrity_verified", types.StatusFailed, "missing"),
		"unweighted-check":    NewResult("unweighted-check", "proxy_pods_stable", types.StatusPassed, "ok"),
	}
	weights := map[string]float64{
		"uses_dns_not_ip":         0.5,
		"data_integrity_verified": 0.3,
		"database_accessible":     0.2,
	}

	card := BuildScorecard(results, weights, nil)

	subscores := card.Subscores()
	assert.Equal(t, 1.0, subscores["uses_dns_not_ip"])
	assert.Equal(t, 0.0, subscores["data_integrity_verified"])

	// Criterion the rubric weights but no check scored is failing
	assert.Equal(t, 0.0, subscores["database_accessible"])

	// Criterion outside the rubric is dropped
	_, graded := subscores["proxy_pods_stable"]
	assert.False(t, graded)

	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 0.5, score)
}

func TestBuildScorecardSkippedCriterionRenormalizes(t *testing.T) {
	results := map[string]Result{
		"config-dns-endpoint":    NewResult("config-dns-endpoint", "uses_dns_not_ip", types.StatusPassed, "ok"),
		"database-accessibility": NewResult("database-accessibility", "database_accessible", types.StatusSkipped, "excluded"),
	}
	weights := map[string]float64{
		"uses_dns_not_ip":     0.6,
		"database_accessible": 0.4,
	}

	card := BuildScorecard(results, weights, nil)

	// The skipped criterion drops out of the aggregation entirely
	_, graded := card.Subscores()["database_accessible"]
	assert.False(t, graded)

	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestBuildScorecardSkipListExcludesUnregisteredCriterion(t *testing.T) {
	// No check scored proxy_pods_stable (e.g. no API client was available),
	// but the operator excluded it; the criterion must renormalize away
	// instead of being filled in as failing.
	results := map[string]Result{
		"config-dns-endpoint": NewResult("config-dns-endpoint", "uses_dns_not_ip", types.StatusPassed, "ok"),
	}
	weights := map[string]float64{
		"uses_dns_not_ip":   0.9,
		"proxy_pods_stable": 0.1,
	}

	card := BuildScorecard(results, weights, []string{"proxy_pods_stable"})

	_, graded := card.Subscores()["proxy_pods_stable"]
	assert.False(t, graded)

	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestBuildScorecardSkipListDropsScoredResult(t *testing.T) {
	results := map[string]Result{
		"config-dns-endpoint":    NewResult("config-dns-endpoint", "uses_dns_not_ip", types.StatusPassed, "ok"),
		"database-accessibility": NewResult("database-accessibility", "database_accessible", types.StatusFailed, "down"),
	}
	weights := map[string]float64{
		"uses_dns_not_ip":     0.6,
		"database_accessible": 0.4,
	}

	card := BuildScorecard(results, weights, []string{"database_accessible"})

	_, graded := card.Subscores()["database_accessible"]
	assert.False(t, graded)

	score, err := card.Score()
	require.NoError(t, err)
	assert.Equal(t, 1.0, score)
}

func TestGradingResult(t *testing.T) {
	card := NewScorecard()
	card.Record("uses_dns_not_ip", 1.0, 0.35)
	card.Record("database_accessible", 1.0, 0.20)
	card.Record("data_integrity_verified", 1.0, 0.15)
	card.Record("connection_pool_optimized", 0.0, 0.30)

	result, err := card.GradingResult()
	require.NoError(t, err)

	assert.Equal(t, 0.7, result.Score)
	assert.Len(t, result.Subscores, 4)
	assert.Len(t, result.Weights, 4)
	assert.Contains(t, result.Feedback, "Score: 0.700")
}
