package rubric

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuiltinRevisionsAreValid(t *testing.T) {
	for _, name := range Names() {
		r, err := Get(name)
		require.NoError(t, err)
		assert.NoError(t, r.Validate(), "revision %s", name)
	}
}

func TestDefaultRevisionMatchesGradingScript(t *testing.T) {
	r := Default()

	assert.Equal(t, "v3", r.Name)
	assert.Equal(t, 0.35, r.Weights[CriterionDNSEndpoint])
	assert.Equal(t, 0.20, r.Weights[CriterionDatabaseAccessible])
	assert.Equal(t, 0.15, r.Weights[CriterionDataIntegrity])
	assert.Equal(t, 0.30, r.Weights[CriterionPoolOptimized])
	assert.False(t, r.Grades(CriterionProxyStability))

	assert.Equal(t, 3600, r.Thresholds.MaxServerLifetime)
	assert.Equal(t, 600, r.Thresholds.MaxServerIdleTimeout)
	assert.Equal(t, 99999, r.Thresholds.SentinelBleatID)
	assert.Equal(t, 1, r.Thresholds.ExpectedSentinelCount)
}

func TestGetUnknownRevision(t *testing.T) {
	_, err := Get("v99")
	assert.Error(t, err)
}

func TestResolve(t *testing.T) {
	r, err := Resolve("")
	require.NoError(t, err)
	assert.Equal(t, DefaultRevision, r.Name)

	r, err = Resolve("v1")
	require.NoError(t, err)
	assert.Equal(t, "v1", r.Name)

	_, err = Resolve("no-such-revision-or-file")
	assert.Error(t, err)
}

func TestValidate(t *testing.T) {
	base := Default()

	t.Run("weights must sum to one", func(t *testing.T) {
		r := base
		r.Weights = map[string]float64{
			CriterionDNSEndpoint:        0.5,
			CriterionDatabaseAccessible: 0.6,
		}
		assert.Error(t, r.Validate())
	})

	t.Run("unknown criterion rejected", func(t *testing.T) {
		r := base
		r.Weights = map[string]float64{
			"made_up_criterion":  0.5,
			CriterionDNSEndpoint: 0.5,
		}
		assert.Error(t, r.Validate())
	})

	t.Run("non-positive weight rejected", func(t *testing.T) {
		r := base
		r.Weights = map[string]float64{
			CriterionDNSEndpoint:        0.0,
			CriterionDatabaseAccessible: 1.0,
		}
		assert.Error(t, r.Validate())
	})

	t.Run("empty weights rejected", func(t *testing.T) {
		r := base
		r.Weights = nil
		assert.Error(t, r.Validate())
	})

	t.Run("bad thresholds rejected", func(t *testing.T) {
		r := base
		r.Thresholds.MaxServerLifetime = 0
		assert.Error(t, r.Validate())
	})
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()

	path := filepath.Join(dir, "custom.yaml")
	content := `name: custom
description: tightened DNS weighting for the retake cohort
weights:
  uses_dns_not_ip: 0.5
  database_accessible: 0.2
  data_integrity_verified: 0.1
  connection_pool_optimized: 0.2
thresholds:
  maxServerLifetime: 1800
  maxServerIdleTimeout: 300
  sentinelBleatId: 99999
  expectedSentinelCount: 1
  maxProxyRestarts: 2
`
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))

	r, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", r.Name)
	assert.Equal(t, 0.5, r.Weights[CriterionDNSEndpoint])
	assert.Equal(t, 1800, r.Thresholds.MaxServerLifetime)

	// Resolve falls through to the file path
	resolved, err := Resolve(path)
	require.NoError(t, err)
	assert.Equal(t, "custom", resolved.Name)
}

func TestLoadInvalid(t *testing.T) {
	dir := t.TempDir()

	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(dir, "absent.yaml"))
		assert.Error(t, err)
	})

	t.Run("invalid weights", func(t *testing.T) {
		path := filepath.Join(dir, "broken.yaml")
		content := `name: broken
weights:
  uses_dns_not_ip: 2.0
thresholds:
  maxServerLifetime: 3600
  maxServerIdleTimeout: 600
`
		require.NoError(t, os.WriteFile(path, []byte(content), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})

	t.Run("unparseable yaml", func(t *testing.T) {
		path := filepath.Join(dir, "garbage.yaml")
		require.NoError(t, os.WriteFile(path, []byte("{not yaml"), 0644))

		_, err := Load(path)
		assert.Error(t, err)
	})
}
