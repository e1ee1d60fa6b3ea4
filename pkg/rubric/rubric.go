/*
This file defines the grading rubric: the named weight and threshold sets
that grade a failover remediation run. It includes:

- The criterion names shared between checks and scorecard
- The Rubric structure with weights and tuning thresholds
- Built-in rubric revisions, one per historical grading variant
- Loading of custom rubrics from YAML files
- Validation of weights and thresholds

The built-in revisions preserve the weight reshuffles that previously lived
in near-duplicate copies of the grading script; the newest revision is the
default.
*/

package rubric

import (
	"fmt"
	"math"
	"os"
	"sort"

	"sigs.k8s.io/yaml"
)

// Criterion names. Checks report against these and the rubric weights them.
const (
	// CriterionDNSEndpoint scores whether the proxy config addresses the
	// database by DNS name rather than a pod IP
	CriterionDNSEndpoint = "uses_dns_not_ip"

	// CriterionDatabaseAccessible scores whether the database answers a
	// query through the proxy
	CriterionDatabaseAccessible = "database_accessible"

	// CriterionDataIntegrity scores whether the sentinel row survived the
	// incident
	CriterionDataIntegrity = "data_integrity_verified"

	// CriterionPoolOptimized scores whether all problematic pool settings
	// were fixed
	CriterionPoolOptimized = "connection_pool_optimized"

	// CriterionProxyStability scores whether the proxy pods restarted onto
	// the repaired config and stayed up
	CriterionProxyStability = "proxy_pods_stable"
)

// knownCriteria is the set of criteria a rubric may weight
var knownCriteria = map[string]bool{
	CriterionDNSEndpoint:        true,
	CriterionDatabaseAccessible: true,
	CriterionDataIntegrity:      true,
	CriterionPoolOptimized:      true,
	CriterionProxyStability:     true,
}

// Thresholds holds the tuning limits the configuration checks grade against
type Thresholds struct {
	// MaxServerLifetime is the highest acceptable server_lifetime in seconds
	MaxServerLifetime int `json:"maxServerLifetime"`

	// MaxServerIdleTimeout is the exclusive upper bound for
	// server_idle_timeout in seconds
	MaxServerIdleTimeout int `json:"maxServerIdleTimeout"`

	// SentinelBleatID is the primary key of the test row that must survive
	// the failover
	SentinelBleatID int `json:"sentinelBleatId"`

	// ExpectedSentinelCount is the row count the integrity query must return
	ExpectedSentinelCount int `json:"expectedSentinelCount"`

	// MaxProxyRestarts is the highest acceptable container restart count on
	// a proxy pod after remediation
	MaxProxyRestarts int32 `json:"maxProxyRestarts"`
}

// Rubric is a named set of criterion weights and grading thresholds
type Rubric struct {
	// Name identifies the rubric revision
	Name string `json:"name"`

	// Description explains what distinguishes this revision
	Description string `json:"description"`

	// Weights maps criterion name to its share of the grade
	Weights map[string]float64 `json:"weights"`

	// Thresholds are the tuning limits applied by the configuration checks
	Thresholds Thresholds `json:"thresholds"`
}

// DefaultRevision is the rubric used when none is requested
const DefaultRevision = "v3"

// revisions holds the built-in rubric variants, oldest first
var revisions = map[string]Rubric{
	"v1": {
		Name:        "v1",
		Description: "Initial rubric with a proxy stability criterion and lenient pool thresholds",
		Weights: map[string]float64{
			CriterionDNSEndpoint:        0.30,
			CriterionDatabaseAccessible: 0.25,
			CriterionDataIntegrity:      0.15,
			CriterionPoolOptimized:      0.20,
			CriterionProxyStability:     0.10,
		},
		Thresholds: Thresholds{
			MaxServerLifetime:     7200,
			MaxServerIdleTimeout:  1200,
			SentinelBleatID:       99999,
			ExpectedSentinelCount: 1,
			MaxProxyRestarts:      5,
		},
	},
	"v2": {
		Name:        "v2",
		Description: "Raised the DNS weight and tightened pool thresholds to production values",
		Weights: map[string]float64{
			CriterionDNSEndpoint:        0.35,
			CriterionDatabaseAccessible: 0.20,
			CriterionDataIntegrity:      0.15,
			CriterionPoolOptimized:      0.20,
			CriterionProxyStability:     0.10,
		},
		Thresholds: Thresholds{
			MaxServerLifetime:     3600,
			MaxServerIdleTimeout:  600,
			SentinelBleatID:       99999,
			ExpectedSentinelCount: 1,
			MaxProxyRestarts:      3,
		},
	},
	"v3": {
		Name:        "v3",
		Description: "Dropped the stability criterion and moved its weight onto pool optimization",
		Weights: map[string]float64{
			CriterionDNSEndpoint:        0.35,
			CriterionDatabaseAccessible: 0.20,
			CriterionDataIntegrity:      0.15,
			CriterionPoolOptimized:      0.30,
		},
		Thresholds: Thresholds{
			MaxServerLifetime:     3600,
			MaxServerIdleTimeout:  600,
			SentinelBleatID:       99999,
			ExpectedSentinelCount: 1,
			MaxProxyRestarts:      3,
		},
	},
}

// Get returns the built-in rubric revision with the given name
func Get(name string) (Rubric, error) {
	rubric, ok := revisions[name]
	if !ok {
		return Rubric{}, fmt.Errorf("unknown rubric revision: %s (available: %v)", name, Names())
	}
	return rubric, nil
}

// Default returns the default rubric revision
func Default() Rubric {
	return revisions[DefaultRevision]
}

// Names returns the built-in revision names in sorted order
func Names() []string {
	names := make([]string, 0, len(revisions))
	for name := range revisions {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}

// Load reads a custom rubric from a YAML file and validates it
func Load(path string) (Rubric, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return Rubric{}, fmt.Errorf("failed to read rubric file %s: %w", path, err)
	}

	var rubric Rubric
	if err := yaml.Unmarshal(data, &rubric); err != nil {
		return Rubric{}, fmt.Errorf("failed to parse rubric file %s: %w", path, err)
	}

	if rubric.Name == "" {
		rubric.Name = path
	}

	if err := rubric.Validate(); err != nil {
		return Rubric{}, fmt.Errorf("invalid rubric %s: %w", rubric.Name, err)
	}

	return rubric, nil
}

// Resolve returns the rubric for a --rubric argument: a built-in revision
// name, or a path to a YAML file when the name matches no revision and the
// file exists.
func Resolve(name string) (Rubric, error) {
	if name == "" {
		return Default(), nil
	}

	if rubric, ok := revisions[name]; ok {
		return rubric, nil
	}

	if _, err := os.Stat(name); err == nil {
		return Load(name)
	}

	return Rubric{}, fmt.Errorf("rubric %q is neither a built-in revision nor a readable file (available revisions: %v)", name, Names())
}

// weightEpsilon is the tolerance when verifying weights sum to 1.0
const weightEpsilon = 1e-6

// Validate verifies the rubric weights and thresholds are usable
func (r Rubric) Validate() error {
	if len(r.Weights) == 0 {
		return fmt.Errorf("rubric has no weights")
	}

	var total float64
	for criterion, weight := range r.Weights {
		if !knownCriteria[criterion] {
			return fmt.Errorf("unknown criterion: %s", criterion)
		}
		if weight <= 0 {
			return fmt.Errorf("weight for %s must be positive, got %v", criterion, weight)
		}
		total += weight
	}

	if math.Abs(total-1.0) > weightEpsilon {
		return fmt.Errorf("weights must sum to 1.0, got %v", total)
	}

	if r.Thresholds.MaxServerLifetime <= 0 {
		return fmt.Errorf("maxServerLifetime must be positive")
	}
	if r.Thresholds.MaxServerIdleTimeout <= 0 {
		return fmt.Errorf("maxServerIdleTimeout must be positive")
	}
	if r.Thresholds.ExpectedSentinelCount < 0 {
		return fmt.Errorf("expectedSentinelCount must not be negative")
	}
	if r.Thresholds.MaxProxyRestarts < 0 {
		return fmt.Errorf("maxProxyRestarts must not be negative")
	}

	return nil
}

// Weight returns the weight for a criterion, or zero when the rubric does
// not grade it
func (r Rubric) Weight(criterion string) float64 {
	return r.Weights[criterion]
}

// Grades reports whether the rubric assigns a weight to the criterion
func (r Rubric) Grades(criterion string) bool {
	_, ok := r.Weights[criterion]
	return ok
}
