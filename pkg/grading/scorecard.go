/*
This file implements the weighted scorecard for a grading run. It:

- Collects the binary subscore of each check outcome under its rubric criterion
- Applies the rubric weights to compute the final 0.0-1.0 grade
- Produces the per-criterion feedback block shown to the operator

Subscores and weights are rebuilt on every run and discarded afterwards;
the scorecard holds no state beyond a single evaluation.
*/

package grading

import (
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// Scorecard accumulates per-criterion subscores and weights for one run
type Scorecard struct {
	subscores map[string]float64
	weights   map[string]float64

	// order preserves the criterion insertion order for feedback output
	order []string
}

// NewScorecard creates an empty scorecard
func NewScorecard() *Scorecard {
	return &Scorecard{
		subscores: make(map[string]float64),
		weights:   make(map[string]float64),
	}
}

// Record stores the subscore and weight for a criterion. Recording the same
// criterion twice keeps the lower subscore; a criterion backed by several
// checks passes only when all of them do.
func (s *Scorecard) Record(criterion string, subscore, weight float64) {
	if existing, ok := s.subscores[criterion]; ok {
		if subscore < existing {
			s.subscores[criterion] = subscore
		}
		return
	}
	s.subscores[criterion] = subscore
	s.weights[criterion] = weight
	s.order = append(s.order, criterion)
}

// RecordResult stores a check outcome under its criterion with the given weight
func (s *Scorecard) RecordResult(result Result, weight float64) {
	s.Record(result.Criterion, result.Subscore(), weight)
}

// Score computes the weighted grade: sum of subscore*weight divided by the
// total weight, rounded to three decimals.
func (s *Scorecard) Score() (float64, error) {
	if len(s.subscores) == 0 {
		return 0, fmt.Errorf("no subscores recorded")
	}

	var weighted, total float64
	for criterion, subscore := range s.subscores {
		weight := s.weights[criterion]
		weighted += subscore * weight
		total += weight
	}

	if total <= 0 {
		return 0, fmt.Errorf("total weight must be positive, got %v", total)
	}

	return math.Round(weighted/total*1000) / 1000, nil
}

// Subscores returns a copy of the recorded subscores
func (s *Scorecard) Subscores() map[string]float64 {
	out := make(map[string]float64, len(s.subscores))
	for k, v := range s.subscores {
		out[k] = v
	}
	return out
}

// Weights returns a copy of the recorded weights
func (s *Scorecard) Weights() map[string]float64 {
	out := make(map[string]float64, len(s.weights))
	for k, v := range s.weights {
		out[k] = v
	}
	return out
}

// Criteria returns the criteria in recording order
func (s *Scorecard) Criteria() []string {
	out := make([]string, len(s.order))
	copy(out, s.order)
	return out
}

// Feedback renders the per-criterion feedback block
func (s *Scorecard) Feedback() string {
	score, err := s.Score()
	if err != nil {
		return fmt.Sprintf("Score: unavailable (%v)", err)
	}

	var b strings.Builder
	b.WriteString(fmt.Sprintf("Score: %.3f\n", score))

	for _, criterion := range s.order {
		subscore := s.subscores[criterion]
		marker := "FAIL"
		if subscore >= 1.0 {
			marker = "PASS"
		}
		weightPct := int(math.Round(s.weights[criterion] * 100))
		b.WriteString(fmt.Sprintf("\n[%s] %s: %.1f (weight: %d%%)", marker, criterion, subscore, weightPct))
	}

	return b.String()
}

// GradingResult assembles the final result for reporters and JSON output
func (s *Scorecard) GradingResult() (types.GradingResult, error) {
	score, err := s.Score()
	if err != nil {
		return types.GradingResult{}, err
	}

	return types.GradingResult{
		Score:     score,
		Subscores: s.Subscores(),
		Weights:   s.Weights(),
		Feedback:  s.Feedback(),
	}, nil
}

// BuildScorecard folds runner outcomes into a scorecard using the supplied
// weights. Criteria the rubric does not weight are ignored. Skipped checks
// and criteria named in skipCriteria drop out of the aggregation entirely,
// which renormalizes the remaining weights through the total-weight
// denominator; the skip list must exclude a criterion even when no check
// for it was registered. Criteria the rubric weights but no check scored
// are recorded as failing, so a missing check can never inflate the grade.
func BuildScorecard(results map[string]Result, weights map[string]float64, skipCriteria []string) *Scorecard {
	card := NewScorecard()

	// Stable iteration keeps the feedback block deterministic
	ids := make([]string, 0, len(results))
	for id := range results {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	excluded := make(map[string]bool)
	for _, criterion := range skipCriteria {
		excluded[criterion] = true
	}
	for _, id := range ids {
		result := results[id]
		weight, ok := weights[result.Criterion]
		if !ok {
			continue
		}
		if excluded[result.Criterion] || result.Status == types.StatusSkipped {
			excluded[result.Criterion] = true
			continue
		}
		card.RecordResult(result, weight)
	}

	missing := make([]string, 0)
	for criterion := range weights {
		if _, ok := card.subscores[criterion]; !ok && !excluded[criterion] {
			missing = append(missing, criterion)
		}
	}
	sort.Strings(missing)
	for _, criterion := range missing {
		card.Record(criterion, 0.0, weights[criterion])
	}

	return card
}
