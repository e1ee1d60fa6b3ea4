/*
This file defines the core interfaces and structures for grading checks. It includes:

- The Check interface that all grading checks must implement
- BaseCheck structure providing common functionality for all checks
- Result structure for storing and managing check outcomes
- Conversion utilities between internal and external result representations

This file forms the foundation of the grading framework, defining how checks are structured and how outcomes are processed.
*/

package grading

import (
	"time"

	"github.com/dammyboss/postgresql-failover-connection-pool/pkg/types"
)

// BaseCheck provides a basic implementation of a grading check
type BaseCheck struct {
	// id is the unique identifier for the check
	id string

	// name is the human-readable name for the check
	name string

	// description is what the check verifies
	description string

	// category is the category the check belongs to
	category types.Category

	// criterion is the rubric criterion the check scores
	criterion string
}

// ID returns the unique identifier for the check
func (b *BaseCheck) ID() string {
	return b.id
}

// Name returns the human-readable name for the check
func (b *BaseCheck) Name() string {
	return b.name
}

// Description returns a description of what the check verifies
func (b *BaseCheck) Description() string {
	return b.description
}

// Category returns the category the check belongs to
func (b *BaseCheck) Category() types.Category {
	return b.category
}

// Criterion returns the rubric criterion the check scores
func (b *BaseCheck) Criterion() string {
	return b.criterion
}

// NewBaseCheck creates a new BaseCheck
func NewBaseCheck(id, name, description string, category types.Category, criterion string) BaseCheck {
	return BaseCheck{
		id:          id,
		name:        name,
		description: description,
		category:    category,
		criterion:   criterion,
	}
}

// Result represents the outcome of a grading check with execution time as duration
type Result struct {
	// CheckID is the unique identifier of the check
	CheckID string

	// Criterion is the rubric criterion this result scores
	Criterion string

	// Status indicates the outcome (Passed, Failed, Unknown, Skipped)
	Status types.Status

	// Message is a brief description of the outcome
	Message string

	// Detail provides detailed information about the outcome
	Detail string

	// Recommendations are remediation hints for a failing criterion
	Recommendations []string

	// ExecutionTime is how long the check took to run
	ExecutionTime time.Duration

	// Metadata is additional contextual information
	Metadata map[string]string
}

// NewResult creates a new Result
func NewResult(checkID, criterion string, status types.Status, message string) Result {
	return Result{
		CheckID:         checkID,
		Criterion:       criterion,
		Status:          status,
		Message:         message,
		Recommendations: []string{},
		Metadata:        make(map[string]string),
	}
}

// AddRecommendation adds a recommendation to the result
func (r *Result) AddRecommendation(recommendation string) {
	r.Recommendations = append(r.Recommendations, recommendation)
}

// AddMetadata adds or updates metadata in the result
func (r *Result) AddMetadata(key, value string) {
	r.Metadata[key] = value
}

// WithDetail adds detailed information to the result
func (r *Result) WithDetail(detail string) Result {
	result := *r // Create a copy
	result.Detail = detail
	return result
}

// WithExecutionTime sets the execution time for the result
func (r *Result) WithExecutionTime(duration time.Duration) Result {
	result := *r // Create a copy
	result.ExecutionTime = duration
	return result
}

// Subscore returns the binary subscore the result contributes to the grade
func (r *Result) Subscore() float64 {
	return r.Status.Subscore()
}

// ToTypesResult converts a Result to types.Result
func (r *Result) ToTypesResult() types.Result {
	return types.Result{
		CheckID:         r.CheckID,
		Criterion:       r.Criterion,
		Status:          r.Status,
		Message:         r.Message,
		Detail:          r.Detail,
		Recommendations: r.Recommendations,
		ExecutionTime:   r.ExecutionTime.String(),
		Metadata:        r.Metadata,
	}
}

// Check defines the interface for a grading check
type Check interface {
	types.Check

	// Run executes the check and returns the outcome
	Run() (Result, error)
}
