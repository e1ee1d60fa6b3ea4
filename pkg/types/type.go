package types

// Status represents the outcome of a grading check
type Status string

const (
	// StatusPassed indicates the criterion was satisfied
	StatusPassed Status = "Passed"

	// StatusFailed indicates the criterion was not satisfied
	StatusFailed Status = "Failed"

	// StatusUnknown indicates the criterion could not be evaluated
	StatusUnknown Status = "Unknown"

	// StatusSkipped indicates the check was excluded from this run
	StatusSkipped Status = "Skipped"
)

// Subscore converts a status into the binary subscore used for weighting.
// Anything other than a clean pass counts as 0.0; a check that errors out
// must never improve the grade.
func (s Status) Subscore() float64 {
	if s == StatusPassed {
		return 1.0
	}
	return 0.0
}

// Category represents a category of grading checks
type Category string

const (
	// CategoryConfiguration is for checks against the proxy configuration text
	CategoryConfiguration Category = "Configuration"

	// CategoryConnectivity is for checks that exercise the database through the proxy
	CategoryConnectivity Category = "Connectivity"

	// CategoryDataIntegrity is for checks that verify test data survived the incident
	CategoryDataIntegrity Category = "DataIntegrity"

	// CategoryStability is for checks against the proxy pods themselves
	CategoryStability Category = "Stability"
)

// ReportFormat defines the format of the generated report
type ReportFormat string

const (
	// FormatSummary prints a colorized terminal summary
	FormatSummary ReportFormat = "summary"

	// FormatJSON writes a machine-readable report
	FormatJSON ReportFormat = "json"

	// FormatAsciiDoc writes an AsciiDoc report
	FormatAsciiDoc ReportFormat = "asciidoc"
)

// Result represents the externally visible result of a single check
type Result struct {
	// CheckID is the unique identifier of the check
	CheckID string

	// Criterion is the rubric criterion this check scores
	Criterion string

	// Status indicates the outcome (Passed, Failed, Unknown, Skipped)
	Status Status

	// Message is a brief description of the outcome
	Message string

	// Detail provides detailed information about the outcome
	Detail string

	// Recommendations are remediation hints for a failing criterion
	Recommendations []string

	// ExecutionTime is how long the check took to run
	ExecutionTime string

	// Metadata is additional contextual information
	Metadata map[string]string
}

// GradingResult is the final product of a grading run: the weighted score,
// the per-criterion subscores and weights it was computed from, and a
// human-readable feedback block.
type GradingResult struct {
	// Score is the weighted 0.0-1.0 grade, rounded to three decimals
	Score float64 `json:"score"`

	// Subscores maps criterion name to its binary subscore
	Subscores map[string]float64 `json:"subscores"`

	// Weights maps criterion name to its rubric weight
	Weights map[string]float64 `json:"weights"`

	// Feedback is the per-criterion feedback block
	Feedback string `json:"feedback"`
}

// Check defines the read-only surface of a grading check
type Check interface {
	// ID returns a unique identifier for the check
	ID() string

	// Name returns a human-readable name for the check
	Name() string

	// Description returns a description of what the check verifies
	Description() string

	// Category returns the category the check belongs to
	Category() Category

	// Criterion returns the rubric criterion the check scores
	Criterion() string
}
