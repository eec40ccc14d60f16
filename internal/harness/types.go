package harness

// Result is the outcome of a test scenario execution.
type Result struct {
	// Pass indicates overall test success.
	// True if every expectation matched.
	Pass bool `json:"pass"`

	// Transaction is the compact render of the built transaction.
	Transaction string `json:"transaction"`

	// Pretty is the documentation layout of the same transaction.
	Pretty string `json:"-"`

	// Query is the query render, raw text for raw queries.
	Query string `json:"query"`

	// Args is the rendered argument vector.
	Args string `json:"args"`

	// Err is the first builder error, if any.
	Err string `json:"error,omitempty"`

	// Errors contains expectation mismatches.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Errors: []string{},
	}
}

// AddError adds a validation error and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}
