package harness

// TraceEvent records one executed operation. It never carries IDs or
// timestamps, so traces compare equal across runs and backends.
type TraceEvent struct {
	Step    int    `json:"step"`
	Op      string `json:"op"`
	Input   string `json:"input,omitempty"`
	Outcome string `json:"outcome"`
	Result  any    `json:"result,omitempty"`
}

// Result is the outcome of a scenario execution.
type Result struct {
	// Pass is true if every expectation and assertion held.
	Pass bool `json:"pass"`

	// Backend names the backend the scenario ran on.
	Backend string `json:"backend"`

	// Trace contains the setup event followed by one event per flow step.
	Trace []TraceEvent `json:"trace"`

	// Errors contains expectation and assertion failures.
	// Empty if Pass is true.
	Errors []string `json:"errors,omitempty"`
}

// NewResult creates a new passing result.
func NewResult(backend string) *Result {
	return &Result{
		Pass:    true,
		Backend: backend,
		Trace:   []TraceEvent{},
		Errors:  []string{},
	}
}

// AddError adds a failure message and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// AddTrace appends an event.
func (r *Result) AddTrace(ev TraceEvent) {
	r.Trace = append(r.Trace, ev)
}
