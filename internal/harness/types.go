package harness

// TraceEntry is one event observed on one collection during a run.
type TraceEntry struct {
	Seq        int64    `json:"seq"`
	Collection string   `json:"collection"`
	Event      string   `json:"event"`
	Record     string   `json:"record,omitempty"`
	Origin     string   `json:"origin,omitempty"`
	Index      int      `json:"index"`
	Changes    []string `json:"changes,omitempty"`
}

// Result is the outcome of a scenario run.
type Result struct {
	// Pass is true if every assertion held.
	Pass bool `json:"pass"`

	// Trace lists every collection event in dispatch order.
	Trace []TraceEntry `json:"trace"`

	// Errors contains assertion failure messages.
	Errors []string `json:"errors,omitempty"`

	// Final maps each live collection to its record labels, in order.
	Final map[string][]string `json:"final"`

	// Run is the journal run id, empty if the run was not journaled.
	Run string `json:"run,omitempty"`
}

// NewResult creates a passing result.
func NewResult() *Result {
	return &Result{
		Pass:   true,
		Trace:  []TraceEntry{},
		Errors: []string{},
		Final:  make(map[string][]string),
	}
}

// AddError records an assertion failure and marks the result as failed.
func (r *Result) AddError(err string) {
	r.Errors = append(r.Errors, err)
	r.Pass = false
}

// Count returns how many trace entries match collection and event.
func (r *Result) Count(collection, event string) int {
	n := 0
	for _, e := range r.Trace {
		if e.Collection == collection && e.Event == event {
			n++
		}
	}
	return n
}
