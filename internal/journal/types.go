package journal

// Run is one recorded execution of a scenario.
type Run struct {
	ID       string
	Scenario string
	Passed   bool

	// Seq orders runs within the journal. Zero on write means "assign".
	Seq int64
}

// Entry is one event observed on one collection during a run.
type Entry struct {
	Run        string
	Seq        int64
	Collection string
	Event      string

	// Record is the record's label (logical key or reference name), "" for
	// collection-level events such as reset.
	Record string

	// Origin is the label of the subset whose mutation produced the event,
	// "" if untagged.
	Origin string

	// Index is the add/remove position, -1 if not applicable.
	Index int

	// Detail is canonical JSON with event-specific data.
	Detail string
}
