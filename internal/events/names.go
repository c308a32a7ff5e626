package events

// Event names shared by records, collections and subsets.
const (
	All = "all"

	Add     = "add"
	Remove  = "remove"
	Reset   = "reset"
	Change  = "change"
	Destroy = "destroy"
	Dispose = "dispose"

	Loading = "loading"
	Sync    = "sync"
	Error   = "error"

	// Raised on a subset's child.
	Refresh = "refresh"
	Loaded  = "loaded"
)

// ChangeOf returns the per-attribute change event name, e.g. "change:number".
func ChangeOf(attr string) string {
	return Change + ":" + attr
}

// Origin identifies who initiated a mutation. Handlers compare origins by
// pointer identity, so two origins with the same ID are still distinct.
//
// A nil *Origin means the mutation came from outside any subset.
type Origin struct {
	id   string
	name string
}

// NewOrigin creates a provenance token. id is used for logs and traces;
// name is an optional human label.
func NewOrigin(id, name string) *Origin {
	return &Origin{id: id, name: name}
}

// ID returns the origin's identifier. Safe on nil.
func (o *Origin) ID() string {
	if o == nil {
		return ""
	}
	return o.id
}

// Name returns the origin's label. Safe on nil.
func (o *Origin) Name() string {
	if o == nil {
		return ""
	}
	return o.name
}

// String renders the label, falling back to the ID.
func (o *Origin) String() string {
	if o == nil {
		return ""
	}
	if o.name != "" {
		return o.name
	}
	return o.id
}
