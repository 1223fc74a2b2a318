package schema

// MergePolicy controls how a single field is combined when an incoming
// row updates an existing one.
type MergePolicy int

const (
	// LastWriteWins takes the incoming value unconditionally.
	LastWriteWins MergePolicy = iota
	// KeepIfIncomingEmpty keeps the existing value when the incoming
	// value is empty. Used for user-edited annotations.
	KeepIfIncomingEmpty
)

// FieldPolicies maps columns to their merge policy. Columns without an
// entry use LastWriteWins.
var FieldPolicies = map[string]MergePolicy{
	ColNotes: KeepIfIncomingEmpty,
}

// MergeFields combines an existing row with an incoming observation of
// the same link, applying the per-field policies. Version bookkeeping
// and enrichment annotations are not carried over; they belong to the
// merge strategy and the enrichment stage respectively.
func MergeFields(existing, incoming Row) Row {
	merged := incoming
	if FieldPolicies[ColNotes] == KeepIfIncomingEmpty && incoming.Notes == "" {
		merged.Notes = existing.Notes
	}
	return merged
}
