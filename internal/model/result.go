package model

// Result is the outcome of one extraction run. Commitments carries the raw
// schema dicts as returned by the model (normalization happens at storage and
// evaluation boundaries, where invalid records are dropped).
//
// Result is always well-formed: a failed extraction yields an empty
// Commitments list and an explanatory note, never an error.
type Result struct {
	Commitments []map[string]any `json:"commitments"`
	Notes       string           `json:"extraction_notes,omitempty"`
	Chunks      int              `json:"_chunks,omitempty"`
}

// EmptyResult builds a well-formed empty result with a note.
func EmptyResult(notes string) *Result {
	return &Result{Commitments: []map[string]any{}, Notes: notes}
}
