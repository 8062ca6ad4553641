package entity

import "github.com/google/uuid"

// NewKey mints a process-local identity key for a freshly constructed
// entity. Keys are opaque to the engine — any comparable value works — but
// a random UUID avoids accidental collisions across entity types sharing a
// context log, the same role google/uuid plays for process identifiers
// elsewhere in this codebase.
func NewKey() string {
	return uuid.NewString()
}
