// Package entity defines the capability surface an entity implementation is
// built against: argument shapes, opaque references to other entities, the
// domain-error contract, and the process-wide registry used to validate
// method calls before a task is ever suspended on them.
package entity

import "fmt"

// Args and Kwargs mirror the positional/keyword argument split the message
// model carries for every request and error payload.
type Args = []any
type Kwargs = map[string]any

// Offset identifies a message's position in an engine's context log. Offsets
// are allocated by a single monotonic counter per engine and never reused.
type Offset = int64

// Ref is an opaque handle standing in for an entity instance inside messages
// and across process boundaries. The engine that owns a Ref never holds the
// referenced entity's Go value directly — only its type name and identity
// key, exactly as much as a peer process would know about it.
type Ref struct {
	TypeName string
	Key      any
}

// Equal reports whether two refs name the same entity instance.
func (r Ref) Equal(other Ref) bool {
	return r.TypeName == other.TypeName && r.Key == other.Key
}

func (r Ref) String() string {
	return fmt.Sprintf("%s(%v)", r.TypeName, r.Key)
}

// Service is the marker interface a service type satisfies so it can be
// registered alongside entity types in the same method-name registry.
type Service interface {
	IsService()
}
