package entity

import "fmt"

// DomainError is the contract a user-raised business error must satisfy for
// the engine to route it as a typed CreateEntityErrorSent/EntityMethodErrorSent
// message instead of treating it as an engine-invariant violation. There is
// no weak-map or side table capturing (type, args, kwargs) the way the
// original Python implementation does — a DomainError carries its own
// triple directly, so its lifetime is whatever the error value's lifetime
// is, same as any other Go error.
type DomainError interface {
	error
	ErrorType() string
	ErrorArgs() Args
	ErrorKwargs() Kwargs
}

// ReconstructedError is the fallback DomainError produced when an error is
// rehydrated from a *_ErrorReceived message and no ErrorRegistry entry knows
// how to build the user's original concrete type.
type ReconstructedError struct {
	Type   string
	Args   Args
	Kwargs Kwargs
}

func (e *ReconstructedError) Error() string {
	return fmt.Sprintf("%s%v%v", e.Type, e.Args, e.Kwargs)
}

func (e *ReconstructedError) ErrorType() string   { return e.Type }
func (e *ReconstructedError) ErrorArgs() Args      { return e.Args }
func (e *ReconstructedError) ErrorKwargs() Kwargs { return e.Kwargs }

// ForeignError wraps an opaque error value arriving in a
// ServiceMethodErrorReceived message. Services are outside the entity
// contract entirely, so their errors are never expected to satisfy
// DomainError — they are either handled inline by the task (inspected via
// Unwrap/errors.As) or allowed to propagate, in which case the engine
// reports UncaughtForeignError to its caller rather than emitting an
// outbound message, since the message model has no ServiceMethodErrorSent
// variant.
type ForeignError struct {
	ServiceType string
	Cause       error
}

func (e *ForeignError) Error() string {
	return fmt.Sprintf("service %s returned an error: %v", e.ServiceType, e.Cause)
}

func (e *ForeignError) Unwrap() error { return e.Cause }

// CacheMiss reports that a prefix-replay step found the engine's cached
// context log disagrees with the corresponding input message — the cached
// message this offset already committed to is not equal (by msg.Equal) to
// what the caller is now presenting at the same offset.
type CacheMiss struct {
	Offset   Offset
	Cached   any
	Supplied any
}

func (e *CacheMiss) Error() string {
	return fmt.Sprintf("cache miss at offset %d: cached %#v, supplied %#v", e.Offset, e.Cached, e.Supplied)
}

// UnorderedOffsets reports that an inbound message's offset is lower than
// the engine's current offset counter. Gaps between offsets are allowed;
// only going backwards is rejected.
type UnorderedOffsets struct {
	Expected Offset
	Got      Offset
}

func (e *UnorderedOffsets) Error() string {
	return fmt.Sprintf("unordered offsets: expected %d, got %d", e.Expected, e.Got)
}

// InconsistentContext reports a structural impossibility in the supplied
// context — a response/error message whose RequestOffset does not name any
// pending request, a supplied *_Sent or state message that differs from (or
// was not among) the messages the engine itself produced, or a state
// snapshot the subject type cannot restore.
type InconsistentContext struct {
	Reason string
}

func (e *InconsistentContext) Error() string {
	return fmt.Sprintf("inconsistent context: %s", e.Reason)
}

// OrphanedError reports that a task terminated with an error that is
// neither a DomainError nor a ForeignError — an engine-invariant violation,
// since every task is expected to only ever fail with one of those two
// recognized shapes.
type OrphanedError struct {
	Cause any
}

func (e *OrphanedError) Error() string {
	return fmt.Sprintf("orphaned error escaped task: %v", e.Cause)
}

// UncaughtForeignError reports that a task let a ForeignError (one that
// arrived from a service) propagate all the way out uncaught. The message
// model has no ServiceMethodErrorSent variant, so the engine cannot forward
// it onward as an outbound message — it is surfaced directly to whoever
// called Complete.
type UncaughtForeignError struct {
	ServiceType string
	Cause       error
}

func (e *UncaughtForeignError) Error() string {
	return fmt.Sprintf("uncaught foreign error from service %s: %v", e.ServiceType, e.Cause)
}

func (e *UncaughtForeignError) Unwrap() error { return e.Cause }

// ErrorRegistry maps a domain error's type name to a factory able to
// reconstruct the user's concrete error type from replayed (args, kwargs).
// Registration is optional: an unregistered type name simply rehydrates as
// a *ReconstructedError.
type ErrorRegistry struct {
	factories map[string]func(Args, Kwargs) DomainError
}

// NewErrorRegistry returns an empty registry.
func NewErrorRegistry() *ErrorRegistry {
	return &ErrorRegistry{factories: make(map[string]func(Args, Kwargs) DomainError)}
}

// Register associates an error type name with a reconstruction factory.
func (r *ErrorRegistry) Register(typeName string, factory func(Args, Kwargs) DomainError) {
	r.factories[typeName] = factory
}

// Reconstruct rebuilds a DomainError from its wire triple, falling back to
// ReconstructedError when no factory is registered for typeName.
func (r *ErrorRegistry) Reconstruct(typeName string, args Args, kwargs Kwargs) DomainError {
	if r != nil {
		if factory, ok := r.factories[typeName]; ok {
			return factory(args, kwargs)
		}
	}
	return &ReconstructedError{Type: typeName, Args: args, Kwargs: kwargs}
}
