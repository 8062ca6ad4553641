package entity

import "fmt"

// ContractViolation reports a malformed entity-type declaration. Several
// checks the original Python implementation performs at class-definition
// time via inspect.signature comparison — in particular "the __setstate__
// parameter type disagrees with __getstate__'s return type" — are instead
// enforced by the Go compiler: Type[T, S] shares a single type parameter S
// between its snapshot and restore functions, so that mismatch cannot be
// expressed in source at all. ContractViolation remains for the checks Go's
// type system cannot give for free.
type ContractViolation struct {
	TypeName string
	Reason   string
}

func (e *ContractViolation) Error() string {
	return fmt.Sprintf("entity type %q violates its contract: %s", e.TypeName, e.Reason)
}

// Capability is the interception surface a task's body is given: the
// entity/service/error installations of the original spec's §4.3,
// expressed as one explicit, lexically-scoped interface instead of
// process-global monkey-patching. engine.TaskContext is the concrete
// implementation; declaring the interface here (rather than importing
// package engine from here) keeps entity free of a dependency on engine,
// since engine already depends on entity.
type Capability interface {
	CreateEntity(entityType string, args Args, kwargs Kwargs) (Ref, error)
	CallEntity(receiver Ref, methodID string, args Args, kwargs Kwargs) (any, error)
	CallService(serviceType, methodID string, args Args, kwargs Kwargs) (any, error)
}

// Constructor runs the entity's construction logic. It may create peer
// entities or call services through tc during construction, matching the
// original spec's "CreateEntityRequestReceived runs the same
// interception-capable code path as a method call".
type Constructor[T any] func(tc Capability, subject *T, args Args, kwargs Kwargs) error

// Snapshotter captures a point-in-time, serializable snapshot of subject
// state.
type Snapshotter[T any, S any] func(subject *T) S

// Restorer rebuilds subject state from a previously captured snapshot.
type Restorer[T any, S any] func(subject *T, snapshot S) error

// MethodFunc is the shape of an entity method body.
type MethodFunc[T any] func(tc Capability, subject *T, args Args, kwargs Kwargs) (any, error)

// Type is an entity type declaration: how to construct a fresh subject, how
// to snapshot and restore its state (both typed by the shared parameter S,
// eliminating a class of runtime contract check — see ContractViolation),
// and which methods are public. A Type is built once, at package init time
// in the common case, and handed to engine.NewEngine for every subject
// instance of that type.
type Type[T any, S any] struct {
	Name      string
	construct Constructor[T]
	snapshot  Snapshotter[T, S]
	restore   Restorer[T, S]
	methods   map[string]MethodFunc[T]
	desc      *TypeDescriptor
}

// NewType declares a new entity type and registers it process-wide so that
// peers and services can validate calls against it. Name must be unique
// within the process.
func NewType[T any, S any](name string, construct Constructor[T], snapshot Snapshotter[T, S], restore Restorer[T, S]) (*Type[T, S], error) {
	if construct == nil {
		return nil, &ContractViolation{TypeName: name, Reason: "'construct' is not implemented"}
	}
	if snapshot == nil {
		return nil, &ContractViolation{TypeName: name, Reason: "'snapshot' is not implemented"}
	}
	if restore == nil {
		return nil, &ContractViolation{TypeName: name, Reason: "'restore' is not implemented"}
	}
	t := &Type[T, S]{
		Name:      name,
		construct: construct,
		snapshot:  snapshot,
		restore:   restore,
		methods:   make(map[string]MethodFunc[T]),
	}
	t.desc = Register(name)
	return t, nil
}

// Method registers a public method under methodID. Calling Method after the
// Type has already been handed to an Engine is undefined — declare every
// method before constructing an Engine, same as the original's class-body
// declaration order.
func (t *Type[T, S]) Method(methodID string, fn MethodFunc[T]) *Type[T, S] {
	t.methods[methodID] = fn
	t.desc.Methods[methodID] = struct{}{}
	return t
}

// Construct invokes the registered constructor.
func (t *Type[T, S]) Construct(tc Capability, subject *T, args Args, kwargs Kwargs) error {
	return t.construct(tc, subject, args, kwargs)
}

// Snapshot captures subject state as an any so callers outside this
// package's type parameters (the engine's replay core) can hold it
// opaquely alongside other entities' snapshots in the same context log.
func (t *Type[T, S]) Snapshot(subject *T) any {
	return t.snapshot(subject)
}

// Restore rebuilds subject state from a previously captured snapshot. It
// returns an error if snapshot is not a value of the declared type S (the
// engine reports that to its caller as InconsistentContext) — which can
// only happen if a context log produced by a different
// entity type is replayed against this Type, since within a single process
// S is otherwise guaranteed by the compiler.
func (t *Type[T, S]) Restore(subject *T, snapshot any) error {
	s, ok := snapshot.(S)
	if !ok {
		return fmt.Errorf("entity type %q: snapshot has type %T, want %T", t.Name, snapshot, s)
	}
	return t.restore(subject, s)
}

// TypeName returns the entity type's registered name.
func (t *Type[T, S]) TypeName() string { return t.Name }

// MethodFunc looks up a registered method body by ID.
func (t *Type[T, S]) MethodFunc(methodID string) (MethodFunc[T], bool) {
	fn, ok := t.methods[methodID]
	return fn, ok
}
