package engine

import "github.com/runa-systems/entityengine/entity"

// typeOps is the subset of entity.Type[T, S]'s surface Engine[T] needs.
// Declaring it lets Engine[T] stay generic only over the subject type T —
// the snapshot type S is fully absorbed by entity.Type's any-typed
// Snapshot/Restore methods and never needs to appear on Engine itself,
// matching the external-interface shape named in the spec
// (`NewEngine[T, S any](entityType *entity.Type[T, S], ...) *Engine[T]`).
type typeOps[T any] interface {
	TypeName() string
	Construct(tc entity.Capability, subject *T, args entity.Args, kwargs entity.Kwargs) error
	Snapshot(subject *T) any
	Restore(subject *T, snapshot any) error
	MethodFunc(methodID string) (entity.MethodFunc[T], bool)
}
