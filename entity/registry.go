package entity

import (
	"fmt"
	"sync"
)

// TypeDescriptor records the public method names exposed by an entity or
// service type, independent of any particular Engine instance. A calling
// engine never executes a peer's methods directly — it only emits a message
// describing the intended call — so the descriptor is how
// TaskContext.CallEntity/CallService can validate a method name before
// suspending the task, matching the "resolve_method" capability the
// original spec's Design Notes call for.
type TypeDescriptor struct {
	TypeName string
	Methods  map[string]struct{}
}

func newDescriptor(typeName string) *TypeDescriptor {
	return &TypeDescriptor{TypeName: typeName, Methods: make(map[string]struct{})}
}

// HasMethod reports whether methodID is a registered public method.
func (d *TypeDescriptor) HasMethod(methodID string) bool {
	if d == nil {
		return false
	}
	_, ok := d.Methods[methodID]
	return ok
}

var (
	registryMu sync.RWMutex
	entities   = make(map[string]*TypeDescriptor)
	services   = make(map[string]*TypeDescriptor)
)

// Register records typeName as a known entity type with the given method
// names. It is called once by Type[T, S] construction and is safe to call
// from init() or package-level vars across multiple packages.
func Register(typeName string, methodIDs ...string) *TypeDescriptor {
	registryMu.Lock()
	defer registryMu.Unlock()
	d := newDescriptor(typeName)
	for _, m := range methodIDs {
		d.Methods[m] = struct{}{}
	}
	entities[typeName] = d
	return d
}

// RegisterServiceType records typeName as a known service type.
func RegisterServiceType(typeName string, methodIDs ...string) *TypeDescriptor {
	registryMu.Lock()
	defer registryMu.Unlock()
	d := newDescriptor(typeName)
	for _, m := range methodIDs {
		d.Methods[m] = struct{}{}
	}
	services[typeName] = d
	return d
}

// Lookup returns the descriptor for a registered entity type name, or nil.
func Lookup(typeName string) *TypeDescriptor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return entities[typeName]
}

// LookupService returns the descriptor for a registered service type name,
// or nil.
func LookupService(typeName string) *TypeDescriptor {
	registryMu.RLock()
	defer registryMu.RUnlock()
	return services[typeName]
}

// ResolveMethod validates that typeName is a known entity type exposing
// methodID as a public method. It returns UnknownMethod when typeName is not
// registered and PrivateState when the method is not declared public, without
// ever suspending a task —
// the original Python implementation raises AttributeError from inside
// __getattribute__ at the same point, before any message is sent.
func ResolveMethod(typeName, methodID string) error {
	d := Lookup(typeName)
	if d == nil {
		return &UnknownMethod{TypeName: typeName, MethodID: methodID, Reason: "unregistered entity type"}
	}
	if !d.HasMethod(methodID) {
		return &PrivateState{TypeName: typeName, MethodID: methodID}
	}
	return nil
}

// ResolveServiceMethod is the service-side analogue of ResolveMethod.
func ResolveServiceMethod(typeName, methodID string) error {
	d := LookupService(typeName)
	if d == nil {
		return &UnknownMethod{TypeName: typeName, MethodID: methodID, Reason: "unregistered service type"}
	}
	if !d.HasMethod(methodID) {
		return &PrivateState{TypeName: typeName, MethodID: methodID}
	}
	return nil
}

// UnknownMethod reports a call against a type the registry has never seen,
// as distinct from PrivateState (a known type, private method).
type UnknownMethod struct {
	TypeName string
	MethodID string
	Reason   string
}

func (e *UnknownMethod) Error() string {
	return fmt.Sprintf("unknown method %s.%s: %s", e.TypeName, e.MethodID, e.Reason)
}

// PrivateState reports an attempt to call a method that exists but was
// never declared public on the type, or to read state belonging to another
// entity directly. In this Go translation the latter case is structurally
// impossible (peers are only reachable as opaque Ref values with no
// exported fields), so PrivateState in practice only ever arises from the
// method-name check in ResolveMethod/ResolveServiceMethod above.
type PrivateState struct {
	TypeName string
	MethodID string
}

func (e *PrivateState) Error() string {
	return fmt.Sprintf("%s.%s is not a public method", e.TypeName, e.MethodID)
}
