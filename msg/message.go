// Package msg defines the context message model: the append-only, replayable
// record of every externally observable interaction an entity has. It is a
// direct translation of runa.context's dataclasses, sealed to a closed set
// of Go structs instead of a typing.Union.
package msg

import (
	"reflect"

	"github.com/runa-systems/entityengine/entity"
)

// Message is the marker interface every context message implements. It is
// sealed to this package (isMessage is unexported) the same way the
// original's ContextMessage union is closed to the dataclasses declared in
// context.py — a type switch in package engine plays the role Python's
// isinstance/assert_never chain plays there.
type Message interface {
	isMessage()
	// Off returns the message's own offset.
	Off() entity.Offset
}

// CreateEntityRequestSent is emitted when a task asks the engine to
// construct a new peer entity.
type CreateEntityRequestSent struct {
	Offset      entity.Offset
	TraceOffset entity.Offset
	EntityType  string
	Args        entity.Args
	Kwargs      entity.Kwargs
}

func (m CreateEntityRequestSent) isMessage()            {}
func (m CreateEntityRequestSent) Off() entity.Offset { return m.Offset }

// CreateEntityRequestReceived is the initiator message that starts a
// construction task: some other engine decided this process should
// construct one of its entities.
type CreateEntityRequestReceived struct {
	Offset entity.Offset
	Args   entity.Args
	Kwargs entity.Kwargs
}

func (m CreateEntityRequestReceived) isMessage()         {}
func (m CreateEntityRequestReceived) Off() entity.Offset { return m.Offset }

// CreateEntityResponseSent is emitted once a CreateEntityRequestReceived's
// construction completes successfully.
type CreateEntityResponseSent struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
}

func (m CreateEntityResponseSent) isMessage()         {}
func (m CreateEntityResponseSent) Off() entity.Offset { return m.Offset }

// CreateEntityResponseReceived resumes a task blocked on
// CreateEntityRequestSent with the newly constructed peer's Ref.
type CreateEntityResponseReceived struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	Response      entity.Ref
}

func (m CreateEntityResponseReceived) isMessage()         {}
func (m CreateEntityResponseReceived) Off() entity.Offset { return m.Offset }

// CreateEntityErrorSent is emitted when a CreateEntityRequestReceived's
// construction raises a domain error.
type CreateEntityErrorSent struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	ErrorType     string
	Args          entity.Args
	Kwargs        entity.Kwargs
}

func (m CreateEntityErrorSent) isMessage()         {}
func (m CreateEntityErrorSent) Off() entity.Offset { return m.Offset }

// CreateEntityErrorReceived resumes a task blocked on CreateEntityRequestSent
// by injecting the peer's construction error.
type CreateEntityErrorReceived struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	ErrorType     string
	Args          entity.Args
	Kwargs        entity.Kwargs
}

func (m CreateEntityErrorReceived) isMessage()         {}
func (m CreateEntityErrorReceived) Off() entity.Offset { return m.Offset }

// EntityMethodRequestSent is emitted when a task calls a method on a peer
// entity.
type EntityMethodRequestSent struct {
	Offset      entity.Offset
	TraceOffset entity.Offset
	Receiver    entity.Ref
	MethodID    string
	Args        entity.Args
	Kwargs      entity.Kwargs
}

func (m EntityMethodRequestSent) isMessage()         {}
func (m EntityMethodRequestSent) Off() entity.Offset { return m.Offset }

// EntityMethodRequestReceived is the initiator message that starts a method
// task: another engine is invoking one of this entity's public methods.
type EntityMethodRequestReceived struct {
	Offset   entity.Offset
	MethodID string
	Args     entity.Args
	Kwargs   entity.Kwargs
}

func (m EntityMethodRequestReceived) isMessage()         {}
func (m EntityMethodRequestReceived) Off() entity.Offset { return m.Offset }

// EntityMethodResponseSent is emitted once an EntityMethodRequestReceived's
// task completes successfully.
type EntityMethodResponseSent struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	Response      any
}

func (m EntityMethodResponseSent) isMessage()         {}
func (m EntityMethodResponseSent) Off() entity.Offset { return m.Offset }

// EntityMethodResponseReceived resumes a task blocked on
// EntityMethodRequestSent with the peer's return value.
type EntityMethodResponseReceived struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	Response      any
}

func (m EntityMethodResponseReceived) isMessage()         {}
func (m EntityMethodResponseReceived) Off() entity.Offset { return m.Offset }

// EntityMethodErrorSent is emitted when an EntityMethodRequestReceived's
// task raises a domain error.
type EntityMethodErrorSent struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	ErrorType     string
	Args          entity.Args
	Kwargs        entity.Kwargs
}

func (m EntityMethodErrorSent) isMessage()         {}
func (m EntityMethodErrorSent) Off() entity.Offset { return m.Offset }

// EntityMethodErrorReceived resumes a task blocked on EntityMethodRequestSent
// by injecting the peer's method error.
type EntityMethodErrorReceived struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	ErrorType     string
	Args          entity.Args
	Kwargs        entity.Kwargs
}

func (m EntityMethodErrorReceived) isMessage()         {}
func (m EntityMethodErrorReceived) Off() entity.Offset { return m.Offset }

// ServiceMethodRequestSent is emitted when a task calls an external service.
type ServiceMethodRequestSent struct {
	Offset      entity.Offset
	TraceOffset entity.Offset
	ServiceType string
	MethodID    string
	Args        entity.Args
	Kwargs      entity.Kwargs
}

func (m ServiceMethodRequestSent) isMessage()         {}
func (m ServiceMethodRequestSent) Off() entity.Offset { return m.Offset }

// ServiceMethodResponseReceived resumes a task blocked on
// ServiceMethodRequestSent with the service's return value.
type ServiceMethodResponseReceived struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	Response      any
}

func (m ServiceMethodResponseReceived) isMessage()         {}
func (m ServiceMethodResponseReceived) Off() entity.Offset { return m.Offset }

// ServiceMethodErrorReceived resumes a task blocked on
// ServiceMethodRequestSent by injecting the opaque error the service
// returned. There is deliberately no ServiceMethodErrorSent: services are
// outside the entity contract, so this engine never originates one.
type ServiceMethodErrorReceived struct {
	Offset        entity.Offset
	RequestOffset entity.Offset
	Err           error
}

func (m ServiceMethodErrorReceived) isMessage()         {}
func (m ServiceMethodErrorReceived) Off() entity.Offset { return m.Offset }

// EntityStateChanged records a point-in-time snapshot of the subject's
// state. The engine emits one after every initiator task that returns, and
// after a method task that fails with a domain error; suspending a task
// emits none. An inbound EntityStateChanged that the engine is not itself
// expecting restores the subject from State.
type EntityStateChanged struct {
	Offset entity.Offset
	State  any
}

func (m EntityStateChanged) isMessage()         {}
func (m EntityStateChanged) Off() entity.Offset { return m.Offset }

// IsInitiator reports whether m starts a new task when consumed by
// Engine.Complete (as opposed to resuming one already pending).
func IsInitiator(m Message) bool {
	switch m.(type) {
	case CreateEntityRequestReceived, EntityMethodRequestReceived:
		return true
	default:
		return false
	}
}

// IsTerminal reports whether m is one of the message kinds that can appear
// as the final message produced for a given request (a response, an error,
// or — for the top-level call — nothing further expected).
func IsTerminal(m Message) bool {
	switch m.(type) {
	case CreateEntityResponseSent, EntityMethodResponseSent,
		CreateEntityErrorSent, EntityMethodErrorSent:
		return true
	default:
		return false
	}
}

// IsRequestSent reports whether m is an outbound request awaiting a
// response/error from elsewhere.
func IsRequestSent(m Message) bool {
	switch m.(type) {
	case CreateEntityRequestSent, EntityMethodRequestSent, ServiceMethodRequestSent:
		return true
	default:
		return false
	}
}

// IsResponseReceived reports whether m resumes a task with a successful
// result.
func IsResponseReceived(m Message) bool {
	switch m.(type) {
	case CreateEntityResponseReceived, EntityMethodResponseReceived, ServiceMethodResponseReceived:
		return true
	default:
		return false
	}
}

// IsErrorReceived reports whether m resumes a task by injecting an error.
func IsErrorReceived(m Message) bool {
	switch m.(type) {
	case CreateEntityErrorReceived, EntityMethodErrorReceived, ServiceMethodErrorReceived:
		return true
	default:
		return false
	}
}

// RequestOffsetOf returns the offset of the request a response/error
// message answers, and whether m carries one at all (EntityStateChanged and
// the *RequestSent/*RequestReceived kinds do not).
func RequestOffsetOf(m Message) (entity.Offset, bool) {
	switch v := m.(type) {
	case CreateEntityResponseSent:
		return v.RequestOffset, true
	case CreateEntityResponseReceived:
		return v.RequestOffset, true
	case CreateEntityErrorSent:
		return v.RequestOffset, true
	case CreateEntityErrorReceived:
		return v.RequestOffset, true
	case EntityMethodResponseSent:
		return v.RequestOffset, true
	case EntityMethodResponseReceived:
		return v.RequestOffset, true
	case EntityMethodErrorSent:
		return v.RequestOffset, true
	case EntityMethodErrorReceived:
		return v.RequestOffset, true
	case ServiceMethodResponseReceived:
		return v.RequestOffset, true
	case ServiceMethodErrorReceived:
		return v.RequestOffset, true
	default:
		return 0, false
	}
}

// Equal reports whether two messages are structurally identical, the
// translation of the frozen dataclasses' generated __eq__. reflect.DeepEqual
// is sufficient because every field is itself comparable-by-value or, for
// Ref, implements value equality through its own fields; Args/Kwargs
// elements are expected to be plain data (the same assumption the original
// makes about its args/kwargs tuples and dicts).
func Equal(a, b Message) bool {
	return reflect.DeepEqual(a, b)
}
