// Package engine implements the replay/continue core: given a declared
// entity.Type, it constructs, restores, and advances exactly one subject
// instance from an append-only log of context messages, per the algorithm
// in the original spec's Replay/continue core and Cleanup compactor
// sections. See task.go for the goroutine-backed coroutine adapter and
// cleanup.go for the compaction pass.
package engine

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/runa-systems/entityengine/entity"
	"github.com/runa-systems/entityengine/internal/telemetry"
	"github.com/runa-systems/entityengine/msg"
)

// initiatorKind distinguishes the two shapes of top-level request an Engine
// processes: constructing the subject, or calling one of its methods. It
// decides which *_Sent/*_ErrorSent variant a task's terminal outcome is
// reported as.
type initiatorKind int

const (
	initiatorCreate initiatorKind = iota
	initiatorMethod
)

// pendingTask is what pending_by_offset (§3 Lifecycles) holds: a task
// blocked on the outcome of its most recently emitted request, plus enough
// context to build that task's eventual terminal message.
type pendingTask struct {
	t               *task
	initiatorOffset entity.Offset
	kind            initiatorKind
	lastServiceType string
}

// Engine executes exactly one subject instance of type T. It is not safe
// for concurrent use — the spec's concurrency model assumes at most one
// Complete/Cleanup call active on a given engine at a time, the same
// restriction the original places on its single-threaded Runa/Execution
// object. Enforcing that with an internal mutex would only mask a caller
// bug that a race detector should catch instead, so none is added here.
type Engine[T any] struct {
	typ     typeOps[T]
	subject *T

	cached     []msg.Message
	nextOffset entity.Offset
	pending    map[entity.Offset]*pendingTask

	errReg     *entity.ErrorRegistry
	logger     Logger
	tel        *telemetry.Telemetry
	cleanupCfg CleanupConfig
}

// Option configures an Engine at construction time, following the
// functional-options idiom used throughout the example pack's ambient
// stack (e.g. otlptracegrpc.New(ctx, opts...)).
type Option[T any] func(*Engine[T])

// WithLogger injects a Logger. Engines default to a no-op logger.
func WithLogger[T any](l Logger) Option[T] {
	return func(e *Engine[T]) { e.logger = l }
}

// WithErrorRegistry injects an entity.ErrorRegistry used to reconstruct
// concrete domain error types from replayed *_ErrorReceived messages.
// Engines default to an empty registry, under which every reconstructed
// error comes back as *entity.ReconstructedError.
func WithErrorRegistry[T any](r *entity.ErrorRegistry) Option[T] {
	return func(e *Engine[T]) { e.errReg = r }
}

// WithTelemetry injects a *telemetry.Telemetry. Engines built without it, or
// given a nil one, record against telemetry.New(entityType.TypeName()).
func WithTelemetry[T any](t *telemetry.Telemetry) Option[T] {
	return func(e *Engine[T]) { e.tel = t }
}

// NewEngine constructs an uninitialised subject slot bound to entityType,
// with an empty cached context and offset counter at zero, per §6
// "Construct".
func NewEngine[T any, S any](entityType *entity.Type[T, S], opts ...Option[T]) *Engine[T] {
	e := &Engine[T]{
		typ:        entityType,
		subject:    new(T),
		pending:    make(map[entity.Offset]*pendingTask),
		errReg:     entity.NewErrorRegistry(),
		logger:     noopLogger{},
		cleanupCfg: DefaultCleanupConfig(),
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.tel == nil {
		e.tel = telemetry.New(entityType.TypeName())
	}
	return e
}

// Context returns a copy of the engine's cached context log.
func (e *Engine[T]) Context() []msg.Message {
	out := make([]msg.Message, len(e.cached))
	copy(out, e.cached)
	return out
}

// Subject returns a read-only handle to the current subject. Writing to it
// from outside a task body is undefined behaviour, per §6 "Subject access".
func (e *Engine[T]) Subject() *T {
	return e.subject
}

// Complete is the engine's sole mutating entry point. It validates that the
// engine's cached context is a prefix of input (CacheMiss otherwise),
// processes the remaining suffix per the replay/continue algorithm, and
// returns the newly produced trailing messages. On any error the engine's
// state is left exactly as it was before the call.
func (e *Engine[T]) Complete(input []msg.Message) ([]msg.Message, error) {
	start := time.Now()
	_, span := e.tel.StartComplete(context.Background(), len(input))

	produced, err := e.complete(input)

	e.tel.RecordComplete(span, time.Since(start).Seconds(), err)
	if err != nil {
		e.logger.Error("engine_complete_failed", "error", err.Error())
	} else {
		e.logger.Debug("engine_complete_ok", "produced", len(produced))
	}
	return produced, err
}

func (e *Engine[T]) complete(input []msg.Message) ([]msg.Message, error) {
	i := 0
	for _, cm := range e.cached {
		if i >= len(input) || !msg.Equal(input[i], cm) {
			var supplied msg.Message
			if i < len(input) {
				supplied = input[i]
			}
			return nil, &entity.CacheMiss{Offset: cm.Off(), Cached: cm, Supplied: supplied}
		}
		i++
	}
	remaining := input[i:]

	subjectSnapshot := e.typ.Snapshot(e.subject)
	localOffset := e.nextOffset
	localPending := make(map[entity.Offset]*pendingTask, len(e.pending))
	for k, v := range e.pending {
		localPending[k] = v
	}
	var expectations []msg.Message

	fail := func(err error) ([]msg.Message, error) {
		if restoreErr := e.typ.Restore(e.subject, subjectSnapshot); restoreErr != nil {
			e.logger.Error("engine_rollback_failed", "error", restoreErr.Error())
		}
		return nil, err
	}

	for _, m := range remaining {
		switch {
		case msg.IsInitiator(m):
			if m.Off() < localOffset {
				return fail(&entity.UnorderedOffsets{Expected: localOffset, Got: m.Off()})
			}
			localOffset = m.Off() + 1

			t, kind, err := e.spawnInitiator(m)
			if err != nil {
				return fail(err)
			}
			outs, abortErr := e.stepTask(t, m.Off(), kind, &localOffset, localPending)
			if abortErr != nil {
				return fail(abortToCallerError(abortErr))
			}
			expectations = append(expectations, outs...)

		case msg.IsResponseReceived(m), msg.IsErrorReceived(m):
			if m.Off() < localOffset {
				return fail(&entity.UnorderedOffsets{Expected: localOffset, Got: m.Off()})
			}
			localOffset = m.Off() + 1

			reqOff, _ := msg.RequestOffsetOf(m)
			pt, ok := localPending[reqOff]
			if !ok {
				return fail(&entity.InconsistentContext{
					Reason: fmt.Sprintf("no pending task for request_offset %d", reqOff),
				})
			}
			delete(localPending, reqOff)

			pt.t.resume <- e.resumeValueFor(m, pt)
			outs, abortErr := e.stepTask(pt.t, pt.initiatorOffset, pt.kind, &localOffset, localPending)
			if abortErr != nil {
				return fail(abortToCallerError(abortErr))
			}
			expectations = append(expectations, outs...)

		case msg.IsRequestSent(m), isOtherSent(m):
			if len(expectations) == 0 {
				return fail(&entity.InconsistentContext{Reason: "unexpected sent message: nothing was expected"})
			}
			if !msg.Equal(expectations[0], m) {
				return fail(&entity.InconsistentContext{
					Reason: fmt.Sprintf("expected %#v, got %#v", expectations[0], m),
				})
			}
			expectations = expectations[1:]

		default: // EntityStateChanged
			sc := m.(msg.EntityStateChanged)
			if len(expectations) > 0 {
				if !msg.Equal(expectations[0], m) {
					return fail(&entity.InconsistentContext{
						Reason: fmt.Sprintf("expected %#v, got %#v", expectations[0], m),
					})
				}
				expectations = expectations[1:]
			} else {
				if m.Off() < localOffset {
					return fail(&entity.UnorderedOffsets{Expected: localOffset, Got: m.Off()})
				}
				localOffset = m.Off() + 1
				if err := e.typ.Restore(e.subject, sc.State); err != nil {
					return fail(&entity.InconsistentContext{Reason: err.Error()})
				}
			}
		}
	}

	produced := expectations

	e.cached = append(e.cached, remaining...)
	e.cached = append(e.cached, produced...)
	e.nextOffset = localOffset
	e.pending = localPending

	return produced, nil
}

// isOtherSent reports whether m is one of the *_Sent variants that are not
// themselves a RequestSent (response/error terminals), completing the
// "Matched output" case's coverage alongside msg.IsRequestSent.
func isOtherSent(m msg.Message) bool {
	switch m.(type) {
	case msg.CreateEntityResponseSent, msg.CreateEntityErrorSent,
		msg.EntityMethodResponseSent, msg.EntityMethodErrorSent:
		return true
	default:
		return false
	}
}

// spawnInitiator starts the task for a CreateEntityRequestReceived or
// EntityMethodRequestReceived initiator message.
func (e *Engine[T]) spawnInitiator(m msg.Message) (*task, initiatorKind, error) {
	switch im := m.(type) {
	case msg.CreateEntityRequestReceived:
		t := newTask(func(tc *TaskContext) (any, error) {
			return nil, e.typ.Construct(tc, e.subject, im.Args, im.Kwargs)
		})
		return t, initiatorCreate, nil

	case msg.EntityMethodRequestReceived:
		fn, ok := e.typ.MethodFunc(im.MethodID)
		if !ok {
			return nil, 0, &entity.UnknownMethod{TypeName: e.typ.TypeName(), MethodID: im.MethodID, Reason: "not declared on the subject's type"}
		}
		t := newTask(func(tc *TaskContext) (any, error) {
			return fn(tc, e.subject, im.Args, im.Kwargs)
		})
		return t, initiatorMethod, nil

	default:
		return nil, 0, fmt.Errorf("engine: %T is not an initiator message", m)
	}
}

// resumeValueFor builds the value a pending task is resumed with from an
// inbound response/error-received message.
func (e *Engine[T]) resumeValueFor(m msg.Message, pt *pendingTask) resumeValue {
	switch rm := m.(type) {
	case msg.CreateEntityResponseReceived:
		return resumeValue{response: rm.Response}
	case msg.EntityMethodResponseReceived:
		return resumeValue{response: rm.Response}
	case msg.ServiceMethodResponseReceived:
		return resumeValue{response: rm.Response}
	case msg.CreateEntityErrorReceived:
		return resumeValue{err: e.errReg.Reconstruct(rm.ErrorType, rm.Args, rm.Kwargs)}
	case msg.EntityMethodErrorReceived:
		return resumeValue{err: e.errReg.Reconstruct(rm.ErrorType, rm.Args, rm.Kwargs)}
	case msg.ServiceMethodErrorReceived:
		return resumeValue{err: &entity.ForeignError{ServiceType: pt.lastServiceType, Cause: rm.Err}}
	default:
		return resumeValue{err: fmt.Errorf("engine: %T is not a response/error-received message", m)}
	}
}

// stepTask advances t to its next suspend or termination point and returns
// the messages that outcome produces, allocating fresh offsets from
// counter as needed. A non-nil error here always aborts the enclosing
// Complete call — it is either a *entity.ForeignError (which Complete
// reports as UncaughtForeignError via abortToCallerError) or an
// OrphanedError, both engine-level failures rather than ordinary task
// outcomes.
func (e *Engine[T]) stepTask(t *task, initiatorOffset entity.Offset, kind initiatorKind, counter *entity.Offset, pending map[entity.Offset]*pendingTask) ([]msg.Message, error) {
	evt := <-t.events

	if evt.suspended != nil {
		s := evt.suspended
		reqOffset := allocOffset(counter)

		var out msg.Message
		switch s.kind {
		case requestCreateEntity:
			out = msg.CreateEntityRequestSent{
				Offset: reqOffset, TraceOffset: initiatorOffset,
				EntityType: s.entityType, Args: s.args, Kwargs: s.kwargs,
			}
		case requestCallEntity:
			out = msg.EntityMethodRequestSent{
				Offset: reqOffset, TraceOffset: initiatorOffset,
				Receiver: s.receiver, MethodID: s.methodID, Args: s.args, Kwargs: s.kwargs,
			}
		case requestCallService:
			out = msg.ServiceMethodRequestSent{
				Offset: reqOffset, TraceOffset: initiatorOffset,
				ServiceType: s.serviceType, MethodID: s.methodID, Args: s.args, Kwargs: s.kwargs,
			}
		}

		pending[reqOffset] = &pendingTask{
			t: t, initiatorOffset: initiatorOffset, kind: kind, lastServiceType: s.serviceType,
		}
		return []msg.Message{out}, nil
	}

	if evt.err == nil {
		respOffset := allocOffset(counter)
		resp := e.buildResponseSent(kind, respOffset, initiatorOffset, evt.response)
		snapOffset := allocOffset(counter)
		snap := msg.EntityStateChanged{Offset: snapOffset, State: e.typ.Snapshot(e.subject)}
		return []msg.Message{resp, snap}, nil
	}

	var domainErr entity.DomainError
	if errors.As(evt.err, &domainErr) {
		errOffset := allocOffset(counter)
		errMsg := e.buildErrorSent(kind, errOffset, initiatorOffset, domainErr)
		if kind == initiatorMethod {
			snapOffset := allocOffset(counter)
			snap := msg.EntityStateChanged{Offset: snapOffset, State: e.typ.Snapshot(e.subject)}
			return []msg.Message{errMsg, snap}, nil
		}
		return []msg.Message{errMsg}, nil
	}

	var foreignErr *entity.ForeignError
	if errors.As(evt.err, &foreignErr) {
		return nil, foreignErr
	}

	return nil, &entity.OrphanedError{Cause: evt.err}
}

func (e *Engine[T]) buildResponseSent(kind initiatorKind, offset, requestOffset entity.Offset, response any) msg.Message {
	if kind == initiatorCreate {
		return msg.CreateEntityResponseSent{Offset: offset, RequestOffset: requestOffset}
	}
	return msg.EntityMethodResponseSent{Offset: offset, RequestOffset: requestOffset, Response: response}
}

func (e *Engine[T]) buildErrorSent(kind initiatorKind, offset, requestOffset entity.Offset, de entity.DomainError) msg.Message {
	if kind == initiatorCreate {
		return msg.CreateEntityErrorSent{
			Offset: offset, RequestOffset: requestOffset,
			ErrorType: de.ErrorType(), Args: de.ErrorArgs(), Kwargs: de.ErrorKwargs(),
		}
	}
	return msg.EntityMethodErrorSent{
		Offset: offset, RequestOffset: requestOffset,
		ErrorType: de.ErrorType(), Args: de.ErrorArgs(), Kwargs: de.ErrorKwargs(),
	}
}

// allocOffset returns counter's current value as the newly allocated offset
// and advances counter by one, so counter always holds the next free offset.
func allocOffset(counter *entity.Offset) entity.Offset {
	o := *counter
	*counter = o + 1
	return o
}

// abortToCallerError converts a ForeignError that escaped a task into the
// UncaughtForeignError surfaced to Complete's caller — the message model
// has no outbound variant for a service-origin error, so the engine cannot
// route it as context and instead fails the call directly.
func abortToCallerError(err error) error {
	var foreignErr *entity.ForeignError
	if errors.As(err, &foreignErr) {
		return &entity.UncaughtForeignError{ServiceType: foreignErr.ServiceType, Cause: foreignErr.Cause}
	}
	return err
}
