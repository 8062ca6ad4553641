package engine

import (
	"github.com/runa-systems/entityengine/entity"
)

// requestKind identifies which of the three interception calls a task
// suspended on.
type requestKind int

const (
	requestCreateEntity requestKind = iota
	requestCallEntity
	requestCallService
)

// suspension describes the interception call a task blocked on, in enough
// detail for the engine to build the corresponding *RequestSent message
// once it assigns the real offset and trace offset — the task itself never
// allocates offsets, since only the engine's single monotonic counter may.
type suspension struct {
	kind        requestKind
	entityType  string
	receiver    entity.Ref
	serviceType string
	methodID    string
	args        entity.Args
	kwargs      entity.Kwargs
}

// taskEvent is sent from a task's goroutine back to the engine.
type taskEvent struct {
	suspended  *suspension
	done       bool
	response   any
	err        error
}

// resumeValue is sent from the engine into a blocked task, either carrying
// the awaited response or injecting an error to be observed exactly where
// the task called out.
type resumeValue struct {
	response any
	err      error
}

// task is a one-shot, stackful unit of user code backed by a goroutine. The
// engine and the task strictly alternate turns over events/resume, so
// neither side needs a lock around anything it touches while the other is
// running — this reproduces the single-active-task guarantee of the
// original greenlet-based implementation without a scheduler.
type task struct {
	events chan taskEvent
	resume chan resumeValue
	tc     *TaskContext
}

// newTask starts body running on its own goroutine and returns the handle
// the engine uses to step it. body is expected to call tc's methods to
// suspend; its eventual (response, err) return is delivered as a final
// taskEvent with done set.
func newTask(run func(tc *TaskContext) (any, error)) *task {
	t := &task{
		events: make(chan taskEvent),
		resume: make(chan resumeValue),
	}
	t.tc = &TaskContext{t: t}
	go func() {
		resp, err := t.runRecovered(run)
		t.events <- taskEvent{done: true, response: resp, err: err}
	}()
	return t
}

// runRecovered converts a panicking method body into an OrphanedError
// rather than crashing the process — user code is expected to signal
// failure by returning an error, so a panic indicates either a genuine bug
// or a misuse of the entity contract (e.g. a nil subject).
func (t *task) runRecovered(run func(tc *TaskContext) (any, error)) (resp any, err error) {
	defer func() {
		if r := recover(); r != nil {
			err = &entity.OrphanedError{Cause: r}
		}
	}()
	return run(t.tc)
}

// TaskContext is the sole capability an entity's constructor or method body
// receives. It has no exported fields, so — unlike the original's global,
// installed-and-uninstalled monkey-patch — it cannot be retained and used
// outside the goroutine it was built for; the capability simply does not
// exist anywhere else. This eliminates the "leaked capability outlives its
// task" hazard the source's Design Notes warn about, by construction rather
// than by runtime discipline.
type TaskContext struct {
	t *task
}

// suspend hands an interception request to the engine and blocks until the
// engine resumes this task with either a response or an injected error.
// Because Go functions return (value, error) pairs natively, observing an
// injected error needs no panic/recover: it is simply the second return
// value, exactly like any other fallible call.
func (tc *TaskContext) suspend(s suspension) (any, error) {
	tc.t.events <- taskEvent{suspended: &s}
	rv := <-tc.t.resume
	return rv.response, rv.err
}

// CreateEntity asks the engine to construct a new peer entity of the named
// type and blocks until that construction completes or fails. The returned
// Ref is opaque — this task never receives the peer's actual Go value,
// since the peer may be constructed by an entirely different engine.
func (tc *TaskContext) CreateEntity(entityType string, args entity.Args, kwargs entity.Kwargs) (entity.Ref, error) {
	resp, err := tc.suspend(suspension{
		kind:       requestCreateEntity,
		entityType: entityType,
		args:       args,
		kwargs:     kwargs,
	})
	if err != nil {
		return entity.Ref{}, err
	}
	ref, _ := resp.(entity.Ref)
	return ref, nil
}

// CallEntity invokes a public method on a peer entity. The method name is
// validated against the process-wide type registry before anything
// suspends — an unknown type or a method never declared public fails
// immediately with PrivateState/UnknownMethod, matching the original's
// __getattribute__-time check rather than a failure discovered only after
// round-tripping a message.
func (tc *TaskContext) CallEntity(receiver entity.Ref, methodID string, args entity.Args, kwargs entity.Kwargs) (any, error) {
	if err := entity.ResolveMethod(receiver.TypeName, methodID); err != nil {
		return nil, err
	}
	return tc.suspend(suspension{
		kind:     requestCallEntity,
		receiver: receiver,
		methodID: methodID,
		args:     args,
		kwargs:   kwargs,
	})
}

// CallService invokes a method on an external service, validated the same
// way as CallEntity against the service type registry.
func (tc *TaskContext) CallService(serviceType, methodID string, args entity.Args, kwargs entity.Kwargs) (any, error) {
	if err := entity.ResolveServiceMethod(serviceType, methodID); err != nil {
		return nil, err
	}
	return tc.suspend(suspension{
		kind:        requestCallService,
		serviceType: serviceType,
		methodID:    methodID,
		args:        args,
		kwargs:      kwargs,
	})
}
