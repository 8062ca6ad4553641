package engine_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runa-systems/entityengine/engine"
	"github.com/runa-systems/entityengine/entity"
	"github.com/runa-systems/entityengine/examples/counter"
	"github.com/runa-systems/entityengine/msg"
)

// assertOffsetsIncreasing asserts that every message in a context log has a
// strictly greater offset than the one before it.
func assertOffsetsIncreasing(t *testing.T, ms []msg.Message) {
	t.Helper()
	for i := 1; i < len(ms); i++ {
		assert.Greater(t, ms[i].Off(), ms[i-1].Off(), "offsets must be strictly increasing at index %d", i)
	}
}

// Invariant: every message Complete produces, and the cached context it
// commits to, carries strictly monotonically increasing offsets.
func TestOffsetMonotonicity(t *testing.T) {
	e := engine.NewEngine[counter.Counter, int](counter.Type,
		engine.WithErrorRegistry[counter.Counter](counter.ErrorRegistry()),
	)

	out, err := e.Complete([]msg.Message{
		msg.CreateEntityRequestReceived{Offset: 0, Args: entity.Args{10}},
	})
	require.NoError(t, err)
	assertOffsetsIncreasing(t, out)

	input := append(e.Context(), msg.EntityMethodRequestReceived{
		Offset: e.Context()[len(e.Context())-1].Off() + 1, MethodID: "increment", Args: entity.Args{5},
	})
	out, err = e.Complete(input)
	require.NoError(t, err)
	assertOffsetsIncreasing(t, out)
	assertOffsetsIncreasing(t, e.Context())
}

// Invariant: replaying an engine's own full context back into itself is
// idempotent — Complete(Context()) always succeeds and produces nothing new,
// since every message it is given is already cached.
func TestIdempotentReplay(t *testing.T) {
	e := engine.NewEngine[counter.PetStore, []entity.Ref](counter.PetStoreType)

	_, err := e.Complete([]msg.Message{
		msg.CreateEntityRequestReceived{Offset: 0, Args: entity.Args{"Box"}},
	})
	require.NoError(t, err)

	box := entity.Ref{TypeName: "Pet", Key: "box-key"}
	input := append(e.Context(), msg.CreateEntityResponseReceived{Offset: 2, RequestOffset: 1, Response: box})
	_, err = e.Complete(input)
	require.NoError(t, err)

	stateBefore := *e.Subject()
	out, err := e.Complete(e.Context())
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Equal(t, stateBefore, *e.Subject())

	// idempotent replay holds however many times it is repeated.
	out, err = e.Complete(e.Context())
	require.NoError(t, err)
	assert.Empty(t, out)
}

// Invariant: two fresh engines fed the exact same input sequence reach the
// exact same cached context and subject state — Complete has no hidden
// dependency on anything but its arguments and the engine's own prior
// context.
func TestDeterminismAcrossFreshEngines(t *testing.T) {
	run := func() (*engine.Engine[counter.Counter], error) {
		e := engine.NewEngine[counter.Counter, int](counter.Type,
			engine.WithErrorRegistry[counter.Counter](counter.ErrorRegistry()),
		)
		if _, err := e.Complete([]msg.Message{
			msg.CreateEntityRequestReceived{Offset: 0, Args: entity.Args{10}},
		}); err != nil {
			return nil, err
		}
		input := append(e.Context(), msg.EntityMethodRequestReceived{
			Offset: 3, MethodID: "increment", Args: entity.Args{32},
		})
		if _, err := e.Complete(input); err != nil {
			return nil, err
		}
		return e, nil
	}

	e1, err := run()
	require.NoError(t, err)
	e2, err := run()
	require.NoError(t, err)

	assert.Equal(t, e1.Context(), e2.Context())
	assert.Equal(t, *e1.Subject(), *e2.Subject())
}
