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

// Scenario 6: cleanup after two completed initiator trees.
func TestCleanupPrunesResolvedSubtrees(t *testing.T) {
	e := engine.NewEngine[counter.PetStore, []entity.Ref](counter.PetStoreType)

	_, err := e.Complete([]msg.Message{
		msg.CreateEntityRequestReceived{Offset: 0, Args: entity.Args{"Box"}},
	})
	require.NoError(t, err)

	box := entity.Ref{TypeName: "Pet", Key: "box-key"}
	input := append(e.Context(), msg.CreateEntityResponseReceived{Offset: 2, RequestOffset: 1, Response: box})
	_, err = e.Complete(input)
	require.NoError(t, err)

	input = append(e.Context(), msg.EntityMethodRequestReceived{
		Offset: 5, MethodID: "add_pet", Args: entity.Args{"Rex"},
	})
	_, err = e.Complete(input)
	require.NoError(t, err)

	rex := entity.Ref{TypeName: "Pet", Key: "rex-key"}
	input = append(e.Context(), msg.CreateEntityResponseReceived{Offset: 7, RequestOffset: 6, Response: rex})
	_, err = e.Complete(input)
	require.NoError(t, err)

	before := e.Context()
	require.Len(t, before, 10)

	pruned := e.Cleanup()
	assert.Len(t, pruned, 9)
	assert.Equal(t, []msg.Message{
		msg.EntityStateChanged{Offset: 9, State: []entity.Ref{box, rex}},
	}, e.Context())

	// cleanup preserves replayability: the surviving context is still a
	// valid full context, and replaying it produces nothing new.
	out, err := e.Complete(e.Context())
	require.NoError(t, err)
	assert.Empty(t, out)
}

// Cleanup on a context with no fully-resolved initiator subtree prunes
// nothing, and the context remains trivially replayable.
func TestCleanupIsNoopWithoutResolvedSubtree(t *testing.T) {
	e := engine.NewEngine[counter.Counter, int](counter.Type,
		engine.WithErrorRegistry[counter.Counter](counter.ErrorRegistry()),
	)
	_, err := e.Complete([]msg.Message{
		msg.EntityStateChanged{Offset: 0, State: 10},
	})
	require.NoError(t, err)

	pruned := e.Cleanup()
	assert.Empty(t, pruned)
	assert.Len(t, e.Context(), 1)

	out, err := e.Complete(e.Context())
	require.NoError(t, err)
	assert.Empty(t, out)
}
