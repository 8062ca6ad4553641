package msg_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runa-systems/entityengine/entity"
	"github.com/runa-systems/entityengine/msg"
)

func TestIsInitiator(t *testing.T) {
	assert.True(t, msg.IsInitiator(msg.CreateEntityRequestReceived{Offset: 0}))
	assert.True(t, msg.IsInitiator(msg.EntityMethodRequestReceived{Offset: 0}))
	assert.False(t, msg.IsInitiator(msg.EntityStateChanged{Offset: 0}))
}

func TestIsRequestSentCoversAllThreeKinds(t *testing.T) {
	assert.True(t, msg.IsRequestSent(msg.CreateEntityRequestSent{Offset: 0}))
	assert.True(t, msg.IsRequestSent(msg.EntityMethodRequestSent{Offset: 0}))
	assert.True(t, msg.IsRequestSent(msg.ServiceMethodRequestSent{Offset: 0}))
	assert.False(t, msg.IsRequestSent(msg.CreateEntityResponseSent{Offset: 0}))
}

func TestRequestOffsetOf(t *testing.T) {
	off, ok := msg.RequestOffsetOf(msg.EntityMethodResponseReceived{Offset: 3, RequestOffset: 2})
	assert.True(t, ok)
	assert.Equal(t, entity.Offset(2), off)

	_, ok = msg.RequestOffsetOf(msg.EntityStateChanged{Offset: 0})
	assert.False(t, ok)

	_, ok = msg.RequestOffsetOf(msg.CreateEntityRequestSent{Offset: 0})
	assert.False(t, ok)
}

func TestEqualComparesStructurally(t *testing.T) {
	a := msg.CreateEntityRequestSent{Offset: 1, TraceOffset: 0, EntityType: "Pet", Args: entity.Args{"Box"}}
	b := msg.CreateEntityRequestSent{Offset: 1, TraceOffset: 0, EntityType: "Pet", Args: entity.Args{"Box"}}
	c := msg.CreateEntityRequestSent{Offset: 1, TraceOffset: 0, EntityType: "Pet", Args: entity.Args{"Crate"}}

	assert.True(t, msg.Equal(a, b))
	assert.False(t, msg.Equal(a, c))
	assert.False(t, msg.Equal(a, msg.EntityStateChanged{Offset: 1}))
}
