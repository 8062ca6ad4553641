package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/runa-systems/entityengine/entity"
)

func TestRefEqual(t *testing.T) {
	a := entity.Ref{TypeName: "Counter", Key: "abc"}
	b := entity.Ref{TypeName: "Counter", Key: "abc"}
	c := entity.Ref{TypeName: "Counter", Key: "xyz"}

	assert.True(t, a.Equal(b))
	assert.False(t, a.Equal(c))
	assert.Equal(t, "Counter(abc)", a.String())
}

func TestNewKeyIsUnique(t *testing.T) {
	assert.NotEqual(t, entity.NewKey(), entity.NewKey())
}
