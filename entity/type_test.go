package entity_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/runa-systems/entityengine/entity"
)

type widget struct {
	Count int
}

func TestNewTypeRejectsMissingConstruct(t *testing.T) {
	_, err := entity.NewType[widget, int]("Widget", nil,
		func(w *widget) int { return w.Count },
		func(w *widget, s int) error { w.Count = s; return nil },
	)
	require.Error(t, err)
	var cv *entity.ContractViolation
	assert.ErrorAs(t, err, &cv)
}

func TestTypeConstructSnapshotRestoreRoundTrip(t *testing.T) {
	typeName := "WidgetRoundTrip"
	ty, err := entity.NewType[widget, int](typeName,
		func(_ entity.Capability, w *widget, args entity.Args, _ entity.Kwargs) error {
			w.Count = args[0].(int)
			return nil
		},
		func(w *widget) int { return w.Count },
		func(w *widget, s int) error { w.Count = s; return nil },
	)
	require.NoError(t, err)

	w := &widget{}
	require.NoError(t, ty.Construct(nil, w, entity.Args{7}, nil))
	assert.Equal(t, 7, w.Count)

	snap := ty.Snapshot(w)
	w2 := &widget{}
	require.NoError(t, ty.Restore(w2, snap))
	assert.Equal(t, w.Count, w2.Count)
}

func TestTypeRestoreRejectsWrongSnapshotType(t *testing.T) {
	ty, err := entity.NewType[widget, int]("WidgetWrongSnapshot",
		func(_ entity.Capability, w *widget, _ entity.Args, _ entity.Kwargs) error { return nil },
		func(w *widget) int { return w.Count },
		func(w *widget, s int) error { w.Count = s; return nil },
	)
	require.NoError(t, err)

	err = ty.Restore(&widget{}, "not-an-int")
	assert.Error(t, err)
}

func TestTypeMethodRegistersOnDescriptorAndResolver(t *testing.T) {
	ty, err := entity.NewType[widget, int]("WidgetWithMethod",
		func(_ entity.Capability, w *widget, _ entity.Args, _ entity.Kwargs) error { return nil },
		func(w *widget) int { return w.Count },
		func(w *widget, s int) error { w.Count = s; return nil },
	)
	require.NoError(t, err)
	ty.Method("bump", func(_ entity.Capability, w *widget, _ entity.Args, _ entity.Kwargs) (any, error) {
		w.Count++
		return nil, nil
	})

	assert.NoError(t, entity.ResolveMethod("WidgetWithMethod", "bump"))

	err = entity.ResolveMethod("WidgetWithMethod", "not-declared")
	var ps *entity.PrivateState
	assert.ErrorAs(t, err, &ps)

	err = entity.ResolveMethod("NoSuchType", "bump")
	var um *entity.UnknownMethod
	assert.ErrorAs(t, err, &um)

	fn, ok := ty.MethodFunc("bump")
	require.True(t, ok)
	w := &widget{}
	_, _ = fn(nil, w, nil, nil)
	assert.Equal(t, 1, w.Count)
}
