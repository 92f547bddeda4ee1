package taskdata

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestEmpty(t *testing.T) {
	ctx := context.Background()

	opt, ok := GetOptional[string](ctx, "key")
	require.False(t, ok)
	require.Nil(t, opt)

	_, err := Get[string](ctx, "key")
	require.Error(t, err)
}

func TestSetAndGet(t *testing.T) {
	ctx := Set(context.Background(), "key", "value")

	opt, ok := GetOptional[string](ctx, "key")
	require.True(t, ok)
	require.Equal(t, "value", *opt)

	val, err := Get[string](ctx, "key")
	require.NoError(t, err)
	require.Equal(t, "value", val)
}

func TestWrongTypeRequested(t *testing.T) {
	ctx := Set(context.Background(), "key", "value")

	_, ok := GetOptional[int](ctx, "key")
	require.False(t, ok)

	_, err := Get[int](ctx, "key")
	require.Error(t, err)
}

func TestChildInheritsParentData(t *testing.T) {
	parent := Set(context.Background(), "key1", "value1")
	parent = Set(parent, "key2", "value2")

	child, cancel := context.WithCancel(parent)
	defer cancel()

	v1, err := Get[string](child, "key1")
	require.NoError(t, err)
	require.Equal(t, "value1", v1)

	v2, err := Get[string](child, "key2")
	require.NoError(t, err)
	require.Equal(t, "value2", v2)
}

func TestChildChangesDoNotLeakUp(t *testing.T) {
	parent := Set(context.Background(), "key1", "value1")
	parent = Set(parent, "key2", "value2")

	child := Set(parent, "key1", "other1")
	child = Set(child, "key3", "value3")

	// The parent keeps its own view.
	v1, err := Get[string](parent, "key1")
	require.NoError(t, err)
	require.Equal(t, "value1", v1)

	_, err = Get[string](parent, "key3")
	require.Error(t, err)

	// The child sees its overrides plus the inherited rest.
	c1, err := Get[string](child, "key1")
	require.NoError(t, err)
	require.Equal(t, "other1", c1)

	c2, err := Get[string](child, "key2")
	require.NoError(t, err)
	require.Equal(t, "value2", c2)

	c3, err := Get[string](child, "key3")
	require.NoError(t, err)
	require.Equal(t, "value3", c3)
}

func TestOverwriteInSameContextChain(t *testing.T) {
	ctx := Set(context.Background(), "key", 1)
	ctx = Set(ctx, "key", 2)

	val, err := Get[int](ctx, "key")
	require.NoError(t, err)
	require.Equal(t, 2, val)
}
