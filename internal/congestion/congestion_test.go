package congestion

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestUnlimitedByDefault(t *testing.T) {
	c := New(0)
	require.Equal(t, 0, c.Limit())

	start := time.Now()
	for i := 0; i < 1000; i++ {
		c.Acquire()
	}
	require.Less(t, time.Since(start), time.Second)
}

func TestAcquirePacesCalls(t *testing.T) {
	c := New(100)
	require.Equal(t, 100, c.Limit())

	c.Acquire() // first take is free
	start := time.Now()
	for i := 0; i < 10; i++ {
		c.Acquire()
	}
	// 10 takes at 100 rps need roughly 100ms.
	require.GreaterOrEqual(t, time.Since(start), 50*time.Millisecond)
}

func TestSetLimitSwapsGate(t *testing.T) {
	c := New(1)
	c.SetLimit(0)
	require.Equal(t, 0, c.Limit())

	start := time.Now()
	for i := 0; i < 100; i++ {
		c.Acquire()
	}
	require.Less(t, time.Since(start), time.Second)

	c.SetLimit(250)
	require.Equal(t, 250, c.Limit())
}
