package history

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestPushFrontOrdersMostRecentFirst(t *testing.T) {
	b := NewBuffer(5)
	b.PushFront("first")
	b.PushFront("second")
	b.PushFront("third")

	require.Equal(t, []string{"third", "second", "first"}, b.Items())
	require.Equal(t, 3, b.Len())
}

func TestPushFrontEvictsOldestAtCapacity(t *testing.T) {
	// Pushing N > C items must leave exactly the C most recent, newest first.
	for _, capacity := range []int{1, 3, 10} {
		t.Run(fmt.Sprintf("capacity_%d", capacity), func(t *testing.T) {
			b := NewBuffer(capacity)
			n := capacity*2 + 3
			for i := 0; i < n; i++ {
				b.PushFront(fmt.Sprintf("item-%d", i))
			}

			require.Equal(t, capacity, b.Len())
			items := b.Items()
			for j, item := range items {
				require.Equal(t, fmt.Sprintf("item-%d", n-1-j), item)
			}
		})
	}
}

func TestPopOldest(t *testing.T) {
	b := NewBuffer(10)
	b.PushFront("CMD_B")
	b.PushFront("CMD_A")

	item, ok := b.PopOldest()
	require.True(t, ok)
	require.Equal(t, "CMD_B", item)
	require.Equal(t, []string{"CMD_A"}, b.Items())
}

func TestPopOldestEmpty(t *testing.T) {
	b := NewBuffer(10)
	item, ok := b.PopOldest()
	require.False(t, ok)
	require.Empty(t, item)
	require.Zero(t, b.Len())
}

func TestItemsReturnsCopy(t *testing.T) {
	b := NewBuffer(3)
	b.PushFront("one")
	items := b.Items()
	items[0] = "mutated"
	require.Equal(t, []string{"one"}, b.Items())
}

func TestCapacityClamp(t *testing.T) {
	b := NewBuffer(0)
	require.Equal(t, 1, b.Cap())
	b.PushFront("a")
	b.PushFront("b")
	require.Equal(t, []string{"b"}, b.Items())
}
