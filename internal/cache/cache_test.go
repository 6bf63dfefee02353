package cache

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCache_BasicOperations(t *testing.T) {
	c := New[string, int]()

	c.Set("key1", 42)
	value, exists := c.Get("key1")
	require.True(t, exists)
	assert.Equal(t, 42, value)

	_, exists = c.Get("nonexistent")
	assert.False(t, exists)

	c.Delete("key1")
	_, exists = c.Get("key1")
	assert.False(t, exists)
}

func TestCache_Clear(t *testing.T) {
	c := New[string, string]()
	c.Set("key1", "value1")
	c.Set("key2", "value2")
	assert.Equal(t, 2, c.Size())

	c.Clear()
	assert.Equal(t, 0, c.Size())
}

func TestCache_GetOrCompute(t *testing.T) {
	c := New[string, int]()
	calls := 0
	compute := func() (int, error) {
		calls++
		return 7, nil
	}

	first, err := c.GetOrCompute("k", compute)
	require.NoError(t, err)
	second, err := c.GetOrCompute("k", compute)
	require.NoError(t, err)

	assert.Equal(t, 7, first)
	assert.Equal(t, 7, second)
	assert.Equal(t, 1, calls)
}

func TestCache_GetOrComputeDoesNotCacheErrors(t *testing.T) {
	c := New[string, int]()
	boom := errors.New("boom")

	_, err := c.GetOrCompute("k", func() (int, error) { return 0, boom })
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, c.Size())

	value, err := c.GetOrCompute("k", func() (int, error) { return 3, nil })
	require.NoError(t, err)
	assert.Equal(t, 3, value)
}

func TestCache_ConcurrentAccess(t *testing.T) {
	c := New[string, int]()
	var wg sync.WaitGroup

	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			key := fmt.Sprintf("key%d", i%5)
			_, _ = c.GetOrCompute(key, func() (int, error) { return i % 5, nil })
		}(i)
	}
	wg.Wait()

	assert.Equal(t, 5, c.Size())
	for i := 0; i < 5; i++ {
		value, ok := c.Get(fmt.Sprintf("key%d", i))
		require.True(t, ok)
		assert.Equal(t, i, value)
	}
}
