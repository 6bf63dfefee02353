package mvc

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestTask(t *testing.T) {
	t.Run("value", func(t *testing.T) {
		task := Go(func() (string, error) { return "done", nil })
		v, err := task.Result()
		require.NoError(t, err)
		assert.Equal(t, "done", v)

		awaited, err := Await(task)
		require.NoError(t, err)
		assert.Equal(t, "done", awaited)
	})

	t.Run("error", func(t *testing.T) {
		boom := errors.New("boom")
		_, err := Go(func() (int, error) { return 0, boom }).Result()
		assert.ErrorIs(t, err, boom)
	})

	t.Run("panic", func(t *testing.T) {
		_, err := Go(func() (int, error) { panic("bad input") }).Result()
		assert.EqualError(t, err, "task panicked: bad input")
	})

	t.Run("completed and failed", func(t *testing.T) {
		v, err := Completed(3).Result()
		require.NoError(t, err)
		assert.Equal(t, 3, v)

		_, err = Failed[int](errors.New("nope")).Await()
		assert.EqualError(t, err, "nope")
	})

	t.Run("nil future", func(t *testing.T) {
		v, err := Await(nil)
		assert.NoError(t, err)
		assert.Nil(t, v)
	})
}
