package mvc

import "fmt"

// Future is the result of an asynchronous action
type Future interface {
	Await() (any, error)
}

// Task is a Future computed on its own goroutine
type Task[T any] struct {
	done  chan struct{}
	value T
	err   error
}

// Go starts fn on a new goroutine. A panic inside fn becomes the task's error.
func Go[T any](fn func() (T, error)) *Task[T] {
	t := &Task[T]{done: make(chan struct{})}
	go func() {
		defer close(t.done)
		defer func() {
			if r := recover(); r != nil {
				t.err = fmt.Errorf("task panicked: %v", r)
			}
		}()
		t.value, t.err = fn()
	}()
	return t
}

// Completed returns a task that already holds value
func Completed[T any](value T) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), value: value}
	close(t.done)
	return t
}

// Failed returns a task that already holds err
func Failed[T any](err error) *Task[T] {
	t := &Task[T]{done: make(chan struct{}), err: err}
	close(t.done)
	return t
}

// Result blocks until the task finishes and returns its typed value
func (t *Task[T]) Result() (T, error) {
	<-t.done
	return t.value, t.err
}

// Await implements Future
func (t *Task[T]) Await() (any, error) {
	return t.Result()
}

// Await blocks the calling goroutine until f completes. It exists so that test code can stay
// synchronous; it has no timeout and no cancellation.
func Await(f Future) (any, error) {
	if f == nil {
		return nil, nil
	}
	return f.Await()
}
