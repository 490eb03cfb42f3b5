package request

import (
	"context"
)

// Result is the typed outcome of a Task. Token is the caller's correlation
// value, returned unchanged.
type Result[T, C any] struct {
	Success      bool
	Payload      T
	ErrorMessage string
	Token        C
}

// Err returns nil on success and a *Failure otherwise.
func (r Result[T, C]) Err() error {
	if r.Success {
		return nil
	}
	return &Failure{Message: r.ErrorMessage}
}

// Task is a call in flight. It always resolves, exactly once.
type Task[T, C any] struct {
	done   chan struct{}
	result Result[T, C]
}

// Done is closed once the result is available.
func (t *Task[T, C]) Done() <-chan struct{} {
	return t.done
}

// Wait blocks until the call has resolved.
func (t *Task[T, C]) Wait() Result[T, C] {
	<-t.done
	return t.result
}

// Go starts a call whose payload is decoded into T. opts.OnComplete and
// opts.Context are replaced by the task. A payload that does not decode into
// T turns the result into a failure.
func Go[T, C any](ctx context.Context, c *Client, endpoint string, opts Options, token C) (*Task[T, C], error) {
	t := &Task[T, C]{done: make(chan struct{})}

	opts.Context = token
	opts.OnComplete = func(comp Completion) {
		t.result = resultOf[T](comp, token)
		close(t.done)
	}

	if err := c.Send(ctx, endpoint, opts); err != nil {
		return nil, err
	}
	return t, nil
}

// Fetch performs a call and decodes its payload into T. Failures come back as
// *Failure carrying the server or transport message; malformed arguments wrap
// ErrInvalidRequest.
func Fetch[T any](ctx context.Context, c *Client, endpoint string, opts Options) (T, error) {
	var zero T

	comp, err := c.Do(ctx, endpoint, opts)
	if err != nil {
		return zero, err
	}
	r := resultOf[T](comp, struct{}{})
	if !r.Success {
		return zero, r.Err()
	}
	return r.Payload, nil
}

func resultOf[T, C any](comp Completion, token C) Result[T, C] {
	r := Result[T, C]{Token: token}
	if !comp.Success {
		r.ErrorMessage = comp.ErrorMessage
		return r
	}

	var payload T
	if err := comp.Decode(&payload); err != nil {
		r.ErrorMessage = err.Error()
		return r
	}
	r.Success = true
	r.Payload = payload
	return r
}
