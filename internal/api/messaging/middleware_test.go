package messaging

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var fastRetry = RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: 5 * time.Millisecond}

type dlqStub struct {
	calls int
	err   error
	cause error
}

func (d *dlqStub) PublishToDLQ(_ context.Context, _, _ []byte, cause error) error {
	d.calls++
	d.cause = cause
	return d.err
}

func TestWithRetry(t *testing.T) {
	ctx := context.Background()

	t.Run("should succeed after transient failures", func(t *testing.T) {
		attempts := 0
		handler := WithRetry(func(context.Context, []byte, []byte) error {
			attempts++
			if attempts < 3 {
				return errors.New("opensearch unavailable")
			}
			return nil
		}, fastRetry)

		assert.NoError(t, handler(ctx, nil, nil))
		assert.Equal(t, 3, attempts)
	})

	t.Run("should give up after max attempts", func(t *testing.T) {
		attempts := 0
		handler := WithRetry(func(context.Context, []byte, []byte) error {
			attempts++
			return errors.New("opensearch unavailable")
		}, fastRetry)

		err := handler(ctx, nil, nil)

		assert.ErrorIs(t, err, ErrMaxRetriesExceeded)
		assert.Equal(t, 3, attempts)
	})

	t.Run("should not retry permanent failures", func(t *testing.T) {
		attempts := 0
		handler := WithRetry(func(context.Context, []byte, []byte) error {
			attempts++
			return fmt.Errorf("decode envelope: %w", ErrPermanent)
		}, fastRetry)

		err := handler(ctx, nil, nil)

		assert.ErrorIs(t, err, ErrPermanent)
		assert.Equal(t, 1, attempts)
	})

	t.Run("should stop when context is cancelled", func(t *testing.T) {
		cctx, cancel := context.WithCancel(ctx)
		handler := WithRetry(func(context.Context, []byte, []byte) error {
			cancel()
			return errors.New("boom")
		}, RetryConfig{MaxAttempts: 3, InitialBackoff: time.Second, MaxBackoff: time.Second})

		assert.ErrorIs(t, handler(cctx, nil, nil), context.Canceled)
	})
}

func TestWithDLQ(t *testing.T) {
	ctx := context.Background()

	t.Run("should park failed message and swallow the error", func(t *testing.T) {
		dlq := &dlqStub{}
		cause := errors.New("mapping conflict")

		err := WithDLQ(func(context.Context, []byte, []byte) error { return cause }, dlq)(ctx, []byte("k"), []byte("v"))

		assert.NoError(t, err)
		assert.Equal(t, 1, dlq.calls)
		assert.Equal(t, cause, dlq.cause)
	})

	t.Run("should return error when DLQ is unavailable", func(t *testing.T) {
		dlq := &dlqStub{err: errors.New("broker down")}

		err := WithDLQ(func(context.Context, []byte, []byte) error { return errors.New("mapping conflict") }, dlq)(ctx, nil, nil)

		assert.ErrorContains(t, err, "broker down")
	})

	t.Run("should not touch DLQ on success", func(t *testing.T) {
		dlq := &dlqStub{}

		assert.NoError(t, WithDLQ(func(context.Context, []byte, []byte) error { return nil }, dlq)(ctx, nil, nil))
		assert.Zero(t, dlq.calls)
	})
}

type workerStub struct {
	messages [][]byte
	closed   bool
}

func (w *workerStub) Start(ctx context.Context, handler MessageHandler) error {
	for _, m := range w.messages {
		if err := handler(ctx, nil, m); err != nil {
			return err
		}
	}
	return nil
}

func (w *workerStub) Close() error {
	w.closed = true
	return nil
}

func TestRunner_Start(t *testing.T) {
	first := &workerStub{messages: [][]byte{[]byte("a"), []byte("b")}}
	second := &workerStub{messages: [][]byte{[]byte("c")}}

	seen := make(chan string, 3)
	runner := NewRunner([]Worker{first, second}, func(_ context.Context, _, value []byte) error {
		seen <- string(value)
		return nil
	})

	assert.NoError(t, runner.Start(context.Background()))
	close(seen)

	var got []string
	for v := range seen {
		got = append(got, v)
	}
	assert.ElementsMatch(t, []string{"a", "b", "c"}, got)
	assert.True(t, first.closed)
	assert.True(t, second.closed)
}

type panickingWorker struct{ closed bool }

func (w *panickingWorker) Start(context.Context, MessageHandler) error { panic("boom") }

func (w *panickingWorker) Close() error {
	w.closed = true
	return nil
}

func TestRunner_StartRecoversPanic(t *testing.T) {
	w := &panickingWorker{}

	err := NewRunner([]Worker{w}, func(context.Context, []byte, []byte) error { return nil }).
		Start(context.Background())

	assert.ErrorContains(t, err, "worker 0 panicked: boom")
	assert.True(t, w.closed)
}
