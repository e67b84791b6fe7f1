package circuitbreaker

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var errBoom = errors.New("boom")

func TestExecute_StaysClosedOnSuccess(t *testing.T) {
	cb := New("test")

	for i := 0; i < 10; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return nil })
		require.NoError(t, err)
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.True(t, cb.IsClosed())

	counts := cb.Counts()
	assert.Equal(t, 10, counts.Requests)
	assert.Equal(t, 10, counts.TotalSuccesses)
	assert.Equal(t, 0, counts.TotalFailures)
}

func TestExecute_OpensAfterFailureThreshold(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))
	fail := func(context.Context) error { return errBoom }

	for i := 0; i < 2; i++ {
		err := cb.Execute(context.Background(), fail)
		assert.ErrorIs(t, err, errBoom)
		assert.Equal(t, StateClosed, cb.State())
	}

	err := cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())
	assert.True(t, cb.IsOpen())

	// Requests are rejected outright while open.
	err = cb.Execute(context.Background(), fail)
	assert.ErrorIs(t, err, ErrCircuitOpen)
}

func TestExecute_SuccessResetsConsecutiveFailures(t *testing.T) {
	cb := New("test", WithFailureThreshold(3))
	fail := func(context.Context) error { return errBoom }
	ok := func(context.Context) error { return nil }

	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), ok)
	_ = cb.Execute(context.Background(), fail)
	_ = cb.Execute(context.Background(), fail)

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 2, cb.Counts().ConsecutiveFailures)
}

func TestExecute_HalfOpenRecovery(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(5),
	)

	err := cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.ErrorIs(t, err, errBoom)
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	ok := func(context.Context) error { return nil }

	// First probe moves the circuit to half-open.
	require.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateHalfOpen, cb.State())

	// Second success meets the threshold and closes the circuit.
	require.NoError(t, cb.Execute(context.Background(), ok))
	assert.Equal(t, StateClosed, cb.State())
}

func TestExecute_HalfOpenFailureReopens(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
	)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	err := cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	assert.ErrorIs(t, err, errBoom)
	assert.Equal(t, StateOpen, cb.State())
}

func TestExecute_HalfOpenLimitsConcurrentProbes(t *testing.T) {
	cb := New("test",
		WithFailureThreshold(1),
		WithTimeout(10*time.Millisecond),
		WithMaxHalfOpenRequests(1),
	)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	time.Sleep(20 * time.Millisecond)

	// Hold the single half-open slot while a second request arrives.
	started := make(chan struct{})
	release := make(chan struct{})
	done := make(chan error, 1)
	go func() {
		done <- cb.Execute(context.Background(), func(context.Context) error {
			close(started)
			<-release
			return nil
		})
	}()

	<-started
	err := cb.Execute(context.Background(), func(context.Context) error { return nil })
	assert.ErrorIs(t, err, ErrTooManyRequests)

	close(release)
	require.NoError(t, <-done)
}

func TestExecuteWithFallback(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	fallbackCalled := false
	err := cb.ExecuteWithFallback(context.Background(),
		func(context.Context) error { return nil },
		func(cause error) error {
			fallbackCalled = true
			assert.ErrorIs(t, cause, ErrCircuitOpen)
			return nil
		},
	)

	assert.NoError(t, err)
	assert.True(t, fallbackCalled)
}

func TestExecuteWithFallback_PassesThroughOperationErrors(t *testing.T) {
	cb := New("test", WithFailureThreshold(5))

	err := cb.ExecuteWithFallback(context.Background(),
		func(context.Context) error { return errBoom },
		func(error) error {
			t.Fatal("fallback should not run for ordinary failures")
			return nil
		},
	)

	assert.ErrorIs(t, err, errBoom)
}

func TestWithIsFailure_IgnoresExpectedErrors(t *testing.T) {
	errExpected := errors.New("not found")
	cb := New("test",
		WithFailureThreshold(1),
		WithIsFailure(func(err error) bool {
			return !errors.Is(err, errExpected)
		}),
	)

	for i := 0; i < 5; i++ {
		err := cb.Execute(context.Background(), func(context.Context) error { return errExpected })
		assert.ErrorIs(t, err, errExpected)
	}

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, 5, cb.Counts().TotalSuccesses)
}

func TestOnStateChange(t *testing.T) {
	type transition struct {
		from, to State
	}
	var transitions []transition

	cb := New("watched",
		WithFailureThreshold(1),
		WithSuccessThreshold(1),
		WithTimeout(10*time.Millisecond),
		WithOnStateChange(func(name string, from, to State) {
			assert.Equal(t, "watched", name)
			transitions = append(transitions, transition{from, to})
		}),
	)

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	time.Sleep(20 * time.Millisecond)
	_ = cb.Execute(context.Background(), func(context.Context) error { return nil })

	require.Len(t, transitions, 3)
	assert.Equal(t, transition{StateClosed, StateOpen}, transitions[0])
	assert.Equal(t, transition{StateOpen, StateHalfOpen}, transitions[1])
	assert.Equal(t, transition{StateHalfOpen, StateClosed}, transitions[2])
}

func TestReset(t *testing.T) {
	cb := New("test", WithFailureThreshold(1))

	_ = cb.Execute(context.Background(), func(context.Context) error { return errBoom })
	require.Equal(t, StateOpen, cb.State())

	cb.Reset()

	assert.Equal(t, StateClosed, cb.State())
	assert.Equal(t, Counts{}, cb.Counts())
	assert.NoError(t, cb.Execute(context.Background(), func(context.Context) error { return nil }))
}

func TestStateString(t *testing.T) {
	assert.Equal(t, "closed", StateClosed.String())
	assert.Equal(t, "open", StateOpen.String())
	assert.Equal(t, "half-open", StateHalfOpen.String())
	assert.Equal(t, "unknown", State(42).String())
}

func TestPresets(t *testing.T) {
	ai := AIServiceBreaker(nil)
	assert.Equal(t, "ai-service", ai.Name())
	assert.Equal(t, StateClosed, ai.State())

	// Opens after exactly three consecutive failures.
	fail := func(context.Context) error { return errBoom }
	_ = ai.Execute(context.Background(), fail)
	_ = ai.Execute(context.Background(), fail)
	assert.Equal(t, StateClosed, ai.State())
	_ = ai.Execute(context.Background(), fail)
	assert.Equal(t, StateOpen, ai.State())

	push := PushBreaker(nil)
	assert.Equal(t, "push-delivery", push.Name())
	for i := 0; i < 5; i++ {
		_ = push.Execute(context.Background(), func(context.Context) error { return errBoom })
	}
	assert.Equal(t, StateOpen, push.State())
}
