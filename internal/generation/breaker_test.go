package generation

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withFakeClock(t *testing.T) *time.Time {
	t.Helper()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	timeNow = func() time.Time { return now }
	t.Cleanup(func() { timeNow = time.Now })
	return &now
}

func TestBreaker_OpensAtThreshold(t *testing.T) {
	withFakeClock(t)
	b := NewBreaker(3, time.Minute)

	assert.Equal(t, StateClosed, b.State())

	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())
}

func TestBreaker_SuccessResetsFailureCount(t *testing.T) {
	withFakeClock(t)
	b := NewBreaker(3, time.Minute)

	b.RecordFailure()
	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()
	b.RecordFailure()
	assert.Equal(t, StateClosed, b.State())
}

func TestBreaker_HalfOpenProbe(t *testing.T) {
	now := withFakeClock(t)
	b := NewBreaker(1, time.Minute)

	b.RecordFailure()
	require.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	// After the recovery timeout exactly one probe is admitted.
	*now = now.Add(2 * time.Minute)
	assert.True(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.False(t, b.Allow(), "second request during probe must be rejected")

	// Probe success closes the circuit.
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_HalfOpenFailureReopens(t *testing.T) {
	now := withFakeClock(t)
	b := NewBreaker(1, time.Minute)

	b.RecordFailure()
	*now = now.Add(2 * time.Minute)
	require.True(t, b.Allow())

	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.False(t, b.Allow())

	// The failed probe restarts the full recovery timeout.
	*now = now.Add(30 * time.Second)
	assert.False(t, b.Allow())
	*now = now.Add(31 * time.Second)
	assert.True(t, b.Allow())
}

type stubGenerator struct {
	response string
	err      error
	calls    int
}

func (s *stubGenerator) Generate(ctx context.Context, messages []Message) (string, error) {
	s.calls++
	if s.err != nil {
		return "", s.err
	}
	return s.response, nil
}

func TestResilientGenerator_FailsFastWhenOpen(t *testing.T) {
	withFakeClock(t)
	stub := &stubGenerator{err: errors.New("backend down")}
	g := NewResilientGenerator(stub, NewBreaker(2, time.Minute), nil)
	ctx := context.Background()
	messages := []Message{{Role: RoleUser, Content: "hi"}}

	_, err := g.Generate(ctx, messages)
	require.Error(t, err)
	_, err = g.Generate(ctx, messages)
	require.Error(t, err)
	assert.Equal(t, 2, stub.calls)
	assert.Equal(t, StateOpen, g.BreakerState())

	// Circuit open: the backend is not called again.
	_, err = g.Generate(ctx, messages)
	assert.ErrorIs(t, err, ErrUnavailable)
	assert.Equal(t, 2, stub.calls)
}

func TestResilientGenerator_RecoversThroughProbe(t *testing.T) {
	now := withFakeClock(t)
	stub := &stubGenerator{err: errors.New("backend down")}
	g := NewResilientGenerator(stub, NewBreaker(1, time.Minute), nil)
	ctx := context.Background()
	messages := []Message{{Role: RoleUser, Content: "hi"}}

	_, err := g.Generate(ctx, messages)
	require.Error(t, err)
	require.Equal(t, StateOpen, g.BreakerState())

	// Backend recovers; after the timeout the probe succeeds and closes
	// the circuit.
	stub.err = nil
	stub.response = "hello"
	*now = now.Add(2 * time.Minute)

	text, err := g.Generate(ctx, messages)
	require.NoError(t, err)
	assert.Equal(t, "hello", text)
	assert.Equal(t, StateClosed, g.BreakerState())
}
