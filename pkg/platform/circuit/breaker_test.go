package circuit

import (
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBreakerOpensAfterThreshold(t *testing.T) {
	b := New("scorer", WithFailureThreshold(3), WithClock(clock.NewMock()))

	for i := 0; i < 2; i++ {
		require.NoError(t, b.Allow())
		b.RecordFailure()
	}
	assert.Equal(t, StateClosed, b.State())

	require.NoError(t, b.Allow())
	b.RecordFailure()
	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)
}

func TestBreakerSuccessResetsFailureCount(t *testing.T) {
	b := New("scorer", WithFailureThreshold(2), WithClock(clock.NewMock()))

	b.RecordFailure()
	b.RecordSuccess()
	b.RecordFailure()

	assert.Equal(t, StateClosed, b.State())
}

func TestBreakerHalfOpenProbe(t *testing.T) {
	mock := clock.NewMock()
	var transitions []string
	b := New("scorer",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(10*time.Second),
		WithClock(mock),
		WithStateChange(func(_ string, from, to State) {
			transitions = append(transitions, from.String()+"->"+to.String())
		}),
	)

	b.RecordFailure()
	mock.Add(5 * time.Second)
	assert.ErrorIs(t, b.Allow(), ErrOpen)

	mock.Add(5 * time.Second)
	require.NoError(t, b.Allow())
	assert.Equal(t, StateHalfOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen, "only one probe in flight")

	b.RecordSuccess()
	assert.Equal(t, StateHalfOpen, b.State())
	require.NoError(t, b.Allow())
	b.RecordSuccess()
	assert.Equal(t, StateClosed, b.State())

	assert.Equal(t, []string{"closed->open", "open->half_open", "half_open->closed"}, transitions)
}

func TestBreakerProbeFailureReopens(t *testing.T) {
	mock := clock.NewMock()
	b := New("scorer", WithFailureThreshold(1), WithCooldown(time.Second), WithClock(mock))

	b.RecordFailure()
	mock.Add(time.Second)
	require.NoError(t, b.Allow())
	b.RecordFailure()

	assert.Equal(t, StateOpen, b.State())
	assert.ErrorIs(t, b.Allow(), ErrOpen)

	b.Reset()
	assert.NoError(t, b.Allow())
}
