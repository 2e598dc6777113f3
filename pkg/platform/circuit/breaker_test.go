package circuit

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestBreaker_StartsClosed(t *testing.T) {
	b := New("sirene")
	assert.Equal(t, "sirene", b.Name())
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

// TestBreaker_Transitions replays sequences of results ('f' failure, 's'
// success) and checks where the circuit ends up and which steps moved it.
//
// Justification: registry fallback depends on the breaker counting
// consecutive results only; a stray success or failure must reset the
// opposite counter.
func TestBreaker_Transitions(t *testing.T) {
	tests := []struct {
		name      string
		failures  int
		successes int
		results   string
		wantOpen  bool
		opensAt   int
		closesAt  int
	}{
		{name: "opens on the threshold failure", failures: 3, successes: 1, results: "fff", wantOpen: true, opensAt: 2, closesAt: -1},
		{name: "success resets the failure run", failures: 3, successes: 1, results: "ffsff", wantOpen: false, opensAt: -1, closesAt: -1},
		{name: "opens after the reset run completes", failures: 3, successes: 1, results: "ffsfff", wantOpen: true, opensAt: 5, closesAt: -1},
		{name: "closes on the threshold success", failures: 1, successes: 2, results: "fss", wantOpen: false, opensAt: 0, closesAt: 2},
		{name: "failure while open resets the success run", failures: 1, successes: 3, results: "fssfss", wantOpen: true, opensAt: 0, closesAt: -1},
		{name: "closes after a full success run", failures: 1, successes: 3, results: "fssfsss", wantOpen: false, opensAt: 0, closesAt: 6},
		{name: "further failures while open change nothing", failures: 1, successes: 1, results: "fff", wantOpen: true, opensAt: 0, closesAt: -1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := New("vies", WithFailureThreshold(tt.failures), WithSuccessThreshold(tt.successes))
			opensAt, closesAt := -1, -1
			for i, r := range tt.results {
				var change StateChange
				if r == 'f' {
					_, change = b.RecordFailure()
				} else {
					_, change = b.RecordSuccess()
				}
				if change.Opened {
					opensAt = i
				}
				if change.Closed {
					closesAt = i
				}
			}
			assert.Equal(t, tt.wantOpen, b.IsOpen())
			assert.Equal(t, tt.opensAt, opensAt, "step that opened the circuit")
			assert.Equal(t, tt.closesAt, closesAt, "step that closed the circuit")
		})
	}
}

func TestBreaker_FallbackSignals(t *testing.T) {
	b := New("sirene", WithFailureThreshold(2), WithSuccessThreshold(1))

	useFallback, _ := b.RecordFailure()
	assert.False(t, useFallback, "below threshold the primary is still used")
	useFallback, _ = b.RecordFailure()
	assert.True(t, useFallback)

	usePrimary, change := b.RecordSuccess()
	assert.True(t, usePrimary)
	assert.True(t, change.Closed)
}

func TestBreaker_Reset(t *testing.T) {
	b := New("sirene", WithFailureThreshold(1))
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}

func TestBreaker_IgnoresInvalidOptions(t *testing.T) {
	b := New("sirene", WithFailureThreshold(0), WithSuccessThreshold(-1), WithCooldown(-time.Second), WithClock(nil))
	for range 4 {
		b.RecordFailure()
	}
	assert.False(t, b.IsOpen(), "default threshold of 5 applies")
	b.RecordFailure()
	assert.True(t, b.IsOpen())
}

func TestBreaker_AllowRespectsCooldown(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	b := New("sirene",
		WithFailureThreshold(2),
		WithCooldown(time.Minute),
		WithClock(func() time.Time { return now }),
	)

	assert.True(t, b.Allow())
	b.RecordFailure()
	b.RecordFailure()
	assert.True(t, b.IsOpen())

	// Open and cooling down
	assert.False(t, b.Allow())

	now = now.Add(59 * time.Second)
	assert.False(t, b.Allow())

	// Cooldown elapsed, probes go through
	now = now.Add(time.Second)
	assert.True(t, b.Allow())

	// A failed probe restarts the cooldown
	b.RecordFailure()
	assert.False(t, b.Allow())
}

func TestBreaker_ProbeSuccessesClose(t *testing.T) {
	now := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	b := New("vies",
		WithFailureThreshold(1),
		WithSuccessThreshold(2),
		WithCooldown(10*time.Second),
		WithClock(func() time.Time { return now }),
	)

	b.RecordFailure()
	now = now.Add(10 * time.Second)
	assert.True(t, b.Allow())

	b.RecordSuccess()
	_, change := b.RecordSuccess()
	assert.True(t, change.Closed)
	assert.Equal(t, StateClosed, b.State())
	assert.True(t, b.Allow())
}
