package circuit

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// record replays outcomes ("f" failure, "s" success) and returns the last change.
func record(b *Breaker, outcomes string) StateChange {
	var change StateChange
	for _, o := range outcomes {
		if o == 'f' {
			_, change = b.RecordFailure()
		} else {
			_, change = b.RecordSuccess()
		}
	}
	return change
}

func TestBreakerTransitions(t *testing.T) {
	tests := []struct {
		name     string
		outcomes string
		open     bool
		change   StateChange
	}{
		{"starts closed", "", false, StateChange{}},
		{"stays closed below the failure threshold", "ff", false, StateChange{}},
		{"opens on the third consecutive failure", "fff", true, StateChange{Opened: true}},
		{"a success resets the failure streak", "ffsff", false, StateChange{}},
		{"one success is not enough to close", "fffs", true, StateChange{}},
		{"closes after two successes", "fffss", false, StateChange{Closed: true}},
		{"a failure while open restarts the success streak", "fffsfs", true, StateChange{}},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			b := New("kafka-relay", WithFailureThreshold(3), WithSuccessThreshold(2))
			change := record(b, tc.outcomes)
			assert.Equal(t, tc.open, b.IsOpen())
			assert.Equal(t, tc.change, change)
		})
	}
}

func TestBreakerReportsFallbackWhileOpen(t *testing.T) {
	b := New("kafka-relay", WithFailureThreshold(1))
	assert.Equal(t, "kafka-relay", b.Name())

	fallback, change := b.RecordFailure()
	require.True(t, fallback)
	require.True(t, change.Opened)

	fallback, change = b.RecordFailure()
	assert.True(t, fallback)
	assert.Equal(t, StateChange{}, change, "already open")

	b.Reset()
	assert.Equal(t, StateClosed, b.State())
}
