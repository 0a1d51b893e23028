package domain

import "testing"

func TestAttemptStateTerminal(t *testing.T) {
	tests := []struct {
		state    AttemptState
		terminal bool
	}{
		{AttemptIdle, false},
		{AttemptAwaitingInput, false},
		{AttemptVerifying, false},
		{AttemptVerified, true},
		{AttemptRejected, true},
		{AttemptFailed, true},
	}

	for _, tc := range tests {
		if got := tc.state.Terminal(); got != tc.terminal {
			t.Errorf("%s: Terminal() = %v, want %v", tc.state, got, tc.terminal)
		}
	}
}
