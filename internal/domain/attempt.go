package domain

// AttemptState tracks a verification attempt through the pipeline. Attempts
// are request-scoped; no state survives the response.
type AttemptState string

const (
	AttemptIdle          AttemptState = "IDLE"
	AttemptAwaitingInput AttemptState = "AWAITING_INPUT"
	AttemptVerifying     AttemptState = "VERIFYING"
	AttemptVerified      AttemptState = "VERIFIED"
	AttemptRejected      AttemptState = "REJECTED"
	AttemptFailed        AttemptState = "FAILED"
)

// Terminal reports whether the attempt can no longer progress.
func (s AttemptState) Terminal() bool {
	switch s {
	case AttemptVerified, AttemptRejected, AttemptFailed:
		return true
	}
	return false
}
