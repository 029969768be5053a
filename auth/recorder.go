package auth

// Operation names reported to a Recorder.
const (
	OpRequestAccess = "request_access"
	OpRefresh       = "refresh"
	OpAuthorize     = "authorize"
	OpExchange      = "exchange"
	OpLogin         = "login"
	OpRevoke        = "revoke"
)

// Outcomes reported to a Recorder.
const (
	OutcomeSuccess   = "success"
	OutcomeCached    = "cached"
	OutcomeError     = "error"
	OutcomeCancelled = "cancelled"
	OutcomeAbandoned = "abandoned"
	OutcomeRejected  = "rejected"
	OutcomeSkipped   = "skipped"
)

// Recorder receives one call per completed flow operation.
type Recorder interface {
	RecordOperation(provider, operation, outcome string)
}

type nopRecorder struct{}

func (nopRecorder) RecordOperation(string, string, string) {}
