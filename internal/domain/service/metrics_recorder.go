package service

// Outcome labels used by the metrics recorder.
const (
	OutcomeSuccess            = "success"
	OutcomeDuplicate          = "duplicate"
	OutcomeInvalidCredentials = "invalid_credentials"
	OutcomeUnknownUser        = "unknown_user"
	OutcomeInvalidInput       = "invalid_input"
	OutcomeError              = "error"
)

// MetricsRecorder counts requests and business outcomes. Implementations must be safe for
// concurrent use.
type MetricsRecorder interface {
	IncRequests()
	RecordRegistration(outcome string)
	RecordLogin(outcome string)
	RecordDroppedLogEvent()
}
