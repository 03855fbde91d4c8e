package accountsync

import "errors"

// Error codes used at every boundary: internal failures are mapped into
// a {code, message} pair and never leaked raw to callers.
const (
	ErrCodeAuth           = "authentication_error"
	ErrCodeValidation     = "validation_error"
	ErrCodeAccountState   = "account_state_error"
	ErrCodeNetwork        = "network_error"
	ErrCodeUnavailable    = "service_unavailable"
	ErrCodeSyncInProgress = "sync_in_progress"
	ErrCodeDatabase       = "database_error"
	ErrCodeSignature      = "signature_error"
)

type SyncError struct {
	Code      string `json:"code"`
	Message   string `json:"message"`
	Retryable bool   `json:"retryable"`
}

func (e *SyncError) Error() string { return e.Message }

func newSyncError(code string, message string, retryable bool) *SyncError {
	return &SyncError{Code: code, Message: message, Retryable: retryable}
}

// CodeOf maps any error to its taxonomy code; errors without a code are
// treated as database failures, the catch-all for persistence paths.
func CodeOf(err error) string {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Code
	}
	return ErrCodeDatabase
}

func IsRetryable(err error) bool {
	var syncErr *SyncError
	if errors.As(err, &syncErr) {
		return syncErr.Retryable
	}
	return false
}
