package errors

// Error codes for standardized error responses
const (
	// Authentication errors
	ErrCodeUnauthorized           = "unauthorized"
	ErrCodeInvalidToken           = "invalid_token"
	ErrCodeTokenExpired           = "token_expired"
	ErrCodeAuthenticationRequired = "authentication_required"

	// Validation errors
	ErrCodeInvalidRequest = "invalid_request"
	ErrCodeMissingField   = "missing_field"

	// Duel room errors
	ErrCodeRoomNotFound = "room_not_found"
	ErrCodeForbidden    = "forbidden"
	ErrCodeRoomFull     = "room_full"
	ErrCodeSameUser     = "same_user"

	// History and leaderboard errors
	ErrCodeHistoryFetchFailed     = "history_fetch_failed"
	ErrCodeLeaderboardFetchFailed = "leaderboard_fetch_failed"
	ErrCodeUnknownWindow          = "unknown_leaderboard_window"

	// Server errors
	ErrCodeInternalError = "internal_error"
	ErrCodeUpstreamError = "upstream_error"
)
