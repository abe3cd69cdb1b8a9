package httputil

// Machine-readable error codes returned alongside error messages.
const (
	CodeInvalidRequestBody = "invalid_request_body"
	CodeInvalidCredentials = "invalid_credentials"
	CodeUnauthenticated    = "unauthenticated"
	CodeForbidden          = "forbidden"
	CodeNotFound           = "not_found"
	CodeDuplicateUsername  = "duplicate_username"
	CodeDuplicateEmail     = "duplicate_email"
	CodeUsernameRequired   = "username_required"
	CodeEmailRequired      = "email_required"
	CodePasswordRequired   = "password_required"
	CodePasswordTooShort   = "password_too_short"
	CodeInvalidEmailFormat = "invalid_email_format"
	CodeInvalidUserID      = "invalid_user_id"
	CodeInternalError      = "internal_error"
)
