package constants

const (
	// ContextKeyUserID is the session and gin context key holding the caller's user ID.
	ContextKeyUserID = "user_id"

	// ContextKeyRequestID is the gin context key holding the request ID.
	ContextKeyRequestID = "request_id"

	// HeaderRequestID is the header used to propagate request IDs.
	HeaderRequestID = "X-Request-ID"

	// SessionCookieName is the name of the session cookie.
	SessionCookieName = "projecthub_session"
)

const (
	MinPasswordLength = 8

	MinPageSize     = 1
	DefaultPageSize = 20
	MaxPageSize     = 100

	MaxAIGeneratedTasks = 20

	// DefaultSlugMaxAttempts bounds project creation retries after a slug collision.
	DefaultSlugMaxAttempts = 5
)
