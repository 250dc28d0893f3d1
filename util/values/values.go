package values

type contextKey string

const (
	ContextTracingKey  contextKey = "tracing-context"
	ContextIdentityKey contextKey = "identity"
)

const (
	HeaderRequestSource = "X-Request-Source"
	HeaderRequestID     = "X-Request-ID"
)

// Response statuses. util.StatusCode maps each to an HTTP status.
const (
	Success        = "success"
	Created        = "created"
	Error          = "error"
	BadRequestBody = "bad_request_body"
	Unprocessable  = "unprocessable"
	NotAllowed     = "not_allowed"
	Conflict       = "conflict"
	NotFound       = "not_found"
	NotAuthorised  = "not_authorised"
	TokenExpired   = "token_expired"
)
