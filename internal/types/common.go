package types

// HTTP Header Constants
const (
	HeaderTimestamp     = "X-Timestamp"
	HeaderAuthorization = "Authorization"
	HeaderContentType   = "Content-Type"
	HeaderRequestID     = "X-Request-ID"
)

// Authentication Constants
const (
	BearerPrefix = "Bearer "
)

// Role names
const (
	AdminRole = "Admin"
	DARole    = "DA"
	ModRole   = "Mod"
)

// UserCtxName is the fiber locals key where the authenticated user is stored.
const UserCtxName = "user"
