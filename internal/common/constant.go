package common

// Cookie names carrying the session tokens.
const (
	AccessTokenCookieName  = "access_token"
	RefreshTokenCookieName = "refresh_token"
)

// TokenTypeBearer is the token_type literal returned to clients.
const TokenTypeBearer = "bearer"

// Environment names recognised by the server config.
const (
	EnvProduction = "prod"
	EnvDemo       = "demo"
	EnvTest       = "test"
)
