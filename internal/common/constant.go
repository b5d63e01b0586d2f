package common

const (
	// AuthorizationHeaderName carries "Bearer <access token>" on HTTP requests
	// and in gRPC metadata.
	AuthorizationHeaderName = "authorization"

	// BearerScheme is the authorization scheme accepted for access tokens.
	BearerScheme = "bearer"

	// RefreshTokenCookieName is the HttpOnly cookie holding the refresh token
	// in the cookie transport pattern.
	RefreshTokenCookieName = "refresh_token"

	// RefreshTokenParamName is the query/body field used by the bearer
	// transport pattern on refresh and logout calls.
	RefreshTokenParamName = "refresh_token"

	// MaxIdentifierLength matches the users.uid column width.
	MaxIdentifierLength = 50
)
