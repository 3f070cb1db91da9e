package common

// AuthorizationHeaderName is the HTTP header carrying the bearer access token.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix precedes the access token in the Authorization header.
const BearerPrefix = "Bearer "

// RefreshTokenBytes is the amount of random data behind a refresh token value.
const RefreshTokenBytes = 32
