package common

// AuthorizationHeaderName carries the bearer access token on requests to
// protected endpoints.
const AuthorizationHeaderName = "Authorization"

// BearerPrefix is the scheme prefix expected in the Authorization header.
const BearerPrefix = "Bearer "
