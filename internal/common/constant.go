// Package common contains shared constants and sentinel errors used across
// the attendance server components.
package common

// AccessTokenHeaderName is the gRPC metadata key carrying the caller's
// access token.
const AccessTokenHeaderName = "access_token"
