// Package common contains shared constants and sentinel errors used across
// the server and the CLI client.
package common

// AccessTokenHeaderName is the gRPC metadata key used to carry the
// access token on outbound requests.
const AccessTokenHeaderName = "access_token"

// UserNameMaxLength bounds public handles accepted at registration.
const UserNameMaxLength = 64

// DisplayNameMaxLength bounds display names, counted in characters.
const DisplayNameMaxLength = 128
