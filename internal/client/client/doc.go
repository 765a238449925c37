// Package client talks to the totpgate server.
//
// Client is the transport-agnostic contract; GRPCClient implements it over
// gRPC with protobuf-encoded messages. GRPCClient attaches the access token to every
// call, transparently refreshes it once when the server reports it expired,
// and maps gRPC status codes to the sentinel errors of this package
// (ErrUnauthorized, ErrPermissionDenied, ErrNotFound, ...), which callers
// match with errors.Is.
package client
