// Package cli provides the interactive totpgate command-line client.
//
// It wires configuration, the gRPC API client and services into a REPL.
// A user registers or logs in, shows their current code to someone who
// needs access, verifies codes other users show them, and then reads what a
// live verification session unlocks:
//
//   - register, login, logout
//   - code [user]          current code (own by default)
//   - verify <user> [code] open a session with user
//   - sessions, session <user>
//   - profile <user>
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
