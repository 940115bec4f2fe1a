// Package cli provides the interactive command-line client of the chatter
// auth service.
//
// It wires configuration, the gRPC client and a small REPL. Commands:
//   - login / logout
//   - handoff: log in and print a one-time exchange code instead of keeping
//     the tokens
//   - redeem <code>: trade an exchange code for a token pair
//   - refresh: rotate the held token pair
//
// The REPL is started via App.Run(ctx), which blocks until the user exits.
package cli
