// Package main is the entry point for the fetchview server.
//
// The server fetches a caller-supplied URL and renders the result: textual
// content is collected, escaped, and displayed inline; images are relayed
// through a size-capped streaming proxy.
//
// Signals:
//   - SIGINT, SIGTERM: graceful shutdown
package main
