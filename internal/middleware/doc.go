// Package middleware provides the HTTP middleware stack for the fetchview
// service: CORS, per-IP token bucket rate limiting, and request ID
// propagation.
package middleware
