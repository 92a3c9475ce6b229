// Package server provides HTTP server setup and routing.
//
// It wires the middleware stack (request IDs, metrics, CORS, rate limiting),
// the fetch form and collect-and-render endpoint, the bounded image stream
// proxy, and the health and metrics endpoints.
//
// Example Usage:
//
//	cfg := config.LoadOrDefault()
//	srv, err := server.New(cfg)
//	if err := srv.Run(); err != nil {
//	    log.Fatal(err)
//	}
package server
