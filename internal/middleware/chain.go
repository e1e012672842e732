package middleware

import "net/http"

// Chain applies multiple middleware in order (first to last)
//
// Example:
//
//	handler := Chain(mux,
//	    RequestID,      // Executes first
//	    WithURLPath,    // Executes second
//	    RequestLogging, // Executes third
//	)
func Chain(h http.Handler, middlewares ...func(http.Handler) http.Handler) http.Handler {
	// Apply middleware in reverse order so they execute in the order provided
	for i := len(middlewares) - 1; i >= 0; i-- {
		h = middlewares[i](h)
	}
	return h
}

// ChainFunc is Chain for route-level HandlerFunc decorators such as
// RateLimit and RequireAuth.
func ChainFunc(h http.HandlerFunc, decorators ...func(http.HandlerFunc) http.HandlerFunc) http.HandlerFunc {
	for i := len(decorators) - 1; i >= 0; i-- {
		h = decorators[i](h)
	}
	return h
}
