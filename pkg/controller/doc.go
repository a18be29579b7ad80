// Package controller contains HTTP middleware and helper handlers shared by
// the API server: CORS, request-scoped access logging with request IDs, and
// the pprof mux.
package controller
