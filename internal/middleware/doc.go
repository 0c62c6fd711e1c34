// Package middleware provides HTTP middleware for the media router API.
//
// Logger writes one access line per request to the application log,
// Metrics records Prometheus request metrics labelled by route template
// and Recover turns handler panics into 500 responses.
package middleware
