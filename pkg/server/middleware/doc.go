// Package middleware holds the HTTP middleware wrapped around every request:
// request ids, request logging with metrics, and peer identity.
package middleware
