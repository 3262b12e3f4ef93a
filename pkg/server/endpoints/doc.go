// Package endpoints implements the HTTP API served on the daemon socket.
//
// Secrets are addressed under /secrets/. A path ending with a separator names
// a container, any other path names a secret. Every handler resolves the
// namespace of the calling user from the peer credentials of the connection.
package endpoints
