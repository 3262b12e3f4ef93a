// Package identity describes the local process on the other end of a request.
//
// The kernel reports the peer credentials of a Unix socket connection when it
// is accepted. The UID selects the namespace the request operates on, so a
// caller can never reach another user's secrets.
//
// # Basic Usage
//
//	// Read credentials when the connection is accepted
//	id, err := identity.FromConn(conn)
//
//	// Store in request context
//	ctx = identity.Set(ctx, id)
//
//	// Retrieve from context
//	id, ok := identity.Get(ctx)
package identity
