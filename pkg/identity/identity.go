package identity

import (
	"context"
	"errors"
	"fmt"
	"net"

	"golang.org/x/sys/unix"
)

// ContextKey is a type for context keys to avoid collisions.
type ContextKey string

const (
	// Key is the context key for Identity.
	Key ContextKey = "identity"
)

// ErrNoCredentials is returned for connections that cannot report peer
// credentials.
var ErrNoCredentials = errors.New("peer credentials unavailable")

// Identity represents the peer of a request.
type Identity struct {
	UID uint32
	GID uint32
	PID int32

	// Request context
	RequestID string
}

// New creates an Identity from raw credentials.
func New(uid, gid uint32, pid int32) *Identity {
	return &Identity{UID: uid, GID: gid, PID: pid}
}

// FromConn reads the peer credentials of a Unix socket connection.
func FromConn(conn net.Conn) (*Identity, error) {
	uc, ok := conn.(*net.UnixConn)
	if !ok {
		return nil, fmt.Errorf("%w: %T is not a unix connection", ErrNoCredentials, conn)
	}
	raw, err := uc.SyscallConn()
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}

	var cred *unix.Ucred
	var credErr error
	err = raw.Control(func(fd uintptr) {
		cred, credErr = unix.GetsockoptUcred(int(fd), unix.SOL_SOCKET, unix.SO_PEERCRED)
	})
	if err == nil {
		err = credErr
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrNoCredentials, err)
	}
	return New(cred.Uid, cred.Gid, cred.Pid), nil
}

// WithRequestID sets the request id.
func (i *Identity) WithRequestID(id string) *Identity {
	i.RequestID = id
	return i
}

// Principal names the owner of the namespace in audit records.
func (i *Identity) Principal() string {
	return fmt.Sprintf("uid:%d", i.UID)
}

// Client names the calling process in audit records.
func (i *Identity) Client() string {
	return fmt.Sprintf("pid:%d", i.PID)
}

// Get retrieves the Identity from context.
func Get(ctx context.Context) (*Identity, bool) {
	id, ok := ctx.Value(Key).(*Identity)
	return id, ok
}

// Set stores the Identity in context.
func Set(ctx context.Context, id *Identity) context.Context {
	return context.WithValue(ctx, Key, id)
}
