package stash

import "context"

// Stash holds at most one pending view-state per session: a single-use
// message queue of depth one, used to carry a query across a redirect.
// Take consumes the value; a taken or absent entry reports ok = false.
type Stash interface {
	Put(ctx context.Context, sessionID, params string) error

	Take(ctx context.Context, sessionID string) (params string, ok bool, err error)
}
