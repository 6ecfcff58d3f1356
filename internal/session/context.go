// ABOUTME: Context helpers for passing the resolved session through handlers
// ABOUTME: Explicit WithSession/FromContext instead of ambient global lookup

package session

import (
	"context"

	"github.com/mbeier1406/chaos-portal/internal/store"
)

// sessionContextKey is the key type for storing the session in context.Context.
type sessionContextKey struct{}

// WithSession returns a new context with the resolved session attached.
// The request filter resolves the session once per request and threads it
// to downstream components through the context; nothing in the portal
// reaches for session state through a global.
func WithSession(ctx context.Context, sess *store.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey{}, sess)
}

// FromContext retrieves the session from the context, returning nil if not present.
func FromContext(ctx context.Context) *store.Session {
	val := ctx.Value(sessionContextKey{})
	if val == nil {
		return nil
	}
	sess, ok := val.(*store.Session)
	if !ok {
		return nil
	}
	return sess
}
