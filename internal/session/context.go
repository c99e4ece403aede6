package session

import "context"

type ctxKey struct{}

// WithContext attaches the launch session to a request context.
func WithContext(ctx context.Context, sess *Session) context.Context {
	return context.WithValue(ctx, ctxKey{}, sess)
}

// FromContext returns the launch session placed by the session middleware.
func FromContext(ctx context.Context) (*Session, bool) {
	sess, ok := ctx.Value(ctxKey{}).(*Session)
	return sess, ok
}
