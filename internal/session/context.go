package session

import "context"

type revisionKey struct{}

// WithRevision records the store revision a request was dispatched under.
func WithRevision(ctx context.Context, rev uint64) context.Context {
	return context.WithValue(ctx, revisionKey{}, rev)
}

// RevisionFromContext returns the revision stored by WithRevision.
func RevisionFromContext(ctx context.Context) (uint64, bool) {
	rev, ok := ctx.Value(revisionKey{}).(uint64)
	return rev, ok
}
