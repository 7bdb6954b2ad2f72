package api

import "context"

const anonymousReviewer = "anonymous"

type reviewerKey struct{}

// WithReviewer returns a context carrying the name of the reviewer making
// the request.
func WithReviewer(ctx context.Context, reviewer string) context.Context {
	return context.WithValue(ctx, reviewerKey{}, reviewer)
}

// ReviewerFromContext returns the reviewer set by the auth middleware.
func ReviewerFromContext(ctx context.Context) string {
	if reviewer, ok := ctx.Value(reviewerKey{}).(string); ok && reviewer != "" {
		return reviewer
	}
	return anonymousReviewer
}
