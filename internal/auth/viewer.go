package auth

import "context"

type viewerKey struct{}

// WithViewerID records the authenticated account on the context.
func WithViewerID(ctx context.Context, accountID string) context.Context {
	if accountID == "" {
		return ctx
	}
	return context.WithValue(ctx, viewerKey{}, accountID)
}

// ViewerIDFromContext returns the authenticated account id, or "" for anonymous requests.
func ViewerIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	id, _ := ctx.Value(viewerKey{}).(string)
	return id
}
