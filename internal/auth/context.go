package auth

import "context"

// contextKey is a custom type used for context keys to avoid collisions.
type contextKey string

// WebIDKey carries the resolved current identity through request contexts.
const WebIDKey contextKey = "webID"

// WithWebID returns a context carrying the given WebID.
func WithWebID(ctx context.Context, webID string) context.Context {
	return context.WithValue(ctx, WebIDKey, webID)
}

// WebIDFromContext retrieves the WebID from the request context.
// Returns the WebID and true if present and non-empty, otherwise "" and false.
func WebIDFromContext(ctx context.Context) (string, bool) {
	webID, ok := ctx.Value(WebIDKey).(string)
	if !ok || webID == "" {
		return "", false
	}
	return webID, true
}
