package auth

import "context"

// Identity is the verified caller of a control API request.
type Identity struct {
	UserID string `json:"user_id"`
	Role   string `json:"role"`
}

type identityKey struct{}

func WithIdentity(ctx context.Context, id Identity) context.Context {
	return context.WithValue(ctx, identityKey{}, id)
}

// FromContext reports the identity set by RequireAccessToken. ok is false
// when the request was not authenticated or carries no role.
func FromContext(ctx context.Context) (id Identity, ok bool) {
	id, ok = ctx.Value(identityKey{}).(Identity)
	return id, ok && id.Role != ""
}
