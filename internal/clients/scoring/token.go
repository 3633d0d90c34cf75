package scoring

import "context"

type tokenKey struct{}

// ContextWithToken attaches the caller's bearer token; requests made with the returned
// context forward it unchanged.
func ContextWithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, tokenKey{}, token)
}

func TokenFromContext(ctx context.Context) string {
	token, _ := ctx.Value(tokenKey{}).(string)
	return token
}
