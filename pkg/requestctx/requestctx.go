// Package requestctx carries per-request client metadata from the HTTP edge
// down to the audit trail.
package requestctx

import "context"

type clientInfoKey struct{}

type ClientInfo struct {
	IPAddress string
	UserAgent string
	RequestID string
}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

// ClientInfoFrom returns the zero value when the context carries none.
func ClientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}
