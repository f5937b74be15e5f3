package requestctx

import (
	"context"
	"testing"
)

func TestClientInfoRoundTrip(t *testing.T) {
	ctx := WithClientInfo(context.Background(), ClientInfo{IPAddress: "10.0.0.7", UserAgent: "curl/8.5", RequestID: "req-1"})

	got := ClientInfoFrom(ctx)
	if got.IPAddress != "10.0.0.7" || got.UserAgent != "curl/8.5" || got.RequestID != "req-1" {
		t.Errorf("ClientInfoFrom() = %+v", got)
	}

	if empty := ClientInfoFrom(context.Background()); empty != (ClientInfo{}) {
		t.Errorf("ClientInfoFrom(empty ctx) = %+v, want zero value", empty)
	}
}
