package testutil

import (
	"context"
	"time"

	"custodia/pkg/requestcontext"
)

// ServiceContext builds a context carrying actor and fixed time for service
// unit tests that bypass the HTTP middleware chain.
func ServiceContext(actor string, now time.Time) context.Context {
	ctx := requestcontext.WithActor(context.Background(), actor)
	return requestcontext.WithTime(ctx, now)
}
