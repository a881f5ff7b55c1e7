package testutil

import (
	"context"
	"time"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/pkg/requestcontext"
)

// FixedTime is the request time used by AsCaller.
var FixedTime = time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)

// AsCaller returns a context acting as caller at FixedTime.
func AsCaller(caller common.Address) context.Context {
	ctx := requestcontext.WithCaller(context.Background(), caller)
	return requestcontext.WithTime(ctx, FixedTime)
}
