package token

import (
	"context"

	"github.com/ethereum/go-ethereum/common"
)

type opKey struct{}

// opMarker records the tokens whose operations are running on this call path.
type opMarker struct {
	token  common.Address
	parent *opMarker
}

func enterOperation(ctx context.Context, token common.Address) context.Context {
	parent, _ := ctx.Value(opKey{}).(*opMarker)
	return context.WithValue(ctx, opKey{}, &opMarker{token: token, parent: parent})
}

func inOperation(ctx context.Context, token common.Address) bool {
	m, _ := ctx.Value(opKey{}).(*opMarker)
	for ; m != nil; m = m.parent {
		if m.token == token {
			return true
		}
	}
	return false
}
