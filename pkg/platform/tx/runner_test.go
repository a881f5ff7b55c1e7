package tx

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNoopRunner(t *testing.T) {
	t.Run("propagates fn error", func(t *testing.T) {
		boom := errors.New("boom")
		err := NoopRunner{}.RunInTx(context.Background(), func(context.Context) error { return boom })
		assert.ErrorIs(t, err, boom)
	})

	t.Run("does not inject a sql transaction", func(t *testing.T) {
		_ = NoopRunner{}.RunInTx(context.Background(), func(ctx context.Context) error {
			_, ok := From(ctx)
			assert.False(t, ok)
			return nil
		})
	})
}

func TestWithTxIgnoresNil(t *testing.T) {
	ctx := WithTx(context.Background(), nil)
	_, ok := From(ctx)
	assert.False(t, ok)
}
