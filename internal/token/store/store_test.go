package store

import (
	"context"
	"errors"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"

	"tokengate/internal/compliance"
	"tokengate/internal/ledger"
	"tokengate/pkg/domain"
	"tokengate/pkg/platform/sentinel"
)

// storeContract runs the behaviour every backend must share.
type storeContract struct {
	suite.Suite
	newStore func() Store
	store    Store
}

func (s *storeContract) SetupTest() {
	s.store = s.newStore()
}

func sampleSnapshot(token common.Address, seq uint64) *Snapshot {
	return &Snapshot{
		Version:     SchemaVersion,
		Token:       token,
		Sequence:    seq,
		Name:        "Bond 2030",
		Symbol:      "BND30",
		Decimals:    18,
		TotalSupply: big.NewInt(140),
		Holders: []ledger.HolderState{
			{Address: common.HexToAddress("0xa1"), Balance: big.NewInt(100), FrozenTokens: big.NewInt(25)},
			{Address: common.HexToAddress("0xb2"), Balance: big.NewInt(40), Frozen: true, FrozenTokens: new(big.Int)},
		},
		Modules: []compliance.ModuleParams{
			{Module: common.HexToAddress("0x3001"), Params: []byte{0x01, 0x02}},
		},
		IdentityRegistry:    common.HexToAddress("0x1d1d"),
		RequiredClaimTopics: []domain.ClaimTopic{domain.TopicKYC},
		UpdatedAt:           time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC),
	}
}

func (s *storeContract) TestLifecycle() {
	ctx := context.Background()
	token := common.HexToAddress("0x70c0")

	s.Run("unknown token is not found", func() {
		_, err := s.store.Load(ctx, token)
		s.True(errors.Is(err, sentinel.ErrNotFound))
	})

	s.Run("save then load round-trips", func() {
		s.Require().NoError(s.store.Save(ctx, sampleSnapshot(token, 1)))
		got, err := s.store.Load(ctx, token)
		s.Require().NoError(err)
		s.Equal(uint64(1), got.Sequence)
		s.Equal(0, got.TotalSupply.Cmp(big.NewInt(140)))
		s.Require().Len(got.Holders, 2)
		s.Equal(0, got.Holders[0].FrozenTokens.Cmp(big.NewInt(25)))
		s.True(got.Holders[1].Frozen)
		s.Equal([]byte{0x01, 0x02}, got.Modules[0].Params)
		s.Equal([]domain.ClaimTopic{domain.TopicKYC}, got.RequiredClaimTopics)
	})

	s.Run("newer sequence replaces", func() {
		next := sampleSnapshot(token, 2)
		next.Paused = true
		s.Require().NoError(s.store.Save(ctx, next))
		got, err := s.store.Load(ctx, token)
		s.Require().NoError(err)
		s.True(got.Paused)
	})

	s.Run("stale sequence conflicts", func() {
		err := s.store.Save(ctx, sampleSnapshot(token, 2))
		s.True(errors.Is(err, sentinel.ErrConflict))
		got, err := s.store.Load(ctx, token)
		s.Require().NoError(err)
		s.Equal(uint64(2), got.Sequence)
	})

	s.Run("list is ordered by address", func() {
		other := common.HexToAddress("0x0001")
		s.Require().NoError(s.store.Save(ctx, sampleSnapshot(other, 1)))
		tokens, err := s.store.List(ctx)
		s.Require().NoError(err)
		s.Equal([]common.Address{other, token}, tokens)
	})
}

type InMemorySuite struct {
	storeContract
}

func TestInMemorySuite(t *testing.T) {
	s := new(InMemorySuite)
	s.newStore = func() Store { return NewInMemory() }
	suite.Run(t, s)
}

func TestDecodeRejectsUnknownVersion(t *testing.T) {
	_, err := decode([]byte(`{"version":99}`))
	if !errors.Is(err, sentinel.ErrInvalidState) {
		t.Fatalf("expected invalid state, got %v", err)
	}
}
