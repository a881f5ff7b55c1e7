package modules

//go:generate mockgen -source=../ports/ports.go -destination=../mocks/ports_mock.go -package=mocks

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tokengate/internal/access"
	"tokengate/internal/compliance"
	"tokengate/internal/compliance/mocks"
	"tokengate/pkg/domain"
	"tokengate/pkg/testutil"
)

// =============================================================================
// Compliance Modules Test Suite
// =============================================================================
// Justification for unit tests: each module's pass/reject decision depends on
// registry facts and decoded params. The registry is mocked so every branch
// (unknown recipient, global list, token list) is reachable directly.

var (
	token    = common.HexToAddress("0x70c3")
	admin    = common.HexToAddress("0xad")
	manager  = common.HexToAddress("0x3a")
	sender   = common.HexToAddress("0x5e")
	receiver = common.HexToAddress("0x7e")
)

type ModulesSuite struct {
	suite.Suite
	ctx        context.Context
	mockCtrl   *gomock.Controller
	registries *mocks.MockRegistryResolver
	registry   *mocks.MockIdentityLookup
	access     *access.Controller
}

func TestModulesSuite(t *testing.T) {
	suite.Run(t, new(ModulesSuite))
}

func (s *ModulesSuite) SetupTest() {
	s.ctx = context.Background()
	s.mockCtrl = gomock.NewController(s.T())
	s.registries = mocks.NewMockRegistryResolver(s.mockCtrl)
	s.registry = mocks.NewMockIdentityLookup(s.mockCtrl)
	s.registries.EXPECT().IdentityRegistryOf(gomock.Any(), token).Return(s.registry, nil).AnyTimes()

	s.access = access.NewController(admin)
	s.Require().NoError(s.access.Grant(testutil.AsCaller(admin), access.RoleManager, manager))
}

func (s *ModulesSuite) TearDownTest() {
	s.mockCtrl.Finish()
}

func (s *ModulesSuite) registered(wallet common.Address, country domain.CountryCode) {
	s.registry.EXPECT().Contains(gomock.Any(), wallet).Return(true, nil).AnyTimes()
	s.registry.EXPECT().InvestorCountry(gomock.Any(), wallet).Return(country, nil).AnyTimes()
}

func (s *ModulesSuite) unregistered(wallet common.Address) {
	s.registry.EXPECT().Contains(gomock.Any(), wallet).Return(false, nil).AnyTimes()
}

func (s *ModulesSuite) rejectedWith(err error, reason string) {
	var rejected *compliance.RejectedError
	s.Require().ErrorAs(err, &rejected)
	s.Equal(reason, rejected.Reason)
}

// =============================================================================
// CountryAllowList
// =============================================================================

func (s *ModulesSuite) TestCountryAllowList() {
	m, err := NewCountryAllowList(s.access, s.registries)
	s.Require().NoError(err)
	managerCtx := testutil.AsCaller(manager)

	s.Run("unknown recipient passes with an empty list", func() {
		s.unregistered(receiver)
		s.NoError(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(100), EncodeCountries()))
	})

	s.Run("country outside both sets is rejected", func() {
		other := common.HexToAddress("0xf7")
		s.registered(other, domain.CountryFR)
		s.Require().NoError(m.AddGlobalAllowedCountries(managerCtx, domain.CountryUS))

		err := m.CanTransfer(s.ctx, token, sender, other, big.NewInt(100), EncodeCountries())
		s.rejectedWith(err, "Receiver country not in allowlist")
	})

	s.Run("country in the global set passes", func() {
		us := common.HexToAddress("0x05")
		s.registered(us, domain.CountryUS)
		s.NoError(m.CanTransfer(s.ctx, token, sender, us, big.NewInt(1), EncodeCountries()))
	})

	s.Run("country in the token set passes", func() {
		de := common.HexToAddress("0xde")
		s.registered(de, domain.CountryDE)
		s.NoError(m.CanTransfer(s.ctx, token, sender, de, big.NewInt(1), EncodeCountries(domain.CountryDE)))
	})

	s.Run("registered wallet with country zero passes", func() {
		zero := common.HexToAddress("0x00aa")
		s.registered(zero, domain.CountryUnknown)
		s.NoError(m.CanTransfer(s.ctx, token, sender, zero, big.NewInt(1), EncodeCountries()))
	})

	s.Run("global list is manager-gated", func() {
		err := m.AddGlobalAllowedCountries(testutil.AsCaller(sender), domain.CountryJP)
		var unauthorized *access.UnauthorizedError
		s.ErrorAs(err, &unauthorized)

		s.Require().NoError(m.RemoveGlobalAllowedCountries(managerCtx, domain.CountryUS))
		s.Empty(m.GlobalAllowedCountries())
	})

	s.Run("params must decode", func() {
		s.Error(m.ValidateParameters(nil))
		s.Error(m.ValidateParameters([]byte{0x01, 0x02}))
		s.NoError(m.ValidateParameters(EncodeCountries(domain.CountryFR)))
	})
}

// =============================================================================
// CountryBlockList
// =============================================================================

func (s *ModulesSuite) TestCountryBlockList() {
	m, err := NewCountryBlockList(s.access, s.registries)
	s.Require().NoError(err)

	kp := common.HexToAddress("0x0408")
	ir := common.HexToAddress("0x0364")
	fr := common.HexToAddress("0x0250")
	s.registered(kp, domain.CountryKP)
	s.registered(ir, domain.CountryIR)
	s.registered(fr, domain.CountryFR)
	s.unregistered(receiver)
	s.Require().NoError(m.AddGlobalBlockedCountries(testutil.AsCaller(manager), domain.CountryKP))

	params := EncodeCountries(domain.CountryIR)

	s.Run("global block", func() {
		s.rejectedWith(m.CanTransfer(s.ctx, token, sender, kp, big.NewInt(1), params), "Receiver country blocked")
	})

	s.Run("token block", func() {
		s.rejectedWith(m.CanTransfer(s.ctx, token, sender, ir, big.NewInt(1), params), "Receiver country blocked")
	})

	s.Run("other country passes", func() {
		s.NoError(m.CanTransfer(s.ctx, token, sender, fr, big.NewInt(1), params))
	})

	s.Run("unknown recipient passes", func() {
		s.NoError(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1), params))
	})
}

func (s *ModulesSuite) TestRegistryFailureIsNotARejection() {
	m, err := NewCountryBlockList(s.access, s.registries)
	s.Require().NoError(err)
	s.registry.EXPECT().Contains(gomock.Any(), receiver).Return(false, errors.New("redis down"))

	err = m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1), EncodeCountries())
	s.Require().Error(err)
	var rejected *compliance.RejectedError
	s.False(errors.As(err, &rejected))
}

// =============================================================================
// AddressBlockList / IdentityBlockList
// =============================================================================

func (s *ModulesSuite) TestAddressBlockList() {
	m, err := NewAddressBlockList(s.access)
	s.Require().NoError(err)
	s.Require().NoError(m.BlockAddresses(testutil.AsCaller(manager), sender))

	s.Run("blocked sender", func() {
		s.rejectedWith(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1), EncodeAddresses()), ReasonSenderBlocked)
	})

	s.Run("token-listed recipient", func() {
		other := common.HexToAddress("0x07")
		s.rejectedWith(m.CanTransfer(s.ctx, token, other, receiver, big.NewInt(1), EncodeAddresses(receiver)), ReasonRecipientBlocked)
	})

	s.Run("mint skips the zero sender", func() {
		s.NoError(m.CanTransfer(s.ctx, token, common.Address{}, receiver, big.NewInt(1), EncodeAddresses()))
	})

	s.Run("unblocked sender passes", func() {
		s.Require().NoError(m.UnblockAddresses(testutil.AsCaller(manager), sender))
		s.NoError(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1), EncodeAddresses()))
	})
}

func (s *ModulesSuite) TestIdentityBlockList() {
	m, err := NewIdentityBlockList(s.registries)
	s.Require().NoError(err)
	blockedID := common.HexToAddress("0x1d01")
	s.registry.EXPECT().Identity(gomock.Any(), receiver).Return(blockedID, nil).AnyTimes()
	s.registry.EXPECT().Identity(gomock.Any(), sender).Return(common.Address{}, nil).AnyTimes()

	s.rejectedWith(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1), EncodeAddresses(blockedID)), ReasonIdentityBlocked)
	s.NoError(m.CanTransfer(s.ctx, token, receiver, sender, big.NewInt(1), EncodeAddresses(blockedID)))
	s.NoError(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1), EncodeAddresses()))
}

// =============================================================================
// SupplyLimit
// =============================================================================

func (s *ModulesSuite) TestSupplyLimit() {
	m := NewSupplyLimit()
	params, err := EncodeUint256(big.NewInt(100))
	s.Require().NoError(err)
	mint := common.Address{}

	s.Run("zero cap is invalid", func() {
		zero, err := EncodeUint256(big.NewInt(0))
		s.Require().NoError(err)
		s.Error(m.ValidateParameters(zero))
	})

	s.Run("mint within cap passes and is tracked", func() {
		s.Require().NoError(m.CanTransfer(s.ctx, token, mint, receiver, big.NewInt(60), params))
		s.Require().NoError(m.Created(s.ctx, token, receiver, big.NewInt(60), params))
		s.Equal(int64(60), m.Supply(token).Int64())
	})

	s.Run("mint beyond cap is rejected", func() {
		s.rejectedWith(m.CanTransfer(s.ctx, token, mint, receiver, big.NewInt(41), params), ReasonSupplyLimitExceeded)
	})

	s.Run("transfers are not capped", func() {
		s.NoError(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(1000), params))
	})

	s.Run("burn frees room", func() {
		s.Require().NoError(m.Destroyed(s.ctx, token, receiver, big.NewInt(20), params))
		s.NoError(m.CanTransfer(s.ctx, token, mint, receiver, big.NewInt(60), params))
	})

	s.Run("restore rewinds tracked supply", func() {
		snap := m.Snapshot(token)
		s.Require().NoError(m.Created(s.ctx, token, receiver, big.NewInt(10), params))
		m.Restore(token, snap)
		s.Equal(int64(40), m.Supply(token).Int64())
	})

	s.Run("unbinding resets the count", func() {
		m.Unbound(token)
		s.Equal(int64(0), m.Supply(token).Int64())
		s.NoError(m.CanTransfer(s.ctx, token, mint, receiver, big.NewInt(100), params))
	})
}

// =============================================================================
// Expression
// =============================================================================

func (s *ModulesSuite) TestExpression() {
	m, err := NewExpression(s.registries)
	s.Require().NoError(err)
	s.registered(sender, domain.CountryUS)
	s.registered(receiver, domain.CountryFR)

	s.Run("non-bool and broken rules are invalid", func() {
		s.Error(m.ValidateParameters(EncodeString("to_country + 1")))
		s.Error(m.ValidateParameters(EncodeString("to_country ==")))
		s.Error(m.ValidateParameters(EncodeString("unknown_var")))
		s.NoError(m.ValidateParameters(EncodeString("to_known && value <= 1000.0")))
	})

	s.Run("rule decides", func() {
		rule := EncodeString("to_country != 250 || value < 50.0")
		s.NoError(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(10), rule))
		s.rejectedWith(m.CanTransfer(s.ctx, token, sender, receiver, big.NewInt(50), rule), ReasonExpressionRejected)
	})

	s.Run("mint sees is_mint and an unknown sender", func() {
		rule := EncodeString("is_mint && !from_known && from_country == 0")
		s.NoError(m.CanTransfer(s.ctx, token, common.Address{}, receiver, big.NewInt(1), rule))
	})
}
