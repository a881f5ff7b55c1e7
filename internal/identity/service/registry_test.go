package service

import (
	"context"
	"errors"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"tokengate/internal/access"
	"tokengate/internal/identity/claims"
	"tokengate/internal/identity/metrics"
	"tokengate/internal/identity/models"
	"tokengate/internal/identity/store"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/events/publisher"
	eventstore "tokengate/pkg/platform/events/store/memory"
	"tokengate/pkg/testutil"
)

var (
	admin     = common.HexToAddress("0xad")
	registrar = common.HexToAddress("0xa9")
	stranger  = common.HexToAddress("0x5e")
	alice     = common.HexToAddress("0xa11ce")
	bob       = common.HexToAddress("0xb0b")
)

type RegistrySuite struct {
	suite.Suite
	ctx       context.Context
	ctrl      *access.Controller
	store     *store.InMemory
	directory *claims.Directory
	issuers   *TrustedIssuers
	outbox    *eventstore.InMemoryStore
	registry  *Registry

	kycIssuer *claims.SigningIssuer
	aliceID   *claims.Holder
}

func TestRegistrySuite(t *testing.T) {
	suite.Run(t, new(RegistrySuite))
}

func (s *RegistrySuite) SetupTest() {
	s.ctrl = access.NewController(admin)
	adminCtx := testutil.AsCaller(admin)
	s.Require().NoError(s.ctrl.Grant(adminCtx, access.RoleRegistrar, registrar))
	s.Require().NoError(s.ctrl.Grant(adminCtx, access.RoleGovernance, admin))

	s.store = store.NewInMemory()
	s.directory = claims.NewDirectory()
	s.issuers = NewTrustedIssuers(s.ctrl)
	s.outbox = eventstore.NewInMemoryStore()

	var err error
	s.registry, err = New(common.HexToAddress("0x1d1d"), s.store, s.issuers, s.directory, s.ctrl,
		WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())),
		WithPublisher(publisher.New(s.outbox)),
	)
	s.Require().NoError(err)

	s.kycIssuer, err = claims.GenerateIssuer(common.HexToAddress("0xc1"))
	s.Require().NoError(err)
	s.directory.AddIssuer(s.kycIssuer)
	s.Require().NoError(s.issuers.AddTrustedIssuer(adminCtx, s.kycIssuer.Address(), []domain.ClaimTopic{domain.TopicKYC}))

	s.aliceID = claims.NewHolder(common.HexToAddress("0x1a"))
	s.directory.AddIdentity(s.aliceID)

	s.ctx = testutil.AsCaller(registrar)
}

// =============================================================================
// Registration
// =============================================================================

func (s *RegistrySuite) TestRegisterIdentity() {
	s.Run("registers wallet with identity and country", func() {
		s.Require().NoError(s.registry.RegisterIdentity(s.ctx, alice, s.aliceID.Address(), domain.CountryFR))

		ok, err := s.registry.Contains(s.ctx, alice)
		s.Require().NoError(err)
		s.True(ok)

		country, err := s.registry.InvestorCountry(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal(domain.CountryFR, country)

		id, err := s.registry.Identity(s.ctx, alice)
		s.Require().NoError(err)
		s.Equal(s.aliceID.Address(), id)
	})

	s.Run("second registration of the same wallet conflicts", func() {
		err := s.registry.RegisterIdentity(s.ctx, alice, s.aliceID.Address(), domain.CountryDE)
		s.True(dErrors.HasCode(err, dErrors.CodeConflict))
	})

	s.Run("caller without registrar role is rejected", func() {
		err := s.registry.RegisterIdentity(testutil.AsCaller(stranger), bob, common.HexToAddress("0x2b"), domain.CountryUS)
		var unauthorized *access.UnauthorizedError
		s.True(errors.As(err, &unauthorized))
	})

	s.Run("zero identity and unknown country are invalid", func() {
		err := s.registry.RegisterIdentity(s.ctx, bob, common.Address{}, domain.CountryUS)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
		err = s.registry.RegisterIdentity(s.ctx, bob, common.HexToAddress("0x2b"), domain.CountryUnknown)
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("emits IdentityRegistered", func() {
		recorded, err := s.outbox.ListByEmitter(s.ctx, s.registry.Address())
		s.Require().NoError(err)
		s.Require().Len(recorded, 1)
		s.Equal(events.TypeIdentityRegistered, recorded[0].Type)
		s.Equal(alice.Hex(), recorded[0].Attr(events.AttrHolder))
		s.Equal("250", recorded[0].Attr(events.AttrCountry))
	})
}

func (s *RegistrySuite) TestUnregisteredLookups() {
	s.Run("unknown wallet reads as absent, not as an error", func() {
		ok, err := s.registry.Contains(s.ctx, bob)
		s.Require().NoError(err)
		s.False(ok)

		country, err := s.registry.InvestorCountry(s.ctx, bob)
		s.Require().NoError(err)
		s.Equal(domain.CountryUnknown, country)
	})
}

func (s *RegistrySuite) TestBatchRegisterIdentity() {
	s.Run("a bad row registers nothing", func() {
		err := s.registry.BatchRegisterIdentity(s.ctx, []models.Registration{
			{Wallet: alice, Identity: s.aliceID.Address(), Country: domain.CountryFR},
			{Wallet: bob, Identity: common.Address{}, Country: domain.CountryUS},
		})
		s.Require().Error(err)

		ok, err := s.registry.Contains(s.ctx, alice)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("duplicate wallets in one batch are rejected", func() {
		err := s.registry.BatchRegisterIdentity(s.ctx, []models.Registration{
			{Wallet: alice, Identity: s.aliceID.Address(), Country: domain.CountryFR},
			{Wallet: alice, Identity: s.aliceID.Address(), Country: domain.CountryDE},
		})
		s.True(dErrors.HasCode(err, dErrors.CodeInvalidInput))
	})

	s.Run("valid batch registers every row", func() {
		s.Require().NoError(s.registry.BatchRegisterIdentity(s.ctx, []models.Registration{
			{Wallet: alice, Identity: s.aliceID.Address(), Country: domain.CountryFR},
			{Wallet: bob, Identity: common.HexToAddress("0x2b"), Country: domain.CountryUS},
		}))
		for _, w := range []common.Address{alice, bob} {
			ok, err := s.registry.Contains(s.ctx, w)
			s.Require().NoError(err)
			s.True(ok)
		}
	})
}

func (s *RegistrySuite) TestUpdatesAndDelete() {
	s.Require().NoError(s.registry.RegisterIdentity(s.ctx, alice, s.aliceID.Address(), domain.CountryFR))

	s.Run("update country", func() {
		s.Require().NoError(s.registry.UpdateCountry(s.ctx, alice, domain.CountryDE))
		country, _ := s.registry.InvestorCountry(s.ctx, alice)
		s.Equal(domain.CountryDE, country)
	})

	s.Run("update identity keeps country", func() {
		s.Require().NoError(s.registry.UpdateIdentity(s.ctx, alice, common.HexToAddress("0x1b")))
		id, _ := s.registry.Identity(s.ctx, alice)
		s.Equal(common.HexToAddress("0x1b"), id)
		country, _ := s.registry.InvestorCountry(s.ctx, alice)
		s.Equal(domain.CountryDE, country)
	})

	s.Run("updating an unregistered wallet is not found", func() {
		err := s.registry.UpdateCountry(s.ctx, bob, domain.CountryUS)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})

	s.Run("delete removes the entry", func() {
		s.Require().NoError(s.registry.DeleteIdentity(s.ctx, alice))
		ok, _ := s.registry.Contains(s.ctx, alice)
		s.False(ok)
		err := s.registry.DeleteIdentity(s.ctx, alice)
		s.True(dErrors.HasCode(err, dErrors.CodeNotFound))
	})
}

// =============================================================================
// Verification
// =============================================================================

func (s *RegistrySuite) TestIsVerified() {
	kyc := []domain.ClaimTopic{domain.TopicKYC}

	s.Run("unregistered wallet is never verified", func() {
		ok, err := s.registry.IsVerified(s.ctx, alice, nil)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Require().NoError(s.registry.RegisterIdentity(s.ctx, alice, s.aliceID.Address(), domain.CountryFR))

	s.Run("no required topics only needs registration", func() {
		ok, err := s.registry.IsVerified(s.ctx, alice, nil)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("missing claim fails verification", func() {
		ok, err := s.registry.IsVerified(s.ctx, alice, kyc)
		s.Require().NoError(err)
		s.False(ok)
	})

	claim, err := s.kycIssuer.Issue(s.aliceID, domain.TopicKYC, []byte("kyc:passed"))
	s.Require().NoError(err)

	s.Run("valid claim from trusted issuer verifies", func() {
		ok, err := s.registry.IsVerified(s.ctx, alice, kyc)
		s.Require().NoError(err)
		s.True(ok)
	})

	s.Run("every topic must be satisfied", func() {
		ok, err := s.registry.IsVerified(s.ctx, alice, []domain.ClaimTopic{domain.TopicKYC, domain.TopicAML})
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("issuer trusted for another topic does not count", func() {
		amlOnly, err := claims.GenerateIssuer(common.HexToAddress("0xc2"))
		s.Require().NoError(err)
		s.directory.AddIssuer(amlOnly)
		s.Require().NoError(s.issuers.AddTrustedIssuer(testutil.AsCaller(admin), amlOnly.Address(), []domain.ClaimTopic{domain.TopicAML}))
		_, err = amlOnly.Issue(s.aliceID, domain.TopicAccreditation, []byte("accredited"))
		s.Require().NoError(err)

		ok, err := s.registry.IsVerified(s.ctx, alice, []domain.ClaimTopic{domain.TopicAccreditation})
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("revoked claim fails verification", func() {
		s.kycIssuer.Revoke(claim.Signature)
		ok, err := s.registry.IsVerified(s.ctx, alice, kyc)
		s.Require().NoError(err)
		s.False(ok)
	})

	s.Run("identity contract that cannot be resolved is unverified", func() {
		s.Require().NoError(s.registry.UpdateIdentity(s.ctx, alice, common.HexToAddress("0xdead")))
		ok, err := s.registry.IsVerified(s.ctx, alice, kyc)
		s.Require().NoError(err)
		s.False(ok)
	})
}
