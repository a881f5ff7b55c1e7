package indexer

import (
	"bytes"
	"context"
	"log/slog"
	"math/big"
	"testing"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/suite"

	"tokengate/internal/compliance/modules"
	"tokengate/internal/deployment"
	idservice "tokengate/internal/identity/service"
	"tokengate/internal/indexer/metrics"
	"tokengate/internal/token"
	"tokengate/pkg/domain"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/events/publisher"
	eventstore "tokengate/pkg/platform/events/store/memory"
	tu "tokengate/pkg/testutil"
)

var (
	admin    = common.HexToAddress("0xad")
	agent    = common.HexToAddress("0xa6")
	alice    = common.HexToAddress("0xa11ce")
	bob      = common.HexToAddress("0xb0b")
	dave     = common.HexToAddress("0xda4e")
	registry = common.HexToAddress("0x1d1d")
	bond     = common.HexToAddress("0x70c0")
	allowAt  = common.HexToAddress("0x3001")
)

const deploymentYAML = `
admin: "0x00000000000000000000000000000000000000ad"
registries:
  - address: "0x0000000000000000000000000000000000001d1d"
issuers:
  - address: "0x00000000000000000000000000000000000000c1"
    topics: [1]
identities:
  - wallet: "0x00000000000000000000000000000000000a11ce"
    registry: "0x0000000000000000000000000000000000001d1d"
    country: 250
    claims: [{issuer: "0x00000000000000000000000000000000000000c1", topic: 1}]
  - wallet: "0x0000000000000000000000000000000000000b0b"
    registry: "0x0000000000000000000000000000000000001d1d"
    country: 276
    claims: [{issuer: "0x00000000000000000000000000000000000000c1", topic: 1}]
modules:
  - address: "0x0000000000000000000000000000000000003001"
    kind: CountryAllowList
tokens:
  - address: "0x00000000000000000000000000000000000070c0"
    name: Bond 2030
    symbol: BND30
    decimals: 18
    registry: "0x0000000000000000000000000000000000001d1d"
    topics: [1]
    roles:
      supply: ["0x00000000000000000000000000000000000000a6"]
      custodian: ["0x00000000000000000000000000000000000000a6"]
      emergency: ["0x00000000000000000000000000000000000000a6"]
      governance: ["0x00000000000000000000000000000000000000a6"]
`

type ProjectionSuite struct {
	suite.Suite
	projection *Projection
	deployment *deployment.Deployment
	token      *token.Token
	metrics    *metrics.Metrics
}

func TestProjectionSuite(t *testing.T) {
	suite.Run(t, new(ProjectionSuite))
}

func (s *ProjectionSuite) SetupTest() {
	s.metrics = metrics.NewWithRegisterer(prometheus.NewRegistry())
	s.projection = New(WithMetrics(s.metrics))

	spec, err := deployment.Parse([]byte(deploymentYAML))
	s.Require().NoError(err)
	registryEvents := publisher.New(eventstore.NewInMemoryStore(), publisher.WithListeners(s.projection))
	s.deployment, err = deployment.Build(context.Background(), spec, deployment.Options{
		TokenOptions:    []token.Option{token.WithListeners(s.projection)},
		RegistryOptions: []idservice.Option{idservice.WithPublisher(registryEvents)},
	})
	s.Require().NoError(err)
	s.token, err = s.deployment.Directory.Token(bond)
	s.Require().NoError(err)
}

func (s *ProjectionSuite) assertParity(ctx context.Context, holders ...common.Address) {
	view, ok := s.projection.Token(bond)
	s.Require().True(ok)
	s.Equal(0, view.TotalSupply.Cmp(s.token.TotalSupply(ctx)), "total supply")
	s.Equal(s.token.Paused(ctx), view.Paused)
	s.Len(view.Modules, len(s.token.ComplianceModules(ctx)))

	for _, h := range holders {
		want := s.token.Holder(ctx, h)
		got := s.projection.Holder(bond, h)
		s.Equal(0, got.Balance.Cmp(want.Balance), "balance of %s", h.Hex())
		s.Equal(0, got.FrozenTokens.Cmp(want.FrozenTokens), "frozen tokens of %s", h.Hex())
		s.Equal(want.Frozen, got.Frozen, "frozen flag of %s", h.Hex())
	}
}

// =============================================================================
// Parity with the live token
// =============================================================================

// Justification: the read model is only useful if it never drifts from the
// token it shadows, including across the forced and recovery paths.
func (s *ProjectionSuite) TestProjectionTracksToken() {
	ctx := tu.AsCaller(agent)

	s.Run("identity registrations are projected", func() {
		view, ok := s.projection.Identity(registry, alice)
		s.Require().True(ok)
		s.Equal(uint16(domain.CountryFR), view.Country)
		s.Equal(deployment.DeriveIdentity(registry, alice), view.Identity)
	})

	s.Run("supply moves", func() {
		s.Require().NoError(s.token.Mint(ctx, alice, big.NewInt(1000)))
		s.Require().NoError(s.token.Mint(ctx, bob, big.NewInt(500)))
		s.Require().NoError(s.token.Transfer(tu.AsCaller(alice), bob, big.NewInt(200)))
		s.Require().NoError(s.token.Burn(ctx, bob, big.NewInt(100)))
		s.assertParity(ctx, alice, bob)
	})

	s.Run("custody moves", func() {
		s.Require().NoError(s.token.FreezePartialTokens(ctx, alice, big.NewInt(600)))
		s.Require().NoError(s.token.ForcedTransfer(ctx, alice, bob, big.NewInt(500)))
		s.Require().NoError(s.token.SetAddressFrozen(ctx, bob, true))
		s.assertParity(ctx, alice, bob)
	})

	s.Run("recovery", func() {
		identity := deployment.DeriveIdentity(registry, bob)
		s.Require().NoError(s.token.RecoveryAddress(ctx, bob, dave, identity))
		s.assertParity(ctx, alice, bob, dave)

		_, known := s.projection.Identity(registry, bob)
		s.False(known)
		moved, ok := s.projection.Identity(registry, dave)
		s.Require().True(ok)
		s.Equal(identity, moved.Identity)
	})

	s.Run("governance", func() {
		s.Require().NoError(s.token.AddComplianceModule(ctx, allowAt, modules.EncodeCountries(domain.CountryFR, domain.CountryDE)))
		s.Require().NoError(s.token.SetRequiredClaimTopics(ctx, []domain.ClaimTopic{domain.TopicKYC, domain.TopicAML}))
		s.Require().NoError(s.token.Pause(ctx))
		s.assertParity(ctx)

		view, _ := s.projection.Token(bond)
		s.Equal("1,2", view.ClaimTopics)
		s.Contains(view.Modules, allowAt)
	})

	s.Run("rejected operations leave no trace", func() {
		before, _ := s.projection.Token(bond)
		s.Error(s.token.Transfer(tu.AsCaller(alice), dave, big.NewInt(1)))
		after, _ := s.projection.Token(bond)
		s.Equal(before.Events, after.Events)
	})
}

// =============================================================================
// Delivery quirks
// =============================================================================

func mintEvent(to common.Address, amount string) events.Event {
	e := events.New(events.TypeMintCompleted, bond, agent, events.AttrTo, to.Hex(), events.AttrAmount, amount)
	e.Timestamp = tu.FixedTime
	return e
}

func (s *ProjectionSuite) TestRedeliveryIsIgnored() {
	p := New(WithMetrics(s.metrics), WithDedupeWindow(2))
	first := mintEvent(alice, "10")

	p.Notify(context.Background(), []events.Event{first, first})
	s.Equal("10", p.Holder(bond, alice).Balance.String())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Duplicates))

	s.Run("ids outside the window are forgotten", func() {
		p.Notify(context.Background(), []events.Event{mintEvent(bob, "1"), mintEvent(bob, "1")})
		p.Notify(context.Background(), []events.Event{first})
		s.Equal("20", p.Holder(bond, alice).Balance.String())
	})
}

func (s *ProjectionSuite) TestMalformedEventsAreSkipped() {
	var buf bytes.Buffer
	p := New(WithMetrics(s.metrics), WithLogger(slog.New(slog.NewTextHandler(&buf, nil))))

	bad := mintEvent(alice, "-5")
	unknown := events.Event{ID: uuid.New(), Type: "Teleported", Emitter: bond, Timestamp: time.Now()}
	p.Notify(context.Background(), []events.Event{bad, unknown, mintEvent(alice, "7")})

	s.Equal("7", p.Holder(bond, alice).Balance.String())
	s.Equal(float64(1), testutil.ToFloat64(s.metrics.Malformed.WithLabelValues(string(events.TypeMintCompleted))))
	s.Contains(buf.String(), "skipping malformed event")
}

func (s *ProjectionSuite) TestInterleavedCategories() {
	p := New()
	holder := alice.Hex()
	freeze := events.New(events.TypeTokensFrozen, bond, agent, events.AttrHolder, holder, events.AttrAmount, "4")
	mint := mintEvent(alice, "10")

	// Custody events may overtake supply events on another topic.
	p.Notify(context.Background(), []events.Event{freeze})
	p.Notify(context.Background(), []events.Event{mint})

	h := p.Holder(bond, alice)
	s.Equal("10", h.Balance.String())
	s.Equal("4", h.FrozenTokens.String())
}
