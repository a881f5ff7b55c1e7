package compliance

import (
	"context"
	"errors"
	"math/big"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/suite"

	"tokengate/internal/compliance/metrics"
	dErrors "tokengate/pkg/domain-errors"
)

// stubModule rejects when reject is set and records hook calls.
type stubModule struct {
	name    string
	reject  string
	fail    error
	hookErr error
	checks  int
	created int
	counter int
	unbound []common.Address
}

func (m *stubModule) Name() string { return m.name }
func (m *stubModule) CanTransfer(context.Context, common.Address, common.Address, common.Address, *big.Int, []byte) error {
	m.checks++
	if m.fail != nil {
		return m.fail
	}
	if m.reject != "" {
		return Reject(m.reject)
	}
	return nil
}
func (m *stubModule) ValidateParameters(params []byte) error {
	if string(params) == "bad" {
		return errors.New("malformed")
	}
	return nil
}
func (m *stubModule) Created(context.Context, common.Address, common.Address, *big.Int, []byte) error {
	m.created++
	m.counter++
	return m.hookErr
}
func (m *stubModule) Transferred(context.Context, common.Address, common.Address, common.Address, *big.Int, []byte) error {
	return m.hookErr
}
func (m *stubModule) Destroyed(context.Context, common.Address, common.Address, *big.Int, []byte) error {
	return m.hookErr
}
func (m *stubModule) Snapshot(common.Address) any         { return m.counter }
func (m *stubModule) Restore(_ common.Address, state any) { m.counter = state.(int) }

// unbindingModule is a stubModule that also forgets tokens on removal.
type unbindingModule struct {
	stubModule
}

func (m *unbindingModule) Unbound(token common.Address) {
	m.unbound = append(m.unbound, token)
	m.counter = 0
}

var (
	token   = common.HexToAddress("0x7011")
	modA    = common.HexToAddress("0xa001")
	modB    = common.HexToAddress("0xa002")
	modC    = common.HexToAddress("0xa003")
	notMod  = common.HexToAddress("0xa004")
	holderA = common.HexToAddress("0x1001")
	holderB = common.HexToAddress("0x1002")
)

type EngineSuite struct {
	suite.Suite
	ctx     context.Context
	catalog *Catalog
	engine  *Engine
	a, b, c *stubModule
}

func TestEngineSuite(t *testing.T) {
	suite.Run(t, new(EngineSuite))
}

func (s *EngineSuite) SetupTest() {
	s.ctx = context.Background()
	s.catalog = NewCatalog()
	s.a = &stubModule{name: "A"}
	s.b = &stubModule{name: "B"}
	s.c = &stubModule{name: "C"}
	s.Require().NoError(s.catalog.Deploy(modA, s.a))
	s.Require().NoError(s.catalog.Deploy(modB, s.b))
	s.Require().NoError(s.catalog.Deploy(modC, s.c))
	s.Require().NoError(s.catalog.Deploy(notMod, struct{}{}))

	var err error
	s.engine, err = NewEngine(token, s.catalog, WithMetrics(metrics.NewWithRegisterer(prometheus.NewRegistry())))
	s.Require().NoError(err)
}

// =============================================================================
// Module management
// =============================================================================

func (s *EngineSuite) TestAddModule() {
	s.Run("appends in insertion order", func() {
		s.Require().NoError(s.engine.AddModule(modA, []byte("a")))
		s.Require().NoError(s.engine.AddModule(modB, []byte("b")))
		mods := s.engine.Modules()
		s.Require().Len(mods, 2)
		s.Equal(modA, mods[0].Module)
		s.Equal([]byte("b"), mods[1].Params)
	})

	s.Run("duplicate module is rejected", func() {
		err := s.engine.AddModule(modA, nil)
		var dup *ModuleAlreadyAddedError
		s.Require().ErrorAs(err, &dup)
		s.Equal(modA, dup.Module)
		s.Equal("ModuleAlreadyAdded", dErrors.ReasonOf(err))
	})

	s.Run("address without module implementation is rejected", func() {
		var invalid *InvalidModuleImplementationError
		s.ErrorAs(s.engine.AddModule(notMod, nil), &invalid)
		s.ErrorAs(s.engine.AddModule(common.HexToAddress("0xffff"), nil), &invalid)
	})

	s.Run("malformed params are rejected and nothing is added", func() {
		var invalid *InvalidParametersError
		s.ErrorAs(s.engine.AddModule(modC, []byte("bad")), &invalid)
		s.False(s.engine.HasModule(modC))
	})
}

func (s *EngineSuite) TestRemoveModule() {
	for _, m := range []common.Address{modA, modB, modC} {
		s.Require().NoError(s.engine.AddModule(m, nil))
	}

	s.Run("removes and keeps the remaining set", func() {
		s.Require().NoError(s.engine.RemoveModule(modA))
		s.False(s.engine.HasModule(modA))
		got := map[common.Address]bool{}
		for _, mp := range s.engine.Modules() {
			got[mp.Module] = true
		}
		s.Equal(map[common.Address]bool{modB: true, modC: true}, got)
	})

	s.Run("unknown module is not found", func() {
		var nf *ModuleNotFoundError
		s.ErrorAs(s.engine.RemoveModule(modA), &nf)
	})

	s.Run("removed module can be re-added", func() {
		s.NoError(s.engine.AddModule(modA, nil))
	})
}

func (s *EngineSuite) TestSetModuleParameters() {
	s.Require().NoError(s.engine.AddModule(modA, []byte("v1")))

	s.Run("valid params replace the old ones", func() {
		s.Require().NoError(s.engine.SetModuleParameters(modA, []byte("v2")))
		s.Equal([]byte("v2"), s.engine.Modules()[0].Params)
	})

	s.Run("invalid params keep the old ones", func() {
		var invalid *InvalidParametersError
		s.ErrorAs(s.engine.SetModuleParameters(modA, []byte("bad")), &invalid)
		s.Equal([]byte("v2"), s.engine.Modules()[0].Params)
	})

	s.Run("unregistered module is not found", func() {
		var nf *ModuleNotFoundError
		s.ErrorAs(s.engine.SetModuleParameters(modB, nil), &nf)
	})
}

func (s *EngineSuite) TestCloneIsIndependent() {
	s.Require().NoError(s.engine.AddModule(modA, nil))
	clone := s.engine.Clone()
	s.Require().NoError(clone.AddModule(modB, nil))
	s.Require().NoError(clone.RemoveModule(modA))

	s.True(s.engine.HasModule(modA))
	s.False(s.engine.HasModule(modB))
}

// =============================================================================
// Evaluation
// =============================================================================

func (s *EngineSuite) TestCanTransfer() {
	s.Run("no modules approves", func() {
		s.NoError(s.engine.CanTransfer(s.ctx, holderA, holderB, big.NewInt(1)))
	})

	s.Require().NoError(s.engine.AddModule(modA, nil))
	s.Require().NoError(s.engine.AddModule(modB, nil))
	s.Require().NoError(s.engine.AddModule(modC, nil))

	s.Run("all approve", func() {
		s.NoError(s.engine.CanTransfer(s.ctx, holderA, holderB, big.NewInt(1)))
	})

	s.Run("one dissent blocks and short-circuits", func() {
		s.a.checks, s.b.checks, s.c.checks = 0, 0, 0
		s.b.reject = "nope"
		err := s.engine.CanTransfer(s.ctx, holderA, holderB, big.NewInt(1))

		var failed *ComplianceCheckFailedError
		s.Require().ErrorAs(err, &failed)
		s.Equal(modB, failed.Module)
		s.Equal("nope", failed.Message)
		s.True(dErrors.HasCode(err, dErrors.CodeComplianceRejected))
		s.Equal(1, s.a.checks)
		s.Equal(0, s.c.checks)
	})

	s.Run("infrastructure failure is not a rejection", func() {
		s.b.reject = ""
		s.b.fail = errors.New("registry down")
		err := s.engine.CanTransfer(s.ctx, holderA, holderB, big.NewInt(1))
		s.Require().Error(err)
		var failed *ComplianceCheckFailedError
		s.False(errors.As(err, &failed))
		s.Equal(dErrors.CodeInternal, dErrors.CodeOf(err))
	})
}

func (s *EngineSuite) TestNotify() {
	s.Require().NoError(s.engine.AddModule(modA, nil))
	s.Require().NoError(s.engine.AddModule(modB, nil))

	s.Run("runs every module", func() {
		s.Require().NoError(s.engine.NotifyCreated(s.ctx, holderA, big.NewInt(5)))
		s.Equal(1, s.a.created)
		s.Equal(1, s.b.created)
	})

	s.Run("failing hook aborts with the module address", func() {
		s.a.hookErr = errors.New("accounting broke")
		err := s.engine.NotifyTransferred(s.ctx, holderA, holderB, big.NewInt(5))
		var hookErr *HookFailedError
		s.Require().ErrorAs(err, &hookErr)
		s.Equal(modA, hookErr.Module)
		s.Equal("transferred", hookErr.Hook)
	})
}

func (s *EngineSuite) TestCheckpointRestoresStatefulModules() {
	s.Require().NoError(s.engine.AddModule(modA, nil))
	s.a.counter = 3

	restore := s.engine.Checkpoint()
	s.Require().NoError(s.engine.NotifyCreated(s.ctx, holderA, big.NewInt(1)))
	s.Equal(4, s.a.counter)

	restore()
	s.Equal(3, s.a.counter)
}

func (s *EngineSuite) TestRemoveModuleUnbindsStatefulModules() {
	mod := &unbindingModule{stubModule: stubModule{name: "D"}}
	modD := common.HexToAddress("0xa005")
	s.Require().NoError(s.catalog.Deploy(modD, mod))
	s.Require().NoError(s.engine.AddModule(modA, nil))
	s.Require().NoError(s.engine.AddModule(modD, nil))
	mod.counter = 7

	restore := s.engine.Checkpoint()
	s.Require().NoError(s.engine.RemoveModule(modD))
	s.Equal([]common.Address{token}, mod.unbound)
	s.Equal(0, mod.counter)

	// Justification: a rolled back removal must bring the dropped state back.
	restore()
	s.Equal(7, mod.counter)

	s.Require().NoError(s.engine.RemoveModule(modA))
	s.Len(mod.unbound, 1, "modules without Unbinder are untouched")
}

func (s *EngineSuite) TestLoad() {
	s.Run("rebuilds the list through the catalog", func() {
		s.Require().NoError(s.engine.Load([]ModuleParams{{Module: modB}, {Module: modA}}))
		mods := s.engine.Modules()
		s.Require().Len(mods, 2)
		s.Equal(modB, mods[0].Module)
	})

	s.Run("invalid pair leaves the current list untouched", func() {
		err := s.engine.Load([]ModuleParams{{Module: modC}, {Module: notMod}})
		s.Require().Error(err)
		s.Len(s.engine.Modules(), 2)
		s.False(s.engine.HasModule(modC))
	})
}
