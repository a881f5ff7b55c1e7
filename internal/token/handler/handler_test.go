package handler_test

//go:generate mockgen -source=handler.go -destination=mocks/handler_mock.go -package=mocks

import (
	"context"
	"log/slog"
	"math/big"
	"net/http"
	"testing"

	"github.com/ethereum/go-ethereum/common"
	"github.com/go-chi/chi/v5"
	"github.com/stretchr/testify/suite"
	"go.uber.org/mock/gomock"

	"tokengate/internal/compliance"
	"tokengate/internal/ledger"
	"tokengate/internal/token"
	"tokengate/internal/token/handler"
	"tokengate/internal/token/handler/mocks"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/requestcontext"
	"tokengate/pkg/testutil"
)

var (
	tokenAddr = common.HexToAddress("0x7000000000000000000000000000000000000001")
	caller    = common.HexToAddress("0xa600000000000000000000000000000000000006")
	alice     = common.HexToAddress("0xa11ce00000000000000000000000000000000001")
	bob       = common.HexToAddress("0xb0b0000000000000000000000000000000000002")
	module    = common.HexToAddress("0x3001000000000000000000000000000000000003")
)

type HandlerSuite struct {
	suite.Suite
	ctrl   *gomock.Controller
	tokens *mocks.MockDirectory
	token  *mocks.MockToken
	router chi.Router
}

func TestHandlerSuite(t *testing.T) {
	suite.Run(t, new(HandlerSuite))
}

func (s *HandlerSuite) SetupTest() {
	s.ctrl = gomock.NewController(s.T())
	s.tokens = mocks.NewMockDirectory(s.ctrl)
	s.token = mocks.NewMockToken(s.ctrl)
	s.token.EXPECT().Address().Return(tokenAddr).AnyTimes()

	s.router = chi.NewRouter()
	s.router.Use(func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			ctx := requestcontext.WithCaller(r.Context(), caller)
			next.ServeHTTP(w, r.WithContext(ctx))
		})
	})
	handler.New(s.tokens, slog.New(slog.DiscardHandler)).Register(s.router)
}

func (s *HandlerSuite) expectToken() {
	s.tokens.EXPECT().Token(tokenAddr).Return(s.token, nil)
}

func path(suffix string) string {
	return "/tokens/" + tokenAddr.Hex() + suffix
}

// =============================================================================
// Reads
// =============================================================================

func (s *HandlerSuite) TestGetToken() {
	s.Run("summarizes token state", func() {
		s.expectToken()
		s.token.EXPECT().Name().Return("Bond")
		s.token.EXPECT().Symbol().Return("BND")
		s.token.EXPECT().Decimals().Return(uint8(18))
		s.token.EXPECT().Cap().Return(big.NewInt(1_000_000))
		s.token.EXPECT().TotalSupply(gomock.Any()).Return(big.NewInt(250))
		s.token.EXPECT().Paused(gomock.Any()).Return(true)
		s.token.EXPECT().IdentityRegistryAddress().Return(common.HexToAddress("0x1d"))
		s.token.EXPECT().RequiredClaimTopics(gomock.Any()).Return([]domain.ClaimTopic{7, 42})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path("/")))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[handler.TokenResponse](s.T(), rr)
		s.Equal("BND", resp.Symbol)
		s.Equal("1000000", resp.Cap)
		s.Equal("250", resp.TotalSupply)
		s.True(resp.Paused)
		s.Equal([]string{"7", "42"}, resp.RequiredClaimTopics)
	})

	s.Run("unknown token is not found", func() {
		s.tokens.EXPECT().Token(tokenAddr).Return(nil, dErrors.New(dErrors.CodeNotFound, "token not found"))

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path("/")))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusNotFound, string(dErrors.CodeNotFound))
	})

	s.Run("malformed token address is rejected before lookup", func() {
		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, "/tokens/not-an-address/"))

		testutil.AssertStatus(s.T(), rr, http.StatusBadRequest)
	})
}

func (s *HandlerSuite) TestGetHolder() {
	s.expectToken()
	s.token.EXPECT().Holder(gomock.Any(), alice).Return(ledger.HolderState{
		Address:      alice,
		Balance:      big.NewInt(100),
		Frozen:       true,
		FrozenTokens: big.NewInt(40),
	})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path("/holders/"+alice.Hex())))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[handler.HolderResponse](s.T(), rr)
	s.Equal(handler.HolderResponse{
		Address:      alice.Hex(),
		Balance:      "100",
		Frozen:       true,
		FrozenTokens: "40",
	}, *resp)
}

func (s *HandlerSuite) TestListModules() {
	s.expectToken()
	s.token.EXPECT().ComplianceModules(gomock.Any()).Return([]compliance.ModuleParams{
		{Module: module, Params: []byte{0x01, 0xfa}},
	})

	rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodGet, path("/compliance/modules")))

	testutil.AssertStatusOK(s.T(), rr)
	resp := testutil.UnmarshalResponse[handler.ModulesResponse](s.T(), rr)
	s.Require().Len(resp.Modules, 1)
	s.Equal("0x01fa", resp.Modules[0].Params)
}

// =============================================================================
// Supply and transfers
// =============================================================================

func (s *HandlerSuite) TestMint() {
	s.Run("forwards the parsed batch as the caller", func() {
		s.expectToken()
		s.token.EXPECT().
			BatchMint(gomock.Any(), []common.Address{alice, bob}, []*big.Int{big.NewInt(10), big.NewInt(20)}).
			DoAndReturn(func(ctx context.Context, _ []common.Address, _ []*big.Int) error {
				s.Equal(caller, requestcontext.Caller(ctx))
				return nil
			})

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path("/mint"), map[string]any{
			"items": []map[string]string{
				{"address": alice.Hex(), "amount": "10"},
				{"address": bob.Hex(), "amount": "20"},
			},
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusOK(s.T(), rr)
		testutil.AssertJSONContains(s.T(), rr, "operation", "mint")
	})

	s.Run("invalid amount never reaches the token", func() {
		s.expectToken()

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path("/mint"), map[string]any{
			"items": []map[string]string{{"address": alice.Hex(), "amount": "-5"}},
		})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeInvalidInput))
	})

	s.Run("empty batch is a validation error", func() {
		s.expectToken()

		req := testutil.NewJSONRequest(s.T(), http.MethodPost, path("/mint"), map[string]any{"items": []any{}})
		rr := testutil.DoRequest(s.router, req)

		testutil.AssertStatusAndError(s.T(), rr, http.StatusUnprocessableEntity, string(dErrors.CodeValidation))
	})

	s.Run("unknown fields are rejected", func() {
		s.expectToken()

		rr := testutil.DoRequest(s.router, testutil.NewRequestWithBody(s.T(), http.MethodPost, path("/mint"), `{"items":[],"extra":1}`))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusBadRequest, string(dErrors.CodeBadRequest))
	})
}

func (s *HandlerSuite) TestTransferRejection() {
	// Justification: revert names must survive the transport so that
	// clients can branch on them without parsing messages.
	s.expectToken()
	s.token.EXPECT().
		BatchTransfer(gomock.Any(), []common.Address{bob}, []*big.Int{big.NewInt(5)}).
		Return(&compliance.ComplianceCheckFailedError{Module: module, Name: "CountryAllowList", Message: "country not allowed"})

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path("/transfer"), map[string]any{
		"items": []map[string]string{{"address": bob.Hex(), "amount": "5"}},
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	body := testutil.UnmarshalErrorResponse(s.T(), rr)
	s.Equal(string(dErrors.CodeComplianceRejected), body["error"])
	s.Equal("ComplianceCheckFailed", body["reason"])
}

func (s *HandlerSuite) TestForcedTransfer() {
	s.expectToken()
	s.token.EXPECT().
		BatchForcedTransfer(gomock.Any(), []common.Address{alice}, []common.Address{bob}, []*big.Int{big.NewInt(3)}).
		Return(nil)

	req := testutil.NewJSONRequest(s.T(), http.MethodPost, path("/forced-transfer"), map[string]any{
		"items": []map[string]string{{"from": alice.Hex(), "to": bob.Hex(), "amount": "3"}},
	})
	rr := testutil.DoRequest(s.router, req)

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestRedeem() {
	s.expectToken()
	s.token.EXPECT().Redeem(gomock.Any(), big.NewInt(8)).Return(nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/redeem"), map[string]string{"amount": "8"}))

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestCheckTransfer() {
	body := map[string]string{"from": alice.Hex(), "to": bob.Hex(), "amount": "1"}

	s.Run("allowed transfer", func() {
		s.expectToken()
		s.token.EXPECT().CheckTransfer(gomock.Any(), alice, bob, big.NewInt(1)).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/check-transfer"), body))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[handler.CheckTransferResponse](s.T(), rr)
		s.True(resp.Allowed)
	})

	s.Run("rejection is reported as a verdict", func() {
		s.expectToken()
		s.token.EXPECT().CheckTransfer(gomock.Any(), alice, bob, big.NewInt(1)).Return(&token.EnforcedPauseError{})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/check-transfer"), body))

		testutil.AssertStatusOK(s.T(), rr)
		resp := testutil.UnmarshalResponse[handler.CheckTransferResponse](s.T(), rr)
		s.False(resp.Allowed)
		s.Equal("EnforcedPause", resp.Reason)
		s.Equal(string(dErrors.CodeConflict), resp.Code)
	})

	s.Run("internal failures are errors, not verdicts", func() {
		s.expectToken()
		s.token.EXPECT().CheckTransfer(gomock.Any(), alice, bob, big.NewInt(1)).Return(context.DeadlineExceeded)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/check-transfer"), body))

		testutil.AssertStatusAndError(s.T(), rr, http.StatusInternalServerError, string(dErrors.CodeInternal))
	})
}

// =============================================================================
// Custodian and governance
// =============================================================================

func (s *HandlerSuite) TestRecovery() {
	identity := common.HexToAddress("0x1d00000000000000000000000000000000000009")
	s.expectToken()
	s.token.EXPECT().RecoveryAddress(gomock.Any(), alice, bob, identity).Return(nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/recovery"), map[string]string{
		"lost_wallet": alice.Hex(),
		"new_wallet":  bob.Hex(),
		"identity":    identity.Hex(),
	}))

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestFreeze() {
	s.expectToken()
	s.token.EXPECT().BatchSetAddressFrozen(gomock.Any(), []common.Address{alice, bob}, []bool{true, false}).Return(nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/freeze"), map[string]any{
		"items": []map[string]any{
			{"address": alice.Hex(), "frozen": true},
			{"address": bob.Hex(), "frozen": false},
		},
	}))

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestPartialFreeze() {
	s.expectToken()
	s.token.EXPECT().BatchFreezePartialTokens(gomock.Any(), []common.Address{alice}, []*big.Int{big.NewInt(4)}).Return(nil)

	rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/freeze-partial"), map[string]any{
		"items": []map[string]string{{"address": alice.Hex(), "amount": "4"}},
	}))

	testutil.AssertStatusOK(s.T(), rr)
}

func (s *HandlerSuite) TestModuleManagement() {
	s.Run("add decodes hex params", func() {
		s.expectToken()
		s.token.EXPECT().AddComplianceModule(gomock.Any(), module, []byte{0x00, 0xfa}).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/compliance/modules"), map[string]string{
			"module": module.Hex(),
			"params": "0x00fa",
		}))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("duplicate module is a conflict", func() {
		s.expectToken()
		s.token.EXPECT().AddComplianceModule(gomock.Any(), module, []byte{}).
			Return(&compliance.ModuleAlreadyAddedError{Module: module})

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/compliance/modules"), map[string]string{
			"module": module.Hex(),
			"params": "0x",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
		s.Equal("ModuleAlreadyAdded", testutil.UnmarshalErrorResponse(s.T(), rr)["reason"])
	})

	s.Run("non-hex params are rejected", func() {
		s.expectToken()

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPost, path("/compliance/modules"), map[string]string{
			"module": module.Hex(),
			"params": "zz",
		}))

		testutil.AssertStatus(s.T(), rr, http.StatusUnprocessableEntity)
	})

	s.Run("remove", func() {
		s.expectToken()
		s.token.EXPECT().RemoveComplianceModule(gomock.Any(), module).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodDelete, path("/compliance/modules/"+module.Hex())))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("set parameters", func() {
		s.expectToken()
		s.token.EXPECT().SetParametersForComplianceModule(gomock.Any(), module, []byte{0x01}).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, path("/compliance/modules/"+module.Hex()), map[string]string{
			"params": "0x01",
		}))

		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *HandlerSuite) TestClaimTopicsAndRegistry() {
	s.Run("claim topics", func() {
		s.expectToken()
		s.token.EXPECT().SetRequiredClaimTopics(gomock.Any(), []domain.ClaimTopic{1, 7}).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, path("/claim-topics"), map[string]any{
			"topics": []uint64{1, 7},
		}))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("identity registry", func() {
		registry := common.HexToAddress("0x1d000000000000000000000000000000000000aa")
		s.expectToken()
		s.token.EXPECT().SetIdentityRegistry(gomock.Any(), registry).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewJSONRequest(s.T(), http.MethodPut, path("/identity-registry"), map[string]string{
			"registry": registry.Hex(),
		}))

		testutil.AssertStatusOK(s.T(), rr)
	})
}

func (s *HandlerSuite) TestPause() {
	s.Run("pause", func() {
		s.expectToken()
		s.token.EXPECT().Pause(gomock.Any()).Return(nil)

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, path("/pause")))

		testutil.AssertStatusOK(s.T(), rr)
	})

	s.Run("unpause when running is a conflict", func() {
		s.expectToken()
		s.token.EXPECT().Unpause(gomock.Any()).Return(&token.ExpectedPauseError{})

		rr := testutil.DoRequest(s.router, testutil.NewRequest(s.T(), http.MethodPost, path("/unpause")))

		testutil.AssertStatus(s.T(), rr, http.StatusConflict)
	})
}
