package modules

import (
	"context"
	"fmt"
	"math/big"
	"slices"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	"tokengate/internal/access"
	"tokengate/internal/compliance"
	"tokengate/internal/compliance/ports"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
)

const (
	ReasonCountryNotAllowed = "Receiver country not in allowlist"
	ReasonCountryBlocked    = "Receiver country blocked"
)

// countrySet is a module-instance-global set of countries edited by the
// manager role. Both country modules share it.
type countrySet struct {
	access     *access.Controller
	registries ports.RegistryResolver

	mu        sync.RWMutex
	countries map[domain.CountryCode]struct{}
}

func newCountrySet(ctrl *access.Controller, registries ports.RegistryResolver) (*countrySet, error) {
	if ctrl == nil {
		return nil, fmt.Errorf("access controller is required")
	}
	if registries == nil {
		return nil, fmt.Errorf("registry resolver is required")
	}
	return &countrySet{
		access:     ctrl,
		registries: registries,
		countries:  make(map[domain.CountryCode]struct{}),
	}, nil
}

func (s *countrySet) add(ctx context.Context, codes []domain.CountryCode) error {
	if err := s.access.Require(ctx, access.RoleManager); err != nil {
		return err
	}
	for _, c := range codes {
		if !c.Known() {
			return dErrors.New(dErrors.CodeInvalidInput, "country code is required")
		}
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range codes {
		s.countries[c] = struct{}{}
	}
	return nil
}

func (s *countrySet) remove(ctx context.Context, codes []domain.CountryCode) error {
	if err := s.access.Require(ctx, access.RoleManager); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, c := range codes {
		delete(s.countries, c)
	}
	return nil
}

func (s *countrySet) has(c domain.CountryCode) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.countries[c]
	return ok
}

func (s *countrySet) list() []domain.CountryCode {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]domain.CountryCode, 0, len(s.countries))
	for c := range s.countries {
		out = append(out, c)
	}
	slices.Sort(out)
	return out
}

// recipientCountry returns the recipient's country, or false when the
// recipient has no identity or declared no country.
func (s *countrySet) recipientCountry(ctx context.Context, token, to common.Address) (domain.CountryCode, bool, error) {
	registry, err := s.registries.IdentityRegistryOf(ctx, token)
	if err != nil {
		return domain.CountryUnknown, false, fmt.Errorf("resolve identity registry: %w", err)
	}
	known, err := registry.Contains(ctx, to)
	if err != nil {
		return domain.CountryUnknown, false, fmt.Errorf("lookup recipient: %w", err)
	}
	if !known {
		return domain.CountryUnknown, false, nil
	}
	country, err := registry.InvestorCountry(ctx, to)
	if err != nil {
		return domain.CountryUnknown, false, fmt.Errorf("lookup recipient country: %w", err)
	}
	return country, country.Known(), nil
}

// =============================================================================
// CountryAllowList
// =============================================================================

// CountryAllowList permits transfers to recipients whose country is in the
// global allow-set or in the token's own list (params: uint16[]). Recipients
// with no identity or no country pass.
type CountryAllowList struct {
	Base
	set *countrySet
}

func NewCountryAllowList(ctrl *access.Controller, registries ports.RegistryResolver) (*CountryAllowList, error) {
	set, err := newCountrySet(ctrl, registries)
	if err != nil {
		return nil, err
	}
	return &CountryAllowList{set: set}, nil
}

func (m *CountryAllowList) Name() string { return "CountryAllowListModule" }

func (m *CountryAllowList) ValidateParameters(params []byte) error {
	_, err := DecodeCountries(params)
	return err
}

func (m *CountryAllowList) CanTransfer(ctx context.Context, token, _, to common.Address, _ *big.Int, params []byte) error {
	tokenCountries, err := DecodeCountries(params)
	if err != nil {
		return err
	}
	country, known, err := m.set.recipientCountry(ctx, token, to)
	if err != nil {
		return err
	}
	if !known || m.set.has(country) || slices.Contains(tokenCountries, country) {
		return nil
	}
	return compliance.Reject(ReasonCountryNotAllowed)
}

// AddGlobalAllowedCountries requires the manager role.
func (m *CountryAllowList) AddGlobalAllowedCountries(ctx context.Context, codes ...domain.CountryCode) error {
	return m.set.add(ctx, codes)
}

// RemoveGlobalAllowedCountries requires the manager role.
func (m *CountryAllowList) RemoveGlobalAllowedCountries(ctx context.Context, codes ...domain.CountryCode) error {
	return m.set.remove(ctx, codes)
}

func (m *CountryAllowList) GlobalAllowedCountries() []domain.CountryCode {
	return m.set.list()
}

// =============================================================================
// CountryBlockList
// =============================================================================

// CountryBlockList rejects transfers to recipients whose known country is in
// the global block-set or in the token's own list (params: uint16[]).
type CountryBlockList struct {
	Base
	set *countrySet
}

func NewCountryBlockList(ctrl *access.Controller, registries ports.RegistryResolver) (*CountryBlockList, error) {
	set, err := newCountrySet(ctrl, registries)
	if err != nil {
		return nil, err
	}
	return &CountryBlockList{set: set}, nil
}

func (m *CountryBlockList) Name() string { return "CountryBlockListModule" }

func (m *CountryBlockList) ValidateParameters(params []byte) error {
	_, err := DecodeCountries(params)
	return err
}

func (m *CountryBlockList) CanTransfer(ctx context.Context, token, _, to common.Address, _ *big.Int, params []byte) error {
	tokenCountries, err := DecodeCountries(params)
	if err != nil {
		return err
	}
	country, known, err := m.set.recipientCountry(ctx, token, to)
	if err != nil {
		return err
	}
	if known && (m.set.has(country) || slices.Contains(tokenCountries, country)) {
		return compliance.Reject(ReasonCountryBlocked)
	}
	return nil
}

// AddGlobalBlockedCountries requires the manager role.
func (m *CountryBlockList) AddGlobalBlockedCountries(ctx context.Context, codes ...domain.CountryCode) error {
	return m.set.add(ctx, codes)
}

// RemoveGlobalBlockedCountries requires the manager role.
func (m *CountryBlockList) RemoveGlobalBlockedCountries(ctx context.Context, codes ...domain.CountryCode) error {
	return m.set.remove(ctx, codes)
}

func (m *CountryBlockList) GlobalBlockedCountries() []domain.CountryCode {
	return m.set.list()
}
