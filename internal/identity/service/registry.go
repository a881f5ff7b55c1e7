// Package service implements the identity gate: the registry mapping wallets
// to identity contracts and countries, and the claim-based verification that
// tokens consult before letting a wallet receive tokens.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/ethereum/go-ethereum/common"
	"golang.org/x/sync/errgroup"

	"tokengate/internal/access"
	"tokengate/internal/identity/claims"
	"tokengate/internal/identity/metrics"
	"tokengate/internal/identity/models"
	"tokengate/internal/identity/store"
	"tokengate/pkg/domain"
	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/platform/events"
	"tokengate/pkg/platform/sentinel"
	"tokengate/pkg/requestcontext"
)

// errTopicUnsatisfied cancels sibling topic checks once one topic fails.
var errTopicUnsatisfied = errors.New("claim topic unsatisfied")

// Registry is the identity registry bound to one or more tokens.
type Registry struct {
	address   common.Address
	store     store.Store
	issuers   *TrustedIssuers
	resolver  claims.Resolver
	access    *access.Controller
	publisher events.Publisher
	logger    *slog.Logger
	metrics   *metrics.Metrics
}

// Option configures the Registry.
type Option func(*Registry)

func WithLogger(logger *slog.Logger) Option {
	return func(r *Registry) {
		r.logger = logger
	}
}

func WithMetrics(m *metrics.Metrics) Option {
	return func(r *Registry) {
		r.metrics = m
	}
}

// WithPublisher emits registry events (IdentityRegistered, ...).
func WithPublisher(p events.Publisher) Option {
	return func(r *Registry) {
		r.publisher = p
	}
}

// New creates a registry at address.
func New(address common.Address, st store.Store, issuers *TrustedIssuers, resolver claims.Resolver, ctrl *access.Controller, opts ...Option) (*Registry, error) {
	if domain.IsZero(address) {
		return nil, fmt.Errorf("registry address is required")
	}
	if st == nil {
		return nil, fmt.Errorf("identity store is required")
	}
	if issuers == nil {
		return nil, fmt.Errorf("trusted issuers registry is required")
	}
	if resolver == nil {
		return nil, fmt.Errorf("claims resolver is required")
	}
	if ctrl == nil {
		return nil, fmt.Errorf("access controller is required")
	}
	r := &Registry{
		address:  address,
		store:    st,
		issuers:  issuers,
		resolver: resolver,
		access:   ctrl,
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r, nil
}

// Address identifies the registry; tokens store it as their binding.
func (r *Registry) Address() common.Address { return r.address }

// TrustedIssuers exposes the issuer registry the gate consults.
func (r *Registry) TrustedIssuers() *TrustedIssuers { return r.issuers }

// -----------------------------------------------------------------------------
// Queries
// -----------------------------------------------------------------------------

// Contains reports whether wallet has a registry entry.
func (r *Registry) Contains(ctx context.Context, wallet common.Address) (bool, error) {
	_, err := r.lookup(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

// InvestorCountry returns the declared country, or CountryUnknown when the
// wallet is not registered. Absence is not an error.
func (r *Registry) InvestorCountry(ctx context.Context, wallet common.Address) (domain.CountryCode, error) {
	entry, err := r.lookup(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return domain.CountryUnknown, nil
	}
	if err != nil {
		return domain.CountryUnknown, err
	}
	return entry.Country, nil
}

// Identity returns the identity contract bound to wallet, or the zero address.
func (r *Registry) Identity(ctx context.Context, wallet common.Address) (common.Address, error) {
	entry, err := r.lookup(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return common.Address{}, nil
	}
	if err != nil {
		return common.Address{}, err
	}
	return entry.Identity, nil
}

// IsVerified reports whether wallet is registered and, for every topic, its
// identity holds a claim signed by an issuer trusted for that topic which the
// issuer still considers valid. An empty topic list only requires registration.
func (r *Registry) IsVerified(ctx context.Context, wallet common.Address, topics []domain.ClaimTopic) (bool, error) {
	start := time.Now()
	defer func() { r.metrics.ObserveVerifyLatency(time.Since(start)) }()

	entry, err := r.lookup(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		r.metrics.IncVerification("unregistered")
		return false, nil
	}
	if err != nil {
		r.metrics.IncVerification("error")
		return false, err
	}

	topics = domain.UniqueTopics(topics)
	if len(topics) == 0 {
		r.metrics.IncVerification("verified")
		return true, nil
	}

	identity, err := r.resolver.Identity(ctx, entry.Identity)
	if errors.Is(err, claims.ErrUnknownContract) {
		r.metrics.IncVerification("unverified")
		return false, nil
	}
	if err != nil {
		r.metrics.IncVerification("error")
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "resolve identity contract")
	}

	g, gctx := errgroup.WithContext(ctx)
	for _, topic := range topics {
		g.Go(func() error {
			ok, err := r.hasValidClaim(gctx, identity, topic)
			if err != nil {
				return err
			}
			if !ok {
				return errTopicUnsatisfied
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		if errors.Is(err, errTopicUnsatisfied) {
			r.metrics.IncVerification("unverified")
			return false, nil
		}
		r.metrics.IncVerification("error")
		return false, dErrors.Wrap(err, dErrors.CodeInternal, "verify identity claims")
	}
	r.metrics.IncVerification("verified")
	return true, nil
}

func (r *Registry) hasValidClaim(ctx context.Context, identity claims.Identity, topic domain.ClaimTopic) (bool, error) {
	if len(r.issuers.IssuersForTopic(topic)) == 0 {
		return false, nil
	}
	held, err := identity.ClaimsByTopic(ctx, topic)
	if err != nil {
		return false, fmt.Errorf("read claims for topic %s: %w", topic, err)
	}
	for _, c := range held {
		if !r.issuers.IsTrustedFor(c.Issuer, topic) {
			continue
		}
		issuer, err := r.resolver.Issuer(ctx, c.Issuer)
		if errors.Is(err, claims.ErrUnknownContract) {
			continue
		}
		if err != nil {
			return false, err
		}
		valid, err := issuer.IsClaimValid(ctx, identity.Address(), topic, c.Signature, c.Data)
		if err != nil {
			return false, err
		}
		if valid {
			return true, nil
		}
	}
	return false, nil
}

func (r *Registry) lookup(ctx context.Context, wallet common.Address) (*models.Entry, error) {
	entry, err := r.store.Get(ctx, wallet)
	if err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return nil, err
		}
		return nil, dErrors.Wrap(err, dErrors.CodeInternal, "load identity entry")
	}
	return entry, nil
}

// -----------------------------------------------------------------------------
// Mutations (registrar role)
// -----------------------------------------------------------------------------

// RegisterIdentity binds wallet to identity with a declared country.
func (r *Registry) RegisterIdentity(ctx context.Context, wallet, identity common.Address, country domain.CountryCode) error {
	if err := r.access.Require(ctx, access.RoleRegistrar); err != nil {
		return err
	}
	if err := validateRegistration(models.Registration{Wallet: wallet, Identity: identity, Country: country}); err != nil {
		return err
	}
	exists, err := r.Contains(ctx, wallet)
	if err != nil {
		return err
	}
	if exists {
		return dErrors.New(dErrors.CodeConflict, "identity already registered for wallet")
	}
	if err := r.save(ctx, wallet, identity, country); err != nil {
		return err
	}
	r.metrics.IncMutation("register")
	r.emit(ctx, "identity_registered", events.TypeIdentityRegistered,
		events.AttrHolder, wallet.Hex(),
		events.AttrIdentity, identity.Hex(),
		events.AttrCountry, country.String(),
	)
	return nil
}

// BatchRegisterIdentity registers every row or none. Rows are validated up
// front; a storage failure part-way rolls back the rows already written.
func (r *Registry) BatchRegisterIdentity(ctx context.Context, regs []models.Registration) error {
	if err := r.access.Require(ctx, access.RoleRegistrar); err != nil {
		return err
	}
	seen := make(map[common.Address]struct{}, len(regs))
	for _, reg := range regs {
		if err := validateRegistration(reg); err != nil {
			return err
		}
		if _, dup := seen[reg.Wallet]; dup {
			return dErrors.New(dErrors.CodeInvalidInput, "duplicate wallet in batch")
		}
		seen[reg.Wallet] = struct{}{}
		exists, err := r.Contains(ctx, reg.Wallet)
		if err != nil {
			return err
		}
		if exists {
			return dErrors.New(dErrors.CodeConflict, "identity already registered for wallet")
		}
	}

	written := make([]common.Address, 0, len(regs))
	for _, reg := range regs {
		if err := r.save(ctx, reg.Wallet, reg.Identity, reg.Country); err != nil {
			for _, w := range written {
				if rbErr := r.store.Delete(ctx, w); rbErr != nil {
					r.logger.ErrorContext(ctx, "batch registration rollback failed",
						"wallet", w.Hex(),
						"error", rbErr,
					)
				}
			}
			return err
		}
		written = append(written, reg.Wallet)
	}

	for _, reg := range regs {
		r.metrics.IncMutation("register")
		r.emit(ctx, "identity_registered", events.TypeIdentityRegistered,
			events.AttrHolder, reg.Wallet.Hex(),
			events.AttrIdentity, reg.Identity.Hex(),
			events.AttrCountry, reg.Country.String(),
		)
	}
	return nil
}

// DeleteIdentity removes wallet's entry.
func (r *Registry) DeleteIdentity(ctx context.Context, wallet common.Address) error {
	if err := r.access.Require(ctx, access.RoleRegistrar); err != nil {
		return err
	}
	entry, err := r.lookup(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return dErrors.New(dErrors.CodeNotFound, "identity not registered for wallet")
	}
	if err != nil {
		return err
	}
	if err := r.store.Delete(ctx, wallet); err != nil {
		if errors.Is(err, sentinel.ErrNotFound) {
			return dErrors.New(dErrors.CodeNotFound, "identity not registered for wallet")
		}
		return dErrors.Wrap(err, dErrors.CodeInternal, "delete identity entry")
	}
	r.metrics.IncMutation("delete")
	r.emit(ctx, "identity_removed", events.TypeIdentityRemoved,
		events.AttrHolder, wallet.Hex(),
		events.AttrIdentity, entry.Identity.Hex(),
	)
	return nil
}

// UpdateCountry changes the declared country of a registered wallet.
func (r *Registry) UpdateCountry(ctx context.Context, wallet common.Address, country domain.CountryCode) error {
	if err := r.access.Require(ctx, access.RoleRegistrar); err != nil {
		return err
	}
	if !country.Known() {
		return dErrors.New(dErrors.CodeInvalidInput, "country code is required")
	}
	entry, err := r.mustLookup(ctx, wallet)
	if err != nil {
		return err
	}
	if err := r.save(ctx, wallet, entry.Identity, country); err != nil {
		return err
	}
	r.metrics.IncMutation("update_country")
	r.emit(ctx, "country_updated", events.TypeCountryUpdated,
		events.AttrHolder, wallet.Hex(),
		events.AttrCountry, country.String(),
	)
	return nil
}

// UpdateIdentity rebinds a registered wallet to another identity contract.
func (r *Registry) UpdateIdentity(ctx context.Context, wallet, identity common.Address) error {
	if err := r.access.Require(ctx, access.RoleRegistrar); err != nil {
		return err
	}
	if domain.IsZero(identity) {
		return dErrors.New(dErrors.CodeInvalidInput, "identity address is required")
	}
	entry, err := r.mustLookup(ctx, wallet)
	if err != nil {
		return err
	}
	if err := r.save(ctx, wallet, identity, entry.Country); err != nil {
		return err
	}
	r.metrics.IncMutation("update_identity")
	r.emit(ctx, "identity_updated", events.TypeIdentityUpdated,
		events.AttrHolder, wallet.Hex(),
		events.AttrIdentity, identity.Hex(),
	)
	return nil
}

func (r *Registry) mustLookup(ctx context.Context, wallet common.Address) (*models.Entry, error) {
	entry, err := r.lookup(ctx, wallet)
	if errors.Is(err, sentinel.ErrNotFound) {
		return nil, dErrors.New(dErrors.CodeNotFound, "identity not registered for wallet")
	}
	return entry, err
}

func (r *Registry) save(ctx context.Context, wallet, identity common.Address, country domain.CountryCode) error {
	entry := &models.Entry{
		Wallet:    wallet,
		Identity:  identity,
		Country:   country,
		UpdatedAt: requestcontext.Now(ctx),
	}
	if err := r.store.Save(ctx, entry); err != nil {
		return dErrors.Wrap(err, dErrors.CodeInternal, "save identity entry")
	}
	return nil
}

func validateRegistration(reg models.Registration) error {
	if domain.IsZero(reg.Wallet) {
		return dErrors.New(dErrors.CodeInvalidInput, "wallet address is required")
	}
	if domain.IsZero(reg.Identity) {
		return dErrors.New(dErrors.CodeInvalidInput, "identity address is required")
	}
	if !reg.Country.Known() {
		return dErrors.New(dErrors.CodeInvalidInput, "country code is required")
	}
	return nil
}

// emit writes the audit log line and publishes the registry event.
// Publishing failures are logged; the mutation has already happened.
func (r *Registry) emit(ctx context.Context, logEvent string, typ events.Type, kv ...string) {
	caller := requestcontext.Caller(ctx)
	attrs := make([]any, 0, len(kv)+6)
	for _, v := range kv {
		attrs = append(attrs, v)
	}
	attrs = append(attrs, "registry", r.address.Hex(), "caller", caller.Hex())
	if requestID := requestcontext.RequestID(ctx); requestID != "" {
		attrs = append(attrs, "request_id", requestID)
	}
	args := append(attrs, "event", logEvent, "log_type", "audit")
	if r.logger != nil {
		r.logger.InfoContext(ctx, logEvent, args...)
	}
	if r.publisher == nil {
		return
	}
	if err := r.publisher.Publish(ctx, events.New(typ, r.address, caller, kv...)); err != nil && r.logger != nil {
		r.logger.WarnContext(ctx, "failed to publish registry event", "event", logEvent, "error", err)
	}
}
