package deployment

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math/big"
	"sort"
	"strings"

	"github.com/ethereum/go-ethereum/common"
	"github.com/ethereum/go-ethereum/crypto"

	"tokengate/internal/access"
	"tokengate/internal/compliance"
	"tokengate/internal/compliance/modules"
	"tokengate/internal/identity/claims"
	idservice "tokengate/internal/identity/service"
	idstore "tokengate/internal/identity/store"
	"tokengate/internal/token"
	"tokengate/internal/token/store"
	"tokengate/pkg/domain"
	"tokengate/pkg/platform/sentinel"
	"tokengate/pkg/requestcontext"
)

// Options wires infrastructure into the built deployment. Zero values give
// a purely in-memory deployment.
type Options struct {
	Logger *slog.Logger
	// IdentityStore returns the entry store for a registry.
	IdentityStore func(registry common.Address) idstore.Store
	// Snapshots persists token state. A token with a stored snapshot is
	// restored from it instead of being configured from the deployment file.
	Snapshots       store.Store
	TokenOptions    []token.Option
	RegistryOptions []idservice.Option
}

// Deployment is a built deployment.
type Deployment struct {
	Admin      common.Address
	Access     *access.Controller
	Directory  *token.Directory
	Catalog    *compliance.Catalog
	Claims     *claims.Directory
	Issuers    *idservice.TrustedIssuers
	Registries map[common.Address]*idservice.Registry
	Signers    map[common.Address]*claims.SigningIssuer
	Identities map[common.Address]*claims.Holder
	kinds      map[common.Address]string
}

// ModuleKind reports the kind a module was deployed as.
func (d *Deployment) ModuleKind(addr common.Address) (string, bool) {
	k, ok := d.kinds[addr]
	return k, ok
}

// Build deploys spec. Bootstrap calls run as the deployment admin.
func Build(ctx context.Context, spec *Spec, opts Options) (*Deployment, error) {
	if spec == nil {
		return nil, fmt.Errorf("deployment spec is required")
	}
	admin, err := domain.ParseAddress(spec.Admin)
	if err != nil {
		return nil, fmt.Errorf("admin: %w", err)
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	if opts.IdentityStore == nil {
		opts.IdentityStore = func(common.Address) idstore.Store { return idstore.NewInMemory() }
	}

	d := &Deployment{
		Admin:      admin,
		Access:     access.NewController(admin),
		Directory:  token.NewDirectory(),
		Catalog:    compliance.NewCatalog(),
		Claims:     claims.NewDirectory(),
		Registries: make(map[common.Address]*idservice.Registry),
		Signers:    make(map[common.Address]*claims.SigningIssuer),
		Identities: make(map[common.Address]*claims.Holder),
		kinds:      make(map[common.Address]string),
	}
	adminCtx := requestcontext.WithCaller(ctx, admin)
	for _, role := range []access.Role{access.RoleRegistrar, access.RoleManager, access.RoleGovernance} {
		if err := d.Access.Grant(adminCtx, role, admin); err != nil {
			return nil, err
		}
	}
	d.Issuers = idservice.NewTrustedIssuers(d.Access)

	steps := []struct {
		name string
		run  func(context.Context, *Spec, Options) error
	}{
		{"issuers", d.buildIssuers},
		{"registries", d.buildRegistries},
		{"identities", d.buildIdentities},
		{"modules", d.buildModules},
		{"tokens", d.buildTokens},
	}
	for _, step := range steps {
		if err := step.run(adminCtx, spec, opts); err != nil {
			return nil, fmt.Errorf("%s: %w", step.name, err)
		}
	}
	opts.Logger.InfoContext(ctx, "deployment built",
		"admin", admin.Hex(),
		"registries", len(d.Registries),
		"tokens", len(d.Directory.Tokens()),
		"modules", len(d.kinds),
	)
	return d, nil
}

func (d *Deployment) buildIssuers(ctx context.Context, spec *Spec, _ Options) error {
	for _, is := range spec.Issuers {
		addr, err := domain.ParseAddress(is.Address)
		if err != nil {
			return err
		}
		var signer *claims.SigningIssuer
		if is.Key != "" {
			key, err := crypto.HexToECDSA(strings.TrimPrefix(is.Key, "0x"))
			if err != nil {
				return fmt.Errorf("issuer %s key: %w", addr.Hex(), err)
			}
			signer = claims.NewSigningIssuer(addr, key)
		} else if signer, err = claims.GenerateIssuer(addr); err != nil {
			return err
		}
		if err := d.Issuers.AddTrustedIssuer(ctx, addr, topics(is.Topics)); err != nil {
			return fmt.Errorf("issuer %s: %w", addr.Hex(), err)
		}
		d.Claims.AddIssuer(signer)
		d.Signers[addr] = signer
	}
	return nil
}

func (d *Deployment) buildRegistries(ctx context.Context, spec *Spec, opts Options) error {
	tokenAddrs := make([]common.Address, 0, len(spec.Tokens))
	for _, ts := range spec.Tokens {
		addr, err := domain.ParseAddress(ts.Address)
		if err != nil {
			return fmt.Errorf("token: %w", err)
		}
		tokenAddrs = append(tokenAddrs, addr)
	}

	for _, rs := range spec.Registries {
		addr, err := domain.ParseAddress(rs.Address)
		if err != nil {
			return err
		}
		// Tokens call the registry as themselves during recovery; they hold
		// the registrar role on every registry so a registry switch keeps
		// recovery working.
		ctrl := access.NewController(d.Admin)
		grantees := append([]common.Address{d.Admin}, tokenAddrs...)
		registrars, err := domain.ParseAddresses(rs.Registrars)
		if err != nil {
			return fmt.Errorf("registry %s registrars: %w", addr.Hex(), err)
		}
		for _, g := range append(grantees, registrars...) {
			if err := ctrl.Grant(ctx, access.RoleRegistrar, g); err != nil {
				return err
			}
		}
		reg, err := idservice.New(addr, opts.IdentityStore(addr), d.Issuers, d.Claims, ctrl,
			append([]idservice.Option{idservice.WithLogger(opts.Logger)}, opts.RegistryOptions...)...)
		if err != nil {
			return err
		}
		if err := d.Directory.AddRegistry(reg); err != nil {
			return fmt.Errorf("registry %s: %w", addr.Hex(), err)
		}
		d.Registries[addr] = reg
	}
	return nil
}

func (d *Deployment) buildIdentities(ctx context.Context, spec *Spec, _ Options) error {
	for _, ids := range spec.Identities {
		wallet, err := domain.ParseAddress(ids.Wallet)
		if err != nil {
			return err
		}
		reg, err := d.registry(ids.Registry)
		if err != nil {
			return err
		}
		country, err := domain.ParseCountryCode(ids.Country)
		if err != nil {
			return fmt.Errorf("wallet %s: %w", wallet.Hex(), err)
		}
		identity := DeriveIdentity(reg.Address(), wallet)
		if ids.Identity != "" {
			if identity, err = domain.ParseAddress(ids.Identity); err != nil {
				return err
			}
		}

		holder, ok := d.Identities[identity]
		if !ok {
			holder = claims.NewHolder(identity)
			d.Identities[identity] = holder
			d.Claims.AddIdentity(holder)
		}
		for _, c := range ids.Claims {
			if err := d.issue(holder, c); err != nil {
				return fmt.Errorf("wallet %s: %w", wallet.Hex(), err)
			}
		}

		// Persistent identity stores survive restarts.
		known, err := reg.Contains(ctx, wallet)
		if err != nil {
			return err
		}
		if known {
			continue
		}
		if err := reg.RegisterIdentity(ctx, wallet, identity, country); err != nil {
			return fmt.Errorf("wallet %s: %w", wallet.Hex(), err)
		}
	}
	return nil
}

func (d *Deployment) issue(holder *claims.Holder, c ClaimSpec) error {
	addr, err := domain.ParseAddress(c.Issuer)
	if err != nil {
		return err
	}
	signer, ok := d.Signers[addr]
	if !ok {
		return fmt.Errorf("claim issuer %s is not declared", addr.Hex())
	}
	_, err = signer.Issue(holder, domain.ClaimTopic(c.Topic), []byte(c.Data))
	return err
}

func (d *Deployment) buildModules(ctx context.Context, spec *Spec, _ Options) error {
	for _, ms := range spec.Modules {
		addr, err := domain.ParseAddress(ms.Address)
		if err != nil {
			return err
		}
		impl, err := d.newModule(ctx, ms)
		if err != nil {
			return fmt.Errorf("module %s: %w", addr.Hex(), err)
		}
		if err := d.Catalog.Deploy(addr, impl); err != nil {
			return fmt.Errorf("module %s: %w", addr.Hex(), err)
		}
		d.kinds[addr] = ms.Kind
	}
	return nil
}

func (d *Deployment) newModule(ctx context.Context, ms ModuleSpec) (any, error) {
	countries, err := countryCodes(ms.Countries)
	if err != nil {
		return nil, err
	}
	addrs, err := domain.ParseAddresses(ms.Addresses)
	if err != nil {
		return nil, err
	}
	switch ms.Kind {
	case KindCountryAllowList:
		m, err := modules.NewCountryAllowList(d.Access, d.Directory)
		if err != nil {
			return nil, err
		}
		return m, m.AddGlobalAllowedCountries(ctx, countries...)
	case KindCountryBlockList:
		m, err := modules.NewCountryBlockList(d.Access, d.Directory)
		if err != nil {
			return nil, err
		}
		return m, m.AddGlobalBlockedCountries(ctx, countries...)
	case KindAddressBlockList:
		m, err := modules.NewAddressBlockList(d.Access)
		if err != nil {
			return nil, err
		}
		return m, m.BlockAddresses(ctx, addrs...)
	case KindIdentityBlockList:
		return modules.NewIdentityBlockList(d.Directory)
	case KindSupplyLimit:
		return modules.NewSupplyLimit(), nil
	case KindExpression:
		return modules.NewExpression(d.Directory)
	default:
		return nil, fmt.Errorf("unknown module kind %q", ms.Kind)
	}
}

func (d *Deployment) buildTokens(ctx context.Context, spec *Spec, opts Options) error {
	for _, ts := range spec.Tokens {
		if err := d.buildToken(ctx, ts, opts); err != nil {
			return fmt.Errorf("token %s: %w", ts.Address, err)
		}
	}
	return nil
}

func (d *Deployment) buildToken(ctx context.Context, ts TokenSpec, opts Options) error {
	addr, err := domain.ParseAddress(ts.Address)
	if err != nil {
		return err
	}
	reg, err := d.registry(ts.Registry)
	if err != nil {
		return err
	}
	tokenAdmin := d.Admin
	if ts.Admin != "" {
		if tokenAdmin, err = domain.ParseAddress(ts.Admin); err != nil {
			return err
		}
	}
	var capacity *big.Int
	if ts.Cap != "" {
		if capacity, err = domain.ParseAmount(ts.Cap); err != nil {
			return fmt.Errorf("cap: %w", err)
		}
	}

	tokOpts := append([]token.Option{token.WithLogger(opts.Logger)}, opts.TokenOptions...)
	if opts.Snapshots != nil {
		tokOpts = append(tokOpts, token.WithStore(opts.Snapshots))
	}
	tok, err := token.New(token.Config{
		Address:             addr,
		Name:                ts.Name,
		Symbol:              ts.Symbol,
		Decimals:            ts.Decimals,
		Cap:                 capacity,
		IdentityRegistry:    reg.Address(),
		RequiredClaimTopics: topics(ts.Topics),
		Admin:               tokenAdmin,
	}, d.Directory, d.Catalog, tokOpts...)
	if err != nil {
		return err
	}

	asAdmin := requestcontext.WithCaller(ctx, tokenAdmin)
	if err := grantRoles(asAdmin, tok.Access(), ts.Roles); err != nil {
		return err
	}

	restored, err := d.restore(ctx, tok, opts.Snapshots)
	if err != nil {
		return err
	}
	if !restored {
		if err := d.configureModules(asAdmin, tok, ts); err != nil {
			return err
		}
	}
	return d.Directory.Add(tok)
}

func grantRoles(ctx context.Context, ctrl *access.Controller, roles map[string][]string) error {
	names := make([]string, 0, len(roles))
	for name := range roles {
		names = append(names, name)
	}
	sort.Strings(names)
	for _, name := range names {
		role, err := access.ParseRole(name)
		if err != nil {
			return err
		}
		members, err := domain.ParseAddresses(roles[name])
		if err != nil {
			return fmt.Errorf("role %s: %w", name, err)
		}
		for _, m := range members {
			if err := ctrl.Grant(ctx, role, m); err != nil {
				return err
			}
		}
	}
	return nil
}

// restore loads a persisted snapshot into tok. Stateful modules are
// re-seeded from the restored supply.
func (d *Deployment) restore(ctx context.Context, tok *token.Token, snapshots store.Store) (bool, error) {
	if snapshots == nil {
		return false, nil
	}
	snap, err := snapshots.Load(ctx, tok.Address())
	if errors.Is(err, sentinel.ErrNotFound) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	if err := tok.Restore(ctx, snap); err != nil {
		return false, err
	}
	for _, mp := range tok.ComplianceModules(ctx) {
		if impl, ok := d.Catalog.Lookup(mp.Module); ok {
			if limit, ok := impl.(*modules.SupplyLimit); ok {
				limit.Restore(tok.Address(), snap.TotalSupply)
			}
		}
	}
	return true, nil
}

// configureModules binds the modules the deployment file lists. The token admin holds
// governance only for the duration unless the file grants it.
func (d *Deployment) configureModules(ctx context.Context, tok *token.Token, ts TokenSpec) error {
	if len(ts.Modules) == 0 {
		return nil
	}
	caller := requestcontext.Caller(ctx)
	ctrl := tok.Access()
	if !ctrl.HasRole(access.RoleGovernance, caller) {
		if err := ctrl.Grant(ctx, access.RoleGovernance, caller); err != nil {
			return err
		}
		defer func() { _ = ctrl.Revoke(ctx, access.RoleGovernance, caller) }()
	}
	for _, tm := range ts.Modules {
		module, err := domain.ParseAddress(tm.Module)
		if err != nil {
			return err
		}
		params, err := d.ModuleParams(module, tm)
		if err != nil {
			return fmt.Errorf("module %s: %w", module.Hex(), err)
		}
		if err := tok.AddComplianceModule(ctx, module, params); err != nil {
			return fmt.Errorf("module %s: %w", module.Hex(), err)
		}
	}
	return nil
}

// ModuleParams encodes tm's parameters for the kind module was deployed as.
func (d *Deployment) ModuleParams(module common.Address, tm TokenModuleSpec) ([]byte, error) {
	kind, ok := d.kinds[module]
	if !ok {
		return nil, fmt.Errorf("module is not deployed")
	}
	switch kind {
	case KindCountryAllowList, KindCountryBlockList:
		codes, err := countryCodes(tm.Countries)
		if err != nil {
			return nil, err
		}
		return modules.EncodeCountries(codes...), nil
	case KindAddressBlockList, KindIdentityBlockList:
		addrs, err := domain.ParseAddresses(tm.Addresses)
		if err != nil {
			return nil, err
		}
		return modules.EncodeAddresses(addrs...), nil
	case KindSupplyLimit:
		limit, err := domain.ParseAmount(tm.Limit)
		if err != nil {
			return nil, fmt.Errorf("limit: %w", err)
		}
		return modules.EncodeUint256(limit)
	case KindExpression:
		if tm.Expression == "" {
			return nil, fmt.Errorf("expression is required")
		}
		return modules.EncodeString(tm.Expression), nil
	}
	return nil, fmt.Errorf("unknown module kind %q", kind)
}

func (d *Deployment) registry(raw string) (*idservice.Registry, error) {
	addr, err := domain.ParseAddress(raw)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	reg, ok := d.Registries[addr]
	if !ok {
		return nil, fmt.Errorf("registry %s is not declared", addr.Hex())
	}
	return reg, nil
}

// DeriveIdentity is the identity address assigned to wallet in registry when
// none is given: the last 20 bytes of keccak256(registry ‖ wallet).
func DeriveIdentity(registry, wallet common.Address) common.Address {
	return common.BytesToAddress(crypto.Keccak256(registry.Bytes(), wallet.Bytes()))
}

func topics(raw []uint64) []domain.ClaimTopic {
	out := make([]domain.ClaimTopic, len(raw))
	for i, t := range raw {
		out[i] = domain.ClaimTopic(t)
	}
	return out
}

func countryCodes(raw []int) ([]domain.CountryCode, error) {
	out := make([]domain.CountryCode, 0, len(raw))
	for _, v := range raw {
		c, err := domain.ParseCountryCode(v)
		if err != nil {
			return nil, err
		}
		out = append(out, c)
	}
	return out, nil
}
