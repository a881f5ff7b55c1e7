// Package access tracks role membership for tokens, registries and
// compliance modules. Every privileged operation checks the caller taken
// from requestcontext against a Controller before touching state.
package access

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/ethereum/go-ethereum/common"

	dErrors "tokengate/pkg/domain-errors"
	"tokengate/pkg/requestcontext"
)

// Role names a permission set.
type Role string

const (
	// RoleAdmin may grant and revoke every role, including itself.
	RoleAdmin Role = "admin"
	// RoleGovernance manages the identity registry binding, required claim
	// topics and the compliance module list.
	RoleGovernance Role = "governance"
	// RoleSupply mints and burns.
	RoleSupply Role = "supply"
	// RoleCustodian freezes, force-transfers and recovers wallets.
	RoleCustodian Role = "custodian"
	// RoleEmergency pauses and unpauses.
	RoleEmergency Role = "emergency"
	// RoleRegistrar mutates identity registry entries.
	RoleRegistrar Role = "registrar"
	// RoleManager edits module-global lists on compliance modules.
	RoleManager Role = "manager"
)

var knownRoles = map[Role]struct{}{
	RoleAdmin: {}, RoleGovernance: {}, RoleSupply: {}, RoleCustodian: {},
	RoleEmergency: {}, RoleRegistrar: {}, RoleManager: {},
}

// ParseRole validates a role name.
func ParseRole(s string) (Role, error) {
	r := Role(s)
	if _, ok := knownRoles[r]; !ok {
		return "", dErrors.New(dErrors.CodeInvalidInput, fmt.Sprintf("unknown role %q", s))
	}
	return r, nil
}

// UnauthorizedError reports a caller that lacks a required role.
type UnauthorizedError struct {
	Account common.Address
	Role    Role
}

func (e *UnauthorizedError) Error() string {
	return fmt.Sprintf("account %s is missing role %s", e.Account.Hex(), e.Role)
}

func (e *UnauthorizedError) ErrorCode() dErrors.Code { return dErrors.CodeForbidden }
func (e *UnauthorizedError) Reason() string          { return "AccessControlUnauthorizedAccount" }

// Controller holds role membership. Safe for concurrent use.
type Controller struct {
	mu      sync.RWMutex
	members map[Role]map[common.Address]struct{}
}

// NewController creates a controller with admin granted to the given accounts.
func NewController(admins ...common.Address) *Controller {
	c := &Controller{members: make(map[Role]map[common.Address]struct{})}
	for _, a := range admins {
		c.grant(RoleAdmin, a)
	}
	return c
}

// HasRole reports whether account holds role. The zero address never does.
func (c *Controller) HasRole(role Role, account common.Address) bool {
	if account == (common.Address{}) {
		return false
	}
	c.mu.RLock()
	defer c.mu.RUnlock()
	_, ok := c.members[role][account]
	return ok
}

// Require checks that the caller in ctx holds role.
func (c *Controller) Require(ctx context.Context, role Role) error {
	caller := requestcontext.Caller(ctx)
	if !c.HasRole(role, caller) {
		return &UnauthorizedError{Account: caller, Role: role}
	}
	return nil
}

// Grant adds account to role. The caller must be an admin.
func (c *Controller) Grant(ctx context.Context, role Role, account common.Address) error {
	if err := c.Require(ctx, RoleAdmin); err != nil {
		return err
	}
	if account == (common.Address{}) {
		return dErrors.New(dErrors.CodeInvalidInput, "cannot grant a role to the zero address")
	}
	c.grant(role, account)
	return nil
}

// Revoke removes account from role. The caller must be an admin.
// Revoking the last admin is refused so the controller cannot be orphaned.
func (c *Controller) Revoke(ctx context.Context, role Role, account common.Address) error {
	if err := c.Require(ctx, RoleAdmin); err != nil {
		return err
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if role == RoleAdmin {
		if _, ok := c.members[RoleAdmin][account]; ok && len(c.members[RoleAdmin]) == 1 {
			return dErrors.New(dErrors.CodeConflict, "cannot revoke the last admin")
		}
	}
	delete(c.members[role], account)
	return nil
}

// Members lists the accounts holding role, sorted for stable output.
func (c *Controller) Members(role Role) []common.Address {
	c.mu.RLock()
	defer c.mu.RUnlock()
	out := make([]common.Address, 0, len(c.members[role]))
	for a := range c.members[role] {
		out = append(out, a)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Cmp(out[j]) < 0 })
	return out
}

func (c *Controller) grant(role Role, account common.Address) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.members[role]
	if !ok {
		set = make(map[common.Address]struct{})
		c.members[role] = set
	}
	set[account] = struct{}{}
}
