package auth

import (
	"fmt"

	"brimasouk/internal/model"

	"github.com/casbin/casbin/v2"
	casbinmodel "github.com/casbin/casbin/v2/model"
)

// Resources and actions named in the role policy.
const (
	ResourceAccount    = "account"
	ResourceCart       = "cart"
	ResourceOrders     = "orders"
	ResourceProducts   = "products"
	ResourceEvents     = "events"
	ResourcePromoCodes = "promocodes"
	ResourceAdmin      = "admin"

	ActionRead   = "read"
	ActionWrite  = "write"
	ActionManage = "manage"
	ActionBook   = "book"
	ActionAny    = "*"
)

const rbacModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && (p.act == "*" || r.act == p.act)
`

// Every signed-in role inherits the customer permissions of "user".
var roleInheritance = [][]string{
	{string(model.RoleArtisan), string(model.RoleUser)},
	{string(model.RoleCollaborator), string(model.RoleUser)},
	{string(model.RoleAdmin), string(model.RoleUser)},
}

var rolePolicies = [][]string{
	{string(model.RoleUser), ResourceAccount, ActionAny},
	{string(model.RoleUser), ResourceCart, ActionAny},
	{string(model.RoleUser), ResourceOrders, ActionRead},
	{string(model.RoleUser), ResourceOrders, ActionWrite},
	{string(model.RoleUser), ResourceEvents, ActionRead},
	{string(model.RoleUser), ResourceEvents, ActionBook},
	{string(model.RoleUser), ResourcePromoCodes, ActionRead},

	{string(model.RoleArtisan), ResourceProducts, ActionWrite},
	{string(model.RoleArtisan), ResourceProducts, ActionManage},
	{string(model.RoleArtisan), ResourceEvents, ActionWrite},
	{string(model.RoleArtisan), ResourceEvents, ActionManage},
	{string(model.RoleArtisan), ResourceOrders, ActionManage},

	{string(model.RoleCollaborator), ResourcePromoCodes, ActionManage},

	{string(model.RoleAdmin), ResourceAdmin, ActionAny},
	{string(model.RoleAdmin), ResourceProducts, ActionAny},
	{string(model.RoleAdmin), ResourceEvents, ActionAny},
	{string(model.RoleAdmin), ResourceOrders, ActionAny},
	{string(model.RoleAdmin), ResourcePromoCodes, ActionAny},
}

// Policy is a coarse role gate. Ownership and approval checks live in the
// services.
type Policy struct {
	enforcer *casbin.Enforcer
}

func NewPolicy() (*Policy, error) {
	m, err := casbinmodel.NewModelFromString(rbacModel)
	if err != nil {
		return nil, fmt.Errorf("load rbac model: %w", err)
	}

	enforcer, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}

	if _, err := enforcer.AddGroupingPolicies(roleInheritance); err != nil {
		return nil, fmt.Errorf("add role inheritance: %w", err)
	}
	if _, err := enforcer.AddPolicies(rolePolicies); err != nil {
		return nil, fmt.Errorf("add role policies: %w", err)
	}

	return &Policy{enforcer: enforcer}, nil
}

func (p *Policy) Allowed(role model.Role, resource, action string) (bool, error) {
	allowed, err := p.enforcer.Enforce(string(role), resource, action)
	if err != nil {
		return false, fmt.Errorf("enforce %s %s %s: %w", role, resource, action, err)
	}
	return allowed, nil
}
