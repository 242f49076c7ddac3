package infra

import (
	"strings"

	"go-leave/internal/domain"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
)

const modelText = `[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[role_definition]
g = _, _

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = g(r.sub, p.sub) && r.obj == p.obj && r.act == p.act
`

// permissions is the role -> capability table. Admins inherit every employee capability.
var permissions = [][]string{
	{string(domain.RoleEmployee), "account", "read"},
	{string(domain.RoleEmployee), "balance", "read"},
	{string(domain.RoleEmployee), "leave", "read"},
	{string(domain.RoleEmployee), "leave", "create"},
	{string(domain.RoleEmployee), "leave", "cancel"},
	{string(domain.RoleAdmin), "account", "list"},
	{string(domain.RoleAdmin), "balance", "write"},
	{string(domain.RoleAdmin), "leave", "review"},
	{string(domain.RoleAdmin), "stats", "read"},
	{string(domain.RoleAdmin), "audit", "read"},
}

// AdminPolicy lists the identities granted the admin role at startup.
type AdminPolicy struct {
	Emails []string
	IDs    []string
}

func EmailSubject(email string) string {
	return "email:" + strings.ToLower(strings.TrimSpace(email))
}

func IDSubject(id string) string {
	return "id:" + strings.TrimSpace(id)
}

func NewEnforcer(admins AdminPolicy) (*casbin.Enforcer, error) {
	m, err := model.NewModelFromString(modelText)
	if err != nil {
		return nil, err
	}

	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, err
	}

	if _, err := e.AddPolicies(permissions); err != nil {
		return nil, err
	}
	if _, err := e.AddGroupingPolicy(string(domain.RoleAdmin), string(domain.RoleEmployee)); err != nil {
		return nil, err
	}

	for _, email := range admins.Emails {
		if _, err := e.AddGroupingPolicy(EmailSubject(email), string(domain.RoleAdmin)); err != nil {
			return nil, err
		}
	}
	for _, id := range admins.IDs {
		if _, err := e.AddGroupingPolicy(IDSubject(id), string(domain.RoleAdmin)); err != nil {
			return nil, err
		}
	}

	return e, nil
}
