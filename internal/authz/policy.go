// Package authz decides whether a caller may change a record. The rule is
// owner-or-admin and is evaluated by an in-process Casbin enforcer.
package authz

import (
	"fmt"

	"github.com/casbin/casbin/v2"
	"github.com/casbin/casbin/v2/model"
	"github.com/google/uuid"

	"inkpost/internal/models"
)

// ownerOrAdminModel is an ABAC model with no stored policies: the decision
// is made entirely from the attributes of the subject and the object.
const ownerOrAdminModel = `
[request_definition]
r = sub, obj, act

[policy_definition]
p = sub, obj, act

[policy_effect]
e = some(where (p.eft == allow))

[matchers]
m = r.sub.Role == "admin" || (r.sub.ID != "" && r.sub.ID == r.obj.Owner)
`

// Action names passed to the enforcer.
const (
	ActionUpdate = "update"
	ActionDelete = "delete"
)

// subject and object are the attribute bags the matcher reads.
type subject struct {
	ID   string
	Role string
}

type object struct {
	Owner string
}

// Policy evaluates the owner-or-admin rule.
type Policy struct {
	enforcer *casbin.Enforcer
}

// New builds a Policy from the embedded model.
func New() (*Policy, error) {
	m, err := model.NewModelFromString(ownerOrAdminModel)
	if err != nil {
		return nil, fmt.Errorf("load authz model: %w", err)
	}
	e, err := casbin.NewEnforcer(m)
	if err != nil {
		return nil, fmt.Errorf("create enforcer: %w", err)
	}
	return &Policy{enforcer: e}, nil
}

// CanMutate reports whether identity may perform action on a record owned
// by owner. Anonymous identities are always denied.
func (p *Policy) CanMutate(identity *models.Identity, owner uuid.UUID, action string) (bool, error) {
	if identity == nil || identity.UserID == uuid.Nil {
		return false, nil
	}
	sub := subject{ID: identity.UserID.String(), Role: string(identity.Role)}
	obj := object{Owner: owner.String()}
	ok, err := p.enforcer.Enforce(sub, obj, action)
	if err != nil {
		return false, fmt.Errorf("enforce %s: %w", action, err)
	}
	return ok, nil
}
