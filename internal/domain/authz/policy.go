// Package authz contiene la matriz declarativa rol → acción → regla de alcance
// usada por el motor de propuestas.
package authz

import (
	"github.com/jhoicas/retail-api/internal/domain"
	"github.com/jhoicas/retail-api/internal/domain/entity"
)

// ScopeRule regla de alcance. El valor cero es Forbidden.
type ScopeRule int

const (
	Forbidden ScopeRule = iota
	Unrestricted
	SameCompany
	SameStore
)

func (r ScopeRule) String() string {
	switch r {
	case Unrestricted:
		return "unrestricted"
	case SameCompany:
		return "same-company"
	case SameStore:
		return "same-store"
	default:
		return "forbidden"
	}
}

// Action acción sujeta a autorización sobre una propuesta.
type Action string

const (
	ActionSubmit  Action = "submit"
	ActionApprove Action = "approve"
	ActionReject  Action = "reject"
	ActionView    Action = "view"
)

// Scope alcance de la entidad sobre la que se actúa.
type Scope struct {
	CompanyID string
	StoreID   string
}

// Policy tabla rol → acción → regla. Combinaciones ausentes son Forbidden.
type Policy map[string]map[Action]ScopeRule

// DefaultPolicy matriz de autorización de propuestas.
var DefaultPolicy = Policy{
	entity.RoleSuperAdmin: {
		ActionSubmit:  Unrestricted,
		ActionApprove: Unrestricted,
		ActionReject:  Unrestricted,
		ActionView:    Unrestricted,
	},
	entity.RoleCompanyAdmin: {
		ActionSubmit:  SameCompany,
		ActionApprove: SameCompany,
		ActionReject:  SameCompany,
		ActionView:    SameCompany,
	},
	entity.RoleStoreManager: {
		ActionSubmit:  SameStore,
		ActionApprove: Forbidden,
		ActionReject:  Forbidden,
		ActionView:    SameStore,
	},
	entity.RoleEmployee: {
		ActionSubmit:  SameStore,
		ActionApprove: Forbidden,
		ActionReject:  Forbidden,
		ActionView:    SameStore,
	},
}

// Rule devuelve la regla para el rol y la acción.
func (p Policy) Rule(role string, action Action) ScopeRule {
	return p[role][action]
}

// Allows evalúa la regla contra el alcance del usuario.
func (p Policy) Allows(c Caller, action Action, s Scope) bool {
	switch p.Rule(c.Role, action) {
	case Unrestricted:
		return true
	case SameCompany:
		return c.WithinCompany(s.CompanyID)
	case SameStore:
		return c.WithinStore(s.StoreID)
	default:
		return false
	}
}

// Check como Allows pero devuelve domain.ErrForbidden, sin detalle del motivo.
func (p Policy) Check(c Caller, action Action, s Scope) error {
	if !p.Allows(c, action, s) {
		return domain.ErrForbidden
	}
	return nil
}
