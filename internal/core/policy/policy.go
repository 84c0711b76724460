// Package policy holds the access rules shared by every service. Services ask
// Authorize before touching the persistence gateway.
package policy

import "github.com/ebms/billing-system/internal/core/domain"

// Action names an operation that can be gated.
type Action string

const (
	ListUsers      Action = "users:list"
	CreateCustomer Action = "users:create"
	ReadUser       Action = "users:read"
	UpdateUser     Action = "users:update"
	ChangePassword Action = "users:password"
	GenerateBill   Action = "bills:generate"
	ListBills      Action = "bills:list"
	ReadBill       Action = "bills:read"
	PayBill        Action = "bills:pay"
	OverrideBill   Action = "bills:override"
	ViewTariff     Action = "tariff:read"
)

type scope int

const (
	scopeAny scope = iota + 1
	scopeOwn
)

// matrix lists what each role may do. Anything missing is forbidden.
var matrix = map[domain.Role]map[Action]scope{
	domain.RoleAdmin: {
		ListUsers:      scopeAny,
		CreateCustomer: scopeAny,
		ReadUser:       scopeAny,
		UpdateUser:     scopeAny,
		ChangePassword: scopeAny,
		GenerateBill:   scopeAny,
		ListBills:      scopeAny,
		ReadBill:       scopeAny,
		PayBill:        scopeAny,
		OverrideBill:   scopeAny,
		ViewTariff:     scopeAny,
	},
	domain.RoleCustomer: {
		ReadUser:       scopeOwn,
		UpdateUser:     scopeOwn,
		ChangePassword: scopeOwn,
		ListBills:      scopeOwn,
		ReadBill:       scopeOwn,
		PayBill:        scopeOwn,
		ViewTariff:     scopeAny,
	},
}

// Authorize decides whether actor may perform action on a resource owned by
// ownerID. For collection actions (e.g. ListBills) pass the actor's own ID
// when the result will be scoped to the actor, or "" for the whole set.
func Authorize(actor domain.Actor, action Action, ownerID string) error {
	if !actor.Authenticated() {
		return domain.ErrUnauthenticated
	}
	s, ok := matrix[actor.Role][action]
	if !ok {
		return domain.ErrForbidden
	}
	if s == scopeOwn && ownerID != actor.ID {
		return domain.ErrForbidden
	}
	return nil
}

// Scoped reports whether actor only ever sees its own resources for action.
func Scoped(actor domain.Actor, action Action) bool {
	return matrix[actor.Role][action] == scopeOwn
}
