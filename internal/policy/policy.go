// Package policy decides who may read and write which resources. Every rule is
// a pure function of the caller, the action and, for owned objects, the
// author.
package policy

import (
	"net/http"

	"yamdb/internal/models"
)

// Caller is either Anonymous or Authenticated.
type Caller interface {
	caller()
}

type Anonymous struct{}

type Authenticated struct {
	ID          uint
	Username    string
	Role        models.Role
	IsSuperuser bool
}

func (Anonymous) caller()     {}
func (Authenticated) caller() {}

// FromUser builds the caller for a loaded account.
func FromUser(u *models.User) Authenticated {
	return Authenticated{
		ID:          u.ID,
		Username:    u.Username,
		Role:        u.Role,
		IsSuperuser: u.IsSuperuser,
	}
}

func (a Authenticated) IsAdmin() bool {
	return a.Role == models.RoleAdmin
}

func (a Authenticated) IsModerator() bool {
	return a.Role == models.RoleModerator
}

type Action int

const (
	Read Action = iota
	Write
)

func (a Action) String() string {
	if a == Read {
		return "read"
	}
	return "write"
}

// ActionFromMethod classifies GET, HEAD and OPTIONS as reads.
func ActionFromMethod(method string) Action {
	switch method {
	case http.MethodGet, http.MethodHead, http.MethodOptions:
		return Read
	}
	return Write
}

// IsAuthenticated allows any logged-in caller.
func IsAuthenticated(c Caller) bool {
	_, ok := c.(Authenticated)
	return ok
}

// AdminOnly allows admins and superusers, for reads and writes alike.
func AdminOnly(c Caller) bool {
	a, ok := c.(Authenticated)
	return ok && (a.IsAdmin() || a.IsSuperuser)
}

// ReadOnlyOrAdmin lets everyone read; writes need the admin role. The
// superuser flag alone is not enough here.
func ReadOnlyOrAdmin(c Caller, action Action) bool {
	if action == Read {
		return true
	}
	a, ok := c.(Authenticated)
	return ok && a.IsAdmin()
}

// ReadOnlyOrOwner lets everyone read. Creating needs a login (authorID 0);
// changing an existing object needs its author, a moderator or an admin.
func ReadOnlyOrOwner(c Caller, action Action, authorID uint) bool {
	if action == Read {
		return true
	}
	a, ok := c.(Authenticated)
	if !ok {
		return false
	}
	if authorID == 0 {
		return true
	}
	return a.ID == authorID || a.IsModerator() || a.IsAdmin()
}
