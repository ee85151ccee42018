package auth

import (
	"log/slog"
	"net/http"

	"github.com/helpdeskhq/helpdesk-portal/internal"
	"github.com/helpdeskhq/helpdesk-portal/internal/user"
)

// Operation names used by the authorization policy table. Route guards
// check the caller's role against the table instead of scattering role
// literals through handlers.
const (
	OpManageUsers     = "users.manage"
	OpManageEquipment = "equipment.manage"
	OpManageSoftware  = "software.manage"
	OpManageNews      = "news.manage"
	OpManageRequests  = "requests.manage"
	OpViewReports     = "reports.view"
	OpViewAuditLog    = "auditlog.view"
	OpViewLogStream   = "logstream.view"
)

// Policy maps an operation to the set of roles allowed to perform it.
type Policy map[string][]string

// DefaultPolicy is the portal's authorization table. superuser appears in
// every entry; there is no implicit escalation elsewhere.
func DefaultPolicy() Policy {
	admins := []string{user.RoleAdmin, user.RoleSuperuser}
	return Policy{
		OpManageUsers:     {user.RoleSuperuser},
		OpManageEquipment: admins,
		OpManageSoftware:  admins,
		OpManageNews:      admins,
		OpManageRequests:  admins,
		OpViewReports:     admins,
		OpViewAuditLog:    {user.RoleSuperuser},
		OpViewLogStream:   admins,
	}
}

func (p Policy) Allows(operation, role string) bool {
	roles, ok := p[operation]
	if !ok {
		return false
	}
	for _, r := range roles {
		if r == role {
			return true
		}
	}
	return false
}

// Guard enforces the policy for authenticated requests.
type Guard struct {
	policy Policy
	logger *slog.Logger
}

func NewGuard(policy Policy, logger *slog.Logger) *Guard {
	return &Guard{policy: policy, logger: logger}
}

// Require returns middleware that rejects callers whose role is not
// allowed to perform the operation.
func (g *Guard) Require(operation string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			principal, ok := internal.PrincipalFromContext(r.Context())
			if !ok || principal == nil {
				http.Error(w, "Unauthorized", http.StatusUnauthorized)
				return
			}

			if !g.policy.Allows(operation, principal.Role) {
				g.logger.Warn("access denied: insufficient role",
					"user_id", principal.ID,
					"role", principal.Role,
					"operation", operation)
				http.Error(w, "Forbidden: insufficient role", http.StatusForbidden)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
