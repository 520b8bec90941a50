package auth

import "strings"

type Role string

const (
	RoleNone   Role = ""
	RoleAdmin  Role = "admin"
	RoleWaiter Role = "waiter"
)

type Permission string

const (
	CanViewDashboard   Permission = "can_view_dashboard"
	CanManageConfig    Permission = "can_manage_config"
	CanManageInventory Permission = "can_manage_inventory"
	CanManageOrders    Permission = "can_manage_orders"
	CanViewKitchen     Permission = "can_view_kitchen"
	CanViewTableStatus Permission = "can_view_table_status"
	CanManagePayments  Permission = "can_manage_payments"
	CanViewHistory     Permission = "can_view_history"
)

var AllPermissions = []Permission{
	CanViewDashboard,
	CanManageConfig,
	CanManageInventory,
	CanManageOrders,
	CanViewKitchen,
	CanViewTableStatus,
	CanManagePayments,
	CanViewHistory,
}

var roleMatrix = map[Role]map[Permission]bool{
	RoleAdmin: {
		CanViewDashboard:   true,
		CanManageConfig:    true,
		CanManageInventory: true,
		CanManageOrders:    true,
		CanViewKitchen:     true,
		CanViewTableStatus: true,
		CanManagePayments:  true,
		CanViewHistory:     true,
	},
	RoleWaiter: {
		CanViewDashboard:   false,
		CanManageConfig:    false,
		CanManageInventory: false,
		CanManageOrders:    true,
		CanViewKitchen:     true,
		CanViewTableStatus: true,
		CanManagePayments:  true,
		CanViewHistory:     false,
	},
}

// PermissionsFor returns a fresh copy of the default grants of role. Unknown
// roles get nothing.
func PermissionsFor(role Role) map[Permission]bool {
	out := make(map[Permission]bool, len(AllPermissions))
	for _, p := range AllPermissions {
		out[p] = roleMatrix[role][p]
	}
	return out
}

// ParseRole accepts the English role names and the group names used by the
// restaurant staff directory.
func ParseRole(name string) Role {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "admin", "administrator", "administrador", "administradores":
		return RoleAdmin
	case "waiter", "mesero", "meseros":
		return RoleWaiter
	default:
		return RoleNone
	}
}

// Principal is a signed-in user as seen by the waiter service.
type Principal struct {
	UserID      string              `json:"id"`
	Username    string              `json:"username"`
	Email       string              `json:"email"`
	Name        string              `json:"name"`
	Role        Role                `json:"role"`
	Permissions map[Permission]bool `json:"permissions"`
	Provider    string              `json:"provider"`

	// Token is forwarded to the POS API as the bearer credential.
	Token string `json:"-"`
}

func (p *Principal) IsAuthenticated() bool {
	return p != nil && (p.UserID != "" || p.Username != "")
}

func (p *Principal) Can(perm Permission) bool {
	if !p.IsAuthenticated() {
		return false
	}
	return p.Permissions[perm]
}

func (p *Principal) IsAdmin() bool {
	return p != nil && p.Role == RoleAdmin
}

func (p *Principal) IsWaiter() bool {
	return p != nil && p.Role == RoleWaiter
}

// WaiterName is the name orders are attributed to.
func (p *Principal) WaiterName() string {
	if p != nil {
		if p.Username != "" {
			return p.Username
		}
		if p.Email != "" {
			return p.Email
		}
	}
	return "Sistema"
}
