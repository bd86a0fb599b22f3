package access

import "github.com/capilarmax/clinic-api/internal/model"

var grants = buildGrants(model.PermissionMatrix)

func buildGrants(matrix []model.PermissionInfo) map[model.Role]map[model.Permission]bool {
	g := make(map[model.Role]map[model.Permission]bool, len(model.Roles))
	for _, perm := range matrix {
		for _, role := range perm.Roles {
			if g[role] == nil {
				g[role] = make(map[model.Permission]bool)
			}
			g[role][perm.ID] = true
		}
	}
	return g
}

// Can reports whether role holds perm in the permission matrix.
func Can(role model.Role, perm model.Permission) bool {
	return grants[role][perm]
}

// Permissions lists every permission granted to role in matrix order.
func Permissions(role model.Role) []model.Permission {
	var out []model.Permission
	for _, perm := range model.PermissionMatrix {
		if grants[role][perm.ID] {
			out = append(out, perm.ID)
		}
	}
	return out
}
