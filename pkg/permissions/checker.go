// Package permissions checks dotted permission strings with wildcard support.
//
// Permission Format:
//   - "*" - Full access (all permissions)
//   - "resource.*" - All actions on a resource (e.g., "stock.*")
//   - "resource.action" - Specific action (e.g., "stock.read")
//   - "resource.subresource.action" - Nested permission (e.g., "stock.scan.debug")
package permissions

import (
	"strings"
)

// Stock permissions
const (
	StockRead        = "stock.read"
	StockWrite       = "stock.write"
	StockPrint       = "stock.print"
	StockReportsRead = "stock.reports.read"
	StockScanDebug   = "stock.scan.debug"
)

// Roles carried in access tokens
const (
	RoleAdmin    = "admin"
	RoleManager  = "manager"
	RoleOperator = "operator"
	RoleViewer   = "viewer"
)

// RolePermissions are the permissions each role grants before any
// per-user additions from the token.
var RolePermissions = map[string][]string{
	RoleAdmin:    {"*"},
	RoleManager:  {"stock.*"},
	RoleOperator: {StockRead, StockWrite, StockPrint, StockReportsRead},
	RoleViewer:   {StockRead, StockReportsRead},
}

// HasPermission checks if the user's permissions include the required permission.
// Supports wildcard matching:
//   - "*" matches everything
//   - "stock.*" matches "stock.read", "stock.scan.debug", etc.
//   - Exact match for specific permissions
func HasPermission(userPerms []string, required string) bool {
	if required == "" {
		return true
	}

	for _, p := range userPerms {
		if p == "*" || p == required {
			return true
		}
		if strings.HasSuffix(p, ".*") {
			prefix := strings.TrimSuffix(p, ".*")
			if strings.HasPrefix(required, prefix+".") {
				return true
			}
		}
	}
	return false
}

// HasAnyPermission checks if the user has any of the required permissions.
func HasAnyPermission(userPerms []string, required []string) bool {
	for _, req := range required {
		if HasPermission(userPerms, req) {
			return true
		}
	}
	return false
}

// Resolve returns the role's permissions merged with the explicit grants.
// Unknown roles grant nothing by themselves.
func Resolve(role string, granted []string) []string {
	return MergePermissions(RolePermissions[strings.ToLower(role)], granted)
}

// MergePermissions merges multiple permission sets, removing duplicates.
func MergePermissions(sets ...[]string) []string {
	seen := make(map[string]bool)
	result := make([]string, 0)

	for _, set := range sets {
		for _, p := range set {
			if !seen[p] {
				seen[p] = true
				result = append(result, p)
			}
		}
	}

	return result
}

// IsValidPermission reports whether perm is "*" or has the resource.action shape.
func IsValidPermission(perm string) bool {
	if perm == "*" {
		return true
	}
	parts := strings.Split(perm, ".")
	if len(parts) < 2 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
	}
	return true
}
