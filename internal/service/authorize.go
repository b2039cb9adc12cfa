package service

import "github.com/hdfuturetech/cinema-booking/internal/model"

// Authorize decides whether p may act on a resource owned by ownerID.
// Admins always pass.  A non-empty requiredRole must match p's role and a
// non-empty ownerID must match p's id.  Anonymous principals never pass.
func Authorize(p model.Principal, ownerID, requiredRole string) bool {
	if p.ID == "" {
		return false
	}
	if p.IsAdmin() {
		return true
	}
	if requiredRole != "" && p.Role != requiredRole {
		return false
	}
	if ownerID != "" && p.ID != ownerID {
		return false
	}
	return true
}
