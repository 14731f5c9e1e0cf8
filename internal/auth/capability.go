package auth

import (
	"github.com/EmerzonBasa/crld/internal/models"
)

// RequireCapability is the permission gate consulted at the top of every
// guarded operation. The capability is passed as data; a false bit fails
// with ErrForbidden before any side effect occurs. The check reads only the
// session's snapshot, never anything supplied in the request payload.
func RequireCapability(sess *models.Session, cap models.Capability) error {
	if sess == nil {
		return models.ErrUnauthorized
	}
	if !sess.Can(cap) {
		return models.ErrForbidden
	}
	return nil
}

// RequireRole layers the coarser role gate on top of capability checks for
// administrative operations. allowed lists the roles that may proceed.
func RequireRole(sess *models.Session, allowed ...string) error {
	if sess == nil {
		return models.ErrUnauthorized
	}
	for _, role := range allowed {
		if sess.Role == role {
			return nil
		}
	}
	return models.ErrForbidden
}
