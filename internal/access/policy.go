// Package access decides whether a viewer may see gated content. All
// functions are pure; the current time is an explicit parameter.
package access

import (
	"time"

	"github.com/ngimbabet/predictions-backend/internal/models"
)

// HasAccess reports whether the profile may view content of the requested
// category at the given instant. The fixed tier implies safe access; free
// content only requires an active, non-expired profile. A profile expiring
// exactly at now is still valid; only expires < now lapses.
func HasAccess(profile *models.Profile, category models.Category, now time.Time) bool {
	if profile == nil || profile.Status != models.ProfileActive {
		return false
	}
	if profile.Expires != nil && profile.Expires.Before(now) {
		return false
	}

	switch category {
	case models.CategoryFree:
		return true
	case models.CategorySafe:
		return profile.Tier == models.TierSafe || profile.Tier == models.TierFixed
	case models.CategoryFixed:
		return profile.Tier == models.TierFixed
	}
	return false
}

// Locked reports whether an individual prediction must be hidden from the
// viewer. Only pending items of a gated category lock: resolved results are
// never monetized, and free content never locks.
func Locked(profile *models.Profile, p models.Prediction, now time.Time) bool {
	if p.Category == models.CategoryFree {
		return false
	}
	return !HasAccess(profile, p.Category, now) && p.Status == models.StatusPending
}
