package models

import "time"

// Tier is the subscription level controlling content visibility.
// "fixed" is the superset tier and implies "safe" access.
type Tier string

const (
	TierFree  Tier = "free"
	TierSafe  Tier = "safe"
	TierFixed Tier = "fixed"
)

// Billing is the renewal cycle of a paid subscription. Empty means none.
type Billing string

const (
	BillingNone    Billing = ""
	BillingWeekly  Billing = "weekly"
	BillingMonthly Billing = "monthly"
)

// ProfileStatus marks whether a subscriber account is active.
type ProfileStatus string

const (
	ProfileActive   ProfileStatus = "active"
	ProfileInactive ProfileStatus = "inactive"
)

// Profile is the canonical subscription profile of a viewer. Expires is only
// meaningful while Status is active and Tier is not free; an expired
// timestamp is equivalent to no access regardless of the stored tier.
type Profile struct {
	Email   string        `json:"email"`
	Tier    Tier          `json:"subscription"`
	Billing Billing       `json:"billing,omitempty"`
	Status  ProfileStatus `json:"status"`
	Expires *time.Time    `json:"expires,omitempty"`
}

// Identity is the authenticated principal attached to a session.
type Identity struct {
	ID    string `json:"id"`
	Email string `json:"email"`
}

// Auth event types.
const (
	AuthSignedIn  = "signed_in"
	AuthSignedOut = "signed_out"
)

// AuthEvent is delivered on every auth state change.
type AuthEvent struct {
	Type     string    `json:"type"`
	Identity *Identity `json:"identity,omitempty"`
}
