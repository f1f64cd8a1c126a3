// Package admin is the mutation gateway for the operator console. Every
// operation authorizes the acting identity before touching the store and
// validates input before any write is attempted.
package admin

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/normalize"
	"github.com/ngimbabet/predictions-backend/internal/store"
)

var (
	ErrNotAuthorized = errors.New("not authorized for admin operations")
	ErrInvalidInput  = errors.New("invalid input")
)

// RoleChecker reports whether an identity carries the admin role in the
// account database. It is consulted only when the email allowlist misses.
type RoleChecker func(ctx context.Context, identity models.Identity) (bool, error)

// Gateway performs privileged mutations on behalf of an operator.
type Gateway struct {
	st     store.Store
	admins map[string]struct{}
	role   RoleChecker
	now    func() time.Time
}

func NewGateway(st store.Store, adminEmails []string, role RoleChecker) *Gateway {
	admins := make(map[string]struct{}, len(adminEmails))
	for _, email := range adminEmails {
		email = strings.TrimSpace(email)
		if email != "" {
			admins[email] = struct{}{}
		}
	}
	return &Gateway{st: st, admins: admins, role: role, now: time.Now}
}

// authorize checks the allowlist and then the role backend. Configured
// emails are matched exactly, as registered.
func (g *Gateway) authorize(ctx context.Context, actor models.Identity) error {
	if _, ok := g.admins[actor.Email]; ok {
		return nil
	}
	if g.role != nil {
		isAdmin, err := g.role(ctx, actor)
		if err != nil {
			return fmt.Errorf("admin role lookup: %w", err)
		}
		if isAdmin {
			return nil
		}
	}
	return ErrNotAuthorized
}

func validatePrediction(p models.Prediction) error {
	switch {
	case strings.TrimSpace(p.HomeTeam) == "":
		return fmt.Errorf("%w: home team is required", ErrInvalidInput)
	case strings.TrimSpace(p.AwayTeam) == "":
		return fmt.Errorf("%w: away team is required", ErrInvalidInput)
	case strings.TrimSpace(p.Prediction) == "":
		return fmt.Errorf("%w: prediction is required", ErrInvalidInput)
	case p.StartTime.IsZero():
		return fmt.Errorf("%w: start time is required", ErrInvalidInput)
	case p.Odds < 1.0:
		return fmt.Errorf("%w: odds must be at least 1.00", ErrInvalidInput)
	}
	return nil
}

// CreatePrediction validates and stores a new prediction, returning its id.
func (g *Gateway) CreatePrediction(ctx context.Context, actor models.Identity, p models.Prediction) (string, error) {
	if err := g.authorize(ctx, actor); err != nil {
		return "", err
	}
	if err := validatePrediction(p); err != nil {
		return "", err
	}
	return g.st.AddRecord(ctx, store.CollectionMatches, normalize.PredictionFields(p))
}

// UpdatePrediction replaces the stored fields of an existing prediction.
func (g *Gateway) UpdatePrediction(ctx context.Context, actor models.Identity, id string, p models.Prediction) error {
	if err := g.authorize(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}
	if err := validatePrediction(p); err != nil {
		return err
	}
	return g.st.UpdateRecord(ctx, store.CollectionMatches, id, normalize.PredictionFields(p))
}

// SettlePrediction resolves a pending prediction with its final outcome.
func (g *Gateway) SettlePrediction(ctx context.Context, actor models.Identity, id string, status models.Status, result string) error {
	if err := g.authorize(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}
	if status != models.StatusWon && status != models.StatusLost && status != models.StatusPending {
		return fmt.Errorf("%w: unknown status %q", ErrInvalidInput, status)
	}
	fields := store.Fields{"status": strings.ToLower(string(status))}
	if strings.TrimSpace(result) != "" {
		fields["result"] = result
	}
	return g.st.UpdateRecord(ctx, store.CollectionMatches, id, fields)
}

// DeletePrediction removes a prediction permanently.
func (g *Gateway) DeletePrediction(ctx context.Context, actor models.Identity, id string) error {
	if err := g.authorize(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(id) == "" {
		return fmt.Errorf("%w: prediction id is required", ErrInvalidInput)
	}
	return g.st.DeleteRecord(ctx, store.CollectionMatches, id)
}

// SeedMatches bulk-creates predictions and returns how many were stored. The
// whole batch is validated up front so a bad row fails before any write.
func (g *Gateway) SeedMatches(ctx context.Context, actor models.Identity, batch []models.Prediction) (int, error) {
	if err := g.authorize(ctx, actor); err != nil {
		return 0, err
	}
	for i, p := range batch {
		if err := validatePrediction(p); err != nil {
			return 0, fmt.Errorf("row %d: %w", i, err)
		}
	}
	for i, p := range batch {
		if _, err := g.st.AddRecord(ctx, store.CollectionMatches, normalize.PredictionFields(p)); err != nil {
			return i, err
		}
	}
	return len(batch), nil
}

// SetUserSubscription upgrades or downgrades a subscriber. A paid tier
// activates the profile and stamps a new expiry from the billing cycle
// (weekly adds 7 days, monthly adds 30); the free tier clears billing and
// expiry. Email and other profile fields are left untouched.
func (g *Gateway) SetUserSubscription(ctx context.Context, actor models.Identity, userID string, tier models.Tier, billing models.Billing) error {
	if err := g.authorize(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}

	fields := store.Fields{
		"subscription": string(tier),
		"status":       string(models.ProfileActive),
	}
	switch tier {
	case models.TierFree:
		fields["billing"] = nil
		fields["expires"] = nil
	case models.TierSafe, models.TierFixed:
		var cycle time.Duration
		switch billing {
		case models.BillingWeekly:
			cycle = 7 * 24 * time.Hour
		case models.BillingMonthly:
			cycle = 30 * 24 * time.Hour
		default:
			return fmt.Errorf("%w: unknown billing cycle %q", ErrInvalidInput, billing)
		}
		fields["billing"] = string(billing)
		fields["expires"] = g.now().UTC().Add(cycle).Format(time.RFC3339)
	default:
		return fmt.Errorf("%w: unknown tier %q", ErrInvalidInput, tier)
	}

	return g.st.UpdateProfile(ctx, userID, fields)
}

// DeactivateUser flips the profile status to inactive. Tier, billing and
// expiry are preserved so a later reactivation restores the old plan.
func (g *Gateway) DeactivateUser(ctx context.Context, actor models.Identity, userID string) error {
	if err := g.authorize(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return g.st.UpdateProfile(ctx, userID, store.Fields{"status": string(models.ProfileInactive)})
}

// ReactivateUser flips the profile status back to active.
func (g *Gateway) ReactivateUser(ctx context.Context, actor models.Identity, userID string) error {
	if err := g.authorize(ctx, actor); err != nil {
		return err
	}
	if strings.TrimSpace(userID) == "" {
		return fmt.Errorf("%w: user id is required", ErrInvalidInput)
	}
	return g.st.UpdateProfile(ctx, userID, store.Fields{"status": string(models.ProfileActive)})
}
