// Package normalize converts between the loose field shape kept by the store
// (legacy key names, lowercase enum tags, string-encoded numbers) and the
// canonical record types. Conversion never fails: missing or malformed values
// fall back to defaults, and enum canonicalization is idempotent.
package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/store"
)

// Accepted timestamp layouts. The admin console historically wrote values
// straight from a datetime-local input, without seconds or zone.
var timeLayouts = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
}

// Prediction maps a stored record to its canonical shape.
func Prediction(f store.Fields) models.Prediction {
	return models.Prediction{
		ID:         text(f, "id", ""),
		League:     text(f, "league", "Unknown League"),
		HomeTeam:   text(f, "homeTeam", "Home Team"),
		AwayTeam:   text(f, "awayTeam", "Away Team"),
		StartTime:  timestamp(f, "date"),
		Prediction: text(f, "prediction", "Pending"),
		Odds:       odds(f, "odd"),
		Category:   models.Category(capitalize(text(f, "category", "free"))),
		Status:     models.Status(capitalize(text(f, "status", "pending"))),
		Result:     text(f, "result", ""),
		Confidence: integer(f, "confidence"),
		Analysis:   text(f, "analysis", ""),
	}
}

// Profile maps a stored profile document to its canonical shape. A document
// with no status tag is treated as inactive rather than granted access.
func Profile(f store.Fields) models.Profile {
	return models.Profile{
		Email:   text(f, "email", ""),
		Tier:    models.Tier(lowerTag(text(f, "subscription", "free"))),
		Billing: models.Billing(lowerTag(text(f, "billing", ""))),
		Status:  models.ProfileStatus(lowerTag(text(f, "status", "inactive"))),
		Expires: optionalTime(f, "expires"),
	}
}

// PredictionFields is the inverse mapping used on writes: capitalized enums
// back to lowercase tags, odds back to a string under the legacy "odd" key.
func PredictionFields(p models.Prediction) store.Fields {
	f := store.Fields{
		"league":     p.League,
		"homeTeam":   p.HomeTeam,
		"awayTeam":   p.AwayTeam,
		"date":       p.StartTime.UTC().Format(time.RFC3339),
		"prediction": p.Prediction,
		"odd":        strconv.FormatFloat(p.Odds, 'f', 2, 64),
		"category":   lowerTag(string(p.Category)),
		"status":     lowerTag(string(p.Status)),
	}
	if p.Result != "" {
		f["result"] = p.Result
	}
	if p.Confidence > 0 {
		f["confidence"] = p.Confidence
	}
	if p.Analysis != "" {
		f["analysis"] = p.Analysis
	}
	return f
}

// ProfileFields is the inverse mapping for profile writes. Absent billing
// and expiry are written as explicit nulls so a merge clears stale values.
func ProfileFields(p models.Profile) store.Fields {
	f := store.Fields{
		"email":        p.Email,
		"subscription": lowerTag(string(p.Tier)),
		"status":       lowerTag(string(p.Status)),
	}
	if p.Billing == models.BillingNone {
		f["billing"] = nil
	} else {
		f["billing"] = lowerTag(string(p.Billing))
	}
	if p.Expires == nil {
		f["expires"] = nil
	} else {
		f["expires"] = p.Expires.UTC().Format(time.RFC3339)
	}
	return f
}

func text(f store.Fields, key, fallback string) string {
	v, ok := f[key]
	if !ok || v == nil {
		return fallback
	}
	s, ok := v.(string)
	if !ok || strings.TrimSpace(s) == "" {
		return fallback
	}
	return s
}

// capitalize canonicalizes an enum tag to its capitalized form:
// "  FIXED " -> "Fixed". Applying it twice yields the same value.
func capitalize(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// lowerTag canonicalizes an enum tag to its lowercase form.
func lowerTag(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func odds(f store.Fields, key string) float64 {
	switch v := f[key].(type) {
	case string:
		if parsed, err := strconv.ParseFloat(strings.TrimSpace(v), 64); err == nil {
			return parsed
		}
	case float64:
		return v
	case int:
		return float64(v)
	}
	return 1.0
}

func integer(f store.Fields, key string) int {
	switch v := f[key].(type) {
	case float64:
		return int(v)
	case int:
		return v
	case string:
		if parsed, err := strconv.Atoi(strings.TrimSpace(v)); err == nil {
			return parsed
		}
	}
	return 0
}

// timestamp parses the stored start time. A missing or unparsable value
// defaults to the normalization instant, matching how the old admin console
// treated records saved without a date.
func timestamp(f store.Fields, key string) time.Time {
	if t := parseTime(f[key]); t != nil {
		return *t
	}
	return time.Now().UTC()
}

func optionalTime(f store.Fields, key string) *time.Time {
	return parseTime(f[key])
}

func parseTime(v any) *time.Time {
	switch val := v.(type) {
	case time.Time:
		utc := val.UTC()
		return &utc
	case string:
		s := strings.TrimSpace(val)
		if s == "" {
			return nil
		}
		for _, layout := range timeLayouts {
			if t, err := time.Parse(layout, s); err == nil {
				utc := t.UTC()
				return &utc
			}
		}
	}
	return nil
}
