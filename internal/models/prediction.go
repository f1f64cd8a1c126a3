package models

import "time"

// Category is the content tier a prediction belongs to. Canonical form is
// capitalized even though the legacy store keeps lowercase tags.
type Category string

const (
	CategoryFree  Category = "Free"
	CategorySafe  Category = "Safe"
	CategoryFixed Category = "Fixed"
)

// Status is the lifecycle state of a prediction.
type Status string

const (
	StatusPending Status = "Pending"
	StatusWon     Status = "Won"
	StatusLost    Status = "Lost"
)

// Prediction is the canonical, normalized shape of a match prediction.
// Instances are produced by the normalize package and never stored directly;
// the store keeps the legacy field shape.
type Prediction struct {
	ID         string    `json:"id"`
	League     string    `json:"league"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	StartTime  time.Time `json:"start_time"`
	Prediction string    `json:"prediction"`
	Odds       float64   `json:"odds"`
	Category   Category  `json:"category"`
	Status     Status    `json:"status"`
	Result     string    `json:"result,omitempty"`
	Confidence int       `json:"confidence,omitempty"`
	Analysis   string    `json:"analysis,omitempty"`
}
