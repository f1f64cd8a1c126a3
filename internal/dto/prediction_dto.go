package dto

import (
	"time"

	"github.com/ngimbabet/predictions-backend/internal/models"
)

// PredictionView is a single prediction as delivered to a viewer. When the
// item is locked the tip itself is withheld: Prediction, Odds and Analysis
// are zeroed while the fixture details stay visible.
type PredictionView struct {
	ID         string  `json:"id"`
	League     string  `json:"league"`
	HomeTeam   string  `json:"home_team"`
	AwayTeam   string  `json:"away_team"`
	StartTime  string  `json:"start_time"`
	Prediction string  `json:"prediction,omitempty"`
	Odds       float64 `json:"odds,omitempty"`
	Category   string  `json:"category"`
	Status     string  `json:"status"`
	Result     string  `json:"result,omitempty"`
	Confidence int     `json:"confidence,omitempty"`
	Analysis   string  `json:"analysis,omitempty"`
	Locked     bool    `json:"locked"`
}

// PredictionGroup bundles the predictions of one calendar day.
type PredictionGroup struct {
	Date  string           `json:"date"`
	Items []PredictionView `json:"items"`
}

type PredictionListResponse struct {
	Groups []PredictionGroup `json:"groups"`
	Total  int               `json:"total"`
}

// PredictionRequest is the admin payload for creating or updating a
// prediction. StartTime accepts RFC 3339.
type PredictionRequest struct {
	League     string    `json:"league"`
	HomeTeam   string    `json:"home_team"`
	AwayTeam   string    `json:"away_team"`
	StartTime  time.Time `json:"start_time"`
	Prediction string    `json:"prediction"`
	Odds       float64   `json:"odds"`
	Category   string    `json:"category"`
	Confidence int       `json:"confidence,omitempty"`
	Analysis   string    `json:"analysis,omitempty"`
}

func (r *PredictionRequest) Model() models.Prediction {
	category := models.CategoryFree
	switch r.Category {
	case "Safe", "safe":
		category = models.CategorySafe
	case "Fixed", "fixed":
		category = models.CategoryFixed
	}
	return models.Prediction{
		League:     r.League,
		HomeTeam:   r.HomeTeam,
		AwayTeam:   r.AwayTeam,
		StartTime:  r.StartTime,
		Prediction: r.Prediction,
		Odds:       r.Odds,
		Category:   category,
		Status:     models.StatusPending,
		Confidence: r.Confidence,
		Analysis:   r.Analysis,
	}
}

type SettleRequest struct {
	Status string `json:"status"`
	Result string `json:"result,omitempty"`
}

type SeedRequest struct {
	Matches []PredictionRequest `json:"matches"`
}

type CreatedResponse struct {
	ID string `json:"id"`
}

type SeedResponse struct {
	Created int `json:"created"`
}
