package handlers

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/ngimbabet/predictions-backend/internal/access"
	"github.com/ngimbabet/predictions-backend/internal/dto"
	"github.com/ngimbabet/predictions-backend/internal/livesync"
	"github.com/ngimbabet/predictions-backend/internal/middleware"
	"github.com/ngimbabet/predictions-backend/internal/models"
	"github.com/ngimbabet/predictions-backend/internal/session"
)

type PredictionsHandler struct {
	watcher  *livesync.PredictionWatcher
	registry *session.Registry
}

func NewPredictionsHandler(watcher *livesync.PredictionWatcher, registry *session.Registry) *PredictionsHandler {
	return &PredictionsHandler{watcher: watcher, registry: registry}
}

// List serves the current predictions grouped by day, newest first. The
// viewer's profile decides which gated items are masked; without a verified
// token everything gated and pending is locked.
func (h *PredictionsHandler) List(c *fiber.Ctx) error {
	var profile *models.Profile
	if identity, ok := middleware.CurrentIdentity(c); ok {
		sync := h.registry.Ensure(c.Context(), identity)
		_, profile, _ = sync.Current()
	}

	now := time.Now().UTC()
	items := h.watcher.Snapshot()

	var category models.Category
	switch c.Query("category") {
	case "":
	case "free":
		category = models.CategoryFree
	case "safe":
		category = models.CategorySafe
	case "fixed":
		category = models.CategoryFixed
	default:
		return badRequest(c, "Category must be free, safe or fixed")
	}

	groups := make([]dto.PredictionGroup, 0)
	total := 0
	for _, p := range items {
		if category != "" && p.Category != category {
			continue
		}
		view := maskPrediction(profile, p, now)
		day := p.StartTime.UTC().Format("2006-01-02")
		// Snapshot order is start time descending, so same-day items are
		// adjacent and groups come out newest first.
		if n := len(groups); n == 0 || groups[n-1].Date != day {
			groups = append(groups, dto.PredictionGroup{Date: day})
		}
		groups[len(groups)-1].Items = append(groups[len(groups)-1].Items, view)
		total++
	}

	return c.JSON(dto.PredictionListResponse{Groups: groups, Total: total})
}

// Profile serves the viewer's subscription profile and loading state.
func (h *PredictionsHandler) Profile(c *fiber.Ctx) error {
	identity, ok := middleware.CurrentIdentity(c)
	if !ok {
		return c.Status(fiber.StatusUnauthorized).JSON(dto.ErrorResponse{
			Error: true, Message: "Unauthorized",
		})
	}

	sync := h.registry.Ensure(c.Context(), identity)
	_, profile, loading := sync.Current()

	return c.JSON(fiber.Map{
		"identity": identity,
		"profile":  profile,
		"loading":  loading,
	})
}

func maskPrediction(profile *models.Profile, p models.Prediction, now time.Time) dto.PredictionView {
	view := dto.PredictionView{
		ID:         p.ID,
		League:     p.League,
		HomeTeam:   p.HomeTeam,
		AwayTeam:   p.AwayTeam,
		StartTime:  p.StartTime.UTC().Format(time.RFC3339),
		Prediction: p.Prediction,
		Odds:       p.Odds,
		Category:   string(p.Category),
		Status:     string(p.Status),
		Result:     p.Result,
		Confidence: p.Confidence,
		Analysis:   p.Analysis,
	}

	if access.Locked(profile, p, now) {
		view.Locked = true
		view.Prediction = ""
		view.Odds = 0
		view.Result = ""
		view.Confidence = 0
		view.Analysis = ""
	}
	return view
}
