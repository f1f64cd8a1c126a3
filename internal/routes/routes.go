package routes

import (
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/limiter"
	"github.com/ngimbabet/predictions-backend/internal/config"
	"github.com/ngimbabet/predictions-backend/internal/handlers"
	"github.com/ngimbabet/predictions-backend/internal/middleware"
	"gorm.io/gorm"
)

func Setup(
	app *fiber.App,
	cfg *config.Config,
	db *gorm.DB,
	authHandler *handlers.AuthHandler,
	healthHandler *handlers.HealthHandler,
	predictionsHandler *handlers.PredictionsHandler,
	adminHandler *handlers.AdminHandler,
) {
	api := app.Group("/api")

	// General API rate limiter: 60 req/min per IP
	api.Use(limiter.New(limiter.Config{
		Max:               60,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))

	api.Get("/health", healthHandler.Check)

	// Public feed: gated items arrive masked without a token
	api.Get("/predictions", predictionsHandler.List)

	// Auth is public, with a stricter rate limit: 10 req/min per IP
	auth := api.Group("/auth")
	auth.Use(limiter.New(limiter.Config{
		Max:               10,
		Expiration:        1 * time.Minute,
		LimiterMiddleware: limiter.SlidingWindow{},
		KeyGenerator:      func(c *fiber.Ctx) string { return c.IP() },
	}))
	auth.Post("/register", authHandler.Register)
	auth.Post("/login", authHandler.Login)
	auth.Post("/refresh", authHandler.Refresh)

	// Protected routes (JWT required) - apply middleware to individual routes
	// so public routes stay unaffected
	api.Post("/auth/logout", middleware.JWTProtected(cfg), authHandler.Logout)
	api.Delete("/auth/account", middleware.JWTProtected(cfg), authHandler.DeleteAccount)

	// Personalized feed and profile
	me := api.Group("/me", middleware.JWTProtected(cfg))
	me.Get("/predictions", predictionsHandler.List)
	me.Get("/profile", predictionsHandler.Profile)

	// Admin console (protected + admin required)
	admin := api.Group("/admin", middleware.JWTProtected(cfg), middleware.AdminRequired(db, cfg))
	admin.Post("/predictions", adminHandler.CreatePrediction)
	admin.Put("/predictions/:id", adminHandler.UpdatePrediction)
	admin.Patch("/predictions/:id/settle", adminHandler.SettlePrediction)
	admin.Delete("/predictions/:id", adminHandler.DeletePrediction)
	admin.Post("/predictions/seed", adminHandler.SeedMatches)
	admin.Get("/users", adminHandler.ListUsers)
	admin.Put("/users/:id/subscription", adminHandler.SetSubscription)
	admin.Post("/users/:id/deactivate", adminHandler.DeactivateUser)
	admin.Post("/users/:id/reactivate", adminHandler.ReactivateUser)
}
