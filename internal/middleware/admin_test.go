package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/ngimbabet/predictions-backend/internal/config"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func adminTestApp(actorEmail string) *fiber.App {
	cfg := &config.Config{AdminEmails: "admin@example.com"}

	app := fiber.New()
	app.Use(func(c *fiber.Ctx) error {
		// Stand in for JWTProtected: a verified token in locals. The sub is
		// deliberately not a UUID so the role fallback never reaches the DB.
		c.Locals("user", &jwt.Token{Claims: jwt.MapClaims{
			"sub":   "op-1",
			"email": actorEmail,
		}})
		return c.Next()
	})
	app.Get("/admin", AdminRequired(nil, cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})
	return app
}

func TestAdminRequiredMatchesConfiguredEmail(t *testing.T) {
	app := adminTestApp("admin@example.com")

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestAdminRequiredEmailComparedExactly(t *testing.T) {
	app := adminTestApp("ADMIN@EXAMPLE.COM")

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusForbidden, resp.StatusCode)
}

func TestAdminRequiredWithoutToken(t *testing.T) {
	cfg := &config.Config{AdminEmails: "admin@example.com"}
	app := fiber.New()
	app.Get("/admin", AdminRequired(nil, cfg), func(c *fiber.Ctx) error {
		return c.SendString("ok")
	})

	resp, err := app.Test(httptest.NewRequest("GET", "/admin", nil))
	require.NoError(t, err)
	assert.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}
