package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"
)

const testSecret = "test-secret"

func signToken(t *testing.T, claims jwt.MapClaims) string {
	t.Helper()
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(testSecret))
	require.NoError(t, err)
	return signed
}

func newProtectedApp() *fiber.App {
	app := fiber.New()
	app.Use(JWTProtected(testSecret))
	app.Get("/whoami", func(c *fiber.Ctx) error {
		id, _ := c.Locals("user_id").(uint)
		return c.JSON(fiber.Map{"id": id})
	})
	return app
}

func TestJWTProtectedAcceptsValidToken(t *testing.T) {
	app := newProtectedApp()

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signToken(t, jwt.MapClaims{"sub": "7"}))

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusOK, resp.StatusCode)
}

func TestJWTProtectedRejectsMissingHeader(t *testing.T) {
	app := newProtectedApp()

	resp, err := app.Test(httptest.NewRequest(fiber.MethodGet, "/whoami", nil))
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestJWTProtectedRejectsWrongSecret(t *testing.T) {
	app := newProtectedApp()

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{"sub": "7"})
	signed, err := token.SignedString([]byte("other-secret"))
	require.NoError(t, err)

	req := httptest.NewRequest(fiber.MethodGet, "/whoami", nil)
	req.Header.Set("Authorization", "Bearer "+signed)

	resp, err := app.Test(req)
	require.NoError(t, err)
	require.Equal(t, fiber.StatusUnauthorized, resp.StatusCode)
}

func TestNormalizeUserID(t *testing.T) {
	id, err := normalizeUserID(float64(42))
	require.NoError(t, err)
	require.Equal(t, uint(42), id)

	id, err = normalizeUserID("17")
	require.NoError(t, err)
	require.Equal(t, uint(17), id)

	_, err = normalizeUserID(float64(-1))
	require.Error(t, err)

	_, err = normalizeUserID("abc")
	require.Error(t, err)

	_, err = normalizeUserID([]string{"x"})
	require.Error(t, err)
}

func TestExtractUserIDFromClaimsPrecedence(t *testing.T) {
	id := extractUserIDFromClaims(jwt.MapClaims{"sub": "3", "user_id": float64(9)})
	require.NotNil(t, id)
	require.Equal(t, uint(3), *id)

	id = extractUserIDFromClaims(jwt.MapClaims{"user_id": float64(9)})
	require.NotNil(t, id)
	require.Equal(t, uint(9), *id)

	require.Nil(t, extractUserIDFromClaims(jwt.MapClaims{}))
}
