package requestid

import (
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/gofrs/uuid"
	"github.com/stretchr/testify/require"

	"github.com/qolzam/telar-turnstile/internal/pkg/log"
)

func newApp(seen *string, fromCtx *string) *fiber.App {
	app := fiber.New()
	app.Use(New())
	app.Get("/", func(c *fiber.Ctx) error {
		*seen = GetRequestID(c)
		*fromCtx = log.RequestID(c.UserContext())
		return c.SendStatus(http.StatusNoContent)
	})
	return app
}

func TestRequestID_Generated(t *testing.T) {
	var seen, fromCtx string
	app := newApp(&seen, &fromCtx)

	resp, err := app.Test(httptest.NewRequest(http.MethodGet, "/", nil))
	require.NoError(t, err)
	defer resp.Body.Close()

	header := resp.Header.Get(HeaderRequestID)
	require.NotEmpty(t, header)
	_, err = uuid.FromString(header)
	require.NoError(t, err)
	require.Equal(t, header, seen)
	require.Equal(t, header, fromCtx)
}

func TestRequestID_Propagated(t *testing.T) {
	var seen, fromCtx string
	app := newApp(&seen, &fromCtx)

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set(HeaderRequestID, "client-supplied")
	resp, err := app.Test(req)
	require.NoError(t, err)
	defer resp.Body.Close()

	require.Equal(t, "client-supplied", resp.Header.Get(HeaderRequestID))
	require.Equal(t, "client-supplied", seen)
	require.Equal(t, "client-supplied", fromCtx)
}
