package middleware

import (
	"net/http/httptest"
	"testing"

	"github.com/gofiber/fiber/v2"
	"github.com/sirupsen/logrus"
	"github.com/sirupsen/logrus/hooks/test"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRequestLoggerLevels(t *testing.T) {
	log, hook := test.NewNullLogger()
	app := fiber.New()
	app.Use(RequestLogger(log))
	app.Get("/ok", func(c *fiber.Ctx) error { return c.SendString("ok") })
	app.Get("/missing", func(c *fiber.Ctx) error { return c.SendStatus(fiber.StatusNotFound) })
	app.Get("/boom", func(c *fiber.Ctx) error { return fiber.NewError(fiber.StatusBadGateway, "upstream") })

	tests := []struct {
		path   string
		level  logrus.Level
		status int
	}{
		{"/ok", logrus.InfoLevel, 200},
		{"/missing", logrus.WarnLevel, 404},
		{"/boom", logrus.ErrorLevel, 502},
	}
	for _, tt := range tests {
		hook.Reset()
		resp, err := app.Test(httptest.NewRequest("GET", tt.path, nil))
		require.NoError(t, err)
		assert.NotEmpty(t, resp.Header.Get("X-Request-ID"))

		entry := hook.LastEntry()
		require.NotNil(t, entry, tt.path)
		assert.Equal(t, tt.level, entry.Level, tt.path)
		assert.Equal(t, tt.status, entry.Data["status_code"], tt.path)
		assert.Equal(t, tt.path, entry.Data["uri"])
	}
}
