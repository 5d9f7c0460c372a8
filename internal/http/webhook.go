package http

import (
	"encoding/json"
	"io"
	"net/http"

	"github.com/jmehdipour/micromdm-webhook/internal/metrics"
	"github.com/jmehdipour/micromdm-webhook/internal/model"
	"github.com/jmehdipour/micromdm-webhook/internal/registry"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const maxWebhookBodyBytes = 10 << 20

// webhookHandler always answers 200 with an empty body so MicroMDM never
// retries a delivery, even when the body cannot be decoded.
func webhookHandler(disp EventDispatcher, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		var env model.Envelope
		dec := json.NewDecoder(io.LimitReader(c.Request().Body, maxWebhookBodyBytes))
		if err := dec.Decode(&env); err != nil {
			metrics.EventErrorsTotal.WithLabelValues("decode").Inc()
			log.Warn("webhook body decode failed", zap.Error(err))

			return c.NoContent(http.StatusOK)
		}

		disp.Dispatch(c.Request().Context(), env)

		return c.NoContent(http.StatusOK)
	}
}

func getDeviceHandler(devices registry.Registry, log *zap.Logger) echo.HandlerFunc {
	return func(c echo.Context) error {
		udid := c.Param("udid")

		d, ok, err := devices.Get(c.Request().Context(), udid)
		if err != nil {
			log.Error("registry get failed", zap.String("udid", udid), zap.Error(err))

			return c.JSON(http.StatusInternalServerError, map[string]string{"error": "registry error"})
		}
		if !ok {
			return c.JSON(http.StatusNotFound, map[string]string{"error": "device not found"})
		}

		return c.JSON(http.StatusOK, d)
	}
}

