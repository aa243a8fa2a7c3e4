package handlers

import (
	"github.com/carsch18/AI-OPS/internal/monitoring"
	"github.com/gofiber/fiber/v2"
)

// MetricsHandler proxies raw Netdata payloads to the dashboard so the
// frontend never talks to the monitoring agent directly.
type MetricsHandler struct {
	monitor *monitoring.Client
}

func NewMetricsHandler(monitor *monitoring.Client) *MetricsHandler {
	return &MetricsHandler{monitor: monitor}
}

func (h *MetricsHandler) Metrics(c *fiber.Ctx) error {
	body, err := h.monitor.ChartData("system.cpu", "-60", "60")
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch metrics",
		})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(body)
}

func (h *MetricsHandler) Charts(c *fiber.Ctx) error {
	body, err := h.monitor.Charts()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch charts",
		})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(body)
}

func (h *MetricsHandler) Chart(c *fiber.Ctx) error {
	chart := c.Params("chart")
	after := c.Query("after", "-60")
	points := c.Query("points", "60")

	body, err := h.monitor.ChartData(chart, after, points)
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch chart",
		})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(body)
}

func (h *MetricsHandler) Alerts(c *fiber.Ctx) error {
	body, err := h.monitor.Alarms()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch alerts",
		})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(body)
}

func (h *MetricsHandler) Info(c *fiber.Ctx) error {
	body, err := h.monitor.Info()
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to fetch info",
		})
	}
	c.Set("Content-Type", "application/json")
	return c.Send(body)
}
