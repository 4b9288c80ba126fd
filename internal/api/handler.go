package api

import (
	"encoding/json"
	"errors"
	"time"

	"github.com/bobby-s-dev/fireguard/internal/dashboard"
	"github.com/bobby-s-dev/fireguard/internal/models"
	"github.com/bobby-s-dev/fireguard/internal/services"
	"github.com/gofiber/fiber/v2"
	"go.uber.org/zap"
)

// TrendJobs is the scheduler surface the API needs.
type TrendJobs interface {
	ForceRun()
	GetStatus() map[string]interface{}
}

type Handler struct {
	dashboard *dashboard.Dashboard
	trends    *services.TrendService
	jobs      TrendJobs
	logger    *zap.Logger
	startTime time.Time
}

func NewHandler(board *dashboard.Dashboard, trends *services.TrendService, jobs TrendJobs, logger *zap.Logger) *Handler {
	return &Handler{
		dashboard: board,
		trends:    trends,
		jobs:      jobs,
		logger:    logger,
		startTime: time.Now(),
	}
}

// forecastRequest accepts the year as a JSON number or string.
type forecastRequest struct {
	Region            string      `json:"region"`
	Year              json.Number `json:"year"`
	FireRisk          string      `json:"fireRisk"`
	PopulationDensity string      `json:"populationDensity"`
}

// SubmitForecast handles POST /api/v1/forecast
func (h *Handler) SubmitForecast(c *fiber.Ctx) error {
	form, err := readForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	h.logger.Info("Submitting forecast",
		zap.String("region", form.Region),
		zap.String("year", form.Year),
		zap.String("fire_risk", form.FireRisk))

	state, err := h.dashboard.Submit(c.UserContext(), form)

	var validationErr *services.ValidationError
	switch {
	case err == nil:
		return c.JSON(state)
	case errors.As(err, &validationErr):
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":  "Invalid forecast input",
			"fields": validationErr.Fields,
		})
	case errors.Is(err, dashboard.ErrSubmissionInFlight):
		return c.Status(fiber.StatusConflict).JSON(fiber.Map{
			"error": err.Error(),
		})
	default:
		h.logger.Error("Failed to generate forecast", zap.Error(err))
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": dashboard.GenericFailure,
			"state": state,
		})
	}
}

// GetForecast handles GET /api/v1/forecast
func (h *Handler) GetForecast(c *fiber.Ctx) error {
	return c.JSON(h.dashboard.State())
}

// SaveReport handles POST /api/v1/forecast/save
func (h *Handler) SaveReport(c *fiber.Ctx) error {
	state, saved, err := h.dashboard.SaveReport(c.UserContext())
	if err != nil {
		return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
			"error": "Failed to save report",
		})
	}
	return c.JSON(fiber.Map{
		"saved": saved,
		"state": state,
	})
}

// Estimate handles POST /api/v1/estimate. It never calls the remote predictor.
func (h *Handler) Estimate(c *fiber.Ctx) error {
	form, err := readForm(c)
	if err != nil {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error":   "Invalid request body",
			"details": err.Error(),
		})
	}

	input, err := services.ParseForecastInput(form)
	if err != nil {
		var validationErr *services.ValidationError
		if errors.As(err, &validationErr) {
			return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
				"error":  "Invalid forecast input",
				"fields": validationErr.Fields,
			})
		}
		return err
	}

	return c.JSON(fiber.Map{
		"input":  input,
		"result": services.EstimateLocally(input),
		"source": models.SourceFallback,
	})
}

// Navigate handles POST /api/v1/navigate/:section
func (h *Handler) Navigate(c *fiber.Ctx) error {
	section := dashboard.Section(c.Params("section"))
	if !dashboard.ValidSection(section) {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Unknown section",
		})
	}
	return c.JSON(h.dashboard.Navigate(section))
}

// GetTrend handles GET /api/v1/trends/:model
func (h *Handler) GetTrend(c *fiber.Ctx) error {
	model := models.TrendModel(c.Params("model"))
	if model != models.TrendARIMA && model != models.TrendLSTM {
		return c.Status(fiber.StatusBadRequest).JSON(fiber.Map{
			"error": "Model must be arima or lstm",
		})
	}

	forecast, ok := h.trends.Latest(model)
	if !ok {
		return c.Status(fiber.StatusNotFound).JSON(fiber.Map{
			"error": "Trend forecast not available yet",
			"model": model,
		})
	}
	return c.JSON(forecast)
}

// RefreshTrends handles POST /api/v1/trends/refresh
func (h *Handler) RefreshTrends(c *fiber.Ctx) error {
	h.jobs.ForceRun()
	return c.Status(fiber.StatusAccepted).JSON(fiber.Map{
		"status":    "refresh scheduled",
		"scheduler": h.jobs.GetStatus(),
	})
}

// GetHealth handles GET /api/v1/health
func (h *Handler) GetHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status":       "healthy",
		"timestamp":    time.Now(),
		"uptime":       time.Since(h.startTime).String(),
		"trends":       h.trends.GetStats(),
		"last_refresh": h.trends.LastRefresh(),
		"scheduler":    h.jobs.GetStatus(),
	})
}

// GetRegions handles GET /api/v1/regions
func (h *Handler) GetRegions(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"regions":              models.Regions,
		"fire_risks":           models.FireRisks,
		"population_densities": models.PopulationDensities,
		"years":                []int{models.MinForecastYear, models.MaxForecastYear},
	})
}

// readForm accepts either a JSON body or the HTML form field names.
func readForm(c *fiber.Ctx) (services.FormValues, error) {
	if c.Is("json") {
		var req forecastRequest
		if err := json.Unmarshal(c.Body(), &req); err != nil {
			return services.FormValues{}, err
		}
		return services.FormValues{
			Region:            req.Region,
			Year:              req.Year.String(),
			FireRisk:          req.FireRisk,
			PopulationDensity: req.PopulationDensity,
		}, nil
	}

	return services.FormValues{
		Region:            c.FormValue("region"),
		Year:              c.FormValue("year"),
		FireRisk:          c.FormValue("fire-risk"),
		PopulationDensity: c.FormValue("population-density"),
	}, nil
}
