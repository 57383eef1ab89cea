package server

import (
	"fmt"
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/codraft/internal/provider"
	"github.com/mohammad-safakhou/codraft/internal/reasoning"
	"github.com/mohammad-safakhou/codraft/internal/store"
)

// SettingsHandler serves the persisted reasoning and model settings.
type SettingsHandler struct {
	Store    store.SettingsStore // nil when persistence is disabled
	Defaults store.Settings
	Logger   *log.Logger
}

func (h *SettingsHandler) Register(g *echo.Group) {
	g.GET("/settings", h.getSettings)
	g.PUT("/settings", h.updateSettings)
}

func (h *SettingsHandler) getSettings(c echo.Context) error {
	settings := h.Defaults
	if h.Store != nil {
		stored, found, err := h.Store.Get(c.Request().Context())
		if err != nil {
			return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
		}
		if found {
			settings = stored
		}
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": settings})
}

func (h *SettingsHandler) updateSettings(c echo.Context) error {
	if h.Store == nil {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "settings persistence disabled")
	}
	var settings store.Settings
	if err := c.Bind(&settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if err := validateSettings(settings); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}
	if err := h.Store.Update(c.Request().Context(), settings); err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": settings})
}

// validateSettings checks a full settings record. The same rules guard both
// the PUT endpoint and per-request overrides.
func validateSettings(s store.Settings) error {
	switch s.Reasoning.ReasoningMethod {
	case reasoning.MethodStandard, reasoning.MethodEnhancedCoD:
	default:
		return fmt.Errorf("unknown reasoning method %q", s.Reasoning.ReasoningMethod)
	}
	switch s.Reasoning.ReasoningEnhancement {
	case reasoning.EnhancementFixed, reasoning.EnhancementAdaptive:
	default:
		return fmt.Errorf("unknown reasoning enhancement %q", s.Reasoning.ReasoningEnhancement)
	}
	switch s.Reasoning.ReflectionSettings.VerificationDepth {
	case reasoning.VerificationBasic, reasoning.VerificationStandard, reasoning.VerificationDeep, reasoning.VerificationResearch:
	default:
		return fmt.Errorf("unknown verification depth %q", s.Reasoning.ReflectionSettings.VerificationDepth)
	}
	if s.Reasoning.CoDWordLimit <= 0 {
		return fmt.Errorf("codWordLimit must be > 0")
	}
	if _, err := provider.Lookup(s.Fireworks.Model); err != nil {
		return err
	}
	if s.Fireworks.Temperature < 0 {
		return fmt.Errorf("temperature must be >= 0")
	}
	if s.Fireworks.TopP < 0 || s.Fireworks.TopP > 1 {
		return fmt.Errorf("topP must be in [0,1]")
	}
	if s.Fireworks.TopK < 0 {
		return fmt.Errorf("topK must be >= 0")
	}
	if s.Fireworks.MaxTokens <= 0 {
		return fmt.Errorf("maxTokens must be > 0")
	}
	return nil
}
