package server

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	appconfig "github.com/mohammad-safakhou/codraft/config"
	"github.com/mohammad-safakhou/codraft/internal/media"
	"github.com/mohammad-safakhou/codraft/internal/provider"
	"github.com/mohammad-safakhou/codraft/internal/provider/fireworks"
	"github.com/mohammad-safakhou/codraft/internal/reasoning"
	"github.com/mohammad-safakhou/codraft/internal/store"
	"github.com/mohammad-safakhou/codraft/internal/telemetry"
)

// Run wires the full dependency graph and serves HTTP until the listener fails.
func Run(cfg *appconfig.Config) error {
	e := newEcho()

	tele := telemetry.New()
	e.GET("/healthz", func(c echo.Context) error { return c.String(http.StatusOK, "ok") })
	if cfg.Telemetry.Enabled {
		e.GET("/metrics", echo.WrapHandler(tele.Handler()))
	}

	llm := fireworks.NewClient(cfg.Fireworks.APIKey, cfg.Fireworks.BaseURL, cfg.Fireworks.Timeout)

	visionModel := cfg.Fireworks.VisionModel
	if visionModel == "" {
		visionModel = provider.DefaultVisionModel
	}
	visionInfo, err := provider.Lookup(visionModel)
	if err != nil {
		return fmt.Errorf("vision model: %w", err)
	}
	mediaLogger := log.New(log.Writer(), "[MEDIA] ", log.LstdFlags)
	mp := media.NewProcessor(llm, visionInfo.Path, mediaLogger)

	orchLogger := log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	orch := reasoning.NewOrchestrator(llm, mp, orchLogger, tele)

	var settings store.SettingsStore
	if cfg.Storage.Redis.Addr != "" {
		timeout := cfg.Storage.Redis.Timeout
		if timeout <= 0 {
			timeout = 5 * time.Second
		}
		rdb, err := store.Conn(context.Background(), cfg.Storage.Redis.Addr, cfg.Storage.Redis.Password, cfg.Storage.Redis.DB, timeout)
		if err != nil {
			return fmt.Errorf("redis connect: %w", err)
		}
		settings = store.NewRedisSettingsStore(rdb)
	}

	api := e.Group("/api")
	httpLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	codHandler := &CoDHandler{
		Orch:     orch,
		Store:    settings,
		Defaults: defaultSettings(cfg),
		Logger:   httpLogger,
		Tele:     tele,
	}
	codHandler.Register(api)
	settingsHandler := &SettingsHandler{Store: settings, Defaults: defaultSettings(cfg), Logger: httpLogger}
	settingsHandler.Register(api)

	addr := cfg.Server.Address
	if addr == "" {
		addr = ":8080"
	}
	return e.Start(addr)
}

// newEcho builds the echo instance with the shared middleware stack. Split out
// so handler tests can mount routes against the same error handling.
func newEcho() *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.Use(middleware.Recover())
	baseLogger := log.New(log.Writer(), "[HTTP] ", log.LstdFlags)
	e.HTTPErrorHandler = func(err error, c echo.Context) {
		code := http.StatusInternalServerError
		msg := err.Error()
		if he, ok := err.(*echo.HTTPError); ok {
			code = he.Code
			if he.Message != nil {
				msg = fmt.Sprint(he.Message)
			}
		}
		req := c.Request()
		baseLogger.Printf("%d %s %s from %s: %v", code, req.Method, req.URL.Path, c.RealIP(), err)
		if !c.Response().Committed {
			_ = c.JSON(code, map[string]interface{}{"error": msg})
		}
	}
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		AllowOrigins:     []string{"*"},
		AllowMethods:     []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:     []string{"Content-Type", "Cookie"},
		AllowCredentials: true,
	}))
	return e
}

// defaultSettings projects the static config into the mutable settings record
// used as the baseline when nothing has been persisted yet.
func defaultSettings(cfg *appconfig.Config) store.Settings {
	return store.Settings{
		Reasoning: reasoning.Config{
			ReasoningMethod:      reasoning.ReasoningMethod(cfg.Reasoning.Method),
			CoDWordLimit:         cfg.Reasoning.WordLimit,
			ReasoningEnhancement: reasoning.Enhancement(cfg.Reasoning.Enhancement),
			ReflectionSettings: reasoning.ReflectionSettings{
				EnableSelfVerification:     cfg.Reasoning.EnableSelfVerification,
				EnableErrorDetection:       cfg.Reasoning.EnableErrorDetection,
				EnableAlternativeSearch:    cfg.Reasoning.EnableAlternativeSearch,
				EnableConfidenceAssessment: cfg.Reasoning.EnableConfidenceAssessment,
				VerificationDepth:          reasoning.VerificationDepth(cfg.Reasoning.VerificationDepth),
			},
		},
		Fireworks: store.ModelSettings{
			SamplingParams: provider.SamplingParams{
				Temperature: cfg.Fireworks.Temperature,
				TopP:        cfg.Fireworks.TopP,
				TopK:        cfg.Fireworks.TopK,
				MaxTokens:   cfg.Fireworks.MaxTokens,
			},
			Model: cfg.Fireworks.Model,
		},
	}
}
