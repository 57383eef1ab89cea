package server

import (
	"context"
	"encoding/json"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/mohammad-safakhou/codraft/internal/media"
	"github.com/mohammad-safakhou/codraft/internal/provider"
	"github.com/mohammad-safakhou/codraft/internal/reasoning"
	"github.com/mohammad-safakhou/codraft/internal/store"
	"github.com/mohammad-safakhou/codraft/internal/telemetry"
)

// Runner is the orchestrator surface the handler depends on.
type Runner interface {
	Run(ctx context.Context, req reasoning.Request) (*reasoning.SessionResult, error)
	RunStream(ctx context.Context, req reasoning.Request, onStage1 func(reasoning.StageResult), onChunk func(string)) (*reasoning.SessionResult, error)
}

// CoDHandler serves the Chain of Draft endpoints.
type CoDHandler struct {
	Orch     Runner
	Store    store.SettingsStore // nil when persistence is disabled
	Defaults store.Settings
	Logger   *log.Logger
	Tele     *telemetry.Telemetry
}

func (h *CoDHandler) Register(g *echo.Group) {
	g.POST("/cod", h.handleCoD)
	g.GET("/cod/complexity", h.handleComplexity)
}

// codRequest is the request body for POST /api/cod. The two config blocks
// are partial overlays on top of the persisted settings.
type codRequest struct {
	Message             string             `json:"message"`
	ConversationHistory []provider.Message `json:"conversationHistory"`
	EnableStreaming     bool               `json:"enableStreaming"`
	CoDConfig           *codConfigPatch    `json:"codConfig"`
	FireworksConfig     *fireworksPatch    `json:"fireworksConfig"`
	MediaInputs         []media.Input      `json:"mediaInputs"`
}

type codConfigPatch struct {
	ReasoningMethod      *reasoning.ReasoningMethod `json:"reasoningMethod"`
	CoDWordLimit         *int                       `json:"codWordLimit"`
	ReasoningEnhancement *reasoning.Enhancement     `json:"reasoningEnhancement"`
	ReflectionSettings   *reflectionPatch           `json:"reflectionSettings"`
}

type reflectionPatch struct {
	EnableSelfVerification     *bool                        `json:"enableSelfVerification"`
	EnableErrorDetection       *bool                        `json:"enableErrorDetection"`
	EnableAlternativeSearch    *bool                        `json:"enableAlternativeSearch"`
	EnableConfidenceAssessment *bool                        `json:"enableConfidenceAssessment"`
	VerificationDepth          *reasoning.VerificationDepth `json:"verificationDepth"`
}

type fireworksPatch struct {
	Model       *string  `json:"model"`
	Temperature *float64 `json:"temperature"`
	TopP        *float64 `json:"topP"`
	TopK        *int     `json:"topK"`
	MaxTokens   *int     `json:"maxTokens"`
}

// stagePayload is a stage result enriched with its formatted sections.
type stagePayload struct {
	Content   string              `json:"content"`
	WordLimit int                 `json:"wordLimit,omitempty"`
	Timestamp time.Time           `json:"timestamp"`
	Sections  []reasoning.Section `json:"sections"`
}

type codData struct {
	Stage1           stagePayload                 `json:"stage1"`
	Stage2           *stagePayload                `json:"stage2,omitempty"`
	Complexity       *reasoning.ComplexityProfile `json:"complexity,omitempty"`
	ProcessingTime   int64                        `json:"processingTime"`
	AdaptiveSettings reasoning.EffectiveSettings  `json:"adaptiveSettings"`
}

type codResponse struct {
	Success bool    `json:"success"`
	Data    codData `json:"data"`
}

func (h *CoDHandler) handleCoD(c echo.Context) error {
	var req codRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid request body")
	}
	if strings.TrimSpace(req.Message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}

	ctx := c.Request().Context()
	base, err := h.baseSettings(ctx)
	if err != nil {
		return echo.NewHTTPError(http.StatusInternalServerError, err.Error())
	}
	merged := applyPatches(base, req.CoDConfig, req.FireworksConfig)
	if err := validateSettings(merged); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	run := reasoning.Request{
		Message:  req.Message,
		History:  req.ConversationHistory,
		Config:   merged.Reasoning,
		Sampling: merged.Fireworks.SamplingParams,
		Model:    merged.Fireworks.Model,
		Media:    req.MediaInputs,
	}

	if req.EnableStreaming {
		return h.streamCoD(c, run)
	}

	started := time.Now()
	result, err := h.Orch.Run(ctx, run)
	if h.Tele != nil {
		h.Tele.RecordRequest("batch", err == nil, time.Since(started))
	}
	if err != nil {
		return echo.NewHTTPError(http.StatusBadGateway, err.Error())
	}
	return c.JSON(http.StatusOK, codResponse{Success: true, Data: buildData(result)})
}

// streamCoD replays the run over Server-Sent Events. After the stream has
// started all failures surface as an error event, never an HTTP status.
func (h *CoDHandler) streamCoD(c echo.Context, run reasoning.Request) error {
	resp := c.Response()
	resp.Header().Set(echo.HeaderContentType, "text/event-stream")
	resp.Header().Set(echo.HeaderCacheControl, "no-cache")
	resp.Header().Set("Connection", "keep-alive")
	resp.WriteHeader(http.StatusOK)
	flusher, ok := resp.Writer.(http.Flusher)
	if !ok {
		return echo.NewHTTPError(http.StatusServiceUnavailable, "streaming unsupported")
	}

	// Events carry their type inside the JSON payload, not in an SSE
	// event field: data: {"type":"stage2_chunk","data":{...}}.
	send := func(event string, payload interface{}) {
		data, err := json.Marshal(map[string]interface{}{"type": event, "data": payload})
		if err != nil {
			h.Logger.Printf("sse marshal failed: %v", err)
			return
		}
		if _, err := resp.Write([]byte("data: " + string(data) + "\n\n")); err != nil {
			return
		}
		flusher.Flush()
	}

	started := time.Now()
	ctx := c.Request().Context()
	result, err := h.Orch.RunStream(ctx, run,
		func(stage1 reasoning.StageResult) {
			send("stage1_complete", map[string]interface{}{
				"content":    stage1.Content,
				"wordLimit":  stage1.WordLimit,
				"complexity": stage1.Complexity,
				"sections":   reasoning.FormatStage(1, stage1.Content),
			})
		},
		func(chunk string) {
			send("stage2_chunk", map[string]string{"chunk": chunk})
		})
	if h.Tele != nil {
		h.Tele.RecordRequest("stream", err == nil, time.Since(started))
	}
	if err != nil {
		h.Logger.Printf("stream run failed: %v", err)
		send("error", map[string]string{"error": err.Error()})
		return nil
	}
	send("complete", buildData(result))
	return nil
}

func (h *CoDHandler) handleComplexity(c echo.Context) error {
	message := c.QueryParam("message")
	if strings.TrimSpace(message) == "" {
		return echo.NewHTTPError(http.StatusBadRequest, "message is required")
	}
	profile := reasoning.AnalyzeComplexity(message)
	if h.Tele != nil {
		h.Tele.RecordComplexity(string(profile.Level))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{"success": true, "data": profile})
}

// baseSettings returns the persisted settings, falling back to the static
// defaults when nothing is stored or the store is disabled.
func (h *CoDHandler) baseSettings(ctx context.Context) (store.Settings, error) {
	if h.Store == nil {
		return h.Defaults, nil
	}
	stored, found, err := h.Store.Get(ctx)
	if err != nil {
		return store.Settings{}, err
	}
	if !found {
		return h.Defaults, nil
	}
	return stored, nil
}

func applyPatches(base store.Settings, cod *codConfigPatch, fw *fireworksPatch) store.Settings {
	if cod != nil {
		if cod.ReasoningMethod != nil {
			base.Reasoning.ReasoningMethod = *cod.ReasoningMethod
		}
		if cod.CoDWordLimit != nil {
			base.Reasoning.CoDWordLimit = *cod.CoDWordLimit
		}
		if cod.ReasoningEnhancement != nil {
			base.Reasoning.ReasoningEnhancement = *cod.ReasoningEnhancement
		}
		if rp := cod.ReflectionSettings; rp != nil {
			if rp.EnableSelfVerification != nil {
				base.Reasoning.ReflectionSettings.EnableSelfVerification = *rp.EnableSelfVerification
			}
			if rp.EnableErrorDetection != nil {
				base.Reasoning.ReflectionSettings.EnableErrorDetection = *rp.EnableErrorDetection
			}
			if rp.EnableAlternativeSearch != nil {
				base.Reasoning.ReflectionSettings.EnableAlternativeSearch = *rp.EnableAlternativeSearch
			}
			if rp.EnableConfidenceAssessment != nil {
				base.Reasoning.ReflectionSettings.EnableConfidenceAssessment = *rp.EnableConfidenceAssessment
			}
			if rp.VerificationDepth != nil {
				base.Reasoning.ReflectionSettings.VerificationDepth = *rp.VerificationDepth
			}
		}
	}
	if fw != nil {
		if fw.Model != nil {
			base.Fireworks.Model = *fw.Model
		}
		if fw.Temperature != nil {
			base.Fireworks.Temperature = *fw.Temperature
		}
		if fw.TopP != nil {
			base.Fireworks.TopP = *fw.TopP
		}
		if fw.TopK != nil {
			base.Fireworks.TopK = *fw.TopK
		}
		if fw.MaxTokens != nil {
			base.Fireworks.MaxTokens = *fw.MaxTokens
		}
	}
	return base
}

func buildData(result *reasoning.SessionResult) codData {
	// Stage 1 always carries the analyzed profile; the settings copy is
	// only present in adaptive mode.
	complexity := result.Settings.Complexity
	if complexity == nil {
		complexity = result.Stage1.Complexity
	}
	data := codData{
		Stage1: stagePayload{
			Content:   result.Stage1.Content,
			WordLimit: result.Stage1.WordLimit,
			Timestamp: result.Stage1.Timestamp,
			Sections:  reasoning.FormatStage(1, result.Stage1.Content),
		},
		Complexity:       complexity,
		ProcessingTime:   result.TotalTimeMS,
		AdaptiveSettings: result.Settings,
	}
	if result.Stage2 != nil {
		data.Stage2 = &stagePayload{
			Content:   result.Stage2.Content,
			Timestamp: result.Stage2.Timestamp,
			Sections:  reasoning.FormatStage(2, result.Stage2.Content),
		}
	}
	return data
}
