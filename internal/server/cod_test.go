package server

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/mohammad-safakhou/codraft/internal/provider"
	"github.com/mohammad-safakhou/codraft/internal/reasoning"
	"github.com/mohammad-safakhou/codraft/internal/store"
)

type stubRunner struct {
	lastReq reasoning.Request
	result  *reasoning.SessionResult
	chunks  []string
	err     error
}

func (s *stubRunner) Run(ctx context.Context, req reasoning.Request) (*reasoning.SessionResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	return s.result, nil
}

func (s *stubRunner) RunStream(ctx context.Context, req reasoning.Request, onStage1 func(reasoning.StageResult), onChunk func(string)) (*reasoning.SessionResult, error) {
	s.lastReq = req
	if s.err != nil {
		return nil, s.err
	}
	onStage1(s.result.Stage1)
	for _, chunk := range s.chunks {
		onChunk(chunk)
	}
	return s.result, nil
}

type stubSettingsStore struct {
	settings store.Settings
	found    bool
	updated  *store.Settings
}

func (s *stubSettingsStore) Get(ctx context.Context) (store.Settings, bool, error) {
	return s.settings, s.found, nil
}

func (s *stubSettingsStore) Update(ctx context.Context, settings store.Settings) error {
	s.updated = &settings
	return nil
}

func testDefaults() store.Settings {
	return store.Settings{
		Reasoning: reasoning.DefaultConfig(),
		Fireworks: store.ModelSettings{
			SamplingParams: provider.SamplingParams{Temperature: 0.3, TopP: 0.9, TopK: 40, MaxTokens: 8192},
			Model:          "deepseek-v3-0324",
		},
	}
}

func sessionFixture() *reasoning.SessionResult {
	stage1 := "intro\n#### PROBLEM ANALYSIS\nthe problem\n#### CHAIN OF DRAFT STEPS\nstep one\n#### INITIAL REFLECTION\nlooks fine\n#### DRAFT SOLUTION\nforty two"
	stage2 := "#### STAGE 2 VERIFICATION\nchecked\n#### FINAL COMPREHENSIVE ANSWER\n42"
	complexity := reasoning.AnalyzeComplexity("What is 2+2?")
	return &reasoning.SessionResult{
		Stage1:      reasoning.StageResult{Stage: 1, Content: stage1, WordLimit: 5, Complexity: &complexity, Timestamp: time.Now()},
		Stage2:      &reasoning.StageResult{Stage: 2, Content: stage2, Timestamp: time.Now()},
		TotalTimeMS: 120,
		Settings:    reasoning.EffectiveSettings{Method: reasoning.MethodEnhancedCoD, WordLimit: 5, VerificationDepth: reasoning.VerificationStandard},
	}
}

func newCoDServer(runner Runner, st store.SettingsStore) *httptest.Server {
	e := newEcho()
	h := &CoDHandler{Orch: runner, Store: st, Defaults: testDefaults(), Logger: testLogger()}
	h.Register(e.Group("/api"))
	return httptest.NewServer(e)
}

func TestCoDRejectsBlankMessage(t *testing.T) {
	srv := newCoDServer(&stubRunner{result: sessionFixture()}, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(`{"message":"   "}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("expected 400, got %d", resp.StatusCode)
	}
}

func TestCoDBatchResponse(t *testing.T) {
	runner := &stubRunner{result: sessionFixture()}
	srv := newCoDServer(runner, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(`{"message":"What is 2+2?"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body codResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if !body.Success {
		t.Fatalf("expected success=true")
	}
	if len(body.Data.Stage1.Sections) != 4 {
		t.Fatalf("expected 4 stage1 sections, got %d", len(body.Data.Stage1.Sections))
	}
	if body.Data.Stage1.Sections[0].Key != "problem_analysis" {
		t.Fatalf("unexpected first section key %q", body.Data.Stage1.Sections[0].Key)
	}
	if body.Data.Stage2 == nil || len(body.Data.Stage2.Sections) != 2 {
		t.Fatalf("expected 2 stage2 sections, got %+v", body.Data.Stage2)
	}
	if body.Data.ProcessingTime != 120 {
		t.Fatalf("expected processingTime 120, got %d", body.Data.ProcessingTime)
	}
}

// The profile must be present even in the default fixed mode, where the
// resolver attaches no complexity to the effective settings.
func TestCoDBatchResponseCarriesComplexity(t *testing.T) {
	runner := &stubRunner{result: sessionFixture()}
	srv := newCoDServer(runner, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(`{"message":"What is 2+2?"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	var body codResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if runner.lastReq.Config.ReasoningEnhancement != reasoning.EnhancementFixed {
		t.Fatalf("test premise broken: expected fixed mode, got %s", runner.lastReq.Config.ReasoningEnhancement)
	}
	if body.Data.Complexity == nil {
		t.Fatalf("batch response missing the computed complexity profile")
	}
	if body.Data.Complexity.Level != reasoning.LevelModerate {
		t.Fatalf("unexpected complexity level %s", body.Data.Complexity.Level)
	}
}

func TestCoDAppliesRequestOverrides(t *testing.T) {
	runner := &stubRunner{result: sessionFixture()}
	srv := newCoDServer(runner, nil)
	defer srv.Close()

	payload := `{"message":"hi","codConfig":{"codWordLimit":12,"reasoningEnhancement":"adaptive"},"fireworksConfig":{"temperature":0.7,"maxTokens":2048}}`
	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(payload))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	if runner.lastReq.Config.CoDWordLimit != 12 {
		t.Fatalf("word limit override not applied: %d", runner.lastReq.Config.CoDWordLimit)
	}
	if runner.lastReq.Config.ReasoningEnhancement != reasoning.EnhancementAdaptive {
		t.Fatalf("enhancement override not applied: %s", runner.lastReq.Config.ReasoningEnhancement)
	}
	if runner.lastReq.Sampling.Temperature != 0.7 {
		t.Fatalf("temperature override not applied: %v", runner.lastReq.Sampling.Temperature)
	}
	if runner.lastReq.Sampling.MaxTokens != 2048 {
		t.Fatalf("max tokens override not applied: %d", runner.lastReq.Sampling.MaxTokens)
	}
	// Untouched fields keep the defaults.
	if runner.lastReq.Config.ReasoningMethod != reasoning.MethodEnhancedCoD {
		t.Fatalf("method should keep default, got %s", runner.lastReq.Config.ReasoningMethod)
	}
}

func TestCoDUsesStoredSettings(t *testing.T) {
	runner := &stubRunner{result: sessionFixture()}
	stored := testDefaults()
	stored.Reasoning.CoDWordLimit = 9
	srv := newCoDServer(runner, &stubSettingsStore{settings: stored, found: true})
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(`{"message":"hi"}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	resp.Body.Close()
	if runner.lastReq.Config.CoDWordLimit != 9 {
		t.Fatalf("stored settings not used: %d", runner.lastReq.Config.CoDWordLimit)
	}
}

type sseEvent struct {
	name string
	data json.RawMessage
}

// parseSSE decodes the data-only framing: every event is one
// data: {"type":...,"data":...} line.
func parseSSE(t *testing.T, body string) []sseEvent {
	t.Helper()
	var events []sseEvent
	for _, block := range strings.Split(body, "\n\n") {
		for _, line := range strings.Split(block, "\n") {
			if !strings.HasPrefix(line, "data: ") {
				continue
			}
			var envelope struct {
				Type string          `json:"type"`
				Data json.RawMessage `json:"data"`
			}
			if err := json.Unmarshal([]byte(strings.TrimPrefix(line, "data: ")), &envelope); err != nil {
				t.Fatalf("bad event payload %q: %v", line, err)
			}
			events = append(events, sseEvent{name: envelope.Type, data: envelope.Data})
		}
	}
	return events
}

func TestCoDStreamEvents(t *testing.T) {
	runner := &stubRunner{result: sessionFixture(), chunks: []string{"Hello", " ", "World"}}
	srv := newCoDServer(runner, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(`{"message":"hi","enableStreaming":true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	if got := resp.Header.Get("Content-Type"); got != "text/event-stream" {
		t.Fatalf("unexpected content type %q", got)
	}
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	if strings.Contains(buf.String(), "event: ") {
		t.Fatalf("event names must live inside the JSON payload, not an SSE event field")
	}
	events := parseSSE(t, buf.String())

	var names []string
	var chunks []string
	for _, ev := range events {
		names = append(names, ev.name)
		if ev.name == "stage2_chunk" {
			var payload map[string]string
			if err := json.Unmarshal(ev.data, &payload); err != nil {
				t.Fatalf("chunk payload: %v", err)
			}
			chunks = append(chunks, payload["chunk"])
		}
	}
	if len(names) < 3 {
		t.Fatalf("too few events: %v", names)
	}
	if names[0] != "stage1_complete" {
		t.Fatalf("first event should be stage1_complete, got %v", names)
	}
	if names[len(names)-1] != "complete" {
		t.Fatalf("last event should be complete, got %v", names)
	}
	if strings.Join(chunks, "") != "Hello World" {
		t.Fatalf("chunks out of order: %q", chunks)
	}
	terminal := 0
	for _, name := range names {
		if name == "complete" || name == "error" {
			terminal++
		}
	}
	if terminal != 1 {
		t.Fatalf("expected exactly one terminal event, got %d (%v)", terminal, names)
	}

	var final codData
	if err := json.Unmarshal(events[len(events)-1].data, &final); err != nil {
		t.Fatalf("complete payload: %v", err)
	}
	if final.Complexity == nil {
		t.Fatalf("complete event missing the computed complexity profile")
	}
}

func TestCoDStreamErrorEvent(t *testing.T) {
	runner := &stubRunner{err: errStub}
	srv := newCoDServer(runner, nil)
	defer srv.Close()

	resp, err := http.Post(srv.URL+"/api/cod", "application/json", strings.NewReader(`{"message":"hi","enableStreaming":true}`))
	if err != nil {
		t.Fatalf("post: %v", err)
	}
	defer resp.Body.Close()
	buf := new(strings.Builder)
	if _, err := io.Copy(buf, resp.Body); err != nil {
		t.Fatalf("read body: %v", err)
	}
	events := parseSSE(t, buf.String())
	if len(events) != 1 || events[0].name != "error" {
		t.Fatalf("expected a single error event, got %+v", events)
	}
}

func TestComplexityPreview(t *testing.T) {
	srv := newCoDServer(&stubRunner{result: sessionFixture()}, nil)
	defer srv.Close()

	resp, err := http.Get(srv.URL + "/api/cod/complexity?message=" + "What+is+2%2B2%3F")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var body struct {
		Success bool                        `json:"success"`
		Data    reasoning.ComplexityProfile `json:"data"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Level != reasoning.LevelModerate {
		t.Fatalf("expected moderate, got %s", body.Data.Level)
	}

	resp2, err := http.Get(srv.URL + "/api/cod/complexity")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	resp2.Body.Close()
	if resp2.StatusCode != http.StatusBadRequest {
		t.Fatalf("blank message should be 400, got %d", resp2.StatusCode)
	}
}
