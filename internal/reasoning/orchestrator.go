package reasoning

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/mohammad-safakhou/codraft/internal/media"
	"github.com/mohammad-safakhou/codraft/internal/provider"
	"github.com/mohammad-safakhou/codraft/internal/telemetry"
)

// StageResult is the materialized output of one model call.
type StageResult struct {
	Stage      int                `json:"stage"`
	Content    string             `json:"content"`
	WordLimit  int                `json:"wordLimit,omitempty"`
	Complexity *ComplexityProfile `json:"complexity,omitempty"`
	Timestamp  time.Time          `json:"timestamp"`
}

// SessionResult aggregates both stages of one request.
type SessionResult struct {
	Stage1      StageResult       `json:"stage1"`
	Stage2      *StageResult      `json:"stage2,omitempty"`
	TotalTimeMS int64             `json:"totalTime,omitempty"`
	Settings    EffectiveSettings `json:"settings"`
}

// Request carries everything the orchestrator needs for one run. History
// entries are passed through to the model unchanged.
type Request struct {
	Message  string
	History  []provider.Message
	Config   Config
	Sampling provider.SamplingParams
	Model    string
	Media    []media.Input
}

// Orchestrator sequences the two Chain of Draft stages against the model
// provider. It holds no per-request state; concurrent runs need no
// coordination.
type Orchestrator struct {
	llm    provider.Client
	media  *media.Processor
	logger *log.Logger
	tele   *telemetry.Telemetry
}

// NewOrchestrator creates an orchestrator. The media processor may be nil
// when the caller never supplies media inputs.
func NewOrchestrator(llm provider.Client, mp *media.Processor, logger *log.Logger, tele *telemetry.Telemetry) *Orchestrator {
	if logger == nil {
		logger = log.New(log.Writer(), "[ORCH] ", log.LstdFlags)
	}
	return &Orchestrator{llm: llm, media: mp, logger: logger, tele: tele}
}

// Run executes both stages in batch mode. Stage 2 never starts before
// stage 1 has fully completed.
func (o *Orchestrator) Run(ctx context.Context, req Request) (*SessionResult, error) {
	start := time.Now()
	runID := uuid.NewString()

	enhanced, settings, modelPath, err := o.prepare(ctx, runID, req)
	if err != nil {
		return nil, err
	}

	stage1, err := o.runStage1(ctx, runID, enhanced, req, settings, modelPath)
	if err != nil {
		return nil, err
	}

	stage2, err := o.runStage2(ctx, runID, enhanced, stage1.Content, req, modelPath)
	if err != nil {
		return nil, err
	}

	return &SessionResult{
		Stage1:      stage1,
		Stage2:      &stage2,
		TotalTimeMS: time.Since(start).Milliseconds(),
		Settings:    settings,
	}, nil
}

// RunStream executes stage 1 in batch mode, then streams stage 2. onStage1
// fires once stage 1 is materialized; onChunk fires for every stage 2
// fragment in arrival order. Either callback may be nil.
func (o *Orchestrator) RunStream(ctx context.Context, req Request, onStage1 func(StageResult), onChunk func(string)) (*SessionResult, error) {
	runID := uuid.NewString()

	enhanced, settings, modelPath, err := o.prepare(ctx, runID, req)
	if err != nil {
		return nil, err
	}

	stage1, err := o.runStage1(ctx, runID, enhanced, req, settings, modelPath)
	if err != nil {
		return nil, err
	}
	if onStage1 != nil {
		onStage1(stage1)
	}

	messages := stage2Messages(enhanced, stage1.Content, req.History)

	stageStart := time.Now()
	chunks := make(chan string)
	errc := make(chan error, 1)
	go func() {
		errc <- o.llm.Stream(ctx, messages, req.Sampling, modelPath, chunks)
		close(chunks)
	}()

	var content string
	for chunk := range chunks {
		content += chunk
		if onChunk != nil {
			onChunk(chunk)
		}
	}
	if err := <-errc; err != nil {
		o.tele.RecordStage("2", false, time.Since(stageStart))
		return nil, fmt.Errorf("stage 2 verification failed: %w", err)
	}
	o.tele.RecordStage("2", true, time.Since(stageStart))
	o.logger.Printf("[%s] stage 2 stream complete (%d bytes)", runID, len(content))

	stage2 := StageResult{Stage: 2, Content: content, Timestamp: time.Now().UTC()}
	return &SessionResult{Stage1: stage1, Stage2: &stage2, Settings: settings}, nil
}

// prepare resolves effective settings, processes media and returns the
// enhanced user message plus the full model path.
func (o *Orchestrator) prepare(ctx context.Context, runID string, req Request) (string, EffectiveSettings, string, error) {
	model := req.Model
	if model == "" {
		model = provider.DefaultModel
	}
	info, err := provider.Lookup(model)
	if err != nil {
		return "", EffectiveSettings{}, "", err
	}

	settings := ResolveSettings(req.Message, req.Config)
	if settings.Adapted {
		o.logger.Printf("[%s] adaptive settings: wordLimit=%d depth=%s", runID, settings.WordLimit, settings.VerificationDepth)
	}

	enhanced := req.Message
	if len(req.Media) > 0 && o.media != nil {
		processed := o.media.ProcessAll(ctx, req.Media)
		for i, p := range processed {
			o.tele.RecordMedia(p.Metadata.Type, !p.Failed)
			if p.Failed {
				o.logger.Printf("[%s] media input %d degraded: %s", runID, i+1, p.Analysis)
			}
		}
		enhanced = media.BuildContext(req.Message, processed)
	}

	return enhanced, settings, info.Path, nil
}

func (o *Orchestrator) runStage1(ctx context.Context, runID, userMessage string, req Request, settings EffectiveSettings, modelPath string) (StageResult, error) {
	messages := stage1Messages(userMessage, settings.WordLimit, req.History)

	stageStart := time.Now()
	content, err := o.llm.Generate(ctx, messages, req.Sampling, modelPath)
	if err != nil {
		o.tele.RecordStage("1", false, time.Since(stageStart))
		return StageResult{}, fmt.Errorf("stage 1 analysis failed: %w", err)
	}
	o.tele.RecordStage("1", true, time.Since(stageStart))
	o.logger.Printf("[%s] stage 1 complete in %v", runID, time.Since(stageStart))

	complexity := AnalyzeComplexity(userMessage)
	o.tele.RecordComplexity(string(complexity.Level))

	return StageResult{
		Stage:      1,
		Content:    content,
		WordLimit:  settings.WordLimit,
		Complexity: &complexity,
		Timestamp:  time.Now().UTC(),
	}, nil
}

func (o *Orchestrator) runStage2(ctx context.Context, runID, userMessage, stage1Content string, req Request, modelPath string) (StageResult, error) {
	messages := stage2Messages(userMessage, stage1Content, req.History)

	stageStart := time.Now()
	content, err := o.llm.Generate(ctx, messages, req.Sampling, modelPath)
	if err != nil {
		o.tele.RecordStage("2", false, time.Since(stageStart))
		return StageResult{}, fmt.Errorf("stage 2 verification failed: %w", err)
	}
	o.tele.RecordStage("2", true, time.Since(stageStart))
	o.logger.Printf("[%s] stage 2 complete in %v", runID, time.Since(stageStart))

	return StageResult{Stage: 2, Content: content, Timestamp: time.Now().UTC()}, nil
}

func stage1Messages(userMessage string, wordLimit int, history []provider.Message) []provider.Message {
	messages := make([]provider.Message, 0, len(history)+2)
	messages = append(messages, provider.Message{Role: "system", Content: Stage1Prompt(wordLimit)})
	messages = append(messages, history...)
	messages = append(messages, provider.Message{Role: "user", Content: userMessage})
	return messages
}

// stage2Messages reconstructs the conversation so stage 1's output appears
// as the assistant's own prior turn. Folding it into the user turn would
// stop the model from treating it as reasoning to critique.
func stage2Messages(userMessage, stage1Content string, history []provider.Message) []provider.Message {
	messages := make([]provider.Message, 0, len(history)+4)
	messages = append(messages, provider.Message{Role: "system", Content: Stage2Prompt()})
	messages = append(messages, history...)
	messages = append(messages, provider.Message{Role: "user", Content: userMessage})
	messages = append(messages, provider.Message{Role: "assistant", Content: stage1Content})
	messages = append(messages, provider.Message{Role: "user", Content: Stage2ProceedInstruction})
	return messages
}
