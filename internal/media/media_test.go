package media

import (
	"context"
	"encoding/base64"
	"errors"
	"io"
	"log"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/mohammad-safakhou/codraft/internal/provider"
)

type stubVision struct {
	analysis string
	err      error
	lastMsgs []provider.Message
	model    string
}

func (s *stubVision) Generate(ctx context.Context, messages []provider.Message, params provider.SamplingParams, model string) (string, error) {
	s.lastMsgs = messages
	s.model = model
	if s.err != nil {
		return "", s.err
	}
	return s.analysis, nil
}

func (s *stubVision) Stream(ctx context.Context, messages []provider.Message, params provider.SamplingParams, model string, chunks chan<- string) error {
	return errors.New("not used")
}

func newTestProcessor(llm provider.Client) *Processor {
	return NewProcessor(llm, "accounts/fireworks/models/qwen2p5-vl-32b-instruct", log.New(io.Discard, "", 0))
}

func TestProcessImage(t *testing.T) {
	vision := &stubVision{analysis: "a whiteboard covered in equations"}
	p := newTestProcessor(vision)

	out := p.ProcessImage(context.Background(), Input{
		Type: "image", Data: "Zm9v", MimeType: "image/png", Filename: "board.png",
	})
	if out.Failed {
		t.Fatalf("unexpected failure: %+v", out)
	}
	if out.Analysis != "a whiteboard covered in equations" || out.ExtractedText != out.Analysis {
		t.Fatalf("vision output not propagated: %+v", out)
	}
	if len(vision.lastMsgs) != 1 || len(vision.lastMsgs[0].Images) != 1 {
		t.Fatalf("expected single message with one image, got %+v", vision.lastMsgs)
	}
	if got := vision.lastMsgs[0].Images[0]; got != "data:image/png;base64,Zm9v" {
		t.Fatalf("data URL not constructed: %q", got)
	}
	if vision.model != "accounts/fireworks/models/qwen2p5-vl-32b-instruct" {
		t.Fatalf("wrong vision model: %q", vision.model)
	}
}

func TestProcessImageKeepsExistingDataURL(t *testing.T) {
	vision := &stubVision{analysis: "ok"}
	p := newTestProcessor(vision)

	p.ProcessImage(context.Background(), Input{Type: "image", Data: "data:image/jpeg;base64,AAAA", MimeType: "image/jpeg"})
	if got := vision.lastMsgs[0].Images[0]; got != "data:image/jpeg;base64,AAAA" {
		t.Fatalf("existing data URL mangled: %q", got)
	}
}

func TestProcessImageDegradesOnVisionError(t *testing.T) {
	p := newTestProcessor(&stubVision{err: errors.New("vision down")})

	out := p.ProcessImage(context.Background(), Input{Type: "image", Data: "Zm9v", MimeType: "image/png", Filename: "chart.png"})
	if out.Failed {
		t.Fatalf("degraded image must not be marked failed")
	}
	if out.Analysis != "Vision analysis temporarily unavailable. Image uploaded but not analyzed." {
		t.Fatalf("unexpected degraded analysis: %q", out.Analysis)
	}
	if out.ExtractedText != "[Image: chart.png]" {
		t.Fatalf("unexpected placeholder: %q", out.ExtractedText)
	}
}

func TestProcessFileText(t *testing.T) {
	p := newTestProcessor(&stubVision{})

	data := base64.StdEncoding.EncodeToString([]byte("hello notes"))
	out := p.ProcessFile(context.Background(), Input{Type: "file", Data: data, MimeType: "text/plain", Filename: "notes.txt"})
	if out.ExtractedText != "hello notes" {
		t.Fatalf("text not extracted: %q", out.ExtractedText)
	}
}

func TestProcessFileJSON(t *testing.T) {
	p := newTestProcessor(&stubVision{})

	data := base64.StdEncoding.EncodeToString([]byte(`{"b":2,"a":1}`))
	out := p.ProcessFile(context.Background(), Input{Type: "file", Data: data, MimeType: "application/json"})
	if !strings.Contains(out.ExtractedText, "\n  \"a\": 1") {
		t.Fatalf("JSON not pretty-printed: %q", out.ExtractedText)
	}

	bad := base64.StdEncoding.EncodeToString([]byte(`{not json`))
	out = p.ProcessFile(context.Background(), Input{Type: "file", Data: bad, MimeType: "application/json"})
	if out.Analysis != "Error parsing JSON file" {
		t.Fatalf("malformed JSON should degrade: %+v", out)
	}
	if out.Failed {
		t.Fatalf("malformed JSON is degraded, not failed")
	}
}

func TestProcessAllKeepsOrderAndDegradesUnknown(t *testing.T) {
	p := newTestProcessor(&stubVision{analysis: "pic"})

	inputs := []Input{
		{Type: "file", Data: base64.StdEncoding.EncodeToString([]byte("one")), MimeType: "text/plain"},
		{Type: "hologram", Filename: "ghost"},
		{Type: "audio", MimeType: "audio/wav"},
	}
	out := p.ProcessAll(context.Background(), inputs)
	if len(out) != 3 {
		t.Fatalf("expected one record per input, got %d", len(out))
	}
	if out[0].ExtractedText != "one" {
		t.Fatalf("first record wrong: %+v", out[0])
	}
	if !out[1].Failed {
		t.Fatalf("unknown type must be a failure record")
	}
	if out[1].Analysis != "Processing failed: unsupported media type: hologram" {
		t.Fatalf("unexpected failure analysis: %q", out[1].Analysis)
	}
	if out[2].Failed || out[2].Metadata.Type != "audio" {
		t.Fatalf("audio after a failure should still process: %+v", out[2])
	}
}

func TestBuildContext(t *testing.T) {
	processed := []Processed{
		{
			Description:   "File: notes.txt (text/plain)",
			Metadata:      Metadata{Type: "file", Format: "text/plain"},
			ExtractedText: strings.Repeat("x", 600),
			Analysis:      "Text content extracted and ready for Chain of Draft analysis",
		},
	}
	got := BuildContext("original question", processed)
	if !strings.Contains(got, "=== MULTIMEDIA CONTEXT ===") || !strings.Contains(got, "=== END MULTIMEDIA CONTEXT ===") {
		t.Fatalf("context block markers missing:\n%s", got)
	}
	if !strings.HasSuffix(got, "original question") {
		t.Fatalf("original prompt must close the message")
	}
	if !strings.Contains(got, strings.Repeat("x", 500)+"...") {
		t.Fatalf("long excerpt not truncated")
	}
	if strings.Contains(got, strings.Repeat("x", 501)) {
		t.Fatalf("excerpt exceeds limit")
	}
}

func TestBuildContextTruncatesOnRuneBoundary(t *testing.T) {
	// 3-byte runes so the byte limit lands mid-sequence.
	processed := []Processed{
		{
			Description:   "File: notes.txt (text/plain)",
			Metadata:      Metadata{Type: "file", Format: "text/plain"},
			ExtractedText: strings.Repeat("世", 200),
		},
	}
	got := BuildContext("question", processed)
	if !utf8.ValidString(got) {
		t.Fatalf("truncation split a multi-byte rune")
	}
	if !strings.Contains(got, "...") {
		t.Fatalf("long excerpt not truncated")
	}
}

func TestBuildContextNoMedia(t *testing.T) {
	if got := BuildContext("plain", nil); got != "plain" {
		t.Fatalf("prompt should pass through unchanged, got %q", got)
	}
}
