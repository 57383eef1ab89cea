// Package media converts auxiliary request inputs (images, audio, files)
// into textual context for the reasoning pipeline. Every conversion is
// best-effort: a failed input degrades to a placeholder record instead of
// surfacing an error.
package media

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"log"
	"strings"
	"unicode/utf8"

	"github.com/mohammad-safakhou/codraft/internal/provider"
)

// Input is one caller-supplied media attachment. Data is base64-encoded
// payload (images may also be a full data URL).
type Input struct {
	Type     string `json:"type"` // image, audio or file
	Data     string `json:"data"`
	MimeType string `json:"mimeType"`
	Filename string `json:"filename,omitempty"`
	Size     int64  `json:"size,omitempty"`
}

// Metadata echoes an input's identity alongside its processed form.
type Metadata struct {
	Type   string `json:"type"`
	Format string `json:"format"`
	Size   int64  `json:"size,omitempty"`
}

// Processed is the outcome of converting one input. Failed records are
// still structurally valid and carry a human-readable explanation in
// Analysis.
type Processed struct {
	Description   string   `json:"description"`
	Metadata      Metadata `json:"metadata"`
	ExtractedText string   `json:"extractedText,omitempty"`
	Analysis      string   `json:"analysis,omitempty"`
	Failed        bool     `json:"failed,omitempty"`
}

const imageAnalysisInstruction = "Analyze this image in detail. Describe what you see, including objects, people, text, colors, composition, and any relevant details that would be useful for further reasoning or analysis."

// Processor converts media inputs, using a vision-capable model for images.
type Processor struct {
	llm         provider.Client
	visionModel string
	logger      *log.Logger
}

// NewProcessor creates a media processor. visionModel is the full model
// path used for image analysis.
func NewProcessor(llm provider.Client, visionModel string, logger *log.Logger) *Processor {
	if logger == nil {
		logger = log.New(log.Writer(), "[MEDIA] ", log.LstdFlags)
	}
	return &Processor{llm: llm, visionModel: visionModel, logger: logger}
}

func displayName(in Input) string {
	if in.Filename != "" {
		return in.Filename
	}
	return "untitled"
}

// ProcessImage describes an image via the vision model. A failed model call
// yields a degraded record, never an error.
func (p *Processor) ProcessImage(ctx context.Context, in Input) Processed {
	out := Processed{
		Description: fmt.Sprintf("Image file: %s (%s)", displayName(in), in.MimeType),
		Metadata:    Metadata{Type: "image", Format: in.MimeType, Size: in.Size},
	}

	imageURL := in.Data
	if !strings.HasPrefix(imageURL, "data:") {
		imageURL = fmt.Sprintf("data:%s;base64,%s", in.MimeType, in.Data)
	}

	messages := []provider.Message{{
		Role:    "user",
		Content: imageAnalysisInstruction,
		Images:  []string{imageURL},
	}}
	analysis, err := p.llm.Generate(ctx, messages, provider.SamplingParams{Temperature: 0.3, MaxTokens: 1000}, p.visionModel)
	if err != nil {
		p.logger.Printf("vision analysis failed for %s: %v", displayName(in), err)
		out.Analysis = "Vision analysis temporarily unavailable. Image uploaded but not analyzed."
		out.ExtractedText = fmt.Sprintf("[Image: %s]", displayName(in))
		return out
	}

	// The vision output doubles as the image's extracted content.
	out.Analysis = analysis
	out.ExtractedText = analysis
	return out
}

// ProcessAudio returns a placeholder record; transcription is not
// implemented.
func (p *Processor) ProcessAudio(_ context.Context, in Input) Processed {
	return Processed{
		Description:   fmt.Sprintf("Audio file: %s (%s)", displayName(in), in.MimeType),
		Metadata:      Metadata{Type: "audio", Format: in.MimeType, Size: in.Size},
		ExtractedText: "Audio transcription would be performed here",
		Analysis:      "Audio analysis including speech recognition and sound classification",
	}
}

// ProcessFile extracts textual content from a file by MIME type. Malformed
// payloads produce an explanatory analysis string rather than an error.
func (p *Processor) ProcessFile(_ context.Context, in Input) Processed {
	out := Processed{
		Description: fmt.Sprintf("File: %s (%s)", displayName(in), in.MimeType),
		Metadata:    Metadata{Type: "file", Format: in.MimeType, Size: in.Size},
	}

	switch {
	case strings.Contains(in.MimeType, "text/"):
		decoded, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			out.Analysis = "Error processing text file"
			return out
		}
		out.ExtractedText = string(decoded)
		out.Analysis = "Text content extracted and ready for Chain of Draft analysis"
	case strings.Contains(in.MimeType, "application/json"):
		decoded, err := base64.StdEncoding.DecodeString(in.Data)
		if err != nil {
			out.Analysis = "Error parsing JSON file"
			return out
		}
		var parsed interface{}
		if err := json.Unmarshal(decoded, &parsed); err != nil {
			out.Analysis = "Error parsing JSON file"
			return out
		}
		pretty, err := json.MarshalIndent(parsed, "", "  ")
		if err != nil {
			out.Analysis = "Error parsing JSON file"
			return out
		}
		out.ExtractedText = string(pretty)
		out.Analysis = "JSON structure parsed and formatted for analysis"
	case strings.Contains(in.MimeType, "application/pdf"):
		out.Analysis = "PDF processing would require additional libraries like pdf-parse"
		out.ExtractedText = "PDF content extraction not implemented in this demo"
	default:
		out.Analysis = fmt.Sprintf("File type %s detected. Specialized processing may be required.", in.MimeType)
	}
	return out
}

// ProcessAll converts inputs in order, one record per input. An input of
// unknown type degrades to a failure record; the remaining inputs are still
// processed.
func (p *Processor) ProcessAll(ctx context.Context, inputs []Input) []Processed {
	processed := make([]Processed, 0, len(inputs))
	for _, in := range inputs {
		processed = append(processed, p.process(ctx, in))
	}
	return processed
}

func (p *Processor) process(ctx context.Context, in Input) Processed {
	switch in.Type {
	case "image":
		return p.ProcessImage(ctx, in)
	case "audio":
		return p.ProcessAudio(ctx, in)
	case "file":
		return p.ProcessFile(ctx, in)
	default:
		p.logger.Printf("unsupported media type %q for %s", in.Type, displayName(in))
		return Processed{
			Description: fmt.Sprintf("Error processing %s: %s", in.Type, displayName(in)),
			Metadata:    Metadata{Type: in.Type, Format: in.MimeType, Size: in.Size},
			Analysis:    fmt.Sprintf("Processing failed: unsupported media type: %s", in.Type),
			Failed:      true,
		}
	}
}

// excerptLimit caps how much extracted text is quoted into the prompt
// context.
const excerptLimit = 500

// BuildContext prepends a delimited multimedia context block to the
// original prompt. With no processed media the prompt passes through
// unchanged.
func BuildContext(originalPrompt string, processed []Processed) string {
	if len(processed) == 0 {
		return originalPrompt
	}

	var b strings.Builder
	b.WriteString("\n\n=== MULTIMEDIA CONTEXT ===\n")
	for i, m := range processed {
		fmt.Fprintf(&b, "\n%d. %s\n", i+1, m.Description)
		fmt.Fprintf(&b, "   Format: %s\n", m.Metadata.Format)
		if m.ExtractedText != "" {
			excerpt := m.ExtractedText
			if len(excerpt) > excerptLimit {
				// Back off to a rune boundary so the cut never splits a
				// multi-byte sequence.
				cut := excerptLimit
				for cut > 0 && !utf8.RuneStart(excerpt[cut]) {
					cut--
				}
				excerpt = excerpt[:cut] + "..."
			}
			fmt.Fprintf(&b, "   Content: %s\n", excerpt)
		}
		if m.Analysis != "" {
			fmt.Fprintf(&b, "   Analysis: %s\n", m.Analysis)
		}
	}
	b.WriteString("\n=== END MULTIMEDIA CONTEXT ===\n\n")
	b.WriteString("Please consider the above multimedia context when performing your Chain of Draft analysis.\n\n")
	b.WriteString(originalPrompt)
	return b.String()
}
