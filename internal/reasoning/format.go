package reasoning

import (
	"regexp"
	"strings"
)

// SectionDelimiter separates the named sections of a stage's raw output.
const SectionDelimiter = "####"

// Section is one labeled part of a stage's output, with the raw body
// (header line stripped) and a display-ready HTML rendering.
type Section struct {
	Key   string `json:"key"`
	Label string `json:"label"`
	Body  string `json:"body"`
	HTML  string `json:"html"`
}

type sectionSpec struct {
	key    string
	label  string
	header string
}

var stage1Sections = []sectionSpec{
	{"problem_analysis", "Problem Analysis", "PROBLEM ANALYSIS"},
	{"cod_steps", "Chain of Draft Steps", "CHAIN OF DRAFT STEPS"},
	{"initial_reflection", "Initial Reflection", "INITIAL REFLECTION"},
	{"draft_solution", "Draft Solution", "DRAFT SOLUTION"},
}

var stage2Sections = []sectionSpec{
	{"verification", "Deep Verification", "STAGE 2 VERIFICATION"},
	{"error_detection", "Error Detection & Correction", "ERROR DETECTION & CORRECTION"},
	{"alternatives", "Alternative Approaches", "ALTERNATIVE APPROACH ANALYSIS"},
	{"confidence", "Confidence Assessment", "CONFIDENCE ASSESSMENT"},
	{"final_answer", "Final Comprehensive Answer", "FINAL COMPREHENSIVE ANSWER"},
	{"reflection_summary", "Reflection Summary", "REFLECTION SUMMARY"},
}

// FormatStage splits a stage's raw output into labeled sections. Everything
// before the first delimiter is preamble and is discarded. Each section is
// labeled by its own header text when one is recognized, falling back to
// its position in the stage's fixed schedule; headerless reordered output
// therefore degrades to the positional behavior. Missing sections are
// simply absent from the result.
func FormatStage(stage int, content string) []Section {
	specs := stage1Sections
	if stage == 2 {
		specs = stage2Sections
	}

	parts := strings.Split(content, SectionDelimiter)
	if len(parts) <= 1 {
		return nil
	}

	var out []Section
	for i, part := range parts[1:] {
		body := strings.TrimSpace(part)
		if body == "" {
			continue
		}

		spec, ok := matchHeader(specs, body)
		if !ok {
			// Positional fallback for sections without a recognizable
			// header.
			if i >= len(specs) {
				continue
			}
			spec = specs[i]
		}

		body = strings.TrimSpace(strings.TrimPrefix(body, spec.header))
		out = append(out, Section{
			Key:   spec.key,
			Label: spec.label,
			Body:  body,
			HTML:  RenderInline(body),
		})
	}
	return out
}

func matchHeader(specs []sectionSpec, body string) (sectionSpec, bool) {
	for _, s := range specs {
		if strings.HasPrefix(body, s.header) {
			return s, true
		}
	}
	return sectionSpec{}, false
}

var (
	fencedCodeRe = regexp.MustCompile("(?s)```(.*?)```")
	boldRe       = regexp.MustCompile(`\*\*(.*?)\*\*`)
	italicRe     = regexp.MustCompile(`\*(.*?)\*`)
	inlineCodeRe = regexp.MustCompile("`(.*?)`")
)

// RenderInline applies the minimal inline-markup transform: fenced code
// blocks, bold, italic, inline code, and paragraph/line-break
// normalization. Fences are handled before inline code so a fence's
// backticks are not consumed as code spans.
func RenderInline(content string) string {
	out := fencedCodeRe.ReplaceAllString(content, `<pre><code>$1</code></pre>`)
	out = boldRe.ReplaceAllString(out, "<strong>$1</strong>")
	out = italicRe.ReplaceAllString(out, "<em>$1</em>")
	out = inlineCodeRe.ReplaceAllString(out, "<code>$1</code>")
	out = strings.ReplaceAll(out, "\n\n", "</p><p>")
	out = strings.ReplaceAll(out, "\n", "<br>")
	return "<p>" + out + "</p>"
}
