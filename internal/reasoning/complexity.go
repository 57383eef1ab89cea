package reasoning

import (
	"regexp"
	"strings"
)

// ComplexityLevel is an ordered severity category for a message.
type ComplexityLevel string

const (
	LevelSimple        ComplexityLevel = "simple"
	LevelModerate      ComplexityLevel = "moderate"
	LevelComplex       ComplexityLevel = "complex"
	LevelHighlyComplex ComplexityLevel = "highly_complex"
	LevelResearchGrade ComplexityLevel = "research_grade"
)

// VerificationDepth selects how aggressively stage 2 should verify.
type VerificationDepth string

const (
	VerificationBasic    VerificationDepth = "basic"
	VerificationStandard VerificationDepth = "standard"
	VerificationDeep     VerificationDepth = "deep"
	VerificationResearch VerificationDepth = "research"
)

// ComplexityProfile is the analyzer's classification of one message.
// Level, RecommendedWordLimit and RecommendedVerification are derived from
// Score alone via fixed thresholds.
type ComplexityProfile struct {
	Level                   ComplexityLevel   `json:"level"`
	Score                   int               `json:"score"`
	RecommendedWordLimit    int               `json:"recommendedWordLimit"`
	RecommendedVerification VerificationDepth `json:"recommendedVerification"`

	HasMath        bool `json:"hasMath"`
	HasLogic       bool `json:"hasLogic"`
	MultiStep      bool `json:"multiStep"`
	HasResearch    bool `json:"hasResearch"`
	HasScientific  bool `json:"hasScientific"`
	HasCoding      bool `json:"hasCoding"`
	HasEngineering bool `json:"hasEngineering"`
	HasPhilosophy  bool `json:"hasPhilosophy"`
	HasEconomics   bool `json:"hasEconomics"`
	HasMedicine    bool `json:"hasMedicine"`

	WordCount            int  `json:"wordCount"`
	SentenceCount        int  `json:"sentenceCount"`
	QuestionWords        int  `json:"questionWords"`
	IsLong               bool `json:"isLong"`
	HasMultipleQuestions bool `json:"hasMultipleQuestions"`
}

// longMessageThreshold is the character count above which a message counts
// as long.
const longMessageThreshold = 300

var (
	mathRe        = regexp.MustCompile(`[\d+\-*/=()^%√∫∑∏]`)
	logicRe       = regexp.MustCompile(`(?i)\b(if|then|else|because|therefore|since|implies|prove|logic|reasoning|analyze|compare|evaluate|assess)\b`)
	multiStepRe   = regexp.MustCompile(`(?i)\b(first|next|then|after|finally|step|calculate|find|determine|process|stages?|phases?)\b`)
	researchRe    = regexp.MustCompile(`(?i)\b(research|study|investigate|explore|examine|review|analysis|synthesis|comprehensive|methodology)\b`)
	scientificRe  = regexp.MustCompile(`(?i)\b(hypothesis|theory|experiment|data|statistical|scientific|empirical|peer.review|literature)\b`)
	codingRe      = regexp.MustCompile(`(?i)\b(code|programming|algorithm|function|class|variable|debug|implement|develop|software)\b`)
	engineeringRe = regexp.MustCompile(`(?i)\b(design|optimization|system|architecture|performance|efficiency|scalability)\b`)
	philosophyRe  = regexp.MustCompile(`(?i)\b(ethics|moral|philosophical|ontology|epistemology|metaphysics|consciousness)\b`)
	economicsRe   = regexp.MustCompile(`(?i)\b(economic|financial|market|trade|investment|fiscal|monetary|GDP|inflation)\b`)
	medicineRe    = regexp.MustCompile(`(?i)\b(medical|clinical|diagnosis|treatment|patient|therapy|pharmaceutical|biological)\b`)

	sentenceRe     = regexp.MustCompile(`[.!?]+`)
	questionWordRe = regexp.MustCompile(`(?i)\b(what|how|why|when|where|which|who)\b`)

	codeBlockRe = regexp.MustCompile("(?s)```.*?```")
	equationRe  = regexp.MustCompile(`\b\w+\s*=\s*[\d\w+\-*/()]+`)
	fractionRe  = regexp.MustCompile(`\b\d+/\d+\b`)
	operatorRe  = regexp.MustCompile(`[+\-*/=<>]+`)
)

// AnalyzeComplexity classifies a message. It is a total function: empty or
// whitespace-only input yields a valid simple-level profile.
func AnalyzeComplexity(message string) ComplexityProfile {
	p := ComplexityProfile{
		HasMath:        mathRe.MatchString(message),
		HasLogic:       logicRe.MatchString(message),
		MultiStep:      multiStepRe.MatchString(message),
		HasResearch:    researchRe.MatchString(message),
		HasScientific:  scientificRe.MatchString(message),
		HasCoding:      codingRe.MatchString(message),
		HasEngineering: engineeringRe.MatchString(message),
		HasPhilosophy:  philosophyRe.MatchString(message),
		HasEconomics:   economicsRe.MatchString(message),
		HasMedicine:    medicineRe.MatchString(message),

		WordCount:            countWords(message),
		SentenceCount:        len(sentenceRe.FindAllString(message, -1)),
		QuestionWords:        len(questionWordRe.FindAllString(message, -1)),
		IsLong:               len(message) > longMessageThreshold,
		HasMultipleQuestions: strings.Count(message, "?") > 1,
	}

	score := 0
	if p.HasMath {
		score += 2
	}
	if p.HasLogic {
		score++
	}
	if p.MultiStep {
		score++
	}
	if p.HasResearch {
		score += 3
	}
	if p.HasScientific {
		score += 2
	}
	if p.HasCoding {
		score++
	}
	if p.HasEngineering {
		score++
	}
	if p.HasPhilosophy {
		score += 2
	}
	if p.HasEconomics {
		score++
	}
	if p.HasMedicine {
		score += 2
	}
	if p.IsLong {
		score++
	}
	if p.HasMultipleQuestions {
		score++
	}
	if p.QuestionWords > 3 {
		score++
	}
	if p.SentenceCount > 10 {
		score++
	}
	p.Score = score

	// Highest threshold first; first match wins.
	switch {
	case score >= 8:
		p.Level = LevelResearchGrade
		p.RecommendedWordLimit = 15
		p.RecommendedVerification = VerificationResearch
	case score >= 6:
		p.Level = LevelHighlyComplex
		p.RecommendedWordLimit = 12
		p.RecommendedVerification = VerificationDeep
	case score >= 4:
		p.Level = LevelComplex
		p.RecommendedWordLimit = 8
		p.RecommendedVerification = VerificationStandard
	case score >= 2:
		p.Level = LevelModerate
		p.RecommendedWordLimit = 5
		p.RecommendedVerification = VerificationStandard
	default:
		p.Level = LevelSimple
		p.RecommendedWordLimit = 5
		p.RecommendedVerification = VerificationBasic
	}

	return p
}

// countWords counts words after normalizing the message: fenced code blocks
// are dropped entirely, then simple equations and fractions collapse into a
// single placeholder token and remaining operator runs become separators
// instead of gluing operands together.
func countWords(text string) int {
	if text == "" {
		return 0
	}
	text = codeBlockRe.ReplaceAllString(text, "")
	text = equationRe.ReplaceAllString(text, "EQUATION")
	text = fractionRe.ReplaceAllString(text, "FRACTION")
	text = operatorRe.ReplaceAllString(text, " ")
	return len(strings.Fields(text))
}
