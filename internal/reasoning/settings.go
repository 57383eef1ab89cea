package reasoning

// ReasoningMethod selects between plain prompting and the enhanced
// two-stage Chain of Draft flow.
type ReasoningMethod string

const (
	MethodStandard    ReasoningMethod = "standard"
	MethodEnhancedCoD ReasoningMethod = "enhanced_cod"
)

// Enhancement controls whether run parameters are taken from config as-is
// or adapted to the message's complexity.
type Enhancement string

const (
	EnhancementFixed    Enhancement = "fixed"
	EnhancementAdaptive Enhancement = "adaptive"
)

// ReflectionSettings holds the stage-2 reflection toggles.
type ReflectionSettings struct {
	EnableSelfVerification     bool              `json:"enableSelfVerification"`
	EnableErrorDetection       bool              `json:"enableErrorDetection"`
	EnableAlternativeSearch    bool              `json:"enableAlternativeSearch"`
	EnableConfidenceAssessment bool              `json:"enableConfidenceAssessment"`
	VerificationDepth          VerificationDepth `json:"verificationDepth"`
}

// Config is the caller-supplied reasoning configuration. It is merged with
// defaults per request and never mutated by the engine.
type Config struct {
	ReasoningMethod      ReasoningMethod    `json:"reasoningMethod"`
	CoDWordLimit         int                `json:"codWordLimit"`
	ReasoningEnhancement Enhancement        `json:"reasoningEnhancement"`
	ReflectionSettings   ReflectionSettings `json:"reflectionSettings"`
}

// DefaultConfig returns the stock reasoning configuration.
func DefaultConfig() Config {
	return Config{
		ReasoningMethod:      MethodEnhancedCoD,
		CoDWordLimit:         5,
		ReasoningEnhancement: EnhancementFixed,
		ReflectionSettings: ReflectionSettings{
			EnableSelfVerification:     true,
			EnableErrorDetection:       true,
			EnableAlternativeSearch:    true,
			EnableConfidenceAssessment: true,
			VerificationDepth:          VerificationStandard,
		},
	}
}

// EffectiveSettings are the run parameters actually used for one request,
// after reconciling the config with (in adaptive mode) the message's
// complexity.
type EffectiveSettings struct {
	Method            ReasoningMethod    `json:"method"`
	WordLimit         int                `json:"wordLimit"`
	VerificationDepth VerificationDepth  `json:"verificationDepth"`
	Complexity        *ComplexityProfile `json:"complexity,omitempty"`
	Adapted           bool               `json:"adapted"`
	Reasoning         string             `json:"reasoning,omitempty"`
}

// Fixed per-level rationale strings, no interpolation.
var adaptationReasons = map[ComplexityLevel]string{
	LevelResearchGrade: "Research-grade complexity detected - using extensive CoD steps with deep verification",
	LevelHighlyComplex: "Highly complex problem detected - using expanded CoD with comprehensive verification",
	LevelComplex:       "Complex problem detected - using moderate CoD expansion with standard verification",
	LevelModerate:      "Moderate complexity detected - using balanced CoD approach",
	LevelSimple:        "Simple problem detected - using concise CoD steps",
}

// ResolveSettings produces the effective run parameters for a message. In
// fixed mode it echoes the config without invoking the analyzer; in
// adaptive mode it adopts the analyzer's recommendations and reports
// whether adaptation changed anything versus the base config.
func ResolveSettings(message string, cfg Config) EffectiveSettings {
	if cfg.ReasoningEnhancement != EnhancementAdaptive {
		return EffectiveSettings{
			Method:            cfg.ReasoningMethod,
			WordLimit:         cfg.CoDWordLimit,
			VerificationDepth: cfg.ReflectionSettings.VerificationDepth,
			Adapted:           false,
		}
	}

	complexity := AnalyzeComplexity(message)
	return EffectiveSettings{
		Method:            cfg.ReasoningMethod,
		WordLimit:         complexity.RecommendedWordLimit,
		VerificationDepth: complexity.RecommendedVerification,
		Complexity:        &complexity,
		Adapted: complexity.RecommendedWordLimit != cfg.CoDWordLimit ||
			complexity.RecommendedVerification != cfg.ReflectionSettings.VerificationDepth,
		Reasoning: adaptationReasons[complexity.Level],
	}
}
