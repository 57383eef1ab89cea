package provider

import "fmt"

// ModelInfo describes one Fireworks-hosted model.
type ModelInfo struct {
	Path           string `json:"path"`
	SupportsVision bool   `json:"supportsVision"`
	SupportsTools  bool   `json:"supportsTools"`
	ContextLength  int    `json:"contextLength"`
}

// Models is the catalog of supported models, keyed by short name.
var Models = map[string]ModelInfo{
	"deepseek-v3-0324": {
		Path:           "accounts/fireworks/models/deepseek-v3-0324",
		SupportsVision: false,
		SupportsTools:  true,
		ContextLength:  64000,
	},
	"deepseek-v3": {
		Path:           "accounts/fireworks/models/deepseek-v3",
		SupportsVision: false,
		SupportsTools:  true,
		ContextLength:  64000,
	},
	"qwen2p5-vl-32b-instruct": {
		Path:           "accounts/fireworks/models/qwen2p5-vl-32b-instruct",
		SupportsVision: true,
		SupportsTools:  true,
		ContextLength:  32768,
	},
	"firellava-13b": {
		Path:           "accounts/fireworks/models/firellava-13b",
		SupportsVision: true,
		SupportsTools:  false,
		ContextLength:  4096,
	},
	"llava-v1.5-7b-fireworks": {
		Path:           "accounts/fireworks/models/llava-v1.5-7b-fireworks",
		SupportsVision: true,
		SupportsTools:  false,
		ContextLength:  4096,
	},
	"firefunction-v2": {
		Path:           "accounts/fireworks/models/firefunction-v2",
		SupportsVision: false,
		SupportsTools:  true,
		ContextLength:  8192,
	},
}

// DefaultModel is used when a request does not select a model.
const DefaultModel = "deepseek-v3-0324"

// DefaultVisionModel is used for image analysis during media preprocessing.
const DefaultVisionModel = "qwen2p5-vl-32b-instruct"

// Lookup resolves a short model name to its catalog entry.
func Lookup(name string) (ModelInfo, error) {
	m, ok := Models[name]
	if !ok {
		return ModelInfo{}, fmt.Errorf("model %s not configured", name)
	}
	return m, nil
}
