package models

// ModelConfig configures the remote reasoning model.
type ModelConfig struct {
	Model string `json:"model" yaml:"model"` // e.g., "grok-3-mini"

	// Store asks the remote service to persist responses so that
	// previous_response_id can refer to them on the next turn.
	Store bool `json:"store" yaml:"store"`
}

// DefaultModelConfig returns the model used by the reference deployment.
func DefaultModelConfig() ModelConfig {
	return ModelConfig{
		Model: "grok-3-mini",
		Store: true,
	}
}

// LimitsConfig holds the loop bound and the display truncation policy.
// The truncation bounds are policy, not protocol.
type LimitsConfig struct {
	MaxIterations    int `json:"max_iterations" yaml:"max_iterations"`
	DescriptionLimit int `json:"description_limit" yaml:"description_limit"` // tool_call description, runes
	OutputLimit      int `json:"output_limit" yaml:"output_limit"`           // code output detail, runes
	URLLimit         int `json:"url_limit" yaml:"url_limit"`                 // shortened URL in descriptions, runes
}

// DefaultLimitsConfig returns the default limits.
func DefaultLimitsConfig() LimitsConfig {
	return LimitsConfig{
		MaxIterations:    15,
		DescriptionLimit: 80,
		OutputLimit:      500,
		URLLimit:         60,
	}
}
