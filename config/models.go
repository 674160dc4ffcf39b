package config

import (
	"fmt"

	"github.com/kbukum/modelkit/validation"
)

// Override selects a named alternative provider for one model family.
//
// Overrides are a list rather than a map because family keys contain dots
// and mixed case, which viper would split and lower-case as map keys.
type Override struct {
	Family      string `yaml:"family" mapstructure:"family"`
	Alternative string `yaml:"alternative" mapstructure:"alternative"`
}

// Length limits for override names.
const (
	MaxFamilyLength      = 128
	MaxAlternativeLength = 64
)

// ModelsConfig configures the model registry at start-up.
type ModelsConfig struct {
	// Overrides are applied in order after the model families are installed.
	Overrides []Override `yaml:"overrides" mapstructure:"overrides"`
	// Strict makes an override for an unknown family or alternative fail
	// start-up instead of being logged and skipped.
	Strict bool `yaml:"strict" mapstructure:"strict"`
}

// Validate checks that every override names a family and an alternative
// within the length limits, and that no family is overridden twice.
func (c *ModelsConfig) Validate() error {
	v := validation.New()
	seen := make(map[string]bool, len(c.Overrides))
	for i, o := range c.Overrides {
		field := fmt.Sprintf("models.overrides[%d]", i)
		v.Identifier(field+".family", o.Family).MaxLength(field+".family", o.Family, MaxFamilyLength)
		v.Identifier(field+".alternative", o.Alternative).MaxLength(field+".alternative", o.Alternative, MaxAlternativeLength)
		v.Custom(!seen[o.Family], field+".family", "duplicates an earlier override")
		seen[o.Family] = true
	}
	if appErr := v.Validate(); appErr != nil {
		return appErr
	}
	return nil
}
