package funnel

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// PromptSpec holds the externalized prompt templates for the two
// language-model calls the funnel makes per message. Placeholders like
// {funnelStep} and {conversationHistory} are substituted at call time.
type PromptSpec struct {
	Extraction string `yaml:"extraction"`
	Response   string `yaml:"response"`
}

// LoadPromptSpec reads the prompt templates from a YAML file.
func LoadPromptSpec(path string) (*PromptSpec, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var spec PromptSpec
	if err := yaml.Unmarshal(b, &spec); err != nil {
		return nil, fmt.Errorf("failed to parse prompt spec %s: %w", path, err)
	}
	if spec.Extraction == "" || spec.Response == "" {
		return nil, fmt.Errorf("prompt spec %s must define extraction and response templates", path)
	}
	return &spec, nil
}

func orSentinel(value, sentinel string) string {
	if value == "" {
		return sentinel
	}
	return value
}
