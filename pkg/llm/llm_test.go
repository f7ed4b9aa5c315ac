package llm

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestSystemPrompt_NoContextReturnsBaseSentence(t *testing.T) {
	assert.Equal(t, baseSystemPrompt, SystemPrompt(nil))
}

func TestSystemPrompt_WithContextIncludesBlocksAndGuardrail(t *testing.T) {
	prompt := SystemPrompt([]string{"block one", "block two"})
	assert.Contains(t, prompt, baseSystemPrompt)
	assert.Contains(t, prompt, "If the information is not")
	assert.Contains(t, prompt, "block one")
	assert.Contains(t, prompt, "block two")
}

func TestWithSystemPrompt_PrependsWhenNoLeadingSystemMessage(t *testing.T) {
	messages := []Message{{Role: "user", Content: "hi"}}
	out := WithSystemPrompt(messages, nil)
	assert.Len(t, out, 2)
	assert.Equal(t, "system", out[0].Role)
	assert.Equal(t, "user", out[1].Role)
}

func TestWithSystemPrompt_ReplacesExistingLeadingSystemMessage(t *testing.T) {
	messages := []Message{
		{Role: "system", Content: "stale"},
		{Role: "user", Content: "hi"},
	}
	out := WithSystemPrompt(messages, []string{"fresh context"})
	assert.Len(t, out, 2)
	assert.Contains(t, out[0].Content, "fresh context")
	assert.NotContains(t, out[0].Content, "stale")
}

func TestParams_SetDefaultsFillsZeroValues(t *testing.T) {
	p := Params{}
	p.setDefaults()
	assert.Equal(t, DefaultParams(), p)
}

func TestConfig_ValidateRequiresAPIKeyForOpenAI(t *testing.T) {
	err := Config{Type: OpenAI}.Validate()
	assert.Error(t, err)
}

func TestConfig_ValidateRequiresEndpointForAzure(t *testing.T) {
	err := Config{Type: AzureOpenAI, OpenAI: OpenAIConfig{APIKey: "k"}}.Validate()
	assert.Error(t, err)
}

func TestConfig_ValidateRequiresAPIKeyForAnthropic(t *testing.T) {
	err := Config{Type: Anthropic}.Validate()
	assert.Error(t, err)
}
