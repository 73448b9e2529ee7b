package provider

import (
	"github.com/openai/openai-go/v2"
	"github.com/openai/openai-go/v2/option"
)

// DefaultModel is used when OPENAI_MODEL is unset.
const DefaultModel = openai.ChatModelGPT3_5Turbo

// NewOpenAIClient returns a client for apiKey. An empty baseURL keeps the SDK default.
// Extra options are appended last so tests can swap the HTTP client.
func NewOpenAIClient(apiKey, baseURL string, opts ...option.RequestOption) *openai.Client {
	all := []option.RequestOption{option.WithAPIKey(apiKey)}
	if baseURL != "" {
		all = append(all, option.WithBaseURL(baseURL))
	}
	all = append(all, opts...)
	c := openai.NewClient(all...)
	return &c
}
