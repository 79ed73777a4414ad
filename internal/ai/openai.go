// openai.go - OpenAI chat completions backend

package ai

import (
	"context"
	"fmt"

	"github.com/sashabaranov/go-openai"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

// OpenAIGenerator implements TextGenerator with the chat completions API
type OpenAIGenerator struct {
	apiKey string
	opts   Options
}

// NewOpenAIGenerator creates a new OpenAI backend
func NewOpenAIGenerator(apiKey string, opts Options) *OpenAIGenerator {
	if opts.OpenAIModel == "" {
		opts.OpenAIModel = "gpt-4o-mini"
	}
	return &OpenAIGenerator{apiKey: apiKey, opts: opts}
}

// GetProviderName returns the provider name
func (o *OpenAIGenerator) GetProviderName() string {
	return configs.LLMOpenAI
}

// Generate sends the contract as the system message and the input as the user message
func (o *OpenAIGenerator) Generate(ctx context.Context, req GenerateRequest, reqCtx *common.RequestContext) (string, *common.TokenUsage, error) {
	if o.apiKey == "" {
		return "", nil, common.CredentialMissing(configs.LLMOpenAI)
	}

	if o.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.opts.Timeout)
		defer cancel()
	}

	if err := o.opts.Limiter.Wait(ctx, configs.LLMOpenAI); err != nil {
		return "", nil, common.RequestFailed(configs.LLMOpenAI, err)
	}

	cfg := openai.DefaultConfig(o.apiKey)
	if o.opts.OpenAIBaseURL != "" {
		cfg.BaseURL = o.opts.OpenAIBaseURL
	}
	client := openai.NewClientWithConfig(cfg)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	chatReq := openai.ChatCompletionRequest{
		Model: o.opts.OpenAIModel,
		Messages: []openai.ChatCompletionMessage{
			{Role: openai.ChatMessageRoleSystem, Content: req.Instruction},
			{Role: openai.ChatMessageRoleUser, Content: req.Input},
		},
		Temperature: 0.2,
		MaxTokens:   maxTokens,
	}
	if req.JSON {
		chatReq.ResponseFormat = &openai.ChatCompletionResponseFormat{
			Type: openai.ChatCompletionResponseFormatTypeJSONObject,
		}
	}

	resp, err := client.CreateChatCompletion(ctx, chatReq)
	if err != nil {
		return "", nil, common.RequestFailed(configs.LLMOpenAI, err)
	}

	if len(resp.Choices) == 0 {
		return "", nil, common.SchemaParseFailed(configs.LLMOpenAI, fmt.Errorf("no choices in response"))
	}
	if resp.Choices[0].FinishReason == openai.FinishReasonLength {
		reqCtx.LogWarning("OpenAI response truncated (finish_reason: length)")
	}

	in, out := o.opts.Pricing.ForLLM(configs.LLMOpenAI)
	usage := common.CalculateTokenCost(resp.Usage.PromptTokens, resp.Usage.CompletionTokens, in, out)

	return resp.Choices[0].Message.Content, &usage, nil
}
