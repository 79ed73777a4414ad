// anthropic.go - Anthropic messages backend

package ai

import (
	"context"
	"fmt"
	"strings"

	"github.com/anthropics/anthropic-sdk-go"
	anthropicoption "github.com/anthropics/anthropic-sdk-go/option"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

// AnthropicGenerator implements TextGenerator with the messages API
type AnthropicGenerator struct {
	apiKey string
	opts   Options
}

// NewAnthropicGenerator creates a new Anthropic backend
func NewAnthropicGenerator(apiKey string, opts Options) *AnthropicGenerator {
	if opts.AnthropicModel == "" {
		opts.AnthropicModel = "claude-3-5-haiku-latest"
	}
	return &AnthropicGenerator{apiKey: apiKey, opts: opts}
}

// GetProviderName returns the provider name
func (a *AnthropicGenerator) GetProviderName() string {
	return configs.LLMAnthropic
}

// Generate sends contract and input in a single user message
func (a *AnthropicGenerator) Generate(ctx context.Context, req GenerateRequest, reqCtx *common.RequestContext) (string, *common.TokenUsage, error) {
	if a.apiKey == "" {
		return "", nil, common.CredentialMissing(configs.LLMAnthropic)
	}

	if a.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, a.opts.Timeout)
		defer cancel()
	}

	if err := a.opts.Limiter.Wait(ctx, configs.LLMAnthropic); err != nil {
		return "", nil, common.RequestFailed(configs.LLMAnthropic, err)
	}

	clientOpts := []anthropicoption.RequestOption{
		anthropicoption.WithAPIKey(a.apiKey),
		anthropicoption.WithMaxRetries(0),
	}
	if a.opts.AnthropicBaseURL != "" {
		clientOpts = append(clientOpts, anthropicoption.WithBaseURL(a.opts.AnthropicBaseURL))
	}
	client := anthropic.NewClient(clientOpts...)

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	message, err := client.Messages.New(ctx, anthropic.MessageNewParams{
		Model:       anthropic.Model(a.opts.AnthropicModel),
		MaxTokens:   int64(maxTokens),
		Temperature: anthropic.Float(0.2),
		Messages: []anthropic.MessageParam{
			anthropic.NewUserMessage(anthropic.NewTextBlock(req.Instruction + "\n\n" + req.Input)),
		},
	})
	if err != nil {
		return "", nil, common.RequestFailed(configs.LLMAnthropic, err)
	}

	var text strings.Builder
	for _, block := range message.Content {
		switch b := block.AsAny().(type) {
		case anthropic.TextBlock:
			text.WriteString(b.Text)
		}
	}
	if text.Len() == 0 {
		return "", nil, common.SchemaParseFailed(configs.LLMAnthropic, fmt.Errorf("no text content in response"))
	}
	if message.StopReason == anthropic.StopReasonMaxTokens {
		reqCtx.LogWarning("Anthropic response truncated (stop_reason: max_tokens)")
	}

	in, out := a.opts.Pricing.ForLLM(configs.LLMAnthropic)
	usage := common.CalculateTokenCost(int(message.Usage.InputTokens), int(message.Usage.OutputTokens), in, out)

	return text.String(), &usage, nil
}
