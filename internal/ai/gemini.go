// gemini.go - Gemini backend

package ai

import (
	"context"
	"fmt"
	"strings"

	generativelanguage "cloud.google.com/go/ai/generativelanguage/apiv1beta"
	pb "cloud.google.com/go/ai/generativelanguage/apiv1beta/generativelanguagepb"
	"google.golang.org/api/option"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

const defaultMaxTokens = 4096

// GeminiGenerator implements TextGenerator with the Gemini API
type GeminiGenerator struct {
	apiKey string
	opts   Options
}

// NewGeminiGenerator creates a new Gemini backend
func NewGeminiGenerator(apiKey string, opts Options) *GeminiGenerator {
	if opts.GeminiModel == "" {
		opts.GeminiModel = "gemini-2.5-flash"
	}
	return &GeminiGenerator{apiKey: apiKey, opts: opts}
}

// GetProviderName returns the provider name
func (g *GeminiGenerator) GetProviderName() string {
	return configs.LLMGemini
}

func (g *GeminiGenerator) newClient(ctx context.Context) (*generativelanguage.GenerativeClient, error) {
	opts := []option.ClientOption{option.WithAPIKey(g.apiKey)}
	if g.opts.GeminiBaseURL != "" {
		opts = append(opts, option.WithEndpoint(g.opts.GeminiBaseURL))
	}
	client, err := generativelanguage.NewGenerativeRESTClient(ctx, opts...)
	if err != nil {
		return nil, err
	}
	// The generated defaults retry 503s with backoff; one request per call
	client.CallOptions.GenerateContent = nil
	return client, nil
}

// Generate sends the contract and input as one text part
func (g *GeminiGenerator) Generate(ctx context.Context, req GenerateRequest, reqCtx *common.RequestContext) (string, *common.TokenUsage, error) {
	if g.apiKey == "" {
		return "", nil, common.CredentialMissing(configs.LLMGemini)
	}

	if g.opts.Timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, g.opts.Timeout)
		defer cancel()
	}

	if err := g.opts.Limiter.Wait(ctx, configs.LLMGemini); err != nil {
		return "", nil, common.RequestFailed(configs.LLMGemini, err)
	}

	client, err := g.newClient(ctx)
	if err != nil {
		return "", nil, common.RequestFailed(configs.LLMGemini, fmt.Errorf("failed to create Gemini client: %w", err))
	}
	defer client.Close()

	maxTokens := req.MaxTokens
	if maxTokens <= 0 {
		maxTokens = defaultMaxTokens
	}

	genCfg := &pb.GenerationConfig{
		Temperature:     ptrFloat32(0.2),
		MaxOutputTokens: ptr(int32(maxTokens)),
	}
	if req.JSON {
		genCfg.ResponseMimeType = "application/json"
	}

	resp, err := client.GenerateContent(ctx, &pb.GenerateContentRequest{
		Model: "models/" + g.opts.GeminiModel,
		Contents: []*pb.Content{{
			Role:  "user",
			Parts: []*pb.Part{{Data: &pb.Part_Text{Text: req.Instruction + "\n\n" + req.Input}}},
		}},
		GenerationConfig: genCfg,
	})
	if err != nil {
		return "", nil, common.RequestFailed(configs.LLMGemini, err)
	}

	if len(resp.GetCandidates()) == 0 || resp.Candidates[0].GetContent() == nil {
		return "", nil, common.SchemaParseFailed(configs.LLMGemini, fmt.Errorf("no candidates in response"))
	}

	var text strings.Builder
	for _, part := range resp.Candidates[0].Content.GetParts() {
		text.WriteString(part.GetText())
	}

	if resp.Candidates[0].GetFinishReason() == pb.Candidate_MAX_TOKENS {
		reqCtx.LogWarning("Gemini response truncated (FinishReason: MAX_TOKENS)")
	}

	var usage *common.TokenUsage
	if meta := resp.GetUsageMetadata(); meta != nil {
		in, out := g.opts.Pricing.ForLLM(configs.LLMGemini)
		u := common.CalculateTokenCost(int(meta.GetPromptTokenCount()), int(meta.GetCandidatesTokenCount()), in, out)
		usage = &u
	}

	return text.String(), usage, nil
}

func ptr(i int32) *int32 {
	return &i
}

func ptrFloat32(f float32) *float32 {
	return &f
}
