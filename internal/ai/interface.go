// interface.go - Structured extraction provider interfaces

package ai

import (
	"context"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// GenerateRequest is one prompt sent to a language-model backend
type GenerateRequest struct {
	Instruction string // fixed contract the backend must follow
	Input       string // user data the contract is applied to
	JSON        bool   // ask for a JSON-only reply where the backend supports it
	MaxTokens   int
}

// TextGenerator wraps one LLM backend. Backends differ only in request shape
// and in where the reply text sits in the response; each call is a single
// request with no retry.
type TextGenerator interface {
	Generate(ctx context.Context, req GenerateRequest, reqCtx *common.RequestContext) (string, *common.TokenUsage, error)

	// GetProviderName returns the provider name ("gemini", "openai", "anthropic")
	GetProviderName() string
}

// StructuredExtractor turns raw prescription text into a PrescriptionRecord
type StructuredExtractor interface {
	ExtractStructured(ctx context.Context, text string, reqCtx *common.RequestContext) (*models.PrescriptionRecord, *common.TokenUsage, error)

	GetProviderName() string
}
