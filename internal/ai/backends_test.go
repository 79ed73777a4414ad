package ai

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

func TestOpenAIGenerator(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/v1/chat/completions" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("Authorization") != "Bearer sk-test" {
			t.Errorf("authorization = %q", r.Header.Get("Authorization"))
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if rf, _ := body["response_format"].(map[string]interface{}); rf["type"] != "json_object" {
			t.Errorf("response_format = %v", body["response_format"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":      "chatcmpl-1",
			"object":  "chat.completion",
			"model":   "gpt-4o-mini",
			"choices": []map[string]interface{}{{"index": 0, "finish_reason": "stop", "message": map[string]interface{}{"role": "assistant", "content": `{"medicines": []}`}}},
			"usage":   map[string]interface{}{"prompt_tokens": 100, "completion_tokens": 20, "total_tokens": 120},
		})
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator("sk-test", Options{OpenAIBaseURL: srv.URL + "/v1", Pricing: configs.Pricing{OpenAIInputPerMillion: 1, OpenAIOutputPerMillion: 1}})
	text, usage, err := gen.Generate(context.Background(), GenerateRequest{Instruction: "i", Input: "x", JSON: true}, common.NewRequestContext("test"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"medicines": []}` {
		t.Fatalf("text = %q", text)
	}
	if usage.TotalTokens != 120 {
		t.Fatalf("usage = %+v", usage)
	}
	if hits != 1 {
		t.Fatalf("hits = %d", hits)
	}
}

func TestOpenAIGeneratorErrorStatus(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusTooManyRequests)
		w.Write([]byte(`{"error": {"message": "Rate limit reached", "type": "requests"}}`))
	}))
	defer srv.Close()

	gen := NewOpenAIGenerator("sk-test", Options{OpenAIBaseURL: srv.URL + "/v1"})
	_, _, err := gen.Generate(context.Background(), GenerateRequest{Instruction: "i", Input: "x"}, common.NewRequestContext("test"))

	var pe *common.PipelineError
	if !errors.As(err, &pe) || pe.Category != "rate_limit" || pe.StatusCode != http.StatusTooManyRequests {
		t.Fatalf("expected rate_limit provider error, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("no automatic retry expected, got %d requests", hits)
	}
}

func TestAnthropicGenerator(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/v1/messages" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Api-Key") != "ant-test" {
			t.Errorf("x-api-key = %q", r.Header.Get("X-Api-Key"))
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"id":          "msg_1",
			"type":        "message",
			"role":        "assistant",
			"model":       "claude-3-5-haiku-latest",
			"content":     []map[string]interface{}{{"type": "text", "text": `{"medicines": [{"name": "Ibuprofen"}]}`}},
			"stop_reason": "end_turn",
			"usage":       map[string]interface{}{"input_tokens": 50, "output_tokens": 10},
		})
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator("ant-test", Options{AnthropicBaseURL: srv.URL})
	text, usage, err := gen.Generate(context.Background(), GenerateRequest{Instruction: "i", Input: "x"}, common.NewRequestContext("test"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"medicines": [{"name": "Ibuprofen"}]}` {
		t.Fatalf("text = %q", text)
	}
	if usage.InputTokens != 50 || usage.OutputTokens != 10 {
		t.Fatalf("usage = %+v", usage)
	}
}

func TestAnthropicGeneratorDoesNotRetry(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"type": "error", "error": {"type": "overloaded_error", "message": "Overloaded"}}`))
	}))
	defer srv.Close()

	gen := NewAnthropicGenerator("ant-test", Options{AnthropicBaseURL: srv.URL})
	_, _, err := gen.Generate(context.Background(), GenerateRequest{Instruction: "i", Input: "x"}, common.NewRequestContext("test"))
	if !errors.Is(err, common.ErrProviderRequestFailed) {
		t.Fatalf("expected provider_request_failed, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected exactly one request, got %d", hits)
	}
}

func TestGeminiGenerator(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		if r.URL.Path != "/v1beta/models/gemini-test:generateContent" {
			t.Errorf("path = %s", r.URL.Path)
		}
		if r.Header.Get("X-Goog-Api-Key") != "gm-test" && r.URL.Query().Get("key") != "gm-test" {
			t.Errorf("api key not sent")
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)
		if cfg, _ := body["generationConfig"].(map[string]interface{}); cfg["responseMimeType"] != "application/json" {
			t.Errorf("generationConfig = %v", body["generationConfig"])
		}
		w.Header().Set("Content-Type", "application/json")
		json.NewEncoder(w).Encode(map[string]interface{}{
			"candidates": []map[string]interface{}{{
				"content":      map[string]interface{}{"role": "model", "parts": []map[string]interface{}{{"text": `{"medicines": `}, {"text": `[]}`}}},
				"finishReason": "STOP",
			}},
			"usageMetadata": map[string]interface{}{"promptTokenCount": 80, "candidatesTokenCount": 15, "totalTokenCount": 95},
		})
	}))
	defer srv.Close()

	gen := NewGeminiGenerator("gm-test", Options{GeminiBaseURL: srv.URL, GeminiModel: "gemini-test"})
	text, usage, err := gen.Generate(context.Background(), GenerateRequest{Instruction: "i", Input: "x", JSON: true}, common.NewRequestContext("test"))
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if text != `{"medicines": []}` {
		t.Fatalf("text = %q", text)
	}
	if usage == nil || usage.InputTokens != 80 || usage.OutputTokens != 15 {
		t.Fatalf("usage = %+v", usage)
	}
	if hits != 1 {
		t.Fatalf("hits = %d", hits)
	}
}

func TestGeminiGeneratorDoesNotRetryUnavailable(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"error": {"code": 503, "message": "The model is overloaded.", "status": "UNAVAILABLE"}}`))
	}))
	defer srv.Close()

	gen := NewGeminiGenerator("gm-test", Options{GeminiBaseURL: srv.URL, Timeout: 30 * time.Second})
	_, _, err := gen.Generate(context.Background(), GenerateRequest{Instruction: "i", Input: "x"}, common.NewRequestContext("test"))

	var pe *common.PipelineError
	if !errors.As(err, &pe) || pe.Kind != common.KindProviderRequestFailed || pe.StatusCode != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 provider error, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("expected exactly one request, got %d", hits)
	}
}

func TestGeneratorsRequireKeyBeforeCalling(t *testing.T) {
	var hits int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&hits, 1)
	}))
	defer srv.Close()

	opts := Options{GeminiBaseURL: srv.URL, OpenAIBaseURL: srv.URL + "/v1", AnthropicBaseURL: srv.URL}
	for _, gen := range []TextGenerator{
		NewGeminiGenerator("", opts),
		NewOpenAIGenerator("", opts),
		NewAnthropicGenerator("", opts),
	} {
		_, _, err := gen.Generate(context.Background(), GenerateRequest{Input: "x"}, common.NewRequestContext("test"))
		if !errors.Is(err, common.ErrCredentialMissing) {
			t.Fatalf("%s: expected credential_missing, got %v", gen.GetProviderName(), err)
		}
	}
	if hits != 0 {
		t.Fatalf("requests sent without a key: %d", hits)
	}
}

func TestCreateTextGeneratorHandsOnlyOwnKey(t *testing.T) {
	p := configs.ProviderConfig{
		LLMProvider: configs.LLMAnthropic,
		Credentials: configs.Credentials{GeminiAPIKey: "g", OpenAIAPIKey: "o", AnthropicAPIKey: "a"},
	}
	gen, err := CreateTextGenerator(p, Options{})
	if err != nil {
		t.Fatalf("CreateTextGenerator: %v", err)
	}
	if a := gen.(*AnthropicGenerator); a.apiKey != "a" {
		t.Fatalf("anthropic backend got key %q", a.apiKey)
	}

	p.LLMProvider = "mistral"
	if _, err := CreateTextGenerator(p, Options{}); err == nil {
		t.Fatalf("expected error for unknown provider")
	}
}
