// batch.go - Order-preserving batch translation

package translate

import (
	"context"
	"fmt"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
)

// TranslateBatch translates fields into target and returns exactly one output
// per input, in order. Empty inputs pass through as empty strings. For the
// source language the inputs are returned unchanged and tr is never called.
func TranslateBatch(ctx context.Context, tr Translator, fields []string, target string) ([]string, *common.TokenUsage, error) {
	out := make([]string, len(fields))
	copy(out, fields)

	if IsSource(target) {
		return out, nil, nil
	}
	lang, ok := NormalizeLanguage(target)
	if !ok {
		return nil, nil, common.UnsupportedInput("unsupported target language %q", target)
	}

	var (
		pending []string
		index   []int
	)
	for i, f := range fields {
		if strings.TrimSpace(f) == "" {
			continue
		}
		pending = append(pending, f)
		index = append(index, i)
	}
	if len(pending) == 0 {
		return out, nil, nil
	}

	if tr == nil {
		return nil, nil, common.CredentialMissing(ProviderGoogleTranslate)
	}

	translated, usage, err := tr.Translate(ctx, pending, lang)
	if err != nil {
		return nil, nil, err
	}
	if len(translated) != len(pending) {
		return nil, nil, common.RequestFailedStatus(tr.GetProviderName(), 502,
			fmt.Sprintf("got %d translations for %d texts", len(translated), len(pending)))
	}

	for j, i := range index {
		out[i] = translated[j]
	}
	return out, usage, nil
}
