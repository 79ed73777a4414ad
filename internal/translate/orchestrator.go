// orchestrator.go - Translated views of a prescription

package translate

import (
	"context"
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// View is a per-language shadow copy of the displayed data. The English
// original it was built from is never modified.
type View struct {
	Language  string                       `json:"language"`
	Medicines []models.Medicine            `json:"medicines"`
	Labels    map[string]map[string]string `json:"labels"`
	Usage     *common.TokenUsage           `json:"usage,omitempty"`
}

// SourceView returns the untranslated view of record
func SourceView(record *models.PrescriptionRecord) *View {
	v := &View{
		Language: configs.SourceLanguage,
		Labels:   copyLabels(DefaultLabels),
	}
	if record != nil {
		v.Medicines = record.Clone().Medicines
	}
	return v
}

type usageSum struct {
	mu    sync.Mutex
	total common.TokenUsage
}

func (u *usageSum) add(t *common.TokenUsage) {
	if t == nil {
		return
	}
	u.mu.Lock()
	defer u.mu.Unlock()
	u.total.Characters += t.Characters
	u.total.CostUSD += t.CostUSD
}

// BuildView translates every medicine and every label screen of record into
// target. Groups run concurrently; a medicine is swapped to its translation
// only as a whole. Any failed group fails the view so the caller keeps
// showing the original.
func BuildView(ctx context.Context, tr Translator, record *models.PrescriptionRecord, target string, reqCtx *common.RequestContext) (*View, error) {
	if IsSource(target) {
		return SourceView(record), nil
	}
	lang, ok := NormalizeLanguage(target)
	if !ok {
		return nil, common.UnsupportedInput("unsupported target language %q", target)
	}

	src := SourceView(record)
	view := &View{
		Language:  lang,
		Medicines: make([]models.Medicine, len(src.Medicines)),
		Labels:    make(map[string]map[string]string, len(src.Labels)),
	}

	var (
		sum      usageSum
		labelsMu sync.Mutex
	)
	g, gctx := errgroup.WithContext(ctx)

	for i, m := range src.Medicines {
		i, m := i, m
		g.Go(func() error {
			translated, usage, err := TranslateMedicine(gctx, tr, m, lang)
			if err != nil {
				return err
			}
			sum.add(usage)
			view.Medicines[i] = translated
			return nil
		})
	}

	for screen, labels := range src.Labels {
		screen, labels := screen, labels
		g.Go(func() error {
			translated, usage, err := TranslateLabels(gctx, tr, labels, lang)
			if err != nil {
				return err
			}
			sum.add(usage)
			labelsMu.Lock()
			view.Labels[screen] = translated
			labelsMu.Unlock()
			return nil
		})
	}

	if err := g.Wait(); err != nil {
		if reqCtx != nil {
			reqCtx.LogWarning("translation to %s failed, keeping original: %v", lang, err)
		}
		return nil, err
	}

	view.Usage = &sum.total
	if reqCtx != nil {
		reqCtx.LogInfo("translated %d medicines and %d label groups to %s (%d chars, $%.4f)",
			len(view.Medicines), len(view.Labels), lang, sum.total.Characters, sum.total.CostUSD)
	}
	return view, nil
}

// TranslateMedicine translates name, dosage, duration and instructions in one
// batch and returns a new medicine carrying all four, or an error and no
// partial result.
func TranslateMedicine(ctx context.Context, tr Translator, m models.Medicine, target string) (models.Medicine, *common.TokenUsage, error) {
	fields := []string{m.Name, m.Dosage, m.Duration, m.SpecialInstructions}
	out, usage, err := TranslateBatch(ctx, tr, fields, target)
	if err != nil {
		return models.Medicine{}, nil, err
	}

	translated := m.Clone()
	translated.Name = out[0]
	translated.Dosage = out[1]
	translated.Duration = out[2]
	translated.SpecialInstructions = out[3]
	return translated, usage, nil
}

// TranslateLabels translates one screen's labels as a single batch
func TranslateLabels(ctx context.Context, tr Translator, labels map[string]string, target string) (map[string]string, *common.TokenUsage, error) {
	keys := make([]string, 0, len(labels))
	for k := range labels {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	fields := make([]string, len(keys))
	for i, k := range keys {
		fields[i] = labels[k]
	}

	out, usage, err := TranslateBatch(ctx, tr, fields, target)
	if err != nil {
		return nil, nil, err
	}

	result := make(map[string]string, len(keys))
	for i, k := range keys {
		result[k] = out[i]
	}
	return result, usage, nil
}

// TranslateDrugInfo returns a translated copy of info; the source tier tag
// is kept as is
func TranslateDrugInfo(ctx context.Context, tr Translator, info models.DrugInfo, target string) (models.DrugInfo, *common.TokenUsage, error) {
	translated := info
	ptrs := translated.TextFields()

	fields := make([]string, len(ptrs))
	for i, p := range ptrs {
		fields[i] = *p
	}

	out, usage, err := TranslateBatch(ctx, tr, fields, target)
	if err != nil {
		return models.DrugInfo{}, nil, err
	}
	for i, p := range ptrs {
		*p = out[i]
	}
	return translated, usage, nil
}
