// drug_lookup.go - Tiered drug information lookup

package lookup

import (
	"context"
	"errors"

	"github.com/bosocmputer/prescription_analyzer/internal/ai"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// LabelSearcher is the authoritative tier
type LabelSearcher interface {
	SearchLabel(ctx context.Context, name string) (*models.DrugInfo, error)
}

// ReferenceSource supplies extra fallback entries keyed by lower-case name
type ReferenceSource interface {
	DrugReference(ctx context.Context) (map[string]models.DrugInfo, error)
}

// DrugLookup resolves a medicine name through the authoritative database,
// then a generated summary, then the reference table. Each tier is optional.
type DrugLookup struct {
	Authoritative LabelSearcher
	Generator     ai.TextGenerator
	Reference     ReferenceSource
}

// Lookup returns drug information tagged with the tier that produced it, or
// a no_match_found error when every tier misses
func (d *DrugLookup) Lookup(ctx context.Context, name string, reqCtx *common.RequestContext) (*models.DrugInfo, *common.TokenUsage, error) {
	cleaned := CleanMedicineName(name)
	if cleaned == "" {
		return nil, nil, common.UnsupportedInput("medicine name %q has nothing to look up", name)
	}

	if d.Authoritative != nil {
		info, err := d.Authoritative.SearchLabel(ctx, cleaned)
		if err == nil {
			logTier(reqCtx, "authoritative", cleaned)
			return info, nil, nil
		}
		if !errors.Is(err, common.ErrNoMatchFound) {
			logMiss(reqCtx, "authoritative", err)
		}
	}

	var usage *common.TokenUsage
	if d.Generator != nil {
		info, u, err := ai.SummarizeDrug(ctx, d.Generator, cleaned, reqCtx)
		usage = u
		if err == nil {
			logTier(reqCtx, "generated", cleaned)
			return info, usage, nil
		}
		if !errors.Is(err, common.ErrNoMatchFound) {
			logMiss(reqCtx, "generated", err)
		}
	}

	if d.Reference != nil {
		table, err := d.Reference.DrugReference(ctx)
		if err != nil {
			logMiss(reqCtx, "reference", err)
		} else if info, ok := matchReference(table, cleaned); ok {
			info.Source = models.SourceFallback
			logTier(reqCtx, "reference", cleaned)
			return &info, usage, nil
		}
	}

	if info, ok := StaticLookup(cleaned); ok {
		logTier(reqCtx, "fallback", cleaned)
		return info, usage, nil
	}

	return nil, usage, common.NoMatchFound("drug-lookup", cleaned)
}

func logTier(reqCtx *common.RequestContext, tier, name string) {
	if reqCtx != nil {
		reqCtx.LogInfo("drug info for %s from %s tier", name, tier)
	}
}

func logMiss(reqCtx *common.RequestContext, tier string, err error) {
	if reqCtx != nil {
		reqCtx.LogWarning("%s tier failed, trying next: %v", tier, err)
	}
}
