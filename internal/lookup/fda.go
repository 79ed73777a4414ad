// fda.go - openFDA drug label and adverse event client

package lookup

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
)

// ProviderOpenFDA is the authoritative drug database
const ProviderOpenFDA = "openfda"

// labelSearchFields are the openfda fields tried for every name variation
var labelSearchFields = []string{"brand_name", "generic_name", "substance_name"}

// FDAClient queries the public openFDA API. No key is required.
type FDAClient struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewFDAClient creates a client for cfg.OpenFDABaseURL
func NewFDAClient(cfg *configs.Config, limiter *ratelimit.Limiter) *FDAClient {
	baseURL := "https://api.fda.gov"
	timeout := 10 * time.Second
	if cfg != nil {
		if cfg.OpenFDABaseURL != "" {
			baseURL = cfg.OpenFDABaseURL
		}
		if cfg.LookupTimeout > 0 {
			timeout = time.Duration(cfg.LookupTimeout) * time.Second
		}
	}
	return &FDAClient{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: timeout},
		limiter:    limiter,
	}
}

type fdaLabel struct {
	OpenFDA struct {
		BrandName        []string `json:"brand_name"`
		GenericName      []string `json:"generic_name"`
		ManufacturerName []string `json:"manufacturer_name"`
	} `json:"openfda"`
	ActiveIngredient        []string `json:"active_ingredient"`
	Purpose                 []string `json:"purpose"`
	Warnings                []string `json:"warnings"`
	DosageAndAdministration []string `json:"dosage_and_administration"`
	Pregnancy               []string `json:"pregnancy"`
	DrugInteractions        []string `json:"drug_interactions"`
	Contraindications       []string `json:"contraindications"`
	BoxedWarning            []string `json:"boxed_warning"`
}

type fdaEvent struct {
	Serious     string `json:"serious"`
	ReceiptDate string `json:"receiptdate"`
	Patient     struct {
		Reaction []struct {
			ReactionMedDRAPT string `json:"reactionmeddrapt"`
			ReactionOutcome  string `json:"reactionoutcome"`
		} `json:"reaction"`
	} `json:"patient"`
}

func first(values []string) string {
	if len(values) == 0 {
		return ""
	}
	return strings.TrimSpace(values[0])
}

// SearchLabel finds the first label matching any variation of name in any of
// the brand, generic or substance fields
func (c *FDAClient) SearchLabel(ctx context.Context, name string) (*models.DrugInfo, error) {
	label, err := c.findLabel(ctx, name)
	if err != nil {
		return nil, err
	}

	info := &models.DrugInfo{
		BrandName:            first(label.OpenFDA.BrandName),
		GenericName:          first(label.OpenFDA.GenericName),
		Manufacturer:         first(label.OpenFDA.ManufacturerName),
		ActiveIngredients:    first(label.ActiveIngredient),
		Purpose:              first(label.Purpose),
		Warnings:             first(label.Warnings),
		DosageAdministration: first(label.DosageAndAdministration),
		PregnancyRisk:        first(label.Pregnancy),
		Source:               models.SourceAuthoritative,
	}
	return info, nil
}

// Interactions returns the interaction, contraindication and boxed warning
// sections of the label for name
func (c *FDAClient) Interactions(ctx context.Context, name string) (*models.DrugInteractions, error) {
	label, err := c.findLabel(ctx, name)
	if err != nil {
		return nil, err
	}
	interactions := &models.DrugInteractions{
		DrugInteractions:  first(label.DrugInteractions),
		Contraindications: first(label.Contraindications),
		BoxedWarnings:     first(label.BoxedWarning),
	}
	if interactions.DrugInteractions == "" && interactions.Contraindications == "" && interactions.BoxedWarnings == "" {
		return nil, common.NoMatchFound(ProviderOpenFDA, name)
	}
	return interactions, nil
}

// AdverseEvents returns up to limit adverse event report summaries
func (c *FDAClient) AdverseEvents(ctx context.Context, name string, limit int) ([]models.AdverseEvent, error) {
	if limit <= 0 || limit > 100 {
		limit = 10
	}
	search := fmt.Sprintf(`patient.drug.medicinalproduct:"%s"`, strings.ToUpper(strings.TrimSpace(name)))

	var resp struct {
		Results []fdaEvent `json:"results"`
	}
	found, err := c.get(ctx, "/drug/event.json", search, limit, &resp)
	if err != nil {
		return nil, err
	}
	if !found || len(resp.Results) == 0 {
		return nil, common.NoMatchFound(ProviderOpenFDA, name)
	}

	events := make([]models.AdverseEvent, 0, len(resp.Results))
	for _, r := range resp.Results {
		ev := models.AdverseEvent{
			Reactions:  []string{},
			Serious:    r.Serious,
			ReportDate: r.ReceiptDate,
		}
		for _, re := range r.Patient.Reaction {
			if re.ReactionMedDRAPT != "" {
				ev.Reactions = append(ev.Reactions, re.ReactionMedDRAPT)
			}
		}
		if len(r.Patient.Reaction) > 0 {
			ev.Outcome = r.Patient.Reaction[0].ReactionOutcome
		}
		events = append(events, ev)
	}
	return events, nil
}

func (c *FDAClient) findLabel(ctx context.Context, name string) (*fdaLabel, error) {
	variations := nameVariations(name)
	if len(variations) == 0 {
		return nil, common.NoMatchFound(ProviderOpenFDA, name)
	}

	for _, v := range variations {
		for _, field := range labelSearchFields {
			var resp struct {
				Results []fdaLabel `json:"results"`
			}
			search := fmt.Sprintf(`openfda.%s:"%s"`, field, v)
			found, err := c.get(ctx, "/drug/label.json", search, 1, &resp)
			if err != nil {
				return nil, err
			}
			if found && len(resp.Results) > 0 {
				return &resp.Results[0], nil
			}
		}
	}
	return nil, common.NoMatchFound(ProviderOpenFDA, name)
}

// get runs one openFDA search. openFDA answers 404 when nothing matches,
// which is reported as found=false rather than an error.
func (c *FDAClient) get(ctx context.Context, path, search string, limit int, out interface{}) (bool, error) {
	if err := c.limiter.Wait(ctx, ProviderOpenFDA); err != nil {
		return false, common.RequestFailed(ProviderOpenFDA, err)
	}

	q := url.Values{}
	q.Set("search", search)
	q.Set("limit", strconv.Itoa(limit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path+"?"+q.Encode(), nil)
	if err != nil {
		return false, common.RequestFailed(ProviderOpenFDA, err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return false, common.RequestFailed(ProviderOpenFDA, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return false, nil
	}
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return false, common.RequestFailedStatus(ProviderOpenFDA, resp.StatusCode, strings.TrimSpace(string(body)))
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return false, common.RequestFailed(ProviderOpenFDA, fmt.Errorf("failed to decode response: %w", err))
	}
	return true, nil
}
