package lookup

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/ai"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

func TestCleanMedicineName(t *testing.T) {
	cases := map[string]string{
		"Paracetamol 650 mg tablet": "Paracetamol",
		"Amoxicillin 500mg":         "Amoxicillin",
		"Tab. Dolo 650":             "Dolo",
		"Cetirizine 10 MG Tablets":  "Cetirizine",
		"Azithral 500":              "Azithral",
		"Benadryl syrup 100ml":      "Benadryl",
		"":                          "",
	}
	for in, want := range cases {
		if got := CleanMedicineName(in); got != want {
			t.Errorf("CleanMedicineName(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestNameVariations(t *testing.T) {
	got := nameVariations("co-amoxiclav forte")
	want := []string{"CO-AMOXICLAV FORTE", "CO-AMOXICLAV", "CO-AMOXICLAVFORTE", "COAMOXICLAV FORTE", "CO"}
	if strings.Join(got, "|") != strings.Join(want, "|") {
		t.Fatalf("variations = %v, want %v", got, want)
	}
	if len(nameVariations("  ")) != 0 {
		t.Fatalf("blank name should have no variations")
	}
}

func TestSimilarity(t *testing.T) {
	if s := similarity("Paracetamol", "paracetamol"); s != 1.0 {
		t.Fatalf("case-insensitive equal = %v", s)
	}
	if s := similarity("paracetamol", "paracetmol"); s < fuzzyThreshold {
		t.Fatalf("one-letter typo scored %v", s)
	}
	if s := similarity("ibuprofen", "metformin"); s >= fuzzyThreshold {
		t.Fatalf("unrelated names scored %v", s)
	}
}

func TestStaticLookup(t *testing.T) {
	info, ok := StaticLookup("Ibuprofen")
	if !ok || info.BrandName != "Advil" || info.Source != models.SourceFallback {
		t.Fatalf("exact: %+v %v", info, ok)
	}
	if info, ok := StaticLookup("amoxicillin trihydrate"); !ok || info.BrandName != "Amoxil" {
		t.Fatalf("substring: %+v %v", info, ok)
	}
	if info, ok := StaticLookup("paracetmol"); !ok || info.BrandName != "Tylenol" {
		t.Fatalf("fuzzy: %+v %v", info, ok)
	}
	if _, ok := StaticLookup("zolpidem"); ok {
		t.Fatalf("unknown drug matched")
	}
}

func newFDAServer(t *testing.T, hits *int32, handler func(field, value string) (int, interface{})) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		search := r.URL.Query().Get("search")
		field, value := search, ""
		if i := strings.Index(search, ":"); i > 0 {
			field, value = search[:i], strings.Trim(search[i+1:], `"`)
		}
		status, body := handler(field, value)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(body)
	}))
}

var notFound = map[string]interface{}{"error": map[string]string{"code": "NOT_FOUND", "message": "No matches found!"}}

func TestFDASearchLabelTriesVariationsAndFields(t *testing.T) {
	var hits int32
	srv := newFDAServer(t, &hits, func(field, value string) (int, interface{}) {
		if field == "openfda.generic_name" && value == "PARACETAMOL" {
			return http.StatusOK, map[string]interface{}{"results": []interface{}{map[string]interface{}{
				"openfda": map[string]interface{}{
					"brand_name":        []string{"Tylenol"},
					"generic_name":      []string{"ACETAMINOPHEN"},
					"manufacturer_name": []string{"Kenvue"},
				},
				"purpose":  []string{"Pain reliever"},
				"warnings": []string{"Liver warning"},
			}}}
		}
		return http.StatusNotFound, notFound
	})
	defer srv.Close()

	c := NewFDAClient(&configs.Config{OpenFDABaseURL: srv.URL}, nil)
	info, err := c.SearchLabel(context.Background(), "Paracetamol 500")
	if err != nil {
		t.Fatalf("SearchLabel: %v", err)
	}
	if info.BrandName != "Tylenol" || info.Manufacturer != "Kenvue" || info.Purpose != "Pain reliever" {
		t.Fatalf("info = %+v", info)
	}
	if info.Source != models.SourceAuthoritative {
		t.Fatalf("source = %s", info.Source)
	}
	// brand_name misses on the full name before generic_name hits
	if hits < 2 {
		t.Fatalf("hits = %d", hits)
	}
}

func TestFDANoMatch(t *testing.T) {
	var hits int32
	srv := newFDAServer(t, &hits, func(string, string) (int, interface{}) { return http.StatusNotFound, notFound })
	defer srv.Close()

	c := NewFDAClient(&configs.Config{OpenFDABaseURL: srv.URL}, nil)
	_, err := c.SearchLabel(context.Background(), "Unknownium")
	if !errors.Is(err, common.ErrNoMatchFound) {
		t.Fatalf("expected no_match_found, got %v", err)
	}
	if int(hits) != len(nameVariations("Unknownium"))*len(labelSearchFields) {
		t.Fatalf("hits = %d", hits)
	}
}

func TestFDAServerErrorIsRequestFailure(t *testing.T) {
	var hits int32
	srv := newFDAServer(t, &hits, func(string, string) (int, interface{}) {
		return http.StatusInternalServerError, map[string]string{"error": "boom"}
	})
	defer srv.Close()

	_, err := NewFDAClient(&configs.Config{OpenFDABaseURL: srv.URL}, nil).SearchLabel(context.Background(), "Ibuprofen")
	if !errors.Is(err, common.ErrProviderRequestFailed) {
		t.Fatalf("expected provider_request_failed, got %v", err)
	}
	if hits != 1 {
		t.Fatalf("failed request must not be retried, hits = %d", hits)
	}
}

func TestFDAInteractionsAndEvents(t *testing.T) {
	var hits int32
	srv := newFDAServer(t, &hits, func(field, value string) (int, interface{}) {
		switch field {
		case "openfda.brand_name":
			return http.StatusOK, map[string]interface{}{"results": []interface{}{map[string]interface{}{
				"drug_interactions": []string{"Avoid warfarin"},
				"boxed_warning":     []string{"Serious GI events"},
			}}}
		case "patient.drug.medicinalproduct":
			return http.StatusOK, map[string]interface{}{"results": []interface{}{map[string]interface{}{
				"serious":     "1",
				"receiptdate": "20240101",
				"patient": map[string]interface{}{"reaction": []interface{}{
					map[string]string{"reactionmeddrapt": "Nausea", "reactionoutcome": "1"},
					map[string]string{"reactionmeddrapt": "Rash"},
				}},
			}}}
		}
		return http.StatusNotFound, notFound
	})
	defer srv.Close()

	c := NewFDAClient(&configs.Config{OpenFDABaseURL: srv.URL}, nil)
	inter, err := c.Interactions(context.Background(), "Ibuprofen")
	if err != nil {
		t.Fatalf("Interactions: %v", err)
	}
	if inter.DrugInteractions != "Avoid warfarin" || inter.BoxedWarnings != "Serious GI events" {
		t.Fatalf("interactions = %+v", inter)
	}

	events, err := c.AdverseEvents(context.Background(), "ibuprofen", 5)
	if err != nil {
		t.Fatalf("AdverseEvents: %v", err)
	}
	if len(events) != 1 || len(events[0].Reactions) != 2 || events[0].Outcome != "1" || events[0].Serious != "1" {
		t.Fatalf("events = %+v", events)
	}
}

func janServer(t *testing.T, hits *int32, data map[string]interface{}) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(hits, 1)
		if r.Header.Get("x-api-key") != "ja-key" {
			t.Errorf("x-api-key = %q", r.Header.Get("x-api-key"))
		}
		var body map[string]interface{}
		json.NewDecoder(r.Body).Decode(&body)

		items, ok := data[r.URL.Path]
		if !ok {
			json.NewEncoder(w).Encode(map[string]interface{}{"rs": "F", "rd": "service unavailable"})
			return
		}
		if r.URL.Path == "/searchmedicinebyname" && body["orderBy"] != "MRP ASC" {
			t.Errorf("orderBy = %v", body["orderBy"])
		}
		json.NewEncoder(w).Encode(map[string]interface{}{
			"rs": "S",
			"pd": map[string]interface{}{"success": "true", "data": items},
		})
	}))
}

func TestJanAushadhiRequiresKey(t *testing.T) {
	var hits int32
	srv := janServer(t, &hits, nil)
	defer srv.Close()

	c := NewJanAushadhiClient(&configs.Config{JanAushadhiBaseURL: srv.URL}, nil)
	if _, err := c.SearchMedicine(context.Background(), "Paracetamol"); !errors.Is(err, common.ErrCredentialMissing) {
		t.Fatalf("expected credential_missing, got %v", err)
	}
	if hits != 0 {
		t.Fatalf("request sent without a key")
	}
}

func TestJanAushadhiSearchMedicineSortsByMRP(t *testing.T) {
	var hits int32
	srv := janServer(t, &hits, map[string]interface{}{
		"/searchmedicinebyname": []map[string]interface{}{
			{"medicineId": "2", "generic_Name": "Paracetamol 650mg", "mrp": "15.50", "savingsPerc": nil},
			{"medicineId": "1", "generic_Name": "Paracetamol 500mg", "mrp": "9.00", "savingsPerc": "72"},
		},
	})
	defer srv.Close()

	c := NewJanAushadhiClient(&configs.Config{JanAushadhiBaseURL: srv.URL, JanAushadhiAPIKey: "ja-key"}, nil)
	alts, err := c.SearchMedicine(context.Background(), "Paracetamol")
	if err != nil {
		t.Fatalf("SearchMedicine: %v", err)
	}
	if len(alts) != 2 || alts[0].MedicineID != "1" || alts[0].SavingsPerc != "72" || alts[1].SavingsPerc != "" {
		t.Fatalf("alternatives = %+v", alts)
	}
}

func TestJanAushadhiFailureEnvelope(t *testing.T) {
	var hits int32
	srv := janServer(t, &hits, map[string]interface{}{})
	defer srv.Close()

	c := NewJanAushadhiClient(&configs.Config{JanAushadhiBaseURL: srv.URL, JanAushadhiAPIKey: "ja-key"}, nil)
	_, err := c.FindStores(context.Background(), "400053")
	if !errors.Is(err, common.ErrProviderRequestFailed) {
		t.Fatalf("expected provider_request_failed, got %v", err)
	}
}

func TestFilterStores(t *testing.T) {
	stores := BuiltinStores()
	cases := []struct {
		name  string
		query StoreQuery
		want  []string
	}{
		{"exact pin", StoreQuery{PinCode: "400053"}, []string{"MH003"}},
		{"area prefix", StoreQuery{PinCode: "400001"}, []string{"MH003", "MH004", "MH005"}},
		{"no area", StoreQuery{PinCode: "999999"}, nil},
		{"state", StoreQuery{State: "maharashtra"}, []string{"MH003", "MH004", "MH005"}},
		{"pin then district", StoreQuery{PinCode: "110001", District: "Mumbai"}, nil},
		{"district", StoreQuery{District: "new delhi"}, []string{"DL002"}},
	}
	for _, tc := range cases {
		got := FilterStores(stores, tc.query)
		var codes []string
		for _, s := range got {
			codes = append(codes, s.KendraCode)
		}
		if strings.Join(codes, ",") != strings.Join(tc.want, ",") {
			t.Errorf("%s: got %v, want %v", tc.name, codes, tc.want)
		}
	}
}

func TestFilterStoresCapsResults(t *testing.T) {
	var many []models.Store
	for i := 0; i < 25; i++ {
		many = append(many, models.Store{KendraCode: "X", State: "Kerala", PinCode: "682001"})
	}
	if got := FilterStores(many, StoreQuery{State: "Kerala"}); len(got) != MaxStores {
		t.Fatalf("len = %d", len(got))
	}
}

func TestStoreQueryValidate(t *testing.T) {
	if err := (StoreQuery{}).Validate(); !errors.Is(err, common.ErrUnsupportedInput) {
		t.Fatalf("empty query: %v", err)
	}
	if err := (StoreQuery{PinCode: "40005A"}).Validate(); !errors.Is(err, common.ErrUnsupportedInput) {
		t.Fatalf("bad pin: %v", err)
	}
	if err := (StoreQuery{PinCode: "400053"}).Validate(); err != nil {
		t.Fatalf("good pin: %v", err)
	}
}

type fakeDirectory struct {
	stores []models.Store
	err    error
}

func (f fakeDirectory) Stores(context.Context) ([]models.Store, error) { return f.stores, f.err }

func TestStoreFinderRemoteByDistance(t *testing.T) {
	var hits int32
	srv := janServer(t, &hits, map[string]interface{}{
		"/findstoredistance": []map[string]string{
			{"storeId": "far", "pincode": "400060", "distanceFromUser": "7.5"},
			{"storeId": "near", "pincode": "400053", "distanceFromUser": "0.8"},
		},
	})
	defer srv.Close()

	f := &StoreFinder{Remote: NewJanAushadhiClient(&configs.Config{JanAushadhiBaseURL: srv.URL, JanAushadhiAPIKey: "ja-key"}, nil)}
	stores, err := f.Find(context.Background(), StoreQuery{PinCode: "400053"}, nil)
	if err != nil {
		t.Fatalf("Find: %v", err)
	}
	if len(stores) != 2 || stores[0].KendraCode != "near" || stores[0].DistanceKm != 0.8 {
		t.Fatalf("stores = %+v", stores)
	}
}

func TestStoreFinderFallsBackToDirectory(t *testing.T) {
	var hits int32
	srv := janServer(t, &hits, map[string]interface{}{})
	defer srv.Close()

	f := &StoreFinder{
		Remote:    NewJanAushadhiClient(&configs.Config{JanAushadhiBaseURL: srv.URL, JanAushadhiAPIKey: "ja-key"}, nil),
		Directory: fakeDirectory{stores: []models.Store{{KendraCode: "KL001", State: "Kerala", PinCode: "682001"}}},
	}
	stores, err := f.Find(context.Background(), StoreQuery{PinCode: "682001"}, common.NewRequestContext("test"))
	if err != nil || len(stores) != 1 || stores[0].KendraCode != "KL001" {
		t.Fatalf("stores = %+v, err = %v", stores, err)
	}

	f.Directory = fakeDirectory{err: errors.New("mongo down")}
	stores, err = f.Find(context.Background(), StoreQuery{PinCode: "180001"}, nil)
	if err != nil || stores[0].KendraCode != "JK001" {
		t.Fatalf("built-in fallback: %+v %v", stores, err)
	}

	if _, err := f.Find(context.Background(), StoreQuery{PinCode: "999999"}, nil); !errors.Is(err, common.ErrNoMatchFound) {
		t.Fatalf("expected no_match_found, got %v", err)
	}
}

type fakeSearcher struct {
	info  *models.DrugInfo
	err   error
	calls int
}

func (f *fakeSearcher) SearchLabel(_ context.Context, name string) (*models.DrugInfo, error) {
	f.calls++
	return f.info, f.err
}

type fakeGenerator struct {
	reply string
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context, ai.GenerateRequest, *common.RequestContext) (string, *common.TokenUsage, error) {
	f.calls++
	return f.reply, &common.TokenUsage{TotalTokens: 42}, f.err
}

func (f *fakeGenerator) GetProviderName() string { return "fake" }

type fakeReference map[string]models.DrugInfo

func (f fakeReference) DrugReference(context.Context) (map[string]models.DrugInfo, error) {
	return f, nil
}

func TestDrugLookupAuthoritativeFirst(t *testing.T) {
	fda := &fakeSearcher{info: &models.DrugInfo{GenericName: "IBUPROFEN", Source: models.SourceAuthoritative}}
	gen := &fakeGenerator{}
	d := &DrugLookup{Authoritative: fda, Generator: gen}

	info, _, err := d.Lookup(context.Background(), "Ibuprofen 400mg", nil)
	if err != nil || info.Source != models.SourceAuthoritative {
		t.Fatalf("info = %+v, err = %v", info, err)
	}
	if gen.calls != 0 {
		t.Fatalf("generator should not run after an authoritative hit")
	}
}

func TestDrugLookupGeneratedTier(t *testing.T) {
	fda := &fakeSearcher{err: common.NoMatchFound(ProviderOpenFDA, "Metformin")}
	gen := &fakeGenerator{reply: `{"generic_name":"Metformin","purpose":"Controls blood sugar. Used in type 2 diabetes. Taken with meals."}`}
	d := &DrugLookup{Authoritative: fda, Generator: gen}

	info, usage, err := d.Lookup(context.Background(), "Metformin 500 mg", nil)
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info.Source != models.SourceGenerated || info.Purpose != "Controls blood sugar. Used in type 2 diabetes." {
		t.Fatalf("info = %+v", info)
	}
	if usage == nil || usage.TotalTokens != 42 {
		t.Fatalf("usage = %+v", usage)
	}
}

func TestDrugLookupFallsThroughToStatic(t *testing.T) {
	fda := &fakeSearcher{err: common.RequestFailedStatus(ProviderOpenFDA, 503, "")}
	gen := &fakeGenerator{err: common.RequestFailedStatus("fake", 429, "")}
	d := &DrugLookup{Authoritative: fda, Generator: gen}

	info, _, err := d.Lookup(context.Background(), "Paracetamol 650 mg tablet", common.NewRequestContext("test"))
	if err != nil {
		t.Fatalf("Lookup: %v", err)
	}
	if info.Source != models.SourceFallback || info.BrandName != "Tylenol" {
		t.Fatalf("info = %+v", info)
	}
}

func TestDrugLookupReferenceTable(t *testing.T) {
	d := &DrugLookup{Reference: fakeReference{"pantoprazole": {GenericName: "Pantoprazole"}}}
	info, _, err := d.Lookup(context.Background(), "Pantoprazole 40mg", nil)
	if err != nil || info.GenericName != "Pantoprazole" || info.Source != models.SourceFallback {
		t.Fatalf("info = %+v, err = %v", info, err)
	}
}

func TestDrugLookupNoMatch(t *testing.T) {
	d := &DrugLookup{
		Authoritative: &fakeSearcher{err: common.NoMatchFound(ProviderOpenFDA, "x")},
		Generator:     &fakeGenerator{reply: `{"unknown": true}`},
	}
	_, _, err := d.Lookup(context.Background(), "Zolpidem", nil)
	if !errors.Is(err, common.ErrNoMatchFound) {
		t.Fatalf("expected no_match_found, got %v", err)
	}

	if _, _, err := d.Lookup(context.Background(), "500 mg", nil); !errors.Is(err, common.ErrUnsupportedInput) {
		t.Fatalf("expected unsupported_input for an empty cleaned name, got %v", err)
	}
}
