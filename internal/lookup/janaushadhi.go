// janaushadhi.go - Jan Aushadhi generic medicine and store search

package lookup

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/bosocmputer/prescription_analyzer/configs"
	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
	"github.com/bosocmputer/prescription_analyzer/internal/ratelimit"
)

// ProviderJanAushadhi is the generic-medicine and store directory service
const ProviderJanAushadhi = "jan-aushadhi"

const (
	serviceMedicineSearch = "1089"
	serviceStoreSearch    = "1090"
	pageSize              = "50"
)

// JanAushadhiClient calls the Jan Aushadhi gateway. Every call needs an API key.
type JanAushadhiClient struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
}

// NewJanAushadhiClient creates a client from cfg
func NewJanAushadhiClient(cfg *configs.Config, limiter *ratelimit.Limiter) *JanAushadhiClient {
	c := &JanAushadhiClient{
		baseURL:    "https://apigw.umangapp.in/janAushadhiApi/ws1",
		httpClient: &http.Client{Timeout: 10 * time.Second},
		limiter:    limiter,
	}
	if cfg != nil {
		c.apiKey = cfg.JanAushadhiAPIKey
		if cfg.JanAushadhiBaseURL != "" {
			c.baseURL = strings.TrimRight(cfg.JanAushadhiBaseURL, "/")
		}
		if cfg.LookupTimeout > 0 {
			c.httpClient.Timeout = time.Duration(cfg.LookupTimeout) * time.Second
		}
	}
	return c
}

// Configured reports whether an API key is set
func (c *JanAushadhiClient) Configured() bool {
	return c != nil && c.apiKey != ""
}

type janResponse struct {
	RS string `json:"rs"`
	RC string `json:"rc"`
	RD string `json:"rd"`
	PD struct {
		Success string          `json:"success"`
		Message string          `json:"message"`
		Data    json.RawMessage `json:"data"`
	} `json:"pd"`
}

type janMedicine struct {
	MedicineID   string  `json:"medicineId"`
	GenericName  string  `json:"generic_Name"`
	CompanyName  string  `json:"companyName"`
	MRP          string  `json:"mrp"`
	UnitSize     string  `json:"unitSize"`
	PerUnitMRP   string  `json:"peR_UNIT_MRP"`
	SavingsPerc  *string `json:"savingsPerc"`
	SavingAmount *string `json:"savingAmount"`
	ItemCode     string  `json:"itemCode"`
}

type janStore struct {
	StoreID            string `json:"storeId"`
	StoreName          string `json:"storeName"`
	StoreContactPerson string `json:"storeContactPerson"`
	Address            string `json:"address"`
	District           string `json:"district"`
	State              string `json:"state"`
	Pincode            string `json:"pincode"`
	DistanceFromUser   string `json:"distanceFromUser"`
	MobileNo           string `json:"mobileNo"`
	StoreNo            string `json:"storeNo"`
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

// SearchMedicine returns generic alternatives for name, cheapest first
func (c *JanAushadhiClient) SearchMedicine(ctx context.Context, name string) ([]models.GenericAlternative, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, common.UnsupportedInput("medicine name is required")
	}

	body := c.baseBody(serviceMedicineSearch)
	body["searchText"] = name
	body["orderBy"] = "MRP ASC"

	var items []janMedicine
	if err := c.post(ctx, "/searchmedicinebyname", serviceMedicineSearch, body, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, common.NoMatchFound(ProviderJanAushadhi, name)
	}

	alts := make([]models.GenericAlternative, 0, len(items))
	for _, it := range items {
		alts = append(alts, models.GenericAlternative{
			MedicineID:   it.MedicineID,
			GenericName:  it.GenericName,
			CompanyName:  it.CompanyName,
			MRP:          it.MRP,
			UnitSize:     it.UnitSize,
			PerUnitMRP:   it.PerUnitMRP,
			SavingsPerc:  deref(it.SavingsPerc),
			SavingAmount: deref(it.SavingAmount),
			ItemCode:     it.ItemCode,
		})
	}
	sort.SliceStable(alts, func(i, j int) bool {
		return parseAmount(alts[i].MRP) < parseAmount(alts[j].MRP)
	})
	return alts, nil
}

// FindStores returns stores near pinCode, nearest first
func (c *JanAushadhiClient) FindStores(ctx context.Context, pinCode string) ([]models.Store, error) {
	body := c.baseBody(serviceStoreSearch)
	body["searchText"] = pinCode
	body["city"] = ""

	var items []janStore
	if err := c.post(ctx, "/findstoredistance", serviceStoreSearch, body, &items); err != nil {
		return nil, err
	}
	if len(items) == 0 {
		return nil, common.NoMatchFound(ProviderJanAushadhi, pinCode)
	}

	stores := make([]models.Store, 0, len(items))
	for _, it := range items {
		stores = append(stores, models.Store{
			SrNo:       it.StoreNo,
			KendraCode: it.StoreID,
			Name:       it.StoreName,
			OwnerName:  it.StoreContactPerson,
			ContactNo:  it.MobileNo,
			Address:    it.Address,
			State:      it.State,
			District:   it.District,
			PinCode:    it.Pincode,
			DistanceKm: parseAmount(it.DistanceFromUser),
		})
	}
	sort.SliceStable(stores, func(i, j int) bool {
		return stores[i].DistanceKm < stores[j].DistanceKm
	})
	return stores, nil
}

// parseAmount reads a decimal string, sorting unparseable values last
func parseAmount(s string) float64 {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 1e18
	}
	return v
}

func (c *JanAushadhiClient) baseBody(service string) map[string]interface{} {
	trkr := strconv.FormatInt(time.Now().UnixMilli(), 10)
	return map[string]interface{}{
		"tkn":      "",
		"trkr":     trkr,
		"apitrkr":  trkr,
		"lang":     "en",
		"lac":      "90",
		"did":      "37",
		"usag":     "90",
		"usrid":    "",
		"mode":     "web",
		"pltfrm":   "ios",
		"formtrkr": "0",
		"srvid":    "180",
		"subsid":   "0",
		"subsid2":  "0",
		"deptid":   service,
		"pageNo":   "1",
		"pageSize": pageSize,
	}
}

func (c *JanAushadhiClient) post(ctx context.Context, path, service string, body map[string]interface{}, out interface{}) error {
	if !c.Configured() {
		return common.CredentialMissing(ProviderJanAushadhi)
	}
	if err := c.limiter.Wait(ctx, ProviderJanAushadhi); err != nil {
		return common.RequestFailed(ProviderJanAushadhi, err)
	}

	payload, err := json.Marshal(body)
	if err != nil {
		return common.RequestFailed(ProviderJanAushadhi, err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return common.RequestFailed(ProviderJanAushadhi, err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")
	req.Header.Set("x-api-key", c.apiKey)
	req.Header.Set("deptid", "180")
	req.Header.Set("srvid", service)
	req.Header.Set("formtrkr", "0")
	req.Header.Set("subsid", "0")
	req.Header.Set("subsid2", "0")
	req.Header.Set("tenantid", "")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return common.RequestFailed(ProviderJanAushadhi, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		detail, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return common.RequestFailedStatus(ProviderJanAushadhi, resp.StatusCode, strings.TrimSpace(string(detail)))
	}

	var env janResponse
	if err := json.NewDecoder(resp.Body).Decode(&env); err != nil {
		return common.RequestFailed(ProviderJanAushadhi, fmt.Errorf("failed to decode response: %w", err))
	}
	if env.RS != "S" || env.PD.Success != "true" {
		msg := env.RD
		if msg == "" {
			msg = env.PD.Message
		}
		return common.RequestFailedStatus(ProviderJanAushadhi, http.StatusBadGateway, msg)
	}
	if len(env.PD.Data) == 0 || string(env.PD.Data) == "null" {
		return nil
	}
	if err := json.Unmarshal(env.PD.Data, out); err != nil {
		return common.RequestFailed(ProviderJanAushadhi, fmt.Errorf("failed to decode data: %w", err))
	}
	return nil
}
