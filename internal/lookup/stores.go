// stores.go - Store search over the remote directory or the local table

package lookup

import (
	"context"
	"strings"

	"github.com/bosocmputer/prescription_analyzer/internal/common"
	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// MaxStores caps every store search result
const MaxStores = 10

// StoreSource supplies the local store directory
type StoreSource interface {
	Stores(ctx context.Context) ([]models.Store, error)
}

// StoreQuery filters the store directory. At least one field is required.
type StoreQuery struct {
	PinCode  string `form:"pin_code" json:"pin_code"`
	State    string `form:"state" json:"state"`
	District string `form:"district" json:"district"`
}

// Validate checks the PIN format
func (q StoreQuery) Validate() error {
	q.PinCode = strings.TrimSpace(q.PinCode)
	if q.PinCode == "" && strings.TrimSpace(q.State) == "" && strings.TrimSpace(q.District) == "" {
		return common.UnsupportedInput("pin_code, state or district is required")
	}
	if q.PinCode != "" {
		if len(q.PinCode) != 6 {
			return common.UnsupportedInput("pin_code must have 6 digits")
		}
		for _, r := range q.PinCode {
			if r < '0' || r > '9' {
				return common.UnsupportedInput("pin_code must have 6 digits")
			}
		}
	}
	return nil
}

var builtinStores = []models.Store{
	{SrNo: "1", KendraCode: "JK001", OwnerName: "Rajesh Kumar", Address: "123, Main Street, Gandhi Nagar", District: "Jammu", State: "Jammu & Kashmir", PinCode: "180001", ContactNo: "9876543210"},
	{SrNo: "2", KendraCode: "DL002", OwnerName: "Priya Singh", Address: "45, Market Road, Connaught Place", District: "New Delhi", State: "Delhi", PinCode: "110001", ContactNo: "9876543211"},
	{SrNo: "3", KendraCode: "MH003", OwnerName: "Amit Patel", Address: "78, Link Road, Andheri West", District: "Mumbai", State: "Maharashtra", PinCode: "400053", ContactNo: "9876543212"},
	{SrNo: "4", KendraCode: "MH004", OwnerName: "Suresh Shah", Address: "15, Market Road, Andheri East", District: "Mumbai", State: "Maharashtra", PinCode: "400069", ContactNo: "9876543213"},
	{SrNo: "5", KendraCode: "MH005", OwnerName: "Rahul Desai", Address: "45, Link Road, Borivali West", District: "Mumbai", State: "Maharashtra", PinCode: "400092", ContactNo: "9876543214"},
}

// BuiltinStores returns a copy of the built-in directory
func BuiltinStores() []models.Store {
	out := make([]models.Store, len(builtinStores))
	copy(out, builtinStores)
	return out
}

// FilterStores narrows stores by exact PIN (or its 3-digit area prefix when
// no store has the exact PIN), then state, then district
func FilterStores(stores []models.Store, q StoreQuery) []models.Store {
	filtered := stores

	if pin := strings.TrimSpace(q.PinCode); pin != "" {
		exact := filterStores(filtered, func(s models.Store) bool { return s.PinCode == pin })
		if len(exact) > 0 {
			filtered = exact
		} else if len(pin) >= 3 {
			prefix := pin[:3]
			filtered = filterStores(filtered, func(s models.Store) bool { return strings.HasPrefix(s.PinCode, prefix) })
		} else {
			filtered = nil
		}
	}
	if state := strings.TrimSpace(q.State); state != "" {
		filtered = filterStores(filtered, func(s models.Store) bool { return strings.EqualFold(s.State, state) })
	}
	if district := strings.TrimSpace(q.District); district != "" {
		filtered = filterStores(filtered, func(s models.Store) bool { return strings.EqualFold(s.District, district) })
	}

	if len(filtered) > MaxStores {
		filtered = filtered[:MaxStores]
	}
	return filtered
}

func filterStores(stores []models.Store, keep func(models.Store) bool) []models.Store {
	var out []models.Store
	for _, s := range stores {
		if keep(s) {
			out = append(out, s)
		}
	}
	return out
}

// StoreFinder searches the remote directory by distance when it is
// configured and a PIN is given, and the local directory otherwise
type StoreFinder struct {
	Remote    *JanAushadhiClient
	Directory StoreSource
}

// Find returns at most MaxStores stores for q
func (f *StoreFinder) Find(ctx context.Context, q StoreQuery, reqCtx *common.RequestContext) ([]models.Store, error) {
	if err := q.Validate(); err != nil {
		return nil, err
	}

	if f.Remote.Configured() && q.PinCode != "" {
		stores, err := f.Remote.FindStores(ctx, strings.TrimSpace(q.PinCode))
		if err == nil {
			if len(stores) > MaxStores {
				stores = stores[:MaxStores]
			}
			return stores, nil
		}
		if reqCtx != nil {
			reqCtx.LogWarning("remote store search failed, using local directory: %v", err)
		}
	}

	directory := BuiltinStores()
	if f.Directory != nil {
		stores, err := f.Directory.Stores(ctx)
		if err != nil {
			if reqCtx != nil {
				reqCtx.LogWarning("store directory unavailable, using built-in table: %v", err)
			}
		} else if len(stores) > 0 {
			directory = stores
		}
	}

	found := FilterStores(directory, q)
	if len(found) == 0 {
		return nil, common.NoMatchFound("store-directory", strings.TrimSpace(strings.Join([]string{q.PinCode, q.State, q.District}, " ")))
	}
	return found, nil
}
