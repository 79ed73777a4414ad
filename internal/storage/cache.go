// cache.go - In-memory cache for reference data

package storage

import (
	"context"
	"sync"
	"time"

	"github.com/bosocmputer/prescription_analyzer/internal/models"
)

// ReferenceDataCache holds the store directory and drug reference table
type ReferenceDataCache struct {
	Stores   []models.Store
	Drugs    map[string]models.DrugInfo
	LoadedAt time.Time
}

var referenceCache *ReferenceDataCache
var cacheMutex sync.RWMutex

const CACHE_TTL = 5 * time.Minute // Cache expires after 5 minutes

// Loaders, replaced in tests
var (
	loadStores        = GetStores
	loadDrugReference = GetDrugReference
)

// GetOrLoadReferenceData returns cached reference data or loads it from DB
func GetOrLoadReferenceData(ctx context.Context) (*ReferenceDataCache, error) {
	cacheMutex.RLock()
	cache := referenceCache
	cacheMutex.RUnlock()

	if cache != nil && time.Since(cache.LoadedAt) < CACHE_TTL {
		return cache, nil
	}

	cacheMutex.Lock()
	defer cacheMutex.Unlock()

	// Double-check after acquiring write lock
	if referenceCache != nil && time.Since(referenceCache.LoadedAt) < CACHE_TTL {
		return referenceCache, nil
	}

	stores, err := loadStores(ctx)
	if err != nil {
		return nil, err
	}

	drugs, err := loadDrugReference(ctx)
	if err != nil {
		return nil, err
	}

	referenceCache = &ReferenceDataCache{
		Stores:   stores,
		Drugs:    drugs,
		LoadedAt: time.Now(),
	}
	return referenceCache, nil
}

// InvalidateCache drops the cached reference data
func InvalidateCache() {
	cacheMutex.Lock()
	defer cacheMutex.Unlock()
	referenceCache = nil
}

// ReferenceData serves the cached reference data to the lookup package
type ReferenceData struct{}

// Stores returns the cached store directory
func (ReferenceData) Stores(ctx context.Context) ([]models.Store, error) {
	cache, err := GetOrLoadReferenceData(ctx)
	if err != nil {
		return nil, err
	}
	return cache.Stores, nil
}

// DrugReference returns the cached drug reference table
func (ReferenceData) DrugReference(ctx context.Context) (map[string]models.DrugInfo, error) {
	cache, err := GetOrLoadReferenceData(ctx)
	if err != nil {
		return nil, err
	}
	return cache.Drugs, nil
}
