package services

import (
	"context"
	"strings"
	"sync"

	"golang.org/x/sync/errgroup"

	"marketwatch/internal/cache"
	"marketwatch/internal/models"
)

// Global cache keys, one per catalog-wide dataset. The per-user watchlist
// key lives in watchlist_service.go.
const (
	keyIndianStocks  = "indian_stocks"
	keyUSStocks      = "us_stocks"
	keyIndianIndexes = "indian_indexes"
	keyGlobalIndexes = "global_indexes"
	keyMutualFunds   = "mutual_funds"
	keyWatchlists    = "watchlists"
)

// defaultDataType is served when the caller specifies no categories.
const defaultDataType = keyIndianStocks

// marketDataService aggregates the grouped market-data response: one field
// per requested category, each resolved independently through the
// read-through cache.
type marketDataService struct {
	cache      cache.Store
	catalog    CatalogServicer
	watchlists WatchlistServicer
}

// NewMarketDataService creates a new MarketDataServicer.
func NewMarketDataService(store cache.Store, catalog CatalogServicer, watchlists WatchlistServicer) MarketDataServicer {
	return &marketDataService{cache: store, catalog: catalog, watchlists: watchlists}
}

// parseDataTypes splits the comma-separated data_type parameter and trims
// whitespace. Empty input yields the default category.
func parseDataTypes(dataTypes string) []string {
	if strings.TrimSpace(dataTypes) == "" {
		return []string{defaultDataType}
	}
	parts := strings.Split(dataTypes, ",")
	requested := make([]string, 0, len(parts))
	for _, p := range parts {
		if t := strings.TrimSpace(p); t != "" {
			requested = append(requested, t)
		}
	}
	if len(requested) == 0 {
		return []string{defaultDataType}
	}
	return requested
}

// GetMarketData resolves each requested category through the cache and
// assembles one response object. Unrecognized category names are silently
// ignored. Category fetches have no ordering dependency on each other and
// run concurrently; assembly waits for all of them.
func (s *marketDataService) GetMarketData(ctx context.Context, userID *uint, dataTypes string) (map[string]any, error) {
	requested := make(map[string]bool)
	for _, t := range parseDataTypes(dataTypes) {
		requested[t] = true
	}

	// One membership snapshot per request, taken before the fanout, so all
	// categories flag against the same state.
	var membership MembershipSet
	if userID != nil && (requested[keyIndianStocks] || requested[keyUSStocks] || requested[keyMutualFunds]) {
		set, err := s.watchlists.MembershipSet(*userID)
		if err != nil {
			return nil, err
		}
		membership = set
	}

	response := make(map[string]any)
	var mu sync.Mutex
	g, ctx := errgroup.WithContext(ctx)

	collect := func(key string, fetch func() (any, error)) {
		g.Go(func() error {
			value, err := fetch()
			if err != nil {
				return err
			}
			mu.Lock()
			response[key] = value
			mu.Unlock()
			return nil
		})
	}

	if requested[keyIndianStocks] {
		collect(keyIndianStocks, func() (any, error) {
			return s.stocksDataset(ctx, keyIndianStocks, "India", membership)
		})
	}

	if requested[keyUSStocks] {
		collect(keyUSStocks, func() (any, error) {
			return s.stocksDataset(ctx, keyUSStocks, "USA", membership)
		})
	}

	if requested[keyIndianIndexes] {
		collect(keyIndianIndexes, func() (any, error) {
			return cache.GetOrFetch(ctx, s.cache, keyIndianIndexes, func() ([]IndexView, error) {
				return s.catalog.ListIndexesByCountry("India", true)
			})
		})
	}

	if requested[keyGlobalIndexes] {
		collect(keyGlobalIndexes, func() (any, error) {
			return cache.GetOrFetch(ctx, s.cache, keyGlobalIndexes, func() ([]IndexView, error) {
				return s.catalog.ListIndexesByCountry("India", false)
			})
		})
	}

	if requested[keyMutualFunds] {
		collect(keyMutualFunds, func() (any, error) {
			funds, err := cache.GetOrFetch(ctx, s.cache, keyMutualFunds, s.catalog.ListMutualFunds)
			if err != nil {
				return nil, err
			}
			for i := range funds {
				funds[i].WatchlistStatus = membership.Has(models.AssetKindMutualFund, funds[i].ID)
			}
			return funds, nil
		})
	}

	if requested[keyWatchlists] {
		if userID == nil {
			// Anonymous callers get an empty collection, not an error. Goes
			// through collect so the response map only sees locked writes.
			collect(keyWatchlists, func() (any, error) {
				return []WatchlistView{}, nil
			})
		} else {
			id := *userID
			collect(keyWatchlists, func() (any, error) {
				return cache.GetOrFetch(ctx, s.cache, userWatchlistCacheKey(id), func() ([]WatchlistView, error) {
					return s.watchlists.ListWatchlists(id)
				})
			})
		}
	}

	if err := g.Wait(); err != nil {
		return nil, err
	}
	return response, nil
}

// stocksDataset serves one country-filtered stock dataset through the
// cache, then overlays the caller's watchlist flags. The cached payload is
// user-neutral; flags never enter the cache.
func (s *marketDataService) stocksDataset(ctx context.Context, key, country string, membership MembershipSet) (any, error) {
	stocks, err := cache.GetOrFetch(ctx, s.cache, key, func() ([]StockView, error) {
		return s.catalog.ListStocksByExchangeCountry(country)
	})
	if err != nil {
		return nil, err
	}
	for i := range stocks {
		stocks[i].WatchlistStatus = membership.Has(models.AssetKindStock, stocks[i].ID)
	}
	return stocks, nil
}
