package services

import (
	"context"

	"gorm.io/gorm"

	"marketwatch/internal/models"
)

// UserServicer defines the contract for user-related business logic.
type UserServicer interface {
	CreateUser(email, password, firstName, lastName string) (*models.User, error)
	GetUserByEmail(email string) (*models.User, error)
	GetUserByID(id uint) (*models.User, error)
	VerifyPassword(user *models.User, password string) bool
	AttemptLogin(email, password string) (*models.User, error)
	StoreRefreshTokenHash(userID uint, tokenHash string) error
	GetRefreshTokenHash(userID uint) (string, error)
}

// CatalogServicer defines the contract for the read-mostly asset catalog.
// Catalog rows are import-driven; there are no user-facing writes.
type CatalogServicer interface {
	ListStocksByExchangeCountry(country string) ([]StockView, error)
	ListIndexesByCountry(country string, include bool) ([]IndexView, error)
	ListMutualFunds() ([]MutualFundView, error)
}

// MembershipSet holds one user's watchlist memberships keyed by asset kind
// and id, for overlaying watchlist_status flags onto cached datasets.
type MembershipSet map[models.AssetKind]map[uint]bool

// Has reports whether the set contains the given reference.
func (m MembershipSet) Has(kind models.AssetKind, id uint) bool {
	return m[kind][id]
}

// WatchlistServicer defines the contract for per-user watchlists over
// polymorphic asset references.
type WatchlistServicer interface {
	// EnsureWatchlistForUser provisions the user's watchlist. It runs on the
	// given transaction so user creation and watchlist creation commit
	// atomically; concurrent retries still yield exactly one watchlist.
	EnsureWatchlistForUser(tx *gorm.DB, userID uint) (*models.Watchlist, error)
	GetWatchlist(userID uint) (*models.Watchlist, error)
	// ListWatchlists renders all of the user's watchlists with nested
	// expanded items. An unprovisioned user gets an empty slice, not an
	// error; the hard NO_WATCHLIST failure belongs to GetWatchlist.
	ListWatchlists(userID uint) ([]WatchlistView, error)
	// AddAsset adds a reference to the user's watchlist. created is false
	// when the reference was already present, which is a success, not an
	// error.
	AddAsset(ctx context.Context, userID uint, assetType string, assetID uint) (created bool, err error)
	RemoveAsset(ctx context.Context, userID uint, assetType string, assetID uint) error
	// ListWatchlist returns the user's watchlist grouped by asset kind with
	// every item expanded.
	ListWatchlist(userID uint) (*WatchlistDetail, error)
	MembershipSet(userID uint) (MembershipSet, error)
}

// MarketDataServicer defines the contract for the grouped market-data
// aggregator. userID is nil for anonymous callers.
type MarketDataServicer interface {
	GetMarketData(ctx context.Context, userID *uint, dataTypes string) (map[string]any, error)
}

// AuditServicer defines the contract for audit logging.
type AuditServicer interface {
	Log(userID uint, action, resourceType string, resourceID uint, ipAddress string, changes map[string]any)
}
