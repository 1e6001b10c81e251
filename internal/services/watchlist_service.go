package services

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	"marketwatch/internal/cache"
	apperrors "marketwatch/internal/errors"
	"marketwatch/internal/logger"
	"marketwatch/internal/models"
)

// userWatchlistCacheKey is the per-user cache key for rendered watchlists.
func userWatchlistCacheKey(userID uint) string {
	return fmt.Sprintf("watchlists_user_%d", userID)
}

// watchlistService handles watchlist membership over polymorphic asset
// references.
type watchlistService struct {
	db    *gorm.DB
	cache cache.Store
}

// NewWatchlistService creates a new WatchlistServicer.
func NewWatchlistService(db *gorm.DB, store cache.Store) WatchlistServicer {
	return &watchlistService{db: db, cache: store}
}

// EnsureWatchlistForUser provisions the user's watchlist. Runs on the
// caller's transaction; the unique index on watchlists.user_id guarantees
// at most one watchlist per user even under concurrent retries.
func (s *watchlistService) EnsureWatchlistForUser(tx *gorm.DB, userID uint) (*models.Watchlist, error) {
	var watchlist models.Watchlist
	err := tx.Where("user_id = ?", userID).
		Attrs(models.Watchlist{UserID: userID, Name: "my_watchlist"}).
		FirstOrCreate(&watchlist).Error
	if err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			// Lost a provisioning race; the winner's row is the watchlist.
			if err := tx.Where("user_id = ?", userID).First(&watchlist).Error; err != nil {
				return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
			}
			return &watchlist, nil
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &watchlist, nil
}

// GetWatchlist returns the user's watchlist. A missing watchlist is a
// provisioning bug, not an empty state, so it surfaces as NO_WATCHLIST
// rather than being auto-created.
func (s *watchlistService) GetWatchlist(userID uint) (*models.Watchlist, error) {
	var watchlist models.Watchlist
	if err := s.db.Where("user_id = ?", userID).First(&watchlist).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, apperrors.ErrNoWatchlist
		}
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	return &watchlist, nil
}

// AddAsset resolves the reference and inserts a membership row. The
// pre-insert existence check is only a short circuit; the unique index is
// the authority, and a duplicate-key error from the insert is converted
// into the already-present success signal.
func (s *watchlistService) AddAsset(ctx context.Context, userID uint, assetType string, assetID uint) (bool, error) {
	watchlist, err := s.GetWatchlist(userID)
	if err != nil {
		return false, err
	}

	kind, err := resolveAssetRef(s.db, assetType, assetID)
	if err != nil {
		return false, err
	}

	var count int64
	err = s.db.Model(&models.WatchlistItem{}).
		Where("watchlist_id = ? AND asset_kind = ? AND asset_id = ?", watchlist.ID, kind, assetID).
		Count(&count).Error
	if err != nil {
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if count > 0 {
		return false, nil
	}

	item := &models.WatchlistItem{
		WatchlistID: watchlist.ID,
		AssetKind:   kind,
		AssetID:     assetID,
	}
	if err := s.db.Create(item).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return false, nil
		}
		return false, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	s.invalidateUserCache(ctx, userID)
	return true, nil
}

// RemoveAsset deletes the matching membership row.
func (s *watchlistService) RemoveAsset(ctx context.Context, userID uint, assetType string, assetID uint) error {
	watchlist, err := s.GetWatchlist(userID)
	if err != nil {
		return err
	}

	kind, err := resolveAssetRef(s.db, assetType, assetID)
	if err != nil {
		return err
	}

	result := s.db.
		Where("watchlist_id = ? AND asset_kind = ? AND asset_id = ?", watchlist.ID, kind, assetID).
		Delete(&models.WatchlistItem{})
	if result.Error != nil {
		return apperrors.Wrap(apperrors.ErrInternalServer, result.Error)
	}
	if result.RowsAffected == 0 {
		return apperrors.ErrItemNotFound
	}

	s.invalidateUserCache(ctx, userID)
	return nil
}

// ListWatchlist returns the user's watchlist grouped by asset kind, each
// group fully expanded. Items whose kind is no longer wired are omitted.
func (s *watchlistService) ListWatchlist(userID uint) (*WatchlistDetail, error) {
	watchlist, err := s.GetWatchlist(userID)
	if err != nil {
		return nil, err
	}

	var items []models.WatchlistItem
	err = s.db.Where("watchlist_id = ?", watchlist.ID).
		Order("created_at").
		Find(&items).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	idsByKind := make(map[models.AssetKind][]uint)
	for _, item := range items {
		idsByKind[item.AssetKind] = append(idsByKind[item.AssetKind], item.AssetID)
	}

	detail := &WatchlistDetail{
		Stocks:      []StockView{},
		MutualFunds: []MutualFundView{},
		Indexes:     []IndexView{},
	}

	if ids := idsByKind[models.AssetKindStock]; len(ids) > 0 {
		var stocks []models.Stock
		err := s.db.Preload("Exchange").Preload("Sector").Preload("Index").
			Where("id IN ?", ids).Find(&stocks).Error
		if err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range stocks {
			view := NewStockView(&stocks[i])
			view.WatchlistStatus = true
			detail.Stocks = append(detail.Stocks, view)
		}
	}

	if ids := idsByKind[models.AssetKindMutualFund]; len(ids) > 0 {
		var funds []models.MutualFund
		if err := s.db.Where("id IN ?", ids).Find(&funds).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range funds {
			view := NewMutualFundView(&funds[i])
			view.WatchlistStatus = true
			detail.MutualFunds = append(detail.MutualFunds, view)
		}
	}

	if ids := idsByKind[models.AssetKindIndex]; len(ids) > 0 {
		var indexes []models.Index
		if err := s.db.Where("id IN ?", ids).Find(&indexes).Error; err != nil {
			return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
		}
		for i := range indexes {
			detail.Indexes = append(detail.Indexes, NewIndexView(&indexes[i]))
		}
	}

	return detail, nil
}

// ListWatchlists renders all of the user's watchlists with nested expanded
// items. This is the extension point for named multiple watchlists; today
// it returns at most one.
func (s *watchlistService) ListWatchlists(userID uint) ([]WatchlistView, error) {
	var watchlists []models.Watchlist
	err := s.db.Preload("Items", func(db *gorm.DB) *gorm.DB {
		return db.Order("watchlist_items.created_at")
	}).Where("user_id = ?", userID).Find(&watchlists).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]WatchlistView, 0, len(watchlists))
	for _, watchlist := range watchlists {
		view := WatchlistView{
			ID:        watchlist.ID,
			Name:      watchlist.Name,
			CreatedAt: watchlist.CreatedAt,
			Items:     make([]WatchlistItemView, 0, len(watchlist.Items)),
		}
		for _, item := range watchlist.Items {
			view.Items = append(view.Items, WatchlistItemView{
				ID:        item.ID,
				AssetKind: item.AssetKind,
				Asset:     expandAssetRef(s.db, item.AssetKind, item.AssetID),
				CreatedAt: item.CreatedAt,
			})
		}
		views = append(views, view)
	}
	return views, nil
}

// MembershipSet loads the user's full membership set in one query.
func (s *watchlistService) MembershipSet(userID uint) (MembershipSet, error) {
	var rows []models.WatchlistItem
	err := s.db.Model(&models.WatchlistItem{}).
		Joins("JOIN watchlists ON watchlists.id = watchlist_items.watchlist_id AND watchlists.deleted_at IS NULL").
		Where("watchlists.user_id = ?", userID).
		Select("watchlist_items.asset_kind", "watchlist_items.asset_id").
		Find(&rows).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	set := make(MembershipSet)
	for _, row := range rows {
		if set[row.AssetKind] == nil {
			set[row.AssetKind] = make(map[uint]bool)
		}
		set[row.AssetKind][row.AssetID] = true
	}
	return set, nil
}

// invalidateUserCache evicts the caller's cached watchlist view after a
// successful write so reads observe the change immediately instead of
// after the TTL window.
func (s *watchlistService) invalidateUserCache(ctx context.Context, userID uint) {
	if err := s.cache.Delete(ctx, userWatchlistCacheKey(userID)); err != nil {
		logger.Get().Warnw("watchlist cache invalidation failed",
			"user_id", userID,
			"error", err,
		)
	}
}
