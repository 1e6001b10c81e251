package services

import (
	"errors"
	"fmt"

	"gorm.io/gorm"

	apperrors "marketwatch/internal/errors"
	"marketwatch/internal/logger"
	"marketwatch/internal/models"
)

// assetKindEntry wires one supported asset kind into the reference
// mechanism: how to check a row exists and how to expand a reference into
// its full output payload.
type assetKindEntry struct {
	exists func(db *gorm.DB, id uint) (bool, error)
	expand func(db *gorm.DB, id uint) (any, error)
}

// assetKinds is the closed registry of referencable asset kinds. Adding a
// kind means adding one entry here; nothing else dispatches on kind.
var assetKinds = map[models.AssetKind]assetKindEntry{
	models.AssetKindStock: {
		exists: existsByID[models.Stock],
		expand: func(db *gorm.DB, id uint) (any, error) {
			var stock models.Stock
			err := db.Preload("Exchange").Preload("Sector").Preload("Index").
				First(&stock, id).Error
			if err != nil {
				return nil, err
			}
			view := NewStockView(&stock)
			// The asset is being expanded from inside a watchlist, so
			// membership is true by construction.
			view.WatchlistStatus = true
			return view, nil
		},
	},
	models.AssetKindMutualFund: {
		exists: existsByID[models.MutualFund],
		expand: func(db *gorm.DB, id uint) (any, error) {
			var fund models.MutualFund
			if err := db.First(&fund, id).Error; err != nil {
				return nil, err
			}
			view := NewMutualFundView(&fund)
			view.WatchlistStatus = true
			return view, nil
		},
	},
	models.AssetKindIndex: {
		exists: existsByID[models.Index],
		expand: func(db *gorm.DB, id uint) (any, error) {
			var index models.Index
			if err := db.First(&index, id).Error; err != nil {
				return nil, err
			}
			return NewIndexView(&index), nil
		},
	},
}

// existsByID reports whether a row of model type T with the given ID exists.
func existsByID[T any](db *gorm.DB, id uint) (bool, error) {
	var count int64
	var model T
	if err := db.Model(&model).Where("id = ?", id).Count(&count).Error; err != nil {
		return false, err
	}
	return count > 0, nil
}

// resolveAssetRef validates an (asset_type, asset_id) pair against the
// registry: the kind must be one of the supported kinds (matched
// case-insensitively) and the id must point at an existing row of that
// kind. Resolution is a pure lookup with no side effects.
func resolveAssetRef(db *gorm.DB, assetType string, assetID uint) (models.AssetKind, error) {
	kind, ok := models.ParseAssetKind(assetType)
	if !ok {
		return "", apperrors.WithMessage(apperrors.ErrInvalidAssetKind,
			fmt.Sprintf("Invalid asset_type '%s'", assetType))
	}

	found, err := assetKinds[kind].exists(db, assetID)
	if err != nil {
		return "", apperrors.Wrap(apperrors.ErrInternalServer, err)
	}
	if !found {
		return "", apperrors.WithMessage(apperrors.ErrAssetNotFound,
			fmt.Sprintf("%s with id %d not found", kind, assetID))
	}
	return kind, nil
}

// expandAssetRef renders the asset behind a reference to the full payload
// of its concrete kind. Read paths must never hard-fail on stale data, so
// an unknown kind or a dangling id degrades to a minimal string
// representation instead of an error.
func expandAssetRef(db *gorm.DB, kind models.AssetKind, assetID uint) any {
	entry, ok := assetKinds[kind]
	if !ok {
		return fmt.Sprintf("%s:%d", kind, assetID)
	}
	view, err := entry.expand(db, assetID)
	if err != nil {
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			logger.Get().Warnw("asset expansion failed",
				"kind", kind,
				"asset_id", assetID,
				"error", err,
			)
		}
		return fmt.Sprintf("%s:%d", kind, assetID)
	}
	return view
}
