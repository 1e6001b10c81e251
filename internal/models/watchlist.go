package models

import (
	"strings"
	"time"
)

// AssetKind identifies which catalog table a watchlist item points at.
// The set is closed: only kinds listed here can be referenced, everything
// else is rejected at parse time.
type AssetKind string

const (
	AssetKindStock      AssetKind = "stock"
	AssetKindMutualFund AssetKind = "mutualfund"
	AssetKindIndex      AssetKind = "index"
)

// ParseAssetKind matches a wire-format asset type case-insensitively
// against the closed set of supported kinds.
func ParseAssetKind(s string) (AssetKind, bool) {
	switch AssetKind(strings.ToLower(s)) {
	case AssetKindStock:
		return AssetKindStock, true
	case AssetKindMutualFund:
		return AssetKindMutualFund, true
	case AssetKindIndex:
		return AssetKindIndex, true
	}
	return "", false
}

// Watchlist is a user-owned collection of asset references. Every user gets
// exactly one, created in the same transaction as the user row.
type Watchlist struct {
	Base
	UserID  uint            `gorm:"not null;uniqueIndex" json:"user_id"`
	Name    string          `gorm:"default:'my_watchlist'" json:"name"`
	IsBlock bool            `gorm:"default:false" json:"is_block"`
	Items   []WatchlistItem `gorm:"foreignKey:WatchlistID;constraint:OnDelete:CASCADE" json:"items,omitempty"`
}

// WatchlistItem links a watchlist to one asset via a (kind, id) reference.
// The unique index is the authority for duplicate detection: a concurrent
// double-add surfaces as a duplicate-key error, not a second row.
//
// Items are hard-deleted (no gorm.DeletedAt): a soft-deleted row would keep
// holding the unique slot and block re-adding the same asset. Deleting an
// item never touches the referenced asset.
type WatchlistItem struct {
	ID          uint      `gorm:"primaryKey" json:"id"`
	WatchlistID uint      `gorm:"not null;uniqueIndex:uq_watchlist_items_ref" json:"watchlist_id"`
	AssetKind   AssetKind `gorm:"size:20;not null;uniqueIndex:uq_watchlist_items_ref" json:"asset_kind"`
	AssetID     uint      `gorm:"not null;uniqueIndex:uq_watchlist_items_ref" json:"asset_id"`
	IsBlock     bool      `gorm:"default:false" json:"is_block"`
	CreatedAt   time.Time `json:"created_at"`
}
