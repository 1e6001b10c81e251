package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"marketwatch/internal/cache"
	"marketwatch/internal/models"
	"marketwatch/internal/testutil"

	"gorm.io/gorm"
)

func newTestWatchlistService(t *testing.T, db *gorm.DB) (WatchlistServicer, cache.Store) {
	t.Helper()
	store := cache.NewMemoryCache(time.Minute)
	t.Cleanup(store.Close)
	return NewWatchlistService(db, store), store
}

func TestEnsureWatchlistForUser(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestWatchlistService(t, db)

	user := testutil.CreateTestUser(t, db)

	first, err := svc.EnsureWatchlistForUser(db, user.ID)
	testutil.AssertNoError(t, err)
	if first.Name != "my_watchlist" {
		t.Errorf("expected default name my_watchlist, got %s", first.Name)
	}

	// A second call returns the existing watchlist instead of creating another.
	second, err := svc.EnsureWatchlistForUser(db, user.ID)
	testutil.AssertNoError(t, err)
	if second.ID != first.ID {
		t.Errorf("expected same watchlist on repeat call, got %d and %d", first.ID, second.ID)
	}

	var count int64
	if err := db.Model(&models.Watchlist{}).Where("user_id = ?", user.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count watchlists: %v", err)
	}
	if count != 1 {
		t.Errorf("expected exactly one watchlist, got %d", count)
	}
}

func TestGetWatchlist(t *testing.T) {
	t.Run("found", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		created := testutil.CreateTestWatchlist(t, db, user.ID)

		watchlist, err := svc.GetWatchlist(user.ID)
		testutil.AssertNoError(t, err)
		if watchlist.ID != created.ID {
			t.Errorf("expected watchlist ID %d, got %d", created.ID, watchlist.ID)
		}
	})

	t.Run("missing", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)

		_, err := svc.GetWatchlist(user.ID)
		testutil.AssertAppError(t, err, "NO_WATCHLIST")
	})
}

func TestAddAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("creates_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)

		created, err := svc.AddAsset(ctx, user.ID, "stock", stock.ID)
		testutil.AssertNoError(t, err)
		if !created {
			t.Error("expected first add to report created")
		}

		var count int64
		err = db.Model(&models.WatchlistItem{}).Where("watchlist_id = ?", watchlist.ID).Count(&count).Error
		if err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 1 {
			t.Errorf("expected one item, got %d", count)
		}
	})

	t.Run("repeat_add_is_idempotent", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)

		created, err := svc.AddAsset(ctx, user.ID, "stock", stock.ID)
		testutil.AssertNoError(t, err)
		if !created {
			t.Error("expected first add to report created")
		}

		created, err = svc.AddAsset(ctx, user.ID, "stock", stock.ID)
		testutil.AssertNoError(t, err)
		if created {
			t.Error("expected repeat add to report already present")
		}

		var count int64
		err = db.Model(&models.WatchlistItem{}).Where("watchlist_id = ?", watchlist.ID).Count(&count).Error
		if err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 1 {
			t.Errorf("expected a single item after repeat add, got %d", count)
		}
	})

	t.Run("asset_type_case_insensitive", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)
		index := testutil.CreateTestIndex(t, db, "India")

		created, err := svc.AddAsset(ctx, user.ID, "INDEX", index.ID)
		testutil.AssertNoError(t, err)
		if !created {
			t.Error("expected add with uppercase asset_type to succeed")
		}

		// The stored kind is canonical, so the lowercase form is the same slot.
		created, err = svc.AddAsset(ctx, user.ID, "index", index.ID)
		testutil.AssertNoError(t, err)
		if created {
			t.Error("expected lowercase re-add to hit the same membership")
		}
	})

	t.Run("unknown_asset_type", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)

		_, err := svc.AddAsset(ctx, user.ID, "bond", 1)
		testutil.AssertAppError(t, err, "INVALID_ASSET_KIND")
	})

	t.Run("dangling_asset_id", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)

		_, err := svc.AddAsset(ctx, user.ID, "stock", 99999)
		testutil.AssertAppError(t, err, "ASSET_NOT_FOUND")
	})

	t.Run("no_watchlist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)

		_, err := svc.AddAsset(ctx, user.ID, "stock", stock.ID)
		testutil.AssertAppError(t, err, "NO_WATCHLIST")
	})

	t.Run("invalidates_cached_watchlist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, store := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)

		key := userWatchlistCacheKey(user.ID)
		if err := store.Set(ctx, key, []byte("[]")); err != nil {
			t.Fatalf("failed to seed cache: %v", err)
		}

		_, err := svc.AddAsset(ctx, user.ID, "stock", stock.ID)
		testutil.AssertNoError(t, err)

		if _, err := store.Get(ctx, key); !errors.Is(err, cache.ErrMiss) {
			t.Errorf("expected cached watchlist to be evicted after add, got %v", err)
		}
	})
}

func TestRemoveAsset(t *testing.T) {
	ctx := context.Background()

	t.Run("removes_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)
		testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindStock, stock.ID)

		testutil.AssertNoError(t, svc.RemoveAsset(ctx, user.ID, "stock", stock.ID))

		var count int64
		err := db.Model(&models.WatchlistItem{}).Where("watchlist_id = ?", watchlist.ID).Count(&count).Error
		if err != nil {
			t.Fatalf("failed to count items: %v", err)
		}
		if count != 0 {
			t.Errorf("expected no items after removal, got %d", count)
		}

		// The catalog row itself is untouched.
		var stockCount int64
		if err := db.Model(&models.Stock{}).Where("id = ?", stock.ID).Count(&stockCount).Error; err != nil {
			t.Fatalf("failed to count stocks: %v", err)
		}
		if stockCount != 1 {
			t.Error("expected referenced stock to survive removal")
		}
	})

	t.Run("absent_membership", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)

		err := svc.RemoveAsset(ctx, user.ID, "stock", stock.ID)
		testutil.AssertAppError(t, err, "ITEM_NOT_FOUND")
	})

	t.Run("add_remove_add_roundtrip", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)
		fund := testutil.CreateTestMutualFund(t, db)

		created, err := svc.AddAsset(ctx, user.ID, "mutualfund", fund.ID)
		testutil.AssertNoError(t, err)
		if !created {
			t.Error("expected initial add to create")
		}

		testutil.AssertNoError(t, svc.RemoveAsset(ctx, user.ID, "mutualfund", fund.ID))

		// Removal freed the slot; re-adding creates again.
		created, err = svc.AddAsset(ctx, user.ID, "mutualfund", fund.ID)
		testutil.AssertNoError(t, err)
		if !created {
			t.Error("expected re-add after removal to create")
		}
	})
}

func TestListWatchlist(t *testing.T) {
	t.Run("grouped_by_kind", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)
		fund := testutil.CreateTestMutualFund(t, db)
		index := testutil.CreateTestIndex(t, db, "India")

		testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindStock, stock.ID)
		testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindMutualFund, fund.ID)
		testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindIndex, index.ID)

		detail, err := svc.ListWatchlist(user.ID)
		testutil.AssertNoError(t, err)

		if len(detail.Stocks) != 1 {
			t.Fatalf("expected 1 stock, got %d", len(detail.Stocks))
		}
		if !detail.Stocks[0].WatchlistStatus {
			t.Error("expected watchlist_status true for watched stock")
		}
		if detail.Stocks[0].Exchange == nil || detail.Stocks[0].Exchange.ID != exchange.ID {
			t.Error("expected stock expanded with its exchange")
		}
		if len(detail.MutualFunds) != 1 {
			t.Fatalf("expected 1 mutual fund, got %d", len(detail.MutualFunds))
		}
		if len(detail.Indexes) != 1 {
			t.Fatalf("expected 1 index, got %d", len(detail.Indexes))
		}
	})

	t.Run("empty_watchlist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		testutil.CreateTestWatchlist(t, db, user.ID)

		detail, err := svc.ListWatchlist(user.ID)
		testutil.AssertNoError(t, err)

		if detail.Stocks == nil || detail.MutualFunds == nil || detail.Indexes == nil {
			t.Error("expected empty slices, not nil, for an empty watchlist")
		}
		if len(detail.Stocks)+len(detail.MutualFunds)+len(detail.Indexes) != 0 {
			t.Error("expected no entries in any group")
		}
	})

	t.Run("no_watchlist", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)

		_, err := svc.ListWatchlist(user.ID)
		testutil.AssertAppError(t, err, "NO_WATCHLIST")
	})
}

func TestListWatchlists(t *testing.T) {
	t.Run("expands_items", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
		exchange := testutil.CreateTestExchange(t, db, "India")
		stock := testutil.CreateTestStock(t, db, exchange.ID)
		testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindStock, stock.ID)

		views, err := svc.ListWatchlists(user.ID)
		testutil.AssertNoError(t, err)

		if len(views) != 1 {
			t.Fatalf("expected 1 watchlist, got %d", len(views))
		}
		if len(views[0].Items) != 1 {
			t.Fatalf("expected 1 item, got %d", len(views[0].Items))
		}

		item := views[0].Items[0]
		if item.AssetKind != models.AssetKindStock {
			t.Errorf("expected asset kind stock, got %s", item.AssetKind)
		}
		stockView, ok := item.Asset.(StockView)
		if !ok {
			t.Fatalf("expected expanded StockView, got %T", item.Asset)
		}
		if stockView.ID != stock.ID {
			t.Errorf("expected expanded stock %d, got %d", stock.ID, stockView.ID)
		}
		if !stockView.WatchlistStatus {
			t.Error("expected watchlist_status true on expanded asset")
		}
	})

	t.Run("dangling_reference_degrades", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)
		watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
		testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindStock, 99999)

		views, err := svc.ListWatchlists(user.ID)
		testutil.AssertNoError(t, err)

		if len(views) != 1 || len(views[0].Items) != 1 {
			t.Fatal("expected the dangling item to still be listed")
		}
		if _, ok := views[0].Items[0].Asset.(string); !ok {
			t.Errorf("expected dangling reference to degrade to a string, got %T", views[0].Items[0].Asset)
		}
	})

	t.Run("unprovisioned_user_gets_empty_slice", func(t *testing.T) {
		db := testutil.SetupTestDB(t)
		defer testutil.TeardownTestDB(t, db)
		svc, _ := newTestWatchlistService(t, db)

		user := testutil.CreateTestUser(t, db)

		views, err := svc.ListWatchlists(user.ID)
		testutil.AssertNoError(t, err)
		if views == nil {
			t.Fatal("expected empty slice, got nil")
		}
		if len(views) != 0 {
			t.Errorf("expected no watchlists, got %d", len(views))
		}
	})
}

func TestMembershipSet(t *testing.T) {
	db := testutil.SetupTestDB(t)
	defer testutil.TeardownTestDB(t, db)
	svc, _ := newTestWatchlistService(t, db)

	user := testutil.CreateTestUser(t, db)
	other := testutil.CreateTestUser(t, db)
	watchlist := testutil.CreateTestWatchlist(t, db, user.ID)
	otherList := testutil.CreateTestWatchlist(t, db, other.ID)

	exchange := testutil.CreateTestExchange(t, db, "India")
	stock := testutil.CreateTestStock(t, db, exchange.ID)
	otherStock := testutil.CreateTestStock(t, db, exchange.ID)
	fund := testutil.CreateTestMutualFund(t, db)

	testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindStock, stock.ID)
	testutil.CreateTestWatchlistItem(t, db, watchlist.ID, models.AssetKindMutualFund, fund.ID)
	testutil.CreateTestWatchlistItem(t, db, otherList.ID, models.AssetKindStock, otherStock.ID)

	set, err := svc.MembershipSet(user.ID)
	testutil.AssertNoError(t, err)

	if !set.Has(models.AssetKindStock, stock.ID) {
		t.Error("expected membership for the user's stock")
	}
	if !set.Has(models.AssetKindMutualFund, fund.ID) {
		t.Error("expected membership for the user's fund")
	}
	if set.Has(models.AssetKindStock, otherStock.ID) {
		t.Error("expected no membership leakage from another user")
	}
	if set.Has(models.AssetKindIndex, 1) {
		t.Error("expected no membership for an unwatched kind")
	}
}
