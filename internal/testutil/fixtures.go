package testutil

import (
	"fmt"
	"sync/atomic"
	"testing"

	"marketwatch/internal/models"

	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// counter provides unique values across fixtures within a test run.
var counter atomic.Int64

func nextID() int64 {
	return counter.Add(1)
}

// CreateTestUser creates a user with a hashed password and unique email.
func CreateTestUser(t *testing.T, db *gorm.DB) *models.User {
	t.Helper()
	email := fmt.Sprintf("user%d@test.com", nextID())
	return CreateTestUserWithEmail(t, db, email)
}

// CreateTestUserWithEmail creates a user with the given email.
func CreateTestUserWithEmail(t *testing.T, db *gorm.DB, email string) *models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte("password123"), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}

	user := &models.User{
		Email:    email,
		Password: string(hash),
		IsActive: true,
	}
	if err := db.Create(user).Error; err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

// CreateTestExchange creates an exchange in the given country.
func CreateTestExchange(t *testing.T, db *gorm.DB, country string) *models.Exchange {
	t.Helper()

	exchange := &models.Exchange{
		Name:     fmt.Sprintf("Test Exchange %d", nextID()),
		Country:  country,
		Currency: "USD",
	}
	if err := db.Create(exchange).Error; err != nil {
		t.Fatalf("failed to create test exchange: %v", err)
	}
	return exchange
}

// CreateTestStock creates a stock listed on the given exchange with a unique symbol.
func CreateTestStock(t *testing.T, db *gorm.DB, exchangeID uint) *models.Stock {
	t.Helper()

	n := nextID()
	last := 105.0
	prev := 100.0
	stock := &models.Stock{
		Symbol:             fmt.Sprintf("TST%d", n),
		Name:               fmt.Sprintf("Test Stock %d", n),
		LastPrice:          &last,
		PreviousClosePrice: &prev,
		Currency:           "USD",
		ExchangeID:         &exchangeID,
	}
	if err := db.Create(stock).Error; err != nil {
		t.Fatalf("failed to create test stock: %v", err)
	}
	return stock
}

// CreateTestIndex creates a market index in the given country.
func CreateTestIndex(t *testing.T, db *gorm.DB, country string) *models.Index {
	t.Helper()

	n := nextID()
	index := &models.Index{
		Name:     fmt.Sprintf("Test Index %d", n),
		Symbol:   fmt.Sprintf("IDX%d", n),
		Country:  country,
		Currency: "USD",
	}
	if err := db.Create(index).Error; err != nil {
		t.Fatalf("failed to create test index: %v", err)
	}
	return index
}

// CreateTestMutualFund creates a mutual fund with a NAV set.
func CreateTestMutualFund(t *testing.T, db *gorm.DB) *models.MutualFund {
	t.Helper()

	nav := 42.5
	fund := &models.MutualFund{
		Name:     fmt.Sprintf("Test Fund %d", nextID()),
		Category: "Equity",
		NAV:      &nav,
	}
	if err := db.Create(fund).Error; err != nil {
		t.Fatalf("failed to create test mutual fund: %v", err)
	}
	return fund
}

// CreateTestWatchlist creates a watchlist for the given user.
func CreateTestWatchlist(t *testing.T, db *gorm.DB, userID uint) *models.Watchlist {
	t.Helper()

	watchlist := &models.Watchlist{
		UserID: userID,
		Name:   "my_watchlist",
	}
	if err := db.Create(watchlist).Error; err != nil {
		t.Fatalf("failed to create test watchlist: %v", err)
	}
	return watchlist
}

// CreateTestWatchlistItem adds an asset reference to the given watchlist.
func CreateTestWatchlistItem(t *testing.T, db *gorm.DB, watchlistID uint, kind models.AssetKind, assetID uint) *models.WatchlistItem {
	t.Helper()

	item := &models.WatchlistItem{
		WatchlistID: watchlistID,
		AssetKind:   kind,
		AssetID:     assetID,
	}
	if err := db.Create(item).Error; err != nil {
		t.Fatalf("failed to create test watchlist item: %v", err)
	}
	return item
}
