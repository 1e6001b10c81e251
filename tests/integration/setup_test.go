package integration

import (
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"

	"marketwatch/internal/cache"
	"marketwatch/internal/handlers"
	"marketwatch/internal/logger"
	"marketwatch/internal/middleware"
	"marketwatch/internal/models"
	"marketwatch/internal/services"
	"marketwatch/internal/validator"
)

// testApp holds the full application stack for integration tests.
type testApp struct {
	DB     *gorm.DB
	Cache  cache.Store
	Router *gin.Engine
}

// dbCounter ensures each test gets a unique in-memory database.
var dbCounter atomic.Int64

func init() {
	gin.SetMode(gin.TestMode)
	logger.Init("test")
	validator.Register()
}

// setupIsolatedDB creates an isolated in-memory SQLite database for a single test.
func setupIsolatedDB(t *testing.T) *gorm.DB {
	t.Helper()

	n := dbCounter.Add(1)
	dsn := fmt.Sprintf("file:testdb%d?mode=memory&cache=shared", n)
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
	})
	if err != nil {
		t.Fatalf("failed to open test database: %v", err)
	}

	allModels := []interface{}{
		&models.User{},
		&models.Exchange{},
		&models.Sector{},
		&models.Index{},
		&models.Stock{},
		&models.MutualFund{},
		&models.Watchlist{},
		&models.WatchlistItem{},
		&models.AuditLog{},
	}
	if err := db.AutoMigrate(allModels...); err != nil {
		t.Fatalf("failed to migrate test database: %v", err)
	}

	return db
}

// setupApp creates a full application stack backed by an isolated in-memory SQLite.
func setupApp(t *testing.T) *testApp {
	t.Helper()

	db := setupIsolatedDB(t)

	store := cache.NewMemoryCache(time.Minute)
	t.Cleanup(store.Close)

	// Services
	watchlistService := services.NewWatchlistService(db, store)
	userService := services.NewUserService(db, watchlistService)
	catalogService := services.NewCatalogService(db)
	marketDataService := services.NewMarketDataService(store, catalogService, watchlistService)
	auditService := services.NewAuditService(db)

	// Handlers
	authHandler := handlers.NewAuthHandler(userService, auditService)
	watchlistHandler := handlers.NewWatchlistHandler(watchlistService, auditService)
	marketDataHandler := handlers.NewMarketDataHandler(marketDataService)

	// Router
	router := gin.New()
	router.Use(gin.Recovery())
	router.Use(middleware.ErrorHandler())

	v1 := router.Group("/api/v1")

	// Public auth routes
	auth := v1.Group("/auth")
	auth.POST("/register", authHandler.Register)
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.RefreshToken)

	// Market data is readable anonymously; identity only affects flags.
	v1.GET("/market-data", middleware.OptionalAuthMiddleware(), marketDataHandler.GetMarketData)

	// Protected routes
	protected := v1.Group("/")
	protected.Use(middleware.AuthMiddleware())

	protected.GET("/profile", authHandler.GetProfile)

	watchlist := protected.Group("/watchlist")
	watchlist.GET("", watchlistHandler.GetWatchlist)
	watchlist.POST("/add-asset", watchlistHandler.AddAsset)
	watchlist.DELETE("/remove-asset", watchlistHandler.RemoveAsset)

	return &testApp{DB: db, Cache: store, Router: router}
}

// request makes an HTTP request to the test router and returns the recorder.
func (app *testApp) request(method, path, body, token string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	app.Router.ServeHTTP(rec, req)
	return rec
}

// parseJSON parses the response body into a map.
func parseJSON(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var result map[string]interface{}
	if err := json.Unmarshal(rec.Body.Bytes(), &result); err != nil {
		t.Fatalf("failed to parse JSON: %v\nbody: %s", err, rec.Body.String())
	}
	return result
}

// registerUser registers a new user and returns the access token, refresh token, and user ID.
func (app *testApp) registerUser(t *testing.T, email, password string) (accessToken, refreshToken string, userID float64) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q,"first_name":"Test","last_name":"User"}`, email, password)
	rec := app.request("POST", "/api/v1/auth/register", body, "")
	if rec.Code != http.StatusCreated {
		t.Fatalf("register failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	user := result["user"].(map[string]interface{})
	return result["access_token"].(string), result["refresh_token"].(string), user["id"].(float64)
}

// loginUser logs in and returns the access and refresh tokens.
func (app *testApp) loginUser(t *testing.T, email, password string) (accessToken, refreshToken string) {
	t.Helper()
	body := fmt.Sprintf(`{"email":%q,"password":%q}`, email, password)
	rec := app.request("POST", "/api/v1/auth/login", body, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("login failed: %d %s", rec.Code, rec.Body.String())
	}
	result := parseJSON(t, rec)
	return result["access_token"].(string), result["refresh_token"].(string)
}

// seedStock creates an exchange in the given country and one stock on it.
func (app *testApp) seedStock(t *testing.T, country, symbol string) *models.Stock {
	t.Helper()

	exchange := &models.Exchange{Name: country + " Exchange " + symbol, Country: country, Currency: "USD"}
	if err := app.DB.Create(exchange).Error; err != nil {
		t.Fatalf("failed to seed exchange: %v", err)
	}

	last := 210.0
	prev := 200.0
	stock := &models.Stock{
		Symbol:             symbol,
		Name:               symbol + " Corp",
		LastPrice:          &last,
		PreviousClosePrice: &prev,
		Currency:           "USD",
		ExchangeID:         &exchange.ID,
	}
	if err := app.DB.Create(stock).Error; err != nil {
		t.Fatalf("failed to seed stock: %v", err)
	}
	return stock
}

// seedIndex creates a market index in the given country.
func (app *testApp) seedIndex(t *testing.T, country, name string) *models.Index {
	t.Helper()

	index := &models.Index{Name: name, Symbol: name, Country: country, Currency: "USD"}
	if err := app.DB.Create(index).Error; err != nil {
		t.Fatalf("failed to seed index: %v", err)
	}
	return index
}

// seedMutualFund creates a mutual fund.
func (app *testApp) seedMutualFund(t *testing.T, name string) *models.MutualFund {
	t.Helper()

	nav := 31.7
	fund := &models.MutualFund{Name: name, Category: "Equity", NAV: &nav}
	if err := app.DB.Create(fund).Error; err != nil {
		t.Fatalf("failed to seed mutual fund: %v", err)
	}
	return fund
}
