package services

import (
	"time"

	"marketwatch/internal/models"
)

// Views are the cacheable output shapes of the read paths. They are what
// gets stored under the market-data cache keys, so they must round-trip
// through JSON unchanged. Per-user fields (WatchlistStatus) are always
// false in cached payloads and overlaid per caller after the cache read,
// keeping globally keyed entries user-neutral.

// ExchangeView is the rendered form of an Exchange.
type ExchangeView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

// SectorView is the rendered form of a Sector.
type SectorView struct {
	ID   uint   `json:"id"`
	Name string `json:"name"`
}

// IndexView is the rendered form of an Index.
type IndexView struct {
	ID       uint   `json:"id"`
	Name     string `json:"name"`
	Symbol   string `json:"symbol"`
	Country  string `json:"country"`
	Currency string `json:"currency"`
}

// StockView is the rendered form of a Stock, expanded with its related
// entities and derived price-delta fields.
type StockView struct {
	ID                        uint          `json:"id"`
	Symbol                    string        `json:"symbol"`
	Name                      string        `json:"name"`
	LastPrice                 *float64      `json:"last_price"`
	PreviousClosePrice        *float64      `json:"previous_close_price"`
	Currency                  string        `json:"currency"`
	PriceDifference           *float64      `json:"price_difference"`
	PriceDifferencePercentage *float64      `json:"price_difference_percentage"`
	WatchlistStatus           bool          `json:"watchlist_status"`
	Sector                    *SectorView   `json:"sector"`
	Index                     *IndexView    `json:"index"`
	Exchange                  *ExchangeView `json:"exchange"`
}

// MutualFundView is the rendered form of a MutualFund.
type MutualFundView struct {
	ID              uint     `json:"id"`
	Name            string   `json:"name"`
	Category        string   `json:"category"`
	NAV             *float64 `json:"nav"`
	WatchlistStatus bool     `json:"watchlist_status"`
}

// WatchlistItemView is one watchlist membership with its asset expanded to
// the full payload of its concrete kind. Asset degrades to a plain string
// for kinds the read path no longer recognizes.
type WatchlistItemView struct {
	ID        uint             `json:"id"`
	AssetKind models.AssetKind `json:"asset_type"`
	Asset     any              `json:"asset"`
	CreatedAt time.Time        `json:"created_at"`
}

// WatchlistView is the rendered form of a Watchlist with nested items.
type WatchlistView struct {
	ID        uint                `json:"id"`
	Name      string              `json:"name"`
	CreatedAt time.Time           `json:"created_at"`
	Items     []WatchlistItemView `json:"items"`
}

// WatchlistDetail is the grouped view of a single watchlist: items split by
// asset kind, each fully expanded. Kinds outside the three wired ones are
// omitted from this view.
type WatchlistDetail struct {
	Stocks      []StockView      `json:"stocks"`
	MutualFunds []MutualFundView `json:"mutual_funds"`
	Indexes     []IndexView      `json:"indexes"`
}

// NewExchangeView renders an Exchange.
func NewExchangeView(e *models.Exchange) *ExchangeView {
	if e == nil {
		return nil
	}
	return &ExchangeView{ID: e.ID, Name: e.Name, Country: e.Country, Currency: e.Currency}
}

// NewSectorView renders a Sector.
func NewSectorView(s *models.Sector) *SectorView {
	if s == nil {
		return nil
	}
	return &SectorView{ID: s.ID, Name: s.Name}
}

// NewIndexView renders an Index.
func NewIndexView(i *models.Index) IndexView {
	return IndexView{
		ID:       i.ID,
		Name:     i.Name,
		Symbol:   i.Symbol,
		Country:  i.Country,
		Currency: i.Currency,
	}
}

// NewStockView renders a Stock with its derived price fields. The
// watchlist flag starts false; callers overlay it per user.
func NewStockView(s *models.Stock) StockView {
	view := StockView{
		ID:                        s.ID,
		Symbol:                    s.Symbol,
		Name:                      s.Name,
		LastPrice:                 s.LastPrice,
		PreviousClosePrice:        s.PreviousClosePrice,
		Currency:                  s.Currency,
		PriceDifference:           s.PriceDifference(),
		PriceDifferencePercentage: s.PriceDifferencePercentage(),
		Sector:                    NewSectorView(s.Sector),
		Exchange:                  NewExchangeView(s.Exchange),
	}
	if s.Index != nil {
		idx := NewIndexView(s.Index)
		view.Index = &idx
	}
	return view
}

// NewMutualFundView renders a MutualFund.
func NewMutualFundView(f *models.MutualFund) MutualFundView {
	return MutualFundView{
		ID:       f.ID,
		Name:     f.Name,
		Category: f.Category,
		NAV:      f.NAV,
	}
}
