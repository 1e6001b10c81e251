package models

import "time"

// Stock represents a listed equity in the asset catalog. Prices are
// import-driven; users never mutate catalog rows.
type Stock struct {
	Base
	Symbol             string     `gorm:"size:20;uniqueIndex;not null" json:"symbol"`
	Name               string     `json:"name"`
	LastPrice          *float64   `json:"last_price"`
	PreviousClosePrice *float64   `json:"previous_close_price"`
	Currency           string     `gorm:"size:10" json:"currency"`
	SectorID           *uint      `json:"sector_id,omitempty"`
	IndexID            *uint      `json:"index_id,omitempty"`
	ExchangeID         *uint      `json:"exchange_id,omitempty"`
	PriceUpdatedAt     *time.Time `json:"price_updated_at,omitempty"`
	IsBlock            bool       `gorm:"default:false" json:"is_block"`

	// Relationships
	Sector   *Sector   `gorm:"foreignKey:SectorID" json:"sector,omitempty"`
	Index    *Index    `gorm:"foreignKey:IndexID" json:"index,omitempty"`
	Exchange *Exchange `gorm:"foreignKey:ExchangeID" json:"exchange,omitempty"`
}

// PriceDifference returns the absolute change since the previous close,
// or nil when either price is unknown.
func (s *Stock) PriceDifference() *float64 {
	if s.LastPrice == nil || s.PreviousClosePrice == nil {
		return nil
	}
	diff := *s.LastPrice - *s.PreviousClosePrice
	return &diff
}

// PriceDifferencePercentage returns the percentage change since the previous
// close, or nil when the previous close is unknown or zero.
func (s *Stock) PriceDifferencePercentage() *float64 {
	if s.LastPrice == nil || s.PreviousClosePrice == nil || *s.PreviousClosePrice == 0 {
		return nil
	}
	pct := (*s.LastPrice - *s.PreviousClosePrice) / *s.PreviousClosePrice * 100
	return &pct
}
