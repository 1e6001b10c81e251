package models

// Exchange represents a stock exchange (NSE, NYSE, ...). Stocks hang off an
// exchange and the exchange country drives the grouped market-data datasets.
type Exchange struct {
	Base
	Name     string  `gorm:"not null" json:"name"`
	Country  string  `json:"country"`
	Currency string  `json:"currency"`
	Stocks   []Stock `gorm:"foreignKey:ExchangeID" json:"stocks,omitempty"`
}
