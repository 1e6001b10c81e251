package models

// Index represents a market index (NIFTY 50, S&P 500, ...).
type Index struct {
	Base
	Name     string `gorm:"not null" json:"name"`
	Symbol   string `gorm:"size:20" json:"symbol"`
	Country  string `json:"country"`
	Currency string `gorm:"size:10" json:"currency"`
	IsBlock  bool   `gorm:"default:false" json:"is_block"`
}

// TableName pins the table name; gorm's pluralizer would otherwise
// produce "indices" and diverge from the SQL migrations.
func (Index) TableName() string { return "indexes" }
