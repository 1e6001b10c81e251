package models

// MutualFund represents a mutual fund in the asset catalog.
type MutualFund struct {
	Base
	Name     string   `gorm:"size:150;not null" json:"name"`
	Category string   `json:"category"`
	NAV      *float64 `gorm:"column:nav" json:"nav"`
}
