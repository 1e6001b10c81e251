package models

// Sector represents an industry sector a stock belongs to.
type Sector struct {
	Base
	Name    string `gorm:"not null" json:"name"`
	IsBlock bool   `gorm:"default:false" json:"is_block"`
}
