package services

import (
	"gorm.io/gorm"

	apperrors "marketwatch/internal/errors"
	"marketwatch/internal/models"
)

// catalogService handles grouped reads over the asset catalog.
type catalogService struct {
	db *gorm.DB
}

// NewCatalogService creates a new CatalogServicer.
func NewCatalogService(db *gorm.DB) CatalogServicer {
	return &catalogService{db: db}
}

// ListStocksByExchangeCountry returns all stocks listed on exchanges in the
// given country, expanded with their exchange, sector, and index.
func (s *catalogService) ListStocksByExchangeCountry(country string) ([]StockView, error) {
	var stocks []models.Stock
	err := s.db.
		Joins("JOIN exchanges ON exchanges.id = stocks.exchange_id AND exchanges.deleted_at IS NULL AND exchanges.country = ?", country).
		Preload("Exchange").Preload("Sector").Preload("Index").
		Find(&stocks).Error
	if err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]StockView, 0, len(stocks))
	for i := range stocks {
		views = append(views, NewStockView(&stocks[i]))
	}
	return views, nil
}

// ListIndexesByCountry returns indexes whose country matches (include=true)
// or differs from (include=false) the given country.
func (s *catalogService) ListIndexesByCountry(country string, include bool) ([]IndexView, error) {
	query := s.db.Model(&models.Index{})
	if include {
		query = query.Where("country = ?", country)
	} else {
		query = query.Where("country <> ?", country)
	}

	var indexes []models.Index
	if err := query.Find(&indexes).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]IndexView, 0, len(indexes))
	for i := range indexes {
		views = append(views, NewIndexView(&indexes[i]))
	}
	return views, nil
}

// ListMutualFunds returns every fund in the catalog.
func (s *catalogService) ListMutualFunds() ([]MutualFundView, error) {
	var funds []models.MutualFund
	if err := s.db.Find(&funds).Error; err != nil {
		return nil, apperrors.Wrap(apperrors.ErrInternalServer, err)
	}

	views := make([]MutualFundView, 0, len(funds))
	for i := range funds {
		views = append(views, NewMutualFundView(&funds[i]))
	}
	return views, nil
}
