package transform

import (
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// ProductDimensionProcessor строит измерение товаров
type ProductDimensionProcessor struct {
	fallbackCategory string
	logger           *utils.ETLLogger
}

// NewProductDimensionProcessor создает новый экземпляр ProductDimensionProcessor
func NewProductDimensionProcessor(fallbackCategory string, logger *utils.ETLLogger) *ProductDimensionProcessor {
	return &ProductDimensionProcessor{
		fallbackCategory: fallbackCategory,
		logger:           logger,
	}
}

// BuildProductDimension строит DimProduct по проданным товарам: каждое имя
// получает ключ 1..N в порядке первого появления среди позиций заказов.
// Каталог только дополняет категорию и ключей не порождает.
func (p *ProductDimensionProcessor) BuildProductDimension(lineItems []models.LineItem, catalog []models.CatalogEntry) []models.DimProduct {
	p.logger.Debug("Обработка измерения товаров...")

	categories := make(map[string]string, len(catalog))
	for _, entry := range catalog {
		// Для повторяющихся имен побеждает первая непустая категория
		if entry.Category == "" || categories[entry.ProductName] != "" {
			continue
		}
		categories[entry.ProductName] = entry.Category
	}

	seen := make(map[string]bool)
	products := make([]models.DimProduct, 0)
	for _, item := range lineItems {
		if seen[item.ProductName] {
			continue
		}
		seen[item.ProductName] = true

		category, ok := categories[item.ProductName]
		if !ok {
			category = p.fallbackCategory
		}
		products = append(products, models.DimProduct{
			ProductKey:  len(products) + 1,
			ProductName: item.ProductName,
			Category:    category,
		})
	}

	p.logger.Debug("Построено %d записей измерения товаров", len(products))
	return products
}
