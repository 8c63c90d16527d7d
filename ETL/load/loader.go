package load

import (
	"context"

	"github.com/LilVoxy/northwind_dw/ETL/models"
)

// Loader интерфейс для записи таблиц звезды. Каждый метод целиком заменяет
// содержимое своей таблицы.
type Loader interface {
	// LoadProductDimension заменяет DimProduct
	LoadProductDimension(ctx context.Context, products []models.DimProduct) error

	// LoadCustomerDimension заменяет DimCustomer
	LoadCustomerDimension(ctx context.Context, customers []models.DimCustomer) error

	// LoadSalesFacts заменяет FactSales
	LoadSalesFacts(ctx context.Context, facts []models.FactSales) error
}
