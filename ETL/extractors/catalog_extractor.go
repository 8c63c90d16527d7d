package extractors

import (
	"context"
	"fmt"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// CatalogExtractor отвечает за извлечение необязательного каталога товаров
type CatalogExtractor struct {
	reader *TableReader
	logger *utils.ETLLogger
}

// NewCatalogExtractor создает новый экземпляр CatalogExtractor
func NewCatalogExtractor(reader *TableReader, logger *utils.ETLLogger) *CatalogExtractor {
	return &CatalogExtractor{
		reader: reader,
		logger: logger,
	}
}

// ExtractCatalog читает каталог. Отсутствующий файл даёт nil без ошибки:
// категории товаров тогда берутся по умолчанию.
func (x *CatalogExtractor) ExtractCatalog(ctx context.Context, path string, cols config.CatalogSource) ([]models.CatalogRaw, error) {
	ok, err := fileExists(path)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки файла %s: %w", path, err)
	}
	if !ok {
		x.logger.Warn("Каталог товаров %s не найден, все товары получат категорию по умолчанию", path)
		return nil, nil
	}

	table, err := x.reader.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	idx, err := table.Columns(cols.ProductName, cols.Category)
	if err != nil {
		return nil, err
	}

	catalog := make([]models.CatalogRaw, 0, len(table.Rows))
	for _, row := range table.Rows {
		catalog = append(catalog, models.CatalogRaw{
			Row:         row.Number,
			ProductName: row.Cell(idx[0]),
			Category:    row.Cell(idx[1]),
		})
	}

	x.logger.Debug("Прочитано %d записей каталога из %s", len(catalog), table.Source)
	return catalog, nil
}
