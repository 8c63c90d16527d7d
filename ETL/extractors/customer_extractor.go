package extractors

import (
	"context"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// CustomerExtractor отвечает за извлечение справочника клиентов
type CustomerExtractor struct {
	reader *TableReader
	logger *utils.ETLLogger
}

// NewCustomerExtractor создает новый экземпляр CustomerExtractor
func NewCustomerExtractor(reader *TableReader, logger *utils.ETLLogger) *CustomerExtractor {
	return &CustomerExtractor{
		reader: reader,
		logger: logger,
	}
}

// ExtractCustomers читает файл клиентов
func (x *CustomerExtractor) ExtractCustomers(ctx context.Context, path string, cols config.CustomersSource) ([]models.CustomerRaw, error) {
	table, err := x.reader.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	idx, err := table.Columns(cols.CustomerID, cols.CompanyName, cols.Country)
	if err != nil {
		return nil, err
	}

	customers := make([]models.CustomerRaw, 0, len(table.Rows))
	for _, row := range table.Rows {
		customers = append(customers, models.CustomerRaw{
			Row:         row.Number,
			CustomerID:  row.Cell(idx[0]),
			CompanyName: row.Cell(idx[1]),
			Country:     row.Cell(idx[2]),
		})
	}

	x.logger.Debug("Прочитано %d клиентов из %s", len(customers), table.Source)
	return customers, nil
}
