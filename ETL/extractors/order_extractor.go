package extractors

import (
	"context"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// OrderExtractor отвечает за извлечение заказов и их позиций
type OrderExtractor struct {
	reader *TableReader
	logger *utils.ETLLogger
}

// NewOrderExtractor создает новый экземпляр OrderExtractor
func NewOrderExtractor(reader *TableReader, logger *utils.ETLLogger) *OrderExtractor {
	return &OrderExtractor{
		reader: reader,
		logger: logger,
	}
}

// ExtractLineItems читает позиции заказов (Order Details)
func (x *OrderExtractor) ExtractLineItems(ctx context.Context, path string, cols config.LineItemsSource) ([]models.LineItemRaw, error) {
	table, err := x.reader.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	idx, err := table.Columns(cols.OrderID, cols.ProductName, cols.Quantity, cols.UnitPrice)
	if err != nil {
		return nil, err
	}

	items := make([]models.LineItemRaw, 0, len(table.Rows))
	for _, row := range table.Rows {
		items = append(items, models.LineItemRaw{
			Row:         row.Number,
			OrderID:     row.Cell(idx[0]),
			ProductName: row.Cell(idx[1]),
			Quantity:    row.Cell(idx[2]),
			UnitPrice:   row.Cell(idx[3]),
		})
	}

	x.logger.Debug("Прочитано %d позиций заказов из %s", len(items), table.Source)
	return items, nil
}

// ExtractOrders читает заголовки заказов (Orders)
func (x *OrderExtractor) ExtractOrders(ctx context.Context, path string, cols config.OrdersSource) ([]models.OrderHeaderRaw, error) {
	table, err := x.reader.ReadTable(ctx, path)
	if err != nil {
		return nil, err
	}
	idx, err := table.Columns(cols.OrderID, cols.CustomerName, cols.OrderDate, cols.ShippedDate)
	if err != nil {
		return nil, err
	}

	orders := make([]models.OrderHeaderRaw, 0, len(table.Rows))
	for _, row := range table.Rows {
		orders = append(orders, models.OrderHeaderRaw{
			Row:          row.Number,
			OrderID:      row.Cell(idx[0]),
			CustomerName: row.Cell(idx[1]),
			OrderDate:    row.Cell(idx[2]),
			ShippedDate:  row.Cell(idx[3]),
		})
	}

	x.logger.Debug("Прочитано %d заказов из %s", len(orders), table.Source)
	return orders, nil
}
