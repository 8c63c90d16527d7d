package transform

import (
	"fmt"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/normalize"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// RecordNormalizer приводит сырые строки источников к типизированным записям
type RecordNormalizer struct {
	convention normalize.Convention
	logger     *utils.ETLLogger
}

// NewRecordNormalizer создает новый экземпляр RecordNormalizer
func NewRecordNormalizer(convention normalize.Convention, logger *utils.ETLLogger) *RecordNormalizer {
	return &RecordNormalizer{
		convention: convention,
		logger:     logger,
	}
}

// Normalize приводит все источники. Первая ошибка разбора или отсутствие
// даты заказа прерывает запуск.
func (n *RecordNormalizer) Normalize(data *models.ExtractedData) (*models.NormalizedData, error) {
	var (
		result models.NormalizedData
		err    error
	)

	if result.LineItems, err = n.NormalizeLineItems(data.Sources.LineItems, data.LineItems); err != nil {
		return nil, err
	}
	if result.Orders, err = n.NormalizeOrders(data.Sources.Orders, data.Orders); err != nil {
		return nil, err
	}
	if result.Customers, err = n.NormalizeCustomers(data.Sources.Customers, data.Customers); err != nil {
		return nil, err
	}
	result.Catalog = n.NormalizeCatalog(data.Catalog)

	return &result, nil
}

// NormalizeLineItems приводит позиции заказов
func (n *RecordNormalizer) NormalizeLineItems(source string, rows []models.LineItemRaw) ([]models.LineItem, error) {
	items := make([]models.LineItem, 0, len(rows))
	for _, row := range rows {
		key := lineItemKey(row.OrderID, row.ProductName)

		orderID, err := normalize.Integer(row.OrderID)
		if err != nil {
			return nil, etlerr.AtRow(err, source, row.Row, key, "OrderID")
		}
		name := normalize.Text(row.ProductName)
		if name == "" {
			return nil, &etlerr.DataIntegrityError{
				Source: source, Row: row.Row, Key: key, Field: "ProductName",
				Reason: "пустое имя товара",
			}
		}
		quantity, err := normalize.Quantity(row.Quantity)
		if err != nil {
			return nil, etlerr.AtRow(err, source, row.Row, key, "Quantity")
		}
		price, err := normalize.Currency(row.UnitPrice, n.convention)
		if err != nil {
			return nil, etlerr.AtRow(err, source, row.Row, key, "UnitPrice")
		}

		items = append(items, models.LineItem{
			Row:         row.Row,
			OrderID:     orderID,
			ProductName: name,
			Quantity:    quantity,
			UnitPrice:   price,
		})
	}
	return items, nil
}

// NormalizeOrders приводит заголовки заказов. Нераспознанная дата отгрузки
// становится NULL, нераспознанная дата заказа - фатальная ошибка.
func (n *RecordNormalizer) NormalizeOrders(source string, rows []models.OrderHeaderRaw) ([]models.OrderHeader, error) {
	orders := make([]models.OrderHeader, 0, len(rows))
	for _, row := range rows {
		orderID, err := normalize.Integer(row.OrderID)
		if err != nil {
			return nil, etlerr.AtRow(err, source, row.Row, row.OrderID, "OrderID")
		}

		orderDate, ok := normalize.Date(row.OrderDate)
		if !ok {
			return nil, &etlerr.DataIntegrityError{
				Source: source, Row: row.Row, Key: normalize.Text(row.OrderID), Field: "OrderDate",
				Reason: fmt.Sprintf("дата заказа отсутствует или не распознана (%q)", row.OrderDate),
			}
		}

		header := models.OrderHeader{
			Row:          row.Row,
			OrderID:      orderID,
			CustomerName: normalize.Text(row.CustomerName),
			OrderDate:    orderDate,
		}
		if shipped, ok := normalize.Date(row.ShippedDate); ok {
			header.ShippedDate = &shipped
		} else if normalize.Text(row.ShippedDate) != "" {
			n.logger.Debug("Дата отгрузки %q заказа %d не распознана, записывается NULL", row.ShippedDate, orderID)
		}

		orders = append(orders, header)
	}
	return orders, nil
}

// NormalizeCustomers приводит справочник клиентов
func (n *RecordNormalizer) NormalizeCustomers(source string, rows []models.CustomerRaw) ([]models.Customer, error) {
	customers := make([]models.Customer, 0, len(rows))
	for _, row := range rows {
		id, err := normalize.Integer(row.CustomerID)
		if err != nil {
			return nil, etlerr.AtRow(err, source, row.Row, normalize.Text(row.CompanyName), "CustomerID")
		}
		customers = append(customers, models.Customer{
			Row:         row.Row,
			CustomerID:  id,
			CompanyName: normalize.Text(row.CompanyName),
			Country:     normalize.Text(row.Country),
		})
	}
	return customers, nil
}

// NormalizeCatalog очищает каталог; строки без имени товара пропускаются
func (n *RecordNormalizer) NormalizeCatalog(rows []models.CatalogRaw) []models.CatalogEntry {
	if rows == nil {
		return nil
	}
	catalog := make([]models.CatalogEntry, 0, len(rows))
	for _, row := range rows {
		name := normalize.Text(row.ProductName)
		if name == "" {
			continue
		}
		catalog = append(catalog, models.CatalogEntry{
			ProductName: name,
			Category:    normalize.Text(row.Category),
		})
	}
	return catalog
}

func lineItemKey(orderID, productName string) string {
	return normalize.Text(orderID) + "/" + normalize.Text(productName)
}
