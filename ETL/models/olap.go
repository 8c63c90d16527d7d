package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// UnknownKey - суррогатный ключ для отсутствующего члена измерения
const UnknownKey = -1

// Имена таблиц хранилища в порядке записи
const (
	TableDimProduct  = "DimProduct"
	TableDimCustomer = "DimCustomer"
	TableFactSales   = "FactSales"
)

// WarehouseTables перечисляет таблицы в порядке замены
var WarehouseTables = []string{TableDimProduct, TableDimCustomer, TableFactSales}

// DimProduct представляет измерение товаров
type DimProduct struct {
	ProductKey  int    `json:"product_key"`
	ProductName string `json:"product_name"`
	Category    string `json:"category"`
}

// DimCustomer представляет измерение клиентов
type DimCustomer struct {
	CustomerKey int    `json:"customer_key"`
	CompanyName string `json:"company_name"`
	Country     string `json:"country"`
}

// FactSales представляет строку факта продаж (одна позиция заказа)
type FactSales struct {
	OrderID     int             `json:"order_id"`
	OrderDate   time.Time       `json:"order_date"`
	ShippedDate *time.Time      `json:"shipped_date"`
	Quantity    int             `json:"quantity"`
	SalesAmount decimal.Decimal `json:"sales_amount"`
	ProductKey  int             `json:"product_key"`
	CustomerKey int             `json:"customer_key"`
	EmployeeKey int             `json:"employee_key"`
}

// Столбцы таблиц в порядке Values()
var (
	DimProductColumns  = []string{"ProductKey", "ProductName", "Category"}
	DimCustomerColumns = []string{"CustomerKey", "CompanyName", "Country"}
	FactSalesColumns   = []string{
		"OrderID", "OrderDate", "ShippedDate", "Quantity",
		"SalesAmount", "ProductKey", "CustomerKey", "EmployeeKey",
	}
)

// Values возвращает значения строки в порядке DimProductColumns
func (p DimProduct) Values() []any {
	return []any{p.ProductKey, p.ProductName, p.Category}
}

// Values возвращает значения строки в порядке DimCustomerColumns
func (c DimCustomer) Values() []any {
	return []any{c.CustomerKey, c.CompanyName, c.Country}
}

// Values возвращает значения строки в порядке FactSalesColumns.
// Пустая дата отгрузки передаётся как nil (NULL).
func (f FactSales) Values() []any {
	var shipped any
	if f.ShippedDate != nil {
		shipped = *f.ShippedDate
	}
	return []any{
		f.OrderID, f.OrderDate, shipped, f.Quantity,
		f.SalesAmount.StringFixed(4), f.ProductKey, f.CustomerKey, f.EmployeeKey,
	}
}
