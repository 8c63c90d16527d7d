package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// LineItem - позиция заказа после приведения типов
type LineItem struct {
	Row         int
	OrderID     int
	ProductName string
	Quantity    int
	UnitPrice   decimal.Decimal
}

// OrderHeader - заголовок заказа после приведения типов.
// ShippedDate равен nil, если дата отгрузки отсутствует или не распознана.
type OrderHeader struct {
	Row          int
	OrderID      int
	CustomerName string
	OrderDate    time.Time
	ShippedDate  *time.Time
}

// Customer - запись справочника клиентов после приведения типов
type Customer struct {
	Row         int
	CustomerID  int
	CompanyName string
	Country     string
}

// CatalogEntry - запись каталога товаров
type CatalogEntry struct {
	ProductName string
	Category    string
}

// NormalizedData содержит типизированные записи всех источников
type NormalizedData struct {
	LineItems []LineItem
	Orders    []OrderHeader
	Customers []Customer
	Catalog   []CatalogEntry
}
