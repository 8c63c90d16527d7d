package models

import "time"

// Сырые строки источников: значения полей в том виде, в каком они прочитаны
// из файла. Row - номер строки данных (1 - первая строка после заголовка).

// LineItemRaw представляет строку позиции заказа (Order Details)
type LineItemRaw struct {
	Row         int
	OrderID     string
	ProductName string
	Quantity    string
	UnitPrice   string
}

// OrderHeaderRaw представляет строку заголовка заказа (Orders)
type OrderHeaderRaw struct {
	Row          int
	OrderID      string
	CustomerName string
	OrderDate    string
	ShippedDate  string
}

// CustomerRaw представляет строку справочника клиентов (Customers)
type CustomerRaw struct {
	Row         int
	CustomerID  string
	CompanyName string
	Country     string
}

// CatalogRaw представляет строку каталога товаров (Products)
type CatalogRaw struct {
	Row         int
	ProductName string
	Category    string
}

// ExtractedData содержит все прочитанные источники одного запуска
type ExtractedData struct {
	LineItems []LineItemRaw
	Orders    []OrderHeaderRaw
	Customers []CustomerRaw
	// Catalog равен nil, если файл каталога не найден
	Catalog []CatalogRaw

	// Sources - имена файлов для сообщений об ошибках
	Sources     SourceNames
	ExtractedAt time.Time
}

// SourceNames хранит имена файлов источников
type SourceNames struct {
	LineItems string
	Orders    string
	Customers string
	Catalog   string
}
