package models

// TransformedData содержит результат трансформации: таблицы звезды и
// счётчики, которые попадают в журнал запусков и итоговую сводку
type TransformedData struct {
	Products  []DimProduct
	Customers []DimCustomer
	Facts     []FactSales

	Stats TransformStats
}

// TransformStats - счётчики этапа трансформации
type TransformStats struct {
	LineItemsRead int `json:"line_items_read"`
	OrdersRead    int `json:"orders_read"`
	CustomersRead int `json:"customers_read"`
	CatalogRead   int `json:"catalog_read"`

	// OrphanedLineItems - позиции без заголовка заказа, отброшены
	OrphanedLineItems int `json:"orphaned_line_items"`
	// UnmatchedProducts - факты с ProductKey = -1
	UnmatchedProducts int `json:"unmatched_products"`
	// UnmatchedCustomers - факты с CustomerKey = -1
	UnmatchedCustomers int `json:"unmatched_customers"`
	// DuplicateCustomers - повторные CustomerID, оставлена первая запись
	DuplicateCustomers int `json:"duplicate_customers"`
	// DuplicateCompanies - компании с несколькими CustomerID
	DuplicateCompanies int `json:"duplicate_companies"`
	// UncategorizedProducts - товары с категорией по умолчанию
	UncategorizedProducts int `json:"uncategorized_products"`
}
