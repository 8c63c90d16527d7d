package load

import (
	"fmt"
	"math"
	"strings"

	"github.com/LilVoxy/northwind_dw/ETL/models"
)

// Column - столбец таблицы хранилища с типами для каждого SQL диалекта
type Column struct {
	Name     string
	MySQL    string
	Postgres string
	Nullable bool
}

// TableSchema описывает таблицу звезды
type TableSchema struct {
	Name       string
	Columns    []Column
	PrimaryKey string
}

var (
	productSchema = TableSchema{
		Name: models.TableDimProduct,
		Columns: []Column{
			{Name: "ProductKey", MySQL: "INT", Postgres: "INTEGER"},
			{Name: "ProductName", MySQL: "VARCHAR(255)", Postgres: "VARCHAR(255)"},
			{Name: "Category", MySQL: "VARCHAR(255)", Postgres: "VARCHAR(255)"},
		},
		PrimaryKey: "ProductKey",
	}

	customerSchema = TableSchema{
		Name: models.TableDimCustomer,
		Columns: []Column{
			{Name: "CustomerKey", MySQL: "INT", Postgres: "INTEGER"},
			{Name: "CompanyName", MySQL: "VARCHAR(255)", Postgres: "VARCHAR(255)"},
			{Name: "Country", MySQL: "VARCHAR(100)", Postgres: "VARCHAR(100)"},
		},
		PrimaryKey: "CustomerKey",
	}

	factSalesSchema = TableSchema{
		Name: models.TableFactSales,
		Columns: []Column{
			{Name: "OrderID", MySQL: "INT", Postgres: "INTEGER"},
			{Name: "OrderDate", MySQL: "DATE", Postgres: "DATE"},
			{Name: "ShippedDate", MySQL: "DATE", Postgres: "DATE", Nullable: true},
			{Name: "Quantity", MySQL: "INT", Postgres: "INTEGER"},
			{Name: "SalesAmount", MySQL: "DECIMAL(19,4)", Postgres: "NUMERIC(19,4)"},
			{Name: "ProductKey", MySQL: "INT", Postgres: "INTEGER"},
			{Name: "CustomerKey", MySQL: "INT", Postgres: "INTEGER"},
			{Name: "EmployeeKey", MySQL: "INT", Postgres: "INTEGER"},
		},
	}
)

// ColumnNames возвращает имена столбцов в порядке схемы
func (s TableSchema) ColumnNames() []string {
	names := make([]string, len(s.Columns))
	for i, c := range s.Columns {
		names[i] = c.Name
	}
	return names
}

// CreateMySQL возвращает DDL таблицы с именем table для MySQL
func (s TableSchema) CreateMySQL(table string, ifNotExists bool) string {
	defs := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		defs = append(defs, fmt.Sprintf("`%s` %s %s", c.Name, c.MySQL, nullability(c.Nullable)))
	}
	if s.PrimaryKey != "" {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (`%s`)", s.PrimaryKey))
	}

	clause := "CREATE TABLE"
	if ifNotExists {
		clause += " IF NOT EXISTS"
	}
	return fmt.Sprintf("%s `%s` (%s) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4",
		clause, table, strings.Join(defs, ", "))
}

// CreatePostgres возвращает DDL таблицы для PostgreSQL. Имена в кавычках
// сохраняют регистр.
func (s TableSchema) CreatePostgres() string {
	defs := make([]string, 0, len(s.Columns)+1)
	for _, c := range s.Columns {
		defs = append(defs, fmt.Sprintf("%q %s %s", c.Name, c.Postgres, nullability(c.Nullable)))
	}
	if s.PrimaryKey != "" {
		defs = append(defs, fmt.Sprintf("PRIMARY KEY (%q)", s.PrimaryKey))
	}
	return fmt.Sprintf("CREATE TABLE %q (%s)", s.Name, strings.Join(defs, ", "))
}

func nullability(nullable bool) string {
	if nullable {
		return "NULL"
	}
	return "NOT NULL"
}

func productRows(products []models.DimProduct) [][]any {
	rows := make([][]any, len(products))
	for i, p := range products {
		rows[i] = p.Values()
	}
	return rows
}

func customerRows(customers []models.DimCustomer) [][]any {
	rows := make([][]any, len(customers))
	for i, c := range customers {
		rows[i] = c.Values()
	}
	return rows
}

func factRows(facts []models.FactSales) [][]any {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		rows[i] = f.Values()
	}
	return rows
}

// factInt32s возвращает OrderID, Quantity, ProductKey, CustomerKey и
// EmployeeKey строки факта в диапазоне столбца INT
func factInt32s(f models.FactSales) ([5]int32, error) {
	var out [5]int32
	values := [5]int{f.OrderID, f.Quantity, f.ProductKey, f.CustomerKey, f.EmployeeKey}
	names := [5]string{"OrderID", "Quantity", "ProductKey", "CustomerKey", "EmployeeKey"}
	for i, v := range values {
		if v < math.MinInt32 || v > math.MaxInt32 {
			return out, fmt.Errorf("заказ %d: значение %s=%d вне диапазона INT", f.OrderID, names[i], v)
		}
		out[i] = int32(v)
	}
	return out, nil
}
