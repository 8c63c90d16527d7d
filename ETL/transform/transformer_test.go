package transform

import (
	"errors"
	"io"
	"testing"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/normalize"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testLogger() *utils.ETLLogger {
	return utils.NewConsoleLogger(io.Discard, true)
}

func newTestTransformer(t *testing.T, mutate ...func(*config.TransformConfig)) *Transformer {
	t.Helper()
	cfg := config.GetConfig().Transform
	for _, m := range mutate {
		m(&cfg)
	}
	tr, err := NewTransformer(cfg, testLogger())
	require.NoError(t, err)
	return tr
}

func sources() models.SourceNames {
	return models.SourceNames{
		LineItems: "Order Details.csv",
		Orders:    "Orders.csv",
		Customers: "Customers.csv",
		Catalog:   "Products.csv",
	}
}

// northwindSample - небольшой набор с позицией без заказа, клиентом без
// записи в справочнике и товаром без категории
func northwindSample() *models.ExtractedData {
	return &models.ExtractedData{
		Sources: sources(),
		LineItems: []models.LineItemRaw{
			{Row: 1, OrderID: "10248", ProductName: "Queso Cabrales", Quantity: "12", UnitPrice: "€14,00"},
			{Row: 2, OrderID: "10248", ProductName: "Singaporean Hokkien Fried Mee", Quantity: "10", UnitPrice: "$9.80"},
			{Row: 3, OrderID: "10249", ProductName: "Tofu", Quantity: "9", UnitPrice: "18.60"},
			{Row: 4, OrderID: "10249", ProductName: "Queso Cabrales", Quantity: "40", UnitPrice: "â‚¬42.40"},
			{Row: 5, OrderID: "99999", ProductName: "Chai", Quantity: "1", UnitPrice: "18"},
			{Row: 6, OrderID: "10250", ProductName: "Tofu", Quantity: "0", UnitPrice: "18.60"},
		},
		Orders: []models.OrderHeaderRaw{
			{Row: 1, OrderID: "10248", CustomerName: "Company A", OrderDate: "7/4/1996", ShippedDate: "1996-07-16"},
			{Row: 2, OrderID: "10249", CustomerName: "Company B", OrderDate: "05.07.1996", ShippedDate: ""},
			{Row: 3, OrderID: "10250", CustomerName: "Company Z", OrderDate: "35254", ShippedDate: "soon"},
		},
		Customers: []models.CustomerRaw{
			{Row: 1, CustomerID: "1", CompanyName: "Company A", Country: "USA"},
			{Row: 2, CustomerID: "2", CompanyName: "Company B", Country: "Germany"},
			{Row: 3, CustomerID: "2", CompanyName: "Company B copy", Country: "Germany"},
		},
		Catalog: []models.CatalogRaw{
			{Row: 1, ProductName: "Queso Cabrales", Category: ""},
			{Row: 2, ProductName: "Queso Cabrales", Category: "Dairy Products"},
			{Row: 3, ProductName: "Tofu", Category: "Produce"},
			{Row: 4, ProductName: "Queso Cabrales", Category: "Cheese"},
			{Row: 5, ProductName: "Ikura", Category: "Seafood"},
		},
	}
}

func TestTransformSingleLineItemCommaPrice(t *testing.T) {
	data := &models.ExtractedData{
		Sources:   sources(),
		LineItems: []models.LineItemRaw{{Row: 1, OrderID: "1", ProductName: "Widget", Quantity: "3", UnitPrice: "€2,50"}},
		Orders:    []models.OrderHeaderRaw{{Row: 1, OrderID: "1", CustomerName: "Acme", OrderDate: "2024-01-05", ShippedDate: ""}},
	}

	out, err := newTestTransformer(t).Transform(data)
	require.NoError(t, err)

	assert.Equal(t, []models.DimProduct{{ProductKey: 1, ProductName: "Widget", Category: "General"}}, out.Products)
	assert.Empty(t, out.Customers)
	require.Len(t, out.Facts, 1)

	fact := out.Facts[0]
	assert.Equal(t, 1, fact.OrderID)
	assert.Equal(t, time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), fact.OrderDate)
	assert.Nil(t, fact.ShippedDate)
	assert.Equal(t, 3, fact.Quantity)
	assert.True(t, decimal.RequireFromString("7.50").Equal(fact.SalesAmount), "SalesAmount %s", fact.SalesAmount)
	assert.Equal(t, 1, fact.ProductKey)
	assert.Equal(t, models.UnknownKey, fact.CustomerKey)
	assert.Equal(t, models.UnknownKey, fact.EmployeeKey)
}

func TestTransformProperties(t *testing.T) {
	data := northwindSample()
	out, err := newTestTransformer(t).Transform(data)
	require.NoError(t, err)

	// count(FactSales) == count(LineItem ⋈ OrderHeader)
	assert.Len(t, out.Facts, 5)
	assert.Equal(t, 1, out.Stats.OrphanedLineItems)

	// одна строка DimProduct на проданное имя, ключи по первому появлению
	assert.Equal(t, []models.DimProduct{
		{ProductKey: 1, ProductName: "Queso Cabrales", Category: "Dairy Products"},
		{ProductKey: 2, ProductName: "Singaporean Hokkien Fried Mee", Category: "General"},
		{ProductKey: 3, ProductName: "Tofu", Category: "Produce"},
		{ProductKey: 4, ProductName: "Chai", Category: "General"},
	}, out.Products, "Ikura есть только в каталоге и ключа не получает")
	assert.Equal(t, 2, out.Stats.UncategorizedProducts)

	productKeys := map[int]bool{}
	for _, p := range out.Products {
		productKeys[p.ProductKey] = true
	}
	customerKeys := map[int]bool{}
	for _, c := range out.Customers {
		customerKeys[c.CustomerKey] = true
	}

	prices := map[string]string{"Queso Cabrales": "", "Singaporean Hokkien Fried Mee": "9.80", "Tofu": "18.60"}
	for _, f := range out.Facts {
		assert.True(t, f.ProductKey == models.UnknownKey || productKeys[f.ProductKey])
		assert.True(t, f.CustomerKey == models.UnknownKey || customerKeys[f.CustomerKey])
		assert.Equal(t, models.UnknownKey, f.EmployeeKey)
		if price := prices[out.Products[f.ProductKey-1].ProductName]; price != "" {
			want := decimal.RequireFromString(price).Mul(decimal.NewFromInt(int64(f.Quantity)))
			assert.True(t, want.Equal(f.SalesAmount))
		}
	}

	assert.True(t, decimal.NewFromInt(168).Equal(out.Facts[0].SalesAmount))
	assert.True(t, decimal.NewFromInt(1696).Equal(out.Facts[3].SalesAmount))
	assert.True(t, out.Facts[4].SalesAmount.IsZero())

	// порядок фактов совпадает с порядком позиций
	assert.Equal(t, []int{10248, 10248, 10249, 10249, 10250}, []int{
		out.Facts[0].OrderID, out.Facts[1].OrderID, out.Facts[2].OrderID, out.Facts[3].OrderID, out.Facts[4].OrderID,
	})

	// клиенты: сквозной ключ, повтор CustomerID отброшен
	assert.Equal(t, []models.DimCustomer{
		{CustomerKey: 1, CompanyName: "Company A", Country: "USA"},
		{CustomerKey: 2, CompanyName: "Company B", Country: "Germany"},
	}, out.Customers)
	assert.Equal(t, 1, out.Stats.DuplicateCustomers)
	assert.Equal(t, 1, out.Facts[0].CustomerKey)
	assert.Equal(t, 2, out.Facts[2].CustomerKey)
	assert.Equal(t, models.UnknownKey, out.Facts[4].CustomerKey)
	assert.Equal(t, 1, out.Stats.UnmatchedCustomers)

	// даты
	assert.Equal(t, time.Date(1996, 7, 4, 0, 0, 0, 0, time.UTC), out.Facts[0].OrderDate)
	require.NotNil(t, out.Facts[0].ShippedDate)
	assert.Equal(t, time.Date(1996, 7, 16, 0, 0, 0, 0, time.UTC), *out.Facts[0].ShippedDate)
	assert.Equal(t, time.Date(1996, 7, 5, 0, 0, 0, 0, time.UTC), out.Facts[2].OrderDate)
	assert.Nil(t, out.Facts[2].ShippedDate)
	assert.Equal(t, time.Date(1996, 7, 8, 0, 0, 0, 0, time.UTC), out.Facts[4].OrderDate)
	assert.Nil(t, out.Facts[4].ShippedDate, "нераспознанная дата отгрузки становится NULL")
}

func TestTransformEmptyCatalog(t *testing.T) {
	data := northwindSample()
	data.Catalog = nil

	out, err := newTestTransformer(t).Transform(data)
	require.NoError(t, err)
	require.Len(t, out.Products, 4)
	for _, p := range out.Products {
		assert.Equal(t, "General", p.Category)
	}
	assert.Equal(t, 4, out.Stats.UncategorizedProducts)
}

func TestTransformKeysProductsOfOrphanedLineItems(t *testing.T) {
	data := &models.ExtractedData{
		Sources: sources(),
		LineItems: []models.LineItemRaw{
			{Row: 1, OrderID: "500", ProductName: "Chang", Quantity: "2", UnitPrice: "19.00"},
			{Row: 2, OrderID: "1", ProductName: "Widget", Quantity: "3", UnitPrice: "2.50"},
			{Row: 3, OrderID: "500", ProductName: "Widget", Quantity: "1", UnitPrice: "2.50"},
		},
		Orders: []models.OrderHeaderRaw{{Row: 1, OrderID: "1", CustomerName: "Acme", OrderDate: "2024-01-05"}},
	}

	out, err := newTestTransformer(t).Transform(data)
	require.NoError(t, err)

	// Chang продан только в позиции без заказа, но ключ получает первым
	assert.Equal(t, []models.DimProduct{
		{ProductKey: 1, ProductName: "Chang", Category: "General"},
		{ProductKey: 2, ProductName: "Widget", Category: "General"},
	}, out.Products)
	assert.Equal(t, 2, out.Stats.OrphanedLineItems)
	require.Len(t, out.Facts, 1)
	assert.Equal(t, 2, out.Facts[0].ProductKey)
}

func TestTransformIsDeterministic(t *testing.T) {
	tr := newTestTransformer(t)
	first, err := tr.Transform(northwindSample())
	require.NoError(t, err)
	second, err := tr.Transform(northwindSample())
	require.NoError(t, err)

	assert.Equal(t, first.Products, second.Products)
	assert.Equal(t, first.Customers, second.Customers)
	assert.Equal(t, first.Facts, second.Facts)
}

func TestTransformFallbackCategoryConfigurable(t *testing.T) {
	data := northwindSample()
	data.Catalog = nil

	out, err := newTestTransformer(t, func(c *config.TransformConfig) { c.FallbackCategory = "Misc" }).Transform(data)
	require.NoError(t, err)
	assert.Equal(t, "Misc", out.Products[0].Category)
}

func TestTransformFatalErrors(t *testing.T) {
	tests := []struct {
		name     string
		mutate   func(*models.ExtractedData)
		strict   bool
		wantExit int
		source   string
		row      int
	}{
		{
			name:     "missing order date",
			mutate:   func(d *models.ExtractedData) { d.Orders[1].OrderDate = "" },
			wantExit: etlerr.ExitDataIntegrity,
			source:   "Orders.csv",
			row:      2,
		},
		{
			name:     "unparseable order date",
			mutate:   func(d *models.ExtractedData) { d.Orders[2].OrderDate = "someday" },
			wantExit: etlerr.ExitDataIntegrity,
			source:   "Orders.csv",
			row:      3,
		},
		{
			name:     "bad quantity",
			mutate:   func(d *models.ExtractedData) { d.LineItems[2].Quantity = "nine" },
			wantExit: etlerr.ExitParse,
			source:   "Order Details.csv",
			row:      3,
		},
		{
			name:     "ambiguous price",
			mutate:   func(d *models.ExtractedData) { d.LineItems[0].UnitPrice = "1,400" },
			wantExit: etlerr.ExitParse,
			source:   "Order Details.csv",
			row:      1,
		},
		{
			name:     "bad order id",
			mutate:   func(d *models.ExtractedData) { d.Orders[0].OrderID = "A-1" },
			wantExit: etlerr.ExitParse,
			source:   "Orders.csv",
			row:      1,
		},
		{
			name:     "duplicate order header",
			mutate:   func(d *models.ExtractedData) { d.Orders[2].OrderID = "10248" },
			wantExit: etlerr.ExitDataIntegrity,
			source:   "Orders.csv",
			row:      3,
		},
		{
			name:     "strict duplicate customer",
			mutate:   func(d *models.ExtractedData) {},
			strict:   true,
			wantExit: etlerr.ExitDataIntegrity,
			source:   "Customers.csv",
			row:      3,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			data := northwindSample()
			tt.mutate(data)

			tr := newTestTransformer(t, func(c *config.TransformConfig) { c.StrictCustomerKeys = tt.strict })
			_, err := tr.Transform(data)
			require.Error(t, err)
			assert.Equal(t, tt.wantExit, etlerr.ExitCode(err), err.Error())

			var pe *etlerr.ParseError
			var die *etlerr.DataIntegrityError
			switch {
			case errors.As(err, &pe):
				assert.Equal(t, tt.source, pe.Source)
				assert.Equal(t, tt.row, pe.Row)
				assert.NotEmpty(t, pe.Key)
			case errors.As(err, &die):
				assert.Equal(t, tt.source, die.Source)
				assert.Equal(t, tt.row, die.Row)
			default:
				t.Fatalf("неожиданный тип ошибки: %v", err)
			}
		})
	}
}

func TestParseErrorNamesOrderAndProduct(t *testing.T) {
	data := northwindSample()
	data.LineItems[1].UnitPrice = "n/a"

	_, err := newTestTransformer(t).Transform(data)
	var pe *etlerr.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "10248/Singaporean Hokkien Fried Mee", pe.Key)
	assert.Equal(t, "UnitPrice", pe.Field)
	assert.ErrorIs(t, err, normalize.ErrNotNumeric)
}

func TestAssembleWithoutOrders(t *testing.T) {
	items := []models.LineItem{{Row: 1, OrderID: 1, ProductName: "Widget", Quantity: 1, UnitPrice: decimal.NewFromInt(1)}}
	facts, stats, err := NewSalesFactsProcessor(testLogger()).Assemble(items, nil, nil, nil)
	require.NoError(t, err)
	assert.Empty(t, facts)
	assert.Equal(t, FactStats{LineItemsIn: 1, OrphanedLineItems: 1}, stats)
}

func TestAssembleUnknownProduct(t *testing.T) {
	orderDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	items := []models.LineItem{{Row: 1, OrderID: 1, ProductName: "Ghost", Quantity: 2, UnitPrice: decimal.NewFromInt(3)}}
	orders := []models.OrderHeader{{Row: 1, OrderID: 1, CustomerName: "Acme", OrderDate: orderDate}}
	customers := []models.DimCustomer{{CustomerKey: 5, CompanyName: "Acme"}, {CustomerKey: 9, CompanyName: "Acme"}}

	facts, stats, err := NewSalesFactsProcessor(testLogger()).Assemble(items, orders, nil, customers)
	require.NoError(t, err)
	require.Len(t, facts, 1, "повторное имя компании не размножает факты")
	assert.Equal(t, models.UnknownKey, facts[0].ProductKey)
	assert.Equal(t, 5, facts[0].CustomerKey)
	assert.Equal(t, 1, stats.UnmatchedProducts)
}
