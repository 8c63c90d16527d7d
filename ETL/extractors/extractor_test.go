package extractors

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"
)

func writeFile(t *testing.T, dir, name, content string) {
	t.Helper()
	require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644))
}

func sourcesConfig(dir string) config.SourcesConfig {
	cfg := config.GetConfig().Sources
	cfg.Dir = dir
	return cfg
}

func newTestExtractor(t *testing.T, cfg config.SourcesConfig) *Extractor {
	t.Helper()
	e, err := NewExtractor(cfg, utils.NewConsoleLogger(io.Discard, true))
	require.NoError(t, err)
	return e
}

func writeNorthwind(t *testing.T, dir string) {
	writeFile(t, dir, "Order Details.csv", "\ufeffOrder ID,Product,Quantity,Unit Price\n"+
		"1,Widget,3,\"€2,50\"\n"+
		"\n"+
		"1,Gadget,1,$10.00\n")
	writeFile(t, dir, "Orders.csv", "Order ID, Customer ,Order Date,Shipped Date\n"+
		"1,Acme,2024-01-05,\n")
	writeFile(t, dir, "Customers.csv", "ID,Company,Country/Region\n"+
		"7,Acme,USA\n")
}

func TestExtractCSV(t *testing.T) {
	dir := t.TempDir()
	writeNorthwind(t, dir)

	data, err := newTestExtractor(t, sourcesConfig(dir)).Extract(context.Background())
	require.NoError(t, err)

	require.Len(t, data.LineItems, 2)
	assert.Equal(t, models.LineItemRaw{Row: 1, OrderID: "1", ProductName: "Widget", Quantity: "3", UnitPrice: "€2,50"}, data.LineItems[0])
	assert.Equal(t, 3, data.LineItems[1].Row, "пустая строка сохраняет нумерацию")

	require.Len(t, data.Orders, 1)
	assert.Equal(t, "Acme", data.Orders[0].CustomerName)
	assert.Equal(t, "", data.Orders[0].ShippedDate)

	require.Len(t, data.Customers, 1)
	assert.Equal(t, models.CustomerRaw{Row: 1, CustomerID: "7", CompanyName: "Acme", Country: "USA"}, data.Customers[0])

	assert.Nil(t, data.Catalog, "каталог необязателен")
	assert.Equal(t, "Orders.csv", data.Sources.Orders)
}

func TestExtractReportsAllMissingSources(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, dir, "Orders.csv", "Order ID,Customer,Order Date,Shipped Date\n")

	_, err := newTestExtractor(t, sourcesConfig(dir)).Extract(context.Background())
	require.Error(t, err)

	var snf *etlerr.SourceNotFoundError
	require.ErrorAs(t, err, &snf)
	assert.Equal(t, SourceLineItems, snf.Source)
	assert.Contains(t, err.Error(), "Customers.csv")
	assert.Equal(t, etlerr.ExitSourceMissing, etlerr.ExitCode(err))
}

func TestExtractMissingColumn(t *testing.T) {
	dir := t.TempDir()
	writeNorthwind(t, dir)
	writeFile(t, dir, "Customers.csv", "ID,Name,Country/Region\n7,Acme,USA\n")

	_, err := newTestExtractor(t, sourcesConfig(dir)).Extract(context.Background())
	var pe *etlerr.ParseError
	require.ErrorAs(t, err, &pe)
	assert.Equal(t, "Company", pe.Field)
	assert.ErrorIs(t, err, ErrMissingColumn)
}

func TestExtractWindows1252(t *testing.T) {
	dir := t.TempDir()
	writeNorthwind(t, dir)
	writeFile(t, dir, "Customers.csv", "ID,Company,Country/Region\n8,Caf\xe9 Ren\xe9,France\n")
	writeFile(t, dir, "Order Details.csv", "Order ID,Product,Quantity,Unit Price\n1,P\xe2t\xe9,2,\x8014.00\n")

	cfg := sourcesConfig(dir)
	cfg.Encoding = "windows-1252"
	data, err := newTestExtractor(t, cfg).Extract(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "Café René", data.Customers[0].CompanyName)
	assert.Equal(t, "Pâté", data.LineItems[0].ProductName)
	assert.Equal(t, "€14.00", data.LineItems[0].UnitPrice)
}

func TestExtractXLSXCatalog(t *testing.T) {
	dir := t.TempDir()
	writeNorthwind(t, dir)

	f := excelize.NewFile()
	sheet := f.GetSheetName(0)
	require.NoError(t, f.SetSheetRow(sheet, "A1", &[]any{"Product Name", "Category"}))
	require.NoError(t, f.SetSheetRow(sheet, "A2", &[]any{"Widget", "Tools"}))
	require.NoError(t, f.SetSheetRow(sheet, "A4", &[]any{"Gadget", ""}))
	require.NoError(t, f.SaveAs(filepath.Join(dir, "Products.xlsx")))
	require.NoError(t, f.Close())

	cfg := sourcesConfig(dir)
	cfg.Catalog.File = "Products.xlsx"
	e := newTestExtractor(t, cfg)

	data, err := e.Extract(context.Background())
	require.NoError(t, err)
	require.Len(t, data.Catalog, 2)
	assert.Equal(t, models.CatalogRaw{Row: 1, ProductName: "Widget", Category: "Tools"}, data.Catalog[0])
	assert.Equal(t, 3, data.Catalog[1].Row)

	files, err := e.SourceFiles()
	require.NoError(t, err)
	assert.Len(t, files, 4)
}

func TestExtractCanceled(t *testing.T) {
	dir := t.TempDir()
	writeNorthwind(t, dir)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := newTestExtractor(t, sourcesConfig(dir)).Extract(ctx)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNewTableReaderUnknownEncoding(t *testing.T) {
	_, err := NewTableReader("ebcdic")
	assert.Error(t, err)
}
