package load

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gocloud.dev/blob"
	"gocloud.dev/blob/fileblob"
)

func openTestBucket(t *testing.T) (*blob.Bucket, string) {
	t.Helper()
	dir := t.TempDir()
	bucket, err := fileblob.OpenBucket(dir, &fileblob.Options{CreateDir: true})
	require.NoError(t, err)
	t.Cleanup(func() { bucket.Close() })
	return bucket, dir
}

func readObject[T any](t *testing.T, bucket *blob.Bucket, key string, options ...parquet.ReaderOption) []T {
	t.Helper()
	data, err := bucket.ReadAll(context.Background(), key)
	require.NoError(t, err)
	rows, err := parquet.Read[T](bytes.NewReader(data), int64(len(data)), options...)
	require.NoError(t, err)
	return rows
}

func TestParquetLoaderWritesFacts(t *testing.T) {
	bucket, dir := openTestBucket(t)
	loader := NewParquetLoader(bucket, "dw/", quietLogger())

	orderDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	shipped := time.Date(2024, 1, 9, 0, 0, 0, 0, time.UTC)
	facts := []models.FactSales{
		{OrderID: 1, OrderDate: orderDate, Quantity: 3, SalesAmount: decimal.RequireFromString("7.50"),
			ProductKey: 1, CustomerKey: -1, EmployeeKey: -1},
		{OrderID: 2, OrderDate: orderDate, ShippedDate: &shipped, Quantity: 1, SalesAmount: decimal.RequireFromString("18"),
			ProductKey: 2, CustomerKey: 7, EmployeeKey: -1},
	}
	require.NoError(t, loader.LoadSalesFacts(context.Background(), facts))

	assert.Equal(t, "dw/FactSales.parquet", loader.ObjectKey(models.TableFactSales))
	_, err := os.Stat(filepath.Join(dir, "dw", "FactSales.parquet"))
	require.NoError(t, err)

	rows := readObject[factSalesRow](t, bucket, "dw/FactSales.parquet", factSalesParquetSchema)
	require.Len(t, rows, 2)

	assert.Equal(t, int32(1), rows[0].OrderID)
	assert.Equal(t, int32(19727), rows[0].OrderDate)
	assert.Nil(t, rows[0].ShippedDate, "неотгруженный заказ хранит NULL")
	assert.Equal(t, "7.5", decodeDecimal(rows[0].SalesAmount).String())
	assert.Equal(t, int32(-1), rows[0].CustomerKey)

	require.NotNil(t, rows[1].ShippedDate)
	assert.Equal(t, int32(19731), *rows[1].ShippedDate)
	assert.True(t, decimal.RequireFromString("18").Equal(decodeDecimal(rows[1].SalesAmount)))
	assert.Equal(t, int32(7), rows[1].CustomerKey)
}

func TestParquetFactSalesColumnTypes(t *testing.T) {
	for name, want := range map[string]string{
		"OrderDate":   "DATE",
		"ShippedDate": "DATE",
		"SalesAmount": "DECIMAL(19,4)",
	} {
		leaf, ok := factSalesParquetSchema.Lookup(name)
		require.True(t, ok, name)
		assert.Equal(t, want, leaf.Node.Type().LogicalType().String(), name)
	}

	leaf, _ := factSalesParquetSchema.Lookup("ShippedDate")
	assert.True(t, leaf.Node.Optional())
	leaf, _ = factSalesParquetSchema.Lookup("OrderDate")
	assert.True(t, leaf.Node.Required())
}

func TestEncodeDecimal(t *testing.T) {
	for _, s := range []string{"0", "7.5", "1234567.8912", "999999999999999.9999"} {
		d := decimal.RequireFromString(s)
		b, err := encodeDecimal(d)
		require.NoError(t, err, s)
		assert.True(t, d.Equal(decodeDecimal(b)), s)
	}

	// Округление до 4 знаков
	b, err := encodeDecimal(decimal.RequireFromString("1.23456"))
	require.NoError(t, err)
	assert.Equal(t, "1.2346", decodeDecimal(b).String())

	_, err = encodeDecimal(decimal.RequireFromString("1000000000000000"))
	assert.Error(t, err)
}

func TestParquetLoaderRejectsOutOfRangeInts(t *testing.T) {
	bucket, _ := openTestBucket(t)
	loader := NewParquetLoader(bucket, "", quietLogger())

	err := loader.LoadSalesFacts(context.Background(), []models.FactSales{{
		OrderID: 1, OrderDate: time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC), Quantity: 3_000_000_000,
		SalesAmount: decimal.NewFromInt(1), ProductKey: 1, CustomerKey: -1, EmployeeKey: -1,
	}})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Quantity")

	exists, err := bucket.Exists(context.Background(), "FactSales.parquet")
	require.NoError(t, err)
	assert.False(t, exists)
}

func TestParquetLoaderReplacesDimensions(t *testing.T) {
	bucket, _ := openTestBucket(t)
	loader := NewParquetLoader(bucket, "", quietLogger())
	ctx := context.Background()

	require.NoError(t, loader.LoadProductDimension(ctx, []models.DimProduct{
		{ProductKey: 1, ProductName: "Chai", Category: "Beverages"},
		{ProductKey: 2, ProductName: "Tofu", Category: "General"},
	}))
	require.NoError(t, loader.LoadProductDimension(ctx, []models.DimProduct{
		{ProductKey: 1, ProductName: "Ikura", Category: "Seafood"},
	}))

	rows := readObject[dimProductRow](t, bucket, "DimProduct.parquet")
	assert.Equal(t, []dimProductRow{{ProductKey: 1, ProductName: "Ikura", Category: "Seafood"}}, rows)

	require.NoError(t, loader.LoadCustomerDimension(ctx, []models.DimCustomer{
		{CustomerKey: 5, CompanyName: "Berglunds snabbköp", Country: "Sweden"},
	}))
	customers := readObject[dimCustomerRow](t, bucket, "DimCustomer.parquet")
	assert.Equal(t, []dimCustomerRow{{CustomerKey: 5, CompanyName: "Berglunds snabbköp", Country: "Sweden"}}, customers)
}

func TestParquetLoaderCancelledKeepsPreviousObject(t *testing.T) {
	bucket, _ := openTestBucket(t)
	loader := NewParquetLoader(bucket, "", quietLogger())

	require.NoError(t, loader.LoadCustomerDimension(context.Background(), []models.DimCustomer{
		{CustomerKey: 1, CompanyName: "Alfreds", Country: "Germany"},
	}))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := loader.LoadCustomerDimension(ctx, []models.DimCustomer{
		{CustomerKey: 2, CompanyName: "Ana Trujillo", Country: "Mexico"},
	})
	require.Error(t, err)

	rows := readObject[dimCustomerRow](t, bucket, "DimCustomer.parquet")
	require.Len(t, rows, 1)
	assert.Equal(t, "Alfreds", rows[0].CompanyName)
}
