package load

import (
	"context"
	"errors"
	"io"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func quietLogger() *utils.ETLLogger {
	return utils.NewConsoleLogger(io.Discard, false)
}

func expectSwap(mock sqlmock.Sqlmock, schema TableSchema) {
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE IF NOT EXISTS `" + schema.Name + "`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("RENAME TABLE `" + schema.Name + "` TO `" + schema.Name + "_old`, `" +
		schema.Name + "_staging` TO `" + schema.Name + "`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE `" + schema.Name + "_old`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
}

func TestMySQLLoaderReplacesThroughStaging(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `DimProduct_staging`, `DimProduct_old`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec(regexp.QuoteMeta("CREATE TABLE `DimProduct_staging`")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO `DimProduct_staging` (`ProductKey`, `ProductName`, `Category`) VALUES (?,?,?), (?,?,?)")).
		WithArgs(1, "Chai", "Beverages", 2, "Tofu", "General").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectCommit()
	expectSwap(mock, productSchema)

	loader := NewMySQLLoader(db, 500, quietLogger())
	err = loader.LoadProductDimension(context.Background(), []models.DimProduct{
		{ProductKey: 1, ProductName: "Chai", Category: "Beverages"},
		{ProductKey: 2, ProductName: "Tofu", Category: "General"},
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLoaderSplitsBatches(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	customers := []models.DimCustomer{
		{CustomerKey: 1, CompanyName: "Alfreds", Country: "Germany"},
		{CustomerKey: 2, CompanyName: "Ana Trujillo", Country: "Mexico"},
		{CustomerKey: 3, CompanyName: "Around the Horn", Country: "UK"},
	}

	mock.ExpectExec("DROP TABLE IF EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `DimCustomer_staging`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("VALUES (?,?,?), (?,?,?)")).
		WithArgs(1, "Alfreds", "Germany", 2, "Ana Trujillo", "Mexico").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("VALUES (?,?,?)")).
		WithArgs(3, "Around the Horn", "UK").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectSwap(mock, customerSchema)

	loader := NewMySQLLoader(db, 2, quietLogger())
	require.NoError(t, loader.LoadCustomerDimension(context.Background(), customers))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLoaderFactValues(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	orderDate := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec("DROP TABLE IF EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `FactSales_staging`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `FactSales_staging`").
		WithArgs(1, orderDate, nil, 3, "7.5000", 1, -1, -1).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()
	expectSwap(mock, factSalesSchema)

	loader := NewMySQLLoader(db, 500, quietLogger())
	err = loader.LoadSalesFacts(context.Background(), []models.FactSales{{
		OrderID:     1,
		OrderDate:   orderDate,
		Quantity:    3,
		SalesAmount: decimal.RequireFromString("7.5"),
		ProductKey:  1,
		CustomerKey: models.UnknownKey,
		EmployeeKey: models.UnknownKey,
	}})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestMySQLLoaderInsertFailureKeepsTarget(t *testing.T) {
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	defer db.Close()

	mock.ExpectExec("DROP TABLE IF EXISTS").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("CREATE TABLE `DimProduct_staging`").WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO `DimProduct_staging`").WillReturnError(errors.New("disk full"))
	mock.ExpectRollback()
	mock.ExpectExec(regexp.QuoteMeta("DROP TABLE IF EXISTS `DimProduct_staging`")).
		WillReturnResult(sqlmock.NewResult(0, 0))

	loader := NewMySQLLoader(db, 500, quietLogger())
	err = loader.LoadProductDimension(context.Background(), []models.DimProduct{
		{ProductKey: 1, ProductName: "Chai", Category: "Beverages"},
	})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "disk full")
	// RENAME не выполнялся
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestInsertStatement(t *testing.T) {
	assert.Equal(t,
		"INSERT INTO `t` (`a`, `b`) VALUES (?,?), (?,?), (?,?)",
		insertStatement("t", []string{"a", "b"}, 3))
}
