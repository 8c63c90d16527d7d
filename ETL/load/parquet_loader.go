package load

import (
	"context"
	"fmt"
	"math/big"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/parquet-go/parquet-go"
	"github.com/shopspring/decimal"
	"gocloud.dev/blob"
)

// Строки parquet-файлов. Имена столбцов совпадают с SQL таблицами.

type dimProductRow struct {
	ProductKey  int32  `parquet:"ProductKey"`
	ProductName string `parquet:"ProductName"`
	Category    string `parquet:"Category"`
}

type dimCustomerRow struct {
	CustomerKey int32  `parquet:"CustomerKey"`
	CompanyName string `parquet:"CompanyName"`
	Country     string `parquet:"Country"`
}

// Даты хранятся логическим типом DATE (дни от 1970-01-01), сумма - как
// DECIMAL(19,4) в 9-байтовом массиве.
type factSalesRow struct {
	OrderID     int32                  `parquet:"OrderID"`
	OrderDate   int32                  `parquet:"OrderDate,date"`
	ShippedDate *int32                 `parquet:"ShippedDate"`
	Quantity    int32                  `parquet:"Quantity"`
	SalesAmount [salesAmountBytes]byte `parquet:"SalesAmount,decimal(4:19)"`
	ProductKey  int32                  `parquet:"ProductKey"`
	CustomerKey int32                  `parquet:"CustomerKey"`
	EmployeeKey int32                  `parquet:"EmployeeKey"`
}

const (
	salesAmountScale     = 4
	salesAmountPrecision = 19
	salesAmountBytes     = 9
)

// Указатель в теге не может нести DATE, поэтому схема FactSales задается явно
var factSalesParquetSchema = parquet.NewSchema(models.TableFactSales, parquet.Group{
	"OrderID":     parquet.Int(32),
	"OrderDate":   parquet.Date(),
	"ShippedDate": parquet.Optional(parquet.Date()),
	"Quantity":    parquet.Int(32),
	"SalesAmount": parquet.Decimal(salesAmountScale, salesAmountPrecision, parquet.FixedLenByteArrayType(salesAmountBytes)),
	"ProductKey":  parquet.Int(32),
	"CustomerKey": parquet.Int(32),
	"EmployeeKey": parquet.Int(32),
})

// ParquetLoader пишет каждую таблицу отдельным объектом <prefix><Table>.parquet
// в bucket (локальный каталог, S3 или GCS). Объект заменяется целиком при
// закрытии writer.
type ParquetLoader struct {
	bucket *blob.Bucket
	prefix string
	logger *utils.ETLLogger
}

// NewParquetLoader создает новый экземпляр ParquetLoader
func NewParquetLoader(bucket *blob.Bucket, prefix string, logger *utils.ETLLogger) *ParquetLoader {
	return &ParquetLoader{
		bucket: bucket,
		prefix: prefix,
		logger: logger,
	}
}

// ObjectKey возвращает ключ объекта таблицы
func (l *ParquetLoader) ObjectKey(table string) string {
	return l.prefix + table + ".parquet"
}

// LoadProductDimension заменяет DimProduct
func (l *ParquetLoader) LoadProductDimension(ctx context.Context, products []models.DimProduct) error {
	rows := make([]dimProductRow, len(products))
	for i, p := range products {
		rows[i] = dimProductRow{
			ProductKey:  int32(p.ProductKey),
			ProductName: p.ProductName,
			Category:    p.Category,
		}
	}
	return writeObject(ctx, l.bucket, l.ObjectKey(models.TableDimProduct), rows)
}

// LoadCustomerDimension заменяет DimCustomer
func (l *ParquetLoader) LoadCustomerDimension(ctx context.Context, customers []models.DimCustomer) error {
	rows := make([]dimCustomerRow, len(customers))
	for i, c := range customers {
		rows[i] = dimCustomerRow{
			CustomerKey: int32(c.CustomerKey),
			CompanyName: c.CompanyName,
			Country:     c.Country,
		}
	}
	return writeObject(ctx, l.bucket, l.ObjectKey(models.TableDimCustomer), rows)
}

// LoadSalesFacts заменяет FactSales
func (l *ParquetLoader) LoadSalesFacts(ctx context.Context, facts []models.FactSales) error {
	rows := make([]factSalesRow, len(facts))
	for i, f := range facts {
		ints, err := factInt32s(f)
		if err != nil {
			return err
		}
		amount, err := encodeDecimal(f.SalesAmount)
		if err != nil {
			return fmt.Errorf("заказ %d: %w", f.OrderID, err)
		}
		row := factSalesRow{
			OrderID:     ints[0],
			OrderDate:   epochDays(f.OrderDate),
			Quantity:    ints[1],
			SalesAmount: amount,
			ProductKey:  ints[2],
			CustomerKey: ints[3],
			EmployeeKey: ints[4],
		}
		if f.ShippedDate != nil {
			days := epochDays(*f.ShippedDate)
			row.ShippedDate = &days
		}
		rows[i] = row
	}
	return writeObject(ctx, l.bucket, l.ObjectKey(models.TableFactSales), rows, factSalesParquetSchema)
}

func epochDays(t time.Time) int32 {
	y, m, d := t.Date()
	return int32(time.Date(y, m, d, 0, 0, 0, 0, time.UTC).Unix() / 86400)
}

// encodeDecimal кодирует сумму в big-endian дополнительный код с масштабом 4
func encodeDecimal(d decimal.Decimal) ([salesAmountBytes]byte, error) {
	var out [salesAmountBytes]byte
	unscaled := d.Round(salesAmountScale).Shift(salesAmountScale).BigInt()

	limit := new(big.Int).Exp(big.NewInt(10), big.NewInt(salesAmountPrecision), nil)
	if new(big.Int).Abs(unscaled).Cmp(limit) >= 0 {
		return out, fmt.Errorf("сумма %s не помещается в DECIMAL(%d,%d)", d, salesAmountPrecision, salesAmountScale)
	}
	if unscaled.Sign() < 0 {
		unscaled.Add(unscaled, new(big.Int).Lsh(big.NewInt(1), 8*salesAmountBytes))
	}
	unscaled.FillBytes(out[:])
	return out, nil
}

// decodeDecimal - обратное преобразование для encodeDecimal
func decodeDecimal(b [salesAmountBytes]byte) decimal.Decimal {
	unscaled := new(big.Int).SetBytes(b[:])
	if b[0]&0x80 != 0 {
		unscaled.Sub(unscaled, new(big.Int).Lsh(big.NewInt(1), 8*salesAmountBytes))
	}
	return decimal.NewFromBigInt(unscaled, -salesAmountScale)
}

// writeObject сериализует строки в parquet. При ошибке запись отменяется
// через контекст, и прежний объект остается нетронутым.
func writeObject[T any](ctx context.Context, bucket *blob.Bucket, key string, rows []T, options ...parquet.WriterOption) error {
	writeCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	w, err := bucket.NewWriter(writeCtx, key, &blob.WriterOptions{
		ContentType: "application/vnd.apache.parquet",
	})
	if err != nil {
		return fmt.Errorf("ошибка при создании объекта %s: %w", key, err)
	}

	if err := parquet.Write(w, rows, options...); err != nil {
		cancel()
		_ = w.Close()
		return fmt.Errorf("ошибка при записи parquet %s: %w", key, err)
	}

	if err := w.Close(); err != nil {
		return fmt.Errorf("ошибка при сохранении объекта %s: %w", key, err)
	}
	return nil
}
