package load

import (
	"context"
	"fmt"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgtype"
	"github.com/jackc/pgx/v5/pgxpool"
)

type txBeginner interface {
	Begin(ctx context.Context) (pgx.Tx, error)
}

// PostgresLoader заменяет таблицы PostgreSQL в одной транзакции на таблицу:
// DROP, CREATE и COPY фиксируются вместе, поэтому читатели видят либо
// старую, либо новую таблицу.
type PostgresLoader struct {
	pool   txBeginner
	logger *utils.ETLLogger
}

// NewPostgresLoader создает новый экземпляр PostgresLoader
func NewPostgresLoader(pool *pgxpool.Pool, logger *utils.ETLLogger) *PostgresLoader {
	return &PostgresLoader{
		pool:   pool,
		logger: logger,
	}
}

// LoadProductDimension заменяет DimProduct
func (l *PostgresLoader) LoadProductDimension(ctx context.Context, products []models.DimProduct) error {
	return l.replaceTable(ctx, productSchema, productRows(products))
}

// LoadCustomerDimension заменяет DimCustomer
func (l *PostgresLoader) LoadCustomerDimension(ctx context.Context, customers []models.DimCustomer) error {
	return l.replaceTable(ctx, customerSchema, customerRows(customers))
}

// LoadSalesFacts заменяет FactSales. Сумма передается как NUMERIC без
// промежуточного float.
func (l *PostgresLoader) LoadSalesFacts(ctx context.Context, facts []models.FactSales) error {
	rows := make([][]any, len(facts))
	for i, f := range facts {
		var shipped any
		if f.ShippedDate != nil {
			shipped = *f.ShippedDate
		}
		ints, err := factInt32s(f)
		if err != nil {
			return err
		}
		amount := f.SalesAmount.Round(4)
		rows[i] = []any{
			ints[0], f.OrderDate, shipped, ints[1],
			pgtype.Numeric{Int: amount.Coefficient(), Exp: amount.Exponent(), Valid: true},
			ints[2], ints[3], ints[4],
		}
	}
	return l.replaceTable(ctx, factSalesSchema, rows)
}

func (l *PostgresLoader) replaceTable(ctx context.Context, schema TableSchema, rows [][]any) error {
	tx, err := l.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, fmt.Sprintf("DROP TABLE IF EXISTS %q", schema.Name)); err != nil {
		return fmt.Errorf("ошибка при удалении таблицы %s: %w", schema.Name, err)
	}
	if _, err := tx.Exec(ctx, schema.CreatePostgres()); err != nil {
		return fmt.Errorf("ошибка при создании таблицы %s: %w", schema.Name, err)
	}

	copied, err := tx.CopyFrom(ctx, pgx.Identifier{schema.Name}, schema.ColumnNames(), pgx.CopyFromRows(rows))
	if err != nil {
		return fmt.Errorf("ошибка при копировании строк в %s: %w", schema.Name, err)
	}
	if int(copied) != len(rows) {
		return fmt.Errorf("в %s скопировано %d строк из %d", schema.Name, copied, len(rows))
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	l.logger.Debug("Таблица %s заменена в PostgreSQL (%d строк)", schema.Name, copied)
	return nil
}
