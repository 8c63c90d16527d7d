package load

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// MySQLLoader заменяет таблицы MySQL через промежуточную таблицу:
// данные пишутся в <Table>_staging в транзакции, затем RENAME TABLE
// атомарно меняет таблицы местами.
type MySQLLoader struct {
	db        *sql.DB
	batchSize int
	logger    *utils.ETLLogger
}

// NewMySQLLoader создает новый экземпляр MySQLLoader
func NewMySQLLoader(db *sql.DB, batchSize int, logger *utils.ETLLogger) *MySQLLoader {
	if batchSize < 1 {
		batchSize = 500
	}
	return &MySQLLoader{
		db:        db,
		batchSize: batchSize,
		logger:    logger,
	}
}

// LoadProductDimension заменяет DimProduct
func (l *MySQLLoader) LoadProductDimension(ctx context.Context, products []models.DimProduct) error {
	return l.replaceTable(ctx, productSchema, productRows(products))
}

// LoadCustomerDimension заменяет DimCustomer
func (l *MySQLLoader) LoadCustomerDimension(ctx context.Context, customers []models.DimCustomer) error {
	return l.replaceTable(ctx, customerSchema, customerRows(customers))
}

// LoadSalesFacts заменяет FactSales
func (l *MySQLLoader) LoadSalesFacts(ctx context.Context, facts []models.FactSales) error {
	return l.replaceTable(ctx, factSalesSchema, factRows(facts))
}

func (l *MySQLLoader) replaceTable(ctx context.Context, schema TableSchema, rows [][]any) error {
	staging := schema.Name + "_staging"
	old := schema.Name + "_old"

	// Остатки прерванного запуска
	if _, err := l.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE IF EXISTS `%s`, `%s`", staging, old)); err != nil {
		return fmt.Errorf("ошибка при удалении промежуточных таблиц: %w", err)
	}
	if _, err := l.db.ExecContext(ctx, schema.CreateMySQL(staging, false)); err != nil {
		return fmt.Errorf("ошибка при создании таблицы %s: %w", staging, err)
	}

	if err := l.insertRows(ctx, staging, schema.ColumnNames(), rows); err != nil {
		l.dropQuietly(staging)
		return err
	}

	// RENAME требует существующей целевой таблицы
	if _, err := l.db.ExecContext(ctx, schema.CreateMySQL(schema.Name, true)); err != nil {
		l.dropQuietly(staging)
		return fmt.Errorf("ошибка при создании таблицы %s: %w", schema.Name, err)
	}

	swap := fmt.Sprintf("RENAME TABLE `%s` TO `%s`, `%s` TO `%s`", schema.Name, old, staging, schema.Name)
	if _, err := l.db.ExecContext(ctx, swap); err != nil {
		l.dropQuietly(staging)
		return fmt.Errorf("ошибка при замене таблицы %s: %w", schema.Name, err)
	}

	if _, err := l.db.ExecContext(ctx, fmt.Sprintf("DROP TABLE `%s`", old)); err != nil {
		// Новая таблица уже на месте; старая копия будет удалена следующим запуском
		l.logger.Warn("Не удалось удалить таблицу %s: %v", old, err)
	}
	return nil
}

// insertRows вставляет строки пачками по batchSize в одной транзакции
func (l *MySQLLoader) insertRows(ctx context.Context, table string, columns []string, rows [][]any) error {
	tx, err := l.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("ошибка при начале транзакции: %w", err)
	}
	defer tx.Rollback()

	for start := 0; start < len(rows); start += l.batchSize {
		end := min(start+l.batchSize, len(rows))
		batch := rows[start:end]

		args := make([]any, 0, len(batch)*len(columns))
		for _, row := range batch {
			args = append(args, row...)
		}
		if _, err := tx.ExecContext(ctx, insertStatement(table, columns, len(batch)), args...); err != nil {
			return fmt.Errorf("ошибка при вставке строк %d-%d в %s: %w", start+1, end, table, err)
		}
		l.logger.Debug("В %s вставлено %d из %d строк", table, end, len(rows))
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("ошибка при фиксации транзакции: %w", err)
	}
	return nil
}

func (l *MySQLLoader) dropQuietly(table string) {
	if _, err := l.db.Exec(fmt.Sprintf("DROP TABLE IF EXISTS `%s`", table)); err != nil {
		l.logger.Warn("Не удалось удалить таблицу %s: %v", table, err)
	}
}

// insertStatement строит многострочный INSERT на n строк
func insertStatement(table string, columns []string, n int) string {
	quoted := make([]string, len(columns))
	for i, c := range columns {
		quoted[i] = "`" + c + "`"
	}
	placeholder := "(" + strings.TrimSuffix(strings.Repeat("?,", len(columns)), ",") + ")"

	var sb strings.Builder
	fmt.Fprintf(&sb, "INSERT INTO `%s` (%s) VALUES ", table, strings.Join(quoted, ", "))
	for i := 0; i < n; i++ {
		if i > 0 {
			sb.WriteString(", ")
		}
		sb.WriteString(placeholder)
	}
	return sb.String()
}
