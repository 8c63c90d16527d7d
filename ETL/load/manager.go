package load

import (
	"context"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// LoadManager отвечает за управление процессом загрузки данных в хранилище
type LoadManager struct {
	backend string
	loader  Loader
	logger  *utils.ETLLogger
}

// NewLoadManager создает новый экземпляр LoadManager
func NewLoadManager(backend string, loader Loader, logger *utils.ETLLogger) *LoadManager {
	return &LoadManager{
		backend: backend,
		loader:  loader,
		logger:  logger,
	}
}

// Load заменяет таблицы в порядке DimProduct, DimCustomer, FactSales и
// останавливается на первой ошибке. Уже замененные таблицы не откатываются.
func (m *LoadManager) Load(ctx context.Context, transformedData *models.TransformedData) error {
	startTime := time.Now()
	m.logger.LogLoadStart(m.backend)

	steps := []struct {
		table string
		rows  int
		load  func(context.Context) error
	}{
		{models.TableDimProduct, len(transformedData.Products), func(ctx context.Context) error {
			return m.loader.LoadProductDimension(ctx, transformedData.Products)
		}},
		{models.TableDimCustomer, len(transformedData.Customers), func(ctx context.Context) error {
			return m.loader.LoadCustomerDimension(ctx, transformedData.Customers)
		}},
		{models.TableFactSales, len(transformedData.Facts), func(ctx context.Context) error {
			return m.loader.LoadSalesFacts(ctx, transformedData.Facts)
		}},
	}

	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			m.logger.Warn("Загрузка прервана перед таблицей %s: %v", step.table, err)
			return err
		}

		tableStart := time.Now()
		m.logger.Info("Загрузка таблицы %s (%d строк)...", step.table, step.rows)
		if err := step.load(ctx); err != nil {
			m.logger.Error("Ошибка при загрузке таблицы %s: %v", step.table, err)
			return &etlerr.PersistenceError{Backend: m.backend, Table: step.table, Err: err}
		}
		m.logger.LogTableLoaded(step.table, step.rows, time.Since(tableStart))
	}

	m.logger.LogLoadComplete(time.Since(startTime))
	return nil
}
