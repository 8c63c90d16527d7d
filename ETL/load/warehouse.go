package load

import (
	"context"
	"errors"
	"fmt"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"gocloud.dev/blob"

	_ "gocloud.dev/blob/fileblob"
	_ "gocloud.dev/blob/gcsblob"
	_ "gocloud.dev/blob/s3blob"
)

// Warehouse объединяет выбранный backend хранилища и журнал запусков
type Warehouse struct {
	Backend string
	Loader  Loader
	RunLog  models.ETLLogRepository

	closers []func() error
}

// OpenWarehouse подключается к хранилищу согласно конфигурации. Для MySQL
// журнал запусков хранится в той же базе, для остальных backend - в памяти.
func OpenWarehouse(ctx context.Context, cfg config.WarehouseConfig, logger *utils.ETLLogger) (*Warehouse, error) {
	w := &Warehouse{Backend: cfg.Backend}

	switch cfg.Backend {
	case config.BackendMySQL:
		if err := config.EnsureWarehouseDatabase(ctx, cfg.MySQL); err != nil {
			return nil, &etlerr.PersistenceError{Backend: cfg.Backend, Err: err}
		}
		db, err := config.ConnectWarehouse(ctx, cfg.MySQL)
		if err != nil {
			return nil, &etlerr.PersistenceError{Backend: cfg.Backend, Err: err}
		}
		w.closers = append(w.closers, db.Close)

		runLog := models.NewMySQLETLLogRepository(db)
		if err := runLog.CreateETLLogTable(); err != nil {
			w.Close()
			return nil, &etlerr.PersistenceError{Backend: cfg.Backend, Err: err}
		}
		w.Loader = NewMySQLLoader(db, cfg.BatchSize, logger)
		w.RunLog = runLog
		logger.Info("Подключено к MySQL хранилищу %s:%d/%s", cfg.MySQL.Host, cfg.MySQL.Port, cfg.MySQL.DBName)

	case config.BackendPostgres:
		pool, err := config.ConnectPostgres(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, &etlerr.PersistenceError{Backend: cfg.Backend, Err: err}
		}
		w.closers = append(w.closers, func() error {
			pool.Close()
			return nil
		})
		w.Loader = NewPostgresLoader(pool, logger)
		w.RunLog = models.NewMemoryETLLogRepository()
		logger.Info("Подключено к PostgreSQL хранилищу")

	case config.BackendParquet:
		bucket, err := blob.OpenBucket(ctx, cfg.BucketURL)
		if err != nil {
			return nil, &etlerr.PersistenceError{
				Backend: cfg.Backend,
				Err:     fmt.Errorf("ошибка открытия bucket %s: %w", cfg.BucketURL, err),
			}
		}
		w.closers = append(w.closers, bucket.Close)
		w.Loader = NewParquetLoader(bucket, cfg.Prefix, logger)
		w.RunLog = models.NewMemoryETLLogRepository()
		logger.Info("Таблицы будут записаны в %s (префикс %q)", cfg.BucketURL, cfg.Prefix)

	default:
		return nil, fmt.Errorf("неизвестный тип хранилища %q", cfg.Backend)
	}

	return w, nil
}

// NewWarehouse собирает Warehouse из готовых компонентов
func NewWarehouse(backend string, loader Loader, runLog models.ETLLogRepository) *Warehouse {
	return &Warehouse{
		Backend: backend,
		Loader:  loader,
		RunLog:  runLog,
	}
}

// Close закрывает подключения в обратном порядке
func (w *Warehouse) Close() error {
	var errs []error
	for i := len(w.closers) - 1; i >= 0; i-- {
		if err := w.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	w.closers = nil
	return errors.Join(errs...)
}
