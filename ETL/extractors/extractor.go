package extractors

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// Логические имена источников для сообщений об ошибках
const (
	SourceLineItems = "order_details"
	SourceOrders    = "orders"
	SourceCustomers = "customers"
	SourceCatalog   = "products"
)

// Extractor координирует чтение исходных файлов
type Extractor struct {
	cfg               config.SourcesConfig
	logger            *utils.ETLLogger
	orderExtractor    *OrderExtractor
	customerExtractor *CustomerExtractor
	catalogExtractor  *CatalogExtractor
}

// NewExtractor создает новый экземпляр Extractor
func NewExtractor(cfg config.SourcesConfig, logger *utils.ETLLogger) (*Extractor, error) {
	reader, err := NewTableReader(cfg.Encoding)
	if err != nil {
		return nil, err
	}
	return &Extractor{
		cfg:               cfg,
		logger:            logger,
		orderExtractor:    NewOrderExtractor(reader, logger),
		customerExtractor: NewCustomerExtractor(reader, logger),
		catalogExtractor:  NewCatalogExtractor(reader, logger),
	}, nil
}

func (e *Extractor) path(file string) string {
	return filepath.Join(e.cfg.Dir, file)
}

func (e *Extractor) required() map[string]string {
	return map[string]string{
		SourceLineItems: e.cfg.LineItems.File,
		SourceOrders:    e.cfg.Orders.File,
		SourceCustomers: e.cfg.Customers.File,
	}
}

// CheckSources проверяет наличие всех обязательных файлов до начала чтения.
// Возвращает SourceNotFoundError для каждого отсутствующего файла.
func (e *Extractor) CheckSources() error {
	var missing []error
	for _, source := range []string{SourceLineItems, SourceOrders, SourceCustomers} {
		path := e.path(e.required()[source])
		ok, err := fileExists(path)
		if err != nil {
			return fmt.Errorf("ошибка проверки файла %s: %w", path, err)
		}
		if !ok {
			missing = append(missing, &etlerr.SourceNotFoundError{Source: source, Path: path})
		}
	}
	return errors.Join(missing...)
}

// SourceFiles возвращает пути существующих файлов источников
func (e *Extractor) SourceFiles() ([]string, error) {
	files := []string{
		e.path(e.cfg.LineItems.File),
		e.path(e.cfg.Orders.File),
		e.path(e.cfg.Customers.File),
	}
	catalog := e.path(e.cfg.Catalog.File)
	ok, err := fileExists(catalog)
	if err != nil {
		return nil, fmt.Errorf("ошибка проверки файла %s: %w", catalog, err)
	}
	if ok {
		files = append(files, catalog)
	}
	return files, nil
}

// Extract читает все источники. Каталог товаров необязателен.
func (e *Extractor) Extract(ctx context.Context) (*models.ExtractedData, error) {
	startTime := time.Now()
	e.logger.LogExtractStart()

	if err := e.CheckSources(); err != nil {
		e.logger.Error("Отсутствуют исходные файлы: %v", err)
		return nil, err
	}

	data := models.ExtractedData{
		Sources: models.SourceNames{
			LineItems: e.cfg.LineItems.File,
			Orders:    e.cfg.Orders.File,
			Customers: e.cfg.Customers.File,
			Catalog:   e.cfg.Catalog.File,
		},
	}
	var err error

	data.LineItems, err = e.orderExtractor.ExtractLineItems(ctx, e.path(e.cfg.LineItems.File), e.cfg.LineItems)
	if err != nil {
		e.logger.Error("Ошибка при извлечении позиций заказов: %v", err)
		return nil, fmt.Errorf("ошибка извлечения позиций заказов: %w", err)
	}

	data.Orders, err = e.orderExtractor.ExtractOrders(ctx, e.path(e.cfg.Orders.File), e.cfg.Orders)
	if err != nil {
		e.logger.Error("Ошибка при извлечении заказов: %v", err)
		return nil, fmt.Errorf("ошибка извлечения заказов: %w", err)
	}

	data.Customers, err = e.customerExtractor.ExtractCustomers(ctx, e.path(e.cfg.Customers.File), e.cfg.Customers)
	if err != nil {
		e.logger.Error("Ошибка при извлечении клиентов: %v", err)
		return nil, fmt.Errorf("ошибка извлечения клиентов: %w", err)
	}

	data.Catalog, err = e.catalogExtractor.ExtractCatalog(ctx, e.path(e.cfg.Catalog.File), e.cfg.Catalog)
	if err != nil {
		e.logger.Error("Ошибка при извлечении каталога товаров: %v", err)
		return nil, fmt.Errorf("ошибка извлечения каталога товаров: %w", err)
	}

	data.ExtractedAt = time.Now()

	e.logger.LogExtractComplete(
		len(data.LineItems),
		len(data.Orders),
		len(data.Customers),
		len(data.Catalog),
		time.Since(startTime),
	)

	return &data, nil
}
