package transform

import (
	"errors"
	"fmt"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/normalize"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// Transformer координирует преобразование исходных строк в звезду:
// нормализация, измерения, затем факты. Каждый шаг завершается полностью
// до начала следующего.
type Transformer struct {
	logger               *utils.ETLLogger
	fallbackCategory     string
	normalizer           *RecordNormalizer
	productDimProcessor  *ProductDimensionProcessor
	customerDimProcessor *CustomerDimensionProcessor
	salesFProcessor      *SalesFactsProcessor
}

// NewTransformer создает новый экземпляр Transformer
func NewTransformer(cfg config.TransformConfig, logger *utils.ETLLogger) (*Transformer, error) {
	convention, err := normalize.ParseConvention(cfg.CurrencyConvention)
	if err != nil {
		return nil, err
	}
	return &Transformer{
		logger:               logger,
		fallbackCategory:     cfg.FallbackCategory,
		normalizer:           NewRecordNormalizer(convention, logger),
		productDimProcessor:  NewProductDimensionProcessor(cfg.FallbackCategory, logger),
		customerDimProcessor: NewCustomerDimensionProcessor(cfg.StrictCustomerKeys, logger),
		salesFProcessor:      NewSalesFactsProcessor(logger),
	}, nil
}

// Transform выполняет полный процесс преобразования
func (t *Transformer) Transform(extractedData *models.ExtractedData) (*models.TransformedData, error) {
	startTime := time.Now()
	t.logger.LogTransformStart()

	// 1. Приведение типов
	t.logger.Info("Нормализация исходных записей...")
	normalized, err := t.normalizer.Normalize(extractedData)
	if err != nil {
		t.logger.Error("Ошибка при нормализации записей: %v", err)
		return nil, fmt.Errorf("ошибка при нормализации записей: %w", err)
	}

	// 2. Измерение товаров
	t.logger.Info("Построение измерения товаров...")
	products := t.productDimProcessor.BuildProductDimension(normalized.LineItems, normalized.Catalog)

	// 3. Измерение клиентов
	t.logger.Info("Построение измерения клиентов...")
	customers, customerStats, err := t.customerDimProcessor.BuildCustomerDimension(normalized.Customers)
	if err != nil {
		err = withSource(err, extractedData.Sources.Customers)
		t.logger.Error("Ошибка при построении измерения клиентов: %v", err)
		return nil, fmt.Errorf("ошибка при построении измерения клиентов: %w", err)
	}

	// 4. Факты продаж по готовым измерениям
	t.logger.Info("Сборка фактов продаж...")
	facts, factStats, err := t.salesFProcessor.Assemble(normalized.LineItems, normalized.Orders, products, customers)
	if err != nil {
		err = withSource(err, extractedData.Sources.Orders)
		t.logger.Error("Ошибка при сборке фактов продаж: %v", err)
		return nil, fmt.Errorf("ошибка при сборке фактов продаж: %w", err)
	}

	transformedData := &models.TransformedData{
		Products:  products,
		Customers: customers,
		Facts:     facts,
		Stats: models.TransformStats{
			LineItemsRead:         len(extractedData.LineItems),
			OrdersRead:            len(extractedData.Orders),
			CustomersRead:         len(extractedData.Customers),
			CatalogRead:           len(extractedData.Catalog),
			OrphanedLineItems:     factStats.OrphanedLineItems,
			UnmatchedProducts:     factStats.UnmatchedProducts,
			UnmatchedCustomers:    factStats.UnmatchedCustomers,
			DuplicateCustomers:    customerStats.Duplicates,
			DuplicateCompanies:    customerStats.DuplicateCompanies,
			UncategorizedProducts: t.countFallback(products),
		},
	}

	t.logger.LogTransformComplete(len(products), len(customers), len(facts), time.Since(startTime))
	return transformedData, nil
}

func (t *Transformer) countFallback(products []models.DimProduct) int {
	n := 0
	for _, p := range products {
		if p.Category == t.fallbackCategory {
			n++
		}
	}
	return n
}

// withSource дополняет ошибку целостности именем файла
func withSource(err error, source string) error {
	var die *etlerr.DataIntegrityError
	if !errors.As(err, &die) || die.Source != "" {
		return err
	}
	located := *die
	located.Source = source
	return &located
}
