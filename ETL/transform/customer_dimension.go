package transform

import (
	"fmt"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// CustomerStats описывает качество ключей справочника клиентов
type CustomerStats struct {
	// Duplicates - строки с уже встречавшимся CustomerID (отброшены)
	Duplicates int
	// DuplicateCompanies - компании, которым соответствует несколько CustomerID
	DuplicateCompanies int
}

// CustomerDimensionProcessor строит измерение клиентов
type CustomerDimensionProcessor struct {
	strictKeys bool
	logger     *utils.ETLLogger
}

// NewCustomerDimensionProcessor создает новый экземпляр CustomerDimensionProcessor
func NewCustomerDimensionProcessor(strictKeys bool, logger *utils.ETLLogger) *CustomerDimensionProcessor {
	return &CustomerDimensionProcessor{
		strictKeys: strictKeys,
		logger:     logger,
	}
}

// BuildCustomerDimension переносит клиентов в DimCustomer, CustomerKey равен
// исходному CustomerID. При повторе CustomerID остаётся первая строка, а в
// строгом режиме повтор - ошибка целостности.
func (p *CustomerDimensionProcessor) BuildCustomerDimension(customers []models.Customer) ([]models.DimCustomer, CustomerStats, error) {
	p.logger.Debug("Обработка измерения клиентов...")

	var stats CustomerStats
	firstRow := make(map[int]int, len(customers))
	companyKey := make(map[string]int, len(customers))
	dims := make([]models.DimCustomer, 0, len(customers))

	for _, c := range customers {
		if row, dup := firstRow[c.CustomerID]; dup {
			if p.strictKeys {
				return nil, stats, &etlerr.DataIntegrityError{
					Row: c.Row, Key: fmt.Sprint(c.CustomerID), Field: "CustomerID",
					Reason: fmt.Sprintf("повторный CustomerID (первая строка %d)", row),
				}
			}
			stats.Duplicates++
			p.logger.Debug("Повторный CustomerID %d в строке %d пропущен (первая строка %d)", c.CustomerID, c.Row, row)
			continue
		}
		firstRow[c.CustomerID] = c.Row

		if _, ok := companyKey[c.CompanyName]; ok {
			stats.DuplicateCompanies++
		} else {
			companyKey[c.CompanyName] = c.CustomerID
		}

		dims = append(dims, models.DimCustomer{
			CustomerKey: c.CustomerID,
			CompanyName: c.CompanyName,
			Country:     c.Country,
		})
	}

	if stats.Duplicates > 0 {
		p.logger.Warn("Найдено %d повторных CustomerID, оставлены первые записи", stats.Duplicates)
	}
	if stats.DuplicateCompanies > 0 {
		p.logger.Warn("У %d записей клиентов имя компании совпадает с другим CustomerID, заказам назначается первый ключ", stats.DuplicateCompanies)
	}
	return dims, stats, nil
}
