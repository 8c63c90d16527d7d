package transform

import (
	"fmt"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/shopspring/decimal"
)

// FactStats - счётчики сборки таблицы фактов
type FactStats struct {
	LineItemsIn        int
	OrphanedLineItems  int
	FactsOut           int
	UnmatchedProducts  int
	UnmatchedCustomers int
}

// SalesFactsProcessor собирает таблицу фактов продаж
type SalesFactsProcessor struct {
	logger *utils.ETLLogger
}

// NewSalesFactsProcessor создает новый экземпляр SalesFactsProcessor
func NewSalesFactsProcessor(logger *utils.ETLLogger) *SalesFactsProcessor {
	return &SalesFactsProcessor{
		logger: logger,
	}
}

// Assemble соединяет позиции с заголовками заказов (inner join по OrderID,
// позиции без заказа отбрасываются) и подставляет ключи измерений
// (left join; промах даёт -1). Порядок фактов совпадает с порядком позиций.
func (p *SalesFactsProcessor) Assemble(
	lineItems []models.LineItem,
	orders []models.OrderHeader,
	products []models.DimProduct,
	customers []models.DimCustomer,
) ([]models.FactSales, FactStats, error) {
	p.logger.Debug("Сборка таблицы фактов продаж...")

	stats := FactStats{LineItemsIn: len(lineItems)}

	orderByID := make(map[int]models.OrderHeader, len(orders))
	for _, o := range orders {
		if first, dup := orderByID[o.OrderID]; dup {
			return nil, stats, &etlerr.DataIntegrityError{
				Row: o.Row, Key: fmt.Sprint(o.OrderID), Field: "OrderID",
				Reason: fmt.Sprintf("повторный OrderID в заголовках заказов (первая строка %d)", first.Row),
			}
		}
		orderByID[o.OrderID] = o
	}

	productKeys := make(map[string]int, len(products))
	for _, dp := range products {
		productKeys[dp.ProductName] = dp.ProductKey
	}

	// Первый ключ на компанию: соединение не размножает факты
	customerKeys := make(map[string]int, len(customers))
	for _, dc := range customers {
		if _, ok := customerKeys[dc.CompanyName]; !ok {
			customerKeys[dc.CompanyName] = dc.CustomerKey
		}
	}

	facts := make([]models.FactSales, 0, len(lineItems))
	for _, item := range lineItems {
		order, ok := orderByID[item.OrderID]
		if !ok {
			stats.OrphanedLineItems++
			p.logger.Debug("Позиция в строке %d ссылается на отсутствующий заказ %d, отброшена", item.Row, item.OrderID)
			continue
		}

		productKey, ok := productKeys[item.ProductName]
		if !ok {
			productKey = models.UnknownKey
			stats.UnmatchedProducts++
		}
		customerKey, ok := customerKeys[order.CustomerName]
		if !ok || order.CustomerName == "" {
			customerKey = models.UnknownKey
			stats.UnmatchedCustomers++
		}

		facts = append(facts, models.FactSales{
			OrderID:     order.OrderID,
			OrderDate:   order.OrderDate,
			ShippedDate: order.ShippedDate,
			Quantity:    item.Quantity,
			SalesAmount: item.UnitPrice.Mul(decimal.NewFromInt(int64(item.Quantity))),
			ProductKey:  productKey,
			CustomerKey: customerKey,
			EmployeeKey: models.UnknownKey,
		})
	}
	stats.FactsOut = len(facts)

	if stats.OrphanedLineItems > 0 {
		p.logger.Warn("Отброшено %d позиций без заголовка заказа", stats.OrphanedLineItems)
	}
	if stats.UnmatchedCustomers > 0 {
		p.logger.Warn("%d фактов без найденного клиента получили CustomerKey = -1", stats.UnmatchedCustomers)
	}
	return facts, stats, nil
}
