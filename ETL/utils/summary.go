package utils

import (
	"fmt"
	"io"
	"strings"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/mattn/go-runewidth"
)

// RunSummary - итоги одного запуска для вывода в консоль
type RunSummary struct {
	RunID    string
	Backend  string
	Duration time.Duration
	Data     *models.TransformedData
}

// PrintRunSummary выводит итоговую таблицу запуска
func PrintRunSummary(w io.Writer, s RunSummary) error {
	rows := [][2]string{
		{"Запуск", s.RunID},
		{"Хранилище", s.Backend},
		{"Длительность", s.Duration.Round(time.Millisecond).String()},
	}
	if s.Data != nil {
		st := s.Data.Stats
		rows = append(rows,
			[2]string{"Позиций заказов прочитано", fmt.Sprint(st.LineItemsRead)},
			[2]string{"Заказов прочитано", fmt.Sprint(st.OrdersRead)},
			[2]string{"Клиентов прочитано", fmt.Sprint(st.CustomersRead)},
			[2]string{"Записей каталога", fmt.Sprint(st.CatalogRead)},
			[2]string{models.TableDimProduct, fmt.Sprint(len(s.Data.Products))},
			[2]string{models.TableDimCustomer, fmt.Sprint(len(s.Data.Customers))},
			[2]string{models.TableFactSales, fmt.Sprint(len(s.Data.Facts))},
			[2]string{"Позиций без заказа (отброшено)", fmt.Sprint(st.OrphanedLineItems)},
			[2]string{"Фактов с ProductKey = -1", fmt.Sprint(st.UnmatchedProducts)},
			[2]string{"Фактов с CustomerKey = -1", fmt.Sprint(st.UnmatchedCustomers)},
			[2]string{"Повторных CustomerID", fmt.Sprint(st.DuplicateCustomers)},
			[2]string{"Товаров без категории", fmt.Sprint(st.UncategorizedProducts)},
		)
	}

	_, err := io.WriteString(w, formatTable(rows))
	return err
}

// formatTable выравнивает столбцы по ширине отображения
func formatTable(rows [][2]string) string {
	var widths [2]int
	for _, row := range rows {
		for i, cell := range row {
			if n := runewidth.StringWidth(cell); n > widths[i] {
				widths[i] = n
			}
		}
	}

	border := "+" + strings.Repeat("-", widths[0]+2) + "+" + strings.Repeat("-", widths[1]+2) + "+\n"

	var sb strings.Builder
	sb.WriteString(border)
	for _, row := range rows {
		sb.WriteString("|")
		for i, cell := range row {
			sb.WriteString(" ")
			sb.WriteString(cell)
			sb.WriteString(strings.Repeat(" ", widths[i]-runewidth.StringWidth(cell)))
			sb.WriteString(" |")
		}
		sb.WriteString("\n")
	}
	sb.WriteString(border)
	return sb.String()
}
