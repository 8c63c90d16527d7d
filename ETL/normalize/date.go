package normalize

import (
	"strconv"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"
)

// dateLayouts перебираются по порядку для каждого значения отдельно.
// Формы с косой чертой читаются как месяц/день (американский экспорт),
// формы с точкой - как день.месяц.
var dateLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
	"20060102",
	"2006/1/2 15:04:05",
	"2006/1/2",
	"1/2/2006 15:04:05",
	"1/2/2006 3:04:05 PM",
	"1/2/2006 3:04 PM",
	"1/2/2006 15:04",
	"1/2/2006",
	"1/2/06",
	"2.1.2006 15:04:05",
	"2.1.2006 15:04",
	"2.1.2006",
	"2-Jan-2006",
	"2-Jan-06",
	"2 Jan 2006",
	"2 January 2006",
	"Jan 2, 2006",
	"January 2, 2006",
	"Mon, 02 Jan 2006",
	"Monday, January 2, 2006",
}

// Диапазон серийных номеров дат Excel: 1900-01-01 .. 9999-12-31
const (
	minExcelSerial = 1
	maxExcelSerial = 2958465
)

// Date приводит значение к календарной дате (полночь UTC). Второй результат
// равен false для пустых и нераспознанных значений.
func Date(value any) (time.Time, bool) {
	switch v := value.(type) {
	case nil:
		return time.Time{}, false
	case time.Time:
		if v.IsZero() {
			return time.Time{}, false
		}
		return dateOnly(v), true
	case *time.Time:
		if v == nil {
			return time.Time{}, false
		}
		return Date(*v)
	case float64:
		return excelSerial(v)
	case int:
		return excelSerial(float64(v))
	case int64:
		return excelSerial(float64(v))
	case string:
		return parseDateText(v)
	default:
		return time.Time{}, false
	}
}

func parseDateText(raw string) (time.Time, bool) {
	s := strings.Join(strings.Fields(raw), " ")
	if s == "" {
		return time.Time{}, false
	}
	switch strings.ToLower(s) {
	case "nat", "nan", "null", "none", "n/a", "-":
		return time.Time{}, false
	}

	for _, layout := range dateLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return dateOnly(t), true
		}
	}

	// Серийный номер Excel из ячейки без формата даты. Короткие числа
	// (например, год "2024") датой не считаются.
	intPart, _, _ := strings.Cut(s, ".")
	if len(intPart) >= 5 && len(intPart) <= 7 {
		if f, err := strconv.ParseFloat(s, 64); err == nil {
			return excelSerial(f)
		}
	}
	return time.Time{}, false
}

func excelSerial(f float64) (time.Time, bool) {
	if f < minExcelSerial || f > maxExcelSerial {
		return time.Time{}, false
	}
	t, err := excelize.ExcelDateToTime(f, false)
	if err != nil {
		return time.Time{}, false
	}
	return dateOnly(t), true
}

// dateOnly отбрасывает время, сохраняя календарную дату в исходной зоне
func dateOnly(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
