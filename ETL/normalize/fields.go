package normalize

import (
	"errors"
	"math"
	"strconv"
	"strings"
	"unicode"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/shopspring/decimal"
)

// Quantity разбирает неотрицательное целое количество. Допускается запись
// с нулевой дробной частью ("3.0"), как в выгрузках из Excel.
func Quantity(value string) (int, error) {
	n, err := wholeNumber(value)
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, &etlerr.ParseError{Value: value, Err: ErrNegativeAmount}
	}
	return n, nil
}

// Integer разбирает целочисленный идентификатор (OrderID, CustomerID)
func Integer(value string) (int, error) {
	return wholeNumber(value)
}

// wholeNumber принимает целое в диапазоне INT, в том числе записанное с
// нулевой дробной частью. Экспоненциальная запись не допускается.
func wholeNumber(value string) (int, error) {
	s := Text(value)
	if s == "" {
		return 0, &etlerr.ParseError{Value: value, Err: ErrMissingValue}
	}

	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		if n < math.MinInt32 || n > math.MaxInt32 {
			return 0, &etlerr.ParseError{Value: value, Err: ErrOutOfRange}
		}
		return int(n), nil
	} else if errors.Is(err, strconv.ErrRange) {
		return 0, &etlerr.ParseError{Value: value, Err: ErrOutOfRange}
	}

	if strings.ContainsAny(s, "eE") {
		return 0, &etlerr.ParseError{Value: value, Err: ErrNotNumeric}
	}
	d, err := decimal.NewFromString(strings.Replace(s, ",", ".", 1))
	if err != nil || !d.Equal(d.Truncate(0)) {
		return 0, &etlerr.ParseError{Value: value, Err: ErrNotNumeric}
	}
	if d.LessThan(decimal.NewFromInt(math.MinInt32)) || d.GreaterThan(decimal.NewFromInt(math.MaxInt32)) {
		return 0, &etlerr.ParseError{Value: value, Err: ErrOutOfRange}
	}
	return int(d.IntPart()), nil
}

// Header очищает имя столбца от BOM и пробельных символов по краям
func Header(name string) string {
	return strings.TrimFunc(name, func(r rune) bool {
		return unicode.IsSpace(r) || r == '\ufeff'
	})
}

// Text обрезает пробельные символы (включая неразрывные) по краям значения
func Text(value string) string {
	return strings.TrimFunc(value, unicode.IsSpace)
}
