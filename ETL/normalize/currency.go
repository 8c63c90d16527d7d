// Package normalize содержит чистые функции приведения сырых значений полей
// (денежные суммы, даты, количества, заголовки) к типизированному виду.
package normalize

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/shopspring/decimal"
)

// Convention задаёт распознаваемое соглашение о разделителях в суммах
type Convention string

const (
	// ConventionAuto выводит десятичный разделитель из самого значения и
	// отказывает, если значение допускает два прочтения ("1,234")
	ConventionAuto Convention = "auto"
	// ConventionPoint: "1,234.56" (точка - десятичный разделитель)
	ConventionPoint Convention = "point"
	// ConventionComma: "1.234,56" (запятая - десятичный разделитель)
	ConventionComma Convention = "comma"
)

var (
	ErrMissingValue       = errors.New("пустое значение")
	ErrNotNumeric         = errors.New("значение не является числом")
	ErrNegativeAmount     = errors.New("отрицательная сумма")
	ErrAmbiguousSeparator = errors.New("неоднозначный разделитель: задайте transform.currency_convention")
	ErrSeparatorMismatch  = errors.New("разделители не соответствуют заданному соглашению")
	ErrBadGrouping        = errors.New("некорректная группировка разрядов")
	ErrUnknownConvention  = errors.New("неизвестное соглашение о разделителях")
	ErrOutOfRange         = errors.New("значение вне диапазона INT")
)

// currencyMarks удаляются из значения до разбора. "â‚¬" - это знак евро,
// прочитанный из UTF-8 как Windows-1252.
var currencyMarks = []string{"â‚¬", "€", "$", "£", "¥", "₽", "EUR", "USD", "GBP", "RUB"}

// groupMarks - разделители разрядов, которые удаляются при любом соглашении
var groupMarks = []string{" ", "\u00a0", "\u202f", "'", "\u2019"}

// ParseConvention разбирает значение из конфигурации
func ParseConvention(s string) (Convention, error) {
	switch c := Convention(strings.ToLower(strings.TrimSpace(s))); c {
	case "", ConventionAuto:
		return ConventionAuto, nil
	case ConventionPoint, ConventionComma:
		return c, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownConvention, s)
	}
}

// Currency приводит денежное значение к decimal. Числовые значения
// возвращаются без изменений, строки очищаются от символов валют и
// разделителей разрядов согласно conv.
func Currency(value any, conv Convention) (decimal.Decimal, error) {
	var d decimal.Decimal
	switch v := value.(type) {
	case nil:
		return decimal.Zero, &etlerr.ParseError{Err: ErrMissingValue}
	case decimal.Decimal:
		d = v
	case int:
		d = decimal.NewFromInt(int64(v))
	case int32:
		d = decimal.NewFromInt32(v)
	case int64:
		d = decimal.NewFromInt(v)
	case float32:
		if math.IsNaN(float64(v)) || math.IsInf(float64(v), 0) {
			return decimal.Zero, &etlerr.ParseError{Value: fmt.Sprint(v), Err: ErrNotNumeric}
		}
		d = decimal.NewFromFloat32(v)
	case float64:
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return decimal.Zero, &etlerr.ParseError{Value: fmt.Sprint(v), Err: ErrNotNumeric}
		}
		d = decimal.NewFromFloat(v)
	case string:
		parsed, err := parseCurrencyText(v, conv)
		if err != nil {
			return decimal.Zero, &etlerr.ParseError{Value: v, Err: err}
		}
		d = parsed
	default:
		return decimal.Zero, &etlerr.ParseError{Value: fmt.Sprint(v), Err: ErrNotNumeric}
	}

	if d.IsNegative() {
		return decimal.Zero, &etlerr.ParseError{Value: d.String(), Err: ErrNegativeAmount}
	}
	return d, nil
}

func parseCurrencyText(raw string, conv Convention) (decimal.Decimal, error) {
	s := strings.TrimSpace(raw)
	for _, mark := range currencyMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	for _, mark := range groupMarks {
		s = strings.ReplaceAll(s, mark, "")
	}
	if s == "" {
		return decimal.Zero, ErrMissingValue
	}
	if strings.HasPrefix(s, "-") || (strings.HasPrefix(s, "(") && strings.HasSuffix(s, ")")) {
		return decimal.Zero, ErrNegativeAmount
	}
	for _, r := range s {
		if (r < '0' || r > '9') && r != '.' && r != ',' {
			return decimal.Zero, ErrNotNumeric
		}
	}

	canonical, err := canonicalAmount(s, conv)
	if err != nil {
		return decimal.Zero, err
	}
	d, err := decimal.NewFromString(canonical)
	if err != nil {
		return decimal.Zero, ErrNotNumeric
	}
	return d, nil
}

// canonicalAmount переводит строку из цифр, точек и запятых в вид "1234.56"
func canonicalAmount(s string, conv Convention) (string, error) {
	dots := strings.Count(s, ".")
	commas := strings.Count(s, ",")

	switch {
	case dots == 0 && commas == 0:
		return s, nil

	case dots > 0 && commas > 0:
		mark := byte('.')
		if strings.LastIndexByte(s, ',') > strings.LastIndexByte(s, '.') {
			mark = ','
		}
		if (conv == ConventionPoint && mark != '.') || (conv == ConventionComma && mark != ',') {
			return "", ErrSeparatorMismatch
		}
		return splitDecimal(s, mark)

	default:
		sep := byte('.')
		count := dots
		if commas > 0 {
			sep = ','
			count = commas
		}
		decimalMark := byte('.')
		if conv == ConventionComma {
			decimalMark = ','
		}

		switch conv {
		case ConventionPoint, ConventionComma:
			if sep == decimalMark {
				if count > 1 {
					return "", ErrSeparatorMismatch
				}
				return splitDecimal(s, sep)
			}
			return joinGroups(s, sep)
		}

		// auto
		if count > 1 {
			return joinGroups(s, sep)
		}
		idx := strings.IndexByte(s, sep)
		intPart, frac := s[:idx], s[idx+1:]
		if len(frac) != 3 || intPart == "" || strings.Trim(intPart, "0") == "" {
			return splitDecimal(s, sep)
		}
		return "", ErrAmbiguousSeparator
	}
}

// splitDecimal трактует последнее вхождение mark как десятичный разделитель,
// а остальные разделители - как разделители разрядов
func splitDecimal(s string, mark byte) (string, error) {
	idx := strings.LastIndexByte(s, mark)
	intPart, frac := s[:idx], s[idx+1:]
	if frac == "" || strings.ContainsAny(frac, ".,") {
		return "", ErrNotNumeric
	}
	if intPart == "" {
		return "0." + frac, nil
	}
	if strings.ContainsAny(intPart, ".,") {
		group := byte('.')
		if mark == '.' {
			group = ','
		}
		if strings.IndexByte(intPart, mark) >= 0 {
			return "", ErrNotNumeric
		}
		joined, err := joinGroups(intPart, group)
		if err != nil {
			return "", err
		}
		intPart = joined
	}
	return intPart + "." + frac, nil
}

// joinGroups удаляет разделители разрядов, проверяя, что группы по три цифры
func joinGroups(s string, sep byte) (string, error) {
	groups := strings.Split(s, string(sep))
	if len(groups[0]) == 0 || len(groups[0]) > 3 {
		return "", ErrBadGrouping
	}
	for _, g := range groups[1:] {
		if len(g) != 3 {
			return "", ErrBadGrouping
		}
	}
	return strings.Join(groups, ""), nil
}
