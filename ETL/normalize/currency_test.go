package normalize

import (
	"math"
	"testing"

	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCurrency(t *testing.T) {
	tests := []struct {
		name  string
		value any
		conv  Convention
		want  string
	}{
		{"euro comma decimal", "€2,50", ConventionAuto, "2.5"},
		{"mojibake euro", "â‚¬14.00", ConventionAuto, "14"},
		{"dollar with grouping", "$1,234.56", ConventionAuto, "1234.56"},
		{"european grouping", "1.234,56 €", ConventionAuto, "1234.56"},
		{"plain integer", "18", ConventionAuto, "18"},
		{"plain decimal", " 9.65 ", ConventionAuto, "9.65"},
		{"leading zero three decimals", "0,125", ConventionAuto, "0.125"},
		{"many groups", "1,234,567", ConventionAuto, "1234567"},
		{"space grouping", "1 234,50", ConventionAuto, "1234.5"},
		{"nbsp grouping", "1\u00a0234,50", ConventionAuto, "1234.5"},
		{"swiss apostrophe", "1'234.50", ConventionAuto, "1234.5"},
		{"unknown currency code", "CHF 12", ConventionAuto, ""},
		{"point convention groups", "1,234", ConventionPoint, "1234"},
		{"comma convention decimal", "1,234", ConventionComma, "1.234"},
		{"comma convention groups", "1.234", ConventionComma, "1234"},
		{"float passthrough", 2.5, ConventionAuto, "2.5"},
		{"int passthrough", 7, ConventionAuto, "7"},
		{"decimal passthrough", decimal.RequireFromString("3.75"), ConventionComma, "3.75"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Currency(tt.value, tt.conv)
			if tt.want == "" {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.True(t, decimal.RequireFromString(tt.want).Equal(got), "got %s, want %s", got, tt.want)
		})
	}
}

func TestCurrencyErrors(t *testing.T) {
	tests := []struct {
		name  string
		value any
		conv  Convention
		want  error
	}{
		{"ambiguous thousands", "1,234", ConventionAuto, ErrAmbiguousSeparator},
		{"ambiguous point", "$2.500", ConventionAuto, ErrAmbiguousSeparator},
		{"letters", "twelve", ConventionAuto, ErrNotNumeric},
		{"only symbol", "€", ConventionAuto, ErrMissingValue},
		{"negative text", "-5.00", ConventionAuto, ErrNegativeAmount},
		{"negative accounting", "(5.00)", ConventionAuto, ErrNegativeAmount},
		{"negative number", -1.5, ConventionAuto, ErrNegativeAmount},
		{"bad grouping", "12,34,567", ConventionAuto, ErrBadGrouping},
		{"mismatch", "1.234,56", ConventionPoint, ErrSeparatorMismatch},
		{"two decimal marks", "1.2.3", ConventionPoint, ErrSeparatorMismatch},
		{"nil", nil, ConventionAuto, ErrMissingValue},
		{"NaN", math.NaN(), ConventionAuto, ErrNotNumeric},
		{"infinity", math.Inf(1), ConventionAuto, ErrNotNumeric},
		{"float32 infinity", float32(math.Inf(-1)), ConventionAuto, ErrNotNumeric},
		{"unsupported type", struct{}{}, ConventionAuto, ErrNotNumeric},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Currency(tt.value, tt.conv)
			require.Error(t, err)
			assert.ErrorIs(t, err, tt.want)

			var pe *etlerr.ParseError
			assert.ErrorAs(t, err, &pe)
		})
	}
}

func TestParseConvention(t *testing.T) {
	c, err := ParseConvention("")
	require.NoError(t, err)
	assert.Equal(t, ConventionAuto, c)

	c, err = ParseConvention(" Comma ")
	require.NoError(t, err)
	assert.Equal(t, ConventionComma, c)

	_, err = ParseConvention("locale")
	assert.ErrorIs(t, err, ErrUnknownConvention)
}
