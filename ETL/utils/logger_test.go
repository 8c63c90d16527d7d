package utils

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/mattn/go-runewidth"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConsoleLoggerLevels(t *testing.T) {
	var buf bytes.Buffer
	l := NewConsoleLogger(&buf, false)

	l.Info("загружено %d строк", 3)
	l.Warn("пропущено %d", 1)
	l.Debug("не должно попасть")
	l.Error("сбой")

	out := buf.String()
	assert.Contains(t, out, "INFO: загружено 3 строк")
	assert.Contains(t, out, "WARN: пропущено 1")
	assert.Contains(t, out, "ERROR: сбой")
	assert.NotContains(t, out, "DEBUG")

	buf.Reset()
	NewConsoleLogger(&buf, true).Debug("детали")
	assert.Contains(t, buf.String(), "DEBUG: детали")
}

func TestFileLoggerWritesRunID(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "etl.log")
	l, err := NewETLLogger(config.LoggingConfig{File: path, Format: "json"}, false)
	require.NoError(t, err)

	l.WithRun("run-42").Info("Таблица %s заменена", models.TableDimProduct)
	require.NoError(t, l.Close())

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"run_id":"run-42"`)
	assert.Contains(t, string(data), "Таблица DimProduct заменена")
}

func TestPrintRunSummary(t *testing.T) {
	data := &models.TransformedData{
		Products:  []models.DimProduct{{ProductKey: 1, ProductName: "Widget", Category: "General"}},
		Customers: []models.DimCustomer{{CustomerKey: 1, CompanyName: "Acme", Country: "USA"}},
		Facts:     make([]models.FactSales, 2),
		Stats:     models.TransformStats{LineItemsRead: 3, OrphanedLineItems: 1, UnmatchedCustomers: 2},
	}

	var buf bytes.Buffer
	require.NoError(t, PrintRunSummary(&buf, RunSummary{RunID: "run-1", Backend: "parquet", Data: data}))

	lines := strings.Split(strings.TrimRight(buf.String(), "\n"), "\n")
	require.Greater(t, len(lines), 3)
	width := runewidth.StringWidth(lines[0])
	for _, line := range lines {
		assert.Equal(t, width, runewidth.StringWidth(line), "строка %q", line)
	}
	assert.Contains(t, buf.String(), "| Позиций без заказа (отброшено) | 1")
	assert.Contains(t, buf.String(), "| FactSales")
}
