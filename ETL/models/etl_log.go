package models

import (
	"time"
)

// Статусы запуска ETL
const (
	RunStatusInProgress = "in_progress"
	RunStatusSuccess    = "success"
	RunStatusFailed     = "failed"
)

// ETLRunLog представляет запись о запуске ETL процесса
type ETLRunLog struct {
	ID                   int       `json:"id"`
	RunID                string    `json:"run_id"`
	StartTime            time.Time `json:"start_time"`
	EndTime              time.Time `json:"end_time"`
	Status               string    `json:"status"` // "success", "failed", "in_progress"
	ProductsLoaded       int       `json:"products_loaded"`
	CustomersLoaded      int       `json:"customers_loaded"`
	FactsLoaded          int       `json:"facts_loaded"`
	OrphanedLineItems    int       `json:"orphaned_line_items"`
	UnmatchedProducts    int       `json:"unmatched_products"`
	UnmatchedCustomers   int       `json:"unmatched_customers"`
	ErrorMessage         string    `json:"error_message,omitempty"`
	ExecutionTimeSeconds float64   `json:"execution_time_seconds"`
}

// RunCounts - итоговые счётчики успешного запуска
type RunCounts struct {
	ProductsLoaded     int `json:"products_loaded"`
	CustomersLoaded    int `json:"customers_loaded"`
	FactsLoaded        int `json:"facts_loaded"`
	OrphanedLineItems  int `json:"orphaned_line_items"`
	UnmatchedProducts  int `json:"unmatched_products"`
	UnmatchedCustomers int `json:"unmatched_customers"`
}

// CountsFrom собирает счётчики запуска из результата трансформации
func CountsFrom(data *TransformedData) RunCounts {
	return RunCounts{
		ProductsLoaded:     len(data.Products),
		CustomersLoaded:    len(data.Customers),
		FactsLoaded:        len(data.Facts),
		OrphanedLineItems:  data.Stats.OrphanedLineItems,
		UnmatchedProducts:  data.Stats.UnmatchedProducts,
		UnmatchedCustomers: data.Stats.UnmatchedCustomers,
	}
}

// ETLLogRepository представляет репозиторий для работы с логами ETL
type ETLLogRepository interface {
	// CreateLogEntry создает новую запись о запуске ETL
	CreateLogEntry(runID string, startTime time.Time) (int, error)

	// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
	UpdateLogEntrySuccess(id int, endTime time.Time, counts RunCounts) error

	// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
	UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error

	// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
	GetLastSuccessfulRun() (*ETLRunLog, error)

	// GetETLRunStats получает запуски ETL за последние days дней
	GetETLRunStats(days int) ([]ETLRunLog, error)

	// GetETLStateMonitor получает сводное состояние ETL процесса
	GetETLStateMonitor() (*ETLStateMonitor, error)
}

// ETLStateMonitor предоставляет информацию о текущем состоянии ETL процесса
type ETLStateMonitor struct {
	LastSuccessfulRun       *ETLRunLog `json:"last_successful_run"`
	LastFailedRun           *ETLRunLog `json:"last_failed_run,omitempty"`
	CurrentRun              *ETLRunLog `json:"current_run,omitempty"`
	TotalSuccessfulRuns     int        `json:"total_successful_runs"`
	TotalFailedRuns         int        `json:"total_failed_runs"`
	AvgExecutionTimeSeconds float64    `json:"avg_execution_time_seconds"`
	TotalFactsLoaded        int        `json:"total_facts_loaded"`
}
