package models

import (
	"fmt"
	"sort"
	"sync"
	"time"
)

// MemoryETLLogRepository хранит журнал запусков в памяти процесса.
// Используется для хранилищ, у которых нет собственной таблицы журнала
// (PostgreSQL через COPY, Parquet), и в тестах.
type MemoryETLLogRepository struct {
	mu   sync.RWMutex
	runs []ETLRunLog
	now  func() time.Time
}

// NewMemoryETLLogRepository создает пустой журнал
func NewMemoryETLLogRepository() *MemoryETLLogRepository {
	return &MemoryETLLogRepository{now: time.Now}
}

// CreateLogEntry создает новую запись о запуске ETL
func (r *MemoryETLLogRepository) CreateLogEntry(runID string, startTime time.Time) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	id := len(r.runs) + 1
	r.runs = append(r.runs, ETLRunLog{
		ID:        id,
		RunID:     runID,
		StartTime: startTime,
		EndTime:   startTime,
		Status:    RunStatusInProgress,
	})
	return id, nil
}

func (r *MemoryETLLogRepository) entry(id int) (*ETLRunLog, error) {
	if id < 1 || id > len(r.runs) {
		return nil, fmt.Errorf("запись о запуске ETL с ID %d не найдена", id)
	}
	return &r.runs[id-1], nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
func (r *MemoryETLLogRepository) UpdateLogEntrySuccess(id int, endTime time.Time, counts RunCounts) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, err := r.entry(id)
	if err != nil {
		return err
	}
	log.EndTime = endTime
	log.Status = RunStatusSuccess
	log.ProductsLoaded = counts.ProductsLoaded
	log.CustomersLoaded = counts.CustomersLoaded
	log.FactsLoaded = counts.FactsLoaded
	log.OrphanedLineItems = counts.OrphanedLineItems
	log.UnmatchedProducts = counts.UnmatchedProducts
	log.UnmatchedCustomers = counts.UnmatchedCustomers
	log.ExecutionTimeSeconds = endTime.Sub(log.StartTime).Seconds()
	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
func (r *MemoryETLLogRepository) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	log, err := r.entry(id)
	if err != nil {
		return err
	}
	log.EndTime = endTime
	log.Status = RunStatusFailed
	log.ErrorMessage = errorMessage
	log.ExecutionTimeSeconds = endTime.Sub(log.StartTime).Seconds()
	return nil
}

// lastRunWithStatus ищет самую позднюю запись; ID растут вместе со временем создания
func (r *MemoryETLLogRepository) lastRunWithStatus(status string) *ETLRunLog {
	for i := len(r.runs) - 1; i >= 0; i-- {
		if r.runs[i].Status == status {
			log := r.runs[i]
			return &log
		}
	}
	return nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
func (r *MemoryETLLogRepository) GetLastSuccessfulRun() (*ETLRunLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.lastRunWithStatus(RunStatusSuccess), nil
}

// GetETLRunStats возвращает запуски за последние days дней, новые первыми
func (r *MemoryETLLogRepository) GetETLRunStats(days int) ([]ETLRunLog, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	since := r.now().AddDate(0, 0, -days)
	logs := make([]ETLRunLog, 0, len(r.runs))
	for _, log := range r.runs {
		if !log.StartTime.Before(since) {
			logs = append(logs, log)
		}
	}
	sort.SliceStable(logs, func(i, j int) bool {
		return logs[i].ID > logs[j].ID
	})
	return logs, nil
}

// GetETLStateMonitor получает информацию о текущем состоянии ETL процесса
func (r *MemoryETLLogRepository) GetETLStateMonitor() (*ETLStateMonitor, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	monitor := &ETLStateMonitor{
		LastSuccessfulRun: r.lastRunWithStatus(RunStatusSuccess),
		LastFailedRun:     r.lastRunWithStatus(RunStatusFailed),
		CurrentRun:        r.lastRunWithStatus(RunStatusInProgress),
	}

	var totalTime float64
	for _, log := range r.runs {
		switch log.Status {
		case RunStatusSuccess:
			monitor.TotalSuccessfulRuns++
			monitor.TotalFactsLoaded += log.FactsLoaded
			totalTime += log.ExecutionTimeSeconds
		case RunStatusFailed:
			monitor.TotalFailedRuns++
		}
	}
	if monitor.TotalSuccessfulRuns > 0 {
		monitor.AvgExecutionTimeSeconds = totalTime / float64(monitor.TotalSuccessfulRuns)
	}
	return monitor, nil
}
