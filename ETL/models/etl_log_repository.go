package models

import (
	"database/sql"
	"errors"
	"fmt"
	"time"
)

const runLogColumns = `
	id, run_id, start_time, IFNULL(end_time, start_time), status,
	products_loaded, customers_loaded, facts_loaded,
	orphaned_line_items, unmatched_products, unmatched_customers,
	IFNULL(error_message, ''), IFNULL(execution_time_seconds, 0)`

// MySQLETLLogRepository реализация ETLLogRepository для MySQL.
// Журнал хранится в таблице etl_run_log базы хранилища.
type MySQLETLLogRepository struct {
	db *sql.DB
}

// NewMySQLETLLogRepository создает новый экземпляр MySQLETLLogRepository
func NewMySQLETLLogRepository(db *sql.DB) *MySQLETLLogRepository {
	return &MySQLETLLogRepository{
		db: db,
	}
}

// CreateETLLogTable создает таблицу для логирования ETL процесса, если она не существует
func (r *MySQLETLLogRepository) CreateETLLogTable() error {
	query := `
	CREATE TABLE IF NOT EXISTS etl_run_log (
		id INT AUTO_INCREMENT PRIMARY KEY,
		run_id CHAR(36) NOT NULL,
		start_time TIMESTAMP NOT NULL,
		end_time TIMESTAMP NULL,
		status ENUM('success', 'failed', 'in_progress') NOT NULL DEFAULT 'in_progress',
		products_loaded INT DEFAULT 0,
		customers_loaded INT DEFAULT 0,
		facts_loaded INT DEFAULT 0,
		orphaned_line_items INT DEFAULT 0,
		unmatched_products INT DEFAULT 0,
		unmatched_customers INT DEFAULT 0,
		error_message TEXT,
		execution_time_seconds FLOAT,
		UNIQUE KEY uq_etl_run_log_run_id (run_id)
	)
	`

	if _, err := r.db.Exec(query); err != nil {
		return fmt.Errorf("ошибка при создании таблицы etl_run_log: %w", err)
	}
	return nil
}

// CreateLogEntry создает новую запись о запуске ETL
func (r *MySQLETLLogRepository) CreateLogEntry(runID string, startTime time.Time) (int, error) {
	query := `INSERT INTO etl_run_log (run_id, start_time, status) VALUES (?, ?, 'in_progress')`

	result, err := r.db.Exec(query, runID, startTime)
	if err != nil {
		return 0, fmt.Errorf("ошибка при создании записи о запуске ETL: %w", err)
	}

	id, err := result.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("ошибка при получении ID созданной записи: %w", err)
	}

	return int(id), nil
}

func (r *MySQLETLLogRepository) startTime(id int) (time.Time, error) {
	var startTime time.Time
	err := r.db.QueryRow("SELECT start_time FROM etl_run_log WHERE id = ?", id).Scan(&startTime)
	if err != nil {
		return time.Time{}, fmt.Errorf("ошибка при получении времени начала ETL: %w", err)
	}
	return startTime, nil
}

// UpdateLogEntrySuccess обновляет запись при успешном завершении ETL
func (r *MySQLETLLogRepository) UpdateLogEntrySuccess(id int, endTime time.Time, counts RunCounts) error {
	startTime, err := r.startTime(id)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'success',
		products_loaded = ?,
		customers_loaded = ?,
		facts_loaded = ?,
		orphaned_line_items = ?,
		unmatched_products = ?,
		unmatched_customers = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(
		query,
		endTime,
		counts.ProductsLoaded,
		counts.CustomersLoaded,
		counts.FactsLoaded,
		counts.OrphanedLineItems,
		counts.UnmatchedProducts,
		counts.UnmatchedCustomers,
		endTime.Sub(startTime).Seconds(),
		id,
	)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске ETL: %w", err)
	}

	return nil
}

// UpdateLogEntryFailure обновляет запись при неудачном завершении ETL
func (r *MySQLETLLogRepository) UpdateLogEntryFailure(id int, endTime time.Time, errorMessage string) error {
	startTime, err := r.startTime(id)
	if err != nil {
		return err
	}

	query := `
	UPDATE etl_run_log
	SET
		end_time = ?,
		status = 'failed',
		error_message = ?,
		execution_time_seconds = ?
	WHERE id = ?
	`

	_, err = r.db.Exec(query, endTime, errorMessage, endTime.Sub(startTime).Seconds(), id)
	if err != nil {
		return fmt.Errorf("ошибка при обновлении записи о запуске ETL: %w", err)
	}

	return nil
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanRunLog(row rowScanner) (ETLRunLog, error) {
	var log ETLRunLog
	err := row.Scan(
		&log.ID, &log.RunID, &log.StartTime, &log.EndTime, &log.Status,
		&log.ProductsLoaded, &log.CustomersLoaded, &log.FactsLoaded,
		&log.OrphanedLineItems, &log.UnmatchedProducts, &log.UnmatchedCustomers,
		&log.ErrorMessage, &log.ExecutionTimeSeconds,
	)
	return log, err
}

// lastRunWithStatus возвращает nil, если запусков с таким статусом нет
func (r *MySQLETLLogRepository) lastRunWithStatus(status string) (*ETLRunLog, error) {
	query := `SELECT` + runLogColumns + `
	FROM etl_run_log
	WHERE status = ?
	ORDER BY start_time DESC, id DESC
	LIMIT 1
	`

	log, err := scanRunLog(r.db.QueryRow(query, status))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("ошибка при получении последнего запуска ETL со статусом %s: %w", status, err)
	}
	return &log, nil
}

// GetLastSuccessfulRun получает информацию о последнем успешном запуске ETL
func (r *MySQLETLLogRepository) GetLastSuccessfulRun() (*ETLRunLog, error) {
	return r.lastRunWithStatus(RunStatusSuccess)
}

// GetETLRunStats получает статистику о запусках ETL за определенный период
func (r *MySQLETLLogRepository) GetETLRunStats(days int) ([]ETLRunLog, error) {
	query := `SELECT` + runLogColumns + `
	FROM etl_run_log
	WHERE start_time >= DATE_SUB(NOW(), INTERVAL ? DAY)
	ORDER BY start_time DESC, id DESC
	`

	rows, err := r.db.Query(query, days)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статистики запусков ETL: %w", err)
	}
	defer rows.Close()

	logs := make([]ETLRunLog, 0)
	for rows.Next() {
		log, err := scanRunLog(rows)
		if err != nil {
			return nil, fmt.Errorf("ошибка при сканировании записи о запуске ETL: %w", err)
		}
		logs = append(logs, log)
	}

	if err = rows.Err(); err != nil {
		return nil, fmt.Errorf("ошибка после итерации по записям о запусках ETL: %w", err)
	}

	return logs, nil
}

// GetETLStateMonitor получает информацию о текущем состоянии ETL процесса
func (r *MySQLETLLogRepository) GetETLStateMonitor() (*ETLStateMonitor, error) {
	lastSuccessful, err := r.GetLastSuccessfulRun()
	if err != nil {
		return nil, err
	}
	lastFailed, err := r.lastRunWithStatus(RunStatusFailed)
	if err != nil {
		return nil, err
	}
	currentRun, err := r.lastRunWithStatus(RunStatusInProgress)
	if err != nil {
		return nil, err
	}

	var totalSuccess, totalFailed, totalFacts sql.NullInt64
	var avgExecutionTime sql.NullFloat64
	err = r.db.QueryRow(`
		SELECT
			SUM(CASE WHEN status = 'success' THEN 1 ELSE 0 END),
			SUM(CASE WHEN status = 'failed' THEN 1 ELSE 0 END),
			AVG(CASE WHEN status = 'success' THEN execution_time_seconds ELSE NULL END),
			SUM(CASE WHEN status = 'success' THEN facts_loaded ELSE 0 END)
		FROM etl_run_log
	`).Scan(&totalSuccess, &totalFailed, &avgExecutionTime, &totalFacts)
	if err != nil {
		return nil, fmt.Errorf("ошибка при получении статистики запусков ETL: %w", err)
	}

	return &ETLStateMonitor{
		LastSuccessfulRun:       lastSuccessful,
		LastFailedRun:           lastFailed,
		CurrentRun:              currentRun,
		TotalSuccessfulRuns:     int(totalSuccess.Int64),
		TotalFailedRuns:         int(totalFailed.Int64),
		AvgExecutionTimeSeconds: avgExecutionTime.Float64,
		TotalFactsLoaded:        int(totalFacts.Int64),
	}, nil
}
