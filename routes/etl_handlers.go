// routes/etl_handlers.go
package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
)

// Период истории запусков по умолчанию и максимальный
const (
	defaultRunsDays = 7
	maxRunsDays     = 365
)

// RunsResponse - ответ API для истории запусков
type RunsResponse struct {
	Days int                `json:"days"`
	Runs []models.ETLRunLog `json:"runs"`
}

// GetStatusHandler возвращает сводное состояние ETL процесса
func GetStatusHandler(runLog models.ETLLogRepository, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		monitor, err := runLog.GetETLStateMonitor()
		if err != nil {
			logger.Error("Ошибка при получении состояния ETL: %v", err)
			http.Error(w, "Ошибка при получении состояния ETL", http.StatusInternalServerError)
			return
		}
		writeJSON(w, monitor, logger)
	}
}

// GetRunsHandler возвращает запуски за последние days дней
func GetRunsHandler(runLog models.ETLLogRepository, logger *utils.ETLLogger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		days := defaultRunsDays
		if v := r.URL.Query().Get("days"); v != "" {
			n, err := strconv.Atoi(v)
			if err != nil || n < 1 || n > maxRunsDays {
				http.Error(w, "Неверный параметр days", http.StatusBadRequest)
				return
			}
			days = n
		}

		runs, err := runLog.GetETLRunStats(days)
		if err != nil {
			logger.Error("Ошибка при получении истории запусков: %v", err)
			http.Error(w, "Ошибка при получении истории запусков", http.StatusInternalServerError)
			return
		}
		if runs == nil {
			runs = []models.ETLRunLog{}
		}
		writeJSON(w, RunsResponse{Days: days, Runs: runs}, logger)
	}
}

func writeJSON(w http.ResponseWriter, v any, logger *utils.ETLLogger) {
	// Устанавливаем заголовок для JSON
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Error("Ошибка при кодировании JSON: %v", err)
	}
}
