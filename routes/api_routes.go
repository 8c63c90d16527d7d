// routes/api_routes.go
package routes

import (
	"net/http"

	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/LilVoxy/northwind_dw/websocket"
	"github.com/gorilla/mux"
)

// SetupRoutes настраивает маршруты API состояния ETL и WebSocket
func SetupRoutes(router *mux.Router, runLog models.ETLLogRepository, wsManager *websocket.Manager, logger *utils.ETLLogger) {
	// Применяем CORS middleware
	router.Use(corsMiddleware)

	// Поток событий запусков
	router.HandleFunc("/ws/etl", wsManager.HandleConnections)

	// API состояния ETL
	router.HandleFunc("/api/etl/status", GetStatusHandler(runLog, logger)).Methods("GET", "OPTIONS")
	router.HandleFunc("/api/etl/runs", GetRunsHandler(runLog, logger)).Methods("GET", "OPTIONS")
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}
