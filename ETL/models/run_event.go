package models

import "time"

// Типы событий запуска, рассылаемых подписчикам
const (
	EventRunStarted    = "run_started"
	EventPhaseComplete = "phase_complete"
	EventRunSucceeded  = "run_succeeded"
	EventRunFailed     = "run_failed"
)

// Фазы ETL процесса
const (
	PhaseExtract   = "extract"
	PhaseTransform = "transform"
	PhaseLoad      = "load"
)

// RunEvent - событие жизненного цикла запуска ETL
type RunEvent struct {
	Type      string     `json:"type"`
	RunID     string     `json:"run_id"`
	Phase     string     `json:"phase,omitempty"`
	Time      time.Time  `json:"time"`
	Duration  float64    `json:"duration_seconds,omitempty"`
	Counts    *RunCounts `json:"counts,omitempty"`
	Error     string     `json:"error,omitempty"`
	ErrorCode string     `json:"error_code,omitempty"`
}
