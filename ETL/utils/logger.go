package utils

import (
	"context"
	"fmt"
	"io"
	"log"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/config"
)

// ETLLogger представляет логгер для ETL-процесса. Человекочитаемые строки
// выводятся в консоль, те же события при заданном logging.file пишутся
// в файл структурированно (slog) с идентификатором запуска.
type ETLLogger struct {
	console   *log.Logger
	file      *slog.Logger
	closer    io.Closer
	isVerbose bool
}

// NewETLLogger создает логгер по настройкам logging
func NewETLLogger(cfg config.LoggingConfig, verbose bool) (*ETLLogger, error) {
	l := NewConsoleLogger(os.Stdout, verbose || cfg.Verbose)
	if cfg.File == "" {
		return l, nil
	}

	if dir := filepath.Dir(cfg.File); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("не удалось создать каталог лога: %w", err)
		}
	}
	file, err := os.OpenFile(cfg.File, os.O_APPEND|os.O_CREATE|os.O_WRONLY, 0o644)
	if err != nil {
		return nil, fmt.Errorf("не удалось открыть или создать файл лога: %w", err)
	}

	l.file = slog.New(newFileHandler(file, cfg.Format, l.isVerbose))
	l.closer = file
	return l, nil
}

// NewConsoleLogger создает логгер, пишущий только в w
func NewConsoleLogger(w io.Writer, verbose bool) *ETLLogger {
	return &ETLLogger{
		console:   log.New(w, "", log.Ldate|log.Ltime),
		isVerbose: verbose,
	}
}

func newFileHandler(w io.Writer, format string, verbose bool) slog.Handler {
	opts := &slog.HandlerOptions{Level: slog.LevelInfo}
	if verbose {
		opts.Level = slog.LevelDebug
	}
	if format == "json" {
		return slog.NewJSONHandler(w, opts)
	}
	return slog.NewTextHandler(w, opts)
}

// WithRun возвращает логгер, помечающий записи файла идентификатором запуска
func (l *ETLLogger) WithRun(runID string) *ETLLogger {
	child := *l
	child.closer = nil
	if l.file != nil {
		child.file = l.file.With("run_id", runID)
	}
	return &child
}

// Verbose сообщает, включен ли отладочный вывод
func (l *ETLLogger) Verbose() bool {
	return l.isVerbose
}

// Close закрывает файл лога
func (l *ETLLogger) Close() error {
	if l.closer == nil {
		return nil
	}
	return l.closer.Close()
}

func (l *ETLLogger) write(level slog.Level, prefix, format string, v ...any) {
	msg := fmt.Sprintf(format, v...)
	l.console.Println(prefix, msg)
	if l.file != nil {
		l.file.Log(context.Background(), level, msg)
	}
}

// Info логирует информационное сообщение
func (l *ETLLogger) Info(format string, v ...interface{}) {
	l.write(slog.LevelInfo, "INFO:", format, v...)
}

// Warn логирует предупреждение
func (l *ETLLogger) Warn(format string, v ...interface{}) {
	l.write(slog.LevelWarn, "WARN:", format, v...)
}

// Error логирует сообщение об ошибке
func (l *ETLLogger) Error(format string, v ...interface{}) {
	l.write(slog.LevelError, "ERROR:", format, v...)
}

// Debug логирует отладочное сообщение (только если включен verbose режим)
func (l *ETLLogger) Debug(format string, v ...interface{}) {
	if !l.isVerbose {
		return
	}
	l.write(slog.LevelDebug, "DEBUG:", format, v...)
}

// LogETLStart логирует начало ETL-процесса
func (l *ETLLogger) LogETLStart(runID string) {
	l.Info("Начало выполнения ETL-процесса (запуск %s)", runID)
}

// LogETLComplete логирует завершение ETL-процесса
func (l *ETLLogger) LogETLComplete(startTime time.Time, products, customers, facts int) {
	l.Info("ETL-процесс завершён. Длительность: %v", time.Since(startTime).Round(time.Millisecond))
	l.Info("Загружено: %d товаров, %d клиентов, %d фактов продаж", products, customers, facts)
}

// LogExtractStart логирует начало фазы извлечения данных
func (l *ETLLogger) LogExtractStart() {
	l.Info("Начало фазы Extract (Извлечение данных)")
}

// LogExtractComplete логирует завершение фазы извлечения данных
func (l *ETLLogger) LogExtractComplete(lineItems, orders, customers, catalog int, duration time.Duration) {
	l.Info("Фаза Extract завершена. Длительность: %v", duration)
	l.Info("Извлечено: %d позиций заказов, %d заказов, %d клиентов, %d записей каталога",
		lineItems, orders, customers, catalog)
}

// LogTransformStart логирует начало фазы трансформации
func (l *ETLLogger) LogTransformStart() {
	l.Info("Начало фазы Transform (Трансформация данных)")
}

// LogTransformComplete логирует завершение фазы трансформации
func (l *ETLLogger) LogTransformComplete(products, customers, facts int, duration time.Duration) {
	l.Info("Фаза Transform завершена. Длительность: %v", duration)
	l.Info("Построено: %d товаров, %d клиентов, %d фактов продаж", products, customers, facts)
}

// LogLoadStart логирует начало фазы загрузки
func (l *ETLLogger) LogLoadStart(backend string) {
	l.Info("Начало фазы Load (Загрузка данных, хранилище %s)", backend)
}

// LogTableLoaded логирует замену одной таблицы хранилища
func (l *ETLLogger) LogTableLoaded(table string, rows int, duration time.Duration) {
	l.Info("Таблица %s заменена: %d строк за %v", table, rows, duration)
}

// LogLoadComplete логирует завершение фазы загрузки
func (l *ETLLogger) LogLoadComplete(duration time.Duration) {
	l.Info("Фаза Load завершена. Длительность: %v", duration)
}
