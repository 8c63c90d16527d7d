// Package etl связывает фазы Extract, Transform и Load в один запуск и
// управляет периодическим выполнением.
package etl

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"sync"
	"time"

	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/extractors"
	"github.com/LilVoxy/northwind_dw/ETL/load"
	"github.com/LilVoxy/northwind_dw/ETL/models"
	"github.com/LilVoxy/northwind_dw/ETL/transform"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/LilVoxy/northwind_dw/processor"
	"github.com/go-co-op/gocron"
	"github.com/google/uuid"
)

// ErrRunInProgress возвращается, если запуск уже выполняется
var ErrRunInProgress = errors.New("ETL процесс уже выполняется")

// EventPublisher получает события жизненного цикла запуска
type EventPublisher interface {
	Publish(event models.RunEvent)
}

// RunResult - итог одного запуска
type RunResult struct {
	RunID    string
	Duration time.Duration
	Data     *models.TransformedData
	Archived []string
}

type ETLRunner struct {
	config     config.ETLConfig
	logger     *utils.ETLLogger
	warehouse  *load.Warehouse
	etlLogRepo models.ETLLogRepository
	events     []EventPublisher
	summaryOut io.Writer

	running sync.Mutex
	newID   func() string
}

// NewETLRunner подключается к хранилищу и создает новый экземпляр ETLRunner
func NewETLRunner(ctx context.Context, cfg config.ETLConfig, logger *utils.ETLLogger) (*ETLRunner, error) {
	logger.Info("Инициализация ETL Runner")

	warehouse, err := load.OpenWarehouse(ctx, cfg.Warehouse, logger)
	if err != nil {
		return nil, fmt.Errorf("ошибка подключения к хранилищу: %w", err)
	}

	runner, err := NewETLRunnerWithWarehouse(cfg, logger, warehouse)
	if err != nil {
		warehouse.Close()
		return nil, err
	}
	return runner, nil
}

// NewETLRunnerWithWarehouse создает ETLRunner поверх уже открытого хранилища
func NewETLRunnerWithWarehouse(cfg config.ETLConfig, logger *utils.ETLLogger, warehouse *load.Warehouse) (*ETLRunner, error) {
	// Проверяем настройки компонентов до первого запуска
	if _, err := extractors.NewExtractor(cfg.Sources, logger); err != nil {
		return nil, fmt.Errorf("ошибка настройки источников: %w", err)
	}
	if _, err := transform.NewTransformer(cfg.Transform, logger); err != nil {
		return nil, fmt.Errorf("ошибка настройки трансформации: %w", err)
	}

	return &ETLRunner{
		config:     cfg,
		logger:     logger,
		warehouse:  warehouse,
		etlLogRepo: warehouse.RunLog,
		summaryOut: os.Stdout,
		newID:      func() string { return uuid.NewString() },
	}, nil
}

// AddPublisher подписывает получателя на события запусков
func (r *ETLRunner) AddPublisher(p EventPublisher) {
	r.events = append(r.events, p)
}

// SetSummaryOutput задает, куда выводится итоговая таблица запуска
func (r *ETLRunner) SetSummaryOutput(w io.Writer) {
	r.summaryOut = w
}

// RunLog возвращает журнал запусков
func (r *ETLRunner) RunLog() models.ETLLogRepository {
	return r.etlLogRepo
}

// Close закрывает соединения с хранилищем
func (r *ETLRunner) Close() error {
	r.logger.Info("Завершение работы ETL Runner")
	return r.warehouse.Close()
}

func (r *ETLRunner) publish(event models.RunEvent) {
	event.Time = time.Now().UTC()
	for _, p := range r.events {
		p.Publish(event)
	}
}

// ExecuteETL выполняет полный ETL процесс: все таблицы звезды пересобираются
// из исходных файлов целиком
func (r *ETLRunner) ExecuteETL(ctx context.Context) (*RunResult, error) {
	if !r.running.TryLock() {
		return nil, ErrRunInProgress
	}
	defer r.running.Unlock()

	runID := r.newID()
	logger := r.logger.WithRun(runID)
	startTime := time.Now()
	logger.LogETLStart(runID)

	// Создаем запись в журнале ETL
	logID, err := r.etlLogRepo.CreateLogEntry(runID, startTime)
	if err != nil {
		logger.Error("Ошибка при создании записи в журнале ETL: %v", err)
		return nil, &etlerr.PersistenceError{
			Backend: r.warehouse.Backend,
			Table:   "etl_run_log",
			Err:     err,
		}
	}
	r.publish(models.RunEvent{Type: models.EventRunStarted, RunID: runID})

	fail := func(phase string, err error) (*RunResult, error) {
		wrapped := fmt.Errorf("ошибка в фазе %s: %w", phase, err)
		logger.Error("%v", wrapped)
		if uerr := r.etlLogRepo.UpdateLogEntryFailure(logID, time.Now(), wrapped.Error()); uerr != nil {
			logger.Error("Ошибка при обновлении записи в журнале ETL: %v", uerr)
		}
		r.publish(models.RunEvent{
			Type:      models.EventRunFailed,
			RunID:     runID,
			Phase:     phase,
			Duration:  time.Since(startTime).Seconds(),
			Error:     wrapped.Error(),
			ErrorCode: string(etlerr.CodeOf(err)),
		})
		return nil, wrapped
	}

	extractor, err := extractors.NewExtractor(r.config.Sources, logger)
	if err != nil {
		return fail("Extract", err)
	}
	transformer, err := transform.NewTransformer(r.config.Transform, logger)
	if err != nil {
		return fail("Transform", err)
	}
	loadManager := load.NewLoadManager(r.warehouse.Backend, r.warehouse.Loader, logger)

	// Дайджесты источников до чтения, чтобы снимок совпал с прочитанным
	var digests map[string]string
	if r.config.Archive.Dir != "" {
		digests = r.sourceDigests(logger, extractor)
	}

	// 1. Фаза извлечения данных (Extract)
	phaseStart := time.Now()
	extractedData, err := extractor.Extract(ctx)
	if err != nil {
		return fail("Extract", err)
	}
	r.phaseComplete(runID, models.PhaseExtract, phaseStart)

	// Снимок исходных файлов
	var archived []string
	if digests != nil {
		archived = r.archiveSources(logger, runID, digests)
	}

	// 2. Фаза трансформации данных (Transform)
	phaseStart = time.Now()
	transformedData, err := transformer.Transform(extractedData)
	if err != nil {
		return fail("Transform", err)
	}
	r.phaseComplete(runID, models.PhaseTransform, phaseStart)

	if err := ctx.Err(); err != nil {
		return fail("Load", err)
	}

	// 3. Фаза загрузки данных (Load)
	phaseStart = time.Now()
	if err := loadManager.Load(ctx, transformedData); err != nil {
		return fail("Load", err)
	}
	r.phaseComplete(runID, models.PhaseLoad, phaseStart)

	result := &RunResult{
		RunID:    runID,
		Duration: time.Since(startTime),
		Data:     transformedData,
		Archived: archived,
	}

	counts := models.CountsFrom(transformedData)
	if err := r.etlLogRepo.UpdateLogEntrySuccess(logID, time.Now(), counts); err != nil {
		logger.Error("Ошибка при обновлении записи в журнале ETL: %v", err)
	}

	logger.LogETLComplete(startTime, counts.ProductsLoaded, counts.CustomersLoaded, counts.FactsLoaded)
	if transformedData.Stats.OrphanedLineItems > 0 {
		logger.Warn("Отброшено позиций без заказа: %d", transformedData.Stats.OrphanedLineItems)
	}

	if r.summaryOut != nil {
		if err := utils.PrintRunSummary(r.summaryOut, utils.RunSummary{
			RunID:    runID,
			Backend:  r.warehouse.Backend,
			Duration: result.Duration,
			Data:     transformedData,
		}); err != nil {
			logger.Warn("Не удалось вывести итоги запуска: %v", err)
		}
	}

	r.publish(models.RunEvent{
		Type:     models.EventRunSucceeded,
		RunID:    runID,
		Duration: result.Duration.Seconds(),
		Counts:   &counts,
	})
	return result, nil
}

func (r *ETLRunner) phaseComplete(runID, phase string, start time.Time) {
	r.publish(models.RunEvent{
		Type:     models.EventPhaseComplete,
		RunID:    runID,
		Phase:    phase,
		Duration: time.Since(start).Seconds(),
	})
}

func (r *ETLRunner) sourceDigests(logger *utils.ETLLogger, extractor *extractors.Extractor) map[string]string {
	files, err := extractor.SourceFiles()
	if err != nil {
		logger.Warn("Не удалось получить список исходных файлов: %v", err)
		return nil
	}
	digests, err := processor.FileDigests(files)
	if err != nil {
		// Отсутствующий источник сообщит фаза Extract
		logger.Debug("Снимок источников пропущен: %v", err)
		return nil
	}
	return digests
}

// archiveSources сохраняет сжатый снимок прочитанных файлов. Ошибка
// архивации не отменяет запуск.
func (r *ETLRunner) archiveSources(logger *utils.ETLLogger, runID string, digests map[string]string) []string {
	files := make([]string, 0, len(digests))
	for path := range digests {
		files = append(files, path)
	}
	sort.Strings(files)

	archived, err := processor.ArchiveSources(r.config.Archive.Dir, runID, files, digests)
	if err != nil {
		logger.Warn("Ошибка при архивации исходных файлов: %v", err)
		return archived
	}
	logger.Info("Исходные файлы сохранены в архив %s/%s (%d файлов)", r.config.Archive.Dir, runID, len(archived))
	return archived
}

// StartScheduler запускает планировщик для регулярного выполнения ETL и
// блокируется до отмены ctx. Первый запуск выполняется сразу.
func (r *ETLRunner) StartScheduler(ctx context.Context, interval time.Duration) error {
	scheduler := gocron.NewScheduler(time.UTC)
	scheduler.SingletonModeAll()

	r.logger.Info("Запуск планировщика ETL с интервалом %v", interval)

	_, err := scheduler.Every(interval).Do(func() {
		r.logger.Info("Запланированный запуск ETL процесса")
		if _, err := r.ExecuteETL(ctx); err != nil {
			r.logger.Error("Ошибка при выполнении запланированного ETL: %v", err)
		}
	})
	if err != nil {
		return fmt.Errorf("ошибка при настройке планировщика: %w", err)
	}

	// Запускаем планировщик
	scheduler.StartAsync()

	// Ожидаем сигнал остановки из контекста
	<-ctx.Done()

	// Останавливаем планировщик, дожидаясь текущего запуска
	scheduler.Stop()
	r.logger.Info("Планировщик ETL остановлен")
	return nil
}
