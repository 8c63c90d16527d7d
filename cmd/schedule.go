package cmd

import (
	"context"
	"errors"
	"net/http"
	"time"

	etl "github.com/LilVoxy/northwind_dw/ETL"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/LilVoxy/northwind_dw/routes"
	"github.com/LilVoxy/northwind_dw/websocket"
	"github.com/gorilla/mux"
	"github.com/spf13/cobra"
)

const shutdownTimeout = 10 * time.Second

func newScheduleCmd(opts *globalOptions) *cobra.Command {
	var (
		interval time.Duration
		listen   string
	)

	cmd := &cobra.Command{
		Use:   "schedule",
		Short: "Периодически перестраивать хранилище",
		Long: `schedule выполняет полный запуск ETL сразу и затем с заданным интервалом.
Запуски не перекрываются. При заданном --listen поднимается HTTP API
состояния (/api/etl/status, /api/etl/runs) и поток событий /ws/etl.
Останавливается по SIGINT/SIGTERM.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cmd.Flags().Changed("interval") {
				cfg.Schedule.Interval = interval
			}
			if cmd.Flags().Changed("listen") {
				cfg.Schedule.Listen = listen
			}
			if cfg.Schedule.Interval <= 0 {
				return errors.New("интервал запуска должен быть положительным")
			}

			logger, err := utils.NewETLLogger(cfg.Logging, opts.verbose)
			if err != nil {
				return err
			}
			defer logger.Close()

			ctx := cmd.Context()
			runner, err := etl.NewETLRunner(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer runner.Close()
			runner.SetSummaryOutput(cmd.OutOrStdout())

			if cfg.Schedule.Listen != "" {
				stopServer := startStatusServer(ctx, cfg.Schedule.Listen, runner, logger)
				defer stopServer()
			}

			return runner.StartScheduler(ctx, cfg.Schedule.Interval)
		},
	}

	cmd.Flags().DurationVar(&interval, "interval", 0, "интервал между запусками (по умолчанию schedule.interval)")
	cmd.Flags().StringVar(&listen, "listen", "", "адрес HTTP API состояния, например :8080")
	return cmd
}

// startStatusServer поднимает API состояния и поток событий. Возвращает
// функцию остановки сервера.
func startStatusServer(ctx context.Context, addr string, runner *etl.ETLRunner, logger *utils.ETLLogger) func() {
	wsCtx, cancelWS := context.WithCancel(context.Background())
	wsManager := websocket.NewManager(logger)
	go wsManager.Run(wsCtx)
	runner.AddPublisher(wsManager)

	router := mux.NewRouter()
	routes.SetupRoutes(router, runner.RunLog(), wsManager, logger)

	server := &http.Server{
		Addr:         addr,
		Handler:      router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		logger.Info("API состояния ETL доступно на %s", addr)
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("Ошибка запуска сервера: %v", err)
		}
	}()

	return func() {
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), shutdownTimeout)
		defer cancel()
		if err := server.Shutdown(shutdownCtx); err != nil {
			logger.Warn("Ошибка остановки сервера: %v", err)
		}
		cancelWS()
		logger.Info("API состояния ETL остановлено")
	}
}
