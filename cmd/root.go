// Package cmd содержит команды CLI northwind-etl.
package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	etl "github.com/LilVoxy/northwind_dw/ETL"
	"github.com/LilVoxy/northwind_dw/ETL/config"
	"github.com/LilVoxy/northwind_dw/ETL/etlerr"
	"github.com/LilVoxy/northwind_dw/ETL/utils"
	"github.com/spf13/cobra"
)

// globalOptions - флаги, общие для всех команд
type globalOptions struct {
	cfgFile string
	verbose bool
}

// NewRootCmd создает корневую команду. Без подкоманд выполняет один полный
// запуск ETL.
func NewRootCmd() *cobra.Command {
	opts := &globalOptions{}

	rootCmd := &cobra.Command{
		Use:   "northwind-etl",
		Short: "Построение звезды продаж Northwind из выгрузок CSV/XLSX",
		Long: `northwind-etl читает выгрузки Northwind (позиции заказов, заказы, клиенты,
каталог товаров), строит измерения DimProduct и DimCustomer и таблицу фактов
FactSales и полностью заменяет их в хранилище (MySQL, PostgreSQL или parquet).

Коды завершения: 0 - успех, 2 - ошибка разбора, 3 - нарушение целостности,
4 - нет исходного файла, 5 - ошибка записи в хранилище, 1 - прочие ошибки.`,
		Args:          cobra.NoArgs,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runOnce(cmd, opts)
		},
	}

	rootCmd.PersistentFlags().StringVar(&opts.cfgFile, "config", config.DefaultConfigPath, "путь к файлу конфигурации YAML")
	rootCmd.PersistentFlags().BoolVarP(&opts.verbose, "verbose", "v", false, "подробный вывод (DEBUG)")

	rootCmd.AddCommand(
		newScheduleCmd(opts),
		newRestoreCmd(opts),
		newVersionCmd(),
	)
	return rootCmd
}

// Execute выполняет CLI и возвращает код завершения процесса
func Execute() int {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return run(ctx, os.Args[1:], os.Stdout, os.Stderr)
}

func run(ctx context.Context, args []string, stdout, stderr io.Writer) int {
	rootCmd := NewRootCmd()
	rootCmd.SetArgs(args)
	rootCmd.SetOut(stdout)
	rootCmd.SetErr(stderr)

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		fmt.Fprintf(stderr, "ERROR: %v\n", err)
		return etlerr.ExitCode(err)
	}
	return etlerr.ExitOK
}

// loadConfig читает конфигурацию. Файл по умолчанию необязателен, явно
// указанный через --config должен существовать.
func loadConfig(cmd *cobra.Command, opts *globalOptions) (config.ETLConfig, error) {
	return config.Load(opts.cfgFile, cmd.Flags().Changed("config"))
}

func runOnce(cmd *cobra.Command, opts *globalOptions) error {
	cfg, err := loadConfig(cmd, opts)
	if err != nil {
		return err
	}

	logger, err := utils.NewETLLogger(cfg.Logging, opts.verbose)
	if err != nil {
		return err
	}
	defer logger.Close()

	runner, err := etl.NewETLRunner(cmd.Context(), cfg, logger)
	if err != nil {
		return err
	}
	defer runner.Close()

	runner.SetSummaryOutput(cmd.OutOrStdout())
	_, err = runner.ExecuteETL(cmd.Context())
	return err
}
