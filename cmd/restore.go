package cmd

import (
	"errors"
	"fmt"

	"github.com/LilVoxy/northwind_dw/processor"
	"github.com/spf13/cobra"
)

func newRestoreCmd(opts *globalOptions) *cobra.Command {
	var dest string

	cmd := &cobra.Command{
		Use:   "restore <run-id>",
		Short: "Распаковать снимок исходных файлов запуска",
		Long: `restore восстанавливает исходные файлы, сохраненные запуском <run-id> в
archive.dir, чтобы повторить запуск на тех же данных.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig(cmd, opts)
			if err != nil {
				return err
			}
			if cfg.Archive.Dir == "" {
				return errors.New("archive.dir не задан в конфигурации")
			}

			restored, err := processor.RestoreSources(cfg.Archive.Dir, args[0], dest)
			if err != nil {
				return err
			}
			for _, path := range restored {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}

	cmd.Flags().StringVar(&dest, "to", ".", "каталог для восстановленных файлов")
	return cmd
}
