// Command billingctl tareas de operación sobre el estado de facturación.
package main

import (
	"os"

	"github.com/spf13/cobra"

	"github.com/jhoicas/Suscripciones-api/pkg/config"
	"github.com/jhoicas/Suscripciones-api/pkg/logger"
)

var rootCmd = &cobra.Command{
	Use:           "billingctl",
	Short:         "Operación del núcleo de facturación",
	SilenceUsage:  true,
	SilenceErrors: false,
	PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		logger.New(logger.Config{Env: cfg.App.Env, Level: cfg.App.LogLevel, Service: "billingctl"})
		cmd.SetContext(withConfig(cmd.Context(), cfg))
		return nil
	},
}

func main() {
	rootCmd.AddCommand(newSyncStatusCmd(openResyncer), migrateCmd)
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
