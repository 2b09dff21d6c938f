// Trinity CLI — предпросмотр раскладки процессов и управление
// сохранёнными процессами через HTTP API.
//
// Использование:
//
//	trinity [--api-url URL] [--json] [--config FILE] <command> [flags]
//
// Команды:
//
//	preview   Раскладка YAML-файла по уровням
//	validate  Строгая проверка YAML-файла
//	process   Управление процессами и версиями
package main

import (
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"

	"github.com/shaiso/Trinity/internal/cli"
	"github.com/shaiso/Trinity/internal/config"
	"github.com/shaiso/Trinity/internal/telemetry"
)

// version задаётся через ldflags при сборке.
var version = "dev"

func main() {
	var (
		apiURL     string
		jsonOutput bool
		configPath string
		verbose    bool
		cfg        *config.Config
	)

	rootCmd := &cobra.Command{
		Use:           "trinity",
		Short:         "Trinity CLI — process definition layout tool",
		Version:       version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			loaded, err := config.Load(configPath)
			if err != nil {
				return err
			}
			cfg = loaded

			// Логи CLI нужны только для отладки
			logOut := io.Discard
			if verbose {
				logOut = os.Stderr
			}
			telemetry.SetupLogger("DEBUG", "text", logOut)

			if !cmd.Flags().Changed("api-url") {
				apiURL = fmt.Sprintf("http://localhost:%d", cfg.API.Port)
			}
			return nil
		},
	}

	rootCmd.PersistentFlags().StringVar(&apiURL, "api-url", "http://localhost:8080", "API server URL")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false, "Output in JSON format")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default: ./trinity.yaml if present)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Print debug logs to stderr")

	clientFn := func() *cli.Client { return cli.NewClient(apiURL) }
	outputFn := func() *cli.Output { return cli.NewOutput(jsonOutput) }
	fireTimesFn := func() int { return cfg.Preview.FireTimes }

	rootCmd.AddCommand(
		cli.NewPreviewCmd(clientFn, outputFn, fireTimesFn),
		cli.NewValidateCmd(outputFn),
		cli.NewStepTypesCmd(outputFn),
		cli.NewProcessCmd(clientFn, outputFn),
	)

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
