package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fillcast/app"
	"github.com/kilianp07/fillcast/infra/logger"
	"github.com/kilianp07/fillcast/pkg/export"
)

var outputFormat string

var forecastCmd = &cobra.Command{
	Use:   "forecast",
	Short: "Analyze the history once and print the forecast",
	RunE:  runForecast,
}

func init() {
	forecastCmd.Flags().StringVarP(&outputFormat, "output", "o", "text", "output format: text or json")
	rootCmd.AddCommand(forecastCmd)
}

func runForecast(cmd *cobra.Command, _ []string) error {
	if outputFormat != "text" && outputFormat != "json" {
		return fmt.Errorf("unknown output format %q", outputFormat)
	}
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	svc, err := app.New(cfg)
	if err != nil {
		return err
	}
	defer func() {
		if err := svc.Close(); err != nil {
			logger.New("forecast-command").Errorf("service close: %v", err)
		}
	}()

	report, err := svc.RunOnce(ctx)
	if err != nil {
		return err
	}
	if outputFormat == "json" {
		return export.WriteReportJSON(cmd.OutOrStdout(), report)
	}
	return renderText(cmd.OutOrStdout(), report)
}
