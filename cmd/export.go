package cmd

import (
	"context"
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/kilianp07/fillcast/core/forecast"
	"github.com/kilianp07/fillcast/infra/logger"
	"github.com/kilianp07/fillcast/infra/source"
	"github.com/kilianp07/fillcast/pkg/export"
)

var exportDir string

var exportCmd = &cobra.Command{
	Use:   "export",
	Short: "Write the history and the forecast report to files",
	RunE:  runExport,
}

func init() {
	exportCmd.Flags().StringVar(&exportDir, "out", "", "output directory, overrides export.dir")
	rootCmd.AddCommand(exportCmd)
}

func runExport(cmd *cobra.Command, _ []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("load config: %w", err)
	}
	dir := cfg.Export.Dir
	if exportDir != "" {
		dir = exportDir
	}
	loc, err := cfg.Analysis.Location()
	if err != nil {
		return err
	}
	src, err := source.New(cfg.Source)
	if err != nil {
		return err
	}
	samples, err := src.Load(context.Background())
	if err != nil {
		return fmt.Errorf("load history: %w", err)
	}
	report := forecast.Analyze(samples, loc)
	if report.BinID == "" {
		report.BinID = cfg.Source.BinID
	}

	if report.Insufficient {
		logger.New("export-command").Warnf("only %d usable samples, report carries no forecast", report.Samples)
	}
	history := samples
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return err
	}
	histPath := filepath.Join(dir, "history."+cfg.Export.HistoryFormat)
	if err := writeFile(histPath, func(f *os.File) error {
		if cfg.Export.HistoryFormat == "json" {
			return export.WriteSamplesJSON(f, history)
		}
		return export.WriteSamplesCSV(f, history)
	}); err != nil {
		return err
	}
	reportPath := filepath.Join(dir, "report.json")
	if err := writeFile(reportPath, func(f *os.File) error {
		return export.WriteReportJSON(f, report)
	}); err != nil {
		return err
	}
	fmt.Fprintf(cmd.OutOrStdout(), "wrote %s (%d samples) and %s\n", histPath, len(history), reportPath)
	return nil
}

func writeFile(path string, write func(*os.File) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := write(f); err != nil {
		_ = f.Close()
		return fmt.Errorf("write %s: %w", path, err)
	}
	return f.Close()
}
