// Package cmd implements the fillcast command line.
package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kilianp07/fillcast/config"
)

var (
	cfgPath     string
	historyPath string
	binID       string
	timezone    string
)

var rootCmd = &cobra.Command{
	Use:          "fillcast",
	Short:        "Fill level forecasting for sensor-equipped bins",
	SilenceUsage: true,
}

func init() {
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&cfgPath, "config", "c", "", "configuration file (yaml or json)")
	pf.StringVarP(&historyPath, "history", "f", "", "history file (csv or json), overrides source.file.path")
	pf.StringVar(&binID, "bin", "", "bin identifier, overrides source.bin_id")
	pf.StringVar(&timezone, "timezone", "", "IANA time zone for the hour of day pattern")
}

// Execute runs the CLI.
func Execute() error { return rootCmd.Execute() }

// loadConfig loads the configuration file and applies the persistent flags.
func loadConfig() (*config.Config, error) {
	return config.Load(cfgPath, func(c *config.Config) {
		if historyPath != "" {
			c.Source.Type = "file"
			c.Source.File.Path = historyPath
		}
		if binID != "" {
			c.Source.BinID = binID
		}
		if timezone != "" {
			c.Analysis.Timezone = timezone
		}
	})
}
