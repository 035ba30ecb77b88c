package config

import "fmt"

// ExportConfig sets where the export command writes its files.
type ExportConfig struct {
	Dir string `json:"dir"`
	// HistoryFormat is "csv" or "json".
	HistoryFormat string `json:"history_format"`
}

// SetDefaults applies sane defaults.
func (c *ExportConfig) SetDefaults() {
	if c.Dir == "" {
		c.Dir = "."
	}
	if c.HistoryFormat == "" {
		c.HistoryFormat = "csv"
	}
}

// Validate checks mandatory fields.
func (c ExportConfig) Validate() error {
	if c.HistoryFormat != "csv" && c.HistoryFormat != "json" {
		return fmt.Errorf("unknown history format %s", c.HistoryFormat)
	}
	return nil
}
