package app

import "errors"

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	// Flow source: an HCL path, or a stored flow id plus database URL.
	// When all are empty the built-in default flow is used.
	FlowPath    string
	FlowID      string
	DatabaseURL string

	// Run parameters. Empty values fall back to flow file defaults.
	Tickers       string
	StartDate     string
	EndDate       string
	ModelName     string
	ModelProvider string

	// Backend connection.
	BaseURL string
	Token   string

	// Output handling.
	OutputDir   string
	ExportImage bool
	HistoryDB   string

	LogFormat string
	LogLevel  string
}

// NewConfig validates a Config and applies defaults.
func NewConfig(cfg Config) (*Config, error) {
	if cfg.BaseURL == "" {
		cfg.BaseURL = "http://localhost:8000"
	}
	if cfg.FlowID != "" && cfg.DatabaseURL == "" {
		return nil, errors.New("flow-id requires database-url")
	}
	if cfg.ExportImage && cfg.OutputDir == "" {
		return nil, errors.New("export-image requires output-dir")
	}
	return &cfg, nil
}
