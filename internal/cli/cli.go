// Package cli parses command-line arguments into an app configuration.
package cli

import (
	"flag"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"

	"github.com/quantflow/quantflow/internal/app"
)

// ExitError is a custom error type that includes a specific exit code.
type ExitError struct {
	Code    int
	Message string
}

// Error implements the error interface for ExitError.
func (e *ExitError) Error() string {
	return e.Message
}

// Parse processes command-line arguments. It returns a populated Config,
// a boolean indicating if the program should exit cleanly, or an ExitError.
func Parse(args []string, output io.Writer) (*app.Config, bool, error) {
	slog.Debug("CLI parser started.")
	flagSet := flag.NewFlagSet("quantflow", flag.ContinueOnError)
	flagSet.SetOutput(output)

	flagSet.Usage = func() {
		fmt.Fprint(output, `
QuantFlow - run a pipeline of investment analysts and render the report.

Usage:
  quantflow [options] [FLOW_PATH]

Arguments:
  FLOW_PATH
    Path to a single .hcl flow file or a directory containing .hcl files.
    Omit it to run the built-in default flow with every analyst selected.

Options:
`)
		flagSet.PrintDefaults()
	}

	flowFlag := flagSet.String("flow", "", "Path to the flow file or directory.")
	fFlag := flagSet.String("f", "", "Path to the flow file or directory (shorthand).")
	flowIDFlag := flagSet.String("flow-id", "", "Id of a stored flow to load instead of a file.")
	databaseURLFlag := flagSet.String("database-url", os.Getenv("DATABASE_URL"), "PostgreSQL URL for stored flows.")
	tickersFlag := flagSet.String("tickers", "", "Comma-separated tickers, e.g. 'AAPL,NVDA'.")
	startDateFlag := flagSet.String("start-date", "", "Analysis window start (YYYY-MM-DD). Defaults to 90 days before end.")
	endDateFlag := flagSet.String("end-date", "", "Analysis window end (YYYY-MM-DD). Defaults to today.")
	modelFlag := flagSet.String("model", "", "Global model name for agents without an override.")
	providerFlag := flagSet.String("provider", "", "Provider of the global model.")
	baseURLFlag := flagSet.String("base-url", "http://localhost:8000", "Backend base URL.")
	tokenFlag := flagSet.String("token", os.Getenv("QUANTFLOW_TOKEN"), "Bearer token for authenticated backends.")
	outputDirFlag := flagSet.String("output-dir", "", "Directory for exported report artifacts. Empty disables export.")
	exportImageFlag := flagSet.Bool("export-image", false, "Also export the report as a PNG image.")
	historyDBFlag := flagSet.String("history-db", "", "SQLite file recording completed runs. Empty disables history.")
	logFormatFlag := flagSet.String("log-format", "text", "Log output format. Options: 'text' or 'json'.")
	logLevelFlag := flagSet.String("log-level", "info", "Set the logging level. Options: 'debug', 'info', 'warn', 'error'.")

	if err := flagSet.Parse(args); err != nil {
		if err == flag.ErrHelp {
			return nil, true, nil
		}
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}
	slog.Debug("Arguments parsed successfully.")

	path := ""
	if *flowFlag != "" {
		path = *flowFlag
	} else if *fFlag != "" {
		path = *fFlag
	} else if flagSet.NArg() > 0 {
		path = flagSet.Arg(0)
	}

	logFormat := strings.ToLower(*logFormatFlag)
	if logFormat != "text" && logFormat != "json" {
		return nil, false, &ExitError{Code: 2, Message: "invalid log-format: must be 'text' or 'json'"}
	}

	logLevel := strings.ToLower(*logLevelFlag)
	switch logLevel {
	case "debug", "info", "warn", "error":
		// valid
	default:
		return nil, false, &ExitError{Code: 2, Message: "invalid log-level: must be 'debug', 'info', 'warn', or 'error'"}
	}
	slog.Debug("CLI parameter validation complete.")

	config, err := app.NewConfig(app.Config{
		FlowPath:      path,
		FlowID:        *flowIDFlag,
		DatabaseURL:   *databaseURLFlag,
		Tickers:       *tickersFlag,
		StartDate:     *startDateFlag,
		EndDate:       *endDateFlag,
		ModelName:     *modelFlag,
		ModelProvider: *providerFlag,
		BaseURL:       *baseURLFlag,
		Token:         *tokenFlag,
		OutputDir:     *outputDirFlag,
		ExportImage:   *exportImageFlag,
		HistoryDB:     *historyDBFlag,
		LogFormat:     logFormat,
		LogLevel:      logLevel,
	})
	if err != nil {
		return nil, false, &ExitError{Code: 2, Message: err.Error()}
	}

	slog.Debug("CLI parser finished successfully.")
	return config, false, nil
}
