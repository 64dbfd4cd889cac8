package report

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"
	"time"
)

// ExportJSON writes the pretty-printed payload. The output re-parses to an
// equivalent value; the indenter reformats whitespace inside raw reasoning
// fragments, so their bytes are JSON-equal rather than identical.
func ExportJSON(w io.Writer, data *OutputNodeData) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(data)
}

// ExportJSONFile writes the payload to a timestamped file in dir and
// returns the path, mirroring the "output-<timestamp>.json" download name.
func ExportJSONFile(dir string, data *OutputNodeData, now time.Time) (string, error) {
	stamp := strings.ReplaceAll(now.UTC().Format("2006-01-02T15:04:05"), ":", "-")
	path := fmt.Sprintf("%s/output-%s.json", dir, stamp)
	f, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("report: create export file: %w", err)
	}
	defer f.Close()
	if err := ExportJSON(f, data); err != nil {
		return "", fmt.Errorf("report: write export file: %w", err)
	}
	return path, nil
}
