package result

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"strconv"

	"gopkg.in/yaml.v2"
)

// WriteJSON writes the full report as indented JSON.
func WriteJSON(w io.Writer, report *Report) error {
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)
	enc.SetIndent("", "  ")
	if err := enc.Encode(report); err != nil {
		return fmt.Errorf("write json output: %w", err)
	}
	return nil
}

// WriteYAML writes the full report as a YAML document.
func WriteYAML(w io.Writer, report *Report) error {
	data, err := yaml.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal yaml output: %w", err)
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("write yaml output: %w", err)
	}
	return nil
}

// WriteCSV writes one row per failing URL: non-200 statuses first, then
// unreachable URLs, each in input order.
// Always includes a header row, even if nothing failed.
// Column order: url, status_code, error_type, error
func WriteCSV(w io.Writer, report *Report) error {
	cw := csv.NewWriter(w)

	header := []string{"url", "status_code", "error_type", "error"}
	if err := cw.Write(header); err != nil {
		return fmt.Errorf("write csv header: %w", err)
	}

	if report != nil {
		for _, rec := range report.Errors {
			row := []string{rec.URL, statusCodeStr(rec.StatusCode), string(StatusCategory(rec.StatusCode)), ""}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv record for %s: %w", rec.URL, err)
			}
		}
		for _, failure := range report.Unreachable {
			row := []string{failure.URL, "", string(failure.ErrorCategory), failure.Error}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("write csv record for %s: %w", failure.URL, err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return fmt.Errorf("flush csv output: %w", err)
	}
	return nil
}

// statusCodeStr converts an HTTP status code to a string.
// Returns empty string for 0 (no HTTP status).
func statusCodeStr(code int) string {
	if code == 0 {
		return ""
	}
	return strconv.Itoa(code)
}
