// Package parser turns a plugin's raw stdout into rows (a map of column
// name to string value) without any domain knowledge of what the
// columns mean. It implements the structured-preferred, tabular-fallback
// contract: the driver calls ParseStructured first and only falls back
// to ParseTabular when the structured path does not apply.
package parser

import (
	"bufio"
	"encoding/json"
	"fmt"
	"strings"
)

// MaxRows bounds how many rows a single plugin invocation may contribute.
// Beyond this the caller truncates and records a warning (row_limit_exceeded).
const MaxRows = 10000

// ParseStructured attempts to interpret stdout as a JSON document whose
// top-level object carries a list of records under "rows" or "data".
// It returns ok=false (not an error) whenever the structured path does
// not apply, so the driver can fall back to ParseTabular without
// treating the mismatch as a failure.
func ParseStructured(stdout []byte) (rows []map[string]string, ok bool) {
	trimmed := strings.TrimSpace(string(stdout))
	if trimmed == "" {
		return nil, false
	}

	var doc map[string]interface{}
	if err := json.Unmarshal([]byte(trimmed), &doc); err != nil {
		// Some renderers emit a bare JSON array instead of {"rows": [...]}.
		var arr []interface{}
		if err := json.Unmarshal([]byte(trimmed), &arr); err != nil {
			return nil, false
		}
		return stringifyRows(arr), true
	}

	for _, key := range []string{"rows", "data"} {
		raw, present := doc[key]
		if !present {
			continue
		}
		list, isList := raw.([]interface{})
		if !isList {
			continue
		}
		return stringifyRows(list), true
	}
	return nil, false
}

func stringifyRows(list []interface{}) []map[string]string {
	rows := make([]map[string]string, 0, len(list))
	for _, elem := range list {
		record, ok := elem.(map[string]interface{})
		if !ok {
			continue
		}
		row := make(map[string]string, len(record))
		for k, v := range record {
			row[k] = stringifyValue(v)
		}
		rows = append(rows, row)
	}
	return rows
}

func stringifyValue(v interface{}) string {
	switch val := v.(type) {
	case string:
		return val
	case nil:
		return ""
	case json.Number:
		return val.String()
	default:
		return fmt.Sprintf("%v", val)
	}
}

// ParseTabular parses stdout as tab-delimited tabular text. The first
// non-empty line is the header; it is split on tabs, and on runs of
// whitespace only when the tab split yields no field, so a header line
// without tabs is a single column. A data line whose tab split does not
// match the header count is re-split on runs of whitespace; a line that
// still does not match degrades to a synthetic "raw" row rather than
// being dropped, so every data line becomes some row. Input with fewer
// than two non-empty lines yields nil.
func ParseTabular(stdout string) []map[string]string {
	var lines []string
	scanner := bufio.NewScanner(strings.NewReader(stdout))
	scanner.Buffer(make([]byte, 0, 64*1024), 10*1024*1024)
	for scanner.Scan() {
		line := scanner.Text()
		if strings.TrimSpace(line) == "" {
			continue
		}
		lines = append(lines, line)
	}
	if len(lines) < 2 {
		return nil
	}

	headers := splitTabNonEmpty(lines[0])
	if len(headers) == 0 {
		headers = strings.Fields(lines[0])
	}
	if len(headers) == 0 {
		return nil
	}

	rows := make([]map[string]string, 0, len(lines)-1)
	for _, line := range lines[1:] {
		values := splitTabRaw(line)
		if len(values) != len(headers) {
			values = strings.Fields(line)
		}
		if len(values) == len(headers) {
			row := make(map[string]string, len(headers))
			for i, h := range headers {
				row[h] = strings.TrimSpace(values[i])
			}
			rows = append(rows, row)
			continue
		}

		// Degenerate row: pair up whatever prefix fields line up and
		// keep the whole line under "raw" so no information is lost.
		row := map[string]string{"raw": line}
		for i := 0; i < len(headers) && i < len(values); i++ {
			row[headers[i]] = strings.TrimSpace(values[i])
		}
		rows = append(rows, row)
	}
	return rows
}

// splitTabNonEmpty is used for the header line: blank tab-separated
// segments are dropped, matching the reference tool's header handling.
func splitTabNonEmpty(line string) []string {
	parts := strings.Split(line, "\t")
	var out []string
	for _, p := range parts {
		if trimmed := strings.TrimSpace(p); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

// splitTabRaw is used for data lines: every tab-separated segment is
// kept (including empties) so column position stays aligned with the
// header count before falling back to whitespace splitting.
func splitTabRaw(line string) []string {
	parts := strings.Split(line, "\t")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

// Truncate caps rows at MaxRows, returning the possibly-truncated slice
// and whether truncation occurred (row_limit_exceeded).
func Truncate(rows []map[string]string) (truncated []map[string]string, limitExceeded bool) {
	if len(rows) <= MaxRows {
		return rows, false
	}
	return rows[:MaxRows], true
}
