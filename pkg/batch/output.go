package batch

import (
	"bytes"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/natefinch/atomic"
)

// ResultSet holds one generated string per processed document, in
// processing order.
type ResultSet []string

// WriteResults writes results to path as an indented JSON array of strings.
// Non-ASCII text and HTML characters are written as-is. The file is replaced
// atomically, so readers never see a partial result; missing parent
// directories are created.
func WriteResults(path string, results ResultSet) error {
	if results == nil {
		results = ResultSet{}
	}

	var buf bytes.Buffer
	encoder := json.NewEncoder(&buf)
	encoder.SetIndent("", "    ")
	encoder.SetEscapeHTML(false)
	if err := encoder.Encode(results); err != nil {
		return fmt.Errorf("failed to encode results: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create output directory: %w", err)
	}
	if err := atomic.WriteFile(path, bytes.NewReader(unescapeLineSeparators(buf.Bytes()))); err != nil {
		return fmt.Errorf("failed to write results: %w", err)
	}
	return nil
}

// unescapeLineSeparators undoes the \u2028 and \u2029 escapes that
// encoding/json always emits, so every non-ASCII character is written raw.
// Other escape sequences are copied through untouched.
func unescapeLineSeparators(data []byte) []byte {
	out := make([]byte, 0, len(data))
	for i := 0; i < len(data); i++ {
		if data[i] != '\\' || i+1 >= len(data) {
			out = append(out, data[i])
			continue
		}
		if rest := data[i:]; bytes.HasPrefix(rest, []byte(`\u2028`)) || bytes.HasPrefix(rest, []byte(`\u2029`)) {
			if rest[5] == '8' {
				out = append(out, "\u2028"...)
			} else {
				out = append(out, "\u2029"...)
			}
			i += 5
			continue
		}
		out = append(out, data[i], data[i+1])
		i++
	}
	return out
}
