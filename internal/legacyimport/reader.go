// internal/legacyimport/reader.go
package legacyimport

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"

	"paperless-workers/internal/common/logger"
)

type Summary struct {
	Files   int `json:"files"`
	Written int `json:"written"`
	Skipped int `json:"skipped"`
}

// Decode reads one archive record. Numbers are kept as json.Number.
func Decode(r io.Reader) (Record, error) {
	dec := json.NewDecoder(r)
	dec.UseNumber()
	var rec Record
	if err := dec.Decode(&rec); err != nil {
		return nil, err
	}
	return rec, nil
}

// ConvertDir maps every *.json file in dir, sorted by name, and writes one
// JSON line per record to w. Unreadable files are logged and skipped.
func ConvertDir(dir string, w io.Writer, log logger.Logger) (*Summary, error) {
	files, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", dir, err)
	}
	sort.Strings(files)

	sum := &Summary{Files: len(files)}
	enc := json.NewEncoder(w)
	enc.SetEscapeHTML(false)

	for _, path := range files {
		mapped, err := convertFile(path)
		if err != nil {
			sum.Skipped++
			log.Warn("skipping archive record", map[string]interface{}{
				"file":  filepath.Base(path),
				"error": err.Error(),
			})
			continue
		}
		if err := enc.Encode(mapped); err != nil {
			return sum, fmt.Errorf("write record from %s: %w", filepath.Base(path), err)
		}
		sum.Written++
	}
	return sum, nil
}

func convertFile(path string) (Record, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	// Windows exports start with a byte order mark.
	raw = bytes.TrimPrefix(raw, []byte("\xef\xbb\xbf"))

	rec, err := Decode(bytes.NewReader(raw))
	if err != nil {
		return nil, err
	}
	return Map(rec)
}
