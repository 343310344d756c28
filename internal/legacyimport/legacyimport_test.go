package legacyimport

import (
	"bufio"
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"paperless-workers/internal/common/logger"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const archiveRecord = `{
  "BelegDatum": "2019-02-28",
  "BelegNr": "05142346",
  "isHidden": false,
  "Richtung": "eingehend",
  "Belegart": "Rechnung",
  "Erlöskonto": "3400",
  "Ust": 19.38,
  "NettoBeleg": "102,00",
  "AdressName": "Bürobedarf Müller",
  "UID": "a1b2",
  "Unmapped": "ignored"
}`

func decode(t *testing.T, s string) Record {
	rec, err := Decode(strings.NewReader(s))
	require.NoError(t, err)
	return rec
}

// ==========================
// Map
// ==========================

func TestMap(t *testing.T) {
	out, err := Map(decode(t, archiveRecord))
	require.NoError(t, err)

	assert.Equal(t, TypeIncoming, out["Type"])
	assert.Equal(t, "2019-02-28", out["Belegdatum"])
	assert.Equal(t, "05142346", out["Belegnummer"])
	assert.Equal(t, false, out["Ausgeblendet"])
	assert.Equal(t, "3400", out["Konto"])
	assert.Equal(t, "Bürobedarf Müller", out["Adress-Name"])
	assert.Equal(t, "a1b2", out["Inoxision UID"])

	assert.True(t, decimal.RequireFromString("19.38").Equal(out["Steuer-Betrag"].(decimal.Decimal)))
	assert.True(t, decimal.RequireFromString("102").Equal(out["Netto-Betrag"].(decimal.Decimal)))

	assert.NotContains(t, out, "Zahlstatus")
	assert.NotContains(t, out, "Unmapped")
}

func TestMap_DocumentType(t *testing.T) {
	tests := []struct {
		name      string
		direction string
		kind      string
		want      string
	}{
		{"incoming invoice", "eingehend", "Rechnung", TypeIncoming},
		{"outgoing invoice", "ausgehend", "Rechnung", TypeOutgoing},
		{"incoming letter", "eingehend", "Brief", ""},
		{"unknown direction", "intern", "Rechnung", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, err := Map(Record{"Richtung": tt.direction, "Belegart": tt.kind})
			require.NoError(t, err)
			if tt.want == "" {
				assert.NotContains(t, out, TypeField)
				return
			}
			assert.Equal(t, tt.want, out[TypeField])
		})
	}
}

func TestMap_BadAmount(t *testing.T) {
	_, err := Map(Record{"Ust": "n/a"})
	assert.ErrorContains(t, err, "Ust")
}

// ==========================
// ConvertDir
// ==========================

func TestConvertDir(t *testing.T) {
	dir := t.TempDir()
	write := func(name, body string) {
		require.NoError(t, os.WriteFile(filepath.Join(dir, name), []byte(body), 0o600))
	}
	write("b.json", `{"BelegNr": "2", "Richtung": "ausgehend", "Belegart": "Rechnung"}`)
	write("a.json", "\xef\xbb\xbf"+`{"BelegNr": "1"}`)
	write("broken.json", `{"BelegNr": `)
	write("notes.txt", `ignored`)

	var buf bytes.Buffer
	sum, err := ConvertDir(dir, &buf, logger.NewTestLogger(t))
	require.NoError(t, err)

	assert.Equal(t, &Summary{Files: 3, Written: 2, Skipped: 1}, sum)

	var lines []map[string]interface{}
	sc := bufio.NewScanner(&buf)
	for sc.Scan() {
		var m map[string]interface{}
		require.NoError(t, json.Unmarshal(sc.Bytes(), &m))
		lines = append(lines, m)
	}
	require.Len(t, lines, 2)
	assert.Equal(t, "1", lines[0]["Belegnummer"])
	assert.Equal(t, "2", lines[1]["Belegnummer"])
	assert.Equal(t, TypeOutgoing, lines[1]["Type"])
}
