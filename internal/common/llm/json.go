// internal/common/llm/json.go
package llm

import (
	"encoding/json"
	"io"
	"regexp"
	"strings"
)

const (
	MsgNotJSON      = "The content is not in JSON format"
	msgDecodePrefix = "Error on decode JSON: "
)

var jsonSpan = regexp.MustCompile(`(?s)\{.*\}`)

// ExtractJSON pulls the outermost brace span out of a model answer and
// pretty-prints it. When ok is false, the returned string is the message
// stored in place of the JSON.
func ExtractJSON(resp string) (string, bool) {
	span := jsonSpan.FindString(resp)
	if span == "" {
		return MsgNotJSON, false
	}

	// Numbers stay json.Number so long invoice numbers survive unchanged.
	dec := json.NewDecoder(strings.NewReader(span))
	dec.UseNumber()

	var data interface{}
	if err := dec.Decode(&data); err != nil {
		return msgDecodePrefix + err.Error(), false
	}
	if _, err := dec.Token(); err != io.EOF {
		if err == nil {
			return msgDecodePrefix + "unexpected data after top-level value", false
		}
		return msgDecodePrefix + err.Error(), false
	}

	pretty, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return msgDecodePrefix + err.Error(), false
	}
	return string(pretty), true
}
