package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io"
	"strings"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// jsonlRecord mirrors internal/render's JSONLRenderer output shape
// exactly; readJSONL is that renderer's read direction, in the same
// spirit as the teacher's jsonlparser.go mapRawToEvent but against our
// own self-describing wire shape rather than Plaso's ambiguous
// raw-storage-vs-psort JSON variants.
type jsonlRecord struct {
	Timestamp     int64                  `json:"timestamp"`
	TimestampDesc string                 `json:"timestamp_desc"`
	DataType      string                 `json:"data_type"`
	Parser        string                 `json:"parser"`
	Attributes    map[string]interface{} `json:"attributes"`
}

// readJSONL parses one event.Event per line. A line that is not valid
// JSON for the record shape is skipped rather than aborting
// the whole import, matching jsonlparser.go's ReadEvents tolerance for
// malformed rows (its "Excluded" counter).
func readJSONL(r io.Reader) ([]*event.Event, error) {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 1<<20), 10<<20)

	var events []*event.Event
	lineNum := 0
	for sc.Scan() {
		lineNum++
		line := strings.TrimSpace(sc.Text())
		if line == "" {
			continue
		}

		var rec jsonlRecord
		if err := json.Unmarshal([]byte(line), &rec); err != nil {
			continue
		}

		ev := event.New(rec.Timestamp, rec.TimestampDesc, rec.DataType, rec.Parser)
		for k, v := range rec.Attributes {
			ev.Set(k, jsonToValue(v))
		}
		events = append(events, ev)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading line %d: %w", lineNum, err)
	}
	return events, nil
}

// jsonToValue converts a decoded JSON value back into an
// internal/event.Value, the inverse of render.valueToJSON.
func jsonToValue(v interface{}) event.Value {
	switch t := v.(type) {
	case nil:
		return event.Value{}
	case string:
		return event.String(t)
	case float64:
		if t == float64(int64(t)) {
			return event.Int(int64(t))
		}
		return event.Float(t)
	case bool:
		return event.Bool(t)
	case []interface{}:
		list := make([]event.Value, len(t))
		for i, e := range t {
			list[i] = jsonToValue(e)
		}
		return event.List(list)
	case map[string]interface{}:
		m := make(map[string]event.Value, len(t))
		for k, e := range t {
			m[k] = jsonToValue(e)
		}
		return event.Map(m)
	default:
		return event.Value{}
	}
}
