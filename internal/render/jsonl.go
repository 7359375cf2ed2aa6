package render

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/cdtdelta/plaso-core/internal/event"
)

// JSONLRenderer writes one JSON object per line, the format
// `original_source/output/rawpy.py`'s ad hoc per-event renderer
// grounds as the simplest possible baseline before the
// formatter-registry renderers existed.
type JSONLRenderer struct {
	w   io.Writer
	enc *json.Encoder
}

type jsonlRecord struct {
	Timestamp     int64                  `json:"timestamp"`
	TimestampDesc string                 `json:"timestamp_desc"`
	DataType      string                 `json:"data_type"`
	Parser        string                 `json:"parser"`
	Attributes    map[string]interface{} `json:"attributes"`
}

func (r *JSONLRenderer) Start(w io.Writer) error {
	r.w = w
	r.enc = json.NewEncoder(w)
	return nil
}

func (r *JSONLRenderer) WriteEvent(ev *event.Event) error {
	attrs := make(map[string]interface{}, len(ev.Attributes))
	for k, v := range ev.Attributes {
		attrs[k] = valueToJSON(v)
	}
	rec := jsonlRecord{
		Timestamp:     ev.Timestamp,
		TimestampDesc: ev.TimestampDesc,
		DataType:      ev.DataType,
		Parser:        ev.Parser,
		Attributes:    attrs,
	}
	if err := r.enc.Encode(rec); err != nil {
		return fmt.Errorf("render: jsonl: %w", err)
	}
	return nil
}

func (r *JSONLRenderer) End() error { return nil }

func valueToJSON(v event.Value) interface{} {
	switch v.Kind {
	case event.KindNull:
		return nil
	case event.KindString:
		return v.Str
	case event.KindInt:
		return v.Int
	case event.KindFloat:
		return v.Flt
	case event.KindBool:
		return v.Bool
	case event.KindList:
		out := make([]interface{}, len(v.List))
		for i, e := range v.List {
			out[i] = valueToJSON(e)
		}
		return out
	case event.KindMap:
		out := make(map[string]interface{}, len(v.Map))
		for k, e := range v.Map {
			out[k] = valueToJSON(e)
		}
		return out
	}
	return nil
}
