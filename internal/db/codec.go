package db

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"

	"github.com/mono-yamamoto/Chumo-task-management-tool-sub000/internal/docstore"
)

// timeKey marks an encoded timestamp so it decodes back to time.Time
// rather than a string.
const timeKey = "__time__"

// Encode serializes fields to JSON.
func Encode(fields docstore.Fields) (string, error) {
	if fields == nil {
		fields = docstore.Fields{}
	}
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		out[k] = encodeValue(v)
	}
	b, err := json.Marshal(out)
	if err != nil {
		return "", fmt.Errorf("encode document: %w", err)
	}
	return string(b), nil
}

// Decode parses JSON produced by Encode. Integral numbers decode to int64,
// others to float64.
func Decode(data string) (docstore.Fields, error) {
	dec := json.NewDecoder(bytes.NewReader([]byte(data)))
	dec.UseNumber()
	var raw map[string]any
	if err := dec.Decode(&raw); err != nil {
		return nil, fmt.Errorf("decode document: %w", err)
	}
	fields := make(docstore.Fields, len(raw))
	for k, v := range raw {
		fields[k] = decodeValue(v)
	}
	return fields, nil
}

func encodeValue(v any) any {
	switch val := v.(type) {
	case time.Time:
		return map[string]string{timeKey: val.UTC().Format(time.RFC3339Nano)}
	case *time.Time:
		if val == nil {
			return nil
		}
		return encodeValue(*val)
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = encodeValue(item)
		}
		return out
	default:
		return v
	}
}

func decodeValue(v any) any {
	switch val := v.(type) {
	case json.Number:
		if n, err := val.Int64(); err == nil {
			return n
		}
		f, _ := val.Float64()
		return f
	case map[string]any:
		if len(val) == 1 {
			if s, ok := val[timeKey].(string); ok {
				if t, err := time.Parse(time.RFC3339Nano, s); err == nil {
					return t
				}
			}
		}
		out := make(map[string]any, len(val))
		for k, item := range val {
			out[k] = decodeValue(item)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, item := range val {
			out[i] = decodeValue(item)
		}
		return out
	default:
		return v
	}
}
