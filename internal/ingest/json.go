package ingest

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"

	"github.com/andresuchdata/salescast/backend-go/internal/dataset"
)

// ParseJSON accepts an array of objects, an object holding such an array under any key (the first
// one wins), or a single object treated as one row. Columns keep first-seen key order.
func ParseJSON(r io.Reader) (dataset.Table, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return dataset.Table{}, err
	}
	data = bytes.TrimSpace(bytes.TrimPrefix(data, []byte("\xef\xbb\xbf")))
	if len(data) == 0 {
		return dataset.Table{}, ErrNoRows
	}

	switch data[0] {
	case '[':
		return tableFromArray(data)
	case '{':
		obj, err := decodeObject(data)
		if err != nil {
			return dataset.Table{}, err
		}
		for _, k := range obj.keys {
			raw := bytes.TrimSpace(obj.raw[k])
			if len(raw) > 0 && raw[0] == '[' {
				return tableFromArray(raw)
			}
		}
		return tableFromObjects([]orderedObject{obj}), nil
	default:
		return dataset.Table{}, fmt.Errorf("expected a JSON array or object")
	}
}

func tableFromArray(data []byte) (dataset.Table, error) {
	var items []json.RawMessage
	if err := json.Unmarshal(data, &items); err != nil {
		return dataset.Table{}, fmt.Errorf("failed to decode JSON array: %w", err)
	}
	if len(items) == 0 {
		return dataset.Table{}, ErrNoRows
	}

	objs := make([]orderedObject, 0, len(items))
	for i, item := range items {
		obj, err := decodeObject(item)
		if err != nil {
			return dataset.Table{}, fmt.Errorf("element %d: %w", i, err)
		}
		objs = append(objs, obj)
	}
	return tableFromObjects(objs), nil
}

func tableFromObjects(objs []orderedObject) dataset.Table {
	var t dataset.Table
	index := map[string]int{}
	for _, o := range objs {
		for _, k := range o.keys {
			if _, ok := index[k]; !ok {
				index[k] = len(t.Columns)
				t.Columns = append(t.Columns, k)
			}
		}
	}
	for _, o := range objs {
		row := make([]string, len(t.Columns))
		for _, k := range o.keys {
			row[index[k]] = jsonText(o.raw[k])
		}
		t.Rows = append(t.Rows, row)
	}
	return t
}

type orderedObject struct {
	keys []string
	raw  map[string]json.RawMessage
}

// decodeObject reads a JSON object keeping its key order.
func decodeObject(data []byte) (orderedObject, error) {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return orderedObject{}, err
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return orderedObject{}, fmt.Errorf("expected JSON object")
	}

	obj := orderedObject{raw: map[string]json.RawMessage{}}
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return orderedObject{}, err
		}
		key, ok := tok.(string)
		if !ok {
			return orderedObject{}, fmt.Errorf("expected object key")
		}
		var v json.RawMessage
		if err := dec.Decode(&v); err != nil {
			return orderedObject{}, err
		}
		if _, dup := obj.raw[key]; !dup {
			obj.keys = append(obj.keys, key)
		}
		obj.raw[key] = v
	}
	return obj, nil
}

// jsonText renders a scalar as a cell value. Strings are unquoted, null is empty, numbers and
// nested values keep their JSON text.
func jsonText(raw json.RawMessage) string {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	if raw[0] == '"' {
		var s string
		if err := json.Unmarshal(raw, &s); err == nil {
			return s
		}
	}
	return string(raw)
}
