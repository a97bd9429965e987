package model

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Attrs holds the payload fields this service does not interpret. They are
// kept verbatim so a read-modify-write never drops data written by other clients.
type Attrs map[string]json.RawMessage

func (a Attrs) clone() Attrs {
	if len(a) == 0 {
		return nil
	}
	out := make(Attrs, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// decodeObject unmarshals the named fields of a JSON object into their
// destinations and returns whatever is left over.
func decodeObject(data []byte, known map[string]any) (Attrs, error) {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	for name, dst := range known {
		raw, ok := fields[name]
		if !ok {
			continue
		}
		delete(fields, name)
		if isNull(raw) {
			continue
		}
		if err := json.Unmarshal(raw, dst); err != nil {
			return nil, fmt.Errorf("field %q: %w", name, err)
		}
	}
	if len(fields) == 0 {
		return nil, nil
	}
	return fields, nil
}

// encodeObject writes attrs and known as one JSON object; known wins on key clashes.
func encodeObject(attrs Attrs, known map[string]any) ([]byte, error) {
	out := make(map[string]any, len(attrs)+len(known))
	for k, v := range attrs {
		out[k] = v
	}
	for k, v := range known {
		out[k] = v
	}
	return json.Marshal(out)
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}
