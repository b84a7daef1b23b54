package feed

import (
	"bytes"
	"encoding/json"
	"fmt"
	"io"
)

// Envelope names the top-level array holding the records of a payload.
type Envelope string

const (
	// EnvelopeValues is the `{"values": [...]}` shape of the rdata web services.
	EnvelopeValues Envelope = "values"
	// EnvelopeFeatures is a GeoJSON FeatureCollection.
	EnvelopeFeatures Envelope = "features"
)

// Record is one element of a feed payload, flattened with dotted keys
// (`properties.nom`, `geometry.coordinates`). Numbers are kept as json.Number.
// GeoJSON features also carry their raw geometry object under "geometry".
type Record map[string]any

// Has reports whether the record carries the key, even with a null value.
func (r Record) Has(key string) bool {
	_, ok := r[key]
	return ok
}

func decodeRecords(body io.Reader, env Envelope) ([]Record, error) {
	var top map[string]json.RawMessage
	if err := json.NewDecoder(body).Decode(&top); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrMalformedEnvelope, err)
	}
	raw, ok := top[string(env)]
	if !ok {
		return nil, fmt.Errorf("%w: missing %q array", ErrMalformedEnvelope, env)
	}
	var items []json.RawMessage
	if err := json.Unmarshal(raw, &items); err != nil {
		return nil, fmt.Errorf("%w: %q is not an array", ErrMalformedEnvelope, env)
	}

	records := make([]Record, 0, len(items))
	for i, item := range items {
		obj, err := decodeObject(item)
		if err != nil {
			return nil, fmt.Errorf("%w: element %d: %v", ErrMalformedEnvelope, i, err)
		}
		rec := make(Record, len(obj))
		flatten("", obj, rec)
		if env == EnvelopeFeatures {
			var feature struct {
				Geometry json.RawMessage `json:"geometry"`
			}
			if err := json.Unmarshal(item, &feature); err == nil && len(feature.Geometry) > 0 && string(feature.Geometry) != "null" {
				rec["geometry"] = feature.Geometry
			}
		}
		records = append(records, rec)
	}
	return records, nil
}

func decodeObject(raw json.RawMessage) (map[string]any, error) {
	dec := json.NewDecoder(bytes.NewReader(raw))
	dec.UseNumber()
	var obj map[string]any
	if err := dec.Decode(&obj); err != nil {
		return nil, err
	}
	if obj == nil {
		return nil, fmt.Errorf("not an object")
	}
	return obj, nil
}

func flatten(prefix string, obj map[string]any, out Record) {
	for k, v := range obj {
		key := k
		if prefix != "" {
			key = prefix + "." + k
		}
		if nested, ok := v.(map[string]any); ok && len(nested) > 0 {
			flatten(key, nested, out)
			continue
		}
		out[key] = v
	}
}
