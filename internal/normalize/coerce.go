package normalize

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/paulmach/orb"
	"github.com/paulmach/orb/geojson"
)

// Coercer converts a raw field value into its normalized type.
type Coercer func(v any) (any, error)

var (
	errNotText    = errors.New("not a text value")
	errNotNumber  = errors.New("not a number")
	errNotInteger = errors.New("not an integer")
	errOutOfRange = errors.New("out of range")
)

// String accepts text, numbers and booleans.
func String(v any) (any, error) {
	switch t := v.(type) {
	case string:
		return t, nil
	case json.Number:
		return t.String(), nil
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64), nil
	case int64:
		return strconv.FormatInt(t, 10), nil
	case bool:
		return strconv.FormatBool(t), nil
	default:
		return nil, errNotText
	}
}

// TrimmedString is String without surrounding blanks.
func TrimmedString(v any) (any, error) {
	s, err := String(v)
	if err != nil {
		return nil, err
	}
	return strings.TrimSpace(s.(string)), nil
}

func toFloat(v any) (float64, error) {
	var f float64
	var err error
	switch t := v.(type) {
	case float64:
		f = t
	case int64:
		f = float64(t)
	case json.Number:
		f, err = t.Float64()
	case string:
		f, err = strconv.ParseFloat(strings.TrimSpace(t), 64)
	default:
		return 0, errNotNumber
	}
	if err != nil {
		return 0, errNotNumber
	}
	if math.IsNaN(f) || math.IsInf(f, 0) {
		return 0, errNotNumber
	}
	return f, nil
}

// Float returns a finite float64.
func Float(v any) (any, error) {
	return toFloat(v)
}

// Int returns an int64. Integral decimals ("12.0") are accepted, fractions are not.
func Int(v any) (any, error) {
	if n, ok := v.(json.Number); ok {
		if i, err := n.Int64(); err == nil {
			return i, nil
		}
	}
	if s, ok := v.(string); ok {
		if i, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return i, nil
		}
	}
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	if f != math.Trunc(f) {
		return nil, errNotInteger
	}
	return int64(f), nil
}

// Latitude returns degrees within [-90, 90].
func Latitude(v any) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	if f < -90 || f > 90 {
		return nil, errOutOfRange
	}
	return f, nil
}

// Longitude returns degrees within [-180, 180].
func Longitude(v any) (any, error) {
	f, err := toFloat(v)
	if err != nil {
		return nil, err
	}
	if f < -180 || f > 180 {
		return nil, errOutOfRange
	}
	return f, nil
}

// Position converts a GeoJSON [lng, lat] pair into an orb.Point.
func Position(v any) (any, error) {
	pair, ok := v.([]any)
	if !ok || len(pair) < 2 {
		return nil, fmt.Errorf("expected [lng, lat], got %T", v)
	}
	lng, err := Longitude(pair[0])
	if err != nil {
		return nil, err
	}
	lat, err := Latitude(pair[1])
	if err != nil {
		return nil, err
	}
	return orb.Point{lng.(float64), lat.(float64)}, nil
}

// Geometry decodes a GeoJSON geometry object.
func Geometry(v any) (any, error) {
	var data []byte
	switch t := v.(type) {
	case json.RawMessage:
		data = t
	case []byte:
		data = t
	case string:
		data = []byte(t)
	case map[string]any:
		b, err := json.Marshal(t)
		if err != nil {
			return nil, err
		}
		data = b
	default:
		return nil, fmt.Errorf("unexpected geometry %T", v)
	}
	g, err := geojson.UnmarshalGeometry(data)
	if err != nil {
		return nil, err
	}
	geom := g.Geometry()
	if c, ok := geom.(orb.Collection); geom == nil || (ok && len(c) == 0) {
		return nil, errors.New("empty geometry")
	}
	return geom, nil
}

// Time parses a timestamp into Paris time.
func Time(v any) (any, error) {
	switch t := v.(type) {
	case time.Time:
		return t.In(Paris), nil
	case string:
		s := strings.TrimSpace(t)
		if s == "" {
			return nil, errNotText
		}
		return ParseTime(s)
	default:
		return nil, errNotText
	}
}

// Bool accepts booleans, "true"/"false"/"1"/"0" and 0/1.
func Bool(v any) (any, error) {
	switch t := v.(type) {
	case bool:
		return t, nil
	case string:
		b, err := strconv.ParseBool(strings.TrimSpace(t))
		if err != nil {
			return nil, err
		}
		return b, nil
	case json.Number:
		i, err := t.Int64()
		if err != nil || (i != 0 && i != 1) {
			return nil, errOutOfRange
		}
		return i == 1, nil
	default:
		return nil, errNotText
	}
}

// Enum maps text values through mapping. Unknown values become fallback, or an
// error when fallback is empty.
func Enum(mapping map[string]string, fallback string) Coercer {
	return func(v any) (any, error) {
		s, err := TrimmedString(v)
		if err != nil {
			return nil, err
		}
		if out, ok := mapping[s.(string)]; ok {
			return out, nil
		}
		if fallback != "" {
			return fallback, nil
		}
		return nil, fmt.Errorf("unknown value %q", s)
	}
}

// Remap replaces the values listed in mapping and keeps the others.
func Remap(mapping map[string]string) Coercer {
	return func(v any) (any, error) {
		s, err := TrimmedString(v)
		if err != nil {
			return nil, err
		}
		if out, ok := mapping[s.(string)]; ok {
			return out, nil
		}
		return s, nil
	}
}

// Default returns value for null, missing or blank inputs and defers to c otherwise.
func Default(value any, c Coercer) Coercer {
	return func(v any) (any, error) {
		if v == nil {
			return value, nil
		}
		if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
			return value, nil
		}
		return c(v)
	}
}
