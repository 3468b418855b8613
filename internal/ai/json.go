package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"reflect"
	"regexp"
	"strconv"
	"strings"

	"github.com/mitchellh/mapstructure"
)

var leadingNumber = regexp.MustCompile(`-?\d+(?:\.\d+)?`)

// ExtractJSON strips code fences and surrounding prose from a model answer.
func ExtractJSON(raw string) string {
	raw = strings.TrimSpace(raw)
	if strings.HasPrefix(raw, "```") {
		raw = strings.TrimPrefix(raw, "```json")
		raw = strings.TrimPrefix(raw, "```")
		raw = strings.TrimSpace(raw)
		if idx := strings.LastIndex(raw, "```"); idx != -1 {
			raw = raw[:idx]
		}
	}
	raw = strings.Trim(raw, "`")
	raw = strings.TrimSpace(raw)

	start := strings.Index(raw, "{")
	end := strings.LastIndex(raw, "}")
	if start != -1 && end > start {
		raw = raw[start : end+1]
	}
	return raw
}

// ParseObject decodes the first JSON object found in raw.
func ParseObject(raw string) (map[string]any, error) {
	cleaned := ExtractJSON(raw)
	if cleaned == "" {
		return nil, ErrEmptyResponse
	}

	var data map[string]any
	if err := json.Unmarshal([]byte(cleaned), &data); err != nil {
		return nil, fmt.Errorf("parse model response: %w", err)
	}
	if data == nil {
		return nil, errors.New("parse model response: not a json object")
	}
	return data, nil
}

// Decode parses raw model output into out, tolerating loosely typed values
// such as numbers given as strings or lists given as comma separated text.
func Decode(raw string, out any) error {
	data, err := ParseObject(raw)
	if err != nil {
		return err
	}
	return DecodeMap(data, out)
}

// DecodeMap decodes a generic map into out using mapstructure tags.
func DecodeMap(data map[string]any, out any) error {
	decoder, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		WeaklyTypedInput: true,
		Result:           out,
		DecodeHook: mapstructure.ComposeDecodeHookFunc(
			lenientNumberHook,
			flattenToStringHook,
			splitListHook,
		),
	})
	if err != nil {
		return fmt.Errorf("create decoder: %w", err)
	}
	if err := decoder.Decode(data); err != nil {
		return fmt.Errorf("decode model response: %w", err)
	}
	return nil
}

func lenientNumberHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String {
		return data, nil
	}
	switch to.Kind() {
	case reflect.Float32, reflect.Float64, reflect.Int, reflect.Int32, reflect.Int64:
		s, _ := data.(string)
		match := leadingNumber.FindString(s)
		if match == "" {
			return 0, nil
		}
		return match, nil
	}
	return data, nil
}

func flattenToStringHook(from, to reflect.Type, data any) (any, error) {
	if to.Kind() != reflect.String {
		return data, nil
	}
	switch from.Kind() {
	case reflect.Map, reflect.Slice:
		return CoerceString(data), nil
	}
	return data, nil
}

func splitListHook(from, to reflect.Type, data any) (any, error) {
	if from.Kind() != reflect.String || to.Kind() != reflect.Slice || to.Elem().Kind() != reflect.String {
		return data, nil
	}
	s, _ := data.(string)
	parts := strings.Split(s, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out, nil
}

// CoerceFloat converts a loosely typed JSON value to a float, NaN when impossible.
func CoerceFloat(v any) float64 {
	switch val := v.(type) {
	case float64:
		return val
	case int:
		return float64(val)
	case json.Number:
		f, err := val.Float64()
		if err != nil {
			return math.NaN()
		}
		return f
	case string:
		match := leadingNumber.FindString(strings.TrimSpace(val))
		if match == "" {
			return math.NaN()
		}
		f, err := strconv.ParseFloat(match, 64)
		if err != nil {
			return math.NaN()
		}
		return f
	default:
		return math.NaN()
	}
}

// CoerceString converts a loosely typed JSON value to a string.
func CoerceString(v any) string {
	switch val := v.(type) {
	case string:
		return strings.TrimSpace(val)
	case fmt.Stringer:
		return strings.TrimSpace(val.String())
	default:
		if v == nil {
			return ""
		}
		bytes, err := json.Marshal(v)
		if err != nil {
			return fmt.Sprintf("%v", v)
		}
		return string(bytes)
	}
}
