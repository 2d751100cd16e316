package ai

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"
)

var errNotObject = errors.New("completion is not a JSON object")

// object is a decoded JSON object whose fields are read lazily, each with
// its own fallback, so one malformed field does not discard the rest.
type object map[string]json.RawMessage

// cleanModelJSON strips Markdown code fences that models add despite being
// asked not to.
func cleanModelJSON(raw string) string {
	s := strings.TrimSpace(raw)
	if strings.HasPrefix(s, "```") {
		if idx := strings.Index(s, "\n"); idx != -1 {
			s = s[idx+1:]
		} else {
			s = strings.TrimPrefix(s, "```")
		}
		s = strings.TrimSuffix(strings.TrimSpace(s), "```")
	}
	return strings.TrimSpace(s)
}

func decodeObject(raw string) (object, error) {
	var o object
	if err := json.Unmarshal([]byte(cleanModelJSON(raw)), &o); err != nil {
		return nil, fmt.Errorf("%w: %v", errNotObject, err)
	}
	if o == nil {
		return nil, errNotObject
	}
	return o, nil
}

// decodeList accepts either a bare JSON array or an object wrapping the
// array under key.
func decodeList(raw, key string) ([]json.RawMessage, error) {
	clean := cleanModelJSON(raw)
	var list []json.RawMessage
	if err := json.Unmarshal([]byte(clean), &list); err == nil {
		return list, nil
	}
	o, err := decodeObject(clean)
	if err != nil {
		return nil, err
	}
	if len(o[key]) == 0 {
		return nil, nil
	}
	if err := json.Unmarshal(o[key], &list); err != nil {
		return nil, fmt.Errorf("field %q is not a list: %w", key, err)
	}
	return list, nil
}

// str returns a trimmed, non-empty string field.
func (o object) str(key string) (string, bool) {
	var s string
	if err := json.Unmarshal(o[key], &s); err != nil {
		return "", false
	}
	s = strings.TrimSpace(s)
	return s, s != ""
}

var leadingNumber = regexp.MustCompile(`^[+-]?(\d+\.?\d*|\.\d+)`)

// number reads a JSON number, or a string starting with one ("45", "$45.5"
// after the currency sign is dropped).
func (o object) number(key string) (float64, bool) {
	raw, ok := o[key]
	if !ok {
		return 0, false
	}
	var f float64
	if err := json.Unmarshal(raw, &f); err == nil {
		return f, !math.IsNaN(f) && !math.IsInf(f, 0)
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return 0, false
	}
	s = strings.TrimLeft(strings.TrimSpace(s), "$€")
	m := leadingNumber.FindString(strings.ReplaceAll(s, ",", ""))
	if m == "" {
		return 0, false
	}
	f, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return 0, false
	}
	return f, true
}

// isTrue is true only for a JSON true literal.
func (o object) isTrue(key string) bool {
	var b bool
	return json.Unmarshal(o[key], &b) == nil && b
}
