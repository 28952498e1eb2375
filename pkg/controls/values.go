package controls

import (
	"encoding/base64"
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"
)

// StringList coerces a list value to []string. Nil and non-list values yield
// an empty, non-nil slice. The input is never modified.
func StringList(value any) []string {
	switch v := value.(type) {
	case []string:
		return append([]string{}, v...)
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			out = append(out, Format(item))
		}
		return out
	default:
		return []string{}
	}
}

// AnyList coerces a list value to []any without aliasing the input.
func AnyList(value any) []any {
	switch v := value.(type) {
	case []any:
		return append([]any{}, v...)
	case []string:
		out := make([]any, len(v))
		for i, s := range v {
			out[i] = s
		}
		return out
	default:
		return []any{}
	}
}

// Format renders a scalar value for display in a text control.
func Format(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	case float32:
		return strconv.FormatFloat(float64(v), 'f', -1, 32)
	case Draft:
		return v.Raw
	default:
		return fmt.Sprint(v)
	}
}

// ParseNumber converts typed text to a float64. Blank input is nil; text that
// does not parse is passed through unchanged so validation can report it.
func ParseNumber(raw string) any {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return nil
	}
	f, err := strconv.ParseFloat(trimmed, 64)
	if err != nil {
		return raw
	}
	return f
}

// Coordinates is the {lat, lng} value of a coordinates field. Either axis may
// be absent while the user is still typing.
type Coordinates struct {
	Lat *float64
	Lng *float64
}

// CoordinatesOf reads a coordinates value stored as a map.
func CoordinatesOf(value any) Coordinates {
	var out Coordinates
	m, ok := value.(map[string]any)
	if !ok {
		return out
	}
	if lat, ok := toFloat(m["lat"]); ok {
		out.Lat = &lat
	}
	if lng, ok := toFloat(m["lng"]); ok {
		out.Lng = &lng
	}
	return out
}

// Value returns the map form stored in the value bag, or nil when both axes are
// empty.
func (c Coordinates) Value() any {
	if c.Lat == nil && c.Lng == nil {
		return nil
	}
	out := make(map[string]any, 2)
	if c.Lat != nil {
		out["lat"] = *c.Lat
	}
	if c.Lng != nil {
		out["lng"] = *c.Lng
	}
	return out
}

func toFloat(value any) (float64, bool) {
	switch v := value.(type) {
	case float64:
		return v, true
	case float32:
		return float64(v), true
	case int:
		return float64(v), true
	case int64:
		return float64(v), true
	case string:
		f, err := strconv.ParseFloat(strings.TrimSpace(v), 64)
		return f, err == nil
	}
	return 0, false
}

// DataURL encodes data as a base64 data URL. An empty content type is sniffed.
func DataURL(contentType string, data []byte) string {
	if contentType == "" {
		contentType = http.DetectContentType(data)
	}
	return "data:" + contentType + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// IsDataURL reports whether value holds an inline data URL.
func IsDataURL(value any) bool {
	s, ok := value.(string)
	return ok && strings.HasPrefix(s, "data:")
}

// ParseDataURL decodes a base64 data URL produced by DataURL.
func ParseDataURL(raw string) (string, []byte, error) {
	if !strings.HasPrefix(raw, "data:") {
		return "", nil, errors.New("controls: not a data URL")
	}
	header, payload, ok := strings.Cut(raw[len("data:"):], ",")
	if !ok {
		return "", nil, errors.New("controls: data URL has no payload")
	}
	contentType, isBase64 := strings.CutSuffix(header, ";base64")
	if !isBase64 {
		return "", nil, errors.New("controls: data URL is not base64 encoded")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return "", nil, fmt.Errorf("controls: decode data URL: %w", err)
	}
	if contentType == "" {
		contentType = "text/plain"
	}
	return contentType, data, nil
}

// accepts reports whether contentType satisfies an accept list such as
// "image/png,image/*".
func accepts(accept, contentType string) bool {
	accept = strings.TrimSpace(accept)
	if accept == "" {
		return true
	}
	contentType = strings.ToLower(strings.TrimSpace(contentType))
	for _, entry := range strings.Split(accept, ",") {
		entry = strings.ToLower(strings.TrimSpace(entry))
		switch {
		case entry == "":
			continue
		case entry == "*/*" || entry == contentType:
			return true
		case strings.HasSuffix(entry, "/*") && strings.HasPrefix(contentType, strings.TrimSuffix(entry, "*")):
			return true
		}
	}
	return false
}
