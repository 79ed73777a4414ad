// response.go - Model reply cleanup and lenient JSON values

package ai

import (
	"bytes"
	"encoding/json"
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

var (
	codeFenceRe   = regexp.MustCompile("(?s)^```[a-zA-Z]*\\s*(.*?)\\s*```$")
	jsonStringRe  = regexp.MustCompile(`"([^"]*(?:\\.[^"]*)*)"`)
	percentSuffix = strings.NewReplacer("%", "", " ", "")
)

// cleanJSONResponse strips markdown fences and surrounding prose, keeping the
// outermost JSON object, then repairs unescaped control characters.
func cleanJSONResponse(raw string) (string, error) {
	s := strings.TrimSpace(raw)
	if m := codeFenceRe.FindStringSubmatch(s); m != nil {
		s = m[1]
	}

	start := strings.Index(s, "{")
	end := strings.LastIndex(s, "}")
	if start < 0 || end <= start {
		return "", fmt.Errorf("no JSON object in response")
	}

	return fixJSONEscaping(s[start : end+1]), nil
}

// fixJSONEscaping escapes literal newlines, tabs and other control characters
// that models sometimes leave inside JSON strings
func fixJSONEscaping(jsonStr string) string {
	return jsonStringRe.ReplaceAllStringFunc(jsonStr, func(match string) string {
		if len(match) < 2 {
			return match
		}
		content := match[1 : len(match)-1]

		// backslash followed by space is not a valid escape
		content = strings.ReplaceAll(content, "\\ ", "\\\\ ")
		content = strings.ReplaceAll(content, "\n", "\\n")
		content = strings.ReplaceAll(content, "\r", "\\r")
		content = strings.ReplaceAll(content, "\t", "\\t")
		content = strings.ReplaceAll(content, "\f", "\\f")
		content = strings.ReplaceAll(content, "\b", "\\b")

		var builder strings.Builder
		for _, ch := range content {
			if ch < 0x20 {
				builder.WriteString(fmt.Sprintf("\\u%04x", ch))
			} else {
				builder.WriteRune(ch)
			}
		}
		return `"` + builder.String() + `"`
	})
}

// FlexString accepts a string, number, bool or null
type FlexString string

func (fs *FlexString) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if bytes.Equal(data, []byte("null")) {
		*fs = ""
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err == nil {
		*fs = FlexString(strings.TrimSpace(s))
		return nil
	}
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case float64, bool:
		*fs = FlexString(fmt.Sprintf("%v", v))
		return nil
	}
	return fmt.Errorf("expected a scalar, got %s", string(data))
}

// FlexBool accepts true/false, "yes"/"no", "true"/"false" and 1/0
type FlexBool bool

func (fb *FlexBool) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*fb = false
	case bool:
		*fb = FlexBool(v)
	case float64:
		*fb = v != 0
	case string:
		switch strings.ToLower(strings.TrimSpace(v)) {
		case "true", "yes", "y", "1":
			*fb = true
		default:
			*fb = false
		}
	default:
		return fmt.Errorf("expected a boolean, got %s", string(data))
	}
	return nil
}

// FlexNumber accepts a number or a numeric string such as "95" or "95%"
type FlexNumber struct {
	Value float64
	Valid bool
}

func (fn *FlexNumber) UnmarshalJSON(data []byte) error {
	var raw interface{}
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	switch v := raw.(type) {
	case nil:
		*fn = FlexNumber{}
	case float64:
		*fn = FlexNumber{Value: v, Valid: true}
	case string:
		f, err := strconv.ParseFloat(percentSuffix.Replace(v), 64)
		if err != nil {
			*fn = FlexNumber{}
			return nil
		}
		*fn = FlexNumber{Value: f, Valid: true}
	default:
		*fn = FlexNumber{}
	}
	return nil
}

// Ptr returns the value as a pointer, nil when absent
func (fn *FlexNumber) Ptr() *float64 {
	if fn == nil || !fn.Valid {
		return nil
	}
	v := fn.Value
	return &v
}
