package store

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/roach88/stencil/internal/model"
)

// marshalJSON converts a value to JSON TEXT for storage.
// HTML escaping is disabled so stored markup stays readable.
func marshalJSON(v any) (string, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(v); err != nil {
		return "", err
	}
	// Encoder adds a trailing newline, remove it
	return strings.TrimSpace(buf.String()), nil
}

func marshalParams(p model.Params) (string, error) {
	if p == nil {
		p = model.Params{}
	}
	data, err := marshalJSON(p)
	if err != nil {
		return "", fmt.Errorf("marshal params: %w", err)
	}
	return data, nil
}

func marshalFields(f map[string]model.Params) (string, error) {
	if f == nil {
		f = map[string]model.Params{}
	}
	data, err := marshalJSON(f)
	if err != nil {
		return "", fmt.Errorf("marshal fields: %w", err)
	}
	return data, nil
}

func marshalContent(c map[string]any) (string, error) {
	if c == nil {
		c = map[string]any{}
	}
	data, err := marshalJSON(c)
	if err != nil {
		return "", fmt.Errorf("marshal content: %w", err)
	}
	return data, nil
}

func unmarshalParams(data string) (model.Params, error) {
	p := model.Params{}
	if data == "" || data == "{}" {
		return p, nil
	}
	if err := json.Unmarshal([]byte(data), &p); err != nil {
		return nil, fmt.Errorf("unmarshal params: %w", err)
	}
	return p, nil
}

func unmarshalFields(data string) (map[string]model.Params, error) {
	f := map[string]model.Params{}
	if data == "" || data == "{}" {
		return f, nil
	}
	if err := json.Unmarshal([]byte(data), &f); err != nil {
		return nil, fmt.Errorf("unmarshal fields: %w", err)
	}
	return f, nil
}

func unmarshalContent(data string) (map[string]any, error) {
	c := map[string]any{}
	if data == "" || data == "{}" {
		return c, nil
	}
	if err := json.Unmarshal([]byte(data), &c); err != nil {
		return nil, fmt.Errorf("unmarshal content: %w", err)
	}
	return c, nil
}

func fromNanos(n int64) time.Time {
	return time.Unix(0, n).UTC()
}
