package content

import (
	"context"
	"errors"

	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
)

// PreviewLength is the rune count after which previews are truncated.
const PreviewLength = 140

// SerializeContent passes every value through its field's directive.
// Reserved keys (_id, _permalink, ...) are dropped. Failures are collected
// into one *model.ValidationError keyed by field.
func (s *Service) SerializeContent(sec *model.Section, content map[string]any) (map[string]any, error) {
	out := make(map[string]any, len(content))
	failures := map[string]string{}

	for key, value := range content {
		if model.IsReservedField(key) {
			continue
		}
		d := s.directives.Find(fieldParams(sec, key))
		v, err := d.Serialize(value)
		if err != nil {
			var se *directive.SerializeError
			if errors.As(err, &se) {
				failures[key] = se.Message
				continue
			}
			failures[key] = err.Error()
			continue
		}
		out[key] = v
	}

	if len(failures) > 0 {
		return nil, &model.ValidationError{Fields: failures}
	}
	return out, nil
}

// Validate checks that every required field of sec has a value.
func (s *Service) Validate(sec *model.Section, content map[string]any) error {
	failures := map[string]string{}
	for name, params := range sec.Fields {
		if s.directives.Find(params).Required() && directive.IsEmpty(content[name]) {
			failures[name] = "required field"
		}
	}
	if len(failures) > 0 {
		return &model.ValidationError{Fields: failures}
	}
	return nil
}

// PreviewContent renders a short dashboard preview of one field.
func (s *Service) PreviewContent(ctx context.Context, rec *model.Record, sec *model.Section, field string) string {
	d := s.directives.Find(fieldParams(sec, field))
	return truncate(d.Preview(ctx, rec.Content[field]), PreviewLength)
}

func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	return string(runes[:n]) + "..."
}

func fieldParams(sec *model.Section, key string) model.Params {
	if sec == nil {
		return nil
	}
	return sec.Fields[key]
}
