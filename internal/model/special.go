package model

import "strings"

// Special field keys. Their values are synthesized from the record itself.
const (
	FieldID        = "_id"
	FieldCreatedAt = "_created_at"
	FieldUpdatedAt = "_updated_at"
	FieldPermalink = "_permalink"
)

// SpecialFields maps each special key to the params its directive renders with.
// A nil entry renders as plain text.
var SpecialFields = map[string]Params{
	FieldID:        nil,
	FieldCreatedAt: {"type": "date", "time": "true"},
	FieldUpdatedAt: {"type": "date", "time": "true"},
	FieldPermalink: nil,
}

// IsSpecialField reports whether key is one of the synthesized fields.
func IsSpecialField(key string) bool {
	_, ok := SpecialFields[key]
	return ok
}

// IsReservedField reports whether key is underscore-prefixed. Reserved keys
// are never stored: the special fields are synthesized and the rest are
// left free for them.
func IsReservedField(key string) bool {
	return strings.HasPrefix(key, "_")
}

// RemoveSpecialFields drops reserved keys and context-qualified references
// like "general.title".
func RemoveSpecialFields(fields map[string]Params) map[string]Params {
	out := make(map[string]Params, len(fields))
	for key, params := range fields {
		if IsReservedField(key) || strings.Contains(key, ".") {
			continue
		}
		out[key] = params
	}
	return out
}

// SpecialValue returns the synthesized value for a special key.
func (r *Record) SpecialValue(key string) any {
	switch key {
	case FieldID:
		return r.ID
	case FieldCreatedAt:
		return r.CreatedAt
	case FieldUpdatedAt:
		return r.UpdatedAt
	case FieldPermalink:
		return r.Permalink()
	}
	return nil
}
