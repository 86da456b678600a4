package directive

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/lestrrat-go/strftime"

	"github.com/roach88/stencil/internal/model"
)

// DefaultDateFormat is the strftime format used when none is given.
const DefaultDateFormat = "%B %e, %Y"

const timeSuffix = " %l:%M %p"

var dateDefaults = defaults{
	options: []field{
		{"format", DefaultDateFormat},
		{"time", false},
	},
}

// layouts are tried in order when parsing stored date strings.
var layouts = []string{
	time.RFC3339Nano,
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02T15:04",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04",
	"2006-01-02",
}

// Date is a date, or a date and time when time=true.
type Date struct {
	base
}

func newDate(_ *Registry, params model.Params) Directive {
	return &Date{base: newBase(params, dateDefaults)}
}

func (d *Date) Input(name string, value any) string {
	typ := "date"
	if d.options.Bool("time") {
		typ = "datetime-local"
	}
	return fmt.Sprintf(`<input type="%s" name="%s" value="%s" %s>`, typ, name, Escape(toString(value)), d.HTMLAttrs())
}

// Render formats the date in UTC. Unparseable values come back escaped.
func (d *Date) Render(_ context.Context, value any) string {
	value = d.orDefault(value)

	t, ok := parseDate(value)
	if !ok {
		return Escape(toString(value))
	}

	format := d.options.String("format")
	if format == "" {
		format = DefaultDateFormat
	}
	if d.options.Bool("time") && format == DefaultDateFormat {
		format += timeSuffix
	}

	out, err := strftime.Format(format, t.UTC())
	if err != nil {
		return Escape(toString(value))
	}
	return out
}

func (d *Date) Preview(ctx context.Context, value any) string {
	return d.Render(ctx, value)
}

func parseDate(value any) (time.Time, bool) {
	switch v := value.(type) {
	case time.Time:
		return v, !v.IsZero()
	case string:
		s := strings.TrimSpace(v)
		for _, layout := range layouts {
			if t, err := time.Parse(layout, s); err == nil {
				return t, true
			}
		}
	}
	return time.Time{}, false
}
