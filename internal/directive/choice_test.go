package directive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/model"
)

func choice(t *testing.T, params model.Params) *Choice {
	t.Helper()
	p := params.Clone()
	p["type"] = "choice"
	d, ok := newTestRegistry().Find(p).(*Choice)
	require.True(t, ok)
	return d
}

func TestChoicePossibilities(t *testing.T) {
	d := choice(t, model.Params{"options": "Yes, No, Maybe"})
	assert.Equal(t, []string{"Yes", "No", "Maybe"}, d.Possibilities)

	d = choice(t, model.Params{"options": " a,, b ,"})
	assert.Equal(t, []string{"a", "b"}, d.Possibilities)
}

func TestChoiceRequired(t *testing.T) {
	assert.True(t, choice(t, model.Params{"options": "a,b"}).Required())
	assert.False(t, choice(t, model.Params{}).Required())
	assert.False(t, choice(t, model.Params{"options": "only"}).Required())
}

func TestChoiceWidget(t *testing.T) {
	tests := []struct {
		name     string
		params   model.Params
		want     string
		contains []string
		excludes []string
	}{
		{"no options is a checkbox", model.Params{}, "checkbox", []string{`type="checkbox"`}, []string{"toggle", "radio", "<select"}},
		{"one option is a checkbox", model.Params{"options": "Agree"}, "checkbox", []string{`type="checkbox"`}, []string{"radio", "<select"}},
		{"toggle allowed with one option", model.Params{"input": "toggle"}, "toggle", []string{`type="checkbox"`, "toggle"}, nil},
		{"toggle ignored with many options", model.Params{"options": "a,b", "input": "toggle"}, "radio", []string{"radio"}, []string{"toggle"}},
		{"two options is radio", model.Params{"options": "a,b"}, "radio", []string{`type="radio"`}, []string{"<select"}},
		{"three options is radio", model.Params{"options": "a,b,c"}, "radio", []string{"radio"}, nil},
		{"radio override", model.Params{"options": "a,b,c,d", "input": "radio"}, "radio", []string{"radio"}, []string{"<select"}},
		{"four options is dropdown", model.Params{"options": "a,b,c,d"}, "dropdown", []string{"<select", "dropdown"}, []string{"radio"}},
		{"dropdown override", model.Params{"options": "a,b", "input": "dropdown"}, "dropdown", []string{"dropdown"}, []string{"multiple"}},
		{"multiple forces dropdown", model.Params{"options": "a,b", "multiple": "true"}, "dropdown", []string{"dropdown", "multiple"}, nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d := choice(t, tt.params)
			assert.Equal(t, tt.want, d.InputType())

			input := d.Input("test", nil)
			for _, s := range tt.contains {
				assert.Contains(t, input, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, input, s)
			}
		})
	}
}

func TestChoiceChecked(t *testing.T) {
	d := choice(t, model.Params{"options": "a,b"})
	assert.Contains(t, d.Input("test", "b"), `value="b" checked`)
	assert.NotContains(t, d.Input("test", "b"), `value="a" checked`)

	dd := choice(t, model.Params{"options": "a,b,c,d", "multiple": "true"})
	input := dd.Input("test", []any{"a", "c"})
	assert.Contains(t, input, `<option value="a" selected>`)
	assert.Contains(t, input, `<option value="c" selected>`)
	assert.Contains(t, input, `<option value="b" >`)
}

func TestChoiceRender(t *testing.T) {
	d := choice(t, model.Params{})
	ctx := context.Background()
	assert.Equal(t, "a, b, c", d.Render(ctx, []any{"a", "b", "c"}))
	assert.Equal(t, "Yes", d.Render(ctx, "Yes"))
	assert.Equal(t, "", d.Render(ctx, nil))
	assert.Equal(t, "R&amp;D, &lt;b&gt;", d.Render(ctx, []any{"R&D", "<b>"}))
}
