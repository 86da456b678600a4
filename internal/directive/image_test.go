package directive

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stencil/internal/model"
)

func imageDirective(params model.Params) Directive {
	p := params.Clone()
	p["type"] = "image"
	return newTestRegistry().Find(p)
}

func TestImageInput(t *testing.T) {
	d := imageDirective(nil)
	input := d.Input("content[photo]", nil)
	assert.Contains(t, input, `input type="file"`)
	assert.Contains(t, input, `input type="hidden"`)
	assert.NotContains(t, input, `class="preview"`)
	assert.Contains(t, d.Input("content[photo]", "test.jpg"), `class="preview"`)
}

func TestImageDeleteCheckbox(t *testing.T) {
	optional := imageDirective(model.Params{"required": "false"})
	assert.Contains(t, optional.Input("content[photo]", "test.jpg"), `input type="checkbox" name="_destroy[photo]"`)
	assert.NotContains(t, optional.Input("content[photo]", nil), `input type="checkbox"`)

	required := imageDirective(nil)
	assert.NotContains(t, required.Input("content[photo]", "test.jpg"), `input type="checkbox"`)
}

func TestImageRender(t *testing.T) {
	ctx := context.Background()

	assert.Equal(t, "", imageDirective(nil).Render(ctx, nil))
	assert.Equal(t, `<img src="/uploads/test.jpg">`, imageDirective(nil).Render(ctx, "test.jpg"))
	assert.Equal(t, "/uploads/test.jpg", imageDirective(model.Params{"tag": "false"}).Render(ctx, "test.jpg"))
	assert.Contains(t, imageDirective(model.Params{"class": "test"}).Render(ctx, "test.jpg"), `class="test"`)
	assert.Contains(t, imageDirective(model.Params{"alt": "Testing"}).Render(ctx, "test.jpg"), `alt="Testing"`)
}
