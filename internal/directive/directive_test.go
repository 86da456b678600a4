package directive

import (
	"bytes"
	"context"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/roach88/stencil/internal/model"
)

func newTestRegistry(opts ...RegistryOption) *Registry {
	opts = append([]RegistryOption{WithUnfurler(UnfurlerFunc(func(context.Context, string) (string, error) {
		return "", &LookupError{URL: "offline"}
	}))}, opts...)
	return NewRegistry(opts...)
}

func TestBaseIgnoresUnknownParams(t *testing.T) {
	d := newTestRegistry().Find(model.Params{"junk": "true"})
	assert.NotContains(t, d.Attrs(), "junk")
	assert.NotContains(t, d.Options(), "junk")
}

func TestBaseRequiredByDefault(t *testing.T) {
	r := newTestRegistry()
	assert.True(t, r.Find(nil).Required())
	assert.False(t, r.Find(model.Params{"required": "false"}).Required())
}

func TestBaseDefaultValue(t *testing.T) {
	d := newTestRegistry().Find(model.Params{"default": "testing"})
	assert.Equal(t, "testing", d.Render(context.Background(), nil))
	assert.Contains(t, d.Input("test", nil), `value="testing"`)
}

func TestBaseCoercesParams(t *testing.T) {
	d := newTestRegistry().Find(model.Params{"type": "number", "min": "1", "required": "false", "label": "Age"})
	assert.Equal(t, float64(1), d.Attrs()["min"])
	assert.Equal(t, false, d.Attrs()["required"])
	assert.Equal(t, "Age", d.Options()["label"])
}

func TestHTMLAttrs(t *testing.T) {
	d := newTestRegistry().Find(model.Params{"placeholder": "test", "maxlength": "10"}).(*Text)
	assert.Equal(t, `placeholder="test" required="true" maxlength="10"`, d.HTMLAttrs())

	d = newTestRegistry().Find(model.Params{"required": "false"}).(*Text)
	assert.Equal(t, `placeholder=""`, d.HTMLAttrs())
}

func TestFindFallsBackToText(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, nil))
	r := newTestRegistry(WithLogger(logger))

	_, ok := r.Find(model.Params{"type": "bogus"}).(*Text)
	assert.True(t, ok)
	assert.Contains(t, logs.String(), "falling back to text")
	assert.Contains(t, logs.String(), "type=bogus")

	logs.Reset()
	_, ok = r.Find(model.Params{}).(*Text)
	assert.True(t, ok)
	assert.Empty(t, logs.String())
}

func TestFindEachType(t *testing.T) {
	r := newTestRegistry()
	assert.IsType(t, &Text{}, r.Find(model.Params{"type": "text"}))
	assert.IsType(t, &Number{}, r.Find(model.Params{"type": "number"}))
	assert.IsType(t, &Date{}, r.Find(model.Params{"type": "date"}))
	assert.IsType(t, &Choice{}, r.Find(model.Params{"type": "choice"}))
	assert.IsType(t, &Link{}, r.Find(model.Params{"type": "link"}))
	assert.IsType(t, &HTML{}, r.Find(model.Params{"type": "html"}))
	assert.IsType(t, &Image{}, r.Find(model.Params{"type": "image"}))
	assert.True(t, Exists("choice"))
	assert.False(t, Exists("bogus"))
}

func TestEscape(t *testing.T) {
	assert.Equal(t, "&amp;&lt;&gt;&quot;&#39;", Escape(`&<>"'`))
}

func TestIsEmpty(t *testing.T) {
	assert.True(t, IsEmpty(nil))
	assert.True(t, IsEmpty(""))
	assert.True(t, IsEmpty("   "))
	assert.True(t, IsEmpty([]any{}))
	assert.False(t, IsEmpty("x"))
	assert.False(t, IsEmpty(float64(0)))
	assert.False(t, IsEmpty(false))
}
