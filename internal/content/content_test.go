package content

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/compiler"
	"github.com/roach88/stencil/internal/directive"
	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/store"
	"github.com/roach88/stencil/internal/testutil"
)

func newTestService(t *testing.T) (*Service, *store.Store) {
	t.Helper()
	st, err := store.Open(filepath.Join(t.TempDir(), "test.db"), store.WithClock(testutil.NewFixedClock()))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() })

	reg := directive.NewRegistry(directive.WithUnfurler(directive.UnfurlerFunc(
		func(context.Context, string) (string, error) {
			return "", &directive.LookupError{URL: "offline"}
		})))
	return New(st, WithRegistry(reg)), st
}

func createSection(t *testing.T, st *store.Store, name string, multiple, sortable bool, fields map[string]model.Params) *model.Section {
	t.Helper()
	ctx := context.Background()
	sec, err := st.FindOrCreateSection(ctx, name)
	require.NoError(t, err)
	sec.Multiple = multiple
	sec.Sortable = sortable
	sec.Fields = fields
	require.NoError(t, st.UpdateSection(ctx, sec))
	return sec
}

// parseBranch parses markup and returns the branch for section name.
func parseBranch(t *testing.T, markup, name string) *compiler.Branch {
	t.Helper()
	tree, err := compiler.New(markup, nil).Parse()
	require.NoError(t, err)
	for _, branch := range tree {
		if branch.Name == name {
			return branch
		}
	}
	t.Fatalf("section %q not in tree", name)
	return nil
}

func TestSectionContent_RendersRecords(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "offices", true, false, map[string]model.Params{
		"title": {"type": "text"},
	})

	_, err := svc.CreateRecord(ctx, "offices", map[string]any{"title": "New York"})
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, "offices", map[string]any{"title": "Tokyo & Co"})
	require.NoError(t, err)

	branch := parseBranch(t, `{{#section offices}}{{title}} {{_permalink}}{{/section}}`, "offices")
	got, err := svc.SectionContent(ctx, branch, 0)
	require.NoError(t, err)
	require.False(t, got.Form)
	require.Len(t, got.Records, 2)

	// newest first at equal position
	assert.Equal(t, "Tokyo &amp; Co", got.Records[0]["title"])
	assert.Equal(t, "/offices/tokyo-co-2", got.Records[0]["_permalink"])
	assert.Equal(t, "New York", got.Records[1]["title"])
}

func TestSectionContent_SingleRecord(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "offices", true, false, nil)

	a, err := svc.CreateRecord(ctx, "offices", map[string]any{"city": "NYC"})
	require.NoError(t, err)
	_, err = svc.CreateRecord(ctx, "offices", map[string]any{"city": "Tokyo"})
	require.NoError(t, err)

	branch := parseBranch(t, `{{#offices}}{{city}}{{/offices}}`, "offices")
	got, err := svc.SectionContent(ctx, branch, a.ID)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)
	assert.Equal(t, "NYC", got.Records[0]["city"])

	_, err = svc.SectionContent(ctx, branch, 99)
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
}

func TestSectionContent_UnknownSectionIsEmpty(t *testing.T) {
	svc, _ := newTestService(t)

	branch := parseBranch(t, `{{#section staff}}{{name}}{{/section}}`, "staff")
	got, err := svc.SectionContent(context.Background(), branch, 0)
	require.NoError(t, err)
	assert.Empty(t, got.Records)
	assert.Equal(t, []map[string]string{}, got.Value())
}

func TestSectionContent_SpecialFields(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "offices", true, false, nil)

	rec, err := svc.CreateRecord(ctx, "offices", map[string]any{"name": "HQ"})
	require.NoError(t, err)

	branch := parseBranch(t, `{{#offices}}{{_id}}|{{_created_at format="%Y"}}{{/offices}}`, "offices")
	got, err := svc.SectionContent(ctx, branch, 0)
	require.NoError(t, err)
	require.Len(t, got.Records, 1)

	for token, value := range got.Records[0] {
		switch {
		case token == "_id":
			assert.Equal(t, "1", value)
		case strings.HasPrefix(token, "_created_at"):
			assert.Equal(t, rec.CreatedAt.Format("2006"), value)
		}
	}
}

func TestFormHTML(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()

	_, err := st.CreateUser(ctx, "owner@example.com", "pw")
	require.NoError(t, err)

	branch := parseBranch(t,
		`{{#form contact subject="Hello there" next="/thanks"}}{{name}}{{message type=html}}{{age type=number required=false}}{{/form}}`,
		"contact")

	got, err := svc.SectionContent(ctx, branch, 0)
	require.NoError(t, err)
	require.True(t, got.Form)

	html := got.Value().(string)
	assert.Contains(t, html, `action="https://formspree.io/owner@example.com"`)
	assert.Contains(t, html, `name="_subject" value="Hello there"`)
	assert.Contains(t, html, `name="_next" value="/thanks"`)
	assert.Contains(t, html, `<input type="submit" value="Submit">`)

	// html is not allowed on forms and falls back to a text input
	assert.Contains(t, html, `<input type="text" name="message"`)
	assert.Contains(t, html, `<input type="number" name="age"`)
	assert.Contains(t, html, `<div class="required field"><label>Name</label>`)
}

func TestFormHTML_ExplicitRecipient(t *testing.T) {
	svc, _ := newTestService(t)

	branch := parseBranch(t, `{{#form contact recipient="me@example.com" submit="Send it"}}{{email}}{{/form}}`, "contact")

	html, err := svc.FormHTML(context.Background(), branch)
	require.NoError(t, err)
	assert.Contains(t, html, `action="https://formspree.io/me@example.com"`)
	assert.Contains(t, html, `value="Send it"`)
	assert.NotContains(t, html, "_subject")
}

func TestFormField(t *testing.T) {
	svc, _ := newTestService(t)

	got := FormField(svc.Directives(), "email_address", "email_address", model.Params{}, nil, "")
	assert.Equal(t,
		`<div class="required field"><label>Email Address</label><input type="text" name="email_address" value="" placeholder="" required="true"><small></small></div>`,
		got)

	got = FormField(svc.Directives(), "bio", "bio", model.Params{"required": "false", "label": "About you", "help": "Be brief"}, "x", "too long")
	assert.Contains(t, got, `<div class="error field"><label>About you</label>`)
	assert.Contains(t, got, `<small>too long</small>`)
}

func TestCreateRecord_Validation(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "offices", true, false, map[string]model.Params{
		"city":  {"type": "text"},
		"staff": {"type": "number", "required": "false"},
	})

	_, err := svc.CreateRecord(ctx, "offices", map[string]any{"city": "  "})
	require.Error(t, err)
	var ve *model.ValidationError
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{"city": "required field"}, ve.Fields)

	_, err = svc.CreateRecord(ctx, "offices", map[string]any{"city": "NYC", "staff": "lots"})
	require.ErrorAs(t, err, &ve)
	assert.Equal(t, map[string]string{"staff": "must be a number"}, ve.Fields)

	rec, err := svc.CreateRecord(ctx, "offices", map[string]any{"city": "NYC", "staff": "12"})
	require.NoError(t, err)
	assert.Equal(t, float64(12), rec.Content["staff"])
}

func TestWritesDropReservedKeys(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "offices", true, false, map[string]model.Params{"city": {"type": "text"}})

	rec, err := svc.CreateRecord(ctx, "offices", map[string]any{
		"city": "NYC", "_id": 99, "_permalink": "/evil", "_note": "x",
	})
	require.NoError(t, err)

	stored, err := st.FindRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "NYC"}, stored.Content)
	assert.Equal(t, rec.ID, stored.ID)

	_, err = svc.UpdateRecord(ctx, rec.ID, map[string]any{"city": "Oslo", "_created_at": "2001-01-01"})
	require.NoError(t, err)

	stored, err = st.FindRecord(ctx, rec.ID)
	require.NoError(t, err)
	assert.Equal(t, map[string]any{"city": "Oslo"}, stored.Content)
}

func TestCreateRecord_UnknownSection(t *testing.T) {
	svc, _ := newTestService(t)

	_, err := svc.CreateRecord(context.Background(), "ghosts", map[string]any{})
	assert.True(t, model.IsNotFound(err))
}

func TestCreateRecord_SortableAppends(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "faqs", true, true, nil)

	var positions []int
	for i := 0; i < 3; i++ {
		rec, err := svc.CreateRecord(ctx, "faqs", map[string]any{})
		require.NoError(t, err)
		positions = append(positions, rec.Position)
	}
	assert.Equal(t, []int{0, 1, 2}, positions)
}

func TestWritesPublishEvents(t *testing.T) {
	svc, st := newTestService(t)
	ctx := context.Background()
	createSection(t, st, "faqs", true, true, nil)

	var events []Event
	svc.Subscribe(func(e Event) { events = append(events, e) })

	a, err := svc.CreateRecord(ctx, "faqs", map[string]any{"q": "a"})
	require.NoError(t, err)
	b, err := svc.CreateRecord(ctx, "faqs", map[string]any{"q": "b"})
	require.NoError(t, err)

	_, err = svc.UpdateRecord(ctx, a.ID, map[string]any{"q": "a2"})
	require.NoError(t, err)

	from, to := 1, 0
	moved, err := svc.ReorderRecord(ctx, b.ID, &from, &to)
	require.NoError(t, err)
	assert.Equal(t, 0, moved.Position)

	require.NoError(t, svc.DestroyRecord(ctx, a.ID))

	kinds := make([]EventKind, len(events))
	for i, e := range events {
		kinds[i] = e.Kind
		assert.Equal(t, "faqs", e.Section)
	}
	assert.Equal(t, []EventKind{EventCreated, EventCreated, EventUpdated, EventReordered, EventDestroyed}, kinds)
}

func TestPreviewContent(t *testing.T) {
	svc, _ := newTestService(t)
	sec := &model.Section{Fields: map[string]model.Params{"bio": {"type": "html"}}}

	long := strings.Repeat("é", 150)
	rec := &model.Record{Content: map[string]any{"bio": "<p>" + long + "</p>", "name": "Ann"}}

	got := svc.PreviewContent(context.Background(), rec, sec, "bio")
	assert.Equal(t, strings.Repeat("é", 140)+"...", got)
	assert.Equal(t, "Ann", svc.PreviewContent(context.Background(), rec, sec, "name"))
}
