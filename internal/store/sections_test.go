package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/stencil/internal/model"
	"github.com/roach88/stencil/internal/testutil"
)

func TestFindOrCreateSection(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	first, err := s.FindOrCreateSection(ctx, "Offices")
	require.NoError(t, err)
	assert.Equal(t, "offices", first.Name)
	assert.Equal(t, model.Params{}, first.Options)
	assert.Equal(t, map[string]model.Params{}, first.Fields)

	again, err := s.FindOrCreateSection(ctx, "offices")
	require.NoError(t, err)
	assert.Equal(t, first.ID, again.ID)
}

func TestFindSectionByName_NotFound(t *testing.T) {
	s := createTestStore(t)

	_, err := s.FindSectionByName(context.Background(), "missing")
	require.Error(t, err)
	assert.True(t, model.IsNotFound(err))
}

func TestUpdateSection_RoundTrip(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	sec := createTestSection(t, s, "offices")
	sec.Form = true
	sec.Multiple = true
	sec.Sortable = true
	sec.Options = model.Params{"priority": "2", "label": "Our <Offices>"}
	sec.Fields = map[string]model.Params{
		"city": {"type": "text", "required": "false"},
	}
	require.NoError(t, s.UpdateSection(ctx, sec))

	got, err := s.FindSection(ctx, sec.ID)
	require.NoError(t, err)
	assert.True(t, got.Form)
	assert.True(t, got.Multiple)
	assert.True(t, got.Sortable)
	assert.Equal(t, sec.Options, got.Options)
	assert.Equal(t, sec.Fields, got.Fields)
	assert.True(t, got.UpdatedAt.After(got.CreatedAt))
}

func TestUpdateSection_Missing(t *testing.T) {
	s := createTestStore(t)

	err := s.UpdateSection(context.Background(), &model.Section{ID: 999, Name: "ghost"})
	assert.True(t, model.IsNotFound(err))
}

func TestFindAllSections_IncludesGeneral(t *testing.T) {
	s := createTestStore(t)

	sections, err := s.FindAllSections(context.Background())
	require.NoError(t, err)
	require.Len(t, sections, 1)
	assert.Equal(t, model.DefaultSectionName, sections[0].Name)
}

func TestDestroySectionsExcept(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	offices := createTestSection(t, s, "offices")
	staff := createTestSection(t, s, "staff")
	createTestRecord(t, s, staff.ID, 0, map[string]any{"name": "Ann"})

	n, err := s.DestroySectionsExcept(ctx, []int64{offices.ID})
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)

	sections, err := s.FindAllSections(ctx)
	require.NoError(t, err)
	names := make([]string, len(sections))
	for i, sec := range sections {
		names[i] = sec.Name
	}
	assert.ElementsMatch(t, []string{"general", "offices"}, names)

	// records cascade
	recs, err := s.SiblingRecords(ctx, staff.ID)
	require.NoError(t, err)
	assert.Empty(t, recs)
}

func TestDestroySectionsExcept_NeverGeneral(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	createTestSection(t, s, "offices")

	_, err := s.DestroySectionsExcept(ctx, nil)
	require.NoError(t, err)

	general, err := s.FindSectionByName(ctx, model.DefaultSectionName)
	require.NoError(t, err)
	assert.Equal(t, model.DefaultSectionName, general.Name)

	_, err = s.FindSectionByName(ctx, "offices")
	assert.True(t, model.IsNotFound(err))
}

func TestSection_TimestampsFromClock(t *testing.T) {
	s := createTestStore(t)
	sec := createTestSection(t, s, "offices")
	assert.False(t, sec.CreatedAt.Before(testutil.Epoch))
}
