package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"MemoGallery/internal/model"
)

func TestCategoryID(t *testing.T) {
	tests := []struct {
		name string
		want string
	}{
		{"Trips", "trips"},
		{"Summer  Trip 2024", "summer-trip-2024"},
		{"  Lead", "-lead"},
		{"Tab\tand\nnewline", "tab-and-newline"},
		{"Ünïcode ĐỒ", "ünïcode-đồ"},
		{"no break", "no-break"},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, CategoryID(tt.name), tt.name)
	}
}

func TestGallery_CreateCategory(t *testing.T) {
	g := newTestGallery(t, WithColorPicker(func(n int) int { return n - 1 }))
	ctx := context.Background()

	c, err := g.CreateCategory(ctx, "Family Photos")
	require.NoError(t, err)
	assert.Equal(t, model.Category{ID: "family-photos", Name: "Family Photos", Color: Palette[len(Palette)-1]}, c)

	_, err = g.CreateCategory(ctx, "   ")
	assert.ErrorIs(t, err, model.ErrInvalidRecord)
}

func TestGallery_CreateCategoryCollisionReplaces(t *testing.T) {
	g := newTestGallery(t)
	ctx := context.Background()
	_, err := g.CreateCategory(ctx, "Road Trip")
	require.NoError(t, err)
	put(t, g, "m1", "road-trip", []byte("x"), 1, 1)

	c, err := g.CreateCategory(ctx, "road   TRIP")
	require.NoError(t, err)
	assert.Equal(t, "road-trip", c.ID)
	assert.Equal(t, 1, c.Count, "count is recomputed right after replace")

	list, err := g.ListCategories(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "road   TRIP", list[0].Name)
}

func TestGallery_DeleteCategoryIdempotent(t *testing.T) {
	g := newTestGallery(t)
	ctx := context.Background()
	require.NoError(t, g.DeleteCategory(ctx, "nope"))
	_, err := g.CreateCategory(ctx, "A")
	require.NoError(t, err)
	require.NoError(t, g.DeleteCategory(ctx, "a"))
	require.NoError(t, g.DeleteCategory(ctx, "a"))
	list, err := g.ListCategories(ctx)
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestHistogram(t *testing.T) {
	assert.Equal(t, map[string]int{"a": 2, "b": 1}, Histogram([]string{"a", "b", "a"}))
	assert.Empty(t, Histogram(nil))
}
