package catalog

import (
	"context"
	"testing"

	"pizza-ordering-api/apperrors"
	"pizza-ordering-api/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPresetCRUD(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, openTestDB(t))

	created, err := store.CreatePreset(ctx, PresetInput{
		Name:        " Garlic Knots ",
		Description: "Six knots",
		Price:       models.NumberOf(5.5),
		Category:    "side",
	})
	require.NoError(t, err)
	assert.Equal(t, uint(4), created.ID)
	assert.Equal(t, "Garlic Knots", created.Name)
	assert.Equal(t, models.PresetSide, created.Category)
	assert.True(t, created.IsAvailable)

	odd, err := store.CreatePreset(ctx, PresetInput{Name: "Mystery", Price: models.NumberOf(3), Category: "soup"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), odd.ID)
	assert.Equal(t, models.PresetPizza, odd.Category)

	updated, err := store.UpdatePreset(ctx, created.ID, PresetInput{
		Name:        "Garlic Knots",
		Price:       models.NumberOf(6),
		IsAvailable: boolPtr(false),
	})
	require.NoError(t, err)
	assert.Equal(t, 6.0, updated.Price)
	assert.Equal(t, models.PresetSide, updated.Category)
	assert.False(t, updated.IsAvailable)

	available, err := store.AvailablePresets(ctx)
	require.NoError(t, err)
	for _, item := range available {
		assert.NotEqual(t, created.ID, item.ID)
	}

	require.NoError(t, store.DeletePreset(ctx, odd.ID))
	_, err = store.GetPreset(ctx, odd.ID)
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	// ids derive from the current max, so a deleted tail id is handed out again
	next, err := store.CreatePreset(ctx, PresetInput{Name: "Soda", Price: models.NumberOf(2), Category: "drink"})
	require.NoError(t, err)
	assert.Equal(t, uint(5), next.ID)
}

func TestPresetValidation(t *testing.T) {
	ctx := context.Background()
	store := newTestStore(t, openTestDB(t))

	_, err := store.CreatePreset(ctx, PresetInput{Price: models.NumberOf(3)})
	assert.Equal(t, "Name is required", apperrors.As(err).Message())

	_, err = store.CreatePreset(ctx, PresetInput{Name: "Free", Price: models.NumberOf(0)})
	assert.Equal(t, "Price must be a positive number", apperrors.As(err).Message())

	_, err = store.UpdatePreset(ctx, 99, PresetInput{Name: "Ghost", Price: models.NumberOf(1)})
	assert.True(t, apperrors.Is(err, apperrors.CodeNotFound))

	assert.True(t, apperrors.Is(store.DeletePreset(ctx, 99), apperrors.CodeNotFound))
}

func TestPresetsNotReseededWhenPresent(t *testing.T) {
	ctx := context.Background()
	db := openTestDB(t)
	store := newTestStore(t, db)
	require.NoError(t, store.DeletePreset(ctx, 2))

	reloaded := newTestStore(t, db)
	items, err := reloaded.ListPresets(ctx)
	require.NoError(t, err)
	assert.Len(t, items, 2)
}
