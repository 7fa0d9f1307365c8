package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserStepStoreCRUD(t *testing.T) {
	d := openTestDB(t)
	store := NewUserStepStore(d)
	ctx := context.Background()

	serum, err := store.Create(ctx, "alice", "serum")
	require.NoError(t, err)
	assert.NotEmpty(t, serum.UUID)

	require.NoError(t, store.CreateMany(ctx, "alice", []string{"Toning", "Cleansing"}))
	_, err = store.Create(ctx, "bob", "Exfoliate")
	require.NoError(t, err)

	steps, err := store.ListByUser(ctx, "alice")
	require.NoError(t, err)
	require.Len(t, steps, 3)
	assert.Equal(t, "Cleansing", steps[0].Name)
	assert.Equal(t, "serum", steps[1].Name)
	assert.Equal(t, "Toning", steps[2].Name)

	assert.ErrorIs(t, store.Update(ctx, serum.ID, "bob", "x"), ErrNotFound)
	require.NoError(t, store.Update(ctx, serum.ID, "alice", "Serum"))
	got, err := store.GetByID(ctx, serum.ID)
	require.NoError(t, err)
	assert.Equal(t, "Serum", got.Name)

	assert.ErrorIs(t, store.Delete(ctx, serum.ID, "bob"), ErrNotFound)
	require.NoError(t, store.Delete(ctx, serum.ID, "alice"))
	got, err = store.GetByID(ctx, serum.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

func TestUserStepStoreDeleteDetachesRoutineSteps(t *testing.T) {
	d := openTestDB(t)
	ctx := context.Background()
	steps := NewUserStepStore(d)
	routines := NewRoutineStore(d)

	us, err := steps.Create(ctx, "alice", "Cleansing")
	require.NoError(t, err)
	r, err := routines.Create(ctx, "alice", "AM", "", "morning")
	require.NoError(t, err)
	st, err := routines.CreateStep(ctx, r.ID, us.Name, &us.ID)
	require.NoError(t, err)
	require.NotNil(t, st.UserStepID)

	require.NoError(t, steps.Delete(ctx, us.ID, "alice"))

	got, err := routines.GetStep(ctx, r.ID, st.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.UserStepID)
	assert.Equal(t, "Cleansing", got.StepName)
}
