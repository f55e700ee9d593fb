package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rl1809/asset-ledger/internal/core/domain"
)

func TestReserveRelease(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	loc := env.createLocation(t, "A1", 10, false)

	got, err := env.occupancy.Reserve(ctx, loc.ID, 7)
	require.NoError(t, err)
	assert.Equal(t, 7, got.CurrentOccupancy)

	_, err = env.occupancy.Reserve(ctx, loc.ID, 4)
	assert.ErrorIs(t, err, domain.ErrCapacityExceeded)

	stored, err := env.store.GetLocation(ctx, loc.ID)
	require.NoError(t, err)
	assert.Equal(t, 7, stored.CurrentOccupancy)

	got, err = env.occupancy.Release(ctx, loc.ID, 20)
	require.NoError(t, err)
	assert.Equal(t, 0, got.CurrentOccupancy, "release floors at zero")
}

func TestReserve_UnknownLocation(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.occupancy.Reserve(context.Background(), "nowhere", 1)
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)
}

func TestCreateLocation_NegativeCapacity(t *testing.T) {
	env := newTestEnv(t)

	_, err := env.occupancy.CreateLocation(context.Background(), CreateLocationInput{Code: "X", Capacity: -1})
	assert.ErrorIs(t, err, domain.ErrInvalidQuantity)
}

func TestCreateLocation_InactiveDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	hq := env.createLocation(t, "HQ", 10, true)

	_, err := env.occupancy.CreateLocation(ctx, CreateLocationInput{Name: "Old", Code: "OLD", Capacity: 10, IsDefault: true})
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	def, err := env.store.GetDefaultLocation(ctx)
	require.NoError(t, err)
	assert.Equal(t, hq.ID, def.ID)
}

func TestSetDefaultLocation_SingleDefault(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()
	first := env.createLocation(t, "ONE", 10, true)
	second := env.createLocation(t, "TWO", 10, false)

	_, err := env.occupancy.SetDefaultLocation(ctx, second.ID)
	require.NoError(t, err)

	a, err := env.store.GetLocation(ctx, first.ID)
	require.NoError(t, err)
	b, err := env.store.GetLocation(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, a.IsDefault)
	assert.True(t, b.IsDefault)

	// new default location replaces the old one on create too
	third := env.createLocation(t, "THREE", 10, true)
	b, err = env.store.GetLocation(ctx, second.ID)
	require.NoError(t, err)
	assert.False(t, b.IsDefault)
	assert.True(t, third.IsDefault)
}

func TestSetDefaultLocation_Inactive(t *testing.T) {
	env := newTestEnv(t)
	ctx := context.Background()

	loc, err := env.occupancy.CreateLocation(ctx, CreateLocationInput{Name: "Closed", Code: "CL", Capacity: 5})
	require.NoError(t, err)

	_, err = env.occupancy.SetDefaultLocation(ctx, loc.ID)
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)

	_, err = env.occupancy.SetDefaultLocation(ctx, "missing")
	assert.ErrorIs(t, err, domain.ErrInvalidLocation)
}
