package sqlite

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/freeform-db/freeform/pkg/types"
)

func TestNamesGetIDCreatesLazily(t *testing.T) {
	db := newTestDB(t)
	names := NewNames(db)

	id, err := names.GetID(1, "make", false, false, false)
	require.NoError(t, err)
	assert.Equal(t, 1, id)

	again, err := names.GetID(1, "make", false, false, false)
	require.NoError(t, err)
	assert.Equal(t, id, again)
}

func TestNamesScopedByTable(t *testing.T) {
	db := newTestDB(t)
	names := NewNames(db)

	// The same attribute name under two tables gets two ids.
	carsMake, err := names.GetID(1, "make", false, false, false)
	require.NoError(t, err)
	songsMake, err := names.GetID(2, "make", false, false, false)
	require.NoError(t, err)
	assert.NotEqual(t, carsMake, songsMake)

	obj, err := names.GetName(songsMake)
	require.NoError(t, err)
	assert.Equal(t, 2, obj.TableID)
	assert.Equal(t, "make", obj.Name)
}

func TestNamesRejectsInvalidAndReserved(t *testing.T) {
	db := newTestDB(t)
	names := NewNames(db)

	_, err := names.GetID(1, "2fast", false, false, false)
	assert.ErrorIs(t, err, types.ErrInvalidName)

	_, err = names.GetID(1, "value", false, false, false)
	assert.ErrorIs(t, err, types.ErrReservedName)

	// Reservation is case-insensitive.
	_, err = names.GetID(1, "Created", false, false, false)
	assert.ErrorIs(t, err, types.ErrReservedName)
}

func TestNamesGetIDNoCreate(t *testing.T) {
	db := newTestDB(t)
	names := NewNames(db)

	id, err := names.GetID(1, "missing", false, true, true)
	require.NoError(t, err)
	assert.Equal(t, -1, id)

	_, err = names.GetID(1, "missing", false, true, false)
	assert.ErrorIs(t, err, types.ErrNotFound)
}

func TestNamesGetNameIsNumeric(t *testing.T) {
	db := newTestDB(t)
	names := NewNames(db)

	yearID, err := names.GetID(1, "year", true, false, false)
	require.NoError(t, err)
	makeID, err := names.GetID(1, "make", false, false, false)
	require.NoError(t, err)

	isNumeric, err := names.GetNameIsNumeric(yearID)
	require.NoError(t, err)
	assert.True(t, isNumeric)

	isNumeric, err = names.GetNameIsNumeric(makeID)
	require.NoError(t, err)
	assert.False(t, isNumeric)

	// The absent-name sentinel reads as non-numeric.
	isNumeric, err = names.GetNameIsNumeric(-1)
	require.NoError(t, err)
	assert.False(t, isNumeric)
}

func TestNamesReset(t *testing.T) {
	db := newTestDB(t)
	names := NewNames(db)

	_, err := names.GetID(1, "make", false, false, false)
	require.NoError(t, err)

	require.NoError(t, names.Reset())

	id, err := names.GetID(1, "make", false, true, true)
	require.NoError(t, err)
	assert.Equal(t, -1, id)
}
