package repository

import (
	"context"
	"testing"

	"ripple/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestUserDirectory_GetByUsername(t *testing.T) {
	db := setupTestDB(t)
	dir := NewUserDirectory(db)
	ctx := context.Background()

	createTestUser(t, db, "ann")

	user, err := dir.GetByUsername(ctx, "ann")
	require.NoError(t, err)
	assert.Equal(t, "ann", user.Username)

	_, err = dir.GetByUsername(ctx, "ghost")
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserDirectory_GetByID(t *testing.T) {
	db := setupTestDB(t)
	dir := NewUserDirectory(db)
	ctx := context.Background()

	ann := createTestUser(t, db, "ann")

	user, err := dir.GetByID(ctx, ann.ID)
	require.NoError(t, err)
	assert.Equal(t, ann.ID, user.ID)

	_, err = dir.GetByID(ctx, 999)
	var appErr *models.AppError
	require.ErrorAs(t, err, &appErr)
	assert.Equal(t, "NOT_FOUND", appErr.Code)
}

func TestUserDirectory_FollowingIDs(t *testing.T) {
	db := setupTestDB(t)
	dir := NewUserDirectory(db)
	ctx := context.Background()

	ann := createTestUser(t, db, "ann")
	bob := createTestUser(t, db, "bob")
	carl := createTestUser(t, db, "carl")

	require.NoError(t, db.Create(&models.Follow{FollowerID: ann.ID, FolloweeID: bob.ID}).Error)
	require.NoError(t, db.Create(&models.Follow{FollowerID: ann.ID, FolloweeID: carl.ID}).Error)

	ids, err := dir.FollowingIDs(ctx, ann.ID)
	require.NoError(t, err)
	assert.ElementsMatch(t, []uint{bob.ID, carl.ID}, ids)

	none, err := dir.FollowingIDs(ctx, bob.ID)
	require.NoError(t, err)
	assert.Empty(t, none)
}
