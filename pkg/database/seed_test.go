package database

import (
	"context"
	"testing"

	"civic-pulse/internal/domain/poll"
	"civic-pulse/internal/domain/user"
	"civic-pulse/internal/repository"
	"civic-pulse/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeed_UpsertsUsersByEmail(t *testing.T) {
	ctx := context.Background()
	db := testutil.NewTestDB(t)
	cfg := &SeedConfig{AdminEmail: "admin@civic.local", AdminDisplayName: "Admin", CreateTestUsers: true, TestUserCount: 2}

	first, err := Seed(ctx, db, cfg)
	require.NoError(t, err)
	require.Len(t, first.TestUsers, 2)
	require.Len(t, first.Polls, 2)

	cfg.AdminDisplayName = "Chief Admin"
	second, err := Seed(ctx, db, cfg)
	require.NoError(t, err)
	assert.Equal(t, first.AdminUser.ID, second.AdminUser.ID)
	assert.Equal(t, first.TestUsers[1].ID, second.TestUsers[1].ID)

	var users int64
	require.NoError(t, db.Model(&user.User{}).Count(&users).Error)
	assert.EqualValues(t, 3, users)

	admin, err := repository.NewUserRepository(db).GetUserByEmail(ctx, "admin@civic.local")
	require.NoError(t, err)
	assert.Equal(t, "Chief Admin", admin.DisplayName)
	assert.True(t, admin.IsAdmin())

	var polls int64
	require.NoError(t, db.Model(&poll.Poll{}).Count(&polls).Error)
	assert.EqualValues(t, 4, polls)
}
