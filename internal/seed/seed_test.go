package seed_test

import (
	"context"
	"testing"

	"sweetshop-api/internal/model"
	"sweetshop-api/internal/seed"
	"sweetshop-api/internal/testutil"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunIsRepeatable(t *testing.T) {
	db := testutil.NewDB(t)
	ctx := context.Background()

	first, err := seed.Run(ctx, db, false)
	require.NoError(t, err)
	assert.Equal(t, 3, first.Users)
	assert.Equal(t, 10, first.Sweets)

	second, err := seed.Run(ctx, db, false)
	require.NoError(t, err)
	assert.Equal(t, 0, second.Users)
	assert.Equal(t, 0, second.Sweets)

	reset, err := seed.Run(ctx, db, true)
	require.NoError(t, err)
	assert.Equal(t, 10, reset.Sweets)

	var admin model.User
	require.NoError(t, db.Where("email = ?", "admin@sweetshop.com").First(&admin).Error)
	assert.True(t, admin.IsAdmin())
	assert.True(t, admin.CheckPassword(seed.DemoPassword))
}
