package databasetest

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yukikurage/projecthub/internal/models"
)

func TestNewDB(t *testing.T) {
	db := NewDB(t)

	for _, model := range models.All() {
		assert.True(t, db.Migrator().HasTable(model), "%T", model)
	}

	user := models.User{Username: "alice", Email: "alice@example.com", FullName: "Alice", PasswordHash: "x"}
	require.NoError(t, db.Create(&user).Error)
	assert.Equal(t, models.ThemeLight, user.ThemeMode)
	assert.Equal(t, models.DefaultSideMenuColor, user.SideMenuColor)

	other := NewDB(t)
	var count int64
	require.NoError(t, other.Model(&models.User{}).Count(&count).Error)
	assert.Zero(t, count, "each call opens an isolated database")
}
