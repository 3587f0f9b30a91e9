package database

import (
	"testing"

	"wcperfit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestOpenLeavesSchemaToMigrate(t *testing.T) {
	db, err := NewSilent("sqlite://file:TestOpenLeavesSchemaToMigrate?mode=memory&cache=shared")
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	assert.False(t, db.DB.Migrator().HasTable(&models.Option{}))

	require.NoError(t, db.Migrate())
	for _, m := range []interface{}{&models.Option{}, &models.APIKey{}, &models.Webhook{}} {
		assert.True(t, db.DB.Migrator().HasTable(m))
	}
	require.NoError(t, db.Migrate(), "migrating twice is harmless")
}
