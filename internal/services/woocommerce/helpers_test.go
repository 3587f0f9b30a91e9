package woocommerce

import (
	"fmt"
	"strings"
	"testing"

	"wcperfit/internal/database"
	"wcperfit/internal/logger"

	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	name := strings.NewReplacer("/", "_", " ", "_").Replace(t.Name())
	db, err := database.NewSilent(fmt.Sprintf("sqlite://file:%s?mode=memory&cache=shared", name))
	require.NoError(t, err)
	require.NoError(t, db.Migrate())
	t.Cleanup(func() { db.Close() })
	return db.DB
}

func testLogger() *logger.Logger {
	return logger.New("error")
}
