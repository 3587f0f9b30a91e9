package woocommerce

import (
	"context"
	"strings"
	"testing"

	"wcperfit/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestHashKey(t *testing.T) {
	h := HashKey("ck_abc")
	assert.Len(t, h, 64)
	assert.Equal(t, h, HashKey("ck_abc"))
	assert.NotEqual(t, h, HashKey("ck_abd"))
}

func TestProvision_StoresHashedReadKey(t *testing.T) {
	db := newTestDB(t)
	p := NewKeyProvisioner(db, testLogger())

	key, err := p.Provision(context.Background(), 7)
	require.NoError(t, err)

	assert.True(t, strings.HasPrefix(key.ConsumerKey, "ck_"))
	assert.True(t, strings.HasPrefix(key.ConsumerSecret, "cs_"))
	assert.Len(t, key.ConsumerKey, 43)
	assert.Equal(t, models.KeyPermissionsRead, key.Permissions)
	assert.EqualValues(t, 7, key.UserID)

	var row models.APIKey
	require.NoError(t, db.First(&row, "id = ?", key.KeyID).Error)
	assert.Equal(t, HashKey(key.ConsumerKey), row.ConsumerKey)
	assert.NotEqual(t, key.ConsumerKey, row.ConsumerKey)
	assert.Equal(t, key.ConsumerSecret, row.ConsumerSecret)
	assert.Equal(t, key.ConsumerKey[len(key.ConsumerKey)-7:], row.TruncatedKey)
	assert.Equal(t, KeyDescription, row.Description)
}

func TestProvision_CollisionCreatesNoSecondRow(t *testing.T) {
	db := newTestDB(t)
	p := NewKeyProvisioner(db, testLogger())
	p.randHex = func() (string, error) { return "0123456789abcdef0123456789abcdef01234567", nil }

	first, err := p.Provision(context.Background(), 1)
	require.NoError(t, err)
	require.NotNil(t, first)

	second, err := p.Provision(context.Background(), 1)
	assert.ErrorIs(t, err, ErrKeyCollision)
	assert.Nil(t, second)

	var count int64
	require.NoError(t, db.Model(&models.APIKey{}).Where("consumer_key = ?", HashKey(first.ConsumerKey)).Count(&count).Error)
	assert.EqualValues(t, 1, count)
}

func TestRevoke(t *testing.T) {
	db := newTestDB(t)
	p := NewKeyProvisioner(db, testLogger())
	ctx := context.Background()

	key, err := p.Provision(ctx, 1)
	require.NoError(t, err)

	require.NoError(t, p.Revoke(ctx, key.KeyID))
	require.NoError(t, p.Revoke(ctx, key.KeyID))
	require.NoError(t, p.Revoke(ctx, ""))

	var count int64
	require.NoError(t, db.Model(&models.APIKey{}).Count(&count).Error)
	assert.Zero(t, count)
}

func TestAuthenticate(t *testing.T) {
	db := newTestDB(t)
	p := NewKeyProvisioner(db, testLogger())
	ctx := context.Background()

	key, err := p.Provision(ctx, 1)
	require.NoError(t, err)

	got, err := p.Authenticate(ctx, key.ConsumerKey, key.ConsumerSecret)
	require.NoError(t, err)
	assert.Equal(t, key.KeyID, got.ID)
	assert.NotNil(t, got.LastAccess)

	_, err = p.Authenticate(ctx, key.ConsumerKey, "cs_wrong")
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.Authenticate(ctx, "ck_unknown", key.ConsumerSecret)
	assert.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = p.Authenticate(ctx, "", "")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}
