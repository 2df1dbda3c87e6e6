package repository

import (
	"context"
	"testing"
	"time"

	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func setupDB(t *testing.T) *gorm.DB {
	t.Helper()
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)
	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.Exec(`CREATE TABLE memberships (
		id TEXT PRIMARY KEY,
		customer_email TEXT,
		tier TEXT,
		status TEXT,
		created_at DATETIME,
		last_renewal DATETIME
	)`).Error)
	return db
}

func TestListForMetricsOrdersByCreation(t *testing.T) {
	db := setupDB(t)
	jan := time.Date(2023, 1, 1, 0, 0, 0, 0, time.UTC)
	mar := time.Date(2023, 3, 1, 0, 0, 0, 0, time.UTC)
	renewal := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	require.NoError(t, db.Exec(`INSERT INTO memberships (id, status, created_at, last_renewal) VALUES (?, ?, ?, ?)`,
		"m-2", "Lapsed", mar, nil).Error)
	require.NoError(t, db.Exec(`INSERT INTO memberships (id, status, created_at, last_renewal) VALUES (?, ?, ?, ?)`,
		"m-1", "Active", jan, renewal).Error)

	got, err := Provide().ListForMetrics(context.Background(), db)
	require.NoError(t, err)

	require.Len(t, got, 2)
	assert.Equal(t, "m-1", got[0].ID)
	assert.True(t, got[0].IsActive())
	require.NotNil(t, got[0].LastRenewal)
	assert.True(t, renewal.Equal(*got[0].LastRenewal))
	assert.Equal(t, "m-2", got[1].ID)
	assert.False(t, got[1].IsActive())
	assert.Nil(t, got[1].LastRenewal)
}

func TestListForMetricsSurfacesQueryFailure(t *testing.T) {
	db, err := gorm.Open(sqlite.Open("file::memory:"), &gorm.Config{})
	require.NoError(t, err)

	_, err = Provide().ListForMetrics(context.Background(), db)
	assert.Error(t, err)
}
